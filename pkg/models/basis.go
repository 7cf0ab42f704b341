package models

// CostBasis records where a leg's entry premium came from. Each variant
// carries only the data that justifies that provenance; callers switch
// on the concrete type rather than comparing tags.
type CostBasis interface {
	// Price returns the per-unit entry price the basis justifies
	Price() float64
	costBasis()
}

// MarketBasis is a premium taken from a live market quote
type MarketBasis struct {
	QuoteID string
	Mid     float64
}

func (b MarketBasis) Price() float64 { return b.Mid }
func (b MarketBasis) costBasis()     {}

// TheoreticalBasis is a model price used as a placeholder until the user
// supplies a real fill. It does not represent money actually paid.
type TheoreticalBasis struct {
	ModelPrice float64
	Volatility float64
}

func (b TheoreticalBasis) Price() float64 { return b.ModelPrice }
func (b TheoreticalBasis) costBasis()     {}

// ManualBasis is a premium typed in by the user
type ManualBasis struct {
	Value float64
}

func (b ManualBasis) Price() float64 { return b.Value }
func (b ManualBasis) costBasis()     {}

// SavedBasis is a premium restored from a saved or shared strategy
type SavedBasis struct {
	StrategyID string
	EntryPrice float64
}

func (b SavedBasis) Price() float64 { return b.EntryPrice }
func (b SavedBasis) costBasis()     {}

// Settled reports whether the basis represents an actual fill suitable
// for P/L measurement. Theoretical prices and an absent basis are
// placeholders: unrealized P/L against them is reported as unavailable,
// not as zero.
func Settled(b CostBasis) bool {
	switch b.(type) {
	case MarketBasis, ManualBasis, SavedBasis:
		return true
	case TheoreticalBasis, nil:
		return false
	}
	return false
}
