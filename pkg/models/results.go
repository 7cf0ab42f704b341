package models

import (
	"time"
)

// The Greeks of an option or of a whole strategy. All values are
// scalar and additive across legs: theta is per calendar day, vega per
// one percentage point of volatility, rho per one percentage point of
// rate.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Add returns the element-wise sum of two Greek sets
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale returns the Greeks multiplied by a signed factor
func (g Greeks) Scale(f float64) Greeks {
	return Greeks{
		Delta: g.Delta * f,
		Gamma: g.Gamma * f,
		Theta: g.Theta * f,
		Vega:  g.Vega * f,
		Rho:   g.Rho * f,
	}
}

// StrategyMetrics summarizes the risk/reward profile of a strategy at
// expiration. A nil MaxProfit or MaxLoss means that end of the payoff is
// unbounded. NetPremium is signed: positive means credit received.
type StrategyMetrics struct {
	MaxProfit  *float64
	MaxLoss    *float64
	Breakevens []float64
	NetPremium float64
}

// ScenarioGrid is the P/L surface over hypothetical underlying prices
// (rows) and elapsed trading days (columns). PL[i][j] is total dollar
// P/L with the underlying at Prices[i] after DayOffsets[j] days.
type ScenarioGrid struct {
	Prices     []float64
	DayOffsets []float64
	Dates      []time.Time // calendar date of each column
	PL         [][]float64
}

// PositionPL is the realized/unrealized breakdown for a single leg
type PositionPL struct {
	Realized        float64
	Unrealized      float64
	UnrealizedKnown bool // false when no settled cost basis exists
	OpenQuantity    float64
	Commission      float64
}

// ExpectedMove is the market-implied price range to the nearest
// expiration. Once computed for a (symbol, expiration) key it is frozen
// and re-served from cache.
type ExpectedMove struct {
	Symbol     string
	Expiration time.Time
	Move       float64
	Lower      float64
	Upper      float64
	Percent    float64
	Straddle   float64 // ATM straddle component
	StrangleA  float64 // first OTM strangle, 0 when unavailable
	StrangleB  float64 // second OTM strangle, 0 when unavailable
}
