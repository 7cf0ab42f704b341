package ledger

import (
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Fees is the commission schedule applied to positions
type Fees struct {
	PerTrade    float64
	PerContract float64
	RoundTrip   bool
}

// factor doubles fees when positions are costed as round trips
func (f Fees) factor() float64 {
	if f.RoundTrip {
		return 2
	}
	return 1
}

// Ledger tracks realized and unrealized P/L per leg against locked cost
// bases and frozen closing entries.
type Ledger struct {
	fees Fees
	log  *logger.Logger
}

// New creates a ledger with the given commission schedule
func New(fees Fees) *Ledger {
	return &Ledger{
		fees: fees,
		log:  logger.GetLogger("ledger"),
	}
}

// Position computes the P/L breakdown for one leg. currentPrice is the
// per-unit valuation (theoretical or market) of the open quantity.
//
// Realized P/L sums the non-excluded closing entries against the
// opening prices frozen inside them, never against the leg's current
// premium. Unrealized P/L is only reported when the leg carries a
// settled cost basis; a theoretical placeholder yields
// UnrealizedKnown=false rather than a misleading zero.
func (lg *Ledger) Position(leg models.Leg, currentPrice float64) models.PositionPL {
	if leg.Excluded || !leg.Valid() {
		return models.PositionPL{UnrealizedKnown: true}
	}

	mult := leg.Kind.Multiplier()
	sign := leg.Direction.Sign()

	var realized float64
	if leg.Closing.Enabled {
		for _, e := range leg.Closing.Entries {
			if e.Excluded {
				continue
			}
			realized += (e.ClosePrice - e.OpenPrice) * e.Quantity * mult * sign
		}
	}

	pl := models.PositionPL{
		Realized:     realized,
		OpenQuantity: leg.OpenQuantity(),
		Commission:   (lg.fees.PerTrade + leg.Quantity*lg.fees.PerContract) * lg.fees.factor(),
	}

	if pl.OpenQuantity <= 0 {
		pl.UnrealizedKnown = true
		return pl
	}

	if !models.Settled(leg.Basis) {
		return pl
	}

	pl.Unrealized = (currentPrice - leg.Premium) * pl.OpenQuantity * mult * sign
	pl.UnrealizedKnown = true
	return pl
}

// RealizedTotal sums realized P/L over the included legs. The scenario
// grid adds this as a constant offset: it does not vary with the
// hypothetical price or elapsed time.
func (lg *Ledger) RealizedTotal(legs []models.Leg) float64 {
	var total float64
	for _, l := range legs {
		total += lg.Position(l, 0).Realized
	}
	return total
}

// Commission totals the schedule across the included legs: one opening
// trade per leg plus per-contract fees, doubled for round trips.
func (lg *Ledger) Commission(legs []models.Leg) float64 {
	var trades, contracts float64
	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}
		trades++
		contracts += l.Quantity
	}
	return (trades*lg.fees.PerTrade + contracts*lg.fees.PerContract) * lg.fees.factor()
}
