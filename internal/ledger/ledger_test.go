package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbench/options-workbench/pkg/models"
)

func openLeg(direction models.Direction, qty, premium float64) models.Leg {
	return models.Leg{
		ID:           "leg",
		Kind:         models.LegCall,
		Direction:    direction,
		Strike:       100,
		Quantity:     qty,
		Premium:      premium,
		Basis:        models.ManualBasis{Value: premium},
		DaysToExpiry: 30,
	}
}

func TestRealizedConservation(t *testing.T) {
	lg := New(Fees{})

	// Quantity 2, close 1 unit at 7 against an opening price of 5
	leg := openLeg(models.Long, 2, 5).Close(1, 7)

	pl := lg.Position(leg, 8)
	assert.Equal(t, 200.0, pl.Realized, "(7-5) x 1 x 100")
	assert.Equal(t, 1.0, pl.OpenQuantity)

	// The remaining unit is marked against the same basis
	require.True(t, pl.UnrealizedKnown)
	assert.Equal(t, 300.0, pl.Unrealized, "(8-5) x 1 x 100")
}

func TestShortSignFlip(t *testing.T) {
	lg := New(Fees{})

	leg := openLeg(models.Short, 1, 5).Close(1, 3)

	pl := lg.Position(leg, 3)
	assert.Equal(t, 200.0, pl.Realized, "short: (5-3) x 1 x 100")
	assert.Zero(t, pl.OpenQuantity)
	assert.True(t, pl.UnrealizedKnown)
	assert.Zero(t, pl.Unrealized)
}

func TestFrozenOpeningPriceSurvivesRepricing(t *testing.T) {
	lg := New(Fees{})

	leg := openLeg(models.Long, 2, 5).Close(1, 7)
	// The leg is repriced after the close; the stored entry keeps the
	// original opening price.
	repriced := leg.WithManualPremium(9)

	pl := lg.Position(repriced, 9)
	assert.Equal(t, 200.0, pl.Realized)
}

func TestUnrealizedUnavailableWithoutSettledBasis(t *testing.T) {
	lg := New(Fees{})

	leg := openLeg(models.Long, 1, 5)
	leg.Basis = models.TheoreticalBasis{ModelPrice: 5, Volatility: 0.3}

	pl := lg.Position(leg, 8)
	assert.False(t, pl.UnrealizedKnown, "theoretical basis is a placeholder")
	assert.Zero(t, pl.Unrealized)
}

func TestExcludedClosingEntryIgnored(t *testing.T) {
	lg := New(Fees{})

	leg := openLeg(models.Long, 2, 5).Close(1, 7)
	leg.Closing.Entries[0].Excluded = true

	pl := lg.Position(leg, 8)
	assert.Zero(t, pl.Realized)
	assert.Equal(t, 2.0, pl.OpenQuantity, "excluded close reverts to open")
}

func TestExcludedAndInvalidLegs(t *testing.T) {
	lg := New(Fees{})

	excluded := openLeg(models.Long, 1, 5)
	excluded.Excluded = true
	assert.Equal(t, models.PositionPL{UnrealizedKnown: true}, lg.Position(excluded, 8))

	overClosed := openLeg(models.Long, 1, 5).Close(2, 7)
	assert.Equal(t, models.PositionPL{UnrealizedKnown: true}, lg.Position(overClosed, 8))
}

func TestCommissionSchedule(t *testing.T) {
	lg := New(Fees{PerTrade: 1.0, PerContract: 0.65})

	legs := []models.Leg{
		openLeg(models.Long, 1, 5),
		openLeg(models.Short, 2, 3),
	}

	// 2 trades x 1.00 + 3 contracts x 0.65
	assert.InDelta(t, 4.95, lg.Commission(legs), 1e-9)

	roundTrip := New(Fees{PerTrade: 1.0, PerContract: 0.65, RoundTrip: true})
	assert.InDelta(t, 9.90, roundTrip.Commission(legs), 1e-9)
}

func TestRealizedTotalAcrossLegs(t *testing.T) {
	lg := New(Fees{})

	legs := []models.Leg{
		openLeg(models.Long, 2, 5).Close(1, 7),  // +200
		openLeg(models.Short, 1, 5).Close(1, 3), // +200
		openLeg(models.Long, 1, 5),              // nothing closed
	}
	assert.Equal(t, 400.0, lg.RealizedTotal(legs))
}
