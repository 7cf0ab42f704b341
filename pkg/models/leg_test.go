package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseLeg() Leg {
	return Leg{
		ID:           "leg",
		Kind:         LegCall,
		Direction:    Long,
		Strike:       100,
		Quantity:     2,
		Premium:      5,
		Basis:        ManualBasis{Value: 5},
		DaysToExpiry: 30,
	}
}

func TestValidity(t *testing.T) {
	assert.True(t, baseLeg().Valid())

	zeroQty := baseLeg()
	zeroQty.Quantity = 0
	assert.False(t, zeroQty.Valid())

	noStrike := baseLeg()
	noStrike.Strike = 0
	assert.False(t, noStrike.Valid())

	stock := baseLeg()
	stock.Kind = LegStock
	stock.Strike = 0
	assert.True(t, stock.Valid(), "stock needs no strike")

	overClosed := baseLeg().Close(3, 7)
	assert.False(t, overClosed.Valid())
}

func TestOpenQuantityAndFullyClosed(t *testing.T) {
	leg := baseLeg()
	assert.Equal(t, 2.0, leg.OpenQuantity())
	assert.False(t, leg.FullyClosed())

	half := leg.Close(1, 7)
	assert.Equal(t, 1.0, half.OpenQuantity())

	full := half.Close(1, 7)
	assert.Zero(t, full.OpenQuantity())
	assert.True(t, full.FullyClosed())
}

func TestCloseFreezesPremiumAndStrike(t *testing.T) {
	closed := baseLeg().Close(1, 7)

	require.Len(t, closed.Closing.Entries, 1)
	entry := closed.Closing.Entries[0]
	assert.Equal(t, 5.0, entry.OpenPrice)
	assert.Equal(t, 100.0, entry.Strike)
	assert.Equal(t, 7.0, entry.ClosePrice)

	// Repricing the leg afterwards must not reach back into the entry
	repriced := closed.WithManualPremium(9)
	assert.Equal(t, 5.0, repriced.Closing.Entries[0].OpenPrice)
}

func TestUpdateHelpersDoNotAliasHistory(t *testing.T) {
	original := baseLeg().Close(1, 7)

	derived := original.WithSnapshot(QuoteSnapshot{Mark: 6})
	derived.Closing.Entries[0].Excluded = true

	assert.False(t, original.Closing.Entries[0].Excluded,
		"mutating a derived leg's history leaked into the original")
}

func TestExcludedClosingEntryRestoresQuantity(t *testing.T) {
	leg := baseLeg().Close(2, 7)
	assert.True(t, leg.FullyClosed())

	leg.Closing.Entries[0].Excluded = true
	assert.Equal(t, 2.0, leg.OpenQuantity())
	assert.True(t, leg.Valid())
}

func TestBasisLock(t *testing.T) {
	locked := baseLeg().WithLockedBasis()

	// Automatic updates bounce off a locked basis
	same := locked.WithAutoPremium(7, MarketBasis{QuoteID: "q1", Mid: 7})
	assert.Equal(t, 5.0, same.Premium)
	assert.True(t, same.BasisLocked)

	// A manual edit goes through and clears the lock
	edited := locked.WithManualPremium(7)
	assert.Equal(t, 7.0, edited.Premium)
	assert.False(t, edited.BasisLocked)
	assert.Equal(t, ManualBasis{Value: 7}, edited.Basis)
}

func TestAutoPremiumUpdatesBasis(t *testing.T) {
	leg := baseLeg()

	updated := leg.WithAutoPremium(6.5, MarketBasis{QuoteID: "q2", Mid: 6.5})
	assert.Equal(t, 6.5, updated.Premium)
	assert.Equal(t, MarketBasis{QuoteID: "q2", Mid: 6.5}, updated.Basis)

	// The source leg is untouched
	assert.Equal(t, 5.0, leg.Premium)
}

func TestPremiumFloor(t *testing.T) {
	assert.Equal(t, MinPremium, FloorPremium(0))
	assert.Equal(t, MinPremium, FloorPremium(-3))
	assert.Equal(t, MinPremium, FloorPremium(0.001))
	assert.Equal(t, 5.0, FloorPremium(5))

	floored := baseLeg().WithManualPremium(0)
	assert.Equal(t, MinPremium, floored.Premium)
	assert.Equal(t, ManualBasis{Value: MinPremium}, floored.Basis)
}

func TestBasisSettlement(t *testing.T) {
	assert.True(t, Settled(MarketBasis{QuoteID: "q", Mid: 5}))
	assert.True(t, Settled(ManualBasis{Value: 5}))
	assert.True(t, Settled(SavedBasis{StrategyID: "s1", EntryPrice: 5}))
	assert.False(t, Settled(TheoreticalBasis{ModelPrice: 5, Volatility: 0.3}),
		"a model price is a placeholder, not a settled basis")
	assert.False(t, Settled(nil))
}

func TestMultiplierAndSign(t *testing.T) {
	assert.Equal(t, 100.0, LegCall.Multiplier())
	assert.Equal(t, 100.0, LegPut.Multiplier())
	assert.Equal(t, 1.0, LegStock.Multiplier())

	assert.Equal(t, 1.0, Long.Sign())
	assert.Equal(t, -1.0, Short.Sign())
}
