package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbench/options-workbench/internal/ledger"
	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/internal/strategy"
	"github.com/optbench/options-workbench/pkg/models"
)

var asOf = time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

func newGenerator() (*Generator, *pricing.Pricer) {
	pricer := pricing.NewPricer(0.05)
	return NewGenerator(pricer, ledger.New(ledger.Fees{})), pricer
}

func longCall(strike, premium, qty, days float64) models.Leg {
	return models.Leg{
		ID:           "lc",
		Kind:         models.LegCall,
		Direction:    models.Long,
		Strike:       strike,
		Quantity:     qty,
		Premium:      premium,
		Basis:        models.ManualBasis{Value: premium},
		DaysToExpiry: days,
	}
}

func rowIndex(t *testing.T, grid *models.ScenarioGrid, price float64) int {
	t.Helper()
	for i, p := range grid.Prices {
		if p == price {
			return i
		}
	}
	t.Fatalf("price %v not found in grid rows %v", price, grid.Prices)
	return -1
}

func TestDayZeroAtSpotMatchesLiveValuation(t *testing.T) {
	g, pricer := newGenerator()
	legs := []models.Leg{longCall(185, 5, 1, 30)}

	grid := g.Generate(Request{
		Legs:         legs,
		Spot:         185,
		Vol:          0.30,
		RangePercent: 0.2,
		DayOffsets:   []float64{0, 15, 30},
		AsOf:         asOf,
	})

	agg := strategy.NewAggregator(pricer)
	ev := agg.Evaluate(legs, 185, 0.30)
	require.Len(t, ev.Legs, 1)
	live := (ev.Legs[0].Price - 5) * 1 * 100

	cell := grid.PL[rowIndex(t, grid, 185)][0]
	assert.InDelta(t, live, cell, 1e-9)
}

func TestExpiryColumnIsIntrinsicPayoff(t *testing.T) {
	g, _ := newGenerator()
	legs := []models.Leg{longCall(185, 5, 1, 30)}

	grid := g.Generate(Request{
		Legs:         legs,
		Spot:         185,
		Vol:          0.30,
		RangePercent: 0.2,
		DayOffsets:   []float64{0, 30},
		AsOf:         asOf,
	})

	last := len(grid.DayOffsets) - 1
	require.Equal(t, 30.0, grid.DayOffsets[last])
	for i, price := range grid.Prices {
		assert.InDelta(t, strategy.ExpirationPayoff(legs, price), grid.PL[i][last], 1e-9,
			"expiry cell at price %v", price)
	}
}

func TestIndependentExpirations(t *testing.T) {
	g, pricer := newGenerator()
	near := longCall(180, 4, 1, 10)
	near.ID = "near"
	far := longCall(190, 6, 1, 40)
	far.ID = "far"
	legs := []models.Leg{near, far}

	grid := g.Generate(Request{
		Legs:         legs,
		Spot:         185,
		Vol:          0.30,
		RangePercent: 0.2,
		DayOffsets:   []float64{20},
		AsOf:         asOf,
	})

	// After 20 days the near leg is past its own expiration and is worth
	// intrinsic only, while the far leg still has 20 days of time value.
	i := rowIndex(t, grid, 185)
	wantNear := (185.0 - 180.0 - 4.0) * 100
	farQuote := pricer.Evaluate(models.LegCall, 185, 190, pricing.Years(20), 0.30)
	wantFar := (farQuote.Price - 6) * 100
	assert.InDelta(t, wantNear+wantFar, grid.PL[i][0], 1e-9)
}

func TestRealizedPLIsConstantOffset(t *testing.T) {
	g, _ := newGenerator()

	open := longCall(185, 5, 2, 30)
	closed := open.Close(1, 7) // +200 realized

	base := g.Generate(Request{
		Legs: []models.Leg{open}, Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0, 15, 30}, AsOf: asOf,
	})
	withClose := g.Generate(Request{
		Legs: []models.Leg{closed}, Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0, 15, 30}, AsOf: asOf,
	})

	// Closing half the position leaves half the open P/L in every cell
	// plus the same realized constant everywhere.
	for i := range base.PL {
		for j := range base.PL[i] {
			assert.InDelta(t, base.PL[i][j]/2+200, withClose.PL[i][j], 1e-9)
		}
	}
}

func TestFullyClosedLegIsFlatRealized(t *testing.T) {
	g, _ := newGenerator()
	leg := longCall(185, 5, 1, 30).Close(1, 7)

	grid := g.Generate(Request{
		Legs: []models.Leg{leg}, Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0, 30}, AsOf: asOf,
	})

	for i := range grid.PL {
		for j := range grid.PL[i] {
			assert.Equal(t, 200.0, grid.PL[i][j])
		}
	}
}

func TestDeterministicAcrossCalls(t *testing.T) {
	g, _ := newGenerator()
	req := Request{
		Legs: []models.Leg{longCall(185, 5, 1, 30)},
		Spot: 185, Vol: 0.3, RangePercent: 0.2,
		AsOf: asOf,
	}

	first := g.Generate(req)
	second := g.Generate(req)
	assert.Equal(t, first, second, "same request must produce the same grid")
}

func TestAutoDayColumns(t *testing.T) {
	g, _ := newGenerator()
	grid := g.Generate(Request{
		Legs: []models.Leg{longCall(185, 5, 1, 30)},
		Spot: 185, Vol: 0.3, RangePercent: 0.2,
		AsOf: asOf,
	})

	offs := grid.DayOffsets
	require.NotEmpty(t, offs)
	assert.Equal(t, 0.0, offs[0], "today is always present")
	assert.Equal(t, 30.0, offs[len(offs)-1], "nearest expiration is always present")

	subDay := false
	for i := 1; i < len(offs); i++ {
		require.Greater(t, offs[i], offs[i-1], "offsets must be strictly increasing")
		if offs[i] != float64(int(offs[i])) {
			subDay = true
		}
	}
	assert.True(t, subDay, "final days before expiry get sub-day columns")
}

func TestRowsCoverStrikesAndSpot(t *testing.T) {
	g, _ := newGenerator()
	grid := g.Generate(Request{
		Legs: []models.Leg{longCall(185, 5, 1, 30), longCall(200, 2, 1, 30)},
		Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0},
		AsOf:       asOf,
	})

	assert.Contains(t, grid.Prices, 185.0)
	assert.Contains(t, grid.Prices, 200.0)
	// Strike outside the range is not a row
	out := g.Generate(Request{
		Legs: []models.Leg{longCall(400, 1, 1, 30)},
		Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0},
		AsOf:       asOf,
	})
	assert.NotContains(t, out.Prices, 400.0)
}

func TestColumnDates(t *testing.T) {
	g, _ := newGenerator()
	grid := g.Generate(Request{
		Legs: []models.Leg{longCall(185, 5, 1, 30)},
		Spot: 185, Vol: 0.3, RangePercent: 0.2,
		DayOffsets: []float64{0, 1.5, 30},
		AsOf:       asOf,
	})

	require.Len(t, grid.Dates, 3)
	assert.Equal(t, asOf, grid.Dates[0])
	assert.Equal(t, asOf.Add(36*time.Hour), grid.Dates[1])
	assert.Equal(t, asOf.Add(30*24*time.Hour), grid.Dates[2])
}

func TestEmptyLegsYieldFlatGrid(t *testing.T) {
	g, _ := newGenerator()
	grid := g.Generate(Request{Spot: 100, RangePercent: 0.2, AsOf: asOf})

	require.NotEmpty(t, grid.Prices)
	require.Equal(t, []float64{0}, grid.DayOffsets)
	for i := range grid.PL {
		assert.Zero(t, grid.PL[i][0])
	}
}
