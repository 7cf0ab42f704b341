package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbench/options-workbench/pkg/models"
)

func TestEvaluateLongCallScenario(t *testing.T) {
	// AAPL at 185, 185 strike, 30 DTE, 30% vol
	p := NewPricer(0.05)
	q := p.Evaluate(models.LegCall, 185, 185, Years(30), 0.30)

	assert.Greater(t, q.Price, 5.0)
	assert.Less(t, q.Price, 8.0)
	assert.Greater(t, q.Greeks.Delta, 0.50)
	assert.Less(t, q.Greeks.Delta, 0.60)
	assert.Greater(t, q.Greeks.Gamma, 0.0)
	assert.Less(t, q.Greeks.Theta, 0.0)
	assert.Greater(t, q.Greeks.Vega, 0.0)
}

func TestPutCallParity(t *testing.T) {
	p := NewPricer(0.05)

	for _, spot := range []float64{80, 100, 120} {
		for _, strike := range []float64{90, 100, 110} {
			for _, years := range []float64{0.1, 0.5, 1.0} {
				for _, vol := range []float64{0.1, 0.3, 0.8} {
					call := p.Price(models.LegCall, spot, strike, years, vol)
					put := p.Price(models.LegPut, spot, strike, years, vol)
					want := spot - strike*math.Exp(-0.05*years)
					require.InDelta(t, want, call-put, 1e-6,
						"parity failed for S=%v K=%v T=%v vol=%v", spot, strike, years, vol)
				}
			}
		}
	}
}

func TestPriceMonotonicInVolatility(t *testing.T) {
	p := NewPricer(0.05)

	for _, kind := range []models.LegKind{models.LegCall, models.LegPut} {
		prev := -1.0
		for vol := 0.05; vol <= 2.0; vol += 0.05 {
			price := p.Price(kind, 100, 105, 0.25, vol)
			require.GreaterOrEqual(t, price, prev, "%s price decreased at vol=%v", kind, vol)
			prev = price
		}
	}
}

func TestExpiryConvergence(t *testing.T) {
	p := NewPricer(0.05)

	// Price converges to intrinsic as T -> 0
	prevITM := math.Inf(1)
	for _, years := range []float64{0.1, 0.01, 0.001, 0.0001} {
		itm := p.Price(models.LegCall, 110, 100, years, 0.3)
		require.Less(t, itm, prevITM)
		prevITM = itm
	}
	assert.InDelta(t, 10.0, prevITM, 0.15)

	// At T = 0 exactly: intrinsic value and a step delta
	q := p.Evaluate(models.LegCall, 110, 100, 0, 0.3)
	assert.Equal(t, 10.0, q.Price)
	assert.Equal(t, 1.0, q.Greeks.Delta)
	assert.Zero(t, q.Greeks.Gamma)
	assert.Zero(t, q.Greeks.Vega)
	assert.Zero(t, q.Greeks.Theta)

	q = p.Evaluate(models.LegCall, 90, 100, 0, 0.3)
	assert.Zero(t, q.Price)
	assert.Zero(t, q.Greeks.Delta)

	q = p.Evaluate(models.LegPut, 90, 100, 0, 0.3)
	assert.Equal(t, 10.0, q.Price)
	assert.Equal(t, -1.0, q.Greeks.Delta)

	q = p.Evaluate(models.LegPut, 110, 100, 0, 0.3)
	assert.Zero(t, q.Price)
	assert.Zero(t, q.Greeks.Delta)
}

func TestZeroVolatilityTreatedAsExpiry(t *testing.T) {
	p := NewPricer(0.05)

	q := p.Evaluate(models.LegCall, 120, 100, 0.5, 0)
	assert.Equal(t, 20.0, q.Price)
	assert.Equal(t, 1.0, q.Greeks.Delta)
	assert.Zero(t, q.Greeks.Vega)
}

func TestExtremeMoneynessStaysFinite(t *testing.T) {
	p := NewPricer(0.05)

	cases := []struct {
		spot, strike float64
	}{
		{100, 1e6},  // absurdly OTM call
		{100, 0.01}, // absurdly ITM call
		{1e6, 100},
		{0.01, 100},
	}
	for _, tc := range cases {
		for _, kind := range []models.LegKind{models.LegCall, models.LegPut} {
			q := p.Evaluate(kind, tc.spot, tc.strike, 0.5, 0.3)
			require.False(t, math.IsNaN(q.Price), "price NaN for S=%v K=%v", tc.spot, tc.strike)
			require.False(t, math.IsInf(q.Price, 0), "price Inf for S=%v K=%v", tc.spot, tc.strike)
			require.GreaterOrEqual(t, q.Price, 0.0)
			require.False(t, math.IsNaN(q.Greeks.Delta))
		}
	}

	// Deep OTM call is worth nothing, deep ITM call is nearly forward
	otm := p.Price(models.LegCall, 100, 1e6, 0.5, 0.3)
	assert.InDelta(t, 0, otm, 1e-9)
	itm := p.Price(models.LegCall, 100, 0.01, 0.5, 0.3)
	assert.InDelta(t, 100-0.01*math.Exp(-0.05*0.5), itm, 1e-6)
}

func TestStockBypassesModel(t *testing.T) {
	p := NewPricer(0.05)

	q := p.Evaluate(models.LegStock, 185, 0, 0, 0)
	assert.Equal(t, 185.0, q.Price)
	assert.Equal(t, 1.0, q.Greeks.Delta)
	assert.Zero(t, q.Greeks.Gamma)
	assert.Zero(t, q.Greeks.Theta)
	assert.Zero(t, q.Greeks.Vega)
	assert.Zero(t, q.Greeks.Rho)
}

func TestInvalidInputsReturnZeroQuote(t *testing.T) {
	p := NewPricer(0.05)

	assert.Equal(t, Quote{}, p.Evaluate(models.LegCall, -5, 100, 0.5, 0.3))
	assert.Equal(t, Quote{}, p.Evaluate(models.LegPut, 100, 0, 0.5, 0.3))
}
