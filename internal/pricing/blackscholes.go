package pricing

import (
	"math"

	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

const (
	// DefaultRiskFreeRate is used when the config does not supply one
	DefaultRiskFreeRate = 0.05

	// DefaultVolatility seeds the solver and serves as the fallback when
	// no implied volatility can be recovered from a price.
	DefaultVolatility = 0.30

	daysPerYear = 365.0
)

// Quote is the theoretical value and sensitivities of a single unit of
// an instrument.
type Quote struct {
	Price  float64
	Greeks models.Greeks
}

// Pricer values European options with the Black-Scholes closed form.
// All methods are pure: identical inputs always produce identical
// outputs and no wall clock is read.
type Pricer struct {
	riskFreeRate float64
	log          *logger.Logger
}

// NewPricer creates a pricer with the given annualized risk-free rate
func NewPricer(riskFreeRate float64) *Pricer {
	return &Pricer{
		riskFreeRate: riskFreeRate,
		log:          logger.GetLogger("pricing.blackscholes"),
	}
}

// RiskFreeRate returns the rate the pricer discounts with
func (p *Pricer) RiskFreeRate() float64 {
	return p.riskFreeRate
}

// Years converts days to expiration into year fractions
func Years(days float64) float64 {
	return days / daysPerYear
}

// Evaluate returns the theoretical price and Greeks for one unit.
// Stock legs bypass the model: price = spot, delta = 1, everything else
// zero. Degenerate inputs (expired, zero volatility) collapse to the
// intrinsic value with step delta rather than producing NaN.
func (p *Pricer) Evaluate(kind models.LegKind, spot, strike, years, vol float64) Quote {
	if kind == models.LegStock {
		return Quote{Price: spot, Greeks: models.Greeks{Delta: 1}}
	}

	if spot <= 0 || strike <= 0 {
		p.log.Warnf("invalid pricing inputs: spot=%f strike=%f", spot, strike)
		return Quote{}
	}

	if years <= 0 || vol <= 0 {
		return expiryQuote(kind, spot, strike)
	}

	sqrtT := math.Sqrt(years)
	// Log-moneyness keeps d1/d2 finite for deep ITM/OTM strikes; the
	// erfc-based CDF below stays stable where erf would saturate.
	d1 := (math.Log(spot/strike) + (p.riskFreeRate+0.5*vol*vol)*years) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	disc := math.Exp(-p.riskFreeRate * years)

	var price, delta, theta, rho float64
	if kind == models.LegCall {
		price = spot*normCDF(d1) - strike*disc*normCDF(d2)
		delta = normCDF(d1)
		theta = -spot*normPDF(d1)*vol/(2*sqrtT) - p.riskFreeRate*strike*disc*normCDF(d2)
		rho = strike * years * disc * normCDF(d2) / 100
	} else {
		price = strike*disc*normCDF(-d2) - spot*normCDF(-d1)
		delta = normCDF(d1) - 1
		theta = -spot*normPDF(d1)*vol/(2*sqrtT) + p.riskFreeRate*strike*disc*normCDF(-d2)
		rho = -strike * years * disc * normCDF(-d2) / 100
	}

	if price < 0 {
		price = 0
	}

	return Quote{
		Price: price,
		Greeks: models.Greeks{
			Delta: delta,
			Gamma: normPDF(d1) / (spot * vol * sqrtT),
			Theta: theta / daysPerYear,
			Vega:  spot * normPDF(d1) * sqrtT / 100,
			Rho:   rho,
		},
	}
}

// Price returns just the theoretical price
func (p *Pricer) Price(kind models.LegKind, spot, strike, years, vol float64) float64 {
	return p.Evaluate(kind, spot, strike, years, vol).Price
}

// expiryQuote values an option at (or past) expiration: intrinsic value
// and a step delta at the strike, all other sensitivities zero.
func expiryQuote(kind models.LegKind, spot, strike float64) Quote {
	var price, delta float64
	if kind == models.LegCall {
		price = math.Max(0, spot-strike)
		switch {
		case spot > strike:
			delta = 1
		case spot == strike:
			delta = 0.5
		}
	} else {
		price = math.Max(0, strike-spot)
		switch {
		case spot < strike:
			delta = -1
		case spot == strike:
			delta = -0.5
		}
	}
	return Quote{Price: price, Greeks: models.Greeks{Delta: delta}}
}

// normCDF is the standard normal CDF. Written on erfc so the tail does
// not underflow to a saturated erf for large |x|.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPDF is the standard normal density
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
