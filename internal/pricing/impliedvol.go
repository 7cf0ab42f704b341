package pricing

import (
	"math"

	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// SolverConfig tunes the implied volatility search
type SolverConfig struct {
	Seed          float64 // starting volatility for Newton-Raphson
	Fallback      float64 // returned when no solution exists
	Tolerance     float64 // convergence tolerance on price
	MaxIterations int
	MinVol        float64 // bisection bracket low
	MaxVol        float64 // bisection bracket high
}

// DefaultSolverConfig returns the standard search parameters
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Seed:          DefaultVolatility,
		Fallback:      DefaultVolatility,
		Tolerance:     1e-4,
		MaxIterations: 100,
		MinVol:        0.01,
		MaxVol:        5.0,
	}
}

// Solver inverts the pricing model to recover implied volatility from an
// observed price. Newton-Raphson on vega first; bisection over the
// bounded volatility interval when Newton stalls or walks out of range.
// Price is monotonically increasing in volatility, so the bracket is
// reliable whenever a root exists.
type Solver struct {
	pricer *Pricer
	cfg    SolverConfig
	log    *logger.Logger
}

// NewSolver creates a solver around the given pricer. Zero-valued config
// fields are filled from DefaultSolverConfig.
func NewSolver(pricer *Pricer, cfg SolverConfig) *Solver {
	def := DefaultSolverConfig()
	if cfg.Seed <= 0 {
		cfg.Seed = def.Seed
	}
	if cfg.Fallback <= 0 {
		cfg.Fallback = def.Fallback
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MinVol <= 0 {
		cfg.MinVol = def.MinVol
	}
	if cfg.MaxVol <= cfg.MinVol {
		cfg.MaxVol = def.MaxVol
	}
	return &Solver{
		pricer: pricer,
		cfg:    cfg,
		log:    logger.GetLogger("pricing.impliedvol"),
	}
}

// Solve returns the volatility that reproduces the observed price, or
// the fallback volatility when the price is outside the arbitrage
// bounds, the option has expired, or the search fails. Never NaN, never
// negative.
func (s *Solver) Solve(kind models.LegKind, price, spot, strike, years float64) float64 {
	if price <= 0 || spot <= 0 || strike <= 0 || years <= 0 || !kind.IsOption() {
		return s.cfg.Fallback
	}

	disc := math.Exp(-s.pricer.RiskFreeRate() * years)
	var lower, upper float64
	if kind == models.LegCall {
		lower = math.Max(0, spot-strike*disc)
		upper = spot
	} else {
		lower = math.Max(0, strike*disc-spot)
		upper = strike * disc
	}
	if price < lower || price >= upper {
		return s.cfg.Fallback
	}

	sigma := s.cfg.Seed
	for i := 0; i < s.cfg.MaxIterations; i++ {
		q := s.pricer.Evaluate(kind, spot, strike, years, sigma)
		diff := q.Price - price
		if math.Abs(diff) < s.cfg.Tolerance {
			return sigma
		}

		// Greeks.Vega is per volatility point; Newton needs the raw
		// derivative dPrice/dVol.
		vega := q.Greeks.Vega * 100
		if vega < 1e-8 {
			break
		}

		sigma -= diff / vega
		if sigma <= s.cfg.MinVol || sigma >= s.cfg.MaxVol || math.IsNaN(sigma) {
			break
		}
	}

	return s.bisect(kind, price, spot, strike, years)
}

func (s *Solver) bisect(kind models.LegKind, price, spot, strike, years float64) float64 {
	lo, hi := s.cfg.MinVol, s.cfg.MaxVol

	if s.pricer.Price(kind, spot, strike, years, lo) >= price {
		// Target sits below the lowest representable volatility
		return lo
	}
	if s.pricer.Price(kind, spot, strike, years, hi) <= price {
		s.log.Debugf("implied vol bracket failed: price=%f spot=%f strike=%f", price, spot, strike)
		return s.cfg.Fallback
	}

	mid := s.cfg.Seed
	for i := 0; i < s.cfg.MaxIterations; i++ {
		mid = (lo + hi) / 2
		diff := s.pricer.Price(kind, spot, strike, years, mid) - price
		if math.Abs(diff) < s.cfg.Tolerance {
			return mid
		}
		if diff > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return mid
}
