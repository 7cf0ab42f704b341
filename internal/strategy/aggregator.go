package strategy

import (
	"math"
	"sort"

	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// breakevenTolerance merges breakeven prices closer together than this
const breakevenTolerance = 1e-4

// slopeTolerance below which a terminal payoff slope counts as flat
const slopeTolerance = 1e-9

// LegValue is the per-unit valuation of one leg at the current spot
type LegValue struct {
	LegID  string
	Price  float64
	Greeks models.Greeks
}

// Evaluation is the full portfolio-level output for a set of legs
type Evaluation struct {
	Greeks     models.Greeks
	NetPremium float64
	Metrics    models.StrategyMetrics
	Legs       []LegValue
}

// Aggregator combines option and stock legs into portfolio Greeks, net
// premium and strategy-level risk/reward metrics.
type Aggregator struct {
	pricer *pricing.Pricer
	log    *logger.Logger
}

// NewAggregator creates an aggregator around the given pricer
func NewAggregator(pricer *pricing.Pricer) *Aggregator {
	return &Aggregator{
		pricer: pricer,
		log:    logger.GetLogger("strategy.aggregator"),
	}
}

// Evaluate prices every includable leg at the current spot and
// volatility and aggregates the results. An empty or fully excluded
// strategy yields flat, zero-valued results.
func (a *Aggregator) Evaluate(legs []models.Leg, spot, vol float64) Evaluation {
	ev := Evaluation{
		Metrics: a.Metrics(legs),
	}

	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}

		q := a.pricer.Evaluate(l.Kind, spot, l.Strike, pricing.Years(l.DaysToExpiry), volFor(l, vol))
		ev.Legs = append(ev.Legs, LegValue{LegID: l.ID, Price: q.Price, Greeks: q.Greeks})

		scale := l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
		ev.Greeks = ev.Greeks.Add(q.Greeks.Scale(scale))

		// Long legs pay premium out, short legs collect it
		ev.NetPremium -= l.Premium * l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
	}

	return ev
}

// Greeks returns just the signed portfolio Greeks
func (a *Aggregator) Greeks(legs []models.Leg, spot, vol float64) models.Greeks {
	return a.Evaluate(legs, spot, vol).Greeks
}

// Metrics derives max profit, max loss and breakevens from the
// expiration payoff. The payoff is piecewise linear with slope changes
// only at strikes, so sampling every knot plus the synthetic extremes
// captures the exact extrema; an end is unbounded only when the payoff
// keeps moving there, regardless of whether any individual leg is short.
func (a *Aggregator) Metrics(legs []models.Leg) models.StrategyMetrics {
	included := 0
	var netPremium float64
	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}
		included++
		netPremium -= l.Premium * l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
	}

	zero := 0.0
	if included == 0 {
		return models.StrategyMetrics{MaxProfit: &zero, MaxLoss: &zero}
	}

	knots := payoffKnots(legs)
	payoffs := make([]float64, len(knots))
	maxP := math.Inf(-1)
	minP := math.Inf(1)
	for i, k := range knots {
		payoffs[i] = ExpirationPayoff(legs, k)
		maxP = math.Max(maxP, payoffs[i])
		minP = math.Min(minP, payoffs[i])
	}

	metrics := models.StrategyMetrics{
		NetPremium: netPremium,
		Breakevens: breakevens(legs, knots, payoffs),
	}

	slope := rightSlope(legs)
	if slope > slopeTolerance {
		metrics.MaxProfit = nil // unbounded upside
	} else {
		mp := maxP
		metrics.MaxProfit = &mp
	}
	if slope < -slopeTolerance {
		metrics.MaxLoss = nil // unbounded downside as price rises
	} else {
		ml := math.Max(0, -minP)
		metrics.MaxLoss = &ml
	}

	return metrics
}

// breakevens finds the zero crossings of the sampled payoff by linear
// interpolation, plus the crossing past the last knot when the payoff is
// still heading toward zero out there.
func breakevens(legs []models.Leg, knots, payoffs []float64) []float64 {
	var points []float64
	for i := 1; i < len(knots); i++ {
		p0, p1 := payoffs[i-1], payoffs[i]
		if p0 == 0 {
			points = append(points, knots[i-1])
			continue
		}
		if p0*p1 < 0 {
			// Interpolate the crossing inside the segment
			t := p0 / (p0 - p1)
			points = append(points, knots[i-1]+t*(knots[i]-knots[i-1]))
		}
	}
	if last := payoffs[len(payoffs)-1]; last == 0 {
		points = append(points, knots[len(knots)-1])
	} else if slope := rightSlope(legs); last*slope < 0 && math.Abs(slope) > slopeTolerance {
		// Payoff at the far knot still has the opposite sign of its
		// terminal slope, so it crosses zero beyond the sampled range.
		points = append(points, knots[len(knots)-1]-last/slope)
	}

	sort.Float64s(points)
	var out []float64
	for _, p := range points {
		if len(out) > 0 && p-out[len(out)-1] < breakevenTolerance {
			continue
		}
		out = append(out, p)
	}
	return out
}

// volFor picks the volatility to price a leg with: the user-supplied
// override first, the leg's entry IV next, the default last.
func volFor(l models.Leg, vol float64) float64 {
	if vol > 0 {
		return vol
	}
	if l.EntryIV > 0 {
		return l.EntryIV
	}
	return pricing.DefaultVolatility
}
