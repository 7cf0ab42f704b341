package strategy

import (
	"math"
	"sort"

	"github.com/optbench/options-workbench/pkg/models"
)

// ExpirationPayoff returns the total dollar P/L of the strategy at
// expiration with the underlying at the given price. Excluded and
// structurally invalid legs contribute nothing.
func ExpirationPayoff(legs []models.Leg, price float64) float64 {
	var total float64
	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}
		total += legPayoff(l, price)
	}
	return total
}

// legPayoff is the expiration P/L of a single leg for its open quantity
func legPayoff(l models.Leg, price float64) float64 {
	var value float64
	switch l.Kind {
	case models.LegCall:
		value = math.Max(0, price-l.Strike)
	case models.LegPut:
		value = math.Max(0, l.Strike-price)
	case models.LegStock:
		value = price
	}
	return (value - l.Premium) * l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
}

// payoffKnots returns the underlying prices where the piecewise-linear
// expiration payoff can change slope or reach an extreme: zero, every
// distinct strike, and a synthetic price far above the highest strike.
func payoffKnots(legs []models.Leg) []float64 {
	seen := make(map[float64]struct{})
	knots := []float64{0}
	high := 0.0
	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}
		ref := l.Strike
		if l.Kind == models.LegStock {
			ref = l.Premium
		}
		if ref > high {
			high = ref
		}
		if !l.Kind.IsOption() {
			continue
		}
		if _, ok := seen[l.Strike]; ok {
			continue
		}
		seen[l.Strike] = struct{}{}
		knots = append(knots, l.Strike)
	}
	if high <= 0 {
		high = 1
	}
	knots = append(knots, high*10)
	sort.Float64s(knots)
	return knots
}

// rightSlope is the analytic payoff slope as price grows without bound:
// only calls and stock still move out there.
func rightSlope(legs []models.Leg) float64 {
	var slope float64
	for _, l := range legs {
		if l.Excluded || !l.Valid() {
			continue
		}
		switch l.Kind {
		case models.LegCall, models.LegStock:
			slope += l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
		}
	}
	return slope
}
