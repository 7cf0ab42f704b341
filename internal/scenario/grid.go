package scenario

import (
	"math"
	"sort"
	"time"

	"github.com/optbench/options-workbench/internal/ledger"
	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Request describes the surface to evaluate. AsOf is the only notion of
// "now" the generator ever sees: day offsets are elapsed days from it.
type Request struct {
	Legs         []models.Leg
	Spot         float64
	Vol          float64
	RangePercent float64   // symmetric fraction around spot, e.g. 0.2
	DayOffsets   []float64 // optional; derived from the legs when empty
	AsOf         time.Time
}

// Generator evaluates a strategy's P/L across a (price x elapsed-time)
// grid by repricing every leg in every cell. It is pure: no wall clock,
// no I/O, identical requests produce identical grids.
type Generator struct {
	pricer *pricing.Pricer
	ledger *ledger.Ledger
	log    *logger.Logger
}

// NewGenerator creates a grid generator
func NewGenerator(pricer *pricing.Pricer, ledger *ledger.Ledger) *Generator {
	return &Generator{
		pricer: pricer,
		ledger: ledger,
		log:    logger.GetLogger("scenario.grid"),
	}
}

// Generate builds the P/L surface. Each cell holds the strategy's total
// dollar P/L with the underlying at that row's price after that column's
// elapsed days. Legs expire independently: a leg past its own expiration
// contributes intrinsic value only. Already-realized P/L enters every
// cell as a constant offset.
func (g *Generator) Generate(req Request) *models.ScenarioGrid {
	grid := &models.ScenarioGrid{
		Prices:     g.priceRows(req),
		DayOffsets: g.dayColumns(req),
	}

	grid.Dates = make([]time.Time, len(grid.DayOffsets))
	for j, off := range grid.DayOffsets {
		grid.Dates[j] = req.AsOf.Add(time.Duration(off * 24 * float64(time.Hour)))
	}

	realized := g.ledger.RealizedTotal(req.Legs)

	grid.PL = make([][]float64, len(grid.Prices))
	for i, price := range grid.Prices {
		row := make([]float64, len(grid.DayOffsets))
		for j, elapsed := range grid.DayOffsets {
			row[j] = g.cell(req.Legs, price, elapsed, req.Vol) + realized
		}
		grid.PL[i] = row
	}
	return grid
}

// cell is the open-position P/L with the underlying at price after
// elapsed days.
func (g *Generator) cell(legs []models.Leg, price, elapsed, vol float64) float64 {
	var total float64
	for _, l := range legs {
		if l.Excluded || !l.Valid() || l.FullyClosed() {
			continue
		}
		remaining := math.Max(0, l.DaysToExpiry-elapsed)
		q := g.pricer.Evaluate(l.Kind, price, l.Strike, pricing.Years(remaining), volFor(l, vol))
		total += (q.Price - l.Premium) * l.OpenQuantity() * l.Kind.Multiplier() * l.Direction.Sign()
	}
	return total
}

// priceRows centers the rows on the strikes inside the requested range
// plus the current price and the range endpoints.
func (g *Generator) priceRows(req Request) []float64 {
	span := req.RangePercent
	if span <= 0 {
		span = 0.2
	}
	low := req.Spot * (1 - span)
	high := req.Spot * (1 + span)

	seen := map[float64]struct{}{}
	rows := []float64{}
	add := func(p float64) {
		if p <= 0 {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		rows = append(rows, p)
	}

	add(low)
	add(req.Spot)
	add(high)
	for _, l := range req.Legs {
		if l.Excluded || !l.Valid() || !l.Kind.IsOption() {
			continue
		}
		if l.Strike >= low && l.Strike <= high {
			add(l.Strike)
		}
	}
	sort.Float64s(rows)
	return rows
}

// dayColumns returns the requested offsets, or derives a non-uniform set
// from the legs: coarse steps out to two days before the nearest
// expiration, then quarter-day steps through expiry. Zero and the
// nearest expiration are always present.
func (g *Generator) dayColumns(req Request) []float64 {
	if len(req.DayOffsets) > 0 {
		offs := append([]float64(nil), req.DayOffsets...)
		sort.Float64s(offs)
		return offs
	}

	nearest := math.Inf(1)
	for _, l := range req.Legs {
		if l.Excluded || !l.Valid() || !l.Kind.IsOption() {
			continue
		}
		nearest = math.Min(nearest, l.DaysToExpiry)
	}
	if math.IsInf(nearest, 1) || nearest <= 0 {
		return []float64{0}
	}

	seen := map[float64]struct{}{}
	var offs []float64
	add := func(d float64) {
		if d < 0 || d > nearest {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		offs = append(offs, d)
	}

	coarse := math.Max(1, math.Floor(nearest/6))
	for d := 0.0; d < nearest-2; d += coarse {
		add(d)
	}
	for d := math.Max(0, nearest-2); d < nearest; d += 0.25 {
		add(d)
	}
	add(0)
	add(nearest)
	sort.Float64s(offs)
	return offs
}

func volFor(l models.Leg, vol float64) float64 {
	if vol > 0 {
		return vol
	}
	if l.EntryIV > 0 {
		return l.EntryIV
	}
	return pricing.DefaultVolatility
}
