package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optbench/options-workbench/internal/expmove"
	"github.com/optbench/options-workbench/internal/ledger"
	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/internal/scenario"
	"github.com/optbench/options-workbench/internal/store"
	"github.com/optbench/options-workbench/internal/strategy"
	"github.com/optbench/options-workbench/pkg/metrics"
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Handlers bundles the engine components behind the HTTP surface
type Handlers struct {
	pricer     *pricing.Pricer
	solver     *pricing.Solver
	aggregator *strategy.Aggregator
	grids      *scenario.Generator
	ledger     *ledger.Ledger
	chains     *store.ChainStore
	expMove    *expmove.Calculator
	recorder   *metrics.Recorder
	log        *logger.Logger
}

// NewHandlers wires the engine into the API
func NewHandlers(
	pricer *pricing.Pricer,
	solver *pricing.Solver,
	aggregator *strategy.Aggregator,
	grids *scenario.Generator,
	ledger *ledger.Ledger,
	chains *store.ChainStore,
	expMove *expmove.Calculator,
	recorder *metrics.Recorder,
) *Handlers {
	return &Handlers{
		pricer:     pricer,
		solver:     solver,
		aggregator: aggregator,
		grids:      grids,
		ledger:     ledger,
		chains:     chains,
		expMove:    expMove,
		recorder:   recorder,
		log:        logger.GetLogger("api.handlers"),
	}
}

type priceRequest struct {
	Kind   string  `json:"kind" binding:"required"`
	Spot   float64 `json:"spot" binding:"required"`
	Strike float64 `json:"strike"`
	Days   float64 `json:"days"`
	Vol    float64 `json:"vol"`
}

// Price returns the theoretical value and Greeks for a single contract
func (h *Handlers) Price(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind: " + req.Kind})
		return
	}

	q := h.pricer.Evaluate(kind, req.Spot, req.Strike, pricing.Years(req.Days), req.Vol)
	h.recorder.RecordPricing(kind.String())
	c.JSON(http.StatusOK, gin.H{"price": q.Price, "greeks": q.Greeks})
}

type impliedVolRequest struct {
	Kind   string  `json:"kind" binding:"required"`
	Price  float64 `json:"price" binding:"required"`
	Spot   float64 `json:"spot" binding:"required"`
	Strike float64 `json:"strike" binding:"required"`
	Days   float64 `json:"days" binding:"required"`
}

// ImpliedVol recovers implied volatility from an observed price
func (h *Handlers) ImpliedVol(c *gin.Context) {
	var req impliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok || kind == models.LegStock {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be call or put"})
		return
	}

	vol := h.solver.Solve(kind, req.Price, req.Spot, req.Strike, pricing.Years(req.Days))
	h.recorder.RecordSolve(kind.String())
	c.JSON(http.StatusOK, gin.H{"impliedVol": vol})
}

type evaluateRequest struct {
	Legs []LegPayload `json:"legs" binding:"required"`
	Spot float64      `json:"spot" binding:"required"`
	Vol  float64      `json:"vol"`
}

type positionResponse struct {
	LegID string `json:"legId"`
	models.PositionPL
}

// Evaluate aggregates a strategy: Greeks, net premium, risk/reward
// metrics and per-leg realized/unrealized P/L.
func (h *Handlers) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	legs, err := decodeLegs(req.Legs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	ev := h.aggregator.Evaluate(legs, req.Spot, req.Vol)

	positions := make([]positionResponse, 0, len(legs))
	for _, l := range legs {
		current := 0.0
		for _, lv := range ev.Legs {
			if lv.LegID == l.ID {
				current = lv.Price
				break
			}
		}
		positions = append(positions, positionResponse{
			LegID:      l.ID,
			PositionPL: h.ledger.Position(l, current),
		})
	}
	h.recorder.RecordEvaluation(time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"greeks":     ev.Greeks,
		"netPremium": ev.NetPremium,
		"metrics":    ev.Metrics,
		"legs":       ev.Legs,
		"positions":  positions,
	})
}

type scenarioRequest struct {
	Legs         []LegPayload `json:"legs" binding:"required"`
	Spot         float64      `json:"spot" binding:"required"`
	Vol          float64      `json:"vol"`
	RangePercent float64      `json:"rangePercent"`
	DayOffsets   []float64    `json:"dayOffsets"`
	AsOf         time.Time    `json:"asOf"`
}

// Scenario builds the P/L surface over price and time. With
// ?format=csv the grid is streamed as CSV instead of JSON.
func (h *Handlers) Scenario(c *gin.Context) {
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	legs, err := decodeLegs(req.Legs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	start := time.Now()
	grid := h.grids.Generate(scenario.Request{
		Legs:         legs,
		Spot:         req.Spot,
		Vol:          req.Vol,
		RangePercent: req.RangePercent,
		DayOffsets:   req.DayOffsets,
		AsOf:         asOf,
	})
	h.recorder.RecordGridBuild(time.Since(start), len(grid.Prices)*len(grid.DayOffsets))

	if c.Query("format") == "csv" {
		writeGridCSV(c, grid)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// ExpectedMove returns the frozen expected move for the symbol's
// nearest available expiration.
func (h *Handlers) ExpectedMove(c *gin.Context) {
	symbol := c.Param("symbol")

	chain, err := h.chains.NearestChain(symbol, time.Now())
	if err != nil {
		h.recorder.RecordExpectedMoveLookup(false)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	_, hit := h.expMove.Cached(chain.Symbol, chain.Expiration)
	h.recorder.RecordExpectedMoveLookup(hit)

	em := h.expMove.Calculate(chain)
	if em.Move <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quoted straddle for " + symbol})
		return
	}
	c.JSON(http.StatusOK, em)
}

// Chain returns the nearest stored chain for a symbol
func (h *Handlers) Chain(c *gin.Context) {
	symbol := c.Param("symbol")

	chain, err := h.chains.NearestChain(symbol, time.Now())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chain)
}

// Health is the liveness endpoint
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeGridCSV(c *gin.Context, grid *models.ScenarioGrid) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="scenario.csv"`)

	w := csv.NewWriter(c.Writer)
	header := make([]string, 0, len(grid.DayOffsets)+1)
	header = append(header, "price")
	for _, d := range grid.DayOffsets {
		header = append(header, fmt.Sprintf("day_%g", d))
	}
	w.Write(header)

	for i, price := range grid.Prices {
		row := make([]string, 0, len(grid.DayOffsets)+1)
		row = append(row, strconv.FormatFloat(price, 'f', 2, 64))
		for _, pl := range grid.PL[i] {
			row = append(row, strconv.FormatFloat(pl, 'f', 2, 64))
		}
		w.Write(row)
	}
	w.Flush()
}

func parseKind(s string) (models.LegKind, bool) {
	switch s {
	case "call":
		return models.LegCall, true
	case "put":
		return models.LegPut, true
	case "stock":
		return models.LegStock, true
	}
	return 0, false
}
