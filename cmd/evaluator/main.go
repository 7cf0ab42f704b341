// Command evaluator batch-evaluates strategies from a JSON file and
// writes their metrics and scenario grids as CSV. With --as-of fixed,
// runs are fully reproducible: the engine never reads the wall clock.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/optbench/options-workbench/config"
	"github.com/optbench/options-workbench/internal/ledger"
	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/internal/scenario"
	"github.com/optbench/options-workbench/internal/strategy"
	"github.com/optbench/options-workbench/pkg/api"
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

type strategyInput struct {
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	Spot         float64          `json:"spot"`
	Vol          float64          `json:"vol"`
	RangePercent float64          `json:"rangePercent"`
	DayOffsets   []float64        `json:"dayOffsets"`
	Legs         []api.LegPayload `json:"legs"`
}

type strategyResult struct {
	input   strategyInput
	metrics models.StrategyMetrics
	greeks  models.Greeks
}

func main() {
	input := flag.String("input", "strategies.json", "JSON file of strategies to evaluate")
	outDir := flag.String("out", ".", "directory for CSV output")
	asOfFlag := flag.String("as-of", "", "evaluation time, RFC3339 (default: now)")
	flag.Parse()

	log := logger.GetLogger("evaluator")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		asOf, err = time.Parse(time.RFC3339, *asOfFlag)
		if err != nil {
			log.Fatalf("invalid --as-of: %v", err)
		}
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *input, err)
	}
	var inputs []strategyInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		log.Fatalf("failed to parse %s: %v", *input, err)
	}

	pricer := pricing.NewPricer(cfg.Pricing.RiskFreeRate)
	aggregator := strategy.NewAggregator(pricer)
	grids := scenario.NewGenerator(pricer, ledger.New(ledger.Fees{
		PerTrade:    cfg.Commission.PerTrade,
		PerContract: cfg.Commission.PerContract,
		RoundTrip:   cfg.Commission.RoundTrip,
	}))

	results := make([]strategyResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, in := range inputs {
		g.Go(func() error {
			legs := make([]models.Leg, 0, len(in.Legs))
			for _, p := range in.Legs {
				leg, err := p.ToLeg()
				if err != nil {
					return fmt.Errorf("strategy %q: %w", in.Name, err)
				}
				legs = append(legs, leg)
			}

			ev := aggregator.Evaluate(legs, in.Spot, in.Vol)
			grid := grids.Generate(scenario.Request{
				Legs:         legs,
				Spot:         in.Spot,
				Vol:          in.Vol,
				RangePercent: in.RangePercent,
				DayOffsets:   in.DayOffsets,
				AsOf:         asOf,
			})

			if err := writeGrid(filepath.Join(*outDir, in.Name+"_grid.csv"), grid); err != nil {
				return err
			}

			results[i] = strategyResult{input: in, metrics: ev.Metrics, greeks: ev.Greeks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	if err := writeSummary(filepath.Join(*outDir, "summary.csv"), results); err != nil {
		log.Fatalf("failed to write summary: %v", err)
	}
	log.Infof("evaluated %d strategies as of %s", len(inputs), asOf.Format(time.RFC3339))
}

func writeGrid(path string, grid *models.ScenarioGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"price"}
	for _, d := range grid.DayOffsets {
		header = append(header, fmt.Sprintf("day_%g", d))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, price := range grid.Prices {
		row := []string{strconv.FormatFloat(price, 'f', 2, 64)}
		for _, pl := range grid.PL[i] {
			row = append(row, strconv.FormatFloat(pl, 'f', 2, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSummary(path string, results []strategyResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"name", "symbol", "net_premium", "max_profit", "max_loss",
		"breakevens", "delta", "theta", "vega",
	}); err != nil {
		return err
	}
	for _, r := range results {
		breakevens := ""
		for i, b := range r.metrics.Breakevens {
			if i > 0 {
				breakevens += ";"
			}
			breakevens += strconv.FormatFloat(b, 'f', 2, 64)
		}
		if err := w.Write([]string{
			r.input.Name,
			r.input.Symbol,
			strconv.FormatFloat(r.metrics.NetPremium, 'f', 2, 64),
			boundLabel(r.metrics.MaxProfit),
			boundLabel(r.metrics.MaxLoss),
			breakevens,
			strconv.FormatFloat(r.greeks.Delta, 'f', 4, 64),
			strconv.FormatFloat(r.greeks.Theta, 'f', 4, 64),
			strconv.FormatFloat(r.greeks.Vega, 'f', 4, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func boundLabel(v *float64) string {
	if v == nil {
		return "unlimited"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
