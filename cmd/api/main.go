package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/optbench/options-workbench/config"
	"github.com/optbench/options-workbench/internal/expmove"
	"github.com/optbench/options-workbench/internal/ledger"
	"github.com/optbench/options-workbench/internal/marketdata"
	"github.com/optbench/options-workbench/internal/pricing"
	"github.com/optbench/options-workbench/internal/scenario"
	"github.com/optbench/options-workbench/internal/store"
	"github.com/optbench/options-workbench/internal/strategy"
	"github.com/optbench/options-workbench/internal/websocket"
	"github.com/optbench/options-workbench/pkg/api"
	"github.com/optbench/options-workbench/pkg/metrics"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("main").Fatalf("failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("main")
	log.Infof("starting %s", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	pricer := pricing.NewPricer(cfg.Pricing.RiskFreeRate)
	solver := pricing.NewSolver(pricer, pricing.SolverConfig{
		Seed:          cfg.Solver.Seed,
		Fallback:      cfg.Solver.Fallback,
		Tolerance:     cfg.Solver.Tolerance,
		MaxIterations: cfg.Solver.MaxIterations,
		MinVol:        cfg.Solver.MinVol,
		MaxVol:        cfg.Solver.MaxVol,
	})
	aggregator := strategy.NewAggregator(pricer)
	positionLedger := ledger.New(ledger.Fees{
		PerTrade:    cfg.Commission.PerTrade,
		PerContract: cfg.Commission.PerContract,
		RoundTrip:   cfg.Commission.RoundTrip,
	})
	grids := scenario.NewGenerator(pricer, positionLedger)

	chains := store.NewChainStore()
	expMove := expmove.NewCalculator(expmove.NewCache())

	hub := websocket.NewHub(chains, expMove)
	go hub.Run()

	consumer := marketdata.NewConsumer(marketdata.Config{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.ChainsTopic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: cfg.Kafka.MinBytes,
		MaxBytes: cfg.Kafka.MaxBytes,
	}, chains, recorder)
	consumer.OnUpdate(hub.NotifySymbol)
	defer consumer.Close()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Errorf("chain consumer exited: %v", err)
		}
	}()

	var metricsServer interface {
		Shutdown(context.Context) error
	}
	if cfg.Metrics.Enabled {
		metricsServer = metrics.Serve(cfg.Metrics.Port)
	}

	handlers := api.NewHandlers(pricer, solver, aggregator, grids, positionLedger, chains, expMove, recorder)
	server := api.NewServer(cfg.API, cfg.App.Environment, handlers, hub, recorder)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("API shutdown error: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("metrics shutdown error: %v", err)
		}
	}

	// Give the consumer a moment to release its partition
	time.Sleep(100 * time.Millisecond)
	log.Info("stopped")
}
