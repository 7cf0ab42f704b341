package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/optbench/options-workbench/config"
	"github.com/optbench/options-workbench/internal/websocket"
	"github.com/optbench/options-workbench/pkg/metrics"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Server hosts the evaluation API and the websocket push endpoint
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
}

// NewServer builds the router around the handlers and hub
func NewServer(cfg config.APIConfig, env string, handlers *Handlers, hub *websocket.Hub, recorder *metrics.Recorder) *Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware())
	engine.Use(MetricsMiddleware(recorder))
	engine.Use(CORSMiddleware())

	engine.GET("/health", handlers.Health)
	engine.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/pricing/price", handlers.Price)
		v1.POST("/pricing/implied-vol", handlers.ImpliedVol)
		v1.POST("/strategies/evaluate", handlers.Evaluate)
		v1.POST("/strategies/scenario", handlers.Scenario)
		v1.GET("/chains/:symbol", handlers.Chain)
		v1.GET("/expected-move/:symbol", handlers.ExpectedMove)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		engine: engine,
		log:    logger.GetLogger("api.server"),
	}
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.log.Infof("API server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
