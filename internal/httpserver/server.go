// Package httpserver provides the HTTP API and browser UI for sweepd.
package httpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
	"github.com/sweeplabs/sweepd/internal/dataset"
	"github.com/sweeplabs/sweepd/internal/knowledge"
	"github.com/sweeplabs/sweepd/internal/pipeline"
	"github.com/sweeplabs/sweepd/internal/registry"
	"github.com/sweeplabs/sweepd/internal/vectorstore"
)

// Analyzer runs the analysis pipeline over a profiled dataset.
type Analyzer interface {
	RunProfile(ctx context.Context, profile *dataset.Profile) (*pipeline.Report, error)
}

// Indexer rebuilds the strategy knowledge base.
type Indexer interface {
	Reindex(ctx context.Context, force bool) (*knowledge.IndexStats, error)
}

// Options carries the server's collaborators.
type Options struct {
	Server   config.ServerConfig
	Datasets config.DatasetsConfig

	Registry *registry.Registry
	Analyzer Analyzer
	Indexer  Indexer
	Store    vectorstore.Store

	Logger *zap.Logger
}

// Server provides HTTP endpoints for sweepd.
type Server struct {
	echo   *echo.Echo
	opts   Options
	logger *zap.Logger
}

// NewServer creates the HTTP server with panic recovery, request IDs,
// request logging and metrics middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if opts.Server.Port == 0 {
		opts.Server.Port = 8080
	}
	if opts.Datasets.PreviewRows == 0 {
		opts.Datasets.PreviewRows = 100
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger := opts.Logger

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if opts.Server.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%d", opts.Server.MaxUploadBytes)))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:   e,
		opts:   opts,
		logger: logger,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/datasets", s.handleUpload)
	v1.GET("/datasets", s.handleListDatasets)
	v1.GET("/datasets/:id", s.handleGetDataset)
	v1.DELETE("/datasets/:id", s.handleDeleteDataset)
	v1.GET("/datasets/:id/preview", s.handlePreview)
	v1.POST("/datasets/:id/analyze", s.handleAnalyze)
	v1.GET("/datasets/:id/report", s.handleReport)
	v1.POST("/knowledge/reindex", s.handleReindex)
	v1.GET("/knowledge/search", s.handleKnowledgeSearch)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Server.Host, s.opts.Server.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
