// Package server provides the HTTP upload and download surface of the exporter.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/trazabilidad/internal/config"
	"github.com/hyperjump/trazabilidad/internal/export"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
)

// Server is the HTTP server for uploading PDFs and downloading the spreadsheet.
type Server struct {
	pipeline   *pipeline.Pipeline
	config     *config.Config
	exportOpts export.Options
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server running uploads through p.
func NewServer(p *pipeline.Pipeline, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline:   p,
		config:     cfg,
		exportOpts: export.OptionsFromConfig(&cfg.Export),
		logger:     logger,
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5, "text/html", "application/json"))

	r.Get("/", s.handleIndex)
	r.Post("/api/v1/export", s.handleExport)
	r.Post("/api/v1/preview", s.handlePreview)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
