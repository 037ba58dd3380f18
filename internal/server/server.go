// Package server exposes snapshots, reports and App Service analysis over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/azspectre/internal/resource"
	"github.com/ppiankov/azspectre/internal/snapshot"
)

const shutdownTimeout = 10 * time.Second

// CollectFunc gathers and classifies a fresh snapshot. The returned strings
// are per-type collection failures that did not abort the scan.
type CollectFunc func(ctx context.Context) (*resource.Snapshot, []string, error)

// Config wires the server to its storage and collaborators.
type Config struct {
	SnapshotDir string
	DataDir     string
	DefaultMode snapshot.Mode
	Version     string
	// Collect backs POST /api/scans. When nil the endpoint answers 503.
	Collect CollectFunc
}

// Server is the azspectre HTTP API.
type Server struct {
	cfg      Config
	router   chi.Router
	registry *prometheus.Registry
}

// New builds the router and registers its metrics on a private registry.
func New(cfg Config) *Server {
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = snapshot.ModeProduction
	}
	s := &Server{cfg: cfg, registry: prometheus.NewRegistry()}

	m := newMetrics("azspectre")
	s.registry.MustRegister(m.collectors()...)
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(m.handler)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/scan-files", s.listScanFiles)
		r.Delete("/scan-files", s.deleteAllScanFiles)
		r.Delete("/scan-files/{filename}", s.deleteScanFile)

		r.Post("/scans", s.createScan)
		r.Post("/scans/import", s.importScan)

		r.Get("/resource-availability", s.resourceAvailability)
		r.Get("/orphaned-resources", s.orphanedResources)
		r.Get("/orphaned-resources/details", s.orphanedDetails)
		r.Get("/complete-resources", s.completeResources)

		r.Get("/data/{type}", s.typeReport)
		r.Get("/export/recommendations/{type}", s.exportRecommendations)
		r.Get("/app-service/analysis", s.appServiceAnalysis)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
