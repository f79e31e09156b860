// Package api serves a read-only JSON view of the ledger for dashboards.
// All writes go through the CLI so every mutation is journaled and archived.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"multidist/internal/config"
	"multidist/internal/ledger"
	"multidist/internal/metrics"
)

const (
	limiterTTL      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server routes read requests to a ledger.Service.
type Server struct {
	svc     *ledger.Service
	logger  *slog.Logger
	cfg     config.APIConfig
	limiter *RateLimiter
	router  chi.Router
}

// NewServer builds the router. collector and gatherer may be nil, which
// disables request metrics and the /metrics route.
func NewServer(svc *ledger.Service, cfg config.APIConfig, logger *slog.Logger, collector *metrics.Collector, gatherer prometheus.Gatherer) *Server {
	s := &Server{svc: svc, logger: logger, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if collector != nil {
		r.Use(collector.Middleware)
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"program_id": s.svc.Deriver().ProgramID().String(),
		})
	})
	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			s.limiter = NewRateLimiter(cfg.RateLimitPerMinute, limiterTTL)
			r.Use(s.limiter.Middleware)
		}
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Get("/", s.getCollection)
			r.Get("/distributions", s.listDistributions)
			r.Get("/positions/{user}", s.getPosition)
			r.Get("/audit", s.getAudit)
		})
		r.Get("/distributions/{distribution}", s.getDistribution)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.ListenAddr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("api listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if s.limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterTTL / 2)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s.limiter.Sweep()
				}
			}
		})
	}
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps ledger error kinds to HTTP statuses. Unclassified errors
// are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		s.logger.Error("api request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch lerr.Kind {
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindInvalidArgument:
		status = http.StatusBadRequest
	default:
		s.logger.Error("api request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: lerr.Kind.String(), Message: lerr.Error()})
}
