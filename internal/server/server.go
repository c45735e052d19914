// Package server exposes reports over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/reportql/internal/adapters/telemetry"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/service"
)

// Reports is the report service surface the API serves.
type Reports interface {
	Run(ctx context.Context, req domain.Request) []domain.Row
	Query(ctx context.Context, req domain.Request) ([]domain.Row, error)
	Explain(ctx context.Context, req domain.Request) (*service.Explanation, error)
	RunTemplate(ctx context.Context, name string, overrides domain.Overrides, strict bool) ([]domain.Row, error)
	ListTemplates(ctx context.Context) ([]string, error)
	LoadTemplate(ctx context.Context, name string) (*domain.Template, error)
	SaveTemplate(ctx context.Context, tmpl *domain.Template) error
	DeleteTemplate(ctx context.Context, name string) error
	Relations(ctx context.Context, table string) (*domain.TableMetadata, error)
}

// Pinger checks the backing database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsSource exposes collected telemetry.
type MetricsSource interface {
	Snapshot() telemetry.Snapshot
}

// Config holds configuration for the API server.
type Config struct {
	Reports Reports
	// Health is pinged by /healthz. Nil reports unavailable.
	Health Pinger
	// Metrics backs /api/metrics. Nil disables the endpoint.
	Metrics         MetricsSource
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server is the report API server.
type Server struct {
	reports         Reports
	health          Pinger
	metrics         MetricsSource
	addr            string
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		reports:         cfg.Reports,
		health:          cfg.Health,
		metrics:         cfg.Metrics,
		addr:            cfg.Addr,
		shutdownTimeout: timeout,
		logger:          logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)
	SetupRoutes(r, NewHandlers(s.reports, s.health, s.metrics, s.logger))
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting API server", "addr", ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
