package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spotsweep/internal/core"
)

// Server exposes Prometheus metrics for long batch runs. It also
// implements core.Metrics so workflows can record counters directly.
type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	APICallsTotal   *prometheus.CounterVec
	RateLimitsTotal prometheus.Counter
	BatchesTotal    *prometheus.CounterVec
	SkipsTotal      *prometheus.CounterVec
	PlaylistSize    prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		APICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotsweep_api_calls_total",
				Help: "Total number of Spotify API calls",
			},
			[]string{"endpoint"},
		),
		RateLimitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spotsweep_rate_limit_waits_total",
				Help: "Total number of waits caused by API rate limiting",
			},
		),
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotsweep_batches_total",
				Help: "Total number of write batches sent to the API",
			},
			[]string{"operation"},
		),
		SkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotsweep_skips_total",
				Help: "Total number of tracks skipped after fetch failures",
			},
			[]string{"component"},
		),
		PlaylistSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spotsweep_playlist_size",
				Help: "Number of tracks in the playlist being processed",
			},
		),
	}

	// A dedicated registry keeps repeated server construction (tests,
	// consecutive runs in one process) from colliding on the global one.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		metrics.APICallsTotal,
		metrics.RateLimitsTotal,
		metrics.BatchesTotal,
		metrics.SkipsTotal,
		metrics.PlaylistSize,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"spotsweep"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"spotsweep"}`))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         config.Addr,
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting metrics server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down metrics server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown metrics server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}

	return nil
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) RecordAPICall(endpoint string) {
	s.metrics.APICallsTotal.WithLabelValues(endpoint).Inc()
}

func (s *Server) RecordRateLimit() {
	s.metrics.RateLimitsTotal.Inc()
}

func (s *Server) RecordBatch(operation string) {
	s.metrics.BatchesTotal.WithLabelValues(operation).Inc()
}

func (s *Server) RecordSkip(component string) {
	s.metrics.SkipsTotal.WithLabelValues(component).Inc()
}

func (s *Server) SetPlaylistSize(size int) {
	s.metrics.PlaylistSize.Set(float64(size))
}
