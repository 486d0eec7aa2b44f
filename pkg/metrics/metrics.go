// Package metrics exposes run progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
)

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	registry        *prometheus.Registry
	scenarios       *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	sessionAttempts prometheus.Histogram
	sessionErrors   prometheus.Counter
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aysa_scenarios_total",
				Help: "Scenarios finished, by category and status",
			},
			[]string{"category", "status"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aysa_scenario_failures_total",
				Help: "Failed scenarios, by error category",
			},
			[]string{"error_category"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aysa_scenario_duration_seconds",
				Help:    "Duration of scenario executions",
				Buckets: []float64{10, 20, 30, 45, 60, 90, 120, 180, 300},
			},
			[]string{"category"},
		),
		sessionAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aysa_session_attempts",
				Help:    "Connection attempts needed per acquired session",
				Buckets: []float64{1, 2, 3, 5},
			},
		),
		sessionErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "aysa_session_errors_total",
				Help: "Sessions that could not be acquired",
			},
		),
	}
	r.registry.MustRegister(r.scenarios, r.failures, r.duration, r.sessionAttempts, r.sessionErrors)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveScenario records a finished scenario.
func (r *Recorder) ObserveScenario(e report.Entry) {
	r.scenarios.WithLabelValues(e.Category, e.Status.String()).Inc()
	if e.Status == core.StatusSkip {
		return
	}
	r.duration.WithLabelValues(e.Category).Observe(float64(e.DurationMs) / 1000)
	if e.Status == core.StatusFail {
		category := e.ErrorCategory
		if category == "" {
			category = core.ErrCategoryNone.String()
		}
		r.failures.WithLabelValues(category).Inc()
	}
}

// ObserveSession records a session acquisition.
func (r *Recorder) ObserveSession(attempts int, err error) {
	if err != nil {
		r.sessionErrors.Inc()
		return
	}
	r.sessionAttempts.Observe(float64(attempts))
}

// Handler serves /metrics and /healthz.
func (r *Recorder) Handler() http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	return router
}

// Serve listens on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
