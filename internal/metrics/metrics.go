// Package metrics exposes Prometheus instrumentation for assistant turns.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Turn outcomes
const (
	OutcomeAnswered       = "answered"
	OutcomeRetrievalError = "retrieval_error"
	OutcomeModelError     = "model_error"
)

// Metrics groups the assistant collectors on a private registry
type Metrics struct {
	Registry             *prometheus.Registry
	Turns                *prometheus.CounterVec
	ReferencesSuppressed prometheus.Counter
	ScreenshotFailures   prometheus.Counter
	ModelLatency         prometheus.Histogram
}

// New registers the assistant collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgc_assistant_turns_total",
			Help: "Chat turns handled, by outcome.",
		}, []string{"outcome"}),
		ReferencesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgc_assistant_references_suppressed_total",
			Help: "Answers whose references were hidden because they read as uncertain.",
		}),
		ScreenshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgc_assistant_screenshot_failures_total",
			Help: "Cited pages that could not be rendered.",
		}),
		ModelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bgc_assistant_model_latency_seconds",
			Help:    "Language model call latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
	m.Registry.MustRegister(m.Turns, m.ReferencesSuppressed, m.ScreenshotFailures, m.ModelLatency)
	return m
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
