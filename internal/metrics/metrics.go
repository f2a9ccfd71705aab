// Package metrics exposes Prometheus counters for name resolution and batch
// submission outcomes.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gikenye/givecaesar/internal/errs"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
)

type Metrics struct {
	registry *prometheus.Registry

	resolutions       *prometheus.CounterVec
	resolveLatency    prometheus.Histogram
	submissions       *prometheus.CounterVec
	submissionErrors  *prometheus.CounterVec
	recipientsPerPlan prometheus.Histogram
	transitions       *prometheus.CounterVec
}

// New builds a metrics set on its own registry so tests and multiple
// instances do not collide on the default one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caesar_resolutions_total",
			Help: "Identifier resolutions by outcome.",
		}, []string{"kind"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caesar_resolution_duration_seconds",
			Help:    "Time spent resolving one identifier.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caesar_submissions_total",
			Help: "Batch submissions by terminal state.",
		}, []string{"state"}),
		submissionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caesar_submission_errors_total",
			Help: "Failed submissions by error kind.",
		}, []string{"kind"}),
		recipientsPerPlan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caesar_plan_recipients",
			Help:    "Number of recipients in each submitted plan.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caesar_lifecycle_transitions_total",
			Help: "Lifecycle transitions by target state.",
		}, []string{"to"}),
	}
	m.registry.MustRegister(
		m.resolutions,
		m.resolveLatency,
		m.submissions,
		m.submissionErrors,
		m.recipientsPerPlan,
		m.transitions,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveResolution(kind recipients.ResolutionKind, elapsed time.Duration) {
	m.resolutions.WithLabelValues(kind.String()).Inc()
	m.resolveLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePlan(recipientCount int) {
	m.recipientsPerPlan.Observe(float64(recipientCount))
}

// ObserveTracker counts every transition of t until the returned function
// is called.
func (m *Metrics) ObserveTracker(t *lifecycle.Tracker) func() {
	return t.Subscribe(func(tr lifecycle.Transition) {
		m.transitions.WithLabelValues(string(tr.To)).Inc()
		if !tr.To.Terminal() {
			return
		}
		m.submissions.WithLabelValues(string(tr.To)).Inc()
		if tr.To == lifecycle.Failed {
			kind := string(errs.KindOf(tr.Status.Err))
			if kind == "" {
				kind = "unknown"
			}
			m.submissionErrors.WithLabelValues(kind).Inc()
		}
	})
}

// InstrumentResolver wraps next so every resolution is counted.
func (m *Metrics) InstrumentResolver(next recipients.IdentifierResolver) recipients.IdentifierResolver {
	return &instrumentedResolver{next: next, metrics: m}
}

type instrumentedResolver struct {
	next    recipients.IdentifierResolver
	metrics *Metrics
}

func (r *instrumentedResolver) Resolve(ctx context.Context, raw string) recipients.Resolution {
	start := time.Now()
	res := r.next.Resolve(ctx, raw)
	r.metrics.ObserveResolution(res.Kind, time.Since(start))
	return res
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
