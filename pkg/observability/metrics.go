package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/quire/pkg/domain"
)

// Namespace prefixes every metric name.
const Namespace = "quire"

// Metrics holds the Prometheus collectors fed by session hooks.
type Metrics struct {
	passes    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	bytes     *prometheus.CounterVec
	updates   prometheus.Counter
	destroyed prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_passes_total",
			Help:      "Render passes by output and outcome (started, completed, failed).",
		}, []string{"output", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of finished render passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"output"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rendered_bytes_total",
			Help:      "Bytes produced by completed render passes.",
		}, []string{"output"}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "updates_total",
			Help:      "Descriptions applied to sessions.",
		}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_destroyed_total",
			Help:      "Sessions destroyed.",
		}),
	}
	for _, c := range []prometheus.Collector{m.passes, m.duration, m.bytes, m.updates, m.destroyed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnUpdate: func(context.Context, *domain.UpdateEvent) {
			m.updates.Inc()
		},
		OnRenderStart: func(_ context.Context, e *domain.RenderEvent) {
			m.passes.WithLabelValues(string(e.Output), "started").Inc()
		},
		OnRenderComplete: func(_ context.Context, e *domain.RenderEvent) {
			out := string(e.Output)
			m.passes.WithLabelValues(out, "completed").Inc()
			m.duration.WithLabelValues(out).Observe(e.Duration.Seconds())
			m.bytes.WithLabelValues(out).Add(float64(e.Bytes))
		},
		OnRenderFail: func(_ context.Context, e *domain.RenderEvent) {
			out := string(e.Output)
			m.passes.WithLabelValues(out, "failed").Inc()
			m.duration.WithLabelValues(out).Observe(e.Duration.Seconds())
		},
		OnDestroy: func(context.Context, *domain.EventBase) {
			m.destroyed.Inc()
		},
	}
}
