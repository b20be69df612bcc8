package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/tree"
)

// staticRenderer streams a fixed payload, or fails mid-stream when err is set.
type staticRenderer struct {
	payload string
	err     error
}

func (r staticRenderer) Render(context.Context, *tree.Container) (io.ReadCloser, error) {
	if r.err != nil {
		return io.NopCloser(io.MultiReader(strings.NewReader(r.payload), iotestErr{r.err})), nil
	}
	return io.NopCloser(strings.NewReader(r.payload)), nil
}

type iotestErr struct{ err error }

func (e iotestErr) Read([]byte) (int, error) { return 0, e.err }

func doc() *domain.Element {
	return &domain.Element{Kind: domain.KindDocument}
}

func TestMetrics_RecordsSessionLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	s, err := quire.Start(doc(),
		quire.WithRenderer(staticRenderer{payload: "12345"}),
		quire.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.ToText(ctx)
	require.NoError(t, err)
	_, err = s.ToBlob(ctx)
	require.NoError(t, err)
	s.Destroy()

	expected := `
# HELP quire_render_passes_total Render passes by output and outcome (started, completed, failed).
# TYPE quire_render_passes_total counter
quire_render_passes_total{outcome="completed",output="blob"} 1
quire_render_passes_total{outcome="completed",output="text"} 1
quire_render_passes_total{outcome="started",output="blob"} 1
quire_render_passes_total{outcome="started",output="text"} 1
# HELP quire_rendered_bytes_total Bytes produced by completed render passes.
# TYPE quire_rendered_bytes_total counter
quire_rendered_bytes_total{output="blob"} 5
quire_rendered_bytes_total{output="text"} 5
# HELP quire_sessions_destroyed_total Sessions destroyed.
# TYPE quire_sessions_destroyed_total counter
quire_sessions_destroyed_total 1
# HELP quire_updates_total Descriptions applied to sessions.
# TYPE quire_updates_total counter
quire_updates_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"quire_render_passes_total", "quire_rendered_bytes_total",
		"quire_sessions_destroyed_total", "quire_updates_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "quire_render_duration_seconds"))
}

func TestMetrics_CountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	s, err := quire.Start(doc(),
		quire.WithRenderer(staticRenderer{payload: "ab", err: errors.New("disk gone")}),
		quire.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	_, err = s.ToText(context.Background())
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var failed float64
	for _, f := range families {
		if f.GetName() != "quire_render_passes_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == "failed" {
					failed += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, failed)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnDestroy: func(context.Context, *domain.EventBase) { order = append(order, "a") },
	}
	b := domain.LifecycleHooks{
		OnDestroy: func(context.Context, *domain.EventBase) { order = append(order, "b") },
		OnUpdate:  func(context.Context, *domain.UpdateEvent) { order = append(order, "update") },
	}
	h := observability.Chain(a, domain.LifecycleHooks{}, b)

	require.NotNil(t, h.OnUpdate)
	assert.Nil(t, h.OnRenderStart)
	h.OnDestroy(context.Background(), &domain.EventBase{})
	h.OnUpdate(context.Background(), &domain.UpdateEvent{})
	assert.Equal(t, []string{"a", "b", "update"}, order)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)
	h := observability.LoggingHooks(logger)

	h.OnRenderFail(context.Background(), &domain.RenderEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Session: "report"},
		Output:    domain.OutputBlob,
		Err:       errors.New("boom"),
	})
	out := buf.String()
	assert.Contains(t, out, "render_fail")
	assert.Contains(t, out, "session=report")
	assert.Contains(t, out, "err=boom")
}
