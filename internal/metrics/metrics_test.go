package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-aisingest/internal/ais"
	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, pair := range metric.GetLabel() {
		if labels[pair.GetName()] != pair.GetValue() {
			return false
		}
	}

	return len(metric.GetLabel()) == len(labels)
}

func TestObserveStats(t *testing.T) {
	m := New()
	m.ObserveStats(ais.Stats{Total: 10, Clean: 6, Dirty: 3, Invalid: 1})
	m.ObserveStats(ais.Stats{Total: 2, Clean: 2})

	assert.Equal(t, 8.0, counterValue(t, m, "aisingest_rows_total", map[string]string{"outcome": "clean"}))
	assert.Equal(t, 3.0, counterValue(t, m, "aisingest_rows_total", map[string]string{"outcome": "dirty"}))
	assert.Equal(t, 1.0, counterValue(t, m, "aisingest_rows_total", map[string]string{"outcome": "invalid"}))
}

func TestObserveUnit(t *testing.T) {
	m := New()
	m.ObserveUnit("archive", false)
	m.ObserveUnit("archive", true)
	m.ObserveUnit("archive", true)

	assert.Equal(t, 1.0, counterValue(t, m, "aisingest_units_total", map[string]string{"kind": "archive", "result": "done"}))
	assert.Equal(t, 2.0, counterValue(t, m, "aisingest_units_total", map[string]string{"kind": "archive", "result": "skipped"}))
}

func TestPipelineMetrics(t *testing.T) {
	m := New()
	opt := m.PipelineMetrics()
	step := &model.StepInfo{Name: "validate"}
	sink := &model.StepInfo{Name: "done"}

	require.NoError(t, opt.OnStepOutput(model.StartStep.Details, step, time.Millisecond, time.Second))
	require.NoError(t, opt.OnStepOutput(model.StartStep.Details, step, time.Millisecond, time.Second))
	require.NoError(t, opt.OnSinkOutput(step, sink, time.Millisecond, time.Second))

	assert.Equal(t, 2.0, counterValue(t, m, "aisingest_step_items_total", map[string]string{"step": "validate"}))
	assert.Equal(t, 1.0, counterValue(t, m, "aisingest_step_items_total", map[string]string{"step": "done"}))
}

func TestRouter(t *testing.T) {
	m := New()
	m.RowsCopied.WithLabelValues("ais_clean").Add(3)
	router := m.Router()

	tcs := map[string]struct {
		method   string
		path     string
		code     int
		contains string
	}{
		"metrics":      {http.MethodGet, "/metrics", http.StatusOK, `aisingest_rows_copied_total{table="ais_clean"} 3`},
		"healthz":      {http.MethodGet, "/healthz", http.StatusOK, "ok"},
		"unknown path": {http.MethodGet, "/nope", http.StatusNotFound, ""},
		"wrong method": {http.MethodPost, "/healthz", http.StatusMethodNotAllowed, ""},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}
}
