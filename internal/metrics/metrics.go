// Package metrics exposes ingestion metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/askiada/go-aisingest/internal/ais"
)

const namespace = "aisingest"

// Metrics holds the collectors of one ingestion process.
type Metrics struct {
	Registry *prometheus.Registry

	// Items pushed by each pipeline step. Watch for: a step lagging behind its parent.
	StepItems *prometheus.CounterVec
	// Computation time of each element per step.
	StepDuration *prometheus.HistogramVec
	// Validated rows by outcome (clean, dirty, invalid).
	Rows *prometheus.CounterVec
	// Rows copied to the database per table.
	RowsCopied *prometheus.CounterVec
	// Units of work by kind (archive, csv, copy, source, query) and result (done, skipped).
	Units *prometheus.CounterVec
}

// New registers every collector, plus the process and Go collectors, in a new registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StepItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_items_total",
				Help:      "Total number of elements pushed by a pipeline step",
			},
			[]string{"step"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Time spent by a pipeline step on one element",
				Buckets:   []float64{.001, .01, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"step"},
		),
		Rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Total number of raw AIS rows read, by validation outcome",
			},
			[]string{"outcome"},
		),
		RowsCopied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_copied_total",
				Help:      "Total number of rows copied to the database",
			},
			[]string{"table"},
		),
		Units: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_total",
				Help:      "Total number of units of work, by kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.StepItems,
		m.StepDuration,
		m.Rows,
		m.RowsCopied,
		m.Units,
	)

	return m
}

// ObserveStats adds the rows of a validated file.
func (m *Metrics) ObserveStats(stats ais.Stats) {
	m.Rows.WithLabelValues("clean").Add(float64(stats.Clean))
	m.Rows.WithLabelValues("dirty").Add(float64(stats.Dirty))
	m.Rows.WithLabelValues("invalid").Add(float64(stats.Invalid))
}

// ObserveUnit counts a unit of work. skipped is true when the unit was already complete.
func (m *Metrics) ObserveUnit(kind string, skipped bool) {
	result := "done"
	if skipped {
		result = "skipped"
	}
	m.Units.WithLabelValues(kind, result).Inc()
}
