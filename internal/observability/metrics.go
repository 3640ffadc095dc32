package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "srcc2idf"

// Metrics holds the Prometheus counters and gauges for one conversion run.
type Metrics struct {
	RowsRead         prometheus.Counter
	Rows             *prometheus.CounterVec // labels: class={header,unsupported,eligible}
	RecordsWritten   prometheus.Counter
	RecordsPublished prometheus.Counter
	Persists         prometheus.Counter
	RunFailures      prometheus.Counter

	RunDuration prometheus.Gauge
	LastSuccess prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates all run metrics on a private registry. The tool is a
// one-shot batch job, so nothing is served; the registry is exported with
// WriteTextfile instead.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_rows_read_total",
			Help:      "Catalog rows read from the source file.",
		}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_rows_total",
			Help:      "Catalog rows by classification.",
		}, []string{"class"}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Flat plate performance objects added to the document.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Performance records published to the sink topic.",
		}),
		Persists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_persists_total",
			Help:      "Times the document was written to the output file.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs aborted by an error.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RowsRead,
		m.Rows,
		m.RecordsWritten,
		m.RecordsPublished,
		m.Persists,
		m.RunFailures,
		m.RunDuration,
		m.LastSuccess,
	)

	return m
}

// NewMetricsForTesting returns metrics on their own registry for use in tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// WriteTextfile writes every metric to path in the text exposition format
// read by the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
