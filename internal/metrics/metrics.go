// Package metrics exposes ingestion and retention measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

const namespace = "equipment"

// Recorder implements core.Recorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	ingestions     *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	rowsIngested   prometheus.Counter
	bytesIngested  prometheus.Counter
	evicted        prometheus.Counter
	orphansSwept   prometheus.Counter
	uploadsActive  prometheus.GaugeFunc
}

var _ core.Recorder = (*Recorder)(nil)

// New registers the collectors. activeUploads, when non-nil, backs the
// in-flight uploads gauge.
func New(activeUploads func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "CSV ingestions by outcome.",
		}, []string{"outcome"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Time from upload receipt to commit or rollback.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"outcome"}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_ingested_total",
			Help:      "Equipment rows committed.",
		}),
		bytesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_ingested_total",
			Help:      "CSV bytes parsed for committed batches.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_evicted_total",
			Help:      "Batches removed by retention.",
		}),
		orphansSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_files_swept_total",
			Help:      "Unreferenced source files removed by the sweeper.",
		}),
	}

	r.registry.MustRegister(
		r.ingestions,
		r.ingestDuration,
		r.rowsIngested,
		r.bytesIngested,
		r.evicted,
		r.orphansSwept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if activeUploads != nil {
		r.uploadsActive = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_in_flight",
			Help:      "Ingestions currently holding an upload slot.",
		}, func() float64 { return float64(activeUploads()) })
		r.registry.MustRegister(r.uploadsActive)
	}
	return r
}

func (r *Recorder) IngestionFinished(outcome string, rows int, bytes int64, elapsed time.Duration) {
	r.ingestions.WithLabelValues(outcome).Inc()
	r.ingestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == core.OutcomeSuccess {
		r.rowsIngested.Add(float64(rows))
		r.bytesIngested.Add(float64(bytes))
	}
}

func (r *Recorder) BatchesEvicted(n int) {
	r.evicted.Add(float64(n))
}

func (r *Recorder) OrphansSwept(n int) {
	r.orphansSwept.Add(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
