// Package metrics defines the Prometheus collectors for the indexing
// pipeline and serves them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the indexer reports.
type Metrics struct {
	DocumentsExtracted prometheus.Counter
	DocumentsSkipped   prometheus.Counter
	BatchesTotal       *prometheus.CounterVec
	BatchDuration      prometheus.Histogram
	BatchSize          prometheus.Histogram
	SorterSpills       prometheus.Counter
	SorterSpilledBytes prometheus.Counter
	EntriesLoaded      *prometheus.CounterVec
	DocumentsIndexed   prometheus.Gauge
}

// New registers the indexer collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_documents_extracted_total",
			Help: "Number of documents run through the extraction pipeline",
		}),
		DocumentsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_documents_skipped_total",
			Help: "Number of ingest messages dropped before extraction",
		}),
		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_batches_total",
			Help: "Number of indexing batches by final status",
		}, []string{"status"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexer_batch_duration_seconds",
			Help:    "Wall time of a whole indexing batch",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexer_batch_size_documents",
			Help:    "Documents per indexing batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SorterSpills: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_sorter_spills_total",
			Help: "Number of sorted chunks spilled to disk",
		}),
		SorterSpilledBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_sorter_spilled_bytes_total",
			Help: "Bytes written to spill chunks",
		}),
		EntriesLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_entries_loaded_total",
			Help: "Entries bulk-loaded into the store by table",
		}, []string{"table"}),
		DocumentsIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_documents_indexed",
			Help: "Documents currently present in the index",
		}),
	}
}
