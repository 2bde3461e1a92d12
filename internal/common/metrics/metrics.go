// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tour_sync_records_total",
			Help: "Records handled per sync stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tour_sync_stage_duration_seconds",
			Help:    "Duration of a sync stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"stage"},
	)

	DocumentsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tour_sync_documents_published_total",
			Help: "Documents created or updated in the document store",
		},
		[]string{"action"},
	)

	UnresolvedLinks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tour_sync_content_links",
			Help: "Tours per content link status after the last reconciliation",
		},
		[]string{"status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)

// Record counts one record for stage.
func Record(stage, outcome string) {
	RecordsProcessed.WithLabelValues(stage, outcome).Inc()
}
