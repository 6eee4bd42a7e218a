package monitoring

import (
	"fmt"
	"strings"

	"batch-ingestor/core/models"
	"batch-ingestor/core/repository"
	"batch-ingestor/core/scheduler"
)

// MetricsExporter renders scheduler and job store state in the Prometheus
// text exposition format
type MetricsExporter struct {
	store     *repository.JobStore
	scheduler *scheduler.Scheduler
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(store *repository.JobStore, sched *scheduler.Scheduler) *MetricsExporter {
	return &MetricsExporter{
		store:     store,
		scheduler: sched,
	}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	var b strings.Builder
	stats := me.store.Stats()

	// Queue depth
	b.WriteString("# HELP ingest_queue_depth Batches waiting to be processed\n")
	b.WriteString("# TYPE ingest_queue_depth gauge\n")
	depth := me.scheduler.QueueDepth()
	for _, p := range models.Priorities() {
		fmt.Fprintf(&b, "ingest_queue_depth{priority=%q} %d\n", string(p), depth[p])
	}

	// Jobs
	b.WriteString("# HELP ingest_jobs Jobs by aggregate status\n")
	b.WriteString("# TYPE ingest_jobs gauge\n")
	for _, s := range models.JobStatuses() {
		fmt.Fprintf(&b, "ingest_jobs{status=%q} %d\n", string(s), stats.Jobs[s])
	}

	// Batches
	b.WriteString("# HELP ingest_batches Batches by status\n")
	b.WriteString("# TYPE ingest_batches gauge\n")
	for _, s := range models.BatchStatuses() {
		fmt.Fprintf(&b, "ingest_batches{status=%q} %d\n", string(s), stats.Batches[s])
	}

	// Worker
	b.WriteString("# HELP ingest_batches_processed_total Batches completed since start\n")
	b.WriteString("# TYPE ingest_batches_processed_total counter\n")
	fmt.Fprintf(&b, "ingest_batches_processed_total %d\n", me.scheduler.Processed())

	b.WriteString("# HELP ingest_batches_failed_total Batches whose external call failed since start\n")
	b.WriteString("# TYPE ingest_batches_failed_total counter\n")
	fmt.Fprintf(&b, "ingest_batches_failed_total %d\n", me.scheduler.Failed())

	b.WriteString("# HELP ingest_worker_state Current worker state (1 for the active state)\n")
	b.WriteString("# TYPE ingest_worker_state gauge\n")
	current := me.scheduler.State()
	for _, s := range scheduler.States() {
		v := 0
		if s == current {
			v = 1
		}
		fmt.Fprintf(&b, "ingest_worker_state{state=%q} %d\n", string(s), v)
	}

	b.WriteString("# HELP ingest_rate_limit_interval_seconds Pause enforced between batches\n")
	b.WriteString("# TYPE ingest_rate_limit_interval_seconds gauge\n")
	fmt.Fprintf(&b, "ingest_rate_limit_interval_seconds %g\n", me.scheduler.Interval().Seconds())

	return b.String()
}
