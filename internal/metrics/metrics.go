// Package metrics exposes Prometheus collectors for the dispatch, worker,
// and registry components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch metrics
	TasksDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bq_tasks_dispatched_total",
			Help: "Total number of tasks claimed by dispatch",
		},
		[]string{"channel"},
	)

	DispatchBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bq_dispatch_batch_size",
			Help:    "Number of tasks claimed per dispatch call",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
		[]string{"channel"},
	)

	PollTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bq_poll_timeouts_total",
			Help: "Total number of notification poll timeouts",
		},
	)

	// Processing metrics
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bq_tasks_completed_total",
			Help: "Total number of processed tasks by outcome state (DONE, FAILED, or PENDING for a scheduled retry)",
		},
		[]string{"channel", "module", "func", "outcome"},
	)

	TaskProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bq_task_processing_duration_seconds",
			Help:    "Handler execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"channel", "module", "func"},
	)

	TaskRetriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bq_task_retries_scheduled_total",
			Help: "Total number of retries scheduled by a retry policy",
		},
		[]string{"channel", "module", "func"},
	)

	MissingHandler = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bq_missing_handler_total",
			Help: "Total number of dispatched tasks with no registered handler",
		},
		[]string{"channel", "module", "func"},
	)

	// Worker liveness metrics
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bq_active_workers",
			Help: "Current number of RUNNING workers observed by this process",
		},
	)

	HeartbeatsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bq_heartbeats_sent_total",
			Help: "Total number of heartbeat writes issued by this worker",
		},
	)

	WorkersReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bq_workers_reaped_total",
			Help: "Total number of peer workers marked NO_HEARTBEAT",
		},
	)

	TasksRescheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bq_tasks_rescheduled_total",
			Help: "Total number of tasks reset to PENDING after owner loss",
		},
	)
)

// RecordDispatch records a successful dispatch batch for channel.
func RecordDispatch(channel string, n int) {
	TasksDispatched.WithLabelValues(channel).Add(float64(n))
	DispatchBatchSize.WithLabelValues(channel).Observe(float64(n))
}

// RecordCompletion records a task reaching a terminal or retry outcome.
func RecordCompletion(channel, module, funcName, outcome string, duration float64) {
	TasksCompleted.WithLabelValues(channel, module, funcName, outcome).Inc()
	TaskProcessingDuration.WithLabelValues(channel, module, funcName).Observe(duration)
}

// RecordRetryScheduled records a retry-policy reschedule.
func RecordRetryScheduled(channel, module, funcName string) {
	TaskRetriesScheduled.WithLabelValues(channel, module, funcName).Inc()
}

// RecordMissingHandler records a dispatch with no registered handler.
func RecordMissingHandler(channel, module, funcName string) {
	MissingHandler.WithLabelValues(channel, module, funcName).Inc()
}

// RecordReap records that workers dead workers were found and tasks of
// their tasks rescheduled.
func RecordReap(workers, tasks int) {
	WorkersReaped.Add(float64(workers))
	TasksRescheduled.Add(float64(tasks))
}
