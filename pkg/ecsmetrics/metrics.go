package ecsmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Frame metrics
	FrameDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecspanse_frame_duration_seconds",
			Help:    "Wall-clock duration of one frame's work, excluding the fps-deadline wait.",
			Buckets: prometheus.DefBuckets,
		},
	)

	FrameOverrunTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecspanse_frame_overrun_total",
			Help: "Frames whose work exceeded the fps-limit deadline.",
		},
	)

	FramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecspanse_frames_total",
			Help: "Total number of frames executed since startup.",
		},
	)

	// Batch/scheduling metrics
	BatchCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecspanse_batch_count",
			Help: "Number of batches the scheduler runs per frame.",
		},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecspanse_batch_duration_seconds",
			Help:    "Duration of one batch of concurrently-run systems.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"batch_index"},
	)

	SystemsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecspanse_systems_skipped_total",
			Help: "Systems not run because a run-condition evaluated false.",
		},
	)

	SystemErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecspanse_system_errors_total",
			Help: "System panics/errors caught by the scheduler, by system name.",
		},
		[]string{"system"},
	)

	// Event metrics
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecspanse_events_published_total",
			Help: "Events enqueued into the current event table, by type.",
		},
		[]string{"event_type"},
	)

	EventsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecspanse_events_delivered_total",
			Help: "Events delivered to subscribed systems, by type.",
		},
		[]string{"event_type"},
	)

	// Command metrics
	CommandValidationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecspanse_command_validation_seconds",
			Help:    "Time spent validating a command before commit.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommandCommitLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecspanse_command_commit_seconds",
			Help:    "Time spent committing a validated command.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecspanse_commands_total",
			Help: "Commands executed, by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// Query metrics
	QueryCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecspanse_query_cache_hits_total",
			Help: "Memoized relationship-traversal lookups served from cache.",
		},
	)

	QueryCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecspanse_query_cache_misses_total",
			Help: "Memoized relationship-traversal lookups that recomputed.",
		},
	)

	// Projection metrics
	ProjectionEvalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecspanse_projection_eval_seconds",
			Help:    "Time spent evaluating one projection's Update function.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"projection"},
	)
)

// Collectors returns every metric this package defines, for
// convenient bulk registration: reg.MustRegister(ecsmetrics.Collectors()...).
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		FrameDuration,
		FrameOverrunTotal,
		FramesTotal,
		BatchCount,
		BatchDuration,
		SystemsSkippedTotal,
		SystemErrorsTotal,
		EventsPublishedTotal,
		EventsDeliveredTotal,
		CommandValidationLatency,
		CommandCommitLatency,
		CommandsTotal,
		QueryCacheHits,
		QueryCacheMisses,
		ProjectionEvalDuration,
	}
}

// Timer measures an elapsed duration and reports it to a histogram,
// mirroring the teacher's metrics.NewTimer()/ObserveDuration pairing.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since NewTimer into obs —
// a plain Histogram or one label-bound instance of a HistogramVec.
func (t *Timer) ObserveDuration(obs prometheus.Observer) time.Duration {
	elapsed := time.Since(t.start)
	obs.Observe(elapsed.Seconds())
	return elapsed
}
