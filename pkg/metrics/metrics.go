package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Object store metrics
	ObjectsPutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_objects_put_total",
			Help: "Total number of put(kind, bytes) calls by object kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: written|deduplicated
	)

	ObjectsGetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_objects_get_total",
			Help: "Total number of get(kind, hash) calls by object kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: hit|not_found|integrity_error
	)

	ObjectPutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memvcs_object_put_duration_seconds",
			Help:    "Time to compress, optionally seal, and write an object",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Repository metrics
	CommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memvcs_commits_total",
			Help: "Total number of successful commits",
		},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memvcs_commit_duration_seconds",
			Help:    "Time to build a tree, write a commit object, and fast-forward a branch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_checkouts_total",
			Help: "Total number of checkout attempts by outcome",
		},
		[]string{"outcome"}, // outcome: ok|conflict|not_found
	)

	// Lock metrics
	LockWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memvcs_lock_wait_duration_seconds",
			Help:    "Time spent waiting to acquire the repository lock",
			Buckets: prometheus.DefBuckets,
		},
	)

	LockTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memvcs_lock_timeouts_total",
			Help: "Total number of lock acquisitions that exceeded their timeout",
		},
	)

	// Privacy accountant metrics
	PrivacyEpsilonSpent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memvcs_privacy_epsilon_spent",
			Help: "Current cumulative epsilon spent against the privacy budget",
		},
	)

	PrivacySpendDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memvcs_privacy_spend_denied_total",
			Help: "Total number of spend() calls denied because they would exceed epsilon_max",
		},
	)

	// Merkle metrics
	MerkleSnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memvcs_merkle_snapshot_duration_seconds",
			Help:    "Time to enumerate a working tree and compute its Merkle root",
			Buckets: prometheus.DefBuckets,
		},
	)

	MerkleVerifyMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_merkle_verify_mismatches_total",
			Help: "Total number of paths classified as added/modified/deleted on verify",
		},
		[]string{"class"}, // class: added|modified|deleted
	)

	// Distillation pipeline metrics
	DistillRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_distill_runs_total",
			Help: "Total number of distillation pipeline runs by terminal state",
		},
		[]string{"state"}, // state: done|aborted
	)

	DistillClustersTotal = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memvcs_distill_clusters_total",
			Help:    "Number of clusters produced per distillation run",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	DistillFactsExtractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memvcs_distill_facts_extracted_total",
			Help: "Total number of candidate facts extracted across all runs",
		},
	)

	DistillRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memvcs_distill_run_duration_seconds",
			Help:    "Wall-clock duration of a full distillation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Session auto-commit metrics
	SessionCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memvcs_session_commits_total",
			Help: "Total number of session auto-commits by trigger reason",
		},
		[]string{"trigger"}, // trigger: max_observations|interval_elapsed|session_end
	)

	ObservationsBufferedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memvcs_observations_buffered_total",
			Help: "Total number of observations appended to a session buffer",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ObjectsPutTotal,
		ObjectsGetTotal,
		ObjectPutDuration,
		CommitsTotal,
		CommitDuration,
		CheckoutsTotal,
		LockWaitDuration,
		LockTimeoutsTotal,
		PrivacyEpsilonSpent,
		PrivacySpendDeniedTotal,
		MerkleSnapshotDuration,
		MerkleVerifyMismatchesTotal,
		DistillRunsTotal,
		DistillClustersTotal,
		DistillFactsExtractedTotal,
		DistillRunDuration,
		SessionCommitsTotal,
		ObservationsBufferedTotal,
	)
}

// Handler returns the Prometheus HTTP handler, for callers that expose
// a metrics endpoint alongside the library (the core itself never
// listens on a socket).
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
