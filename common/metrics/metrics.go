// Package metrics instruments the commitment core's operations without
// forcing a hard dependency on a running Prometheus registry: callers
// inject a Recorder, and tests use NopRecorder.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels the result of a commit operation.
type Outcome string

const (
	OutcomeMember Outcome = "member"
	OutcomeNoise  Outcome = "noise"
)

// Recorder is the instrumentation surface core/commit reports through.
type Recorder interface {
	// CommitObserved records one commit() call.
	CommitObserved(outcome Outcome)
	// DecryptDuration records the wall-clock time of one decrypt() call, in seconds.
	DecryptDuration(seconds float64)
	// CombinationsTried records how many candidate subsets were enumerated
	// at a given level during the decrypt search path.
	CombinationsTried(level int, count int)
}

// PromRecorder is a Recorder backed by a dedicated prometheus.Registry,
// scoped to this package's own concerns rather than sharing a global one.
type PromRecorder struct {
	Registry *prometheus.Registry

	commitsTotal      *prometheus.CounterVec
	decryptDuration   prometheus.Histogram
	combinationsTotal *prometheus.CounterVec
}

// NewPromRecorder builds a PromRecorder with its own registry.
func NewPromRecorder() *PromRecorder {
	reg := prometheus.NewRegistry()
	r := &PromRecorder{
		Registry: reg,
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ac2_commits_total",
			Help: "Number of commit() calls, labeled by outcome.",
		}, []string{"outcome"}),
		decryptDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ac2_decrypt_duration_seconds",
			Help:    "Wall-clock duration of decrypt() calls.",
			Buckets: prometheus.DefBuckets,
		}),
		combinationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ac2_decrypt_combinations_total",
			Help: "Candidate subsets enumerated by the decrypt search path, labeled by level.",
		}, []string{"level"}),
	}
	reg.MustRegister(r.commitsTotal, r.decryptDuration, r.combinationsTotal)
	return r
}

func (r *PromRecorder) CommitObserved(outcome Outcome) {
	r.commitsTotal.WithLabelValues(string(outcome)).Inc()
}

func (r *PromRecorder) DecryptDuration(seconds float64) {
	r.decryptDuration.Observe(seconds)
}

func (r *PromRecorder) CombinationsTried(level int, count int) {
	// Bounded cardinality: levels run 1..N where N is a group size.
	r.combinationsTotal.WithLabelValues(strconv.Itoa(level)).Add(float64(count))
}

// nopRecorder discards everything. Used by default in core/commit so the
// core has no hard dependency on a running registry.
type nopRecorder struct{}

// NopRecorder returns a Recorder that does nothing, for callers that
// have not wired an instrumentation backend.
func NopRecorder() Recorder { return nopRecorder{} }

func (nopRecorder) CommitObserved(Outcome)     {}
func (nopRecorder) DecryptDuration(float64)    {}
func (nopRecorder) CombinationsTried(int, int) {}
