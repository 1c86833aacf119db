package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPromRecorderCountsCommitsByOutcome(t *testing.T) {
	r := NewPromRecorder()
	r.CommitObserved(OutcomeMember)
	r.CommitObserved(OutcomeMember)
	r.CommitObserved(OutcomeNoise)

	require.Equal(t, float64(2), testutil.ToFloat64(r.commitsTotal.WithLabelValues("member")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.commitsTotal.WithLabelValues("noise")))
}

func TestPromRecorderCombinationsTriedLabelsByLevel(t *testing.T) {
	r := NewPromRecorder()
	r.CombinationsTried(3, 42)
	r.CombinationsTried(3, 8)

	require.Equal(t, float64(50), testutil.ToFloat64(r.combinationsTotal.WithLabelValues("3")))
}

func TestNopRecorderDoesNothing(t *testing.T) {
	r := NopRecorder()
	require.NotPanics(t, func() {
		r.CommitObserved(OutcomeMember)
		r.DecryptDuration(0.5)
		r.CombinationsTried(1, 1)
	})
}
