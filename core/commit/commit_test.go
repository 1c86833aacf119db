package commit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XaviC-F/AC2/core/membership"
)

func seed(b byte) []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = b
	}
	return s
}

func newFixture(t *testing.T, names []string, minCount int, seedByte byte) (*Encrypter, *membership.Holder) {
	t.Helper()
	h := membership.New(names)
	enc, err := NewEncrypter(h, minCount, seed(seedByte))
	require.NoError(t, err)
	return enc, h
}

// Scenario 1: N=3, min_count=1, all threshold 1.
func TestAllThresholdOneReveals(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 1)
	dec := NewDecrypter(h.GroupSize())

	for _, name := range []string{"A", "B", "C"} {
		rec, err := enc.Commit(name, 1)
		require.NoError(t, err)
		dec.AddCommitment(rec)
	}

	require.Equal(t, []string{"A", "B", "C"}, dec.Decrypt())
}

// Scenario 2: N=3, min_count=1, staggered thresholds.
func TestStaggeredThresholdsRevealProgressively(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 2)
	dec := NewDecrypter(h.GroupSize())

	recA, err := enc.Commit("A", 1)
	require.NoError(t, err)
	dec.AddCommitment(recA)
	require.Equal(t, []string{"A"}, dec.Decrypt())

	recB, err := enc.Commit("B", 2)
	require.NoError(t, err)
	dec.AddCommitment(recB)
	require.Equal(t, []string{"A", "B"}, dec.Decrypt())
}

// Scenario 3: threshold not met.
func TestThresholdNotMetStaysSilent(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 3)
	dec := NewDecrypter(h.GroupSize())

	recA, err := enc.Commit("A", 2)
	require.NoError(t, err)
	dec.AddCommitment(recA)

	recB, err := enc.Commit("B", 3)
	require.NoError(t, err)
	dec.AddCommitment(recB)

	require.Empty(t, dec.Decrypt())
}

// Scenario 4: non-member pledge never appears.
func TestNonMemberCommitIsIndistinguishableNoise(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 4)
	dec := NewDecrypter(h.GroupSize())

	recMallory, err := enc.Commit("Mallory", 1)
	require.NoError(t, err)
	dec.AddCommitment(recMallory)
	for _, p := range recMallory.Points {
		require.True(t, p.IsSentinel())
	}

	recA, err := enc.Commit("A", 1)
	require.NoError(t, err)
	dec.AddCommitment(recA)

	recB, err := enc.Commit("B", 1)
	require.NoError(t, err)
	dec.AddCommitment(recB)

	got := dec.Decrypt()
	require.NotContains(t, got, "Mallory")
}

// Scenario 5: pledges below min_count are permanently unrecoverable.
//
// The noise floor forces every level below min_count-1 to sentinel, but
// the threshold-t key a_{t-1} was only ever used to encrypt at t-1. The
// decrypt loop only ever probes coeffs[k-1] at level k, so when t <
// min_count that key's index (t-1) is never the one tried at any level
// that actually carries data — min_count silently overrides a lower
// personal pledge into permanent concealment, not a delayed reveal.
func TestMinCountFloorAboveThresholdConceals(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C", "D"}, 3, 5)
	dec := NewDecrypter(h.GroupSize())

	for _, name := range []string{"A", "B", "C", "D"} {
		rec, err := enc.Commit(name, 1)
		require.NoError(t, err)
		dec.AddCommitment(rec)
	}

	require.Empty(t, dec.Decrypt())
}

// Pledging at or above min_count is the well-behaved case: the noise
// floor equals t-1 exactly, so the level-t recovery probes coeffs[t-1],
// the same key used to encrypt.
func TestPledgeAtMinCountReveals(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C", "D"}, 3, 12)
	dec := NewDecrypter(h.GroupSize())

	for _, name := range []string{"A", "B", "C"} {
		rec, err := enc.Commit(name, 3)
		require.NoError(t, err)
		dec.AddCommitment(rec)
	}

	require.Equal(t, []string{"A", "B", "C"}, dec.Decrypt())
}

// Scenario 6: decline never appears, regardless of further pledges.
func TestDeclineNeverReveals(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B"}, 1, 6)
	dec := NewDecrypter(h.GroupSize())

	recA, err := enc.Commit("A", Never)
	require.NoError(t, err)
	dec.AddCommitment(recA)
	for _, p := range recA.Points {
		require.True(t, p.IsSentinel())
	}

	recB, err := enc.Commit("B", 1)
	require.NoError(t, err)
	dec.AddCommitment(recB)

	require.Equal(t, []string{"B"}, dec.Decrypt())
}

func TestCommitPointShapeMatchesNoiseFloor(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C", "D", "E"}, 3, 7)

	rec, err := enc.Commit("A", 2)
	require.NoError(t, err)

	floor := max(3-1, 2-1)
	realCount := 0
	for i, p := range rec.Points {
		if i < floor {
			require.True(t, p.IsSentinel(), "level %d should be sentinel", i)
		} else {
			require.False(t, p.IsSentinel(), "level %d should be real", i)
			realCount++
		}
	}
	require.Equal(t, h.GroupSize()-floor, realCount)
}

func TestUsedXsAreDistinctAndNonzero(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 8)

	seenX := map[string]bool{}
	for _, name := range []string{"A", "B", "C"} {
		rec, err := enc.Commit(name, h.GroupSize())
		require.NoError(t, err)
		for _, p := range rec.Points {
			if p.IsSentinel() {
				continue
			}
			require.False(t, p.X.IsZero())
			require.False(t, seenX[p.X.String()], "x-coordinate reused: %s", p.X.String())
			seenX[p.X.String()] = true
		}
	}
}

func TestMonotonicityOfReveal(t *testing.T) {
	enc, h := newFixture(t, []string{"A", "B", "C"}, 1, 9)
	dec := NewDecrypter(h.GroupSize())

	recA, err := enc.Commit("A", 1)
	require.NoError(t, err)
	dec.AddCommitment(recA)
	before := dec.Decrypt()

	recB, err := enc.Commit("B", 1)
	require.NoError(t, err)
	dec.AddCommitment(recB)
	after := dec.Decrypt()

	for _, name := range before {
		require.Contains(t, after, name)
	}
}

func TestRestartIdempotence(t *testing.T) {
	names := []string{"A", "B", "C"}
	s := seed(10)

	h1 := membership.New(names)
	enc1, err := NewEncrypter(h1, 1, s)
	require.NoError(t, err)

	dec := NewDecrypter(h1.GroupSize())
	for _, name := range names {
		rec, err := enc1.Commit(name, 1)
		require.NoError(t, err)
		dec.AddCommitment(rec)
	}
	before := dec.Decrypt()

	// Rehydrate: reconstruct the encrypter bit-identically from the seed,
	// and replay the persisted log into a fresh decrypter.
	h2 := membership.New(names)
	_, err = NewEncrypter(h2, 1, s)
	require.NoError(t, err)

	dec2 := NewDecrypter(h1.GroupSize())
	for _, rec := range dec.Commitments() {
		dec2.AddCommitment(rec)
	}
	after := dec2.Decrypt()

	require.Equal(t, before, after)
}

func TestZeroThresholdClampsToOne(t *testing.T) {
	enc, h := newFixture(t, []string{"A"}, 1, 11)
	dec := NewDecrypter(h.GroupSize())

	rec, err := enc.Commit("A", 0)
	require.NoError(t, err)
	dec.AddCommitment(rec)

	require.Equal(t, []string{"A"}, dec.Decrypt())
}
