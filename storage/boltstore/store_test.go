package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XaviC-F/AC2/core/commit"
	"github.com/XaviC-F/AC2/core/membership"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), FileName), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInitPutLoadDecrypterRoundTrip(t *testing.T) {
	names := []string{"A", "B", "C"}
	holder := membership.New(names)
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 7
	}

	enc, err := commit.NewEncrypter(holder, 1, seed)
	require.NoError(t, err)

	s := openStore(t)
	require.NoError(t, s.Init(holder.Hashes(), 1, seed))

	for _, n := range names {
		rec, err := enc.Commit(n, 1)
		require.NoError(t, err)
		require.NoError(t, s.Put(membership.HashName(n), rec))
	}

	dec, err := s.LoadDecrypter()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, dec.Decrypt())
}

// Re-pledging from a low threshold to a high one must retire the old
// commitment entirely: the stale low-threshold record alone must not
// stay reachable from the persisted log and leak a premature reveal.
func TestPutReplacesPriorCommitmentForSameName(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	holder := membership.New(names)
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 9
	}
	enc, err := commit.NewEncrypter(holder, 1, seed)
	require.NoError(t, err)

	s := openStore(t)
	require.NoError(t, s.Init(holder.Hashes(), 1, seed))

	// A first pledges t=1, which alone would already be revealable
	// (min_count=1, so a single point at level 1 fully determines a_0).
	pledgeA1, err := enc.Commit("A", 1)
	require.NoError(t, err)
	require.NoError(t, s.Put(membership.HashName("A"), pledgeA1))

	// A then raises their pledge to t=3: this should fully retire the
	// t=1 commitment, not merely add a second one alongside it.
	pledgeA3, err := enc.Commit("A", 3)
	require.NoError(t, err)
	require.NoError(t, s.Put(membership.HashName("A"), pledgeA3))

	// With only A's live t=3 pledge on record, nobody should be
	// revealed yet: A's stale t=1 commitment must not leak a solo
	// reveal of "A" out of the level-1 point it used to carry.
	dec, err := s.LoadDecrypter()
	require.NoError(t, err)
	require.Empty(t, dec.Decrypt())

	recs := dec.Commitments()
	require.Len(t, recs, 1, "the retired t=1 commitment must not still be in the persisted log")
	require.Equal(t, pledgeA3.Ciphertext, recs[0].Ciphertext)

	// Once two more members also pledge t=3, A's live (replacement)
	// commitment reveals normally.
	recB, err := enc.Commit("B", 3)
	require.NoError(t, err)
	require.NoError(t, s.Put(membership.HashName("B"), recB))

	recC, err := enc.Commit("C", 3)
	require.NoError(t, err)
	require.NoError(t, s.Put(membership.HashName("C"), recC))

	dec, err = s.LoadDecrypter()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, dec.Decrypt())
}

func TestRehydrateEncrypterAvoidsXCollisions(t *testing.T) {
	names := []string{"A", "B", "C"}
	holder := membership.New(names)
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 3
	}
	enc, err := commit.NewEncrypter(holder, 1, seed)
	require.NoError(t, err)

	s := openStore(t)
	require.NoError(t, s.Init(holder.Hashes(), 1, seed))

	for _, n := range names[:2] {
		rec, err := enc.Commit(n, 1)
		require.NoError(t, err)
		require.NoError(t, s.Put(membership.HashName(n), rec))
	}

	rehydrated, err := s.RehydrateEncrypter()
	require.NoError(t, err)

	recC, err := rehydrated.Commit("C", 1)
	require.NoError(t, err)

	priorX := map[string]bool{}
	dec, err := s.LoadDecrypter()
	require.NoError(t, err)
	for _, rec := range dec.Commitments() {
		for _, p := range rec.Points {
			if !p.IsSentinel() {
				priorX[p.X.String()] = true
			}
		}
	}

	for _, p := range recC.Points {
		if !p.IsSentinel() {
			require.False(t, priorX[p.X.String()], "x-coordinate reused across rehydration: %s", p.X.String())
		}
	}
}
