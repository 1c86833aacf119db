package membership

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCollapsesDuplicatesAndHidesRoster(t *testing.T) {
	h := New([]string{"alice", "bob", "alice"})
	require.Equal(t, 2, h.GroupSize())
	require.True(t, h.IsMember("alice"))
	require.True(t, h.IsMember("bob"))
	require.False(t, h.IsMember("mallory"))
}

func TestNewFromHashesRehydrates(t *testing.T) {
	orig := New([]string{"alice", "bob", "carol"})
	rehydrated := NewFromHashes(orig.Hashes())

	require.Equal(t, orig.GroupSize(), rehydrated.GroupSize())
	require.True(t, rehydrated.IsMember("alice"))
	require.True(t, rehydrated.IsMember("carol"))
	require.False(t, rehydrated.IsMember("dave"))
}
