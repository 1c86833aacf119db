// Package membership implements the authorized-set oracle the
// commitment encrypter consults before accepting a pledge.
package membership

import (
	"crypto/sha256"
	"encoding/hex"
)

// Holder is an opaque authorized-set membership oracle: it stores only
// the SHA-256 hashes of the names it was constructed with, never the
// names themselves, so nothing downstream of construction can recover
// the roster.
type Holder struct {
	hashes    map[string]struct{}
	groupSize int
}

// New builds a Holder from a sequence of names. Duplicate names
// collapse to a single hash, so GroupSize() is the authoritative count
// of distinct members. The input slice is not retained.
func New(names []string) *Holder {
	hashes := make(map[string]struct{}, len(names))
	for _, n := range names {
		hashes[HashName(n)] = struct{}{}
	}
	return &Holder{hashes: hashes, groupSize: len(hashes)}
}

// NewFromHashes rebuilds a Holder directly from a previously computed
// set of hex-encoded SHA-256 digests, for rehydration paths that never
// held the raw roster to begin with.
func NewFromHashes(hexHashes []string) *Holder {
	hashes := make(map[string]struct{}, len(hexHashes))
	for _, h := range hexHashes {
		hashes[h] = struct{}{}
	}
	return &Holder{hashes: hashes, groupSize: len(hashes)}
}

// GroupSize returns N, the cardinality of the authorized set.
func (h *Holder) GroupSize() int {
	return h.groupSize
}

// IsMember reports whether name's hash is in the authorized set.
func (h *Holder) IsMember(name string) bool {
	_, ok := h.hashes[HashName(name)]
	return ok
}

// Hashes returns the hex-encoded SHA-256 digests backing this Holder,
// for persistence — never the names themselves.
func (h *Holder) Hashes() []string {
	out := make([]string, 0, len(h.hashes))
	for hh := range h.hashes {
		out = append(out, hh)
	}
	return out
}

// HashName is the hashing scheme Holder uses internally: SHA-256 over
// the raw name, hex-encoded. Callers that persist commitments keyed by
// name (e.g. storage/boltstore's replace-by-name index) use the same
// function so their keys agree with Holder's own.
func HashName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}
