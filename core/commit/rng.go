package commit

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/chacha20"

	"github.com/XaviC-F/AC2/common/field"
)

// fieldRNG draws uniformly random elements of [0, max) for Encrypter's
// coefficient generation and x-coordinate sampling. Two implementations
// exist: a CSPRNG-backed one for production, and a seeded
// stream-cipher-backed one for deterministic tests and replayable
// objectives.
type fieldRNG interface {
	// Int returns a uniformly random value in [0, max).
	Int(max *big.Int) (*big.Int, error)
}

// cryptoRNG draws from crypto/rand, the production source.
type cryptoRNG struct{}

func (cryptoRNG) Int(max *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, max)
}

// chachaRNG is a deterministic stream-cipher RNG seeded from a 32-byte
// key, used whenever the caller passes a seed to NewEncrypter (tests,
// and storage/boltstore's rehydration of a persisted objective). Anyone
// who learns the seed learns every coefficient.
type chachaRNG struct {
	cipher *chacha20.Cipher
}

func newChachaRNG(seed [32]byte) (*chachaRNG, error) {
	// A fixed, all-zero nonce is safe here because each (seed, objective)
	// pair draws from a stream that is never reused with a different
	// key: a fresh seed is required for each new objective.
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("commit: building deterministic rng: %w", err)
	}
	return &chachaRNG{cipher: c}, nil
}

func (c *chachaRNG) Int(max *big.Int) (*big.Int, error) {
	if max.Sign() <= 0 {
		return nil, fmt.Errorf("commit: rng requested non-positive bound")
	}
	// Rejection sampling over 16-byte (128-bit) blocks: a draw is kept
	// only when it falls below max. For the 127-bit bounds used here
	// (Mod or Mod-1) about half of all draws are rejected and redrawn.
	buf := make([]byte, 16)
	for {
		zero := make([]byte, 16)
		c.cipher.XORKeyStream(buf, zero)
		n := new(big.Int).SetBytes(buf)
		if n.Cmp(max) < 0 {
			return n, nil
		}
	}
}

func seedToKey(seed []byte) ([32]byte, error) {
	var key [32]byte
	if len(seed) < 32 {
		return key, fmt.Errorf("commit: seed must be at least 32 bytes, got %d", len(seed))
	}
	copy(key[:], seed[:32])
	return key, nil
}

// randomElem draws a uniformly random field element in [0, field.Mod).
func randomElem(r fieldRNG) (field.Elem, error) {
	n, err := r.Int(field.Mod)
	if err != nil {
		return field.Elem{}, err
	}
	return field.FromBigInt(n), nil
}

// randomNonzeroElem draws a uniformly random field element in
// [1, field.Mod), used for fresh x-coordinates (x=0 is reserved for the
// sentinel).
func randomNonzeroElem(r fieldRNG) (field.Elem, error) {
	modMinus1 := new(big.Int).Sub(field.Mod, big.NewInt(1))
	n, err := r.Int(modMinus1)
	if err != nil {
		return field.Elem{}, err
	}
	return field.FromBigInt(n.Add(n, big.NewInt(1))), nil
}
