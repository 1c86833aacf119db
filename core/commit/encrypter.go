// Package commit implements the CommitEncrypter and CommitDecrypter of
// the threshold-revealing commitment protocol.
package commit

import (
	"fmt"

	"github.com/XaviC-F/AC2/common/field"
	aclog "github.com/XaviC-F/AC2/common/log"
	"github.com/XaviC-F/AC2/common/metrics"
	"github.com/XaviC-F/AC2/core/membership"
)

// Never is the sentinel threshold meaning "decline": the participant
// never wants their pledge revealed, regardless of what anyone else
// pledges.
const Never = -1

// Record is a single participant's public commitment: an opaque
// ciphertext plus one (x, y) point per level 0..N-1.
type Record struct {
	Ciphertext string
	Points     []field.Point
}

// Encrypter holds the secret coefficient vector for one objective and
// turns (name, threshold) pledges into Records. It is not safe for
// concurrent use: callers must serialize access (its used-x set and
// RNG are mutable).
type Encrypter struct {
	holder   *membership.Holder
	n        int
	minCount int
	coeffs   []field.Elem
	usedXs   map[string]struct{}
	rng      fieldRNG

	log     aclog.Logger
	metrics metrics.Recorder
}

// EncrypterOption configures optional collaborators on a new Encrypter.
type EncrypterOption func(*Encrypter)

// WithLogger injects a structured logger; the default is a no-op.
func WithLogger(l aclog.Logger) EncrypterOption {
	return func(e *Encrypter) { e.log = l }
}

// WithMetrics injects a metrics.Recorder; the default discards everything.
func WithMetrics(r metrics.Recorder) EncrypterOption {
	return func(e *Encrypter) { e.metrics = r }
}

// NewEncrypter builds an Encrypter for holder's authorized set. minCount
// is clamped into [1, N]. If seed is non-nil, coefficients are derived
// deterministically from it (at least 32 bytes of entropy); otherwise a
// CSPRNG is used.
func NewEncrypter(holder *membership.Holder, minCount int, seed []byte, opts ...EncrypterOption) (*Encrypter, error) {
	n := holder.GroupSize()
	if n == 0 {
		return nil, fmt.Errorf("commit: authorized set is empty")
	}

	e := &Encrypter{
		holder:   holder,
		n:        n,
		minCount: clamp(minCount, 1, n),
		usedXs:   make(map[string]struct{}),
		log:      noopLogger{},
		metrics:  metrics.NopRecorder(),
	}
	for _, opt := range opts {
		opt(e)
	}

	rng, err := buildRNG(seed)
	if err != nil {
		return nil, err
	}
	e.rng = rng

	coeffs := make([]field.Elem, n)
	for i := range coeffs {
		c, err := randomElem(rng)
		if err != nil {
			return nil, fmt.Errorf("commit: generating coefficient %d: %w", i, err)
		}
		coeffs[i] = c
	}
	e.coeffs = coeffs

	e.log.Debugw("encrypter initialized", "group_size", n, "min_count", e.minCount, "seeded", seed != nil)
	return e, nil
}

func buildRNG(seed []byte) (fieldRNG, error) {
	if seed == nil {
		return cryptoRNG{}, nil
	}
	key, err := seedToKey(seed)
	if err != nil {
		return nil, err
	}
	return newChachaRNG(key)
}

// SetUsedXs replaces the set of x-coordinates already issued, used when
// rehydrating an Encrypter from a persisted commitment log.
func (e *Encrypter) SetUsedXs(xs []field.Elem) {
	used := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		used[x.String()] = struct{}{}
	}
	e.usedXs = used
}

// Commit produces a Record for (name, threshold). threshold is an
// absolute pledge in [1, N], or Never for "decline". Non-members and
// decliners receive an all-sentinel, indistinguishable noise Record.
func (e *Encrypter) Commit(name string, threshold int) (Record, error) {
	if !e.holder.IsMember(name) || threshold == Never {
		e.metrics.CommitObserved(metrics.OutcomeNoise)
		e.log.Debugw("commit producing noise record", "reason", noiseReason(e.holder, name, threshold))
		return e.noiseRecord()
	}

	t := clamp(threshold, 1, e.n)
	key := e.coeffs[t-1]

	ciphertext, err := encryptName(key.String(), name)
	if err != nil {
		return Record{}, err
	}

	floor := max(e.minCount-1, t-1)
	points := make([]field.Point, e.n)
	for i := 0; i < e.n; i++ {
		if i < floor {
			points[i] = field.SentinelPoint()
			continue
		}
		x, err := e.freshX()
		if err != nil {
			return Record{}, err
		}
		y := field.EvalAt(e.coeffs, i, x)
		points[i] = field.Point{X: x, Y: y}
	}

	e.metrics.CommitObserved(metrics.OutcomeMember)
	e.log.Debugw("commit produced real record", "threshold", t, "noise_floor", floor)
	return Record{Ciphertext: ciphertext, Points: points}, nil
}

func (e *Encrypter) noiseRecord() (Record, error) {
	ct, err := randomCiphertext()
	if err != nil {
		return Record{}, err
	}
	points := make([]field.Point, e.n)
	for i := range points {
		points[i] = field.SentinelPoint()
	}
	return Record{Ciphertext: ct, Points: points}, nil
}

// freshX draws an x-coordinate in [1, Mod) not already present in
// usedXs, enforcing x-distinctness across every point this Encrypter
// ever issues. Collisions are effectively impossible (|used_xs| << p);
// on the astronomically unlikely event of one, it simply redraws.
func (e *Encrypter) freshX() (field.Elem, error) {
	for {
		x, err := randomNonzeroElem(e.rng)
		if err != nil {
			return field.Elem{}, err
		}
		if _, seen := e.usedXs[x.String()]; !seen {
			e.usedXs[x.String()] = struct{}{}
			return x, nil
		}
	}
}

func noiseReason(h *membership.Holder, name string, threshold int) string {
	if !h.IsMember(name) {
		return "non_member"
	}
	return "decline"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type noopLogger struct{}

func (noopLogger) Info(...interface{})                {}
func (noopLogger) Debug(...interface{})               {}
func (noopLogger) Warn(...interface{})                {}
func (noopLogger) Error(...interface{})               {}
func (noopLogger) Infow(string, ...interface{})       {}
func (noopLogger) Debugw(string, ...interface{})      {}
func (noopLogger) Warnw(string, ...interface{})       {}
func (noopLogger) Errorw(string, ...interface{})      {}
func (l noopLogger) With(...interface{}) aclog.Logger { return l }
func (l noopLogger) Named(string) aclog.Logger        { return l }
