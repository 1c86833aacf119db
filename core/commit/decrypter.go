package commit

import (
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/XaviC-F/AC2/common/field"
	aclog "github.com/XaviC-F/AC2/common/log"
	"github.com/XaviC-F/AC2/common/metrics"
)

// DefaultMaxCombinations is the anti-DoS cap on candidate subsets
// enumerated per level during the search path.
const DefaultMaxCombinations = 1_000_000

// coeffCacheSize bounds the recovered-coefficient cache. It is a fixed
// size, independent of the group size.
const coeffCacheSize = 256

// Decrypter accumulates public commitment Records and recovers the
// identities of participants whose threshold condition is satisfied.
// It is a pure function of the accumulated commitment list, aside from
// its internal coefficient-recovery cache, which is purely a
// performance optimization and never affects output.
type Decrypter struct {
	n           int
	maxCombs    int
	commitments []Record
	coeffCache  *lru.ARCCache // key: cacheKey -> []field.Elem

	log     aclog.Logger
	metrics metrics.Recorder
}

// DecrypterOption configures optional collaborators on a new Decrypter.
type DecrypterOption func(*Decrypter)

// WithDecrypterLogger injects a structured logger; the default is a no-op.
func WithDecrypterLogger(l aclog.Logger) DecrypterOption {
	return func(d *Decrypter) { d.log = l }
}

// WithDecrypterMetrics injects a metrics.Recorder; the default discards everything.
func WithDecrypterMetrics(r metrics.Recorder) DecrypterOption {
	return func(d *Decrypter) { d.metrics = r }
}

// WithMaxCombinations overrides DefaultMaxCombinations.
func WithMaxCombinations(max int) DecrypterOption {
	return func(d *Decrypter) { d.maxCombs = max }
}

// NewDecrypter builds a Decrypter for an authorized set of size n.
func NewDecrypter(n int, opts ...DecrypterOption) *Decrypter {
	cache, _ := lru.NewARC(coeffCacheSize) // size > 0, error impossible
	d := &Decrypter{
		n:          n,
		maxCombs:   DefaultMaxCombinations,
		coeffCache: cache,
		log:        noopLogger{},
		metrics:    metrics.NopRecorder(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddCommitment appends a Record, assigning it the next sequential
// index — the only identity a participant has inside the Decrypter.
func (d *Decrypter) AddCommitment(r Record) {
	d.commitments = append(d.commitments, r)
}

// Commitments returns a copy of the accumulated records in insertion
// order; replaying AddCommitment over it rebuilds an equivalent
// Decrypter.
func (d *Decrypter) Commitments() []Record {
	out := make([]Record, len(d.commitments))
	copy(out, d.commitments)
	return out
}

// Decrypt runs the level-by-level recovery loop and returns the sorted
// list of currently revealable names. It never errors: malformed input
// at any stage simply drops that candidate.
func (d *Decrypter) Decrypt() []string {
	start := time.Now()
	defer func() { d.metrics.DecryptDuration(time.Since(start).Seconds()) }()

	revealed := make(map[int]string)
	confirmedT := make(map[int]int)

	for k := 1; k <= d.n; k++ {
		validAtLevel := d.validIndicesAtLevel(k)
		if len(validAtLevel) < k {
			continue
		}

		var confirmedIdx, unknownIdx []int
		for _, idx := range validAtLevel {
			if _, ok := confirmedT[idx]; ok {
				confirmedIdx = append(confirmedIdx, idx)
			} else {
				unknownIdx = append(unknownIdx, idx)
			}
		}

		if len(confirmedIdx) >= k {
			d.fastPath(k, confirmedIdx, unknownIdx, revealed, confirmedT)
			continue
		}

		needed := k - len(confirmedIdx)
		if needed > len(unknownIdx) {
			continue
		}
		d.searchPath(k, confirmedIdx, unknownIdx, needed, revealed, confirmedT)
	}

	names := make([]string, 0, len(revealed))
	for _, name := range revealed {
		names = append(names, name)
	}
	sort.Strings(names)
	d.log.Debugw("decrypt complete", "revealed_count", len(names))
	return names
}

func (d *Decrypter) validIndicesAtLevel(k int) []int {
	var idxs []int
	for idx, rec := range d.commitments {
		if k-1 >= len(rec.Points) {
			continue
		}
		if !rec.Points[k-1].IsSentinel() {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// fastPath recovers a_{k-1} from k already-confirmed points and tries
// it against every unknown commitment at this level.
func (d *Decrypter) fastPath(k int, confirmedIdx, unknownIdx []int, revealed map[int]string, confirmedT map[int]int) {
	subset := confirmedIdx[:k]
	key, ok := d.recoverKey(k, subset)
	if !ok {
		return
	}
	for _, idx := range unknownIdx {
		if name, ok := decryptName(key, d.commitments[idx].Ciphertext); ok {
			revealed[idx] = name
			confirmedT[idx] = k
		}
	}
}

// searchPath enumerates `needed`-sized subsets of unknownIdx, combined
// with the already-confirmed points, until one subset's recovered key
// decrypts every member of the subset. Enumeration is capped at
// d.maxCombs candidate subsets.
func (d *Decrypter) searchPath(k int, confirmedIdx, unknownIdx []int, needed int, revealed map[int]string, confirmedT map[int]int) {
	tried := 0
	combo := newCombinationIter(len(unknownIdx), needed)
	for combo.next() {
		tried++
		if tried > d.maxCombs {
			break
		}

		subsetIdx := make([]int, needed)
		for i, pos := range combo.indices {
			subsetIdx[i] = unknownIdx[pos]
		}

		allIdx := append(append([]int{}, confirmedIdx...), subsetIdx...)
		key, ok := d.recoverKeyUncached(k, allIdx)
		if !ok {
			continue
		}

		allMatch := true
		newly := make(map[int]string, needed)
		for _, idx := range subsetIdx {
			name, ok := decryptName(key, d.commitments[idx].Ciphertext)
			if !ok {
				allMatch = false
				break
			}
			newly[idx] = name
		}

		if !allMatch {
			continue
		}

		for idx, name := range newly {
			revealed[idx] = name
			confirmedT[idx] = k
		}

		remaining := subtractSet(unknownIdx, subsetIdx)
		for _, idx := range remaining {
			if name, ok := decryptName(key, d.commitments[idx].Ciphertext); ok {
				revealed[idx] = name
				confirmedT[idx] = k
			}
		}
		break
	}
	d.metrics.CombinationsTried(k, tried)
	d.log.Debugw("search path finished", "level", k, "combinations_tried", tried, "capped", tried > d.maxCombs)
}

// recoverKey recovers a_{k-1} from the points at level k-1 of the given
// commitment indices, consulting the coefficient cache first.
func (d *Decrypter) recoverKey(k int, idxs []int) (string, bool) {
	cacheKey := d.cacheKey(k, idxs)
	if cached, ok := d.coeffCache.Get(cacheKey); ok {
		coeffs := cached.([]field.Elem)
		return coeffs[k-1].String(), true
	}
	return d.recoverKeyUncached(k, idxs)
}

func (d *Decrypter) recoverKeyUncached(k int, idxs []int) (string, bool) {
	points := make([]field.Point, len(idxs))
	for i, idx := range idxs {
		points[i] = d.commitments[idx].Points[k-1]
	}
	coeffs, err := field.RecoverCoefficients(points)
	if err != nil || len(coeffs) < k {
		return "", false
	}
	d.coeffCache.Add(d.cacheKey(k, idxs), coeffs)
	return coeffs[k-1].String(), true
}

// cacheKey is stable across calls that recover the same (level,
// participant-index-set) pair, regardless of slice ordering.
func (d *Decrypter) cacheKey(k int, idxs []int) string {
	sorted := append([]int{}, idxs...)
	sort.Ints(sorted)
	var b strings.Builder
	b.WriteString(itoa(k))
	for _, i := range sorted {
		b.WriteByte(',')
		b.WriteString(itoa(i))
	}
	return b.String()
}

func subtractSet(all, remove []int) []int {
	drop := make(map[int]struct{}, len(remove))
	for _, idx := range remove {
		drop[idx] = struct{}{}
	}
	var out []int
	for _, idx := range all {
		if _, ok := drop[idx]; !ok {
			out = append(out, idx)
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// combinationIter enumerates k-sized index-vector combinations of
// [0, n) in lexicographic order via explicit next-combination stepping,
// rather than a recursive generator.
type combinationIter struct {
	n, k    int
	indices []int
	started bool
	done    bool
}

func newCombinationIter(n, k int) *combinationIter {
	if k > n || k < 0 {
		return &combinationIter{done: true}
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return &combinationIter{n: n, k: k, indices: idx}
}

func (c *combinationIter) next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		return c.k <= c.n
	}
	// Find the rightmost index that can be incremented.
	i := c.k - 1
	for i >= 0 && c.indices[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		c.done = true
		return false
	}
	c.indices[i]++
	for j := i + 1; j < c.k; j++ {
		c.indices[j] = c.indices[j-1] + 1
	}
	return true
}
