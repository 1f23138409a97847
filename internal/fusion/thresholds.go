// Package fusion combines time-aligned position series from multiple
// rovers mounted on a common platform into a single corrected trajectory.
//
// The pipeline runs one epoch at a time in increasing timestamp order:
// a cross-rover consistency check flags unreliable rovers, a gap-repair
// step rewrites the flagged records in place, and an inverse-variance
// weighted fusion emits one output record per epoch. Epoch order is a
// correctness requirement: interior repair reads neighbours that earlier
// repairs may have synthesized.
package fusion

// pairKey is an unordered rover pair. Names are stored in lexical order so
// (A, B) and (B, A) address the same entry.
type pairKey struct {
	lo, hi string
}

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// PairThresholds maps unordered rover pairs to the maximum allowed 3-D
// separation in meters. Every pair of rovers participating in a run must
// have an entry; a lookup miss during validity checking is fatal.
type PairThresholds struct {
	m map[pairKey]float64
}

// NewPairThresholds returns an empty threshold table.
func NewPairThresholds() *PairThresholds {
	return &PairThresholds{m: make(map[pairKey]float64)}
}

// Set records the maximum separation in meters for the pair (a, b). The
// pair is unordered: Set(a, b, d) and Set(b, a, d) are equivalent.
func (p *PairThresholds) Set(a, b string, maxDistance float64) {
	p.m[makePairKey(a, b)] = maxDistance
}

// Get looks up the threshold for the pair (a, b).
func (p *PairThresholds) Get(a, b string) (float64, bool) {
	d, ok := p.m[makePairKey(a, b)]
	return d, ok
}

// Len returns the number of configured pairs.
func (p *PairThresholds) Len() int { return len(p.m) }
