package depth

import (
	"math"
	"sort"
)

// Candidates holds the root depth hypotheses contributed by a single joint.
// A joint contributes none (degenerate geometry), one (unambiguous) or two
// (ambiguous near/far) values.
type Candidates struct {
	n int
	z [2]float64
}

// None returns an empty candidate set
func None() Candidates {
	return Candidates{}
}

// One returns a candidate set with a single depth
func One(z float64) Candidates {
	return Candidates{n: 1, z: [2]float64{z, 0}}
}

// Two returns a candidate set with both roots of an ambiguous joint
func Two(z, z2 float64) Candidates {
	return Candidates{n: 2, z: [2]float64{z, z2}}
}

// Len is the number of depth values held
func (c Candidates) Len() int {
	return c.n
}

// Ambiguous reports whether the joint produced two depths
func (c Candidates) Ambiguous() bool {
	return c.n == 2
}

// At returns the i'th depth value
func (c Candidates) At(i int) float64 {
	if i < 0 || i >= c.n {
		panic("depth: candidate index out of range")
	}
	return c.z[i]
}

// Values returns the depth values held
func (c Candidates) Values() []float64 {
	return append([]float64(nil), c.z[:c.n]...)
}

// Flatten concatenates the finite values of all candidate sets and returns
// them sorted ascending
func Flatten(cands []Candidates) []float64 {

	out := make([]float64, 0, 2*len(cands))

	for _, c := range cands {
		for i := 0; i < c.n; i++ {
			if isFinite(c.z[i]) {
				out = append(out, c.z[i])
			}
		}
	}

	sort.Float64s(out)

	return out
}

// Padded returns the sorted candidate pool at a fixed width of 2*len(cands),
// with unused slots filled with +Inf.  This is the fixed size layout used by
// the batched candidate matrix.
func Padded(cands []Candidates) []float64 {

	flat := Flatten(cands)
	out := make([]float64, 2*len(cands))
	n := copy(out, flat)

	for i := n; i < len(out); i++ {
		out[i] = math.Inf(1)
	}

	return out
}

// isFinite returns true if v is neither NaN nor +/-Inf
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
