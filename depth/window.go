package depth

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Estimate is the resolved root depth of a single skeleton
type Estimate struct {
	// Mean is the mean depth of the tightest window
	Mean float64
	// Std is the sample standard deviation of the tightest window
	Std float64
	// Range is the spread (max - min) of the tightest window
	Range float64
	// Start is the index of the first value of the window in the sorted
	// candidates
	Start int
}

// invalidEstimate is returned alongside resolver errors
func invalidEstimate() Estimate {
	nan := math.NaN()
	return Estimate{Mean: nan, Std: nan, Range: nan, Start: -1}
}

// Resolve slides a window of fixed size over the sorted candidates and returns
// the statistics of the window with the smallest range.  Non finite values
// terminate the scan, as any window reaching them can not improve on a
// finite one.  sorted must be in ascending order.
func Resolve(sorted []float64, window int) (Estimate, error) {

	if window < 1 {
		return invalidEstimate(), errors.Wrapf(ErrInvalidWindow, "got %d", window)
	}

	// count leading finite values, +Inf padding sorts to the end
	n := 0

	for n < len(sorted) && isFinite(sorted[n]) {
		n++
	}

	if n < window {
		return invalidEstimate(), errors.Wrapf(ErrInsufficientCandidates,
			"%d valid candidates, window %d", n, window)
	}

	best := Estimate{Range: math.Inf(1), Start: -1}

	for i := 0; i+window <= n; i++ {

		cur := sorted[i+window-1] - sorted[i]

		if cur < best.Range {
			best.Range = cur
			best.Start = i
		}
	}

	vals := sorted[best.Start : best.Start+window]

	if window == 1 {
		best.Mean = vals[0]
		best.Std = 0
	} else {
		best.Mean, best.Std = stat.MeanStdDev(vals, nil)
	}

	return best, nil
}
