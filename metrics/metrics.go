// Package metrics evaluates pose estimates against ground truth.
package metrics

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// NumJoints is the number of joints compared
const NumJoints = 22

// ErrEmpty is returned when there is nothing to evaluate
var ErrEmpty = errors.New("no samples")

// MPJPE is the mean per joint position error between the first NumJoints
// joints of pred and gt
func MPJPE(pred, gt []r3.Vec) (float64, error) {

	if len(pred) < NumJoints || len(gt) < NumJoints {
		return 0, errors.Errorf("need %d joints, got %d and %d", NumJoints, len(pred), len(gt))
	}

	var sum float64

	for j := 0; j < NumJoints; j++ {
		sum += r3.Norm(r3.Sub(pred[j], gt[j]))
	}

	return sum / NumJoints, nil
}

// MPE is the root translation error
func MPE(pred, gt r3.Vec) float64 {
	return r3.Norm(r3.Sub(pred, gt))
}

// Summary describes a distribution of per sample errors
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// Summarize returns the summary statistics of the values
func Summarize(values []float64) (Summary, error) {

	if len(values) == 0 {
		return Summary{}, ErrEmpty
	}

	data := stats.Float64Data(values)

	mean, err := data.Mean()

	if err != nil {
		return Summary{}, errors.Wrap(err, "mean")
	}

	median, err := data.Median()

	if err != nil {
		return Summary{}, errors.Wrap(err, "median")
	}

	p90, err := data.Percentile(90)

	if err != nil {
		return Summary{}, errors.Wrap(err, "percentile")
	}

	max, err := data.Max()

	if err != nil {
		return Summary{}, errors.Wrap(err, "max")
	}

	return Summary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		P90:    p90,
		Max:    max,
	}, nil
}

// Accumulator collects per sample errors over an evaluation run
type Accumulator struct {
	mpjpe []float64
	mpe   []float64
}

// Add records a sample
func (a *Accumulator) Add(predJoints, gtJoints []r3.Vec, predTrans, gtTrans r3.Vec) error {

	e, err := MPJPE(predJoints, gtJoints)

	if err != nil {
		return err
	}

	a.mpjpe = append(a.mpjpe, e)
	a.mpe = append(a.mpe, MPE(predTrans, gtTrans))

	return nil
}

// Len returns the number of samples recorded
func (a *Accumulator) Len() int {
	return len(a.mpjpe)
}

// MPJPE summarises the joint errors
func (a *Accumulator) MPJPE() (Summary, error) {
	return Summarize(a.mpjpe)
}

// MPE summarises the translation errors
func (a *Accumulator) MPE() (Summary, error) {
	return Summarize(a.mpe)
}
