package regressor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is a fully connected layer y = W·x + b
type Linear struct {
	// Weight is stored (out, in), the layout used by exported state dicts
	Weight *mat.Dense
	Bias   []float64
}

// NewLinear returns a zero initialised layer
func NewLinear(in, out int) *Linear {
	return &Linear{
		Weight: mat.NewDense(out, in, nil),
		Bias:   make([]float64, out),
	}
}

// In returns the input width
func (l *Linear) In() int {
	_, c := l.Weight.Dims()
	return c
}

// Out returns the output width
func (l *Linear) Out() int {
	r, _ := l.Weight.Dims()
	return r
}

// Forward applies the layer to a batch of row vectors x (batch, in) and
// returns (batch, out)
func (l *Linear) Forward(x mat.Matrix) (*mat.Dense, error) {

	rows, cols := x.Dims()

	if cols != l.In() {
		return nil, errors.Wrapf(ErrDimension, "linear input width %d, want %d", cols, l.In())
	}

	var y mat.Dense
	y.Mul(x, l.Weight.T())

	for i := 0; i < rows; i++ {
		row := y.RawRowView(i)

		for j, b := range l.Bias {
			row[j] += b
		}
	}

	return &y, nil
}

// XavierUniform fills the weights from U(-a, a) with
// a = gain*sqrt(6/(in+out)) and zeroes the bias
func (l *Linear) XavierUniform(gain float64) {

	bound := gain * math.Sqrt(6/float64(l.In()+l.Out()))
	l.fillUniform(bound, false)
}

// DefaultInit fills weights and bias from U(-1/sqrt(in), 1/sqrt(in)), the
// default initialisation of a freshly constructed layer
func (l *Linear) DefaultInit() {

	bound := 1 / math.Sqrt(float64(l.In()))
	l.fillUniform(bound, true)
}

func (l *Linear) fillUniform(bound float64, bias bool) {

	dist := distuv.Uniform{Min: -bound, Max: bound}
	raw := l.Weight.RawMatrix()

	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]

		for j := range row {
			row[j] = dist.Rand()
		}
	}

	for i := range l.Bias {
		if bias {
			l.Bias[i] = dist.Rand()
		} else {
			l.Bias[i] = 0
		}
	}
}

// validate checks the layer has the expected shape
func (l *Linear) validate(name string, in, out int) error {

	if l == nil || l.Weight == nil {
		return errors.Wrapf(ErrMissingArray, "layer %s", name)
	}

	if l.In() != in || l.Out() != out || len(l.Bias) != out {
		return errors.Wrapf(ErrDimension, "layer %s is (%d, %d) bias %d, want (%d, %d)",
			name, l.Out(), l.In(), len(l.Bias), out, in)
	}

	return nil
}
