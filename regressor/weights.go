package regressor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// decoderGain is the Xavier gain used for the pose and shape decoders so the
// first iterations stay close to the initial estimate
const decoderGain = 0.01

// Weights are the parameters of the regression head
type Weights struct {
	FC1      *Linear
	FC2      *Linear
	DecPose  *Linear
	DecShape *Linear
}

// layers maps state dict prefixes to layers
func (w *Weights) layers() []struct {
	name    string
	layer   **Linear
	in, out int
} {
	return []struct {
		name    string
		layer   **Linear
		in, out int
	}{
		{"fc1", &w.FC1, InputDim, Hidden},
		{"fc2", &w.FC2, Hidden, Hidden},
		{"decpose", &w.DecPose, Hidden, NPose},
		{"decshape", &w.DecShape, Hidden, NShape},
	}
}

// NewWeights returns freshly initialised weights, the fully connected layers
// use the default uniform initialisation and the decoders Xavier uniform with
// a small gain
func NewWeights() *Weights {

	w := &Weights{
		FC1:      NewLinear(InputDim, Hidden),
		FC2:      NewLinear(Hidden, Hidden),
		DecPose:  NewLinear(Hidden, NPose),
		DecShape: NewLinear(Hidden, NShape),
	}

	w.FC1.DefaultInit()
	w.FC2.DefaultInit()
	w.DecPose.XavierUniform(decoderGain)
	w.DecShape.XavierUniform(decoderGain)

	return w
}

// Validate checks every layer is present with the expected shape
func (w *Weights) Validate() error {

	for _, l := range w.layers() {
		if err := (*l.layer).validate(l.name, l.in, l.out); err != nil {
			return err
		}
	}

	return nil
}

// LoadWeights reads the regression head from a .npz export of its state dict,
// with arrays named <layer>.weight and <layer>.bias
func LoadWeights(path string) (*Weights, error) {

	a, err := OpenArchive(path)

	if err != nil {
		return nil, err
	}

	defer a.Close()

	w := &Weights{}

	for _, l := range w.layers() {

		lin, err := readLinear(a, l.name)

		if err != nil {
			return nil, err
		}

		*l.layer = lin
	}

	if err := w.Validate(); err != nil {
		return nil, errors.Wrapf(err, "weights %s", path)
	}

	return w, nil
}

// Save writes the weights as a .npz archive readable by LoadWeights
func (w *Weights) Save(path string) error {

	arrays := make(map[string]interface{}, 8)

	for _, l := range w.layers() {
		lin := *l.layer
		arrays[l.name+".weight"] = lin.Weight
		arrays[l.name+".bias"] = lin.Bias
	}

	return WriteArchive(path, arrays)
}

func readLinear(a *Archive, name string) (*Linear, error) {

	wa, err := a.Read(name + ".weight")

	if err != nil {
		return nil, err
	}

	weight, err := wa.Matrix()

	if err != nil {
		return nil, errors.Wrapf(err, "layer %s", name)
	}

	ba, err := a.Read(name + ".bias")

	if err != nil {
		return nil, err
	}

	return &Linear{Weight: mat.DenseCopyOf(weight), Bias: ba.Data}, nil
}
