package regressor

import (
	"github.com/pkg/errors"
)

// MeanParams is the starting estimate of the regressor: the dataset mean joint
// rotations in 6D form and the mean shape
type MeanParams struct {
	// Rot6D holds NumJoints*6 values
	Rot6D []float64
	// Shape holds NShape values
	Shape []float64
}

// identityRot6D is the 6D encoding of the identity rotation
var identityRot6D = [NRot6D]float64{1, 0, 0, 1, 0, 0}

// DefaultMeanParams returns identity rotations for every joint and a zero
// shape
func DefaultMeanParams() MeanParams {

	m := MeanParams{
		Rot6D: make([]float64, NumJoints*NRot6D),
		Shape: make([]float64, NShape),
	}

	for j := 0; j < NumJoints; j++ {
		copy(m.Rot6D[j*NRot6D:], identityRot6D[:])
	}

	return m
}

// LoadMeanParams reads the mean parameters from an archive with a "pose" array
// of at least NumJoints*6 values and a "shape" array of NShape values.  Pose
// entries past the body joints are ignored.
func LoadMeanParams(path string) (MeanParams, error) {

	a, err := OpenArchive(path)

	if err != nil {
		return MeanParams{}, err
	}

	defer a.Close()

	pose, err := a.Read("pose")

	if err != nil {
		return MeanParams{}, err
	}

	shape, err := a.Read("shape")

	if err != nil {
		return MeanParams{}, err
	}

	m := MeanParams{
		Rot6D: pose.Data,
		Shape: shape.Data,
	}

	if len(m.Rot6D) > NumJoints*NRot6D {
		m.Rot6D = m.Rot6D[:NumJoints*NRot6D]
	}

	if err := m.Validate(); err != nil {
		return MeanParams{}, errors.Wrapf(err, "mean params %s", path)
	}

	return m, nil
}

// Validate checks the parameter sizes
func (m MeanParams) Validate() error {

	if len(m.Rot6D) != NumJoints*NRot6D {
		return errors.Wrapf(ErrDimension, "mean pose has %d values, want %d",
			len(m.Rot6D), NumJoints*NRot6D)
	}

	if len(m.Shape) != NShape {
		return errors.Wrapf(ErrDimension, "mean shape has %d values, want %d",
			len(m.Shape), NShape)
	}

	return nil
}

// InitialPose returns the pose vector for the given unscaled root position
func (m MeanParams) InitialPose(position [NTrans]float64) []float64 {

	pose := make([]float64, NPose)

	for i, p := range position {
		pose[i] = p * TransScale
	}

	copy(pose[NTrans:], m.Rot6D)

	return pose
}
