// Package loss implements the supervision terms used to train the pose
// regressor, including the depth aware term driven by the analytic root depth
// estimate.
package loss

// Weights scale the individual loss terms
type Weights struct {
	Trans      float64 `json:"trans"`
	Keypoint2D float64 `json:"keypoint2d"`
	Keypoint3D float64 `json:"keypoint3d"`
	// Limbs3D multiplies the 3D error of knees and elbows, squared for ankles
	// and wrists
	Limbs3D float64 `json:"limbs3d"`
	// LimbsTheta is the equivalent of Limbs3D for joint rotations
	LimbsTheta float64 `json:"limbs_theta"`
	Shape      float64 `json:"shape"`
	RootRot    float64 `json:"root_rot"`
	Pose       float64 `json:"pose"`
	Beta       float64 `json:"beta"`
	DepthAware float64 `json:"depth_aware"`
	// Scale multiplies the weighted sum
	Scale float64 `json:"scale"`
	// StdFloor is the smallest variance the depth aware term divides by
	StdFloor float64 `json:"std_floor"`
}

// DefaultWeights returns the weights the regressor was trained with
func DefaultWeights() Weights {
	return Weights{
		Trans:      1,
		Keypoint2D: 0.001,
		Keypoint3D: 1,
		Limbs3D:    3,
		LimbsTheta: 3,
		Shape:      1,
		RootRot:    1,
		Pose:       1,
		Beta:       1,
		DepthAware: 10,
		Scale:      60,
		StdFloor:   1e-6,
	}
}

var (
	// limbJoints are knees and elbows
	limbJoints = []int{4, 5, 18, 19}
	// extremityJoints are ankles and wrists
	extremityJoints = []int{7, 8, 20, 21}
)

// jointWeights returns the per joint multipliers for n joints
func jointWeights(n int, w float64, offset int) []float64 {

	out := make([]float64, n)

	for i := range out {
		out[i] = 1
	}

	for _, j := range limbJoints {
		if k := j - offset; k >= 0 && k < n {
			out[k] = w
		}
	}

	for _, j := range extremityJoints {
		if k := j - offset; k >= 0 && k < n {
			out[k] = w * w
		}
	}

	return out
}
