package regressor

const (
	// NumJoints is the number of body joints with a regressed rotation, the
	// first being the global (root) orientation
	NumJoints = 22

	// NRot6D is the size of a continuous 6D rotation representation
	NRot6D = 6

	// NTrans is the size of the root translation at the head of the pose vector
	NTrans = 3

	// NPose is the size of the pose vector, translation followed by one 6D
	// rotation per joint
	NPose = NTrans + NumJoints*NRot6D

	// NShape is the number of body shape coefficients
	NShape = 10

	// NBox is the size of the bounding box descriptor [cx, cy, scale]
	NBox = 3

	// FeatureDim is the size of the pooled backbone feature vector
	FeatureDim = 2048

	// Hidden is the width of the two fully connected layers
	Hidden = 1024

	// InputDim is the size of the concatenated regressor input
	InputDim = FeatureDim + NBox + NPose + NShape

	// TransScale is applied to the root translation while it is part of the
	// pose vector
	TransScale = 0.05

	// DefaultIterations is the number of refinement steps used by default
	DefaultIterations = 3
)

// DefaultPosition is the unscaled root position the regressor starts from when
// no initial position is given
var DefaultPosition = [NTrans]float64{0, 0, 10}
