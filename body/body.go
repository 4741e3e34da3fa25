// Package body provides the body model used to turn regressed pose and shape
// parameters into joint positions, and the camera transforms applied to them.
package body

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NumJoints is the number of body joints in the kinematic tree
const NumJoints = 22

var (
	// ErrPoseSize is returned when the number of joint rotations does not match
	// the model
	ErrPoseSize = errors.New("pose does not match body model")

	// ErrTemplate is returned for an invalid rest pose template
	ErrTemplate = errors.New("invalid body template")
)

// Model maps shape coefficients and per joint rotations (index 0 being the
// root orientation) to root relative joint positions
type Model interface {
	Forward(betas []float64, pose []*mat.Dense) ([]r3.Vec, error)
}

// Parents is the parent joint index of each body joint, -1 for the root
var Parents = [NumJoints]int{-1, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 12, 13, 14, 16, 17, 18, 19}

// JointNames are the body joint names in model order
var JointNames = [NumJoints]string{
	"pelvis", "left_hip", "right_hip", "spine1", "left_knee", "right_knee",
	"spine2", "left_ankle", "right_ankle", "spine3", "left_foot", "right_foot",
	"neck", "left_collar", "right_collar", "head", "left_shoulder",
	"right_shoulder", "left_elbow", "right_elbow", "left_wrist", "right_wrist",
}

// NeutralTemplate is an approximate rest pose of the neutral body in meters,
// relative to the pelvis
var NeutralTemplate = []r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 0.0696, Y: -0.0910, Z: -0.0049},
	{X: -0.0677, Y: -0.0905, Z: -0.0043},
	{X: -0.0025, Y: 0.1089, Z: -0.0267},
	{X: 0.11, Y: -0.46, Z: 0},
	{X: -0.11, Y: -0.46, Z: 0},
	{X: 0, Y: 0.24, Z: -0.01},
	{X: 0.09, Y: -0.86, Z: -0.04},
	{X: -0.09, Y: -0.86, Z: -0.04},
	{X: 0, Y: 0.29, Z: 0.02},
	{X: 0.12, Y: -0.92, Z: 0.08},
	{X: -0.12, Y: -0.92, Z: 0.08},
	{X: 0, Y: 0.51, Z: -0.01},
	{X: 0.08, Y: 0.42, Z: 0},
	{X: -0.08, Y: 0.42, Z: 0},
	{X: 0.01, Y: 0.58, Z: 0.04},
	{X: 0.17, Y: 0.45, Z: -0.02},
	{X: -0.17, Y: 0.45, Z: -0.02},
	{X: 0.43, Y: 0.44, Z: -0.04},
	{X: -0.43, Y: 0.44, Z: -0.04},
	{X: 0.68, Y: 0.45, Z: -0.04},
	{X: -0.68, Y: 0.45, Z: -0.04},
}
