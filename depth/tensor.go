package depth

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gorgonia.org/tensor"
)

// DepthAwareTensor is DepthAware over dense tensors: joints (B, J, 3),
// keypoints (B, J, 2) and principal points (B, 2).  Float32 and float64
// tensors are accepted, the outputs are float64 tensors of shape (B).  As with
// DepthAware the outputs are returned even when elements fail.
func (s *Solver) DepthAwareTensor(j3d, j2d *tensor.Dense, focal float64,
	centers *tensor.Dense) (mean, std *tensor.Dense, err error) {

	joints, err := tensorVecs3(j3d)

	if err != nil {
		return nil, nil, errors.Wrap(err, "joints tensor")
	}

	kps, err := tensorVecs2(j2d)

	if err != nil {
		return nil, nil, errors.Wrap(err, "keypoints tensor")
	}

	cShape := centers.Shape()

	if len(cShape) != 2 || cShape[1] != 2 {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "centers tensor shape %v", cShape)
	}

	cData, err := tensorFloats(centers)

	if err != nil {
		return nil, nil, errors.Wrap(err, "centers tensor")
	}

	cs := make([]r2.Vec, cShape[0])

	for i := range cs {
		cs[i] = r2.Vec{X: cData[2*i], Y: cData[2*i+1]}
	}

	res, err := s.DepthAware(joints, kps, focal, cs)

	if res.Mean == nil {
		return nil, nil, err
	}

	mean = tensor.New(tensor.WithShape(len(res.Mean)), tensor.WithBacking(res.Mean))
	std = tensor.New(tensor.WithShape(len(res.Std)), tensor.WithBacking(res.Std))

	return mean, std, err
}

// tensorFloats returns the tensor backing data as float64
func tensorFloats(t *tensor.Dense) ([]float64, error) {

	switch data := t.Data().(type) {
	case []float64:
		return data, nil
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported tensor type %v", t.Dtype())
	}
}

// tensorVecs3 splits a (B, J, 3) tensor into per element joints
func tensorVecs3(t *tensor.Dense) ([][]r3.Vec, error) {

	shape := t.Shape()

	if len(shape) != 3 || shape[2] != 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v, want (B, J, 3)", shape)
	}

	data, err := tensorFloats(t)

	if err != nil {
		return nil, err
	}

	b, j := shape[0], shape[1]
	out := make([][]r3.Vec, b)

	for i := 0; i < b; i++ {
		out[i] = make([]r3.Vec, j)

		for k := 0; k < j; k++ {
			off := (i*j + k) * 3
			out[i][k] = r3.Vec{X: data[off], Y: data[off+1], Z: data[off+2]}
		}
	}

	return out, nil
}

// tensorVecs2 splits a (B, J, 2) tensor into per element keypoints
func tensorVecs2(t *tensor.Dense) ([][]r2.Vec, error) {

	shape := t.Shape()

	if len(shape) != 3 || shape[2] != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v, want (B, J, 2)", shape)
	}

	data, err := tensorFloats(t)

	if err != nil {
		return nil, err
	}

	b, j := shape[0], shape[1]
	out := make([][]r2.Vec, b)

	for i := 0; i < b; i++ {
		out[i] = make([]r2.Vec, j)

		for k := 0; k < j; k++ {
			off := (i*j + k) * 2
			out[i][k] = r2.Vec{X: data[off], Y: data[off+1]}
		}
	}

	return out, nil
}
