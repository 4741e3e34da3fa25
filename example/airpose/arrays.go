package main

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-airpose/regressor"
)

// readArray reads name and checks its trailing dimension
func readArray(ar *regressor.Archive, name string, dims, last int) (regressor.Array, error) {

	arr, err := ar.Read(name)

	if err != nil {
		return arr, err
	}

	if len(arr.Shape) != dims || arr.Shape[dims-1] != last {
		return arr, errors.Errorf("array %q has shape %v, expected %d dimensions ending in %d",
			name, arr.Shape, dims, last)
	}

	return arr, nil
}

// vecShape returns the batch and joint count of a (B,J,k) array or its
// flattened (B,J*k) form
func vecShape(name string, shape []int, k int) (int, int, error) {

	switch {
	case len(shape) == 3 && shape[2] == k:
		return shape[0], shape[1], nil

	case len(shape) == 2 && shape[1]%k == 0:
		return shape[0], shape[1] / k, nil
	}

	return 0, 0, errors.Errorf("array %q has shape %v, expected (B,J,%d)", name, shape, k)
}

// readVecs3 reads a (B,J,3) array
func readVecs3(ar *regressor.Archive, name string) ([][]r3.Vec, error) {

	arr, err := ar.Read(name)

	if err != nil {
		return nil, err
	}

	batch, joints, err := vecShape(name, arr.Shape, 3)

	if err != nil {
		return nil, err
	}

	return splitVecs3(arr.Data, batch, joints), nil
}

// readVecs2 reads a (B,J,2) array
func readVecs2(ar *regressor.Archive, name string) ([][]r2.Vec, error) {

	arr, err := ar.Read(name)

	if err != nil {
		return nil, err
	}

	batch, joints, err := vecShape(name, arr.Shape, 2)

	if err != nil {
		return nil, err
	}

	return splitVecs2(arr.Data, batch, joints), nil
}

// readCenters reads the (B,2) principal points, or repeats the fallback when
// the archive has none
func readCenters(ar *regressor.Archive, batch int, fallback r2.Vec) ([]r2.Vec, error) {

	centers := make([]r2.Vec, batch)

	if !ar.Has(keyCenters) {
		for i := range centers {
			centers[i] = fallback
		}
		return centers, nil
	}

	arr, err := readArray(ar, keyCenters, 2, 2)

	if err != nil {
		return nil, err
	}

	if arr.Shape[0] != batch {
		return nil, errors.Errorf("%d centers for batch of %d", arr.Shape[0], batch)
	}

	for i := range centers {
		centers[i] = r2.Vec{X: arr.Data[2*i], Y: arr.Data[2*i+1]}
	}

	return centers, nil
}

func splitVecs3(data []float64, batch, joints int) [][]r3.Vec {

	out := make([][]r3.Vec, batch)

	for b := range out {
		out[b] = make([]r3.Vec, joints)

		for j := range out[b] {
			o := (b*joints + j) * 3
			out[b][j] = r3.Vec{X: data[o], Y: data[o+1], Z: data[o+2]}
		}
	}

	return out
}

func splitVecs2(data []float64, batch, joints int) [][]r2.Vec {

	out := make([][]r2.Vec, batch)

	for b := range out {
		out[b] = make([]r2.Vec, joints)

		for j := range out[b] {
			o := (b*joints + j) * 2
			out[b][j] = r2.Vec{X: data[o], Y: data[o+1]}
		}
	}

	return out
}

// denseVecs3 packs per sample vectors into a (B, J*3) matrix
func denseVecs3(v [][]r3.Vec) *mat.Dense {

	if len(v) == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(len(v), len(v[0])*3, nil)

	for b, row := range v {
		for j, p := range row {
			m.Set(b, j*3, p.X)
			m.Set(b, j*3+1, p.Y)
			m.Set(b, j*3+2, p.Z)
		}
	}

	return m
}

// denseVecs2 packs per sample vectors into a (B, J*2) matrix
func denseVecs2(v [][]r2.Vec) *mat.Dense {

	if len(v) == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(len(v), len(v[0])*2, nil)

	for b, row := range v {
		for j, p := range row {
			m.Set(b, j*2, p.X)
			m.Set(b, j*2+1, p.Y)
		}
	}

	return m
}
