package airpose

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-airpose/regressor"
)

// Sample is a single person observation fed to the Estimator
type Sample struct {
	// Features is the pooled backbone feature vector of the person crop
	Features []float64
	// BBox is the crop descriptor [cx, cy, scale], see preprocess.BBoxVector
	BBox [regressor.NBox]float64
	// Center is the camera principal point in pixels
	Center r2.Vec
	// Keypoints are the observed 2D joints in pixels
	Keypoints []r2.Vec
	// Position is an optional initial root position, nil starts from
	// regressor.DefaultPosition
	Position *[regressor.NTrans]float64
}

// Batch defines a struct used for collecting a fixed number of samples into
// the matrices consumed by the regressor
type Batch struct {
	// size of the batch
	size int
	// features holds one feature vector per row
	features *mat.Dense
	// bbox holds one crop descriptor per row
	bbox      *mat.Dense
	centers   []r2.Vec
	keypoints [][]r2.Vec
	positions [][regressor.NTrans]float64
	// cnt is a counter for how many samples have been added with Add()
	cnt int
}

// NewBatch creates a batch for the given number of samples
func NewBatch(batchSize int) *Batch {

	positions := make([][regressor.NTrans]float64, batchSize)

	for i := range positions {
		positions[i] = regressor.DefaultPosition
	}

	return &Batch{
		size:      batchSize,
		features:  mat.NewDense(batchSize, regressor.FeatureDim, nil),
		bbox:      mat.NewDense(batchSize, regressor.NBox, nil),
		centers:   make([]r2.Vec, batchSize),
		keypoints: make([][]r2.Vec, batchSize),
		positions: positions,
	}
}

// Add a Sample to the batch
func (b *Batch) Add(s Sample) error {

	// check if batch is full
	if b.cnt >= b.size {
		return errors.New("batch full")
	}

	if err := b.addAt(b.cnt, s); err != nil {
		return err
	}

	// increment sample counter
	b.cnt++
	return nil
}

// AddAt adds a Sample to the batch at the specific index location
func (b *Batch) AddAt(idx int, s Sample) error {

	if idx < 0 || idx >= b.size {
		return errors.Errorf("index %d out of range [0-%d)", idx, b.size)
	}

	return b.addAt(idx, s)
}

// addAt adds a Sample to the specified index location
func (b *Batch) addAt(idx int, s Sample) error {

	if len(s.Features) != regressor.FeatureDim {
		return errors.Errorf("sample has %d features, want %d", len(s.Features), regressor.FeatureDim)
	}

	b.features.SetRow(idx, s.Features)
	b.bbox.SetRow(idx, s.BBox[:])
	b.centers[idx] = s.Center
	b.keypoints[idx] = append([]r2.Vec(nil), s.Keypoints...)

	if s.Position != nil {
		b.positions[idx] = *s.Position
	} else {
		b.positions[idx] = regressor.DefaultPosition
	}

	return nil
}

// Size returns the number of samples the batch holds
func (b *Batch) Size() int {
	return b.size
}

// Count returns the number of samples added with Add
func (b *Batch) Count() int {
	return b.cnt
}

// Features returns the (size, FeatureDim) feature matrix
func (b *Batch) Features() mat.Matrix {
	return b.features
}

// BBox returns the (size, 3) crop descriptor matrix
func (b *Batch) BBox() mat.Matrix {
	return b.bbox
}

// Positions returns the initial root position of every sample
func (b *Batch) Positions() [][regressor.NTrans]float64 {
	return b.positions
}

// Center returns the principal point of the sample at idx
func (b *Batch) Center(idx int) (r2.Vec, error) {

	if idx < 0 || idx >= b.size {
		return r2.Vec{}, errors.Errorf("index %d out of range [0-%d)", idx, b.size)
	}

	return b.centers[idx], nil
}

// Keypoints returns the observed keypoints of the sample at idx
func (b *Batch) Keypoints(idx int) ([]r2.Vec, error) {

	if idx < 0 || idx >= b.size {
		return nil, errors.Errorf("index %d out of range [0-%d)", idx, b.size)
	}

	return b.keypoints[idx], nil
}

// Clear the batch so it can be reused again
func (b *Batch) Clear() {
	// just reset the counter, the matrices are overwritten when Add() is
	// called with new samples
	b.cnt = 0
}
