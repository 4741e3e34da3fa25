package regressor

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// Array is a dense n-dimensional array read from a .npy entry
type Array struct {
	Shape []int
	Data  []float64
}

// Len returns the number of elements described by the shape
func (a Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Matrix returns a 2 dimensional array as a matrix
func (a Array) Matrix() (*mat.Dense, error) {

	if len(a.Shape) != 2 {
		return nil, errors.Wrapf(ErrDimension, "array shape %v is not 2D", a.Shape)
	}

	return mat.NewDense(a.Shape[0], a.Shape[1], a.Data), nil
}

// Archive is an opened .npz file, a zip of .npy arrays
type Archive struct {
	zr *npz.Reader
	// keys maps array names to the archive entry names
	keys map[string]string
}

// OpenArchive opens the .npz file at path
func OpenArchive(path string) (*Archive, error) {

	zr, err := npz.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "error opening archive %s", path)
	}

	a := &Archive{
		zr:   zr,
		keys: make(map[string]string),
	}

	for _, k := range zr.Keys() {
		a.keys[strings.TrimSuffix(k, ".npy")] = k
	}

	return a, nil
}

// Keys returns the array names held, sorted
func (a *Archive) Keys() []string {

	keys := make([]string, 0, len(a.keys))

	for k := range a.keys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Has reports whether the named array exists
func (a *Archive) Has(name string) bool {
	_, ok := a.keys[name]
	return ok
}

// Read decodes the named array.  Float32 and float64 arrays are supported and
// returned as float64.
func (a *Archive) Read(name string) (Array, error) {

	key, ok := a.keys[name]

	if !ok {
		return Array{}, errors.Wrapf(ErrMissingArray, "%q", name)
	}

	hdr := a.zr.Header(key)

	if hdr == nil {
		return Array{}, errors.Wrapf(ErrMissingArray, "no header for %q", name)
	}

	if hdr.Descr.Fortran {
		return Array{}, errors.Errorf("array %q is in fortran order", name)
	}

	arr := Array{Shape: append([]int(nil), hdr.Descr.Shape...)}

	switch hdr.Descr.Type {
	case "<f8", "f8":
		var data []float64
		if err := a.zr.Read(key, &data); err != nil {
			return Array{}, errors.Wrapf(err, "error reading array %q", name)
		}
		arr.Data = data

	case "<f4", "f4":
		var data []float32
		if err := a.zr.Read(key, &data); err != nil {
			return Array{}, errors.Wrapf(err, "error reading array %q", name)
		}
		arr.Data = make([]float64, len(data))
		for i, v := range data {
			arr.Data[i] = float64(v)
		}

	default:
		return Array{}, errors.Errorf("array %q has unsupported dtype %s", name, hdr.Descr.Type)
	}

	if len(arr.Data) != arr.Len() {
		return Array{}, errors.Wrapf(ErrDimension, "array %q has %d values for shape %v",
			name, len(arr.Data), arr.Shape)
	}

	return arr, nil
}

// Close releases the archive
func (a *Archive) Close() error {
	return a.zr.Close()
}

// WriteArchive writes the given arrays to a .npz file at path.  Values may be
// anything npyio can encode, such as []float64 or *mat.Dense.
func WriteArchive(path string, arrays map[string]interface{}) error {

	zw, err := npz.Create(path)

	if err != nil {
		return errors.Wrapf(err, "error creating archive %s", path)
	}

	names := make([]string, 0, len(arrays))

	for k := range arrays {
		names = append(names, k)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := zw.Write(name, arrays[name]); err != nil {
			zw.Close()
			return errors.Wrapf(err, "error encoding array %q", name)
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "error finalising archive")
	}

	return nil
}
