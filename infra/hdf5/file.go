// Package hdf5 reads feature sets and model parameters from HDF5 containers.
// Every top-level dataset is a variable whose first dimension indexes samples.
// Slices read only the requested hyperslab, so large imagery series are never
// loaded whole.
package hdf5

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	h5 "gonum.org/v1/hdf5"

	"github.com/kilianp07/pvcast/core/feature"
	"github.com/kilianp07/pvcast/core/model"
)

// File is a read-only feature.Set over an HDF5 container.
type File struct {
	path   string
	f      *h5.File
	shapes map[string][]uint
}

// Open opens path read-only. A missing file yields feature.ErrInputNotFound.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", feature.ErrInputNotFound, path)
		}
		return nil, err
	}
	f, err := h5.OpenFile(path, h5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &File{path: path, f: f, shapes: make(map[string][]uint)}, nil
}

// OpenSet opens path and returns it as a feature.Set with its close function.
func OpenSet(path string) (feature.Set, func() error, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// Path returns the container path.
func (f *File) Path() string { return f.path }

// Close releases the file handle.
func (f *File) Close() error { return f.f.Close() }

// Names lists the top-level objects of the container.
func (f *File) Names() ([]string, error) {
	n, err := f.f.NumObjects()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := f.f.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Has implements feature.Set.
func (f *File) Has(name string) bool {
	return f.f.LinkExists(name)
}

// Len implements feature.Set.
func (f *File) Len(name string) (int, error) {
	dims, err := f.shape(name)
	if err != nil {
		return 0, err
	}
	return int(dims[0]), nil
}

// Slice implements feature.Set.
func (f *File) Slice(name string, lo, hi int) (model.Array, error) {
	dims, err := f.shape(name)
	if err != nil {
		return model.Array{}, err
	}
	n := int(dims[0])
	if hi > n {
		hi = n
	}
	if lo < 0 || lo > hi {
		return model.Array{}, fmt.Errorf("slice %s: window [%d,%d) out of range [0,%d]", name, lo, hi, n)
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	shape[0] = hi - lo
	out := model.NewArray(shape...)
	if hi == lo {
		return out, nil
	}

	ds, err := f.f.OpenDataset(name)
	if err != nil {
		return model.Array{}, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer func() { _ = ds.Close() }()

	offset := make([]uint, len(dims))
	count := make([]uint, len(dims))
	ones := make([]uint, len(dims))
	copy(count, dims)
	for i := range ones {
		ones[i] = 1
	}
	offset[0] = uint(lo)
	count[0] = uint(hi - lo)

	filespace := ds.Space()
	defer func() { _ = filespace.Close() }()
	if err := filespace.SelectHyperslab(offset, ones, count, ones); err != nil {
		return model.Array{}, fmt.Errorf("select %s [%d:%d]: %w", name, lo, hi, err)
	}
	memspace, err := h5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return model.Array{}, err
	}
	defer func() { _ = memspace.Close() }()
	if err := ds.ReadSubset(&out.Data, memspace, filespace); err != nil {
		return model.Array{}, fmt.Errorf("read %s [%d:%d]: %w", name, lo, hi, err)
	}
	return out, nil
}

func (f *File) shape(name string) ([]uint, error) {
	if dims, ok := f.shapes[name]; ok {
		return dims, nil
	}
	if !f.Has(name) {
		return nil, fmt.Errorf("%w: %s", feature.ErrUnknownVariable, name)
	}
	ds, err := f.f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer func() { _ = ds.Close() }()
	space := ds.Space()
	defer func() { _ = space.Close() }()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("shape of %s: %w", name, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%s is a scalar, not a series", name)
	}
	f.shapes[name] = dims
	return dims, nil
}
