package hdf5

import (
	"fmt"

	h5 "gonum.org/v1/hdf5"

	"github.com/kilianp07/pvcast/core/feature"
)

// WriteFile creates (or truncates) path and stores every array of set as a
// float64 dataset of the same name and shape.
func WriteFile(path string, set feature.MemorySet) (err error) {
	f, err := h5.CreateFile(path, h5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for _, name := range set.Names() {
		a := set[name]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		dims := make([]uint, len(a.Shape))
		for i, d := range a.Shape {
			dims[i] = uint(d)
		}
		if err := writeDataset(f, name, dims, a.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeDataset(f *h5.File, name string, dims []uint, data []float64) error {
	space, err := h5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("dataspace %s: %w", name, err)
	}
	defer func() { _ = space.Close() }()
	ds, err := f.CreateDataset(name, h5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", name, err)
	}
	defer func() { _ = ds.Close() }()
	if len(data) == 0 {
		return nil
	}
	if err := ds.Write(&data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
