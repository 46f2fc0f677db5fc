package model

import "fmt"

// Array is a dense, row-major block of float64 values. The first dimension of
// Shape indexes samples; the remaining dimensions describe one row.
type Array struct {
	Shape []int
	Data  []float64
}

// NewArray allocates a zero-filled array with the given shape.
func NewArray(shape ...int) Array {
	n := 1
	for _, d := range shape {
		n *= d
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return Array{Shape: s, Data: make([]float64, n)}
}

// Len returns the number of samples (the leading dimension).
func (a Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// RowSize returns the number of values held by a single sample.
func (a Array) RowSize() int {
	n := 1
	for _, d := range a.Shape[1:] {
		n *= d
	}
	return n
}

// Row returns the values of sample i. The slice aliases the array data.
func (a Array) Row(i int) []float64 {
	rs := a.RowSize()
	return a.Data[i*rs : (i+1)*rs]
}

// Slice returns the samples in [lo, hi). hi is clamped to Len so the final
// window of a series may be shorter than requested. The result aliases the
// receiver's data.
func (a Array) Slice(lo, hi int) Array {
	n := a.Len()
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	rs := a.RowSize()
	shape := make([]int, len(a.Shape))
	copy(shape, a.Shape)
	shape[0] = hi - lo
	return Array{Shape: shape, Data: a.Data[lo*rs : hi*rs]}
}

// Validate checks that the shape accounts for every value in Data.
func (a Array) Validate() error {
	if len(a.Shape) == 0 {
		return fmt.Errorf("array has no shape")
	}
	n := 1
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", a.Shape)
		}
		n *= d
	}
	if n != len(a.Data) {
		return fmt.Errorf("shape %v holds %d values, got %d", a.Shape, n, len(a.Data))
	}
	return nil
}
