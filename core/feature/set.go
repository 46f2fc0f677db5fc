package feature

import (
	"fmt"
	"sort"

	"github.com/kilianp07/pvcast/core/model"
)

// Set is a read-only mapping from variable name to a row-indexable series.
// All series of a set share the same leading dimension.
type Set interface {
	// Has reports whether the named variable exists.
	Has(name string) bool
	// Len returns the number of samples of the named variable.
	Len(name string) (int, error)
	// Slice returns samples [lo, hi) of the named variable. hi is clamped to Len.
	Slice(name string, lo, hi int) (model.Array, error)
}

// ReadAll returns every sample of the named variable.
func ReadAll(s Set, name string) (model.Array, error) {
	n, err := s.Len(name)
	if err != nil {
		return model.Array{}, err
	}
	return s.Slice(name, 0, n)
}

// MemorySet is a Set backed by in-memory arrays.
type MemorySet map[string]model.Array

// Has implements Set.
func (m MemorySet) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Len implements Set.
func (m MemorySet) Len(name string) (int, error) {
	a, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return a.Len(), nil
}

// Slice implements Set. The returned array is a copy so callers cannot mutate
// the set through it.
func (m MemorySet) Slice(name string, lo, hi int) (model.Array, error) {
	a, ok := m[name]
	if !ok {
		return model.Array{}, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if lo < 0 || lo > a.Len() {
		return model.Array{}, fmt.Errorf("slice %s: offset %d out of range [0,%d]", name, lo, a.Len())
	}
	s := a.Slice(lo, hi)
	data := make([]float64, len(s.Data))
	copy(data, s.Data)
	s.Data = data
	return s, nil
}

// Names returns the variable names in sorted order.
func (m MemorySet) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
