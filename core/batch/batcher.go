package batch

import (
	"fmt"

	"github.com/kilianp07/pvcast/core/feature"
	"github.com/kilianp07/pvcast/core/model"
)

// DefaultSize is the number of samples per batch used when none is configured.
const DefaultSize = 32

// Batcher produces windows [i, i+size) over the requested variables.
type Batcher struct {
	set       feature.Set
	variables []string
	size      int
	n         int
}

// New validates the request and returns a Batcher. It fails with
// ErrConfiguration for an empty variable list, a non-positive size or series
// of different lengths, and with a *MissingVariableError when a variable is
// absent from the set. No batch is read before validation succeeds.
func New(set feature.Set, variables []string, size int) (*Batcher, error) {
	if len(variables) == 0 {
		return nil, fmt.Errorf("%w: at least one data variable must be specified", ErrConfiguration)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrConfiguration, size)
	}
	for _, v := range variables {
		if !set.Has(v) {
			return nil, &MissingVariableError{Name: v}
		}
	}
	n, err := set.Len(variables[0])
	if err != nil {
		return nil, fmt.Errorf("length of %s: %w", variables[0], err)
	}
	for _, v := range variables[1:] {
		m, err := set.Len(v)
		if err != nil {
			return nil, fmt.Errorf("length of %s: %w", v, err)
		}
		if m != n {
			return nil, fmt.Errorf("%w: %s has %d samples, %s has %d", ErrConfiguration, v, m, variables[0], n)
		}
	}
	vars := make([]string, len(variables))
	copy(vars, variables)
	return &Batcher{set: set, variables: vars, size: size, n: n}, nil
}

// Len returns the number of samples covered by the batcher.
func (b *Batcher) Len() int { return b.n }

// Size returns the configured batch size.
func (b *Batcher) Size() int { return b.size }

// Count returns the number of batches a full pass yields.
func (b *Batcher) Count() int { return (b.n + b.size - 1) / b.size }

// Variables returns the requested variable names in order.
func (b *Batcher) Variables() []string {
	out := make([]string, len(b.variables))
	copy(out, b.variables)
	return out
}

// Iter starts a new pass over the feature set.
func (b *Batcher) Iter() *Iterator {
	return &Iterator{b: b}
}

// Iterator pulls one batch at a time. Typical use:
//
//	it := b.Iter()
//	for it.Next() {
//		use(it.Batch())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	b      *Batcher
	offset int
	cur    model.Batch
	err    error
}

// Next reads the following window. It returns false once the series is
// exhausted or a read fails; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.err != nil || it.offset >= it.b.n {
		return false
	}
	lo, hi := it.offset, it.offset+it.b.size
	arrays := make([]model.Array, len(it.b.variables))
	for i, v := range it.b.variables {
		a, err := it.b.set.Slice(v, lo, hi)
		if err != nil {
			it.err = fmt.Errorf("slice %s [%d:%d]: %w", v, lo, hi, err)
			return false
		}
		arrays[i] = a
	}
	it.cur = model.Batch{Offset: lo, Variables: it.b.variables, Arrays: arrays}
	it.offset = hi
	return true
}

// Batch returns the batch read by the last successful Next.
func (it *Iterator) Batch() model.Batch { return it.cur }

// Err returns the read error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }
