package model

// Batch holds one window of aligned rows for each requested variable.
// Arrays[i] belongs to Variables[i] and every array starts at sample Offset.
type Batch struct {
	Offset    int
	Variables []string
	Arrays    []Array
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	if len(b.Arrays) == 0 {
		return 0
	}
	return b.Arrays[0].Len()
}

// Get returns the array of the named variable.
func (b Batch) Get(name string) (Array, bool) {
	for i, v := range b.Variables {
		if v == name {
			return b.Arrays[i], true
		}
	}
	return Array{}, false
}
