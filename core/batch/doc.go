// Package batch slices a feature set into fixed-size, sample-aligned windows.
//
// A Batcher validates the requested variables once, up front. Each call to
// Iter starts a fresh pass from the first sample, so the same Batcher can be
// iterated any number of times and always yields identical batches.
package batch
