// Package infra contains technical adapters such as the HDF5 reader, metrics
// exporters and run history stores. These packages should depend only on the
// interfaces defined in the core packages.
package infra
