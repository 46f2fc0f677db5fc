// Package stream writes predictions to the platform sink using the line
// protocol polled by the evaluation supervisor: a readiness line "OK",
// then one delimited line of Horizon values per sample. The sink is flushed
// once per batch.
package stream
