// Package evaluation drives a prediction model over a feature set.
//
// Live runs stream every batch of predictions to the platform sink as soon as
// it is produced. Validation runs accumulate all predictions in memory and
// report the mean absolute error against a target series.
package evaluation
