// Package feature describes read-only sources of named, sample-aligned series
// such as PV history, satellite imagery and forecast targets.
package feature
