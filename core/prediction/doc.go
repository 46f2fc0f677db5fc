// Package prediction defines forecasting models that turn one batch of input
// windows into one PV output forecast per sample. Models are set up once,
// before the first batch, and are deterministic afterwards.
package prediction
