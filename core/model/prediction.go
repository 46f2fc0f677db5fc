package model

// Horizon is the number of future PV output steps forecast per sample.
const Horizon = 48

// Prediction is the forecast PV output for one sample, one value per future step.
type Prediction []float64

// Valid reports whether the prediction has exactly Horizon values.
func (p Prediction) Valid() bool { return len(p) == Horizon }
