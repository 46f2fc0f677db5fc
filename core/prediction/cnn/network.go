// Package cnn implements the convolutional PV forecaster: stacked
// convolution, max-pool and ReLU blocks over satellite imagery, flattened and
// joined with PV history, followed by a dense sigmoid layer with one output
// per forecast step.
package cnn

import (
	"context"
	"fmt"

	"github.com/kilianp07/pvcast/core/feature"
	"github.com/kilianp07/pvcast/core/logger"
	"github.com/kilianp07/pvcast/core/model"
	"github.com/kilianp07/pvcast/core/prediction"
)

// Config selects the parameter file and input variables.
type Config struct {
	Weights     string `json:"weights"`
	PVVariable  string `json:"pv_variable"`
	HRVVariable string `json:"hrv_variable"`
}

// SetDefaults applies the parameter file and variable names shipped with the starter kit.
func (c *Config) SetDefaults() {
	if c.Weights == "" {
		c.Weights = "model.h5"
	}
	if c.PVVariable == "" {
		c.PVVariable = "pv"
	}
	if c.HRVVariable == "" {
		c.HRVVariable = "hrv"
	}
}

// Opener opens a parameter container and returns it with its close function.
type Opener func(path string) (feature.Set, func() error, error)

// Network is a prediction.Model.
type Network struct {
	cfg    Config
	open   Opener
	convs  []*conv2d
	linear *dense
	log    logger.Logger
}

// New returns an unloaded network. Parameters are read during Setup.
func New(cfg Config, open Opener) *Network {
	cfg.SetDefaults()
	return &Network{cfg: cfg, open: open}
}

// Name implements prediction.Named.
func (n *Network) Name() string { return "cnn" }

// Variables implements prediction.Model.
func (n *Network) Variables() []string {
	return []string{n.cfg.PVVariable, n.cfg.HRVVariable}
}

// Setup implements prediction.Model.
func (n *Network) Setup(ctx context.Context, opts prediction.SetupOptions) error {
	n.log = opts.Logger
	if _, err := prediction.ResolveDevice(opts.Device); err != nil {
		return err
	}
	if n.open == nil {
		return fmt.Errorf("%w: no parameter opener", prediction.ErrSetup)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	params, closeFn, err := n.open(n.cfg.Weights)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", prediction.ErrSetup, n.cfg.Weights, err)
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && n.log != nil {
			n.log.Warnf("close %s: %v", n.cfg.Weights, cerr)
		}
	}()
	if err := n.Load(params); err != nil {
		return fmt.Errorf("%w: %s: %w", prediction.ErrSetup, n.cfg.Weights, err)
	}
	if n.log != nil {
		n.log.Infof("cnn loaded from %s: %d conv blocks, %d dense inputs, device %s",
			n.cfg.Weights, len(n.convs), n.linear.in, opts.Device)
	}
	return nil
}

// Load reads layer parameters named conv{k}.weight / conv{k}.bias for
// k = 1, 2, … until one is missing, then linear1.weight / linear1.bias.
func (n *Network) Load(params feature.Set) error {
	var convs []*conv2d
	for k := 1; params.Has(fmt.Sprintf("conv%d.weight", k)); k++ {
		w, err := feature.ReadAll(params, fmt.Sprintf("conv%d.weight", k))
		if err != nil {
			return err
		}
		b, err := feature.ReadAll(params, fmt.Sprintf("conv%d.bias", k))
		if err != nil {
			return err
		}
		c, err := newConv2d(w, b)
		if err != nil {
			return fmt.Errorf("conv%d: %w", k, err)
		}
		if len(convs) > 0 && convs[len(convs)-1].out != c.in {
			return fmt.Errorf("conv%d expects %d channels, conv%d yields %d", k, c.in, k-1, convs[len(convs)-1].out)
		}
		convs = append(convs, c)
	}
	w, err := feature.ReadAll(params, "linear1.weight")
	if err != nil {
		return err
	}
	b, err := feature.ReadAll(params, "linear1.bias")
	if err != nil {
		return err
	}
	lin, err := newDense(w, b)
	if err != nil {
		return fmt.Errorf("linear1: %w", err)
	}
	if lin.out != model.Horizon {
		return fmt.Errorf("linear1 yields %d outputs, want %d", lin.out, model.Horizon)
	}
	n.convs = convs
	n.linear = lin
	return nil
}

// PredictBatch implements prediction.Model.
func (n *Network) PredictBatch(ctx context.Context, b model.Batch) ([]model.Prediction, error) {
	if n.linear == nil {
		return nil, fmt.Errorf("%w: network not loaded", prediction.ErrInput)
	}
	pv, ok := b.Get(n.cfg.PVVariable)
	if !ok {
		return nil, fmt.Errorf("%w: batch has no %s", prediction.ErrInput, n.cfg.PVVariable)
	}
	hrv, ok := b.Get(n.cfg.HRVVariable)
	if !ok {
		return nil, fmt.Errorf("%w: batch has no %s", prediction.ErrInput, n.cfg.HRVVariable)
	}
	if len(hrv.Shape) != 4 {
		return nil, fmt.Errorf("%w: %s must be (samples, channels, height, width), got %v",
			prediction.ErrInput, n.cfg.HRVVariable, hrv.Shape)
	}
	out := make([]model.Prediction, hrv.Len())
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := n.forward(hrv, pv, i)
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %w", prediction.ErrInput, b.Offset+i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (n *Network) forward(hrv, pv model.Array, i int) (model.Prediction, error) {
	x := volume{c: hrv.Shape[1], h: hrv.Shape[2], w: hrv.Shape[3], data: hrv.Row(i)}
	for _, c := range n.convs {
		y, err := c.forward(x)
		if err != nil {
			return nil, err
		}
		y = maxPool2(y)
		relu(y.data)
		x = y
	}
	hist := pv.Row(i)
	features := make([]float64, 0, len(x.data)+len(hist))
	features = append(features, x.data...)
	features = append(features, hist...)
	z, err := n.linear.forward(features)
	if err != nil {
		return nil, err
	}
	p := make(model.Prediction, len(z))
	for j, v := range z {
		p[j] = sigmoid(v)
	}
	return p, nil
}
