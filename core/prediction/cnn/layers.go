package cnn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/pvcast/core/model"
)

// volume is a channels × height × width activation map in row-major order.
type volume struct {
	c, h, w int
	data    []float64
}

// conv2d is a valid (unpadded), stride-1 convolution.
type conv2d struct {
	in, out, kh, kw int
	// weight is out × (in*kh*kw)
	weight *mat.Dense
	bias   []float64
}

func newConv2d(w, b model.Array) (*conv2d, error) {
	if len(w.Shape) != 4 {
		return nil, fmt.Errorf("conv weight must be 4-D, got shape %v", w.Shape)
	}
	out, in, kh, kw := w.Shape[0], w.Shape[1], w.Shape[2], w.Shape[3]
	if len(b.Data) != out {
		return nil, fmt.Errorf("conv bias has %d values, want %d", len(b.Data), out)
	}
	data := make([]float64, len(w.Data))
	copy(data, w.Data)
	bias := make([]float64, out)
	copy(bias, b.Data)
	return &conv2d{
		in: in, out: out, kh: kh, kw: kw,
		weight: mat.NewDense(out, in*kh*kw, data),
		bias:   bias,
	}, nil
}

// im2col unrolls every receptive field of x into a column.
func (c *conv2d) im2col(x volume) (*mat.Dense, int, int) {
	oh, ow := x.h-c.kh+1, x.w-c.kw+1
	rows := c.in * c.kh * c.kw
	cols := mat.NewDense(rows, oh*ow, nil)
	raw := cols.RawMatrix()
	for ch := 0; ch < c.in; ch++ {
		for ki := 0; ki < c.kh; ki++ {
			for kj := 0; kj < c.kw; kj++ {
				r := (ch*c.kh+ki)*c.kw + kj
				dst := raw.Data[r*raw.Stride : r*raw.Stride+oh*ow]
				for i := 0; i < oh; i++ {
					src := x.data[ch*x.h*x.w+(i+ki)*x.w+kj:]
					copy(dst[i*ow:(i+1)*ow], src[:ow])
				}
			}
		}
	}
	return cols, oh, ow
}

func (c *conv2d) forward(x volume) (volume, error) {
	if x.c != c.in {
		return volume{}, fmt.Errorf("conv expects %d channels, got %d", c.in, x.c)
	}
	if x.h < c.kh || x.w < c.kw {
		return volume{}, fmt.Errorf("input %dx%d smaller than kernel %dx%d", x.h, x.w, c.kh, c.kw)
	}
	cols, oh, ow := c.im2col(x)
	out := mat.NewDense(c.out, oh*ow, nil)
	out.Mul(c.weight, cols)
	raw := out.RawMatrix()
	data := make([]float64, c.out*oh*ow)
	for o := 0; o < c.out; o++ {
		row := raw.Data[o*raw.Stride : o*raw.Stride+oh*ow]
		dst := data[o*oh*ow : (o+1)*oh*ow]
		for i, v := range row {
			dst[i] = v + c.bias[o]
		}
	}
	return volume{c: c.out, h: oh, w: ow, data: data}, nil
}

// maxPool2 downsamples by 2 in both spatial dimensions, dropping a trailing
// odd row or column.
func maxPool2(x volume) volume {
	oh, ow := x.h/2, x.w/2
	out := volume{c: x.c, h: oh, w: ow, data: make([]float64, x.c*oh*ow)}
	for ch := 0; ch < x.c; ch++ {
		base := x.data[ch*x.h*x.w:]
		for i := 0; i < oh; i++ {
			for j := 0; j < ow; j++ {
				r0 := 2 * i * x.w
				r1 := r0 + x.w
				m := math.Max(math.Max(base[r0+2*j], base[r0+2*j+1]), math.Max(base[r1+2*j], base[r1+2*j+1]))
				out.data[(ch*oh+i)*ow+j] = m
			}
		}
	}
	return out
}

func relu(xs []float64) {
	for i, v := range xs {
		if v < 0 {
			xs[i] = 0
		}
	}
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

// dense is a fully connected layer.
type dense struct {
	in, out int
	weight  *mat.Dense
	bias    *mat.VecDense
}

func newDense(w, b model.Array) (*dense, error) {
	if len(w.Shape) != 2 {
		return nil, fmt.Errorf("linear weight must be 2-D, got shape %v", w.Shape)
	}
	out, in := w.Shape[0], w.Shape[1]
	if len(b.Data) != out {
		return nil, fmt.Errorf("linear bias has %d values, want %d", len(b.Data), out)
	}
	data := make([]float64, len(w.Data))
	copy(data, w.Data)
	bias := make([]float64, out)
	copy(bias, b.Data)
	return &dense{in: in, out: out, weight: mat.NewDense(out, in, data), bias: mat.NewVecDense(out, bias)}, nil
}

func (d *dense) forward(x []float64) ([]float64, error) {
	if len(x) != d.in {
		return nil, fmt.Errorf("linear expects %d inputs, got %d", d.in, len(x))
	}
	var y mat.VecDense
	y.MulVec(d.weight, mat.NewVecDense(d.in, x))
	y.AddVec(&y, d.bias)
	out := make([]float64, d.out)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out, nil
}
