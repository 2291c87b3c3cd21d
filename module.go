package tensorcheck

import (
	"fmt"
	"strings"

	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
	"github.com/tensorcheck/tensorcheck/internal/fill"
)

// Module is a neural-network building block: a forward pass over dense
// tensors plus its learnable parameters.
type Module interface {
	fmt.Stringer
	Forward(x *tensor.Dense) (*tensor.Dense, error)
	Parameters() []*tensor.Dense
}

// Linear is a fully connected layer: y = xWᵀ + b. The weight has shape
// (out, in) and the optional bias has shape (out).
type Linear struct {
	In     int
	Out    int
	Weight *tensor.Dense
	Bias   *tensor.Dense

	dtype  tensor.Dtype
	device Device
}

// LinearConfig fixes a linear layer's construction.
type LinearConfig struct {
	In     int
	Out    int
	DType  tensor.Dtype
	Device Device
	Bias   bool
	// WeightRange bounds the initial weights; zero means [-1, 1].
	WeightRange float64
}

// NewLinear builds a linear layer with weights drawn from the generator
// parameters' random source.
func NewLinear(p *gopter.GenParameters, cfg LinearConfig) (*Linear, error) {
	if cfg.In < 1 || cfg.Out < 1 {
		return nil, errors.NewConfigf(errors.ErrModuleDims, "dims", "linear dims (%d, %d) must be positive", cfg.In, cfg.Out)
	}
	dt := cfg.DType
	if dt == (tensor.Dtype{}) {
		dt = tensor.Float64
	}
	if dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, errors.NewConfigf(errors.ErrModuleDType, "dtype", "linear layers require a float dtype, got %v", dt)
	}
	bound := cfg.WeightRange
	if bound == 0 {
		bound = 1
	}
	l := &Linear{In: cfg.In, Out: cfg.Out, dtype: dt, device: cfg.Device}
	if cfg.Device.IsMeta() {
		l.Weight = metaTensor(dt, tensor.Shape{cfg.Out, cfg.In})
		if cfg.Bias {
			l.Bias = metaTensor(dt, tensor.Shape{cfg.Out})
		}
		return l, nil
	}
	cons := fill.Constraints{Elements: draw.FloatConstraints{Min: -bound, Max: bound}}
	wb, err := fill.Backing(p, dt, cfg.Out*cfg.In, cons)
	if err != nil {
		return nil, err
	}
	l.Weight = tensor.New(tensor.WithShape(cfg.Out, cfg.In), tensor.WithBacking(wb))
	if cfg.Bias {
		bb, err := fill.Backing(p, dt, cfg.Out, cons)
		if err != nil {
			return nil, err
		}
		l.Bias = tensor.New(tensor.WithShape(cfg.Out), tensor.WithBacking(bb))
	}
	return l, nil
}

// String renders the layer in the usual Linear(in, out) notation.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d, bias=%t)", l.In, l.Out, l.Bias != nil)
}

// Device returns the device the layer was instantiated on.
func (l *Linear) Device() Device {
	return l.device
}

// DType returns the layer's parameter dtype.
func (l *Linear) DType() tensor.Dtype {
	return l.dtype
}

// Parameters returns the weight and, when present, the bias.
func (l *Linear) Parameters() []*tensor.Dense {
	if l.Bias == nil {
		return []*tensor.Dense{l.Weight}
	}
	return []*tensor.Dense{l.Weight, l.Bias}
}

// Forward applies the layer to a vector of shape (in) or a batch of shape
// (batch, in).
func (l *Linear) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	if l.device.IsMeta() {
		return nil, errors.NewConfig(errors.ErrModuleMetaForward, "forward pass on a meta-device module", "device")
	}
	if x.Dtype() != l.dtype {
		return nil, errors.NewConfigf(errors.ErrModuleInput, "input", "input dtype %v, layer dtype %v", x.Dtype(), l.dtype)
	}
	batch, err := l.batchOf(x)
	if err != nil {
		return nil, err
	}
	switch l.dtype {
	case tensor.Float64:
		out := matmulBias(x.Data().([]float64), l.Weight.Data().([]float64), biasData64(l.Bias), batch, l.In, l.Out)
		return l.shaped(x, out, batch), nil
	case tensor.Float32:
		out := matmulBias(x.Data().([]float32), l.Weight.Data().([]float32), biasData32(l.Bias), batch, l.In, l.Out)
		return l.shaped(x, out, batch), nil
	default:
		return nil, errors.NewConfigf(errors.ErrModuleDType, "dtype", "linear layers require a float dtype, got %v", l.dtype)
	}
}

func (l *Linear) batchOf(x *tensor.Dense) (int, error) {
	shape := x.Shape()
	switch shape.Dims() {
	case 1:
		if shape[0] != l.In {
			return 0, errors.NewConfigf(errors.ErrModuleInput, "input", "input size %d, layer expects %d", shape[0], l.In)
		}
		return 1, nil
	case 2:
		if shape[1] != l.In {
			return 0, errors.NewConfigf(errors.ErrModuleInput, "input", "input size %d, layer expects %d", shape[1], l.In)
		}
		return shape[0], nil
	default:
		return 0, errors.NewConfigf(errors.ErrModuleInput, "input", "linear input must be rank 1 or 2, got rank %d", shape.Dims())
	}
}

func (l *Linear) shaped(x *tensor.Dense, backing interface{}, batch int) *tensor.Dense {
	if x.Shape().Dims() == 1 {
		return tensor.New(tensor.WithShape(l.Out), tensor.WithBacking(backing))
	}
	return tensor.New(tensor.WithShape(batch, l.Out), tensor.WithBacking(backing))
}

func biasData64(b *tensor.Dense) []float64 {
	if b == nil {
		return nil
	}
	return b.Data().([]float64)
}

func biasData32(b *tensor.Dense) []float32 {
	if b == nil {
		return nil
	}
	return b.Data().([]float32)
}

// matmulBias computes y = xWᵀ + b for row-major x (batch, in) and W (out, in).
func matmulBias[T float32 | float64](x, w, b []T, batch, in, out int) []T {
	y := make([]T, batch*out)
	for r := 0; r < batch; r++ {
		for o := 0; o < out; o++ {
			var acc T
			row := w[o*in : (o+1)*in]
			xrow := x[r*in : (r+1)*in]
			for i, xv := range xrow {
				acc += row[i] * xv
			}
			if b != nil {
				acc += b[o]
			}
			y[r*out+o] = acc
		}
	}
	return y
}

// Sequential composes modules in order.
type Sequential struct {
	Layers []Module
}

// String renders the composition.
func (s *Sequential) String() string {
	parts := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		parts[i] = l.String()
	}
	return "Sequential(" + strings.Join(parts, " -> ") + ")"
}

// Parameters returns the concatenated parameters of all layers.
func (s *Sequential) Parameters() []*tensor.Dense {
	var out []*tensor.Dense
	for _, l := range s.Layers {
		out = append(out, l.Parameters()...)
	}
	return out
}

// Forward threads the input through each layer in order.
func (s *Sequential) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	cur := x
	for i, l := range s.Layers {
		next, err := l.Forward(cur)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l, err)
		}
		cur = next
	}
	return cur, nil
}
