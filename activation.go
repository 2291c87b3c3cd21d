package tensorcheck

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// Activation is a named elementwise module over float tensors.
type Activation struct {
	name string
	f64  func(float64) float64
	f32  func(float32) float32
}

// String returns the activation name.
func (a Activation) String() string {
	return a.name
}

// Parameters returns nil; activations are parameter-free.
func (a Activation) Parameters() []*tensor.Dense {
	return nil
}

// Forward applies the activation elementwise. Only float32 and float64
// tensors are supported.
func (a Activation) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	switch x.Dtype() {
	case tensor.Float64:
		in := x.Data().([]float64)
		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = a.f64(v)
		}
		return tensor.New(tensor.WithShape(x.Shape()...), tensor.WithBacking(out)), nil
	case tensor.Float32:
		in := x.Data().([]float32)
		out := make([]float32, len(in))
		for i, v := range in {
			out[i] = a.f32(v)
		}
		return tensor.New(tensor.WithShape(x.Shape()...), tensor.WithBacking(out)), nil
	default:
		return nil, errors.NewConfigf(errors.ErrModuleDType, "input", "activation %s cannot apply to %v", a.name, x.Dtype())
	}
}

const leakySlope = 0.01

func sigmoid64(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
func sigmoid32(v float32) float32 { return 1 / (1 + math32.Exp(-v)) }

func softplus64(v float64) float64 {
	// Above the knee exp(v) overflows and softplus(v) == v to double precision.
	if v > 30 {
		return v
	}
	return math.Log1p(math.Exp(v))
}

func softplus32(v float32) float32 {
	if v > 30 {
		return v
	}
	return math32.Log1p(math32.Exp(v))
}

var activationTable = []Activation{
	{
		name: "relu",
		f64:  func(v float64) float64 { return math.Max(v, 0) },
		f32:  func(v float32) float32 { return math32.Max(v, 0) },
	},
	{
		name: "leaky_relu",
		f64: func(v float64) float64 {
			if v < 0 {
				return leakySlope * v
			}
			return v
		},
		f32: func(v float32) float32 {
			if v < 0 {
				return leakySlope * v
			}
			return v
		},
	},
	{
		name: "sigmoid",
		f64:  sigmoid64,
		f32:  sigmoid32,
	},
	{
		name: "tanh",
		f64:  math.Tanh,
		f32:  math32.Tanh,
	},
	{
		name: "gelu",
		f64: func(v float64) float64 {
			return 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
		},
		f32: func(v float32) float32 {
			return 0.5 * v * (1 + math32.Erf(v/math32.Sqrt2))
		},
	},
	{
		name: "silu",
		f64:  func(v float64) float64 { return v * sigmoid64(v) },
		f32:  func(v float32) float32 { return v * sigmoid32(v) },
	},
	{
		name: "elu",
		f64: func(v float64) float64 {
			if v < 0 {
				return math.Exp(v) - 1
			}
			return v
		},
		f32: func(v float32) float32 {
			if v < 0 {
				return math32.Exp(v) - 1
			}
			return v
		},
	},
	{
		name: "softplus",
		f64:  softplus64,
		f32:  softplus32,
	},
	{
		name: "identity",
		f64:  func(v float64) float64 { return v },
		f32:  func(v float32) float32 { return v },
	},
}

// ActivationNames returns the names of all known activations.
func ActivationNames() []string {
	out := make([]string, len(activationTable))
	for i, a := range activationTable {
		out[i] = a.name
	}
	return out
}

// ActivationByName looks up an activation.
func ActivationByName(name string) (Activation, bool) {
	for _, a := range activationTable {
		if a.name == name {
			return a, true
		}
	}
	return Activation{}, false
}

// Activations returns a generator sampling from the activation table.
func Activations() gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		return gopter.NewGenResult(draw.Pick(p, activationTable), gopter.NoShrinker)
	}
}
