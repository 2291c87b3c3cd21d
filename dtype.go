package tensorcheck

import (
	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// DTypeClass groups dtypes by their element kind.
type DTypeClass uint8

const (
	ClassBool DTypeClass = iota
	ClassInt
	ClassUint
	ClassFloat
	ClassComplex
)

// String returns the class name.
func (c DTypeClass) String() string {
	switch c {
	case ClassBool:
		return "bool"
	case ClassInt:
		return "int"
	case ClassUint:
		return "uint"
	case ClassFloat:
		return "float"
	case ClassComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// BoolDTypes returns the boolean dtypes.
func BoolDTypes() []tensor.Dtype {
	return []tensor.Dtype{tensor.Bool}
}

// IntDTypes returns the signed integer dtypes, optionally filtered by bit
// width.
func IntDTypes(widths ...int) []tensor.Dtype {
	return filterWidths([]tensor.Dtype{tensor.Int8, tensor.Int16, tensor.Int32, tensor.Int64}, widths)
}

// UintDTypes returns the unsigned integer dtypes, optionally filtered by bit
// width.
func UintDTypes(widths ...int) []tensor.Dtype {
	return filterWidths([]tensor.Dtype{tensor.Uint8, tensor.Uint16, tensor.Uint32, tensor.Uint64}, widths)
}

// FloatDTypes returns the floating point dtypes, optionally filtered by bit
// width.
func FloatDTypes(widths ...int) []tensor.Dtype {
	return filterWidths([]tensor.Dtype{tensor.Float32, tensor.Float64}, widths)
}

// ComplexDTypes returns the complex dtypes, optionally filtered by bit width.
func ComplexDTypes(widths ...int) []tensor.Dtype {
	return filterWidths([]tensor.Dtype{tensor.Complex64, tensor.Complex128}, widths)
}

// NumericDTypes returns all signed, unsigned, and floating point dtypes.
func NumericDTypes() []tensor.Dtype {
	out := IntDTypes()
	out = append(out, UintDTypes()...)
	out = append(out, FloatDTypes()...)
	return out
}

// AllDTypes returns every dtype the generators support.
func AllDTypes() []tensor.Dtype {
	out := BoolDTypes()
	out = append(out, NumericDTypes()...)
	out = append(out, ComplexDTypes()...)
	return out
}

// DTypeWidth returns the dtype's bit width.
func DTypeWidth(dt tensor.Dtype) int {
	return int(dt.Size()) * 8
}

func filterWidths(dts []tensor.Dtype, widths []int) []tensor.Dtype {
	if len(widths) == 0 {
		return dts
	}
	out := make([]tensor.Dtype, 0, len(dts))
	for _, dt := range dts {
		for _, w := range widths {
			if DTypeWidth(dt) == w {
				out = append(out, dt)
				break
			}
		}
	}
	return out
}

// DTypeOptions configures the dtype generator.
type DTypeOptions struct {
	classes   []DTypeClass
	widths    []int
	noComplex bool
}

// NewDTypeOptions returns a default, valid dtype options value.
func NewDTypeOptions() DTypeOptions {
	return DTypeOptions{}
}

// WithClasses restricts generation to the given dtype classes.
func (o DTypeOptions) WithClasses(classes ...DTypeClass) DTypeOptions {
	o.classes = append([]DTypeClass(nil), classes...)
	return o
}

// WithWidths restricts generation to dtypes of the given bit widths.
func (o DTypeOptions) WithWidths(widths ...int) DTypeOptions {
	o.widths = append([]int(nil), widths...)
	return o
}

// WithoutComplex excludes the complex dtypes without restricting the other
// classes. It wins over an explicit ClassComplex in WithClasses.
func (o DTypeOptions) WithoutComplex() DTypeOptions {
	o.noComplex = true
	return o
}

// Validate validates dtype options values.
func (o DTypeOptions) Validate() error {
	_, err := o.resolve()
	return err
}

func (o DTypeOptions) resolve() ([]tensor.Dtype, error) {
	for _, w := range o.widths {
		switch w {
		case 8, 16, 32, 64, 128:
		default:
			return nil, errors.NewConfigf(errors.ErrDTypeWidth, "widths", "unsupported bit width %d", w)
		}
	}
	classes := o.classes
	if len(classes) == 0 {
		classes = []DTypeClass{ClassBool, ClassInt, ClassUint, ClassFloat, ClassComplex}
	}
	var out []tensor.Dtype
	for _, c := range classes {
		switch c {
		case ClassBool:
			out = append(out, filterWidths(BoolDTypes(), o.widths)...)
		case ClassInt:
			out = append(out, IntDTypes(o.widths...)...)
		case ClassUint:
			out = append(out, UintDTypes(o.widths...)...)
		case ClassFloat:
			out = append(out, FloatDTypes(o.widths...)...)
		case ClassComplex:
			if o.noComplex {
				continue
			}
			out = append(out, ComplexDTypes(o.widths...)...)
		default:
			return nil, errors.NewConfigf(errors.ErrDTypeClass, "classes", "unknown dtype class %d", c)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewConfig(errors.ErrDTypeEmpty, "no dtypes remain after filtering", "widths")
	}
	return out, nil
}

// DTypes returns a generator drawing uniformly from the dtype set the options
// resolve to.
func DTypes(opts DTypeOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		dts, err := opts.resolve()
		if err != nil {
			return emptyResultOf(tensor.Dtype{})
		}
		return gopter.NewGenResult(draw.Pick(p, dts), gopter.NoShrinker)
	}
}
