package tensorcheck

import (
	"reflect"

	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
	"github.com/tensorcheck/tensorcheck/internal/fill"
)

// Default element bounds for float and complex dtypes. Integer dtypes clamp
// these to their representable range.
const (
	defaultElementMin = -1e6
	defaultElementMax = 1e6
)

type floatRangeOption struct {
	min, max float64
	set      bool
}

// TensorOptions configures the tensor generator.
type TensorOptions struct {
	dtypes         []tensor.Dtype
	shape          tensor.Shape
	shapeSet       bool
	shapeGen       gopter.Gen
	elements       floatRangeOption
	allowNaN       bool
	allowInf       bool
	allowSubnormal bool
	unique         bool
	device         Device
	deviceSet      bool
	deviceGen      gopter.Gen
	scalars        bool
}

// NewTensorOptions returns a default, valid tensor options value.
func NewTensorOptions() TensorOptions {
	return TensorOptions{}
}

// WithDTypes restricts generation to the given dtypes.
func (o TensorOptions) WithDTypes(dtypes ...tensor.Dtype) TensorOptions {
	o.dtypes = append(make([]tensor.Dtype, 0, len(dtypes)), dtypes...)
	return o
}

// WithDType restricts generation to a single dtype.
func (o TensorOptions) WithDType(dt tensor.Dtype) TensorOptions {
	return o.WithDTypes(dt)
}

// WithShape fixes the generated shape.
func (o TensorOptions) WithShape(dims ...int) TensorOptions {
	o.shape = append(tensor.Shape(nil), dims...)
	o.shapeSet = true
	return o
}

// WithShapeGen draws shapes from the given generator instead of the default.
func (o TensorOptions) WithShapeGen(g gopter.Gen) TensorOptions {
	o.shapeGen = g
	return o
}

// WithElements bounds the generated elements. Integer dtypes truncate the
// bounds to their representable range.
func (o TensorOptions) WithElements(min, max float64) TensorOptions {
	o.elements = floatRangeOption{min: min, max: max, set: true}
	return o
}

// WithAllowNaN permits NaN elements in float and complex tensors.
func (o TensorOptions) WithAllowNaN(value bool) TensorOptions {
	o.allowNaN = value
	return o
}

// WithAllowInfinity permits infinite elements in float and complex tensors.
func (o TensorOptions) WithAllowInfinity(value bool) TensorOptions {
	o.allowInf = value
	return o
}

// WithAllowSubnormal permits subnormal elements; otherwise they flush to zero.
func (o TensorOptions) WithAllowSubnormal(value bool) TensorOptions {
	o.allowSubnormal = value
	return o
}

// WithUnique requires pairwise-distinct elements.
func (o TensorOptions) WithUnique(value bool) TensorOptions {
	o.unique = value
	return o
}

// WithDevice fixes the device. Physical devices materialise values; the meta
// device yields shape-only placeholders with unspecified values.
func (o TensorOptions) WithDevice(d Device) TensorOptions {
	o.device = d
	o.deviceSet = true
	return o
}

// WithDeviceGen draws devices from the given generator instead of the default
// physical pool.
func (o TensorOptions) WithDeviceGen(g gopter.Gen) TensorOptions {
	o.deviceGen = g
	return o
}

// WithScalars permits rank-0 tensors.
func (o TensorOptions) WithScalars(value bool) TensorOptions {
	o.scalars = value
	return o
}

type resolvedTensorOptions struct {
	dtypes      []tensor.Dtype
	shape       tensor.Shape
	shapeSet    bool
	shapeGen    gopter.Gen
	constraints fill.Constraints
	device      Device
	deviceSet   bool
	deviceGen   gopter.Gen
}

// Validate validates tensor options values.
func (o TensorOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o TensorOptions) withDefaults() (resolvedTensorOptions, error) {
	r := resolvedTensorOptions{
		dtypes:    o.dtypes,
		shape:     o.shape,
		shapeSet:  o.shapeSet,
		shapeGen:  o.shapeGen,
		device:    o.device,
		deviceSet: o.deviceSet,
		deviceGen: o.deviceGen,
	}
	if r.dtypes == nil {
		r.dtypes = NumericDTypes()
	}
	if len(r.dtypes) == 0 {
		return r, errors.NewConfig(errors.ErrDTypeEmpty, "no dtypes to sample from", "dtypes")
	}
	min, max := defaultElementMin, defaultElementMax
	if o.elements.set {
		min, max = o.elements.min, o.elements.max
	}
	if min > max {
		return r, errors.NewConfigf(errors.ErrElementRange, "elements", "min %v exceeds max %v", min, max)
	}
	r.constraints = fill.Constraints{
		Elements: draw.FloatConstraints{
			Min:            min,
			Max:            max,
			AllowNaN:       o.allowNaN,
			AllowInf:       o.allowInf,
			AllowSubnormal: o.allowSubnormal,
		},
		Unique: o.unique,
	}
	if r.shapeSet && r.shapeGen != nil {
		return r, errors.NewConfig(errors.ErrShapeRange, "both a fixed shape and a shape generator were set", "shape")
	}
	if r.shapeGen == nil && !r.shapeSet {
		r.shapeGen = Shapes(NewShapeOptions().WithScalars(o.scalars))
	}
	if r.deviceSet && !DeviceAvailable(r.device) {
		return r, errors.NewConfigf(errors.ErrDeviceUnavailable, "device", "device %s is not available", r.device)
	}
	if r.deviceGen == nil && !r.deviceSet {
		r.deviceSet = true
		r.device = CPUDevice
	}
	return r, nil
}

// Tensors returns a generator for dense tensors: a dtype, shape, and device
// are drawn, then a typed backing honoring the element constraints. Gorgonia
// executes on the host, so the drawn device only selects between materialised
// values (physical devices) and shape-only placeholders (meta).
func Tensors(opts TensorOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.withDefaults()
		if err != nil {
			return emptyResultOf(&tensor.Dense{})
		}
		t, err := drawTensor(p, r)
		if err != nil {
			return emptyResultOf(&tensor.Dense{})
		}
		return gopter.NewGenResult(t, gopter.NoShrinker)
	}
}

func drawTensor(p *gopter.GenParameters, r resolvedTensorOptions) (*tensor.Dense, error) {
	dt := draw.Pick(p, r.dtypes)

	shape := r.shape
	if !r.shapeSet {
		v, ok := drawFrom(p, r.shapeGen)
		if !ok {
			return nil, errors.NewConfig(errors.ErrShapeRange, "shape generator produced no value", "shape")
		}
		shape = v.(tensor.Shape)
	}

	device := r.device
	if !r.deviceSet {
		v, ok := drawFrom(p, r.deviceGen)
		if !ok {
			return nil, errors.NewConfig(errors.ErrDevicePoolEmpty, "device generator produced no value", "device")
		}
		device = v.(Device)
	}

	if device.IsMeta() {
		return metaTensor(dt, shape), nil
	}
	if shape.Dims() == 0 {
		v, err := fill.Scalar(p, dt, r.constraints)
		if err != nil {
			return nil, err
		}
		return tensor.New(tensor.FromScalar(v)), nil
	}
	backing, err := fill.Backing(p, dt, shape.TotalSize(), r.constraints)
	if err != nil {
		return nil, err
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
}

// metaTensor builds a shape-only placeholder: dtype and shape are set, values
// are unspecified.
func metaTensor(dt tensor.Dtype, shape tensor.Shape) *tensor.Dense {
	if shape.Dims() == 0 {
		return tensor.New(tensor.FromScalar(reflect.Zero(dt.Type).Interface()))
	}
	return tensor.New(tensor.Of(dt), tensor.WithShape(shape...))
}
