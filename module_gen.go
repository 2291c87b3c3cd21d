package tensorcheck

import (
	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// Default module dimension bounds, kept small so drawn networks stay cheap.
const (
	defaultMinFeature = 1
	defaultMaxFeature = 4
	defaultMaxHidden  = 3
)

// LinearOptions configures the linear-layer generator.
type LinearOptions struct {
	in        intRangeOption
	out       intRangeOption
	dtypes    []tensor.Dtype
	bias      *bool
	device    Device
	deviceSet bool
}

// NewLinearOptions returns a default, valid linear options value.
func NewLinearOptions() LinearOptions {
	return LinearOptions{}
}

// WithInRange bounds the input feature count.
func (o LinearOptions) WithInRange(min, max int) LinearOptions {
	o.in = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithOutRange bounds the output feature count.
func (o LinearOptions) WithOutRange(min, max int) LinearOptions {
	o.out = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithIn fixes the input feature count.
func (o LinearOptions) WithIn(n int) LinearOptions {
	return o.WithInRange(n, n)
}

// WithOut fixes the output feature count.
func (o LinearOptions) WithOut(n int) LinearOptions {
	return o.WithOutRange(n, n)
}

// WithDTypes restricts the parameter dtype; only float dtypes are legal.
func (o LinearOptions) WithDTypes(dtypes ...tensor.Dtype) LinearOptions {
	o.dtypes = append(make([]tensor.Dtype, 0, len(dtypes)), dtypes...)
	return o
}

// WithBias fixes whether layers carry a bias; unset draws it.
func (o LinearOptions) WithBias(value bool) LinearOptions {
	o.bias = &value
	return o
}

// WithDevice fixes the device layers are instantiated on.
func (o LinearOptions) WithDevice(d Device) LinearOptions {
	o.device = d
	o.deviceSet = true
	return o
}

type resolvedLinearOptions struct {
	in, out   intRangeOption
	dtypes    []tensor.Dtype
	bias      *bool
	device    Device
	deviceSet bool
}

// Validate validates linear options values.
func (o LinearOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o LinearOptions) withDefaults() (resolvedLinearOptions, error) {
	r := resolvedLinearOptions{
		in:        o.in,
		out:       o.out,
		dtypes:    o.dtypes,
		bias:      o.bias,
		device:    o.device,
		deviceSet: o.deviceSet,
	}
	if !r.in.set {
		r.in = intRangeOption{min: defaultMinFeature, max: defaultMaxFeature, set: true}
	}
	if !r.out.set {
		r.out = intRangeOption{min: defaultMinFeature, max: defaultMaxFeature, set: true}
	}
	if r.in.min < 1 || r.in.min > r.in.max || r.out.min < 1 || r.out.min > r.out.max {
		return r, errors.NewConfigf(errors.ErrModuleDims, "dims",
			"invalid feature ranges in=[%d, %d] out=[%d, %d]", r.in.min, r.in.max, r.out.min, r.out.max)
	}
	if r.dtypes == nil {
		r.dtypes = FloatDTypes()
	}
	for _, dt := range r.dtypes {
		if dt != tensor.Float64 && dt != tensor.Float32 {
			return r, errors.NewConfigf(errors.ErrModuleDType, "dtypes", "linear layers require float dtypes, got %v", dt)
		}
	}
	if len(r.dtypes) == 0 {
		return r, errors.NewConfig(errors.ErrDTypeEmpty, "no dtypes to sample from", "dtypes")
	}
	if r.deviceSet && !DeviceAvailable(r.device) {
		return r, errors.NewConfigf(errors.ErrDeviceUnavailable, "device", "device %s is not available", r.device)
	}
	return r, nil
}

// Linears returns a generator for fully connected layers.
func Linears(opts LinearOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.withDefaults()
		if err != nil {
			return emptyResultOf(&Linear{})
		}
		l, err := drawLinear(p, r)
		if err != nil {
			return emptyResultOf(&Linear{})
		}
		return gopter.NewGenResult(l, gopter.NoShrinker)
	}
}

func drawLinear(p *gopter.GenParameters, r resolvedLinearOptions) (*Linear, error) {
	bias := draw.Bool(p)
	if r.bias != nil {
		bias = *r.bias
	}
	device := r.device
	if !r.deviceSet {
		device = CPUDevice
	}
	return NewLinear(p, LinearConfig{
		In:     draw.IntRange(p, r.in.min, r.in.max),
		Out:    draw.IntRange(p, r.out.min, r.out.max),
		DType:  draw.Pick(p, r.dtypes),
		Device: device,
		Bias:   bias,
	})
}

// NetworkOptions configures the linear-network generator.
type NetworkOptions struct {
	inputDim     intOption
	outputDim    intOption
	hiddenLayers intRangeOption
	hiddenDim    intRangeOption
	linear       LinearOptions
	activation   gopter.Gen
}

// NewNetworkOptions returns a default, valid network options value.
func NewNetworkOptions() NetworkOptions {
	return NetworkOptions{}
}

// WithInputDim fixes the network input width; unset draws it.
func (o NetworkOptions) WithInputDim(n int) NetworkOptions {
	o.inputDim = intOption{value: n, set: true}
	return o
}

// WithOutputDim fixes the network output width; unset draws it.
func (o NetworkOptions) WithOutputDim(n int) NetworkOptions {
	o.outputDim = intOption{value: n, set: true}
	return o
}

// WithHiddenLayerRange bounds the number of hidden layers.
func (o NetworkOptions) WithHiddenLayerRange(min, max int) NetworkOptions {
	o.hiddenLayers = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithHiddenDimRange bounds the hidden layer widths.
func (o NetworkOptions) WithHiddenDimRange(min, max int) NetworkOptions {
	o.hiddenDim = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithLinearOptions sets the per-layer options (dtype, bias, device).
func (o NetworkOptions) WithLinearOptions(opts LinearOptions) NetworkOptions {
	o.linear = opts
	return o
}

// WithActivationGen draws the shared activation from the given generator.
func (o NetworkOptions) WithActivationGen(g gopter.Gen) NetworkOptions {
	o.activation = g
	return o
}

// Validate validates network options values.
func (o NetworkOptions) Validate() error {
	if o.hiddenLayers.set && (o.hiddenLayers.min < 0 || o.hiddenLayers.min > o.hiddenLayers.max) {
		return errors.NewConfigf(errors.ErrModuleDims, "hiddenLayers",
			"invalid hidden layer range [%d, %d]", o.hiddenLayers.min, o.hiddenLayers.max)
	}
	if o.hiddenDim.set && (o.hiddenDim.min < 1 || o.hiddenDim.min > o.hiddenDim.max) {
		return errors.NewConfigf(errors.ErrModuleDims, "hiddenDim",
			"invalid hidden dim range [%d, %d]", o.hiddenDim.min, o.hiddenDim.max)
	}
	if (o.inputDim.set && o.inputDim.value < 1) || (o.outputDim.set && o.outputDim.value < 1) {
		return errors.NewConfigf(errors.ErrModuleDims, "dims", "network dims must be positive")
	}
	return o.linear.Validate()
}

// LinearNetworks returns a generator for sequential fully connected networks:
// a drawn number of hidden layers of drawn widths, one shared activation
// interleaved between the linear layers.
func LinearNetworks(opts NetworkOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		if err := opts.Validate(); err != nil {
			return emptyResultOf(&Sequential{})
		}
		s, err := drawNetwork(p, opts)
		if err != nil {
			return emptyResultOf(&Sequential{})
		}
		return gopter.NewGenResult(s, gopter.NoShrinker)
	}
}

func drawNetwork(p *gopter.GenParameters, opts NetworkOptions) (*Sequential, error) {
	lr, err := opts.linear.withDefaults()
	if err != nil {
		return nil, err
	}

	hidden := opts.hiddenLayers
	if !hidden.set {
		hidden = intRangeOption{min: 0, max: defaultMaxHidden}
	}
	widthRange := opts.hiddenDim
	if !widthRange.set {
		widthRange = intRangeOption{min: defaultMinFeature, max: defaultMaxFeature}
	}

	inputDim := opts.inputDim.or(draw.IntRange(p, defaultMinFeature, defaultMaxFeature))
	outputDim := opts.outputDim.or(draw.IntRange(p, defaultMinFeature, defaultMaxFeature))

	activation := opts.activation
	if activation == nil {
		activation = Activations()
	}
	actVal, ok := drawFrom(p, activation)
	if !ok {
		return nil, errors.NewConfig(errors.ErrModuleDims, "activation generator produced no value", "activation")
	}
	act := actVal.(Activation)

	dt := draw.Pick(p, lr.dtypes)
	bias := draw.Bool(p)
	if lr.bias != nil {
		bias = *lr.bias
	}
	device := lr.device
	if !lr.deviceSet {
		device = CPUDevice
	}

	widths := []int{inputDim}
	layers := draw.IntRange(p, hidden.min, hidden.max)
	for i := 0; i < layers; i++ {
		widths = append(widths, draw.IntRange(p, widthRange.min, widthRange.max))
	}
	widths = append(widths, outputDim)

	s := &Sequential{}
	for i := 0; i+1 < len(widths); i++ {
		l, err := NewLinear(p, LinearConfig{
			In:     widths[i],
			Out:    widths[i+1],
			DType:  dt,
			Device: device,
			Bias:   bias,
		})
		if err != nil {
			return nil, err
		}
		s.Layers = append(s.Layers, l)
		if i+2 < len(widths) {
			s.Layers = append(s.Layers, act)
		}
	}
	return s, nil
}
