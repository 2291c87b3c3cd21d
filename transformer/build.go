package transformer

import (
	"fmt"
	"reflect"

	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck"
	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
	"github.com/tensorcheck/tensorcheck/internal/fill"
)

// Embedding maps int64 token ids to rows of a (vocab, hidden) table.
type Embedding struct {
	VocabSize int
	Hidden    int
	Table     *tensor.Dense

	dtype  tensor.Dtype
	device tensorcheck.Device
}

// String renders the layer.
func (e *Embedding) String() string {
	return fmt.Sprintf("Embedding(vocab=%d, hidden=%d)", e.VocabSize, e.Hidden)
}

// Parameters returns the embedding table.
func (e *Embedding) Parameters() []*tensor.Dense {
	return []*tensor.Dense{e.Table}
}

// Forward looks up a rank-1 int64 id tensor of shape (seq) and returns
// (seq, hidden).
func (e *Embedding) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	if e.device.IsMeta() {
		return nil, errors.NewConfig(errors.ErrModuleMetaForward, "forward pass on a meta-device module", "device")
	}
	if x.Dtype() != tensor.Int64 {
		return nil, errors.NewConfigf(errors.ErrModuleInput, "input", "embedding ids must be int64, got %v", x.Dtype())
	}
	if x.Shape().Dims() != 1 {
		return nil, errors.NewConfigf(errors.ErrModuleInput, "input", "embedding input must be rank 1, got rank %d", x.Shape().Dims())
	}
	ids := x.Data().([]int64)
	for _, id := range ids {
		if id < 0 || int(id) >= e.VocabSize {
			return nil, errors.NewConfigf(errors.ErrModuleInput, "input", "token id %d outside vocabulary of %d", id, e.VocabSize)
		}
	}
	switch e.dtype {
	case tensor.Float64:
		table := e.Table.Data().([]float64)
		out := make([]float64, len(ids)*e.Hidden)
		for r, id := range ids {
			copy(out[r*e.Hidden:(r+1)*e.Hidden], table[int(id)*e.Hidden:(int(id)+1)*e.Hidden])
		}
		return tensor.New(tensor.WithShape(len(ids), e.Hidden), tensor.WithBacking(out)), nil
	case tensor.Float32:
		table := e.Table.Data().([]float32)
		out := make([]float32, len(ids)*e.Hidden)
		for r, id := range ids {
			copy(out[r*e.Hidden:(r+1)*e.Hidden], table[int(id)*e.Hidden:(int(id)+1)*e.Hidden])
		}
		return tensor.New(tensor.WithShape(len(ids), e.Hidden), tensor.WithBacking(out)), nil
	default:
		return nil, errors.NewConfigf(errors.ErrModuleDType, "dtype", "embedding tables require a float dtype, got %v", e.dtype)
	}
}

// Model is an instantiated transformer: the config that shaped it plus the
// layer stack. Forward maps token ids (seq) to logits (seq, vocab).
type Model struct {
	Config Config
	Net    *tensorcheck.Sequential
}

// String renders the stack.
func (m *Model) String() string {
	return "Transformer" + m.Net.String()[len("Sequential"):]
}

// Parameters returns all learnable parameters.
func (m *Model) Parameters() []*tensor.Dense {
	return m.Net.Parameters()
}

// Forward threads ids through the stack.
func (m *Model) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	return m.Net.Forward(x)
}

// BuildOptions configures model instantiation.
type BuildOptions struct {
	dtype              tensor.Dtype
	device             tensorcheck.Device
	deviceSet          bool
	instantiateWeights *bool
}

// NewBuildOptions returns a default, valid build options value.
func NewBuildOptions() BuildOptions {
	return BuildOptions{}
}

// WithDType sets the parameter dtype; the default is float64.
func (o BuildOptions) WithDType(dt tensor.Dtype) BuildOptions {
	o.dtype = dt
	return o
}

// WithDevice sets the instantiation device.
func (o BuildOptions) WithDevice(d tensorcheck.Device) BuildOptions {
	o.device = d
	o.deviceSet = true
	return o
}

// WithInstantiateWeights controls whether parameters are materialised. False
// builds the model on the meta device, useful when only shapes matter.
func (o BuildOptions) WithInstantiateWeights(value bool) BuildOptions {
	o.instantiateWeights = &value
	return o
}

func (o BuildOptions) resolve() (tensor.Dtype, tensorcheck.Device) {
	dt := o.dtype
	if dt == (tensor.Dtype{}) {
		dt = tensor.Float64
	}
	device := tensorcheck.CPUDevice
	if o.deviceSet {
		device = o.device
	}
	if o.instantiateWeights != nil && !*o.instantiateWeights {
		device = tensorcheck.MetaDevice
	}
	return dt, device
}

// Build instantiates a model from a config: an embedding, per hidden layer an
// up and a down projection around the hidden activation, and an output
// projection back to the vocabulary.
func Build(p *gopter.GenParameters, cfg Config, opts BuildOptions) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}
	dt, device := opts.resolve()

	hidden := cfg.HiddenSize()
	act, _ := tensorcheck.ActivationByName(cfg.HiddenAct)

	emb, err := newEmbedding(p, cfg, dt, device)
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	net := &tensorcheck.Sequential{Layers: []tensorcheck.Module{emb}}
	for i := 0; i < cfg.NumHiddenLayers; i++ {
		up, err := newProjection(p, cfg, hidden, cfg.IntermediateSize, dt, device)
		if err != nil {
			return nil, fmt.Errorf("build transformer layer %d: %w", i, err)
		}
		down, err := newProjection(p, cfg, cfg.IntermediateSize, hidden, dt, device)
		if err != nil {
			return nil, fmt.Errorf("build transformer layer %d: %w", i, err)
		}
		net.Layers = append(net.Layers, up, act, down)
	}
	out, err := newProjection(p, cfg, hidden, cfg.VocabSize, dt, device)
	if err != nil {
		return nil, fmt.Errorf("build transformer output: %w", err)
	}
	net.Layers = append(net.Layers, out)

	return &Model{Config: cfg, Net: net}, nil
}

func newProjection(p *gopter.GenParameters, cfg Config, in, out int, dt tensor.Dtype, device tensorcheck.Device) (*tensorcheck.Linear, error) {
	return tensorcheck.NewLinear(p, tensorcheck.LinearConfig{
		In:          in,
		Out:         out,
		DType:       dt,
		Device:      device,
		Bias:        cfg.AttentionBias,
		WeightRange: cfg.InitializerRange,
	})
}

func newEmbedding(p *gopter.GenParameters, cfg Config, dt tensor.Dtype, device tensorcheck.Device) (*Embedding, error) {
	if dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, errors.NewConfigf(errors.ErrModuleDType, "dtype", "embedding tables require a float dtype, got %v", dt)
	}
	hidden := cfg.HiddenSize()
	e := &Embedding{VocabSize: cfg.VocabSize, Hidden: hidden, dtype: dt, device: device}
	if device.IsMeta() {
		e.Table = metaTable(dt, cfg.VocabSize, hidden)
		return e, nil
	}
	cons := fill.Constraints{Elements: draw.FloatConstraints{Min: -cfg.InitializerRange, Max: cfg.InitializerRange}}
	backing, err := fill.Backing(p, dt, cfg.VocabSize*hidden, cons)
	if err != nil {
		return nil, err
	}
	e.Table = tensor.New(tensor.WithShape(cfg.VocabSize, hidden), tensor.WithBacking(backing))
	return e, nil
}

func metaTable(dt tensor.Dtype, vocab, hidden int) *tensor.Dense {
	return tensor.New(tensor.Of(dt), tensor.WithShape(vocab, hidden))
}

// TransformerOptions configures the transformer generator.
type TransformerOptions struct {
	config ConfigOptions
	build  BuildOptions
}

// NewTransformerOptions returns a default, valid transformer options value.
func NewTransformerOptions() TransformerOptions {
	return TransformerOptions{}
}

// WithConfigOptions sets the config generation options.
func (o TransformerOptions) WithConfigOptions(opts ConfigOptions) TransformerOptions {
	o.config = opts
	return o
}

// WithBuildOptions sets the instantiation options.
func (o TransformerOptions) WithBuildOptions(opts BuildOptions) TransformerOptions {
	o.build = opts
	return o
}

// Transformers returns a generator drawing a config and instantiating a model
// from it. When instantiate-weights is unset it is drawn, so both materialised
// and meta models are exercised.
func Transformers(opts TransformerOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.config.withDefaults()
		if err != nil {
			return gopter.NewEmptyResult(reflect.TypeOf(&Model{}))
		}
		cfg := drawConfig(p, r)

		build := opts.build
		if build.instantiateWeights == nil {
			build = build.WithInstantiateWeights(draw.Bool(p))
		}
		model, err := Build(p, cfg, build)
		if err != nil {
			return gopter.NewEmptyResult(reflect.TypeOf(&Model{}))
		}
		return gopter.NewGenResult(model, gopter.NoShrinker)
	}
}
