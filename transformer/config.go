// Package transformer generates transformer-style hyperparameter
// configurations and instantiates small models from them. The constraint
// system mirrors what real config classes require: head counts divide hidden
// sizes, token ids stay inside the vocabulary, attention windows are even.
package transformer

import (
	"reflect"

	"github.com/leanovate/gopter"

	"github.com/tensorcheck/tensorcheck"
	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// Config holds the hyperparameters of a small decoder-style transformer.
// HiddenSize is derived as HiddenSizeBase*NumAttentionHeads so divisibility
// holds by construction.
type Config struct {
	HiddenSizeBase        int
	NumAttentionHeads     int
	NumKeyValueHeads      int
	NumHiddenLayers       int
	IntermediateSize      int
	VocabSize             int
	PadTokenID            int
	BOSTokenID            int
	EOSTokenID            int
	MaxPositionEmbeddings int
	AttentionWindow       int
	SlidingWindow         int
	HiddenAct             string
	AttentionDropout      float64
	HiddenDropout         float64
	InitializerRange      float64
	RMSNormEps            float64
	RopeTheta             float64
	AttentionBias         bool
}

// HiddenSize returns the model width.
func (c Config) HiddenSize() int {
	return c.HiddenSizeBase * c.NumAttentionHeads
}

// Validate checks the cross-field constraints. Generated configs always
// validate.
func (c Config) Validate() error {
	if c.HiddenSizeBase < 1 || c.NumAttentionHeads < 1 || c.NumHiddenLayers < 0 ||
		c.IntermediateSize < 1 || c.VocabSize < 1 || c.MaxPositionEmbeddings < 1 {
		return errors.NewConfig(errors.ErrConfigInvalid, "size fields must be positive", "")
	}
	if c.HiddenSize()%c.NumAttentionHeads != 0 {
		return errors.NewConfigf(errors.ErrConfigInvalid, "HiddenSize",
			"hidden size %d not divisible by %d heads", c.HiddenSize(), c.NumAttentionHeads)
	}
	if c.NumKeyValueHeads < 1 || c.NumAttentionHeads%c.NumKeyValueHeads != 0 {
		return errors.NewConfigf(errors.ErrConfigInvalid, "NumKeyValueHeads",
			"%d KV heads must divide %d attention heads", c.NumKeyValueHeads, c.NumAttentionHeads)
	}
	if c.PadTokenID < 0 || c.PadTokenID >= c.VocabSize {
		return errors.NewConfigf(errors.ErrConfigInvalid, "PadTokenID",
			"pad token %d outside vocabulary of %d", c.PadTokenID, c.VocabSize)
	}
	if c.AttentionWindow%2 != 0 {
		return errors.NewConfigf(errors.ErrConfigInvalid, "AttentionWindow",
			"attention window %d must be even", c.AttentionWindow)
	}
	if c.AttentionDropout < 0 || c.AttentionDropout > 1 || c.HiddenDropout < 0 || c.HiddenDropout > 1 {
		return errors.NewConfig(errors.ErrConfigInvalid, "dropouts must be within [0, 1]", "")
	}
	if c.InitializerRange <= 0 || c.RMSNormEps <= 0 || c.RopeTheta <= 0 {
		return errors.NewConfig(errors.ErrConfigInvalid, "scale fields must be strictly positive", "")
	}
	if _, ok := tensorcheck.ActivationByName(c.HiddenAct); !ok {
		return errors.NewConfigf(errors.ErrConfigInvalid, "HiddenAct", "unknown activation %q", c.HiddenAct)
	}
	return nil
}

// ConfigOptions configures the config generator.
type ConfigOptions struct {
	maxDim      int
	activations []string
}

// NewConfigOptions returns a default, valid config options value.
func NewConfigOptions() ConfigOptions {
	return ConfigOptions{}
}

// WithMaxDim caps the drawn positive size fields. The default of 4 keeps
// instantiated models small.
func (o ConfigOptions) WithMaxDim(value int) ConfigOptions {
	o.maxDim = value
	return o
}

// WithActivations restricts the hidden activation names drawn.
func (o ConfigOptions) WithActivations(names ...string) ConfigOptions {
	o.activations = append([]string(nil), names...)
	return o
}

// Validate validates config options values.
func (o ConfigOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

type resolvedConfigOptions struct {
	maxDim      int
	activations []string
}

// defaultMaxDim intentionally limits positive sizes for speed.
const defaultMaxDim = 4

func (o ConfigOptions) withDefaults() (resolvedConfigOptions, error) {
	r := resolvedConfigOptions{maxDim: o.maxDim, activations: o.activations}
	if r.maxDim == 0 {
		r.maxDim = defaultMaxDim
	}
	if r.maxDim < 1 {
		return r, errors.NewConfigf(errors.ErrConfigInvalid, "maxDim", "max dim %d must be positive", r.maxDim)
	}
	if r.activations == nil {
		r.activations = tensorcheck.ActivationNames()
	}
	for _, name := range r.activations {
		if _, ok := tensorcheck.ActivationByName(name); !ok {
			return r, errors.NewConfigf(errors.ErrConfigInvalid, "activations", "unknown activation %q", name)
		}
	}
	return r, nil
}

// Configs returns a generator for valid transformer configs: every size field
// is drawn from a small positive range, then the cross-field constraints are
// enforced by construction or fixup.
func Configs(opts ConfigOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.withDefaults()
		if err != nil {
			return gopter.NewEmptyResult(reflectTypeOfConfig())
		}
		return gopter.NewGenResult(drawConfig(p, r), gopter.NoShrinker)
	}
}

func drawConfig(p *gopter.GenParameters, r resolvedConfigOptions) Config {
	positive := func() int { return draw.IntRange(p, 1, r.maxDim) }
	unit := draw.FloatConstraints{Min: 0, Max: 1}
	strictlyPositive := draw.FloatConstraints{Min: 1e-6, Max: 1}

	cfg := Config{
		HiddenSizeBase:        positive(),
		NumAttentionHeads:     positive(),
		NumHiddenLayers:       draw.IntRange(p, 0, r.maxDim),
		IntermediateSize:      positive(),
		VocabSize:             positive() * 4,
		BOSTokenID:            positive(),
		EOSTokenID:            positive(),
		MaxPositionEmbeddings: positive() * 4,
		SlidingWindow:         positive(),
		HiddenAct:             draw.Pick(p, r.activations),
		AttentionDropout:      draw.Float64In(p, unit),
		HiddenDropout:         draw.Float64In(p, unit),
		InitializerRange:      draw.Float64In(p, strictlyPositive),
		RMSNormEps:            draw.Float64In(p, strictlyPositive),
		RopeTheta:             1 + draw.Float64In(p, unit)*1e4,
		AttentionBias:         draw.Bool(p),
	}

	// KV heads must divide the attention heads; draw from the divisors.
	cfg.NumKeyValueHeads = draw.Pick(p, divisors(cfg.NumAttentionHeads))
	// Pad token must index into the vocabulary.
	cfg.PadTokenID = draw.IntRange(p, 0, cfg.VocabSize-1)
	// Attention windows must be even.
	cfg.AttentionWindow = positive() * 2

	return cfg
}

func reflectTypeOfConfig() reflect.Type {
	return reflect.TypeOf(Config{})
}

func divisors(n int) []int {
	var out []int
	for d := 1; d <= n; d++ {
		if n%d == 0 {
			out = append(out, d)
		}
	}
	return out
}
