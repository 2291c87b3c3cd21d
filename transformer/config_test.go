package transformer_test

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorcheck/tensorcheck"
	tcerrors "github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/transformer"
)

func seededGenParams(seed int64) *gopter.GenParameters {
	p := gopter.DefaultGenParameters()
	p.Rng = rand.New(rand.NewSource(seed))
	return p
}

func TestConfigsAlwaysValid(t *testing.T) {
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(1))

	properties.Property("generated configs validate", prop.ForAll(
		func(cfg transformer.Config) bool {
			return cfg.Validate() == nil
		},
		transformer.Configs(transformer.NewConfigOptions()),
	))

	properties.Property("cross-field constraints hold", prop.ForAll(
		func(cfg transformer.Config) bool {
			if cfg.HiddenSize()%cfg.NumAttentionHeads != 0 {
				return false
			}
			if cfg.NumAttentionHeads%cfg.NumKeyValueHeads != 0 {
				return false
			}
			if cfg.PadTokenID < 0 || cfg.PadTokenID >= cfg.VocabSize {
				return false
			}
			return cfg.AttentionWindow%2 == 0
		},
		transformer.Configs(transformer.NewConfigOptions()),
	))

	properties.Property("sizes respect the dim cap", prop.ForAll(
		func(cfg transformer.Config) bool {
			return cfg.HiddenSizeBase <= 2 &&
				cfg.NumAttentionHeads <= 2 &&
				cfg.NumHiddenLayers <= 2 &&
				cfg.IntermediateSize <= 2
		},
		transformer.Configs(transformer.NewConfigOptions().WithMaxDim(2)),
	))

	properties.TestingRun(t)
}

func TestConfigsActivationRestriction(t *testing.T) {
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(2))

	properties.Property("restricted activations are honored", prop.ForAll(
		func(cfg transformer.Config) bool {
			return cfg.HiddenAct == "relu" || cfg.HiddenAct == "tanh"
		},
		transformer.Configs(transformer.NewConfigOptions().WithActivations("relu", "tanh")),
	))

	properties.TestingRun(t)
}

func TestConfigValidateRejections(t *testing.T) {
	valid := transformer.Config{
		HiddenSizeBase:        2,
		NumAttentionHeads:     2,
		NumKeyValueHeads:      1,
		NumHiddenLayers:       1,
		IntermediateSize:      3,
		VocabSize:             8,
		PadTokenID:            0,
		BOSTokenID:            1,
		EOSTokenID:            2,
		MaxPositionEmbeddings: 16,
		AttentionWindow:       4,
		SlidingWindow:         2,
		HiddenAct:             "gelu",
		AttentionDropout:      0.1,
		HiddenDropout:         0.1,
		InitializerRange:      0.02,
		RMSNormEps:            1e-6,
		RopeTheta:             1e4,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(transformer.Config) transformer.Config
	}{
		{"pad outside vocab", func(c transformer.Config) transformer.Config { c.PadTokenID = c.VocabSize; return c }},
		{"odd attention window", func(c transformer.Config) transformer.Config { c.AttentionWindow = 3; return c }},
		{"kv heads not dividing", func(c transformer.Config) transformer.Config {
			c.NumAttentionHeads = 3
			c.NumKeyValueHeads = 2
			return c
		}},
		{"zero vocab", func(c transformer.Config) transformer.Config { c.VocabSize = 0; return c }},
		{"dropout above one", func(c transformer.Config) transformer.Config { c.HiddenDropout = 1.5; return c }},
		{"non-positive eps", func(c transformer.Config) transformer.Config { c.RMSNormEps = 0; return c }},
		{"unknown activation", func(c transformer.Config) transformer.Config { c.HiddenAct = "nope"; return c }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			require.Error(t, err)
			assert.Equal(t, tcerrors.ErrConfigInvalid, tcerrors.CodeOf(err))
		})
	}
}

func TestConfigOptionsValidate(t *testing.T) {
	err := transformer.NewConfigOptions().WithActivations("nope").Validate()
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrConfigInvalid, tcerrors.CodeOf(err))

	err = transformer.NewConfigOptions().WithMaxDim(-1).Validate()
	require.Error(t, err)

	require.NoError(t, transformer.NewConfigOptions().Validate())
}
