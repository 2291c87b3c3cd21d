package transformer_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck"
	tcerrors "github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/transformer"
)

func smallConfig() transformer.Config {
	return transformer.Config{
		HiddenSizeBase:        2,
		NumAttentionHeads:     2,
		NumKeyValueHeads:      2,
		NumHiddenLayers:       1,
		IntermediateSize:      3,
		VocabSize:             8,
		PadTokenID:            0,
		BOSTokenID:            1,
		EOSTokenID:            2,
		MaxPositionEmbeddings: 16,
		AttentionWindow:       2,
		SlidingWindow:         1,
		HiddenAct:             "relu",
		AttentionDropout:      0.1,
		HiddenDropout:         0.1,
		InitializerRange:      0.05,
		RMSNormEps:            1e-6,
		RopeTheta:             1e4,
	}
}

func tokenTensor(ids ...int64) *tensor.Dense {
	return tensor.New(tensor.WithShape(len(ids)), tensor.WithBacking(ids))
}

func TestBuildForwardShape(t *testing.T) {
	cfg := smallConfig()
	model, err := transformer.Build(seededGenParams(1), cfg, transformer.NewBuildOptions())
	require.NoError(t, err)

	y, err := model.Forward(tokenTensor(0, 3, 7, 1))
	require.NoError(t, err)
	assert.True(t, y.Shape().Eq(tensor.Shape{4, cfg.VocabSize}),
		"logits shape = %v, want (4, %d)", y.Shape(), cfg.VocabSize)
}

func TestBuildParameterCount(t *testing.T) {
	cfg := smallConfig()
	cfg.AttentionBias = true
	model, err := transformer.Build(seededGenParams(2), cfg, transformer.NewBuildOptions())
	require.NoError(t, err)

	// Embedding table + per hidden layer (up W+b, down W+b) + output W+b.
	want := 1 + cfg.NumHiddenLayers*4 + 2
	assert.Len(t, model.Parameters(), want)
}

func TestBuildInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.PadTokenID = cfg.VocabSize
	_, err := transformer.Build(seededGenParams(3), cfg, transformer.NewBuildOptions())
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrConfigInvalid, tcerrors.CodeOf(err))
}

func TestBuildMetaModel(t *testing.T) {
	model, err := transformer.Build(seededGenParams(4), smallConfig(),
		transformer.NewBuildOptions().WithInstantiateWeights(false))
	require.NoError(t, err)

	assert.NotEmpty(t, model.Parameters(), "meta models still expose shape-only parameters")

	_, err = model.Forward(tokenTensor(1, 2))
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrModuleMetaForward, tcerrors.CodeOf(err))
}

func TestEmbeddingErrors(t *testing.T) {
	model, err := transformer.Build(seededGenParams(5), smallConfig(), transformer.NewBuildOptions())
	require.NoError(t, err)

	_, err = model.Forward(tokenTensor(999))
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrModuleInput, tcerrors.CodeOf(err), "out-of-vocabulary ids must be rejected")

	floats := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{0, 1}))
	_, err = model.Forward(floats)
	require.Error(t, err)
	assert.Equal(t, tcerrors.ErrModuleInput, tcerrors.CodeOf(err))
}

func TestBuildFloat32(t *testing.T) {
	model, err := transformer.Build(seededGenParams(6), smallConfig(),
		transformer.NewBuildOptions().WithDType(tensor.Float32))
	require.NoError(t, err)

	y, err := model.Forward(tokenTensor(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, y.Dtype())
}

func TestTransformersGenerator(t *testing.T) {
	properties := gopter.NewProperties(tensorcheck.ParametersWithSeed(7))

	properties.Property("drawn models carry a valid config", prop.ForAll(
		func(m *transformer.Model) bool {
			return m.Config.Validate() == nil && len(m.Parameters()) > 0
		},
		transformer.Transformers(transformer.NewTransformerOptions()),
	))

	properties.Property("materialised models run forward", prop.ForAll(
		func(m *transformer.Model) bool {
			y, err := m.Forward(tokenTensor(0))
			if err != nil {
				return false
			}
			return y.Shape().Eq(tensor.Shape{1, m.Config.VocabSize})
		},
		transformer.Transformers(transformer.NewTransformerOptions().
			WithBuildOptions(transformer.NewBuildOptions().WithInstantiateWeights(true))),
	))

	properties.TestingRun(t)
}
