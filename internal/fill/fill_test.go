package fill

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

func seededParams(seed int64) *gopter.GenParameters {
	p := gopter.DefaultGenParameters()
	p.Rng = rand.New(rand.NewSource(seed))
	return p
}

func bounded(min, max float64) Constraints {
	return Constraints{Elements: draw.FloatConstraints{Min: min, Max: max}}
}

func TestBackingTypes(t *testing.T) {
	tests := []struct {
		dt   tensor.Dtype
		want interface{}
	}{
		{tensor.Float64, []float64(nil)},
		{tensor.Float32, []float32(nil)},
		{tensor.Int8, []int8(nil)},
		{tensor.Int16, []int16(nil)},
		{tensor.Int32, []int32(nil)},
		{tensor.Int64, []int64(nil)},
		{tensor.Uint8, []uint8(nil)},
		{tensor.Uint16, []uint16(nil)},
		{tensor.Uint32, []uint32(nil)},
		{tensor.Uint64, []uint64(nil)},
		{tensor.Bool, []bool(nil)},
		{tensor.Complex64, []complex64(nil)},
		{tensor.Complex128, []complex128(nil)},
	}
	p := seededParams(1)
	for _, tt := range tests {
		t.Run(tt.dt.Name(), func(t *testing.T) {
			backing, err := Backing(p, tt.dt, 8, bounded(-100, 100))
			require.NoError(t, err)
			assert.IsType(t, tt.want, backing)
		})
	}
}

func TestBackingFloatBounds(t *testing.T) {
	p := seededParams(2)
	backing, err := Backing(p, tensor.Float64, 256, bounded(-1.5, 2.5))
	require.NoError(t, err)
	for _, v := range backing.([]float64) {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		require.GreaterOrEqual(t, v, -1.5)
		require.LessOrEqual(t, v, 2.5)
	}
}

func TestBackingIntBoundsTruncateToDtype(t *testing.T) {
	p := seededParams(3)
	backing, err := Backing(p, tensor.Int8, 256, bounded(-1e6, 1e6))
	require.NoError(t, err)
	for _, v := range backing.([]int8) {
		_ = v // any int8 is inside the truncated bounds
	}

	backing, err = Backing(p, tensor.Uint8, 64, bounded(10, 20))
	require.NoError(t, err)
	for _, v := range backing.([]uint8) {
		require.GreaterOrEqual(t, v, uint8(10))
		require.LessOrEqual(t, v, uint8(20))
	}
}

func TestBackingUnique(t *testing.T) {
	p := seededParams(4)

	backing, err := Backing(p, tensor.Int32, 50, Constraints{
		Elements: draw.FloatConstraints{Min: 0, Max: 63},
		Unique:   true,
	})
	require.NoError(t, err)
	seen := map[int32]struct{}{}
	for _, v := range backing.([]int32) {
		_, dup := seen[v]
		require.False(t, dup, "duplicate %d in unique backing", v)
		seen[v] = struct{}{}
	}

	fs, err := Backing(p, tensor.Float64, 100, Constraints{
		Elements: draw.FloatConstraints{Min: 0, Max: 1},
		Unique:   true,
	})
	require.NoError(t, err)
	fseen := map[float64]struct{}{}
	for _, v := range fs.([]float64) {
		_, dup := fseen[v]
		require.False(t, dup)
		fseen[v] = struct{}{}
	}
}

func TestBackingUniqueDomainTooSmall(t *testing.T) {
	p := seededParams(5)

	_, err := Backing(p, tensor.Bool, 3, Constraints{Unique: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrElementUnique, errors.CodeOf(err))

	_, err = Backing(p, tensor.Uint8, 300, Constraints{
		Elements: draw.FloatConstraints{Min: 0, Max: 1e6},
		Unique:   true,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrElementUnique, errors.CodeOf(err))

	_, err = Backing(p, tensor.Int16, 11, Constraints{
		Elements: draw.FloatConstraints{Min: 0, Max: 9},
		Unique:   true,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrElementUnique, errors.CodeOf(err))
}

func TestScalar(t *testing.T) {
	p := seededParams(6)

	v, err := Scalar(p, tensor.Float32, bounded(-1, 1))
	require.NoError(t, err)
	f, ok := v.(float32)
	require.True(t, ok, "Scalar(float32) returned %T", v)
	assert.GreaterOrEqual(t, f, float32(-1))
	assert.LessOrEqual(t, f, float32(1))

	v, err = Scalar(p, tensor.Bool, Constraints{})
	require.NoError(t, err)
	_, ok = v.(bool)
	require.True(t, ok, "Scalar(bool) returned %T", v)
}

func TestBackingDeterminism(t *testing.T) {
	first, err := Backing(seededParams(7), tensor.Float64, 32, bounded(-10, 10))
	require.NoError(t, err)
	second, err := Backing(seededParams(7), tensor.Float64, 32, bounded(-10, 10))
	require.NoError(t, err)
	assert.Equal(t, first, second, "same seed must produce the same backing")
}
