// Package draw provides primitive value draws over gopter generator
// parameters. Composite generators build their samples from these so that a
// given seed always replays the same sequence.
package draw

import (
	"math"

	"github.com/leanovate/gopter"
)

// FloatConstraints bounds a float draw. Special values are only produced when
// explicitly allowed; subnormals are flushed to zero unless allowed.
type FloatConstraints struct {
	Min            float64
	Max            float64
	AllowNaN       bool
	AllowInf       bool
	AllowSubnormal bool
}

// specialEvery is the denominator for drawing a special value (NaN or an
// infinity) when one is allowed.
const specialEvery = 16

// IntRange draws an int uniformly from [min, max].
func IntRange(p *gopter.GenParameters, min, max int) int {
	return int(Int64Range(p, int64(min), int64(max)))
}

// Int64Range draws an int64 uniformly from [min, max].
func Int64Range(p *gopter.GenParameters, min, max int64) int64 {
	if min >= max {
		return min
	}
	if min == math.MinInt64 && max == math.MaxInt64 {
		return int64(p.Rng.Uint64())
	}
	span := uint64(max-min) + 1
	return min + int64(p.Rng.Uint64()%span)
}

// Uint64Range draws a uint64 uniformly from [min, max].
func Uint64Range(p *gopter.GenParameters, min, max uint64) uint64 {
	if min >= max {
		return min
	}
	if min == 0 && max == math.MaxUint64 {
		return p.Rng.Uint64()
	}
	span := max - min + 1
	return min + p.Rng.Uint64()%span
}

// Bool draws a boolean.
func Bool(p *gopter.GenParameters) bool {
	return p.Rng.Intn(2) == 1
}

// Pick draws one element of items uniformly. It panics on an empty slice;
// callers validate their pools first.
func Pick[T any](p *gopter.GenParameters, items []T) T {
	return items[p.Rng.Intn(len(items))]
}

// Float64In draws a float64 honoring the constraints. The bounds are
// inclusive.
func Float64In(p *gopter.GenParameters, c FloatConstraints) float64 {
	if c.AllowNaN && p.Rng.Intn(specialEvery) == 0 {
		return math.NaN()
	}
	if c.AllowInf && p.Rng.Intn(specialEvery) == 0 {
		if Bool(p) {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	v := c.Min + p.Rng.Float64()*(c.Max-c.Min)
	if !c.AllowSubnormal && isSubnormal64(v) {
		return 0
	}
	return v
}

// Float32In draws a float32 honoring the constraints.
func Float32In(p *gopter.GenParameters, c FloatConstraints) float32 {
	if c.AllowNaN && p.Rng.Intn(specialEvery) == 0 {
		return float32(math.NaN())
	}
	if c.AllowInf && p.Rng.Intn(specialEvery) == 0 {
		if Bool(p) {
			return float32(math.Inf(1))
		}
		return float32(math.Inf(-1))
	}
	v := float32(c.Min + p.Rng.Float64()*(c.Max-c.Min))
	if !c.AllowSubnormal && isSubnormal32(v) {
		return 0
	}
	return v
}

// Complex128In draws a complex128 whose real and imaginary parts honor the
// constraints.
func Complex128In(p *gopter.GenParameters, c FloatConstraints) complex128 {
	return complex(Float64In(p, c), Float64In(p, c))
}

func isSubnormal64(v float64) bool {
	return v != 0 && math.Abs(v) < math.SmallestNonzeroFloat64*(1<<52)
}

func isSubnormal32(v float32) bool {
	const minNormal32 = 1.1754943508222875e-38
	f := float64(v)
	return f != 0 && math.Abs(f) < minNormal32
}
