// Package fill builds typed backing slices for tensor construction, honoring
// element constraints and optional uniqueness.
package fill

import (
	"math"

	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
)

// Constraints bound the generated elements.
type Constraints struct {
	Elements draw.FloatConstraints
	Unique   bool
}

// retriesPerElement bounds rejection sampling before falling back to bumping
// the colliding value.
const retriesPerElement = 16

// Backing returns a typed slice of n elements for the dtype. The concrete
// type is the slice type gorgonia expects for tensor.WithBacking.
func Backing(p *gopter.GenParameters, dt tensor.Dtype, n int, c Constraints) (interface{}, error) {
	switch dt {
	case tensor.Float64:
		return uniqueSlice(n, c, func() float64 {
			return draw.Float64In(p, clampFloat(c.Elements, -math.MaxFloat64, math.MaxFloat64))
		}, bumpFloat64(c.Elements))
	case tensor.Float32:
		return uniqueSlice(n, c, func() float32 {
			return draw.Float32In(p, clampFloat(c.Elements, -math.MaxFloat32, math.MaxFloat32))
		}, bumpFloat32(c.Elements))
	case tensor.Int8:
		return intSlice[int8](p, n, c, math.MinInt8, math.MaxInt8)
	case tensor.Int16:
		return intSlice[int16](p, n, c, math.MinInt16, math.MaxInt16)
	case tensor.Int32:
		return intSlice[int32](p, n, c, math.MinInt32, math.MaxInt32)
	case tensor.Int64:
		return intSlice[int64](p, n, c, math.MinInt64, math.MaxInt64)
	case tensor.Uint8:
		return uintSlice[uint8](p, n, c, math.MaxUint8)
	case tensor.Uint16:
		return uintSlice[uint16](p, n, c, math.MaxUint16)
	case tensor.Uint32:
		return uintSlice[uint32](p, n, c, math.MaxUint32)
	case tensor.Uint64:
		return uintSlice[uint64](p, n, c, math.MaxUint64)
	case tensor.Bool:
		return boolSlice(p, n, c)
	case tensor.Complex64:
		return uniqueSlice(n, c, func() complex64 {
			e := clampFloat(c.Elements, -math.MaxFloat32, math.MaxFloat32)
			return complex(draw.Float32In(p, e), draw.Float32In(p, e))
		}, nil)
	case tensor.Complex128:
		return uniqueSlice(n, c, func() complex128 {
			return draw.Complex128In(p, clampFloat(c.Elements, -math.MaxFloat64, math.MaxFloat64))
		}, nil)
	default:
		return nil, errors.NewConfigf(errors.ErrDTypeClass, "dtype", "unsupported dtype %v", dt)
	}
}

// Scalar returns a single element for the dtype.
func Scalar(p *gopter.GenParameters, dt tensor.Dtype, c Constraints) (interface{}, error) {
	c.Unique = false
	backing, err := Backing(p, dt, 1, c)
	if err != nil {
		return nil, err
	}
	switch s := backing.(type) {
	case []float64:
		return s[0], nil
	case []float32:
		return s[0], nil
	case []int8:
		return s[0], nil
	case []int16:
		return s[0], nil
	case []int32:
		return s[0], nil
	case []int64:
		return s[0], nil
	case []uint8:
		return s[0], nil
	case []uint16:
		return s[0], nil
	case []uint32:
		return s[0], nil
	case []uint64:
		return s[0], nil
	case []bool:
		return s[0], nil
	case []complex64:
		return s[0], nil
	case []complex128:
		return s[0], nil
	default:
		return nil, errors.NewConfigf(errors.ErrDTypeClass, "dtype", "unsupported dtype %v", dt)
	}
}

func clampFloat(c draw.FloatConstraints, lo, hi float64) draw.FloatConstraints {
	if c.Min < lo {
		c.Min = lo
	}
	if c.Max > hi {
		c.Max = hi
	}
	return c
}

// uniqueSlice fills n elements. With uniqueness requested it rejects
// duplicates, then bumps the colliding value; nil bump means rejection only.
func uniqueSlice[T comparable](n int, c Constraints, gen func() T, bump func(T, int) (T, bool)) ([]T, error) {
	out := make([]T, n)
	if !c.Unique {
		for i := range out {
			out[i] = gen()
		}
		return out, nil
	}
	seen := make(map[T]struct{}, n)
	for i := range out {
		v, ok := rejectDup(seen, gen)
		if !ok && bump != nil {
			v, ok = bumpDup(seen, v, n, bump)
		}
		if !ok {
			return nil, errors.NewConfigf(errors.ErrElementUnique, "unique",
				"could not draw %d distinct elements", n)
		}
		seen[v] = struct{}{}
		out[i] = v
	}
	return out, nil
}

func rejectDup[T comparable](seen map[T]struct{}, gen func() T) (T, bool) {
	var v T
	for attempt := 0; attempt < retriesPerElement; attempt++ {
		v = gen()
		if _, dup := seen[v]; !dup {
			return v, true
		}
	}
	return v, false
}

func bumpDup[T comparable](seen map[T]struct{}, v T, n int, bump func(T, int) (T, bool)) (T, bool) {
	for k := 1; k <= 4*n+4; k++ {
		nv, valid := bump(v, k)
		if !valid {
			break
		}
		if _, dup := seen[nv]; !dup {
			return nv, true
		}
	}
	return v, false
}

func bumpFloat64(c draw.FloatConstraints) func(float64, int) (float64, bool) {
	step := (c.Max - c.Min) / (1 << 30)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		step = 1e-9
	}
	return func(v float64, k int) (float64, bool) {
		nv := v + float64(k)*step
		if nv > c.Max {
			nv = v - float64(k)*step
		}
		if nv < c.Min || nv > c.Max {
			return 0, false
		}
		return nv, true
	}
}

func bumpFloat32(c draw.FloatConstraints) func(float32, int) (float32, bool) {
	f64 := bumpFloat64(c)
	return func(v float32, k int) (float32, bool) {
		nv, ok := f64(float64(v), k)
		return float32(nv), ok
	}
}

func intSlice[T int8 | int16 | int32 | int64](p *gopter.GenParameters, n int, c Constraints, typeMin, typeMax int64) ([]T, error) {
	lo, hi := intBounds(c.Elements, typeMin, typeMax)
	if c.Unique {
		if domain, ok := spanAtLeast(lo, hi, n); !ok {
			return nil, errors.NewConfigf(errors.ErrElementUnique, "unique",
				"domain [%d, %d] has %d values, need %d", lo, hi, domain, n)
		}
	}
	return uniqueSlice(n, c, func() T {
		return T(draw.Int64Range(p, lo, hi))
	}, func(v T, k int) (T, bool) {
		nv := int64(v) + int64(k)
		if nv > hi {
			nv = int64(v) - int64(k)
		}
		if nv < lo || nv > hi {
			return 0, false
		}
		return T(nv), true
	})
}

func uintSlice[T uint8 | uint16 | uint32 | uint64](p *gopter.GenParameters, n int, c Constraints, typeMax uint64) ([]T, error) {
	lo64, hi64 := intBounds(c.Elements, 0, math.MaxInt64)
	lo := uint64(lo64)
	hi := uint64(hi64)
	if hi > typeMax || c.Elements.Max >= float64(typeMax) {
		hi = typeMax
	}
	if c.Unique && hi-lo+1 != 0 && uint64(n) > hi-lo+1 {
		return nil, errors.NewConfigf(errors.ErrElementUnique, "unique",
			"domain [%d, %d] has %d values, need %d", lo, hi, hi-lo+1, n)
	}
	return uniqueSlice(n, c, func() T {
		return T(draw.Uint64Range(p, lo, hi))
	}, func(v T, k int) (T, bool) {
		nv := uint64(v) + uint64(k)
		if nv > hi || nv < uint64(v) {
			if uint64(v) < lo+uint64(k) {
				return 0, false
			}
			nv = uint64(v) - uint64(k)
		}
		if nv < lo || nv > hi {
			return 0, false
		}
		return T(nv), true
	})
}

func boolSlice(p *gopter.GenParameters, n int, c Constraints) ([]bool, error) {
	if c.Unique && n > 2 {
		return nil, errors.NewConfigf(errors.ErrElementUnique, "unique",
			"bool domain has 2 values, need %d", n)
	}
	return uniqueSlice(n, c, func() bool {
		return draw.Bool(p)
	}, func(v bool, _ int) (bool, bool) {
		return !v, true
	})
}

func intBounds(c draw.FloatConstraints, typeMin, typeMax int64) (int64, int64) {
	lo, hi := typeMin, typeMax
	if !math.IsInf(c.Min, 0) && c.Min > float64(typeMin) {
		lo = int64(math.Ceil(c.Min))
	}
	if !math.IsInf(c.Max, 0) && c.Max < float64(typeMax) {
		hi = int64(math.Floor(c.Max))
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

func spanAtLeast(lo, hi int64, n int) (uint64, bool) {
	span := uint64(hi-lo) + 1
	if span == 0 {
		// Wrapped: the domain covers the whole int64 range.
		return math.MaxUint64, true
	}
	return span, span >= uint64(n)
}
