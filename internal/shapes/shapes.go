// Package shapes provides stride and broadcast arithmetic over dimension
// slices. A shape is a row-major list of dimension sizes; rank 0 is a scalar.
package shapes

import (
	"errors"
	"fmt"
)

// ErrNotBroadcastable indicates two shapes that cannot be broadcast together.
var ErrNotBroadcastable = errors.New("shapes are not broadcastable")

// TotalSize returns the number of elements a shape addresses.
func TotalSize(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// ContiguousStrides returns row-major strides for a shape. A scalar has no
// strides; zero-sized dimensions yield zero strides for trailing axes.
func ContiguousStrides(dims []int) []int {
	if len(dims) == 0 {
		return nil
	}
	strides := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= dims[i]
	}
	return strides
}

// FlatIndex converts coordinates to a flat row-major offset.
func FlatIndex(coords, strides []int) (int, error) {
	if len(coords) != len(strides) {
		return 0, fmt.Errorf("flat index: %d coords for %d strides", len(coords), len(strides))
	}
	idx := 0
	for i, c := range coords {
		if c < 0 {
			return 0, fmt.Errorf("flat index: negative coordinate %d at axis %d", c, i)
		}
		idx += c * strides[i]
	}
	return idx, nil
}

// BroadcastShapes applies the trailing-alignment broadcast rule: axes are
// compared right to left, a size-1 axis stretches to match, missing leading
// axes count as size 1.
func BroadcastShapes(a, b []int) ([]int, error) {
	rank := len(a)
	if len(b) > rank {
		rank = len(b)
	}
	out := make([]int, rank)
	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}
		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
		case db == 1:
			out[rank-i] = da
		default:
			return nil, fmt.Errorf("%w: %v vs %v at axis -%d", ErrNotBroadcastable, a, b, i)
		}
	}
	return out, nil
}

// Equal reports whether two shapes have identical rank and dimensions.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
