package tensorcheck

import (
	"github.com/leanovate/gopter"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck/errors"
	"github.com/tensorcheck/tensorcheck/internal/draw"
	"github.com/tensorcheck/tensorcheck/internal/shapes"
)

// Default shape bounds. Kept small so drawn tensors stay cheap.
const (
	defaultMinRank     = 1
	defaultMaxRank     = 4
	defaultMinDim      = 1
	defaultMaxDim      = 4
	defaultMaxElements = 256
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) or(fallback int) int {
	if !o.set {
		return fallback
	}
	return o.value
}

type intRangeOption struct {
	min, max int
	set      bool
}

// ShapeOptions configures the shape generator.
type ShapeOptions struct {
	rank        intRangeOption
	dim         intRangeOption
	maxElements intOption
	scalars     bool
}

// NewShapeOptions returns a default, valid shape options value.
func NewShapeOptions() ShapeOptions {
	return ShapeOptions{}
}

// WithRankRange bounds the number of dimensions.
func (o ShapeOptions) WithRankRange(min, max int) ShapeOptions {
	o.rank = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithDimRange bounds each dimension size.
func (o ShapeOptions) WithDimRange(min, max int) ShapeOptions {
	o.dim = intRangeOption{min: min, max: max, set: true}
	return o
}

// WithMaxElements caps the total element count of a generated shape.
func (o ShapeOptions) WithMaxElements(value int) ShapeOptions {
	o.maxElements = intOption{value: value, set: true}
	return o
}

// WithScalars permits rank-0 shapes.
func (o ShapeOptions) WithScalars(value bool) ShapeOptions {
	o.scalars = value
	return o
}

type resolvedShapeOptions struct {
	minRank, maxRank int
	minDim, maxDim   int
	maxElements      int
}

// Validate validates shape options values.
func (o ShapeOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o ShapeOptions) withDefaults() (resolvedShapeOptions, error) {
	r := resolvedShapeOptions{
		minRank:     defaultMinRank,
		maxRank:     defaultMaxRank,
		minDim:      defaultMinDim,
		maxDim:      defaultMaxDim,
		maxElements: o.maxElements.or(defaultMaxElements),
	}
	if o.rank.set {
		r.minRank, r.maxRank = o.rank.min, o.rank.max
	}
	if o.scalars && !o.rank.set {
		r.minRank = 0
	}
	if o.dim.set {
		r.minDim, r.maxDim = o.dim.min, o.dim.max
	}
	if r.minRank < 0 || r.minRank > r.maxRank {
		return r, errors.NewConfigf(errors.ErrShapeRange, "rank", "invalid rank range [%d, %d]", r.minRank, r.maxRank)
	}
	if r.minDim < 0 || r.minDim > r.maxDim {
		return r, errors.NewConfigf(errors.ErrShapeRange, "dim", "invalid dim range [%d, %d]", r.minDim, r.maxDim)
	}
	if r.maxElements < 1 {
		return r, errors.NewConfigf(errors.ErrShapeElements, "maxElements", "element cap %d is below 1", r.maxElements)
	}
	if minProduct(r.minDim, r.minRank) > r.maxElements {
		return r, errors.NewConfigf(errors.ErrShapeElements, "maxElements",
			"element cap %d cannot fit the minimal shape (%d dims of %d)", r.maxElements, r.minRank, r.minDim)
	}
	return r, nil
}

func minProduct(dim, rank int) int {
	n := 1
	for i := 0; i < rank; i++ {
		n *= dim
	}
	return n
}

// Shapes returns a generator for tensor shapes. Defaults are small: rank 1-4,
// dims 1-4, at most 256 elements.
func Shapes(opts ShapeOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.withDefaults()
		if err != nil {
			return emptyResultOf(tensor.Shape{})
		}
		return gopter.NewGenResult(drawShape(p, r), gopter.NoShrinker)
	}
}

// Broadcast applies the trailing-alignment broadcast rule to two shapes: axes
// are compared right to left, a size-1 axis stretches to match, missing
// leading axes count as size 1.
func Broadcast(a, b tensor.Shape) (tensor.Shape, error) {
	out, err := shapes.BroadcastShapes(a, b)
	if err != nil {
		return nil, errors.NewConfigf(errors.ErrShapeRange, "shape", "%v", err)
	}
	return tensor.Shape(out), nil
}

// BroadcastableShapes returns a generator for shapes that broadcast against
// base. Axes aligned with base keep its size or stretch from 1; leading extra
// axes obey the configured dim range. Rank bounds come from opts.
func BroadcastableShapes(base tensor.Shape, opts ShapeOptions) gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		r, err := opts.withDefaults()
		if err != nil {
			return emptyResultOf(tensor.Shape{})
		}
		return gopter.NewGenResult(drawBroadcastable(p, base, r), gopter.NoShrinker)
	}
}

func drawBroadcastable(p *gopter.GenParameters, base tensor.Shape, r resolvedShapeOptions) tensor.Shape {
	rank := draw.IntRange(p, r.minRank, r.maxRank)
	dims := make(tensor.Shape, rank)
	for i := 0; i < rank; i++ {
		bi := len(base) - rank + i
		switch {
		case bi >= 0 && draw.Bool(p):
			dims[i] = base[bi]
		case bi >= 0:
			dims[i] = 1
		default:
			lo := r.minDim
			if lo < 1 {
				lo = 1
			}
			dims[i] = draw.IntRange(p, lo, r.maxDim)
		}
	}
	return dims
}

func drawShape(p *gopter.GenParameters, r resolvedShapeOptions) tensor.Shape {
	rank := draw.IntRange(p, r.minRank, r.maxRank)
	dims := make(tensor.Shape, 0, rank)
	product := 1
	floor := r.minDim
	if floor < 1 {
		floor = 1
	}
	for i := 0; i < rank; i++ {
		// Reserve room for the mandatory axes still to come, so each of them
		// can be at least minDim without the product passing the element cap.
		reserve := 1
		for j := len(dims) + 1; j < r.minRank; j++ {
			reserve *= floor
		}
		hi := r.maxDim
		if room := r.maxElements / (product * reserve); room < hi {
			hi = room
		}
		if hi < r.minDim {
			// The cap cannot fit another axis; the rank floor is already met,
			// since withDefaults guarantees the minimal shape fits.
			break
		}
		d := draw.IntRange(p, r.minDim, hi)
		dims = append(dims, d)
		if d > 0 {
			product *= d
		}
	}
	return dims
}
