package geoarrow

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// CoordBuffer holds the positions of an array in one of the two physical
// layouts. Separated keeps one slice per axis, Interleaved one packed slice
// of Dim().Size() ordinates per position.
type CoordBuffer struct {
	typ    CoordType
	dim    Dimension
	values []float64
	axes   [4][]float64
}

// NewSeparatedCoords wraps one slice per axis. Every axis must have the
// same length.
func NewSeparatedCoords(dim Dimension, axes ...[]float64) (CoordBuffer, error) {
	if len(axes) != dim.Size() {
		return CoordBuffer{}, errors.Wrapf(ErrInvalidBuffers, "%s needs %d axes, got %d", dim, dim.Size(), len(axes))
	}
	c := CoordBuffer{typ: Separated, dim: dim}
	for i, ax := range axes {
		if len(ax) != len(axes[0]) {
			return CoordBuffer{}, errors.Wrapf(ErrInvalidBuffers, "axis %d has %d values, axis 0 has %d", i, len(ax), len(axes[0]))
		}
		c.axes[i] = ax
	}
	return c, nil
}

// NewInterleavedCoords wraps a packed slice of positions.
func NewInterleavedCoords(dim Dimension, values []float64) (CoordBuffer, error) {
	if len(values)%dim.Size() != 0 {
		return CoordBuffer{}, errors.Wrapf(ErrInvalidBuffers, "%d values is not a multiple of %d", len(values), dim.Size())
	}
	return CoordBuffer{typ: Interleaved, dim: dim, values: values}, nil
}

func (c *CoordBuffer) Dim() Dimension       { return c.dim }
func (c *CoordBuffer) CoordType() CoordType { return c.typ }

// Len returns the number of positions.
func (c *CoordBuffer) Len() int {
	if c.typ == Interleaved {
		return len(c.values) / c.dim.Size()
	}
	return len(c.axes[0])
}

// Value returns ordinate axis of position i.
func (c *CoordBuffer) Value(i, axis int) float64 {
	if c.typ == Interleaved {
		return c.values[i*c.dim.Size()+axis]
	}
	return c.axes[axis][i]
}

// Coord returns a view of position i.
func (c *CoordBuffer) Coord(i int) geotraits.Coord {
	return coordView{buf: c, i: i}
}

// Values returns the packed ordinates of an interleaved buffer.
func (c *CoordBuffer) Values() []float64 { return c.values }

// Axis returns one axis of a separated buffer.
func (c *CoordBuffer) Axis(n int) []float64 { return c.axes[n] }

// Slice returns positions [off, off+n) sharing the backing slices.
func (c *CoordBuffer) Slice(off, n int) CoordBuffer {
	if off < 0 || n < 0 || off+n > c.Len() {
		panic("geoarrow: coordinate slice out of range")
	}
	out := CoordBuffer{typ: c.typ, dim: c.dim}
	if c.typ == Interleaved {
		size := c.dim.Size()
		out.values = c.values[off*size : (off+n)*size]
		return out
	}
	for i := 0; i < c.dim.Size(); i++ {
		out.axes[i] = c.axes[i][off : off+n]
	}
	return out
}

// IntoCoordType returns the buffer in layout ct. The buffer is returned
// as is when it already has that layout; otherwise the ordinates are copied.
func (c *CoordBuffer) IntoCoordType(ct CoordType) CoordBuffer {
	if c.typ == ct {
		return *c
	}
	n, size := c.Len(), c.dim.Size()
	out := CoordBuffer{typ: ct, dim: c.dim}
	if ct == Interleaved {
		out.values = make([]float64, n*size)
		for i := 0; i < n; i++ {
			for ax := 0; ax < size; ax++ {
				out.values[i*size+ax] = c.axes[ax][i]
			}
		}
		return out
	}
	for ax := 0; ax < size; ax++ {
		axis := make([]float64, n)
		for i := 0; i < n; i++ {
			axis[i] = c.values[i*size+ax]
		}
		out.axes[ax] = axis
	}
	return out
}

// isNaN reports whether every ordinate of position i is NaN.
func (c *CoordBuffer) isNaN(i int) bool {
	for ax := 0; ax < c.dim.Size(); ax++ {
		if !math.IsNaN(c.Value(i, ax)) {
			return false
		}
	}
	return true
}

type coordView struct {
	buf *CoordBuffer
	i   int
}

func (v coordView) Dim() Dimension     { return v.buf.dim }
func (v coordView) Nth(n int) float64 { return v.buf.Value(v.i, n) }
func (v coordView) X() float64        { return v.buf.Value(v.i, 0) }
func (v coordView) Y() float64        { return v.buf.Value(v.i, 1) }

// CoordBufferBuilder appends positions in a fixed layout and dimension.
type CoordBufferBuilder struct {
	typ    CoordType
	dim    Dimension
	values []float64
	axes   [4][]float64
}

// NewCoordBufferBuilder returns a builder with room for capacity positions.
func NewCoordBufferBuilder(dim Dimension, ct CoordType, capacity int) *CoordBufferBuilder {
	b := &CoordBufferBuilder{typ: ct, dim: dim}
	b.Reserve(capacity)
	return b
}

func (b *CoordBufferBuilder) Dim() Dimension { return b.dim }

func (b *CoordBufferBuilder) Len() int {
	if b.typ == Interleaved {
		return len(b.values) / b.dim.Size()
	}
	return len(b.axes[0])
}

// Reserve makes room for n more positions.
func (b *CoordBufferBuilder) Reserve(n int) {
	if b.typ == Interleaved {
		b.values = reserveFloats(b.values, n*b.dim.Size())
		return
	}
	for ax := 0; ax < b.dim.Size(); ax++ {
		b.axes[ax] = reserveFloats(b.axes[ax], n)
	}
}

func reserveFloats(s []float64, n int) []float64 {
	if cap(s)-len(s) >= n {
		return s
	}
	grown := make([]float64, len(s), len(s)+n)
	copy(grown, s)
	return grown
}

// ShrinkToFit releases unused capacity.
func (b *CoordBufferBuilder) ShrinkToFit() {
	if cap(b.values) > len(b.values) {
		b.values = append([]float64(nil), b.values...)
	}
	for ax := range b.axes {
		if cap(b.axes[ax]) > len(b.axes[ax]) {
			b.axes[ax] = append([]float64(nil), b.axes[ax]...)
		}
	}
}

// checkCoord validates c against the builder dimension without growing
// anything.
func checkCoord(c geotraits.Coord, dim Dimension) error {
	if c.Dim() != dim {
		return errors.Wrapf(ErrDimensionMismatch, "coordinate is %s, want %s", c.Dim(), dim)
	}
	for i := 0; i < dim.Size(); i++ {
		if math.IsInf(c.Nth(i), 0) {
			return errors.Wrapf(ErrNonFinite, "ordinate %d is %v", i, c.Nth(i))
		}
	}
	return nil
}

// PushCoord validates and appends c.
func (b *CoordBufferBuilder) PushCoord(c geotraits.Coord) error {
	if err := checkCoord(c, b.dim); err != nil {
		return err
	}
	b.pushCoord(c)
	return nil
}

func (b *CoordBufferBuilder) pushCoord(c geotraits.Coord) {
	if b.typ == Interleaved {
		for i := 0; i < b.dim.Size(); i++ {
			b.values = append(b.values, c.Nth(i))
		}
		return
	}
	for i := 0; i < b.dim.Size(); i++ {
		b.axes[i] = append(b.axes[i], c.Nth(i))
	}
}

// PushXY appends an XY position. It is only valid on XY builders.
func (b *CoordBufferBuilder) PushXY(x, y float64) error {
	return b.PushCoord(geotraits.XY2(x, y))
}

// PushNaN appends a position whose every ordinate is NaN, the encoding of
// an empty point.
func (b *CoordBufferBuilder) PushNaN() {
	nan := math.NaN()
	if b.typ == Interleaved {
		for i := 0; i < b.dim.Size(); i++ {
			b.values = append(b.values, nan)
		}
		return
	}
	for i := 0; i < b.dim.Size(); i++ {
		b.axes[i] = append(b.axes[i], nan)
	}
}

// appendBuffer appends every position of c, which must share the builder
// dimension.
func (b *CoordBufferBuilder) appendBuffer(c *CoordBuffer) {
	if b.typ == c.typ && b.typ == Interleaved {
		b.values = append(b.values, c.values...)
		return
	}
	if b.typ == c.typ {
		for ax := 0; ax < b.dim.Size(); ax++ {
			b.axes[ax] = append(b.axes[ax], c.axes[ax]...)
		}
		return
	}
	for i := 0; i < c.Len(); i++ {
		b.pushCoord(c.Coord(i))
	}
}

// Finish hands the ordinates to a CoordBuffer without copying.
func (b *CoordBufferBuilder) Finish() CoordBuffer {
	out := CoordBuffer{typ: b.typ, dim: b.dim, values: b.values, axes: b.axes}
	if b.typ == Separated {
		for ax := 0; ax < b.dim.Size(); ax++ {
			if out.axes[ax] == nil {
				out.axes[ax] = []float64{}
			}
		}
	} else if out.values == nil {
		out.values = []float64{}
	}
	b.values, b.axes = nil, [4][]float64{}
	return out
}
