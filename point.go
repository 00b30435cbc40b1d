package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// PointArray is an array of points, one position per row. Empty points
// are stored as NaN positions and null rows as NaN positions with a cleared
// validity bit.
type PointArray struct {
	baseArray
	coords CoordBuffer
}

// NewPointArray assembles a point array from its buffers.
func NewPointArray(typ DataType, coords CoordBuffer, validity Bitmap) (*PointArray, error) {
	if err := checkType(typ, KindPoint, coords.dim, coords.typ); err != nil {
		return nil, err
	}
	validity, err := checkValidity(validity, coords.Len())
	if err != nil {
		return nil, err
	}
	return &PointArray{baseArray: baseArray{typ: typ, validity: validity}, coords: coords}, nil
}

// Coords returns the coordinate buffer.
func (a *PointArray) Coords() *CoordBuffer { return &a.coords }

// Value returns row i, or false when it is null.
func (a *PointArray) Value(i int) (Point, bool) {
	if a.IsNull(i) {
		return Point{}, false
	}
	return Point{coords: &a.coords, i: i}, true
}

// Values yields every row as (scalar, valid).
func (a *PointArray) Values() iter.Seq2[Point, bool] { return values(a.Len(), a.Value) }

func (a *PointArray) Geometry(i int) geotraits.Geometry {
	if p, ok := a.Value(i); ok {
		return p
	}
	return nil
}

func (a *PointArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *PointArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	return &PointArray{
		baseArray: baseArray{typ: a.typ, validity: a.validity.Slice(off, n)},
		coords:    a.coords.Slice(off, n),
	}
}

func (a *PointArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *PointArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// PointBuilder builds a PointArray.
type PointBuilder struct {
	typ      DataType
	coords   *CoordBufferBuilder
	validity BitmapBuilder
	finished bool
}

// NewPointBuilder returns a builder for arrays of type typ, which must be a
// point type.
func NewPointBuilder(typ DataType) *PointBuilder {
	return NewPointBuilderWithCapacity(typ, PointCapacity{})
}

func NewPointBuilderWithCapacity(typ DataType, capacity PointCapacity) *PointBuilder {
	mustKind(typ, KindPoint)
	b := &PointBuilder{typ: typ, coords: NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0)}
	b.Reserve(capacity)
	return b
}

func (b *PointBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *PointBuilder) Len() int { return b.validity.Len() }

func (b *PointBuilder) Reserve(c PointCapacity) {
	b.live()
	b.coords.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *PointBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushPoint appends p. A nil p appends a null row.
func (b *PointBuilder) PushPoint(p geotraits.Point) error {
	b.live()
	if p == nil {
		b.PushNull()
		return nil
	}
	if err := checkPoint(p, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid point")
	}
	b.pushPoint(p)
	return nil
}

func (b *PointBuilder) pushPoint(p geotraits.Point) {
	if c, ok := p.Coord(); ok {
		b.coords.pushCoord(c)
	} else {
		b.coords.PushNaN()
	}
	b.validity.Append(true)
}

// PushEmpty appends an empty point.
func (b *PointBuilder) PushEmpty() {
	b.live()
	b.coords.PushNaN()
	b.validity.Append(true)
}

// PushNull appends a null row.
func (b *PointBuilder) PushNull() {
	b.live()
	b.coords.PushNaN()
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a point, a one-part multi point or
// a one-element collection holding one. A nil g appends a null row.
func (b *PointBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	s, ok := unwrapSingle(g, geotraits.PointType)
	if !ok {
		return wrongType(b.Len(), g, KindPoint)
	}
	return b.PushPoint(s.(geotraits.Point))
}

// PushOrb appends an orb geometry.
func (b *PointBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

// Finish returns the array. The builder cannot be used afterwards.
func (b *PointBuilder) Finish() *PointArray {
	b.live()
	b.finished = true
	return &PointArray{
		baseArray: baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:    b.coords.Finish(),
	}
}
