package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// MultiPointArray is an array of multi points: one offset level from rows
// to positions.
type MultiPointArray struct {
	baseArray
	coords      CoordBuffer
	geomOffsets OffsetBuffer[int32]
}

// NewMultiPointArray assembles a multi point array from its buffers.
func NewMultiPointArray(typ DataType, coords CoordBuffer, geomOffsets OffsetBuffer[int32], validity Bitmap) (*MultiPointArray, error) {
	if err := checkType(typ, KindMultiPoint, coords.dim, coords.typ); err != nil {
		return nil, err
	}
	if err := geomOffsets.Validate(coords.Len()); err != nil {
		return nil, err
	}
	validity, err := checkValidity(validity, geomOffsets.Len())
	if err != nil {
		return nil, err
	}
	return &MultiPointArray{
		baseArray:   baseArray{typ: typ, validity: validity},
		coords:      coords,
		geomOffsets: geomOffsets,
	}, nil
}

func (a *MultiPointArray) Coords() *CoordBuffer             { return &a.coords }
func (a *MultiPointArray) GeomOffsets() OffsetBuffer[int32] { return a.geomOffsets }

func (a *MultiPointArray) Value(i int) (MultiPoint, bool) {
	if a.IsNull(i) {
		return MultiPoint{}, false
	}
	return MultiPoint{coords: &a.coords, start: a.geomOffsets.Start(i), end: a.geomOffsets.End(i)}, true
}

func (a *MultiPointArray) Values() iter.Seq2[MultiPoint, bool] { return values(a.Len(), a.Value) }

func (a *MultiPointArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *MultiPointArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *MultiPointArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *MultiPointArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *MultiPointArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// MultiPointBuilder builds a MultiPointArray.
type MultiPointBuilder struct {
	typ         DataType
	coords      *CoordBufferBuilder
	geomOffsets *OffsetBuilder[int32]
	validity    BitmapBuilder
	finished    bool
}

func NewMultiPointBuilder(typ DataType) *MultiPointBuilder {
	return NewMultiPointBuilderWithCapacity(typ, MultiPointCapacity{})
}

func NewMultiPointBuilderWithCapacity(typ DataType, capacity MultiPointCapacity) *MultiPointBuilder {
	mustKind(typ, KindMultiPoint)
	b := &MultiPointBuilder{
		typ:         typ,
		coords:      NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0),
		geomOffsets: NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *MultiPointBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *MultiPointBuilder) Len() int { return b.validity.Len() }

func (b *MultiPointBuilder) Reserve(c MultiPointCapacity) {
	b.live()
	b.coords.Reserve(c.Coords)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *MultiPointBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushMultiPoint appends m. A nil m appends a null row. Empty member
// points are stored as NaN positions.
func (b *MultiPointBuilder) PushMultiPoint(m geotraits.MultiPoint) error {
	b.live()
	if m == nil {
		b.PushNull()
		return nil
	}
	if err := checkMultiPoint(m, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid multi point")
	}
	if err := b.geomOffsets.Check(m.NumPoints()); err != nil {
		return builderErrorf(b.Len(), err, "multi point")
	}
	for i := 0; i < m.NumPoints(); i++ {
		if c, ok := m.PointAt(i).Coord(); ok {
			b.coords.pushCoord(c)
		} else {
			b.coords.PushNaN()
		}
	}
	b.geomOffsets.pushUnchecked(m.NumPoints())
	b.validity.Append(true)
	return nil
}

// PushPoint appends p as a one-part multi point.
func (b *MultiPointBuilder) PushPoint(p geotraits.Point) error {
	if p == nil {
		b.PushNull()
		return nil
	}
	return b.PushMultiPoint(pointAsMulti{p})
}

func (b *MultiPointBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a multi point, a point or a
// one-element collection holding either.
func (b *MultiPointBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	m, ok := promoteMulti(g, geotraits.MultiPointType)
	if !ok {
		return wrongType(b.Len(), g, KindMultiPoint)
	}
	return b.PushMultiPoint(m.(geotraits.MultiPoint))
}

func (b *MultiPointBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *MultiPointBuilder) Finish() *MultiPointArray {
	b.live()
	b.finished = true
	return &MultiPointArray{
		baseArray:   baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
	}
}
