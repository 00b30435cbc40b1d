package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// LineStringArray is an array of line strings: one offset level from rows
// to positions.
type LineStringArray struct {
	baseArray
	coords      CoordBuffer
	geomOffsets OffsetBuffer[int32]
}

// NewLineStringArray assembles a line string array from its buffers.
func NewLineStringArray(typ DataType, coords CoordBuffer, geomOffsets OffsetBuffer[int32], validity Bitmap) (*LineStringArray, error) {
	if err := checkType(typ, KindLineString, coords.dim, coords.typ); err != nil {
		return nil, err
	}
	if err := geomOffsets.Validate(coords.Len()); err != nil {
		return nil, err
	}
	validity, err := checkValidity(validity, geomOffsets.Len())
	if err != nil {
		return nil, err
	}
	return &LineStringArray{
		baseArray:   baseArray{typ: typ, validity: validity},
		coords:      coords,
		geomOffsets: geomOffsets,
	}, nil
}

func (a *LineStringArray) Coords() *CoordBuffer             { return &a.coords }
func (a *LineStringArray) GeomOffsets() OffsetBuffer[int32] { return a.geomOffsets }

func (a *LineStringArray) Value(i int) (LineString, bool) {
	if a.IsNull(i) {
		return LineString{}, false
	}
	return LineString{coords: &a.coords, start: a.geomOffsets.Start(i), end: a.geomOffsets.End(i)}, true
}

func (a *LineStringArray) Values() iter.Seq2[LineString, bool] { return values(a.Len(), a.Value) }

func (a *LineStringArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *LineStringArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *LineStringArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *LineStringArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *LineStringArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// LineStringBuilder builds a LineStringArray.
type LineStringBuilder struct {
	typ         DataType
	coords      *CoordBufferBuilder
	geomOffsets *OffsetBuilder[int32]
	validity    BitmapBuilder
	finished    bool
}

func NewLineStringBuilder(typ DataType) *LineStringBuilder {
	return NewLineStringBuilderWithCapacity(typ, LineStringCapacity{})
}

func NewLineStringBuilderWithCapacity(typ DataType, capacity LineStringCapacity) *LineStringBuilder {
	mustKind(typ, KindLineString)
	b := &LineStringBuilder{
		typ:         typ,
		coords:      NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0),
		geomOffsets: NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *LineStringBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *LineStringBuilder) Len() int { return b.validity.Len() }

func (b *LineStringBuilder) Reserve(c LineStringCapacity) {
	b.live()
	b.coords.Reserve(c.Coords)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *LineStringBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushLineString appends l. A nil l appends a null row.
func (b *LineStringBuilder) PushLineString(l geotraits.LineString) error {
	b.live()
	if l == nil {
		b.PushNull()
		return nil
	}
	if err := checkLineString(l, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid line string")
	}
	if err := b.geomOffsets.Check(l.NumCoords()); err != nil {
		return builderErrorf(b.Len(), err, "line string")
	}
	for i := 0; i < l.NumCoords(); i++ {
		b.coords.pushCoord(l.CoordAt(i))
	}
	b.geomOffsets.pushUnchecked(l.NumCoords())
	b.validity.Append(true)
	return nil
}

func (b *LineStringBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a line string, a one-part multi
// line string or a one-element collection holding one.
func (b *LineStringBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	s, ok := unwrapSingle(g, geotraits.LineStringType)
	if !ok {
		return wrongType(b.Len(), g, KindLineString)
	}
	return b.PushLineString(s.(geotraits.LineString))
}

func (b *LineStringBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *LineStringBuilder) Finish() *LineStringArray {
	b.live()
	b.finished = true
	return &LineStringArray{
		baseArray:   baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
	}
}
