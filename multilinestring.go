package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// MultiLineStringArray is an array of multi line strings: rows to line
// strings, line strings to positions.
type MultiLineStringArray struct {
	baseArray
	coords      CoordBuffer
	geomOffsets OffsetBuffer[int32]
	ringOffsets OffsetBuffer[int32]
}

// NewMultiLineStringArray assembles a multi line string array from its
// buffers.
func NewMultiLineStringArray(typ DataType, coords CoordBuffer, geomOffsets, ringOffsets OffsetBuffer[int32], validity Bitmap) (*MultiLineStringArray, error) {
	if err := checkType(typ, KindMultiLineString, coords.dim, coords.typ); err != nil {
		return nil, err
	}
	if err := ringOffsets.Validate(coords.Len()); err != nil {
		return nil, err
	}
	if err := geomOffsets.Validate(ringOffsets.Len()); err != nil {
		return nil, err
	}
	validity, err := checkValidity(validity, geomOffsets.Len())
	if err != nil {
		return nil, err
	}
	return &MultiLineStringArray{
		baseArray:   baseArray{typ: typ, validity: validity},
		coords:      coords,
		geomOffsets: geomOffsets,
		ringOffsets: ringOffsets,
	}, nil
}

func (a *MultiLineStringArray) Coords() *CoordBuffer             { return &a.coords }
func (a *MultiLineStringArray) GeomOffsets() OffsetBuffer[int32] { return a.geomOffsets }
func (a *MultiLineStringArray) RingOffsets() OffsetBuffer[int32] { return a.ringOffsets }

func (a *MultiLineStringArray) Value(i int) (MultiLineString, bool) {
	if a.IsNull(i) {
		return MultiLineString{}, false
	}
	return MultiLineString{
		coords: &a.coords,
		lines:  &a.ringOffsets,
		start:  a.geomOffsets.Start(i),
		end:    a.geomOffsets.End(i),
	}, true
}

func (a *MultiLineStringArray) Values() iter.Seq2[MultiLineString, bool] {
	return values(a.Len(), a.Value)
}

func (a *MultiLineStringArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *MultiLineStringArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *MultiLineStringArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *MultiLineStringArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *MultiLineStringArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// MultiLineStringBuilder builds a MultiLineStringArray.
type MultiLineStringBuilder struct {
	typ         DataType
	coords      *CoordBufferBuilder
	geomOffsets *OffsetBuilder[int32]
	ringOffsets *OffsetBuilder[int32]
	validity    BitmapBuilder
	finished    bool
}

func NewMultiLineStringBuilder(typ DataType) *MultiLineStringBuilder {
	return NewMultiLineStringBuilderWithCapacity(typ, MultiLineStringCapacity{})
}

func NewMultiLineStringBuilderWithCapacity(typ DataType, capacity MultiLineStringCapacity) *MultiLineStringBuilder {
	mustKind(typ, KindMultiLineString)
	b := &MultiLineStringBuilder{
		typ:         typ,
		coords:      NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0),
		geomOffsets: NewOffsetBuilder[int32](0),
		ringOffsets: NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *MultiLineStringBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *MultiLineStringBuilder) Len() int { return b.validity.Len() }

func (b *MultiLineStringBuilder) Reserve(c MultiLineStringCapacity) {
	b.live()
	b.coords.Reserve(c.Coords)
	b.ringOffsets.Reserve(c.LineStrings)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *MultiLineStringBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.ringOffsets.ShrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushMultiLineString appends m. A nil m appends a null row.
func (b *MultiLineStringBuilder) PushMultiLineString(m geotraits.MultiLineString) error {
	b.live()
	if m == nil {
		b.PushNull()
		return nil
	}
	if err := checkMultiLineString(m, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid multi line string")
	}
	coords := 0
	for i := 0; i < m.NumLineStrings(); i++ {
		coords += m.LineStringAt(i).NumCoords()
	}
	if err := b.geomOffsets.Check(m.NumLineStrings()); err != nil {
		return builderErrorf(b.Len(), err, "multi line string")
	}
	if err := b.ringOffsets.Check(coords); err != nil {
		return builderErrorf(b.Len(), err, "multi line string")
	}
	for i := 0; i < m.NumLineStrings(); i++ {
		l := m.LineStringAt(i)
		for j := 0; j < l.NumCoords(); j++ {
			b.coords.pushCoord(l.CoordAt(j))
		}
		b.ringOffsets.pushUnchecked(l.NumCoords())
	}
	b.geomOffsets.pushUnchecked(m.NumLineStrings())
	b.validity.Append(true)
	return nil
}

// PushLineString appends l as a one-part multi line string.
func (b *MultiLineStringBuilder) PushLineString(l geotraits.LineString) error {
	if l == nil {
		b.PushNull()
		return nil
	}
	return b.PushMultiLineString(lineStringAsMulti{l})
}

func (b *MultiLineStringBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a multi line string, a line string
// or a one-element collection holding either.
func (b *MultiLineStringBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	m, ok := promoteMulti(g, geotraits.MultiLineStringType)
	if !ok {
		return wrongType(b.Len(), g, KindMultiLineString)
	}
	return b.PushMultiLineString(m.(geotraits.MultiLineString))
}

func (b *MultiLineStringBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *MultiLineStringBuilder) Finish() *MultiLineStringArray {
	b.live()
	b.finished = true
	return &MultiLineStringArray{
		baseArray:   baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		ringOffsets: b.ringOffsets.Finish(),
	}
}
