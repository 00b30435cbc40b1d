package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// PolygonArray is an array of polygons: rows to rings, rings to positions.
type PolygonArray struct {
	baseArray
	coords      CoordBuffer
	geomOffsets OffsetBuffer[int32]
	ringOffsets OffsetBuffer[int32]
}

// NewPolygonArray assembles a polygon array from its buffers.
func NewPolygonArray(typ DataType, coords CoordBuffer, geomOffsets, ringOffsets OffsetBuffer[int32], validity Bitmap) (*PolygonArray, error) {
	if err := checkType(typ, KindPolygon, coords.dim, coords.typ); err != nil {
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
	return &PolygonArray{
		baseArray:   baseArray{typ: typ, validity: validity},
		coords:      coords,
		geomOffsets: geomOffsets,
		ringOffsets: ringOffsets,
	}, nil
}

func (a *PolygonArray) Coords() *CoordBuffer             { return &a.coords }
func (a *PolygonArray) GeomOffsets() OffsetBuffer[int32] { return a.geomOffsets }
func (a *PolygonArray) RingOffsets() OffsetBuffer[int32] { return a.ringOffsets }

func (a *PolygonArray) Value(i int) (Polygon, bool) {
	if a.IsNull(i) {
		return Polygon{}, false
	}
	return Polygon{
		coords: &a.coords,
		rings:  &a.ringOffsets,
		start:  a.geomOffsets.Start(i),
		end:    a.geomOffsets.End(i),
	}, true
}

func (a *PolygonArray) Values() iter.Seq2[Polygon, bool] { return values(a.Len(), a.Value) }

func (a *PolygonArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *PolygonArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *PolygonArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *PolygonArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *PolygonArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// PolygonBuilder builds a PolygonArray.
type PolygonBuilder struct {
	typ         DataType
	coords      *CoordBufferBuilder
	geomOffsets *OffsetBuilder[int32]
	ringOffsets *OffsetBuilder[int32]
	validity    BitmapBuilder
	finished    bool
}

func NewPolygonBuilder(typ DataType) *PolygonBuilder {
	return NewPolygonBuilderWithCapacity(typ, PolygonCapacity{})
}

func NewPolygonBuilderWithCapacity(typ DataType, capacity PolygonCapacity) *PolygonBuilder {
	mustKind(typ, KindPolygon)
	b := &PolygonBuilder{
		typ:         typ,
		coords:      NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0),
		geomOffsets: NewOffsetBuilder[int32](0),
		ringOffsets: NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *PolygonBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *PolygonBuilder) Len() int { return b.validity.Len() }

func (b *PolygonBuilder) Reserve(c PolygonCapacity) {
	b.live()
	b.coords.Reserve(c.Coords)
	b.ringOffsets.Reserve(c.Rings)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *PolygonBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.ringOffsets.ShrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushPolygon appends p. A nil p appends a null row. An exterior ring
// without positions and without interiors is stored as an empty polygon.
func (b *PolygonBuilder) PushPolygon(p geotraits.Polygon) error {
	b.live()
	if p == nil {
		b.PushNull()
		return nil
	}
	if err := checkPolygon(p, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid polygon")
	}
	if err := b.check(p); err != nil {
		return builderErrorf(b.Len(), err, "polygon")
	}
	b.pushPolygon(p)
	b.validity.Append(true)
	return nil
}

func (b *PolygonBuilder) check(p geotraits.Polygon) error {
	if err := b.geomOffsets.Check(polygonRings(p)); err != nil {
		return err
	}
	return b.ringOffsets.Check(polygonCoords(p))
}

func (b *PolygonBuilder) pushPolygon(p geotraits.Polygon) {
	n := polygonRings(p)
	for i := 0; i < n; i++ {
		ring := geotraits.Ring(p, i)
		for j := 0; j < ring.NumCoords(); j++ {
			b.coords.pushCoord(ring.CoordAt(j))
		}
		b.ringOffsets.pushUnchecked(ring.NumCoords())
	}
	b.geomOffsets.pushUnchecked(n)
}

// PushRect appends the polygon covering r.
func (b *PolygonBuilder) PushRect(r geotraits.Rect) error {
	b.live()
	if r == nil {
		b.PushNull()
		return nil
	}
	if err := checkRect(r, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid rect")
	}
	return b.PushPolygon(rectPolygon(r))
}

func (b *PolygonBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a polygon, a rect, a one-part multi
// polygon or a one-element collection holding one.
func (b *PolygonBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	if g.GeometryType() == geotraits.RectType {
		return b.PushRect(g.(geotraits.Rect))
	}
	s, ok := unwrapSingle(g, geotraits.PolygonType)
	if !ok {
		return wrongType(b.Len(), g, KindPolygon)
	}
	return b.PushPolygon(s.(geotraits.Polygon))
}

func (b *PolygonBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *PolygonBuilder) Finish() *PolygonArray {
	b.live()
	b.finished = true
	return &PolygonArray{
		baseArray:   baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:      b.coords.Finish(),
		geomOffsets: b.geomOffsets.Finish(),
		ringOffsets: b.ringOffsets.Finish(),
	}
}
