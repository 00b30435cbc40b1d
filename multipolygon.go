package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// MultiPolygonArray is an array of multi polygons: rows to polygons,
// polygons to rings, rings to positions.
type MultiPolygonArray struct {
	baseArray
	coords         CoordBuffer
	geomOffsets    OffsetBuffer[int32]
	polygonOffsets OffsetBuffer[int32]
	ringOffsets    OffsetBuffer[int32]
}

// NewMultiPolygonArray assembles a multi polygon array from its buffers.
func NewMultiPolygonArray(typ DataType, coords CoordBuffer, geomOffsets, polygonOffsets, ringOffsets OffsetBuffer[int32], validity Bitmap) (*MultiPolygonArray, error) {
	if err := checkType(typ, KindMultiPolygon, coords.dim, coords.typ); err != nil {
		return nil, err
	}
	if err := ringOffsets.Validate(coords.Len()); err != nil {
		return nil, err
	}
	if err := polygonOffsets.Validate(ringOffsets.Len()); err != nil {
		return nil, err
	}
	if err := geomOffsets.Validate(polygonOffsets.Len()); err != nil {
		return nil, err
	}
	validity, err := checkValidity(validity, geomOffsets.Len())
	if err != nil {
		return nil, err
	}
	return &MultiPolygonArray{
		baseArray:      baseArray{typ: typ, validity: validity},
		coords:         coords,
		geomOffsets:    geomOffsets,
		polygonOffsets: polygonOffsets,
		ringOffsets:    ringOffsets,
	}, nil
}

func (a *MultiPolygonArray) Coords() *CoordBuffer                { return &a.coords }
func (a *MultiPolygonArray) GeomOffsets() OffsetBuffer[int32]    { return a.geomOffsets }
func (a *MultiPolygonArray) PolygonOffsets() OffsetBuffer[int32] { return a.polygonOffsets }
func (a *MultiPolygonArray) RingOffsets() OffsetBuffer[int32]    { return a.ringOffsets }

func (a *MultiPolygonArray) Value(i int) (MultiPolygon, bool) {
	if a.IsNull(i) {
		return MultiPolygon{}, false
	}
	return MultiPolygon{
		coords:   &a.coords,
		polygons: &a.polygonOffsets,
		rings:    &a.ringOffsets,
		start:    a.geomOffsets.Start(i),
		end:      a.geomOffsets.End(i),
	}, true
}

func (a *MultiPolygonArray) Values() iter.Seq2[MultiPolygon, bool] { return values(a.Len(), a.Value) }

func (a *MultiPolygonArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *MultiPolygonArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *MultiPolygonArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *MultiPolygonArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

func (a *MultiPolygonArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.coords = a.coords.IntoCoordType(ct)
	return &out
}

// MultiPolygonBuilder builds a MultiPolygonArray.
type MultiPolygonBuilder struct {
	typ            DataType
	coords         *CoordBufferBuilder
	geomOffsets    *OffsetBuilder[int32]
	polygonOffsets *OffsetBuilder[int32]
	ringOffsets    *OffsetBuilder[int32]
	validity       BitmapBuilder
	finished       bool
}

func NewMultiPolygonBuilder(typ DataType) *MultiPolygonBuilder {
	return NewMultiPolygonBuilderWithCapacity(typ, MultiPolygonCapacity{})
}

func NewMultiPolygonBuilderWithCapacity(typ DataType, capacity MultiPolygonCapacity) *MultiPolygonBuilder {
	mustKind(typ, KindMultiPolygon)
	b := &MultiPolygonBuilder{
		typ:            typ,
		coords:         NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0),
		geomOffsets:    NewOffsetBuilder[int32](0),
		polygonOffsets: NewOffsetBuilder[int32](0),
		ringOffsets:    NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *MultiPolygonBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *MultiPolygonBuilder) Len() int { return b.validity.Len() }

func (b *MultiPolygonBuilder) Reserve(c MultiPolygonCapacity) {
	b.live()
	b.coords.Reserve(c.Coords)
	b.ringOffsets.Reserve(c.Rings)
	b.polygonOffsets.Reserve(c.Polygons)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *MultiPolygonBuilder) ShrinkToFit() {
	b.live()
	b.coords.ShrinkToFit()
	b.ringOffsets.ShrinkToFit()
	b.polygonOffsets.ShrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushMultiPolygon appends m. A nil m appends a null row.
func (b *MultiPolygonBuilder) PushMultiPolygon(m geotraits.MultiPolygon) error {
	b.live()
	if m == nil {
		b.PushNull()
		return nil
	}
	if err := checkMultiPolygon(m, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid multi polygon")
	}
	rings, coords := 0, 0
	for i := 0; i < m.NumPolygons(); i++ {
		p := m.PolygonAt(i)
		rings += polygonRings(p)
		coords += polygonCoords(p)
	}
	for _, c := range []struct {
		o *OffsetBuilder[int32]
		n int
	}{{b.geomOffsets, m.NumPolygons()}, {b.polygonOffsets, rings}, {b.ringOffsets, coords}} {
		if err := c.o.Check(c.n); err != nil {
			return builderErrorf(b.Len(), err, "multi polygon")
		}
	}
	for i := 0; i < m.NumPolygons(); i++ {
		p := m.PolygonAt(i)
		n := polygonRings(p)
		for r := 0; r < n; r++ {
			ring := geotraits.Ring(p, r)
			for j := 0; j < ring.NumCoords(); j++ {
				b.coords.pushCoord(ring.CoordAt(j))
			}
			b.ringOffsets.pushUnchecked(ring.NumCoords())
		}
		b.polygonOffsets.pushUnchecked(n)
	}
	b.geomOffsets.pushUnchecked(m.NumPolygons())
	b.validity.Append(true)
	return nil
}

// PushPolygon appends p as a one-part multi polygon.
func (b *MultiPolygonBuilder) PushPolygon(p geotraits.Polygon) error {
	if p == nil {
		b.PushNull()
		return nil
	}
	return b.PushMultiPolygon(polygonAsMulti{p})
}

func (b *MultiPolygonBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a multi polygon, a polygon, a rect
// or a one-element collection holding one of them.
func (b *MultiPolygonBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	if g.GeometryType() == geotraits.RectType {
		r := g.(geotraits.Rect)
		if err := checkRect(r, b.typ.Dim); err != nil {
			return builderErrorf(b.Len(), err, "invalid rect")
		}
		return b.PushPolygon(rectPolygon(r))
	}
	m, ok := promoteMulti(g, geotraits.MultiPolygonType)
	if !ok {
		return wrongType(b.Len(), g, KindMultiPolygon)
	}
	return b.PushMultiPolygon(m.(geotraits.MultiPolygon))
}

func (b *MultiPolygonBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *MultiPolygonBuilder) Finish() *MultiPolygonArray {
	b.live()
	b.finished = true
	return &MultiPolygonArray{
		baseArray:      baseArray{typ: b.typ, validity: b.validity.Finish()},
		coords:         b.coords.Finish(),
		geomOffsets:    b.geomOffsets.Finish(),
		polygonOffsets: b.polygonOffsets.Finish(),
		ringOffsets:    b.ringOffsets.Finish(),
	}
}
