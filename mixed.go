package geoarrow

import (
	"math"

	"github.com/tingold/orb-geoarrow/geotraits"
)

// mixedArray is a dense union of the six non-collection kinds in one
// dimension. It backs the members of a GeometryCollectionArray. children
// is indexed by geometry type code; slot 0 and slot 7 are unused.
type mixedArray struct {
	dim      Dimension
	ct       CoordType
	typeIDs  []int8
	offsets  []int32
	children [8]NativeArray
}

func (m *mixedArray) Len() int { return len(m.typeIDs) }

func (m *mixedArray) geometry(i int) geotraits.Geometry {
	code := int(m.typeIDs[i]) % 10
	return m.children[code].Geometry(int(m.offsets[i]))
}

func (m *mixedArray) intoCoordType(ct CoordType) *mixedArray {
	if m.ct == ct {
		return m
	}
	out := *m
	out.ct = ct
	for code := 1; code <= 6; code++ {
		out.children[code] = m.children[code].IntoCoordType(ct)
	}
	return &out
}

func (m *mixedArray) withMetadata(md Metadata) *mixedArray {
	out := *m
	for code := 1; code <= 6; code++ {
		out.children[code] = m.children[code].WithMetadata(md).(NativeArray)
	}
	return &out
}

// newMixedArray checks and assembles union parts. Missing children are
// replaced by empty arrays.
func newMixedArray(dim Dimension, ct CoordType, md Metadata, typeIDs []int8, offsets []int32, children []NativeArray) (*mixedArray, error) {
	if len(typeIDs) != len(offsets) {
		return nil, errorf(ErrInvalidBuffers, "%d type ids but %d offsets", len(typeIDs), len(offsets))
	}
	m := &mixedArray{dim: dim, ct: ct, typeIDs: typeIDs, offsets: offsets}
	empty := newMixedBuilder(dim, ct, md, MixedCapacity{}).finish()
	for code := 1; code <= 6; code++ {
		var child NativeArray
		if code-1 < len(children) {
			child = children[code-1]
		}
		if child == nil {
			child = empty.children[code]
		}
		want := NewDataType(Kind(code), dim, ct, md)
		if child.DataType() != want {
			return nil, errorf(ErrTypeMismatch, "child %d is %s, want %s", code, child.DataType(), want)
		}
		m.children[code] = child
	}
	for i, id := range typeIDs {
		t, d, err := geotraits.TypeFromID(id)
		if err != nil || d != dim || t == geotraits.GeometryCollectionType {
			return nil, errorf(ErrInvalidBuffers, "row %d has type id %d, not valid for a %s collection", i, id, dim)
		}
		if o := int(offsets[i]); o < 0 || o >= m.children[t].Len() {
			return nil, errorf(ErrInvalidBuffers, "row %d offset %d out of range for %s child", i, o, t)
		}
	}
	return m, nil
}

// mixedBuilder builds a mixedArray.
type mixedBuilder struct {
	dim              Dimension
	ct               CoordType
	typeIDs          []int8
	offsets          []int32
	points           *PointBuilder
	lineStrings      *LineStringBuilder
	polygons         *PolygonBuilder
	multiPoints      *MultiPointBuilder
	multiLineStrings *MultiLineStringBuilder
	multiPolygons    *MultiPolygonBuilder
}

func newMixedBuilder(dim Dimension, ct CoordType, md Metadata, c MixedCapacity) *mixedBuilder {
	return &mixedBuilder{
		dim:              dim,
		ct:               ct,
		points:           NewPointBuilderWithCapacity(PointType(dim, ct, md), c.Point),
		lineStrings:      NewLineStringBuilderWithCapacity(LineStringType(dim, ct, md), c.LineString),
		polygons:         NewPolygonBuilderWithCapacity(PolygonType(dim, ct, md), c.Polygon),
		multiPoints:      NewMultiPointBuilderWithCapacity(MultiPointType(dim, ct, md), c.MultiPoint),
		multiLineStrings: NewMultiLineStringBuilderWithCapacity(MultiLineStringType(dim, ct, md), c.MultiLineString),
		multiPolygons:    NewMultiPolygonBuilderWithCapacity(MultiPolygonType(dim, ct, md), c.MultiPolygon),
	}
}

func (b *mixedBuilder) reserve(c MixedCapacity, n int) {
	if cap(b.typeIDs)-len(b.typeIDs) < n {
		ids := make([]int8, len(b.typeIDs), len(b.typeIDs)+n)
		copy(ids, b.typeIDs)
		b.typeIDs = ids
		offs := make([]int32, len(b.offsets), len(b.offsets)+n)
		copy(offs, b.offsets)
		b.offsets = offs
	}
	b.points.Reserve(c.Point)
	b.lineStrings.Reserve(c.LineString)
	b.polygons.Reserve(c.Polygon)
	b.multiPoints.Reserve(c.MultiPoint)
	b.multiLineStrings.Reserve(c.MultiLineString)
	b.multiPolygons.Reserve(c.MultiPolygon)
}

func (b *mixedBuilder) shrinkToFit() {
	b.typeIDs = append([]int8(nil), b.typeIDs...)
	b.offsets = append([]int32(nil), b.offsets...)
	b.points.ShrinkToFit()
	b.lineStrings.ShrinkToFit()
	b.polygons.ShrinkToFit()
	b.multiPoints.ShrinkToFit()
	b.multiLineStrings.ShrinkToFit()
	b.multiPolygons.ShrinkToFit()
}

// check reports whether the members counted in c still fit every offset
// buffer they would be appended to.
func (b *mixedBuilder) check(c MixedCapacity) error {
	rows := []struct {
		len, n int
	}{
		{b.points.Len(), c.Point.Geoms},
		{b.lineStrings.Len(), c.LineString.Geoms},
		{b.polygons.Len(), c.Polygon.Geoms},
		{b.multiPoints.Len(), c.MultiPoint.Geoms},
		{b.multiLineStrings.Len(), c.MultiLineString.Geoms},
		{b.multiPolygons.Len(), c.MultiPolygon.Geoms},
	}
	for _, r := range rows {
		if int64(r.len)+int64(r.n) > math.MaxInt32 {
			return errorf(ErrOffsetOverflow, "child would exceed %d rows", math.MaxInt32)
		}
	}
	checks := []struct {
		o *OffsetBuilder[int32]
		n int
	}{
		{b.lineStrings.geomOffsets, c.LineString.Coords},
		{b.polygons.geomOffsets, c.Polygon.Rings},
		{b.polygons.ringOffsets, c.Polygon.Coords},
		{b.multiPoints.geomOffsets, c.MultiPoint.Coords},
		{b.multiLineStrings.geomOffsets, c.MultiLineString.LineStrings},
		{b.multiLineStrings.ringOffsets, c.MultiLineString.Coords},
		{b.multiPolygons.geomOffsets, c.MultiPolygon.Polygons},
		{b.multiPolygons.polygonOffsets, c.MultiPolygon.Rings},
		{b.multiPolygons.ringOffsets, c.MultiPolygon.Coords},
	}
	for _, c := range checks {
		if err := c.o.Check(c.n); err != nil {
			return err
		}
	}
	return nil
}

// push appends g, which must already have passed checkCollectionMember.
func (b *mixedBuilder) push(g geotraits.Geometry) error {
	var (
		row int
		err error
	)
	t := g.GeometryType()
	switch t {
	case geotraits.PointType:
		row = b.points.Len()
		err = b.points.PushPoint(g.(geotraits.Point))
	case geotraits.LineStringType:
		row = b.lineStrings.Len()
		err = b.lineStrings.PushLineString(g.(geotraits.LineString))
	case geotraits.PolygonType:
		row = b.polygons.Len()
		err = b.polygons.PushPolygon(g.(geotraits.Polygon))
	case geotraits.RectType:
		t = geotraits.PolygonType
		row = b.polygons.Len()
		err = b.polygons.PushRect(g.(geotraits.Rect))
	case geotraits.MultiPointType:
		row = b.multiPoints.Len()
		err = b.multiPoints.PushMultiPoint(g.(geotraits.MultiPoint))
	case geotraits.MultiLineStringType:
		row = b.multiLineStrings.Len()
		err = b.multiLineStrings.PushMultiLineString(g.(geotraits.MultiLineString))
	case geotraits.MultiPolygonType:
		row = b.multiPolygons.Len()
		err = b.multiPolygons.PushMultiPolygon(g.(geotraits.MultiPolygon))
	default:
		return errorf(ErrNestedCollection, "cannot store %s in a collection", t)
	}
	if err != nil {
		return err
	}
	b.typeIDs = append(b.typeIDs, t.TypeID(b.dim))
	b.offsets = append(b.offsets, int32(row))
	return nil
}

func (b *mixedBuilder) finish() *mixedArray {
	m := &mixedArray{dim: b.dim, ct: b.ct, typeIDs: b.typeIDs, offsets: b.offsets}
	if m.typeIDs == nil {
		m.typeIDs, m.offsets = []int8{}, []int32{}
	}
	m.children[geotraits.PointType] = b.points.Finish()
	m.children[geotraits.LineStringType] = b.lineStrings.Finish()
	m.children[geotraits.PolygonType] = b.polygons.Finish()
	m.children[geotraits.MultiPointType] = b.multiPoints.Finish()
	m.children[geotraits.MultiLineStringType] = b.multiLineStrings.Finish()
	m.children[geotraits.MultiPolygonType] = b.multiPolygons.Finish()
	return m
}
