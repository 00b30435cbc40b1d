package geoarrow

import (
	"iter"
	"math"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// GeometryArray is a dense union over every geometry kind in every
// dimension. Row i lives at Offsets()[i] in the child selected by
// TypeIDs()[i]. Null rows point at a null slot of the XY point child.
type GeometryArray struct {
	baseArray
	typeIDs  []int8
	offsets  []int32
	children [4][8]NativeArray
}

// NewGeometryArray assembles a geometry array from union parts. children
// maps type ids to child arrays; missing children are empty.
func NewGeometryArray(typ DataType, typeIDs []int8, offsets []int32, children map[int8]NativeArray, validity Bitmap) (*GeometryArray, error) {
	if err := checkType(typ, KindGeometry, XY, typ.CoordType); err != nil {
		return nil, err
	}
	if len(typeIDs) != len(offsets) {
		return nil, errorf(ErrInvalidBuffers, "%d type ids but %d offsets", len(typeIDs), len(offsets))
	}
	validity, err := checkValidity(validity, len(typeIDs))
	if err != nil {
		return nil, err
	}
	a := &GeometryArray{baseArray: baseArray{typ: typ, validity: validity}, typeIDs: typeIDs, offsets: offsets}
	for id, child := range children {
		t, d, err := geotraits.TypeFromID(id)
		if err != nil {
			return nil, errorf(ErrInvalidBuffers, "child type id %d: %v", id, err)
		}
		want := NewDataType(Kind(t), d, typ.CoordType, typ.Metadata)
		if child.DataType() != want {
			return nil, errorf(ErrTypeMismatch, "child %d is %s, want %s", id, child.DataType(), want)
		}
		a.children[d][t] = child
	}
	a.fillEmpty()
	for i, id := range typeIDs {
		t, d, err := geotraits.TypeFromID(id)
		if err != nil {
			return nil, errorf(ErrInvalidBuffers, "row %d: %v", i, err)
		}
		if o := int(offsets[i]); o < 0 || o >= a.children[d][t].Len() {
			return nil, errorf(ErrInvalidBuffers, "row %d offset %d out of range for type id %d", i, o, id)
		}
	}
	return a, nil
}

func emptyArray(typ DataType) NativeArray {
	return NewBuilder(typ).FinishArray().(NativeArray)
}

// fillEmpty sets every missing child to an empty array.
func (a *GeometryArray) fillEmpty() {
	for d := XY; d <= XYZM; d++ {
		for t := geotraits.PointType; t <= geotraits.GeometryCollectionType; t++ {
			if a.children[d][t] == nil {
				a.children[d][t] = emptyArray(NewDataType(Kind(t), d, a.typ.CoordType, a.typ.Metadata))
			}
		}
	}
}

func (a *GeometryArray) TypeIDs() []int8  { return a.typeIDs }
func (a *GeometryArray) Offsets() []int32 { return a.offsets }

// Child returns the child array for a type id, or nil for an unknown id.
func (a *GeometryArray) Child(id int8) NativeArray {
	t, d, err := geotraits.TypeFromID(id)
	if err != nil {
		return nil
	}
	return a.children[d][t]
}

// Value returns row i, or false when it is null.
func (a *GeometryArray) Value(i int) (geotraits.Geometry, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	t, d, _ := geotraits.TypeFromID(a.typeIDs[i])
	return a.children[d][t].Geometry(int(a.offsets[i])), true
}

func (a *GeometryArray) Values() iter.Seq2[geotraits.Geometry, bool] {
	return values(a.Len(), a.Value)
}

func (a *GeometryArray) Geometry(i int) geotraits.Geometry {
	g, _ := a.Value(i)
	return g
}

func (a *GeometryArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

// HasOnly reports whether every valid row has type id id.
func (a *GeometryArray) HasOnly(id int8) bool {
	for i, t := range a.typeIDs {
		if a.IsValid(i) && t != id {
			return false
		}
	}
	return true
}

func (a *GeometryArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.typeIDs = a.typeIDs[off : off+n]
	out.offsets = a.offsets[off : off+n]
	return &out
}

func (a *GeometryArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	for d := range out.children {
		for t := 1; t <= 7; t++ {
			out.children[d][t] = a.children[d][t].WithMetadata(md).(NativeArray)
		}
	}
	return &out
}

func (a *GeometryArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	for d := range out.children {
		for t := 1; t <= 7; t++ {
			out.children[d][t] = a.children[d][t].IntoCoordType(ct)
		}
	}
	return &out
}

// GeometryBuilder builds a GeometryArray. Child builders are created on
// first use. With PreferMulti set in its capacity, single-part geometries
// are stored in the matching multi child.
type GeometryBuilder struct {
	typ         DataType
	preferMulti bool
	typeIDs     []int8
	offsets     []int32
	children    [4][8]Builder
	validity    BitmapBuilder
	finished    bool
}

func NewGeometryBuilder(typ DataType) *GeometryBuilder {
	return NewGeometryBuilderWithCapacity(typ, GeometryCapacity{})
}

func NewGeometryBuilderWithCapacity(typ DataType, capacity GeometryCapacity) *GeometryBuilder {
	mustKind(typ, KindGeometry)
	b := &GeometryBuilder{typ: typ, preferMulti: capacity.PreferMulti}
	b.Reserve(capacity)
	return b
}

func (b *GeometryBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *GeometryBuilder) Len() int { return b.validity.Len() }

func (b *GeometryBuilder) child(d Dimension, t geotraits.GeometryType) Builder {
	if b.children[d][t] == nil {
		b.children[d][t] = NewBuilder(NewDataType(Kind(t), d, b.typ.CoordType, b.typ.Metadata))
	}
	return b.children[d][t]
}

// Reserve reserves room in every child the capacity mentions.
func (b *GeometryBuilder) Reserve(c GeometryCapacity) {
	b.live()
	if cap(b.typeIDs)-len(b.typeIDs) < c.Geoms {
		ids := make([]int8, len(b.typeIDs), len(b.typeIDs)+c.Geoms)
		copy(ids, b.typeIDs)
		b.typeIDs = ids
		offs := make([]int32, len(b.offsets), len(b.offsets)+c.Geoms)
		copy(offs, b.offsets)
		b.offsets = offs
	}
	b.validity.Reserve(c.Geoms)
	for d := XY; d <= XYZM; d++ {
		pc := c.Point[d]
		if d == XY {
			pc.Geoms += c.Nulls
		}
		if pc.Geoms > 0 {
			b.child(d, geotraits.PointType).(*PointBuilder).Reserve(pc)
		}
		if c.LineString[d].Geoms > 0 {
			b.child(d, geotraits.LineStringType).(*LineStringBuilder).Reserve(c.LineString[d])
		}
		if c.Polygon[d].Geoms > 0 {
			b.child(d, geotraits.PolygonType).(*PolygonBuilder).Reserve(c.Polygon[d])
		}
		if c.MultiPoint[d].Geoms > 0 {
			b.child(d, geotraits.MultiPointType).(*MultiPointBuilder).Reserve(c.MultiPoint[d])
		}
		if c.MultiLineString[d].Geoms > 0 {
			b.child(d, geotraits.MultiLineStringType).(*MultiLineStringBuilder).Reserve(c.MultiLineString[d])
		}
		if c.MultiPolygon[d].Geoms > 0 {
			b.child(d, geotraits.MultiPolygonType).(*MultiPolygonBuilder).Reserve(c.MultiPolygon[d])
		}
		if c.GeometryCollection[d].Geoms > 0 {
			b.child(d, geotraits.GeometryCollectionType).(*GeometryCollectionBuilder).Reserve(c.GeometryCollection[d])
		}
	}
}

func (b *GeometryBuilder) ShrinkToFit() {
	b.live()
	b.typeIDs = append([]int8(nil), b.typeIDs...)
	b.offsets = append([]int32(nil), b.offsets...)
	b.validity.ShrinkToFit()
	for d := range b.children {
		for _, c := range b.children[d] {
			if c != nil {
				c.ShrinkToFit()
			}
		}
	}
}

// PushGeometry appends g to the child for its kind and dimension. A nil g
// appends a null row. Rects are stored as polygons.
func (b *GeometryBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	d := g.Dim()
	if !d.Valid() {
		return builderErrorf(b.Len(), ErrDimensionMismatch, "invalid dimension %s", d)
	}
	t := g.GeometryType()
	switch {
	case t == geotraits.RectType:
		t = geotraits.PolygonType
	case t < geotraits.PointType || t > geotraits.GeometryCollectionType:
		return builderErrorf(b.Len(), ErrWrongGeometryType, "unknown geometry type %s", t)
	}
	if b.preferMulti {
		t = t.Multi()
	}
	child := b.child(d, t)
	row := child.Len()
	if row >= math.MaxInt32 {
		return builderErrorf(b.Len(), ErrOffsetOverflow, "%s child is full", NewDataType(Kind(t), d, b.typ.CoordType, b.typ.Metadata))
	}
	if err := child.PushGeometry(g); err != nil {
		if be, ok := err.(*BuilderError); ok {
			be.Row = b.Len()
			return be
		}
		return builderErrorf(b.Len(), err, "geometry")
	}
	b.typeIDs = append(b.typeIDs, t.TypeID(d))
	b.offsets = append(b.offsets, int32(row))
	b.validity.Append(true)
	return nil
}

// PushNull appends a null row backed by a null XY point.
func (b *GeometryBuilder) PushNull() {
	b.live()
	child := b.child(XY, geotraits.PointType)
	row := child.Len()
	child.PushNull()
	b.typeIDs = append(b.typeIDs, geotraits.PointType.TypeID(XY))
	b.offsets = append(b.offsets, int32(row))
	b.validity.Append(false)
}

func (b *GeometryBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *GeometryBuilder) Finish() *GeometryArray {
	b.live()
	b.finished = true
	a := &GeometryArray{
		baseArray: baseArray{typ: b.typ, validity: b.validity.Finish()},
		typeIDs:   b.typeIDs,
		offsets:   b.offsets,
	}
	if a.typeIDs == nil {
		a.typeIDs, a.offsets = []int8{}, []int32{}
	}
	for d := XY; d <= XYZM; d++ {
		for t := geotraits.PointType; t <= geotraits.GeometryCollectionType; t++ {
			if c := b.children[d][t]; c != nil {
				a.children[d][t] = c.FinishArray().(NativeArray)
			}
		}
	}
	a.fillEmpty()
	return a
}
