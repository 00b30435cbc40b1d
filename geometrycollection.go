package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// GeometryCollectionArray is an array of geometry collections. Each row is
// a run of members in a dense union of the six other kinds, all in the
// array's dimension.
type GeometryCollectionArray struct {
	baseArray
	mixed       *mixedArray
	geomOffsets OffsetBuffer[int32]
}

// NewGeometryCollectionArray assembles a geometry collection array from
// union parts. children holds the point, line string, polygon, multi point,
// multi line string and multi polygon children in that order; nil entries
// stand for empty children.
func NewGeometryCollectionArray(typ DataType, typeIDs []int8, offsets []int32, children []NativeArray, geomOffsets OffsetBuffer[int32], validity Bitmap) (*GeometryCollectionArray, error) {
	if err := checkType(typ, KindGeometryCollection, typ.Dim, typ.CoordType); err != nil {
		return nil, err
	}
	mixed, err := newMixedArray(typ.Dim, typ.CoordType, typ.Metadata, typeIDs, offsets, children)
	if err != nil {
		return nil, err
	}
	if err := geomOffsets.Validate(mixed.Len()); err != nil {
		return nil, err
	}
	validity, err = checkValidity(validity, geomOffsets.Len())
	if err != nil {
		return nil, err
	}
	return &GeometryCollectionArray{
		baseArray:   baseArray{typ: typ, validity: validity},
		mixed:       mixed,
		geomOffsets: geomOffsets,
	}, nil
}

func (a *GeometryCollectionArray) GeomOffsets() OffsetBuffer[int32] { return a.geomOffsets }

// TypeIDs returns the union type id of every member.
func (a *GeometryCollectionArray) TypeIDs() []int8 { return a.mixed.typeIDs }

// Offsets returns the position of every member in its child.
func (a *GeometryCollectionArray) Offsets() []int32 { return a.mixed.offsets }

// Child returns the member child storing kind t.
func (a *GeometryCollectionArray) Child(t geotraits.GeometryType) NativeArray {
	if t < geotraits.PointType || t > geotraits.MultiPolygonType {
		return nil
	}
	return a.mixed.children[t]
}

func (a *GeometryCollectionArray) Value(i int) (GeometryCollection, bool) {
	if a.IsNull(i) {
		return GeometryCollection{}, false
	}
	return GeometryCollection{mixed: a.mixed, start: a.geomOffsets.Start(i), end: a.geomOffsets.End(i)}, true
}

func (a *GeometryCollectionArray) Values() iter.Seq2[GeometryCollection, bool] {
	return values(a.Len(), a.Value)
}

func (a *GeometryCollectionArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *GeometryCollectionArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *GeometryCollectionArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.geomOffsets = a.geomOffsets.Slice(off, n)
	return &out
}

func (a *GeometryCollectionArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	out.mixed = a.mixed.withMetadata(md)
	return &out
}

func (a *GeometryCollectionArray) IntoCoordType(ct CoordType) NativeArray {
	if a.typ.CoordType == ct {
		return a
	}
	out := *a
	out.typ = a.typ.WithCoordType(ct)
	out.mixed = a.mixed.intoCoordType(ct)
	return &out
}

// GeometryCollectionBuilder builds a GeometryCollectionArray.
type GeometryCollectionBuilder struct {
	typ         DataType
	mixed       *mixedBuilder
	geomOffsets *OffsetBuilder[int32]
	validity    BitmapBuilder
	finished    bool
}

func NewGeometryCollectionBuilder(typ DataType) *GeometryCollectionBuilder {
	return NewGeometryCollectionBuilderWithCapacity(typ, GeometryCollectionCapacity{})
}

func NewGeometryCollectionBuilderWithCapacity(typ DataType, capacity GeometryCollectionCapacity) *GeometryCollectionBuilder {
	mustKind(typ, KindGeometryCollection)
	b := &GeometryCollectionBuilder{
		typ:         typ,
		mixed:       newMixedBuilder(typ.Dim, typ.CoordType, typ.Metadata, MixedCapacity{}),
		geomOffsets: NewOffsetBuilder[int32](0),
	}
	b.Reserve(capacity)
	return b
}

func (b *GeometryCollectionBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *GeometryCollectionBuilder) Len() int { return b.validity.Len() }

func (b *GeometryCollectionBuilder) Reserve(c GeometryCollectionCapacity) {
	b.live()
	b.mixed.reserve(c.Mixed, c.Children)
	b.geomOffsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *GeometryCollectionBuilder) ShrinkToFit() {
	b.live()
	b.mixed.shrinkToFit()
	b.geomOffsets.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushGeometryCollection appends gc. A nil gc appends a null row. Members
// may not themselves be collections.
func (b *GeometryCollectionBuilder) PushGeometryCollection(gc geotraits.GeometryCollection) error {
	b.live()
	if gc == nil {
		b.PushNull()
		return nil
	}
	if err := checkGeometryCollection(gc, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid geometry collection")
	}
	var c GeometryCollectionCapacity
	c.AddGeometryCollection(gc)
	if err := b.geomOffsets.Check(gc.NumGeometries()); err != nil {
		return builderErrorf(b.Len(), err, "geometry collection")
	}
	if err := b.mixed.check(c.Mixed); err != nil {
		return builderErrorf(b.Len(), err, "geometry collection")
	}
	for i := 0; i < gc.NumGeometries(); i++ {
		if err := b.mixed.push(gc.GeometryAt(i)); err != nil {
			return builderErrorf(b.Len(), err, "geometry collection member %d", i)
		}
	}
	b.geomOffsets.pushUnchecked(gc.NumGeometries())
	b.validity.Append(true)
	return nil
}

func (b *GeometryCollectionBuilder) PushNull() {
	b.live()
	b.geomOffsets.pushUnchecked(0)
	b.validity.Append(false)
}

// PushGeometry appends g. Anything but a collection is stored as a
// collection of one.
func (b *GeometryCollectionBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	if g.GeometryType() == geotraits.GeometryCollectionType {
		return b.PushGeometryCollection(g.(geotraits.GeometryCollection))
	}
	return b.PushGeometryCollection(geotraits.GeometryCollectionValue{D: g.Dim(), Geometries: []geotraits.Geometry{g}})
}

func (b *GeometryCollectionBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *GeometryCollectionBuilder) Finish() *GeometryCollectionArray {
	b.live()
	b.finished = true
	return &GeometryCollectionArray{
		baseArray:   baseArray{typ: b.typ, validity: b.validity.Finish()},
		mixed:       b.mixed.finish(),
		geomOffsets: b.geomOffsets.Finish(),
	}
}
