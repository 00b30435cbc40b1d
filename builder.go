package geoarrow

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Builder is the kind-independent view of every builder in this package.
type Builder interface {
	DataType() DataType
	Len() int
	// PushGeometry appends g, or a null row when g is nil.
	PushGeometry(g geotraits.Geometry) error
	PushOrb(g orb.Geometry) error
	PushNull()
	ShrinkToFit()
	// FinishArray is Finish returning the Array interface.
	FinishArray() Array
}

// NewBuilder returns an empty builder for any data type. It panics on a
// type no builder exists for.
func NewBuilder(typ DataType) Builder {
	switch typ.Kind {
	case KindPoint:
		return NewPointBuilder(typ)
	case KindLineString:
		return NewLineStringBuilder(typ)
	case KindPolygon:
		return NewPolygonBuilder(typ)
	case KindMultiPoint:
		return NewMultiPointBuilder(typ)
	case KindMultiLineString:
		return NewMultiLineStringBuilder(typ)
	case KindMultiPolygon:
		return NewMultiPolygonBuilder(typ)
	case KindGeometryCollection:
		return NewGeometryCollectionBuilder(typ)
	case KindGeometry:
		return NewGeometryBuilder(typ)
	case KindBox:
		return NewBoxBuilder(typ)
	case KindWKB:
		return NewWKBBuilder[int32](typ.Metadata)
	case KindLargeWKB:
		return NewWKBBuilder[int64](typ.Metadata)
	case KindWKBView:
		return NewWKBViewBuilder(typ.Metadata)
	case KindWKT:
		return NewWKTBuilder[int32](typ.Metadata)
	case KindLargeWKT:
		return NewWKTBuilder[int64](typ.Metadata)
	case KindWKTView:
		return NewWKTViewBuilder(typ.Metadata)
	}
	panic(fmt.Sprintf("geoarrow: no builder for %s", typ))
}

func (b *PointBuilder) DataType() DataType              { return b.typ }
func (b *LineStringBuilder) DataType() DataType         { return b.typ }
func (b *PolygonBuilder) DataType() DataType            { return b.typ }
func (b *MultiPointBuilder) DataType() DataType         { return b.typ }
func (b *MultiLineStringBuilder) DataType() DataType    { return b.typ }
func (b *MultiPolygonBuilder) DataType() DataType       { return b.typ }
func (b *GeometryCollectionBuilder) DataType() DataType { return b.typ }
func (b *GeometryBuilder) DataType() DataType           { return b.typ }
func (b *BoxBuilder) DataType() DataType                { return b.typ }
func (b *varBuilder[O]) DataType() DataType             { return b.typ }
func (b *viewBuilder) DataType() DataType               { return b.typ }

func (b *PointBuilder) FinishArray() Array              { return b.Finish() }
func (b *LineStringBuilder) FinishArray() Array         { return b.Finish() }
func (b *PolygonBuilder) FinishArray() Array            { return b.Finish() }
func (b *MultiPointBuilder) FinishArray() Array         { return b.Finish() }
func (b *MultiLineStringBuilder) FinishArray() Array    { return b.Finish() }
func (b *MultiPolygonBuilder) FinishArray() Array       { return b.Finish() }
func (b *GeometryCollectionBuilder) FinishArray() Array { return b.Finish() }
func (b *GeometryBuilder) FinishArray() Array           { return b.Finish() }
func (b *BoxBuilder) FinishArray() Array                { return b.Finish() }
func (b *WKBBuilder[O]) FinishArray() Array             { return b.Finish() }
func (b *WKTBuilder[O]) FinishArray() Array             { return b.Finish() }
func (b *WKBViewBuilder) FinishArray() Array            { return b.Finish() }
func (b *WKTViewBuilder) FinishArray() Array            { return b.Finish() }

// FromGeometries builds an array of type typ from geoms. Nil entries become
// null rows.
func FromGeometries(typ DataType, geoms []geotraits.Geometry) (Array, error) {
	b := NewBuilder(typ)
	for _, g := range geoms {
		if err := b.PushGeometry(g); err != nil {
			return nil, err
		}
	}
	return b.FinishArray(), nil
}

// FromOrb builds an array of type typ from orb geometries.
func FromOrb(typ DataType, geoms []orb.Geometry) (Array, error) {
	b := NewBuilder(typ)
	for _, g := range geoms {
		if err := b.PushOrb(g); err != nil {
			return nil, err
		}
	}
	return b.FinishArray(), nil
}
