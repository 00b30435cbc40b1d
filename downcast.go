package geoarrow

import "github.com/tingold/orb-geoarrow/geotraits"

// downcastState accumulates the kinds seen while inferring a downcast.
type downcastState struct {
	seen   bool
	dim    Dimension
	family geotraits.GeometryType
	multi  bool
	mixed  bool
}

// add records g, a row of an array of kind source, reporting false once no
// single target kind can hold every geometry seen so far. Part counts only
// matter for rows of multi arrays; elsewhere a row keeps its stored kind.
func (s *downcastState) add(g geotraits.Geometry, source Kind) bool {
	t := g.GeometryType()
	switch {
	case t == geotraits.RectType:
		t = geotraits.PolygonType
	case t == geotraits.GeometryCollectionType && source == KindGeometryCollection:
		gc := g.(geotraits.GeometryCollection)
		if gc.NumGeometries() == 1 {
			return s.add(gc.GeometryAt(0), KindGeometry)
		}
	case t.IsMulti():
		if !source.IsMulti() || geotraits.NumParts(g) != 1 {
			s.multi = true
		}
		t = t.Single()
	}
	if !s.seen {
		s.seen, s.dim, s.family = true, g.Dim(), t
		return true
	}
	if g.Dim() != s.dim || t != s.family {
		s.mixed = true
		return false
	}
	return true
}

func (s *downcastState) dataType(ct CoordType, md Metadata) (DataType, bool) {
	if !s.seen || s.mixed {
		return DataType{}, false
	}
	t := s.family
	if s.multi {
		t = t.Multi()
	}
	k, _ := KindOf(t)
	return NewDataType(k, s.dim, ct, md), true
}

// InferDowncastType returns the most compact native type able to hold every
// non-null row of arrs, or false when the rows disagree on kind or
// dimension or when every row is null. In a multi array a one-part row
// counts as its single-part kind, and in a collection array a one-element
// collection counts as its element. Geometry and serialized rows count as the
// kind they are stored as. All arrays must share one data type.
func InferDowncastType(arrs ...Array) (DataType, bool, error) {
	if len(arrs) == 0 {
		return DataType{}, false, nil
	}
	typ := arrs[0].DataType()
	var s downcastState
	for _, arr := range arrs {
		if arr.DataType() != typ {
			return DataType{}, false, errorf(ErrTypeMismatch, "chunks of %s and %s", typ, arr.DataType())
		}
		if typ.Kind == KindBox {
			return DataType{}, false, nil
		}
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			g, err := GeometryAt(arr, i)
			if err != nil {
				return DataType{}, false, err
			}
			if !s.add(g, typ.Kind) {
				return DataType{}, false, nil
			}
		}
	}
	dt, ok := s.dataType(typ.CoordType, typ.Metadata)
	return dt, ok, nil
}

// Downcast casts arr to the most compact native type holding all of its
// rows, with coordinates in layout ct. The array is returned unchanged when
// its rows do not share one kind and dimension.
func Downcast(arr Array, ct CoordType) (Array, error) {
	to, ok, err := InferDowncastType(arr)
	if err != nil || !ok {
		return arr, err
	}
	to = to.WithCoordType(ct)
	return Cast(arr, to)
}
