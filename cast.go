package geoarrow

import "math"

// Cast converts arr to the data type to. The source array is never
// modified; on error the result is nil. Conversions that only reinterpret
// buffers share them with the source.
//
// Both types must carry the same metadata, and when both are dimension
// aware they must have the same dimension. Errors are *CastError values.
func Cast(arr Array, to DataType) (Array, error) {
	from := arr.DataType()
	to = NewDataType(to.Kind, to.Dim, to.CoordType, to.Metadata)
	if from == to {
		return arr, nil
	}
	if to.Kind < KindPoint || to.Kind > KindWKTView || (to.Kind.HasDimension() && !to.Dim.Valid()) {
		return nil, &CastError{Kind: UnsupportedConversion, From: from, To: to}
	}
	if from.Kind.HasDimension() && to.Kind.HasDimension() && from.Dim != to.Dim {
		return nil, &CastError{Kind: DimensionMismatch, From: from, To: to}
	}
	if from.Metadata != to.Metadata {
		return nil, &CastError{Kind: MetadataMismatch, From: from, To: to}
	}

	switch {
	case to.Kind.IsSerialized():
		return castToSerialized(arr, to)
	case from.Kind.IsSerialized():
		if to.Kind == KindBox {
			return nil, &CastError{Kind: UnsupportedConversion, From: from, To: to}
		}
		return castRows(arr, to)
	}

	src := arr.(NativeArray)
	switch {
	case from.Kind == to.Kind:
		return src.IntoCoordType(to.CoordType), nil
	case to.Kind == KindGeometry:
		return wrapGeometry(src, to), nil
	case to.Kind == KindGeometryCollection && from.Kind != KindBox:
		return castRows(arr, to)
	case isPromotion(from.Kind, to.Kind):
		return promote(src, to), nil
	case from.Kind == KindBox && to.Kind == KindPolygon:
		return boxPolygons(src.(*BoxArray), to), nil
	case isPromotion(to.Kind, from.Kind):
		return castRows(arr, to)
	case from.Kind == KindGeometry || from.Kind == KindGeometryCollection:
		if to.Kind == KindBox {
			break
		}
		return castRows(arr, to)
	}
	return nil, &CastError{Kind: UnsupportedConversion, From: from, To: to}
}

// isPromotion reports whether to is the multi-part kind of the single-part
// kind from.
func isPromotion(from, to Kind) bool {
	switch from {
	case KindPoint:
		return to == KindMultiPoint
	case KindLineString:
		return to == KindMultiLineString
	case KindPolygon:
		return to == KindMultiPolygon
	}
	return false
}

// castRows decodes every row of arr and pushes it into a builder for to.
func castRows(arr Array, to DataType) (Array, error) {
	b := NewBuilder(to)
	if r, ok := b.(interface{ Reserve(SerializedCapacity) }); ok {
		r.Reserve(SerializedCapacity{Geoms: arr.Len()})
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.PushNull()
			continue
		}
		g, err := GeometryAt(arr, i)
		if err != nil {
			return nil, rowFailure(arr.DataType(), to, i, err)
		}
		if err := b.PushGeometry(g); err != nil {
			return nil, rowFailure(arr.DataType(), to, i, err)
		}
	}
	return b.FinishArray(), nil
}

func castToSerialized(arr Array, to DataType) (Array, error) {
	from := arr.DataType()
	sameFamily := (from.Kind.IsWKB() && to.Kind.IsWKB()) || (from.Kind.IsWKT() && to.Kind.IsWKT())
	if !sameFamily {
		return castRows(arr, to)
	}
	switch a := arr.(type) {
	case *WKBArray[int32]:
		if to.Kind == KindLargeWKB {
			return &WKBArray[int64]{baseArray: baseArray{typ: to, validity: a.validity}, varData: widenVar(a.varData)}, nil
		}
	case *WKBArray[int64]:
		if to.Kind == KindWKB {
			v, row, err := narrowVar(a.varData)
			if err != nil {
				return nil, rowFailure(from, to, row, err)
			}
			return &WKBArray[int32]{baseArray: baseArray{typ: to, validity: a.validity}, varData: v}, nil
		}
	case *WKTArray[int32]:
		if to.Kind == KindLargeWKT {
			return &WKTArray[int64]{baseArray: baseArray{typ: to, validity: a.validity}, varData: widenVar(a.varData)}, nil
		}
	case *WKTArray[int64]:
		if to.Kind == KindWKT {
			v, row, err := narrowVar(a.varData)
			if err != nil {
				return nil, rowFailure(from, to, row, err)
			}
			return &WKTArray[int32]{baseArray: baseArray{typ: to, validity: a.validity}, varData: v}, nil
		}
	}
	return copyBytes(arr.(SerializedArray), to)
}

func widenVar(v varData[int32]) varData[int64] {
	return varData[int64]{offsets: Widen(v.offsets), data: v.data}
}

// narrowVar converts 64-bit offsets to 32-bit offsets, reporting the first
// row that cannot be addressed.
func narrowVar(v varData[int64]) (varData[int32], int, error) {
	o, err := Narrow(v.offsets)
	if err != nil {
		for i := 0; i < v.offsets.Len(); i++ {
			if v.offsets.End(i) > math.MaxInt32 {
				return varData[int32]{}, i, err
			}
		}
		return varData[int32]{}, 0, err
	}
	return varData[int32]{offsets: o, data: v.data}, 0, nil
}

// copyBytes moves encoded values between physical flavors of one encoding
// without decoding them.
func copyBytes(arr SerializedArray, to DataType) (Array, error) {
	b := NewBuilder(to).(interface {
		Builder
		PushBytes([]byte) error
	})
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.PushNull()
			continue
		}
		if err := b.PushBytes(arr.Bytes(i)); err != nil {
			return nil, rowFailure(arr.DataType(), to, i, err)
		}
	}
	return b.FinishArray(), nil
}

// wrapGeometry stores a single-kind array as the only child of a geometry
// array. Row i of the result is row i of the child.
func wrapGeometry(src NativeArray, to DataType) *GeometryArray {
	if box, ok := src.(*BoxArray); ok {
		src = boxPolygons(box, PolygonType(box.typ.Dim, to.CoordType, to.Metadata))
	}
	typ := src.DataType()
	t, d := typ.Kind.GeometryType(), typ.Dim
	n := src.Len()
	ids := make([]int8, n)
	offsets := make([]int32, n)
	id := t.TypeID(d)
	for i := range ids {
		ids[i] = id
		offsets[i] = int32(i)
	}
	out := &GeometryArray{
		baseArray: baseArray{typ: to, validity: src.Validity()},
		typeIDs:   ids,
		offsets:   offsets,
	}
	out.children[d][t] = src.IntoCoordType(to.CoordType)
	out.fillEmpty()
	return out
}

// promote wraps every row of a single-part array in a one-part multi. The
// coordinates and existing offsets are shared.
func promote(src NativeArray, to DataType) NativeArray {
	src = src.IntoCoordType(to.CoordType)
	unit := UnitOffsets[int32](src.Len())
	switch a := src.(type) {
	case *PointArray:
		return &MultiPointArray{
			baseArray:   baseArray{typ: to, validity: a.validity},
			coords:      a.coords,
			geomOffsets: unit,
		}
	case *LineStringArray:
		return &MultiLineStringArray{
			baseArray:   baseArray{typ: to, validity: a.validity},
			coords:      a.coords,
			geomOffsets: unit,
			ringOffsets: a.geomOffsets,
		}
	case *PolygonArray:
		return &MultiPolygonArray{
			baseArray:      baseArray{typ: to, validity: a.validity},
			coords:         a.coords,
			geomOffsets:    unit,
			polygonOffsets: a.geomOffsets,
			ringOffsets:    a.ringOffsets,
		}
	}
	panic("geoarrow: promote called on " + src.DataType().String())
}

// boxPolygons turns every box into a closed five position ring.
func boxPolygons(a *BoxArray, to DataType) *PolygonArray {
	b := NewPolygonBuilderWithCapacity(to, PolygonCapacity{Coords: 5 * a.Len(), Rings: a.Len(), Geoms: a.Len()})
	for i := 0; i < a.Len(); i++ {
		v, ok := a.Value(i)
		if !ok {
			b.PushNull()
			continue
		}
		b.pushPolygon(rectPolygon(v))
		b.validity.Append(true)
	}
	return b.Finish()
}
