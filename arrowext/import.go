package arrowext

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// DataTypeOf returns the geoarrow type described by a field carrying
// GeoArrow extension metadata.
func DataTypeOf(field arrow.Field) (geoarrow.DataType, error) {
	idx := field.Metadata.FindKey(ExtensionNameKey)
	if idx < 0 || !strings.HasPrefix(field.Metadata.Values()[idx], "geoarrow.") {
		return geoarrow.DataType{}, ErrNotGeoArrow
	}
	name := strings.TrimPrefix(field.Metadata.Values()[idx], "geoarrow.")
	var md geoarrow.Metadata
	if i := field.Metadata.FindKey(ExtensionMetadataKey); i >= 0 {
		var err error
		if md, err = geoarrow.ParseMetadata(field.Metadata.Values()[i]); err != nil {
			return geoarrow.DataType{}, err
		}
	}

	switch name {
	case "wkb":
		switch field.Type.ID() {
		case arrow.BINARY:
			return geoarrow.WKBType(geoarrow.KindWKB, md), nil
		case arrow.LARGE_BINARY:
			return geoarrow.WKBType(geoarrow.KindLargeWKB, md), nil
		case arrow.BINARY_VIEW:
			return geoarrow.WKBType(geoarrow.KindWKBView, md), nil
		}
		return geoarrow.DataType{}, errors.Errorf("arrowext: wkb cannot be stored as %s", field.Type)
	case "wkt":
		switch field.Type.ID() {
		case arrow.STRING:
			return geoarrow.WKTType(geoarrow.KindWKT, md), nil
		case arrow.LARGE_STRING:
			return geoarrow.WKTType(geoarrow.KindLargeWKT, md), nil
		case arrow.STRING_VIEW:
			return geoarrow.WKTType(geoarrow.KindWKTView, md), nil
		}
		return geoarrow.DataType{}, errors.Errorf("arrowext: wkt cannot be stored as %s", field.Type)
	case "box":
		st, ok := field.Type.(*arrow.StructType)
		if !ok {
			return geoarrow.DataType{}, errors.Errorf("arrowext: box cannot be stored as %s", field.Type)
		}
		_, z := st.FieldIdx("zmin")
		_, m := st.FieldIdx("mmin")
		return geoarrow.BoxType(dimension(z, m), md), nil
	}

	kind, err := geoarrow.ParseKind(name)
	if err != nil || !kind.IsNative() {
		return geoarrow.DataType{}, errors.Errorf("arrowext: unknown extension geoarrow.%s", name)
	}
	dim, ct, err := coordLayout(field.Type)
	if err != nil {
		return geoarrow.DataType{}, err
	}
	return geoarrow.NewDataType(kind, dim, ct, md), nil
}

func dimension(z, m bool) geoarrow.Dimension {
	switch {
	case z && m:
		return geoarrow.XYZM
	case z:
		return geoarrow.XYZ
	case m:
		return geoarrow.XYM
	}
	return geoarrow.XY
}

// coordLayout finds the coordinate storage nested in dt and reads its
// dimension and layout.
func coordLayout(dt arrow.DataType) (geoarrow.Dimension, geoarrow.CoordType, error) {
	for {
		switch t := dt.(type) {
		case *arrow.ListType:
			dt = t.Elem()
		case *arrow.DenseUnionType:
			if len(t.Fields()) == 0 {
				return geoarrow.XY, geoarrow.Separated, errors.New("arrowext: union without children")
			}
			dt = t.Fields()[0].Type
		case *arrow.StructType:
			_, z := t.FieldIdx("z")
			_, m := t.FieldIdx("m")
			return dimension(z, m), geoarrow.Separated, nil
		case *arrow.FixedSizeListType:
			if d, ok := geotraits.DimensionFromSize(int(t.Len())); ok {
				if t.Len() == 3 && t.ElemField().Name == "xym" {
					d = geoarrow.XYM
				}
				return d, geoarrow.Interleaved, nil
			}
			return geoarrow.XY, geoarrow.Separated, errors.Errorf("arrowext: no dimension has %d ordinates", t.Len())
		default:
			return geoarrow.XY, geoarrow.Separated, errors.Errorf("arrowext: %s is not a coordinate type", dt)
		}
	}
}

// Import wraps an Arrow storage array described by field as a geoarrow
// array. Buffers are shared with arr, which must outlive the result.
func Import(field arrow.Field, arr arrow.Array) (geoarrow.Array, error) {
	typ, err := DataTypeOf(field)
	if err != nil {
		return nil, err
	}
	if !arrow.TypeEqual(arr.DataType(), field.Type) {
		return nil, errors.Errorf("arrowext: array is %s, field says %s", arr.DataType(), field.Type)
	}
	return importData(typ, arr.Data())
}

func bitmap(d arrow.ArrayData) geoarrow.Bitmap {
	if d.NullN() == 0 || d.Buffers()[0] == nil {
		return geoarrow.AllValid(d.Len())
	}
	return geoarrow.NewBitmap(d.Buffers()[0].Bytes(), d.Offset(), d.Len())
}

func bufferBytes(d arrow.ArrayData, i int) []byte {
	if i >= len(d.Buffers()) || d.Buffers()[i] == nil {
		return nil
	}
	return d.Buffers()[i].Bytes()
}

// float64Range returns n values of a float64 child starting at logical row
// off.
func float64Range(d arrow.ArrayData, off, n int) []float64 {
	vals := arrow.Float64Traits.CastFromBytes(bufferBytes(d, 1))
	start := d.Offset() + off
	return vals[start : start+n]
}

func listOffsets(d arrow.ArrayData) geoarrow.OffsetBuffer[int32] {
	vals := arrow.Int32Traits.CastFromBytes(bufferBytes(d, 1))
	if len(vals) == 0 {
		return geoarrow.NewOffsetBuffer([]int32{0})
	}
	return geoarrow.NewOffsetBuffer(vals[d.Offset() : d.Offset()+d.Len()+1])
}

func importCoords(dim geoarrow.Dimension, ct geoarrow.CoordType, d arrow.ArrayData) (geoarrow.CoordBuffer, error) {
	size := dim.Size()
	if ct == geoarrow.Interleaved {
		return geoarrow.NewInterleavedCoords(dim, float64Range(d.Children()[0], d.Offset()*size, d.Len()*size))
	}
	st := d.DataType().(*arrow.StructType)
	axes := make([][]float64, size)
	for ax, name := range axisNames[dim] {
		idx, ok := st.FieldIdx(name)
		if !ok {
			return geoarrow.CoordBuffer{}, errors.Errorf("arrowext: coordinates have no %q field", name)
		}
		axes[ax] = float64Range(d.Children()[idx], d.Offset(), d.Len())
	}
	return geoarrow.NewSeparatedCoords(dim, axes...)
}

// unionParts slices the type id and offset buffers of a dense union.
func unionParts(d arrow.ArrayData) ([]int8, []int32) {
	ids := arrow.Int8Traits.CastFromBytes(bufferBytes(d, 1))
	offs := arrow.Int32Traits.CastFromBytes(bufferBytes(d, 2))
	if d.Len() == 0 {
		return []int8{}, []int32{}
	}
	return ids[d.Offset() : d.Offset()+d.Len()], offs[d.Offset() : d.Offset()+d.Len()]
}

func importData(typ geoarrow.DataType, d arrow.ArrayData) (geoarrow.Array, error) {
	validity := bitmap(d)
	child := func(i int) arrow.ArrayData { return d.Children()[i] }
	coordsAt := func(c arrow.ArrayData) (geoarrow.CoordBuffer, error) {
		return importCoords(typ.Dim, typ.CoordType, c)
	}

	switch typ.Kind {
	case geoarrow.KindPoint:
		coords, err := coordsAt(d)
		if err != nil {
			return nil, err
		}
		return geoarrow.NewPointArray(typ, coords, validity)
	case geoarrow.KindLineString, geoarrow.KindMultiPoint:
		coords, err := coordsAt(child(0))
		if err != nil {
			return nil, err
		}
		if typ.Kind == geoarrow.KindLineString {
			return geoarrow.NewLineStringArray(typ, coords, listOffsets(d), validity)
		}
		return geoarrow.NewMultiPointArray(typ, coords, listOffsets(d), validity)
	case geoarrow.KindPolygon, geoarrow.KindMultiLineString:
		inner := child(0)
		coords, err := coordsAt(inner.Children()[0])
		if err != nil {
			return nil, err
		}
		if typ.Kind == geoarrow.KindPolygon {
			return geoarrow.NewPolygonArray(typ, coords, listOffsets(d), listOffsets(inner), validity)
		}
		return geoarrow.NewMultiLineStringArray(typ, coords, listOffsets(d), listOffsets(inner), validity)
	case geoarrow.KindMultiPolygon:
		polys := child(0)
		rings := polys.Children()[0]
		coords, err := coordsAt(rings.Children()[0])
		if err != nil {
			return nil, err
		}
		return geoarrow.NewMultiPolygonArray(typ, coords, listOffsets(d), listOffsets(polys), listOffsets(rings), validity)
	case geoarrow.KindGeometryCollection:
		members := child(0)
		ut := members.DataType().(*arrow.DenseUnionType)
		children := make([]geoarrow.NativeArray, 6)
		for i, code := range ut.TypeCodes() {
			t, dim, err := geotraits.TypeFromID(code)
			if err != nil || dim != typ.Dim || t > geotraits.MultiPolygonType {
				return nil, errors.Errorf("arrowext: collection member type code %d", code)
			}
			arr, err := importData(typ.WithKind(geoarrow.Kind(t)), members.Children()[i])
			if err != nil {
				return nil, err
			}
			children[t-1] = arr.(geoarrow.NativeArray)
		}
		ids, offs := unionParts(members)
		return geoarrow.NewGeometryCollectionArray(typ, ids, offs, children, listOffsets(d), validity)
	case geoarrow.KindGeometry:
		return importGeometry(typ, d)
	case geoarrow.KindBox:
		size := typ.Dim.Size()
		lo := make([][]float64, size)
		hi := make([][]float64, size)
		for ax := 0; ax < size; ax++ {
			lo[ax] = float64Range(child(ax), d.Offset(), d.Len())
			hi[ax] = float64Range(child(size+ax), d.Offset(), d.Len())
		}
		loBuf, err := geoarrow.NewSeparatedCoords(typ.Dim, lo...)
		if err != nil {
			return nil, err
		}
		hiBuf, err := geoarrow.NewSeparatedCoords(typ.Dim, hi...)
		if err != nil {
			return nil, err
		}
		return geoarrow.NewBoxArray(typ, loBuf, hiBuf, validity)
	case geoarrow.KindWKB, geoarrow.KindWKT:
		offs := listOffsets(d)
		data := bufferBytes(d, 2)
		if typ.Kind == geoarrow.KindWKB {
			return geoarrow.NewWKBArray(typ.Metadata, offs, data, validity)
		}
		return geoarrow.NewWKTArray(typ.Metadata, offs, data, validity)
	case geoarrow.KindLargeWKB, geoarrow.KindLargeWKT:
		vals := arrow.Int64Traits.CastFromBytes(bufferBytes(d, 1))
		offs := geoarrow.NewOffsetBuffer([]int64{0})
		if len(vals) > 0 {
			offs = geoarrow.NewOffsetBuffer(vals[d.Offset() : d.Offset()+d.Len()+1])
		}
		data := bufferBytes(d, 2)
		if typ.Kind == geoarrow.KindLargeWKB {
			return geoarrow.NewWKBArray(typ.Metadata, offs, data, validity)
		}
		return geoarrow.NewWKTArray(typ.Metadata, offs, data, validity)
	case geoarrow.KindWKBView, geoarrow.KindWKTView:
		views := arrow.ViewHeaderTraits.CastFromBytes(bufferBytes(d, 1))
		if len(views) > 0 {
			views = views[d.Offset() : d.Offset()+d.Len()]
		}
		buffers := make([][]byte, 0, len(d.Buffers())-2)
		for i := 2; i < len(d.Buffers()); i++ {
			buffers = append(buffers, bufferBytes(d, i))
		}
		if typ.Kind == geoarrow.KindWKBView {
			return geoarrow.NewWKBViewArray(typ.Metadata, views, buffers, validity)
		}
		return geoarrow.NewWKTViewArray(typ.Metadata, views, buffers, validity)
	}
	return nil, errors.Errorf("arrowext: cannot import %s", typ)
}

// importGeometry rebuilds a geometry array. Row validity is taken from the
// child slot each row points at.
func importGeometry(typ geoarrow.DataType, d arrow.ArrayData) (geoarrow.Array, error) {
	ut := d.DataType().(*arrow.DenseUnionType)
	children := make(map[int8]geoarrow.NativeArray, len(ut.TypeCodes()))
	for i, code := range ut.TypeCodes() {
		t, dim, err := geotraits.TypeFromID(code)
		if err != nil {
			return nil, errors.Wrapf(err, "arrowext: geometry child %d", i)
		}
		childType := geoarrow.NewDataType(geoarrow.Kind(t), dim, typ.CoordType, typ.Metadata)
		arr, err := importData(childType, d.Children()[i])
		if err != nil {
			return nil, err
		}
		children[code] = arr.(geoarrow.NativeArray)
	}
	ids, offs := unionParts(d)
	var validity geoarrow.BitmapBuilder
	for i, id := range ids {
		c, ok := children[id]
		if !ok || int(offs[i]) >= c.Len() || offs[i] < 0 {
			return nil, errors.Wrapf(geoarrow.ErrInvalidBuffers, "arrowext: row %d points at type id %d offset %d", i, id, offs[i])
		}
		validity.Append(c.IsValid(int(offs[i])))
	}
	return geoarrow.NewGeometryArray(typ, ids, offs, children, validity.Finish())
}
