// Package arrowext moves geoarrow arrays across the Apache Arrow boundary.
//
// Arrays are exported as plain Arrow storage arrays (structs, lists, dense
// unions, binary and string columns) together with a field whose metadata
// carries the GeoArrow extension name and the serialized CRS and edges.
// Consumers that do not know the extension still see a valid Arrow layout.
package arrowext

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Field metadata keys of the Arrow extension type mechanism.
const (
	ExtensionNameKey     = "ARROW:extension:name"
	ExtensionMetadataKey = "ARROW:extension:metadata"
)

// ErrNotGeoArrow is returned by Import for fields without a GeoArrow
// extension name.
var ErrNotGeoArrow = errors.New("arrowext: field is not a geoarrow extension")

var axisNames = [4][]string{
	geoarrow.XY:   {"x", "y"},
	geoarrow.XYZ:  {"x", "y", "z"},
	geoarrow.XYM:  {"x", "y", "m"},
	geoarrow.XYZM: {"x", "y", "z", "m"},
}

// coordType is the storage of one position.
func coordType(dim geoarrow.Dimension, ct geoarrow.CoordType) arrow.DataType {
	if ct == geoarrow.Interleaved {
		return arrow.FixedSizeListOfField(int32(dim.Size()), arrow.Field{
			Name: dim.String(),
			Type: arrow.PrimitiveTypes.Float64,
		})
	}
	names := axisNames[dim]
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.StructOf(fields...)
}

func listOf(name string, elem arrow.DataType) arrow.DataType {
	return arrow.ListOfField(arrow.Field{Name: name, Type: elem})
}

// StorageType returns the physical Arrow type of arrays of type t.
func StorageType(t geoarrow.DataType) (arrow.DataType, error) {
	vertices := func() arrow.DataType { return coordType(t.Dim, t.CoordType) }
	switch t.Kind {
	case geoarrow.KindPoint:
		return vertices(), nil
	case geoarrow.KindLineString:
		return listOf("vertices", vertices()), nil
	case geoarrow.KindPolygon:
		return listOf("rings", listOf("vertices", vertices())), nil
	case geoarrow.KindMultiPoint:
		return listOf("points", vertices()), nil
	case geoarrow.KindMultiLineString:
		return listOf("linestrings", listOf("vertices", vertices())), nil
	case geoarrow.KindMultiPolygon:
		return listOf("polygons", listOf("rings", listOf("vertices", vertices()))), nil
	case geoarrow.KindGeometryCollection:
		return listOf("geometries", mixedType(t.Dim, t.CoordType, t.Metadata)), nil
	case geoarrow.KindGeometry:
		return geometryType(t.CoordType, t.Metadata), nil
	case geoarrow.KindBox:
		return boxType(t.Dim), nil
	case geoarrow.KindWKB:
		return arrow.BinaryTypes.Binary, nil
	case geoarrow.KindLargeWKB:
		return arrow.BinaryTypes.LargeBinary, nil
	case geoarrow.KindWKBView:
		return arrow.BinaryTypes.BinaryView, nil
	case geoarrow.KindWKT:
		return arrow.BinaryTypes.String, nil
	case geoarrow.KindLargeWKT:
		return arrow.BinaryTypes.LargeString, nil
	case geoarrow.KindWKTView:
		return arrow.BinaryTypes.StringView, nil
	}
	return nil, errors.Errorf("arrowext: no storage for %s", t)
}

func boxType(dim geoarrow.Dimension) arrow.DataType {
	names := axisNames[dim]
	fields := make([]arrow.Field, 0, 2*len(names))
	for _, name := range names {
		fields = append(fields, arrow.Field{Name: name + "min", Type: arrow.PrimitiveTypes.Float64})
	}
	for _, name := range names {
		fields = append(fields, arrow.Field{Name: name + "max", Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.StructOf(fields...)
}

// unionField names a union child after its WKT keyword and dimension tag,
// e.g. "Point" or "Polygon Z".
func unionField(t geotraits.GeometryType, dim geoarrow.Dimension, ct geoarrow.CoordType, md geoarrow.Metadata) arrow.Field {
	typ := geoarrow.NewDataType(geoarrow.Kind(t), dim, ct, md)
	storage, _ := StorageType(typ)
	name := t.String()
	if s := dim.Suffix(); s != "" {
		name += " " + s
	}
	f := arrow.Field{Name: name, Type: storage, Nullable: true}
	f.Metadata = extensionMetadata(typ)
	return f
}

// mixedType is the union of the six non-collection kinds in one dimension.
func mixedType(dim geoarrow.Dimension, ct geoarrow.CoordType, md geoarrow.Metadata) arrow.DataType {
	fields := make([]arrow.Field, 0, 6)
	codes := make([]arrow.UnionTypeCode, 0, 6)
	for t := geotraits.PointType; t <= geotraits.MultiPolygonType; t++ {
		fields = append(fields, unionField(t, dim, ct, md))
		codes = append(codes, t.TypeID(dim))
	}
	return arrow.DenseUnionOf(fields, codes)
}

// geometryType is the union of every kind in every dimension.
func geometryType(ct geoarrow.CoordType, md geoarrow.Metadata) arrow.DataType {
	fields := make([]arrow.Field, 0, 28)
	codes := make([]arrow.UnionTypeCode, 0, 28)
	for d := geoarrow.XY; d <= geoarrow.XYZM; d++ {
		for t := geotraits.PointType; t <= geotraits.GeometryCollectionType; t++ {
			fields = append(fields, unionField(t, d, ct, md))
			codes = append(codes, t.TypeID(d))
		}
	}
	return arrow.DenseUnionOf(fields, codes)
}

func extensionMetadata(t geoarrow.DataType) arrow.Metadata {
	md, err := t.Metadata.Serialize()
	if err != nil {
		md = "{}"
	}
	return arrow.NewMetadata(
		[]string{ExtensionNameKey, ExtensionMetadataKey},
		[]string{t.ExtensionName(), md},
	)
}

// Field returns a nullable field named name with the storage type of t
// and the GeoArrow extension metadata.
func Field(name string, t geoarrow.DataType) (arrow.Field, error) {
	storage, err := StorageType(t)
	if err != nil {
		return arrow.Field{}, err
	}
	md, err := t.Metadata.Serialize()
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{
		Name:     name,
		Type:     storage,
		Nullable: true,
		Metadata: arrow.NewMetadata(
			[]string{ExtensionNameKey, ExtensionMetadataKey},
			[]string{t.ExtensionName(), md},
		),
	}, nil
}
