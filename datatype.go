package geoarrow

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Dimension is re-exported from geotraits for convenience.
type Dimension = geotraits.Dimension

const (
	XY   = geotraits.XY
	XYZ  = geotraits.XYZ
	XYM  = geotraits.XYM
	XYZM = geotraits.XYZM
)

// Kind is the array variant described by a DataType.
type Kind int

const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindGeometryCollection
	KindGeometry
	KindBox
	KindWKB
	KindLargeWKB
	KindWKBView
	KindWKT
	KindLargeWKT
	KindWKTView
)

var kindNames = map[Kind]string{
	KindPoint:              "point",
	KindLineString:         "linestring",
	KindPolygon:            "polygon",
	KindMultiPoint:         "multipoint",
	KindMultiLineString:    "multilinestring",
	KindMultiPolygon:       "multipolygon",
	KindGeometryCollection: "geometrycollection",
	KindGeometry:           "geometry",
	KindBox:                "box",
	KindWKB:                "wkb",
	KindLargeWKB:           "large_wkb",
	KindWKBView:            "wkb_view",
	KindWKT:                "wkt",
	KindLargeWKT:           "large_wkt",
	KindWKTView:            "wkt_view",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("geoarrow: unknown kind %q", s)
}

// IsSerialized reports whether k is one of the WKB or WKT kinds.
func (k Kind) IsSerialized() bool { return k >= KindWKB && k <= KindWKTView }

// IsWKB reports whether k is one of the WKB kinds.
func (k Kind) IsWKB() bool { return k == KindWKB || k == KindLargeWKB || k == KindWKBView }

// IsWKT reports whether k is one of the WKT kinds.
func (k Kind) IsWKT() bool { return k == KindWKT || k == KindLargeWKT || k == KindWKTView }

func (k Kind) IsMulti() bool {
	return k == KindMultiPoint || k == KindMultiLineString || k == KindMultiPolygon
}

// IsNative reports whether k is stored as coordinates and offsets.
func (k Kind) IsNative() bool { return k >= KindPoint && k <= KindBox }

// HasDimension reports whether arrays of kind k are parameterized by a
// coordinate dimension. Geometry and the serialized kinds are dimensionless.
func (k Kind) HasDimension() bool { return k.IsNative() && k != KindGeometry }

// HasCoordType reports whether k has a choice of coordinate layout.
func (k Kind) HasCoordType() bool { return k.IsNative() && k != KindBox }

// GeometryType returns the geometry kind stored by a single-kind native
// array, or UnknownType.
func (k Kind) GeometryType() geotraits.GeometryType {
	switch k {
	case KindPoint:
		return geotraits.PointType
	case KindLineString:
		return geotraits.LineStringType
	case KindPolygon:
		return geotraits.PolygonType
	case KindMultiPoint:
		return geotraits.MultiPointType
	case KindMultiLineString:
		return geotraits.MultiLineStringType
	case KindMultiPolygon:
		return geotraits.MultiPolygonType
	case KindGeometryCollection:
		return geotraits.GeometryCollectionType
	case KindBox:
		return geotraits.RectType
	default:
		return geotraits.UnknownType
	}
}

// KindOf returns the single-kind native array kind storing t.
func KindOf(t geotraits.GeometryType) (Kind, bool) {
	switch t {
	case geotraits.PointType:
		return KindPoint, true
	case geotraits.LineStringType:
		return KindLineString, true
	case geotraits.PolygonType:
		return KindPolygon, true
	case geotraits.MultiPointType:
		return KindMultiPoint, true
	case geotraits.MultiLineStringType:
		return KindMultiLineString, true
	case geotraits.MultiPolygonType:
		return KindMultiPolygon, true
	case geotraits.GeometryCollectionType:
		return KindGeometryCollection, true
	case geotraits.RectType:
		return KindBox, true
	default:
		return 0, false
	}
}

// CoordType is the physical coordinate layout.
type CoordType int

const (
	// Separated stores one buffer per axis.
	Separated CoordType = iota
	// Interleaved stores one buffer of packed per-point tuples.
	Interleaved
)

func (c CoordType) String() string {
	if c == Interleaved {
		return "interleaved"
	}
	return "separated"
}

// ParseCoordType is the inverse of CoordType.String.
func ParseCoordType(s string) (CoordType, error) {
	switch s {
	case "separated", "separate", "":
		return Separated, nil
	case "interleaved":
		return Interleaved, nil
	default:
		return Separated, errors.Errorf("geoarrow: unknown coord type %q", s)
	}
}

// Edges is the edge interpolation between vertices. The empty value means
// planar edges.
type Edges string

const (
	EdgesPlanar    Edges = ""
	EdgesSpherical Edges = "spherical"
	EdgesVincenty  Edges = "vincenty"
	EdgesThomas    Edges = "thomas"
	EdgesAndoyer   Edges = "andoyer"
	EdgesKarney    Edges = "karney"
)

// CRSType says how a CRS value is to be interpreted.
type CRSType string

const (
	CRSUnknown       CRSType = ""
	CRSProjJSON      CRSType = "projjson"
	CRSWKT2          CRSType = "wkt2:2019"
	CRSAuthorityCode CRSType = "authority_code"
	CRSSRID          CRSType = "srid"
)

// CRS is an optional coordinate reference system. The zero value means no
// CRS. Value holds PROJJSON text, WKT2 text, an "AUTH:CODE" string or an
// opaque SRID depending on Type.
type CRS struct {
	Type  CRSType
	Value string
}

// IsZero reports whether no CRS is set.
func (c CRS) IsZero() bool { return c.Value == "" }

// EPSG returns the authority code CRS "EPSG:<code>".
func EPSG(code int) CRS {
	return CRS{Type: CRSAuthorityCode, Value: fmt.Sprintf("EPSG:%d", code)}
}

// Metadata is the GeoArrow extension metadata attached to every array.
type Metadata struct {
	CRS   CRS
	Edges Edges
}

type metadataJSON struct {
	CRS     json.RawMessage `json:"crs,omitempty"`
	CRSType CRSType         `json:"crs_type,omitempty"`
	Edges   Edges           `json:"edges,omitempty"`
}

// Serialize encodes md as GeoArrow extension metadata JSON. A PROJJSON CRS
// is embedded as an object, other CRS values as strings.
func (md Metadata) Serialize() (string, error) {
	var out metadataJSON
	if !md.CRS.IsZero() {
		if md.CRS.Type == CRSProjJSON && json.Valid([]byte(md.CRS.Value)) {
			out.CRS = json.RawMessage(md.CRS.Value)
		} else {
			raw, err := json.Marshal(md.CRS.Value)
			if err != nil {
				return "", errors.Wrap(err, "geoarrow: serializing crs")
			}
			out.CRS = raw
		}
		out.CRSType = md.CRS.Type
	}
	out.Edges = md.Edges
	data, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "geoarrow: serializing metadata")
	}
	return string(data), nil
}

// ParseMetadata decodes GeoArrow extension metadata JSON. The empty string
// decodes to the zero Metadata.
func ParseMetadata(s string) (Metadata, error) {
	var md Metadata
	if s == "" {
		return md, nil
	}
	var in metadataJSON
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return md, errors.Wrap(err, "geoarrow: parsing metadata")
	}
	md.Edges = in.Edges
	if len(in.CRS) > 0 && string(in.CRS) != "null" {
		var str string
		if err := json.Unmarshal(in.CRS, &str); err == nil {
			md.CRS = CRS{Type: in.CRSType, Value: str}
		} else {
			md.CRS = CRS{Type: CRSProjJSON, Value: string(in.CRS)}
		}
	}
	return md, nil
}

// DataType describes an array: its kind, dimension, coordinate layout and
// metadata. Fields that do not apply to the kind are always zero, so two
// descriptors are equal exactly when == says so.
type DataType struct {
	Kind      Kind
	Dim       Dimension
	CoordType CoordType
	Metadata  Metadata
}

// NewDataType returns a normalized DataType.
func NewDataType(kind Kind, dim Dimension, ct CoordType, md Metadata) DataType {
	t := DataType{Kind: kind, Dim: dim, CoordType: ct, Metadata: md}
	if !kind.HasDimension() {
		t.Dim = XY
	}
	if !kind.HasCoordType() {
		t.CoordType = Separated
	}
	return t
}

func PointType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindPoint, dim, ct, md)
}

func LineStringType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindLineString, dim, ct, md)
}

func PolygonType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindPolygon, dim, ct, md)
}

func MultiPointType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindMultiPoint, dim, ct, md)
}

func MultiLineStringType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindMultiLineString, dim, ct, md)
}

func MultiPolygonType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindMultiPolygon, dim, ct, md)
}

func GeometryCollectionType(dim Dimension, ct CoordType, md Metadata) DataType {
	return NewDataType(KindGeometryCollection, dim, ct, md)
}

// GeometryType is the dimensionless mixed geometry type.
func GeometryType(ct CoordType, md Metadata) DataType {
	return NewDataType(KindGeometry, XY, ct, md)
}

func BoxType(dim Dimension, md Metadata) DataType {
	return NewDataType(KindBox, dim, Separated, md)
}

// WKBType returns a WKB data type; kind must be one of the WKB kinds.
func WKBType(kind Kind, md Metadata) DataType { return NewDataType(kind, XY, Separated, md) }

// WKTType returns a WKT data type; kind must be one of the WKT kinds.
func WKTType(kind Kind, md Metadata) DataType { return NewDataType(kind, XY, Separated, md) }

// Dimension returns the dimension of dimension-aware types.
func (t DataType) Dimension() (Dimension, bool) {
	if !t.Kind.HasDimension() {
		return XY, false
	}
	return t.Dim, true
}

// WithCoordType returns t with its coordinate layout replaced.
func (t DataType) WithCoordType(ct CoordType) DataType {
	return NewDataType(t.Kind, t.Dim, ct, t.Metadata)
}

// WithMetadata returns t with its metadata replaced.
func (t DataType) WithMetadata(md Metadata) DataType {
	t.Metadata = md
	return t
}

// WithKind returns t retargeted to another kind, keeping what still applies.
func (t DataType) WithKind(k Kind) DataType {
	return NewDataType(k, t.Dim, t.CoordType, t.Metadata)
}

// ExtensionName is the Arrow extension type name of t.
func (t DataType) ExtensionName() string {
	switch {
	case t.Kind.IsWKB():
		return "geoarrow.wkb"
	case t.Kind.IsWKT():
		return "geoarrow.wkt"
	default:
		return "geoarrow." + t.Kind.String()
	}
}

func (t DataType) String() string {
	switch {
	case t.Kind.IsSerialized():
		return t.Kind.String()
	case t.Kind == KindGeometry:
		return fmt.Sprintf("geometry(%s)", t.CoordType)
	case t.Kind == KindBox:
		return fmt.Sprintf("box(%s)", t.Dim)
	default:
		return fmt.Sprintf("%s(%s, %s)", t.Kind, t.Dim, t.CoordType)
	}
}
