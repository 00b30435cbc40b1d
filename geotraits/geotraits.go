// Package geotraits defines the minimal capability set shared by every
// geometry producer and consumer in orb-geoarrow: dimensions, geometry
// kinds, read-only geometry interfaces and owned geometry values.
//
// Builders accept anything implementing these interfaces and array scalars
// implement them, so a scalar can be pushed straight into another builder
// without going through a serialized form.
package geotraits

import (
	"fmt"

	"github.com/pkg/errors"
)

// Dimension is the coordinate dimension of a geometry.
type Dimension int

const (
	XY Dimension = iota
	XYZ
	XYM
	XYZM
)

// Size returns the number of ordinates per coordinate.
func (d Dimension) Size() int {
	switch d {
	case XYZ, XYM:
		return 3
	case XYZM:
		return 4
	default:
		return 2
	}
}

// HasZ reports whether the dimension carries a Z ordinate.
func (d Dimension) HasZ() bool { return d == XYZ || d == XYZM }

// HasM reports whether the dimension carries an M ordinate.
func (d Dimension) HasM() bool { return d == XYM || d == XYZM }

// Order is the dimension's position in the XY, XYZ, XYM, XYZM sequence.
// It is the tens digit of union type ids and the thousands digit of ISO WKB
// type codes.
func (d Dimension) Order() int { return int(d) }

// Valid reports whether d is one of the four known dimensions.
func (d Dimension) Valid() bool { return d >= XY && d <= XYZM }

func (d Dimension) String() string {
	switch d {
	case XY:
		return "xy"
	case XYZ:
		return "xyz"
	case XYM:
		return "xym"
	case XYZM:
		return "xyzm"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// Suffix is the WKT dimension tag ("", "Z", "M" or "ZM").
func (d Dimension) Suffix() string {
	switch d {
	case XYZ:
		return "Z"
	case XYM:
		return "M"
	case XYZM:
		return "ZM"
	default:
		return ""
	}
}

// DimensionFromOrder is the inverse of Dimension.Order.
func DimensionFromOrder(order int) (Dimension, error) {
	d := Dimension(order)
	if !d.Valid() {
		return XY, errors.Errorf("geotraits: invalid dimension order %d", order)
	}
	return d, nil
}

// DimensionFromSize maps a coordinate width to a dimension. A width of 3 is
// ambiguous and resolves to XYZ.
func DimensionFromSize(n int) (Dimension, bool) {
	switch n {
	case 2:
		return XY, true
	case 3:
		return XYZ, true
	case 4:
		return XYZM, true
	default:
		return XY, false
	}
}

// GeometryType identifies the topological kind of a geometry. The values of
// the seven simple feature kinds are their ISO WKB base codes.
type GeometryType int

const (
	UnknownType            GeometryType = 0
	PointType              GeometryType = 1
	LineStringType         GeometryType = 2
	PolygonType            GeometryType = 3
	MultiPointType         GeometryType = 4
	MultiLineStringType    GeometryType = 5
	MultiPolygonType       GeometryType = 6
	GeometryCollectionType GeometryType = 7
	RectType               GeometryType = 100
)

// WKBCode returns the ISO WKB type code of t in dimension d.
func (t GeometryType) WKBCode(d Dimension) uint32 {
	return uint32(t) + uint32(d.Order())*1000
}

// TypeID returns the union type id of t in dimension d.
func (t GeometryType) TypeID(d Dimension) int8 {
	return int8(d.Order()*10 + int(t))
}

// IsMulti reports whether t is one of the three multi-part kinds.
func (t GeometryType) IsMulti() bool {
	return t == MultiPointType || t == MultiLineStringType || t == MultiPolygonType
}

// Single returns the single-part kind of a multi-part kind, or t itself.
func (t GeometryType) Single() GeometryType {
	switch t {
	case MultiPointType:
		return PointType
	case MultiLineStringType:
		return LineStringType
	case MultiPolygonType:
		return PolygonType
	default:
		return t
	}
}

// Multi returns the multi-part kind of a single-part kind, or t itself.
func (t GeometryType) Multi() GeometryType {
	switch t {
	case PointType:
		return MultiPointType
	case LineStringType:
		return MultiLineStringType
	case PolygonType:
		return MultiPolygonType
	default:
		return t
	}
}

func (t GeometryType) String() string {
	switch t {
	case PointType:
		return "Point"
	case LineStringType:
		return "LineString"
	case PolygonType:
		return "Polygon"
	case MultiPointType:
		return "MultiPoint"
	case MultiLineStringType:
		return "MultiLineString"
	case MultiPolygonType:
		return "MultiPolygon"
	case GeometryCollectionType:
		return "GeometryCollection"
	case RectType:
		return "Rect"
	default:
		return "Unknown"
	}
}

// TypeFromID splits a union type id into kind and dimension.
func TypeFromID(id int8) (GeometryType, Dimension, error) {
	code := GeometryType(id % 10)
	if code < PointType || code > GeometryCollectionType {
		return UnknownType, XY, errors.Errorf("geotraits: invalid type id %d", id)
	}
	dim, err := DimensionFromOrder(int(id) / 10)
	if err != nil {
		return UnknownType, XY, err
	}
	return code, dim, nil
}

// Coord is a single position.
type Coord interface {
	Dim() Dimension
	// Nth returns ordinate n (0 = x, 1 = y, then z and/or m in dimension order).
	Nth(n int) float64
	X() float64
	Y() float64
}

// Geometry is implemented by every geometry value. Callers dispatch on
// GeometryType and assert to the matching interface below.
type Geometry interface {
	Dim() Dimension
	GeometryType() GeometryType
}

// Point is a single position that may be empty.
type Point interface {
	Geometry
	// Coord returns the position, or false when the point is empty.
	Coord() (Coord, bool)
}

// LineString is a sequence of positions.
type LineString interface {
	Geometry
	NumCoords() int
	CoordAt(i int) Coord
}

// Polygon is an exterior ring plus interior rings. An empty polygon has
// no exterior.
type Polygon interface {
	Geometry
	Exterior() (LineString, bool)
	NumInteriors() int
	Interior(i int) LineString
}

// MultiPoint is a collection of points.
type MultiPoint interface {
	Geometry
	NumPoints() int
	PointAt(i int) Point
}

// MultiLineString is a collection of line strings.
type MultiLineString interface {
	Geometry
	NumLineStrings() int
	LineStringAt(i int) LineString
}

// MultiPolygon is a collection of polygons.
type MultiPolygon interface {
	Geometry
	NumPolygons() int
	PolygonAt(i int) Polygon
}

// GeometryCollection is a heterogeneous collection of geometries.
type GeometryCollection interface {
	Geometry
	NumGeometries() int
	GeometryAt(i int) Geometry
}

// Rect is an axis aligned box.
type Rect interface {
	Geometry
	Min() Coord
	Max() Coord
}

// NumRings returns the number of rings of p, exterior included.
func NumRings(p Polygon) int {
	if _, ok := p.Exterior(); !ok {
		return 0
	}
	return 1 + p.NumInteriors()
}

// Ring returns ring i of p where ring 0 is the exterior.
func Ring(p Polygon, i int) LineString {
	if i == 0 {
		ext, _ := p.Exterior()
		return ext
	}
	return p.Interior(i - 1)
}

// NumParts returns the number of direct children of a multi geometry or
// collection, 1 for a non-empty single geometry and 0 for an empty one.
func NumParts(g Geometry) int {
	switch g.GeometryType() {
	case MultiPointType:
		return g.(MultiPoint).NumPoints()
	case MultiLineStringType:
		return g.(MultiLineString).NumLineStrings()
	case MultiPolygonType:
		return g.(MultiPolygon).NumPolygons()
	case GeometryCollectionType:
		return g.(GeometryCollection).NumGeometries()
	default:
		if IsEmpty(g) {
			return 0
		}
		return 1
	}
}
