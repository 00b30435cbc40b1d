package geotraits

import "math"

// CoordValue is an owned coordinate. Ordinates past D.Size() are ignored.
type CoordValue struct {
	D Dimension
	V [4]float64
}

// XY2 returns an XY coordinate.
func XY2(x, y float64) CoordValue { return CoordValue{D: XY, V: [4]float64{x, y}} }

// NewCoord returns a coordinate of dimension d from its ordinates.
func NewCoord(d Dimension, ords ...float64) CoordValue {
	c := CoordValue{D: d}
	copy(c.V[:d.Size()], ords)
	return c
}

// CoordOf copies any Coord into an owned value.
func CoordOf(c Coord) CoordValue {
	v := CoordValue{D: c.Dim()}
	for i := 0; i < v.D.Size(); i++ {
		v.V[i] = c.Nth(i)
	}
	return v
}

func (c CoordValue) Dim() Dimension     { return c.D }
func (c CoordValue) Nth(n int) float64 { return c.V[n] }
func (c CoordValue) X() float64        { return c.V[0] }
func (c CoordValue) Y() float64        { return c.V[1] }

// Z returns the Z ordinate, or NaN when the dimension has none.
func (c CoordValue) Z() float64 {
	if !c.D.HasZ() {
		return math.NaN()
	}
	return c.V[2]
}

// M returns the M ordinate, or NaN when the dimension has none.
func (c CoordValue) M() float64 {
	switch c.D {
	case XYM:
		return c.V[2]
	case XYZM:
		return c.V[3]
	default:
		return math.NaN()
	}
}

// PointValue is an owned point. A point whose ordinates are all NaN is empty.
type PointValue struct {
	C     CoordValue
	Empty bool
}

// NewPoint returns a non-empty point at c.
func NewPoint(c CoordValue) PointValue { return PointValue{C: c} }

// EmptyPoint returns an empty point of dimension d.
func EmptyPoint(d Dimension) PointValue {
	return PointValue{C: CoordValue{D: d}, Empty: true}
}

func (p PointValue) Dim() Dimension             { return p.C.D }
func (p PointValue) GeometryType() GeometryType { return PointType }

func (p PointValue) Coord() (Coord, bool) {
	if p.Empty {
		return nil, false
	}
	return p.C, true
}

// LineStringValue is an owned line string.
type LineStringValue struct {
	D      Dimension
	Coords []CoordValue
}

func (l LineStringValue) Dim() Dimension             { return l.D }
func (l LineStringValue) GeometryType() GeometryType { return LineStringType }
func (l LineStringValue) NumCoords() int             { return len(l.Coords) }
func (l LineStringValue) CoordAt(i int) Coord        { return l.Coords[i] }

// PolygonValue is an owned polygon. Rings[0] is the exterior.
type PolygonValue struct {
	D     Dimension
	Rings []LineStringValue
}

func (p PolygonValue) Dim() Dimension             { return p.D }
func (p PolygonValue) GeometryType() GeometryType { return PolygonType }

func (p PolygonValue) Exterior() (LineString, bool) {
	if len(p.Rings) == 0 {
		return nil, false
	}
	return p.Rings[0], true
}

func (p PolygonValue) NumInteriors() int {
	if len(p.Rings) == 0 {
		return 0
	}
	return len(p.Rings) - 1
}

func (p PolygonValue) Interior(i int) LineString { return p.Rings[i+1] }

// MultiPointValue is an owned multi point.
type MultiPointValue struct {
	D      Dimension
	Points []PointValue
}

func (m MultiPointValue) Dim() Dimension             { return m.D }
func (m MultiPointValue) GeometryType() GeometryType { return MultiPointType }
func (m MultiPointValue) NumPoints() int             { return len(m.Points) }
func (m MultiPointValue) PointAt(i int) Point        { return m.Points[i] }

// MultiLineStringValue is an owned multi line string.
type MultiLineStringValue struct {
	D           Dimension
	LineStrings []LineStringValue
}

func (m MultiLineStringValue) Dim() Dimension                { return m.D }
func (m MultiLineStringValue) GeometryType() GeometryType    { return MultiLineStringType }
func (m MultiLineStringValue) NumLineStrings() int           { return len(m.LineStrings) }
func (m MultiLineStringValue) LineStringAt(i int) LineString { return m.LineStrings[i] }

// MultiPolygonValue is an owned multi polygon.
type MultiPolygonValue struct {
	D        Dimension
	Polygons []PolygonValue
}

func (m MultiPolygonValue) Dim() Dimension             { return m.D }
func (m MultiPolygonValue) GeometryType() GeometryType { return MultiPolygonType }
func (m MultiPolygonValue) NumPolygons() int           { return len(m.Polygons) }
func (m MultiPolygonValue) PolygonAt(i int) Polygon    { return m.Polygons[i] }

// GeometryCollectionValue is an owned geometry collection.
type GeometryCollectionValue struct {
	D          Dimension
	Geometries []Geometry
}

func (g GeometryCollectionValue) Dim() Dimension             { return g.D }
func (g GeometryCollectionValue) GeometryType() GeometryType { return GeometryCollectionType }
func (g GeometryCollectionValue) NumGeometries() int         { return len(g.Geometries) }
func (g GeometryCollectionValue) GeometryAt(i int) Geometry  { return g.Geometries[i] }

// RectValue is an owned axis aligned box.
type RectValue struct {
	Lo, Hi CoordValue
}

func (r RectValue) Dim() Dimension             { return r.Lo.D }
func (r RectValue) GeometryType() GeometryType { return RectType }
func (r RectValue) Min() Coord                 { return r.Lo }
func (r RectValue) Max() Coord                 { return r.Hi }

// Polygon returns the closed five position ring covering r in XY. Higher
// ordinates are taken from the lower corner.
func (r RectValue) Polygon() PolygonValue {
	corner := func(x, y float64) CoordValue {
		c := r.Lo
		c.V[0], c.V[1] = x, y
		return c
	}
	ring := LineStringValue{D: r.Lo.D, Coords: []CoordValue{
		corner(r.Lo.V[0], r.Lo.V[1]),
		corner(r.Hi.V[0], r.Lo.V[1]),
		corner(r.Hi.V[0], r.Hi.V[1]),
		corner(r.Lo.V[0], r.Hi.V[1]),
		corner(r.Lo.V[0], r.Lo.V[1]),
	}}
	return PolygonValue{D: r.Lo.D, Rings: []LineStringValue{ring}}
}
