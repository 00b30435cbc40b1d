package geoarrow

import (
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Scalars are borrowed views into an array's buffers. They are cheap to
// copy, implement the matching geotraits interface and stay valid for as
// long as the array they came from is reachable.

// Point is a point scalar.
type Point struct {
	coords *CoordBuffer
	i      int
}

func (p Point) Dim() Dimension                       { return p.coords.dim }
func (p Point) GeometryType() geotraits.GeometryType { return geotraits.PointType }

// Coord returns the position, or false when every ordinate is NaN.
func (p Point) Coord() (geotraits.Coord, bool) {
	if p.coords.isNaN(p.i) {
		return nil, false
	}
	return p.coords.Coord(p.i), true
}

// LineString is a line string scalar.
type LineString struct {
	coords     *CoordBuffer
	start, end int
}

func (l LineString) Dim() Dimension                       { return l.coords.dim }
func (l LineString) GeometryType() geotraits.GeometryType { return geotraits.LineStringType }
func (l LineString) NumCoords() int                       { return l.end - l.start }

func (l LineString) CoordAt(i int) geotraits.Coord {
	return l.coords.Coord(l.start + i)
}

// Polygon is a polygon scalar. start and end index the ring offsets.
type Polygon struct {
	coords     *CoordBuffer
	rings      *OffsetBuffer[int32]
	start, end int
}

func (p Polygon) Dim() Dimension                       { return p.coords.dim }
func (p Polygon) GeometryType() geotraits.GeometryType { return geotraits.PolygonType }

func (p Polygon) ring(i int) LineString {
	r := p.start + i
	return LineString{coords: p.coords, start: p.rings.Start(r), end: p.rings.End(r)}
}

func (p Polygon) Exterior() (geotraits.LineString, bool) {
	if p.end == p.start {
		return nil, false
	}
	return p.ring(0), true
}

func (p Polygon) NumInteriors() int {
	if p.end == p.start {
		return 0
	}
	return p.end - p.start - 1
}

func (p Polygon) Interior(i int) geotraits.LineString { return p.ring(i + 1) }

// MultiPoint is a multi point scalar.
type MultiPoint struct {
	coords     *CoordBuffer
	start, end int
}

func (m MultiPoint) Dim() Dimension                       { return m.coords.dim }
func (m MultiPoint) GeometryType() geotraits.GeometryType { return geotraits.MultiPointType }
func (m MultiPoint) NumPoints() int                       { return m.end - m.start }

func (m MultiPoint) PointAt(i int) geotraits.Point {
	return Point{coords: m.coords, i: m.start + i}
}

// MultiLineString is a multi line string scalar.
type MultiLineString struct {
	coords     *CoordBuffer
	lines      *OffsetBuffer[int32]
	start, end int
}

func (m MultiLineString) Dim() Dimension                       { return m.coords.dim }
func (m MultiLineString) GeometryType() geotraits.GeometryType { return geotraits.MultiLineStringType }
func (m MultiLineString) NumLineStrings() int                  { return m.end - m.start }

func (m MultiLineString) LineStringAt(i int) geotraits.LineString {
	j := m.start + i
	return LineString{coords: m.coords, start: m.lines.Start(j), end: m.lines.End(j)}
}

// MultiPolygon is a multi polygon scalar.
type MultiPolygon struct {
	coords     *CoordBuffer
	polygons   *OffsetBuffer[int32]
	rings      *OffsetBuffer[int32]
	start, end int
}

func (m MultiPolygon) Dim() Dimension                       { return m.coords.dim }
func (m MultiPolygon) GeometryType() geotraits.GeometryType { return geotraits.MultiPolygonType }
func (m MultiPolygon) NumPolygons() int                     { return m.end - m.start }

func (m MultiPolygon) PolygonAt(i int) geotraits.Polygon {
	j := m.start + i
	return Polygon{coords: m.coords, rings: m.rings, start: m.polygons.Start(j), end: m.polygons.End(j)}
}

// GeometryCollection is a geometry collection scalar.
type GeometryCollection struct {
	mixed      *mixedArray
	start, end int
}

func (g GeometryCollection) Dim() Dimension { return g.mixed.dim }
func (g GeometryCollection) GeometryType() geotraits.GeometryType {
	return geotraits.GeometryCollectionType
}
func (g GeometryCollection) NumGeometries() int { return g.end - g.start }

func (g GeometryCollection) GeometryAt(i int) geotraits.Geometry {
	return g.mixed.geometry(g.start + i)
}

// Box is a box scalar.
type Box struct {
	arr *BoxArray
	i   int
}

func (b Box) Dim() Dimension                       { return b.arr.lo.dim }
func (b Box) GeometryType() geotraits.GeometryType { return geotraits.RectType }
func (b Box) Min() geotraits.Coord                 { return b.arr.lo.Coord(b.i) }
func (b Box) Max() geotraits.Coord                 { return b.arr.hi.Coord(b.i) }

// Single-part geometries seen as one-part multis.

type pointAsMulti struct{ geotraits.Point }

func (p pointAsMulti) GeometryType() geotraits.GeometryType { return geotraits.MultiPointType }
func (p pointAsMulti) NumPoints() int                       { return 1 }
func (p pointAsMulti) PointAt(int) geotraits.Point          { return p.Point }

type lineStringAsMulti struct{ geotraits.LineString }

func (l lineStringAsMulti) GeometryType() geotraits.GeometryType {
	return geotraits.MultiLineStringType
}
func (l lineStringAsMulti) NumLineStrings() int                { return 1 }
func (l lineStringAsMulti) LineStringAt(int) geotraits.LineString { return l.LineString }

type polygonAsMulti struct{ geotraits.Polygon }

func (p polygonAsMulti) GeometryType() geotraits.GeometryType { return geotraits.MultiPolygonType }
func (p polygonAsMulti) NumPolygons() int                     { return 1 }
func (p polygonAsMulti) PolygonAt(int) geotraits.Polygon      { return p.Polygon }

// unwrapSingle returns g as a geometry of the single-part kind want,
// unwrapping one-part multis and one-element collections.
func unwrapSingle(g geotraits.Geometry, want geotraits.GeometryType) (geotraits.Geometry, bool) {
	t := g.GeometryType()
	switch {
	case t == want:
		return g, true
	case t == want.Multi() && t != want:
		if geotraits.NumParts(g) != 1 {
			return nil, false
		}
		switch m := g.(type) {
		case geotraits.MultiPoint:
			return m.PointAt(0), true
		case geotraits.MultiLineString:
			return m.LineStringAt(0), true
		case geotraits.MultiPolygon:
			return m.PolygonAt(0), true
		}
	case t == geotraits.GeometryCollectionType:
		gc := g.(geotraits.GeometryCollection)
		if gc.NumGeometries() == 1 {
			return unwrapSingle(gc.GeometryAt(0), want)
		}
	}
	return nil, false
}

// promoteMulti returns g as a geometry of the multi kind want, wrapping a
// matching single-part geometry and unwrapping a one-element collection.
func promoteMulti(g geotraits.Geometry, want geotraits.GeometryType) (geotraits.Geometry, bool) {
	t := g.GeometryType()
	switch {
	case t == want:
		return g, true
	case t == want.Single() && t != want:
		switch s := g.(type) {
		case geotraits.Point:
			return pointAsMulti{s}, true
		case geotraits.LineString:
			return lineStringAsMulti{s}, true
		case geotraits.Polygon:
			return polygonAsMulti{s}, true
		}
	case t == geotraits.GeometryCollectionType:
		gc := g.(geotraits.GeometryCollection)
		if gc.NumGeometries() == 1 {
			return promoteMulti(gc.GeometryAt(0), want)
		}
	}
	return nil, false
}
