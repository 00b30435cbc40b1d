package geoarrow

import (
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Capacities count what a builder needs to hold a known set of geometries
// without reallocating. Add methods accept nil for a null row.

// PointCapacity is the capacity of a PointBuilder.
type PointCapacity struct {
	Geoms int
}

func (c *PointCapacity) AddPoint(geotraits.Point) { c.Geoms++ }

func (c *PointCapacity) AddGeometry(g geotraits.Geometry) { c.Geoms++ }

// LineStringCapacity is the capacity of a LineStringBuilder.
type LineStringCapacity struct {
	Coords int
	Geoms  int
}

func (c *LineStringCapacity) AddLineString(l geotraits.LineString) {
	c.Geoms++
	if l != nil {
		c.Coords += l.NumCoords()
	}
}

func (c *LineStringCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if s, ok := unwrapSingle(g, geotraits.LineStringType); ok {
		c.AddLineString(s.(geotraits.LineString))
		return
	}
	c.Geoms++
}

// PolygonCapacity is the capacity of a PolygonBuilder.
type PolygonCapacity struct {
	Coords int
	Rings  int
	Geoms  int
}

func (c *PolygonCapacity) AddPolygon(p geotraits.Polygon) {
	c.Geoms++
	if p == nil {
		return
	}
	for i := 0; i < geotraits.NumRings(p); i++ {
		c.Rings++
		c.Coords += geotraits.Ring(p, i).NumCoords()
	}
}

func (c *PolygonCapacity) AddRect(geotraits.Rect) {
	c.Geoms++
	c.Rings++
	c.Coords += 5
}

func (c *PolygonCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if g.GeometryType() == geotraits.RectType {
		c.AddRect(g.(geotraits.Rect))
		return
	}
	if s, ok := unwrapSingle(g, geotraits.PolygonType); ok {
		c.AddPolygon(s.(geotraits.Polygon))
		return
	}
	c.Geoms++
}

// MultiPointCapacity is the capacity of a MultiPointBuilder.
type MultiPointCapacity struct {
	Coords int
	Geoms  int
}

func (c *MultiPointCapacity) AddMultiPoint(m geotraits.MultiPoint) {
	c.Geoms++
	if m != nil {
		c.Coords += m.NumPoints()
	}
}

func (c *MultiPointCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if m, ok := promoteMulti(g, geotraits.MultiPointType); ok {
		c.AddMultiPoint(m.(geotraits.MultiPoint))
		return
	}
	c.Geoms++
}

// MultiLineStringCapacity is the capacity of a MultiLineStringBuilder.
type MultiLineStringCapacity struct {
	Coords      int
	LineStrings int
	Geoms       int
}

func (c *MultiLineStringCapacity) AddMultiLineString(m geotraits.MultiLineString) {
	c.Geoms++
	if m == nil {
		return
	}
	for i := 0; i < m.NumLineStrings(); i++ {
		c.LineStrings++
		c.Coords += m.LineStringAt(i).NumCoords()
	}
}

func (c *MultiLineStringCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if m, ok := promoteMulti(g, geotraits.MultiLineStringType); ok {
		c.AddMultiLineString(m.(geotraits.MultiLineString))
		return
	}
	c.Geoms++
}

// MultiPolygonCapacity is the capacity of a MultiPolygonBuilder.
type MultiPolygonCapacity struct {
	Coords   int
	Rings    int
	Polygons int
	Geoms    int
}

func (c *MultiPolygonCapacity) AddMultiPolygon(m geotraits.MultiPolygon) {
	c.Geoms++
	if m == nil {
		return
	}
	for i := 0; i < m.NumPolygons(); i++ {
		p := m.PolygonAt(i)
		c.Polygons++
		for r := 0; r < geotraits.NumRings(p); r++ {
			c.Rings++
			c.Coords += geotraits.Ring(p, r).NumCoords()
		}
	}
}

func (c *MultiPolygonCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if m, ok := promoteMulti(g, geotraits.MultiPolygonType); ok {
		c.AddMultiPolygon(m.(geotraits.MultiPolygon))
		return
	}
	c.Geoms++
}

// MixedCapacity is the capacity of the children of one dimension of a
// geometry collection.
type MixedCapacity struct {
	Point           PointCapacity
	LineString      LineStringCapacity
	Polygon         PolygonCapacity
	MultiPoint      MultiPointCapacity
	MultiLineString MultiLineStringCapacity
	MultiPolygon    MultiPolygonCapacity
}

func (c *MixedCapacity) add(g geotraits.Geometry) {
	switch g.GeometryType() {
	case geotraits.PointType:
		c.Point.AddPoint(g.(geotraits.Point))
	case geotraits.LineStringType:
		c.LineString.AddLineString(g.(geotraits.LineString))
	case geotraits.PolygonType:
		c.Polygon.AddPolygon(g.(geotraits.Polygon))
	case geotraits.MultiPointType:
		c.MultiPoint.AddMultiPoint(g.(geotraits.MultiPoint))
	case geotraits.MultiLineStringType:
		c.MultiLineString.AddMultiLineString(g.(geotraits.MultiLineString))
	case geotraits.MultiPolygonType:
		c.MultiPolygon.AddMultiPolygon(g.(geotraits.MultiPolygon))
	case geotraits.RectType:
		c.Polygon.AddRect(g.(geotraits.Rect))
	}
}

// GeometryCollectionCapacity is the capacity of a GeometryCollectionBuilder.
type GeometryCollectionCapacity struct {
	Mixed    MixedCapacity
	Children int
	Geoms    int
}

func (c *GeometryCollectionCapacity) AddGeometryCollection(gc geotraits.GeometryCollection) {
	c.Geoms++
	if gc == nil {
		return
	}
	for i := 0; i < gc.NumGeometries(); i++ {
		c.Children++
		c.Mixed.add(gc.GeometryAt(i))
	}
}

func (c *GeometryCollectionCapacity) AddGeometry(g geotraits.Geometry) {
	if g == nil {
		c.Geoms++
		return
	}
	if g.GeometryType() == geotraits.GeometryCollectionType {
		c.AddGeometryCollection(g.(geotraits.GeometryCollection))
		return
	}
	c.Geoms++
	c.Children++
	c.Mixed.add(g)
}

// GeometryCapacity is the capacity of a GeometryBuilder, per child kind and
// dimension.
type GeometryCapacity struct {
	Nulls              int
	Geoms              int
	Point              [4]PointCapacity
	LineString         [4]LineStringCapacity
	Polygon            [4]PolygonCapacity
	MultiPoint         [4]MultiPointCapacity
	MultiLineString    [4]MultiLineStringCapacity
	MultiPolygon       [4]MultiPolygonCapacity
	GeometryCollection [4]GeometryCollectionCapacity
	PreferMulti        bool
}

func (c *GeometryCapacity) AddGeometry(g geotraits.Geometry) {
	c.Geoms++
	if g == nil {
		c.Nulls++
		return
	}
	d := g.Dim().Order()
	switch g.GeometryType() {
	case geotraits.PointType:
		if c.PreferMulti {
			c.MultiPoint[d].AddGeometry(g)
		} else {
			c.Point[d].AddPoint(g.(geotraits.Point))
		}
	case geotraits.LineStringType:
		if c.PreferMulti {
			c.MultiLineString[d].AddGeometry(g)
		} else {
			c.LineString[d].AddLineString(g.(geotraits.LineString))
		}
	case geotraits.PolygonType, geotraits.RectType:
		if c.PreferMulti {
			c.MultiPolygon[d].AddGeometry(g)
		} else {
			c.Polygon[d].AddGeometry(g)
		}
	case geotraits.MultiPointType:
		c.MultiPoint[d].AddMultiPoint(g.(geotraits.MultiPoint))
	case geotraits.MultiLineStringType:
		c.MultiLineString[d].AddMultiLineString(g.(geotraits.MultiLineString))
	case geotraits.MultiPolygonType:
		c.MultiPolygon[d].AddMultiPolygon(g.(geotraits.MultiPolygon))
	case geotraits.GeometryCollectionType:
		c.GeometryCollection[d].AddGeometryCollection(g.(geotraits.GeometryCollection))
	}
}

// BoxCapacity is the capacity of a BoxBuilder.
type BoxCapacity struct {
	Geoms int
}

// SerializedCapacity is the capacity of a WKB or WKT builder.
type SerializedCapacity struct {
	Bytes int
	Geoms int
}
