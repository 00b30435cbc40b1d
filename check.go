package geoarrow

import (
	"github.com/tingold/orb-geoarrow/geotraits"
)

// The check functions validate a geometry against a builder dimension
// before anything is appended, so a failing push leaves no trace.

func checkDim(g geotraits.Geometry, dim Dimension) error {
	if g.Dim() != dim {
		return errorf(ErrDimensionMismatch, "%s is %s, builder is %s", g.GeometryType(), g.Dim(), dim)
	}
	return nil
}

func checkPoint(p geotraits.Point, dim Dimension) error {
	if err := checkDim(p, dim); err != nil {
		return err
	}
	if c, ok := p.Coord(); ok {
		return checkCoord(c, dim)
	}
	return nil
}

func checkCoords(l geotraits.LineString, dim Dimension) error {
	for i := 0; i < l.NumCoords(); i++ {
		if err := checkCoord(l.CoordAt(i), dim); err != nil {
			return err
		}
	}
	return nil
}

func checkLineString(l geotraits.LineString, dim Dimension) error {
	if err := checkDim(l, dim); err != nil {
		return err
	}
	return checkCoords(l, dim)
}

func checkPolygon(p geotraits.Polygon, dim Dimension) error {
	if err := checkDim(p, dim); err != nil {
		return err
	}
	n := geotraits.NumRings(p)
	if n == 0 {
		return nil
	}
	ext, _ := p.Exterior()
	if ext.NumCoords() == 0 && n > 1 {
		return errorf(ErrInvalidGeometry, "polygon has an empty exterior and %d interior rings", n-1)
	}
	for i := 0; i < n; i++ {
		ring := geotraits.Ring(p, i)
		if k := ring.NumCoords(); k > 0 && k < 4 {
			return errorf(ErrInvalidGeometry, "ring %d has %d positions, need at least 4", i, k)
		}
		if err := checkCoords(ring, dim); err != nil {
			return err
		}
	}
	return nil
}

// polygonRings returns the number of rings stored for p. An exterior with
// no positions and no interiors is stored as an empty polygon.
func polygonRings(p geotraits.Polygon) int {
	n := geotraits.NumRings(p)
	if n == 1 {
		ext, _ := p.Exterior()
		if ext.NumCoords() == 0 {
			return 0
		}
	}
	return n
}

func polygonCoords(p geotraits.Polygon) int {
	n := 0
	for i := 0; i < polygonRings(p); i++ {
		n += geotraits.Ring(p, i).NumCoords()
	}
	return n
}

func checkMultiPoint(m geotraits.MultiPoint, dim Dimension) error {
	if err := checkDim(m, dim); err != nil {
		return err
	}
	for i := 0; i < m.NumPoints(); i++ {
		if err := checkPoint(m.PointAt(i), dim); err != nil {
			return err
		}
	}
	return nil
}

func checkMultiLineString(m geotraits.MultiLineString, dim Dimension) error {
	if err := checkDim(m, dim); err != nil {
		return err
	}
	for i := 0; i < m.NumLineStrings(); i++ {
		if err := checkLineString(m.LineStringAt(i), dim); err != nil {
			return err
		}
	}
	return nil
}

func checkMultiPolygon(m geotraits.MultiPolygon, dim Dimension) error {
	if err := checkDim(m, dim); err != nil {
		return err
	}
	for i := 0; i < m.NumPolygons(); i++ {
		if err := checkPolygon(m.PolygonAt(i), dim); err != nil {
			return err
		}
	}
	return nil
}

func checkRect(r geotraits.Rect, dim Dimension) error {
	if err := checkDim(r, dim); err != nil {
		return err
	}
	if err := checkCoord(r.Min(), dim); err != nil {
		return err
	}
	return checkCoord(r.Max(), dim)
}

// checkCollectionMember validates one element of a geometry collection.
func checkCollectionMember(g geotraits.Geometry, dim Dimension) error {
	switch g.GeometryType() {
	case geotraits.PointType:
		return checkPoint(g.(geotraits.Point), dim)
	case geotraits.LineStringType:
		return checkLineString(g.(geotraits.LineString), dim)
	case geotraits.PolygonType:
		return checkPolygon(g.(geotraits.Polygon), dim)
	case geotraits.MultiPointType:
		return checkMultiPoint(g.(geotraits.MultiPoint), dim)
	case geotraits.MultiLineStringType:
		return checkMultiLineString(g.(geotraits.MultiLineString), dim)
	case geotraits.MultiPolygonType:
		return checkMultiPolygon(g.(geotraits.MultiPolygon), dim)
	case geotraits.RectType:
		return checkRect(g.(geotraits.Rect), dim)
	case geotraits.GeometryCollectionType:
		return errorf(ErrNestedCollection, "geometry collection inside a geometry collection")
	}
	return errorf(ErrWrongGeometryType, "unknown geometry type %s", g.GeometryType())
}

func checkGeometryCollection(gc geotraits.GeometryCollection, dim Dimension) error {
	if err := checkDim(gc, dim); err != nil {
		return err
	}
	for i := 0; i < gc.NumGeometries(); i++ {
		if err := checkCollectionMember(gc.GeometryAt(i), dim); err != nil {
			return err
		}
	}
	return nil
}

// rectPolygon returns the five position polygon covering r.
func rectPolygon(r geotraits.Rect) geotraits.PolygonValue {
	rv := geotraits.RectValue{Lo: geotraits.CoordOf(r.Min()), Hi: geotraits.CoordOf(r.Max())}
	return rv.Polygon()
}
