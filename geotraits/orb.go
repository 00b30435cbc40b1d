package geotraits

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrNotXY is returned when a geometry with Z or M ordinates is converted to
// orb, which is strictly two dimensional.
var ErrNotXY = errors.New("geotraits: orb geometries are XY only")

// FromOrb wraps an orb geometry as an owned XY geometry value. orb.Ring is
// treated as a single ring polygon and orb.Bound as a rect. A nil geometry
// returns nil.
func FromOrb(g orb.Geometry) Geometry {
	switch v := g.(type) {
	case nil:
		return nil
	case orb.Point:
		return NewPoint(orbCoord(v))
	case orb.MultiPoint:
		out := MultiPointValue{D: XY, Points: make([]PointValue, len(v))}
		for i, p := range v {
			out.Points[i] = NewPoint(orbCoord(p))
		}
		return out
	case orb.LineString:
		return orbLineString(v)
	case orb.MultiLineString:
		out := MultiLineStringValue{D: XY, LineStrings: make([]LineStringValue, len(v))}
		for i, ls := range v {
			out.LineStrings[i] = orbLineString(ls)
		}
		return out
	case orb.Ring:
		return orbPolygon(orb.Polygon{v})
	case orb.Polygon:
		return orbPolygon(v)
	case orb.MultiPolygon:
		out := MultiPolygonValue{D: XY, Polygons: make([]PolygonValue, len(v))}
		for i, p := range v {
			out.Polygons[i] = orbPolygon(p)
		}
		return out
	case orb.Collection:
		out := GeometryCollectionValue{D: XY, Geometries: make([]Geometry, 0, len(v))}
		for _, child := range v {
			if c := FromOrb(child); c != nil {
				out.Geometries = append(out.Geometries, c)
			}
		}
		return out
	case orb.Bound:
		return RectValue{Lo: orbCoord(v.Min), Hi: orbCoord(v.Max)}
	default:
		return nil
	}
}

// ToOrb converts g into the matching orb geometry. Only XY geometries can be
// converted; see ToOrbLossy to drop higher ordinates instead.
func ToOrb(g Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	if g.Dim() != XY {
		return nil, errors.Wrapf(ErrNotXY, "converting %s %s", g.GeometryType(), g.Dim())
	}
	return ToOrbLossy(g), nil
}

// ToOrbLossy converts g into orb, dropping Z and M. Empty points become the
// origin since orb has no empty point.
func ToOrbLossy(g Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	switch g.GeometryType() {
	case PointType:
		c, ok := g.(Point).Coord()
		if !ok {
			return orb.Point{}
		}
		return orb.Point{c.X(), c.Y()}
	case LineStringType:
		return toOrbLineString(g.(LineString))
	case PolygonType:
		return toOrbPolygon(g.(Polygon))
	case MultiPointType:
		mp := g.(MultiPoint)
		out := make(orb.MultiPoint, 0, mp.NumPoints())
		for i := 0; i < mp.NumPoints(); i++ {
			if c, ok := mp.PointAt(i).Coord(); ok {
				out = append(out, orb.Point{c.X(), c.Y()})
			}
		}
		return out
	case MultiLineStringType:
		ml := g.(MultiLineString)
		out := make(orb.MultiLineString, ml.NumLineStrings())
		for i := range out {
			out[i] = toOrbLineString(ml.LineStringAt(i))
		}
		return out
	case MultiPolygonType:
		mp := g.(MultiPolygon)
		out := make(orb.MultiPolygon, mp.NumPolygons())
		for i := range out {
			out[i] = toOrbPolygon(mp.PolygonAt(i))
		}
		return out
	case GeometryCollectionType:
		gc := g.(GeometryCollection)
		out := make(orb.Collection, gc.NumGeometries())
		for i := range out {
			out[i] = ToOrbLossy(gc.GeometryAt(i))
		}
		return out
	case RectType:
		r := g.(Rect)
		return orb.Bound{
			Min: orb.Point{r.Min().X(), r.Min().Y()},
			Max: orb.Point{r.Max().X(), r.Max().Y()},
		}
	}
	return nil
}

func orbCoord(p orb.Point) CoordValue { return XY2(p[0], p[1]) }

func orbLineString(ls []orb.Point) LineStringValue {
	out := LineStringValue{D: XY, Coords: make([]CoordValue, len(ls))}
	for i, p := range ls {
		out.Coords[i] = orbCoord(p)
	}
	return out
}

func orbPolygon(poly orb.Polygon) PolygonValue {
	out := PolygonValue{D: XY, Rings: make([]LineStringValue, 0, len(poly))}
	for _, ring := range poly {
		out.Rings = append(out.Rings, orbLineString(ring))
	}
	// orb represents an empty polygon as a polygon with one empty ring.
	if len(out.Rings) == 1 && len(out.Rings[0].Coords) == 0 {
		out.Rings = nil
	}
	return out
}

func toOrbLineString(l LineString) orb.LineString {
	out := make(orb.LineString, l.NumCoords())
	for i := range out {
		c := l.CoordAt(i)
		out[i] = orb.Point{c.X(), c.Y()}
	}
	return out
}

func toOrbPolygon(p Polygon) orb.Polygon {
	out := make(orb.Polygon, NumRings(p))
	for i := range out {
		out[i] = orb.Ring(toOrbLineString(Ring(p, i)))
	}
	return out
}
