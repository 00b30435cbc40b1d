package wkt

import (
	"strconv"
	"strings"

	"github.com/tingold/orb-geoarrow/geotraits"
)

// Marshal returns the WKT representation of g. Rects are written as
// polygons.
func Marshal(g geotraits.Geometry) string {
	return string(Append(nil, g))
}

// Append appends the WKT representation of g to dst.
func Append(dst []byte, g geotraits.Geometry) []byte {
	d := g.Dim()
	switch g.GeometryType() {
	case geotraits.PointType:
		dst = tag(dst, "POINT", d)
		c, ok := g.(geotraits.Point).Coord()
		if !ok {
			return append(dst, "EMPTY"...)
		}
		dst = append(dst, '(')
		dst = appendCoord(dst, c)
		return append(dst, ')')
	case geotraits.LineStringType:
		dst = tag(dst, "LINESTRING", d)
		l := g.(geotraits.LineString)
		if l.NumCoords() == 0 {
			return append(dst, "EMPTY"...)
		}
		return appendLineString(dst, l)
	case geotraits.PolygonType:
		dst = tag(dst, "POLYGON", d)
		p := g.(geotraits.Polygon)
		if geotraits.NumRings(p) == 0 {
			return append(dst, "EMPTY"...)
		}
		return appendPolygon(dst, p)
	case geotraits.MultiPointType:
		dst = tag(dst, "MULTIPOINT", d)
		mp := g.(geotraits.MultiPoint)
		if mp.NumPoints() == 0 {
			return append(dst, "EMPTY"...)
		}
		dst = append(dst, '(')
		for i := 0; i < mp.NumPoints(); i++ {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			c, ok := mp.PointAt(i).Coord()
			if !ok {
				dst = append(dst, "EMPTY"...)
				continue
			}
			dst = append(dst, '(')
			dst = appendCoord(dst, c)
			dst = append(dst, ')')
		}
		return append(dst, ')')
	case geotraits.MultiLineStringType:
		dst = tag(dst, "MULTILINESTRING", d)
		ml := g.(geotraits.MultiLineString)
		if ml.NumLineStrings() == 0 {
			return append(dst, "EMPTY"...)
		}
		dst = append(dst, '(')
		for i := 0; i < ml.NumLineStrings(); i++ {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			ls := ml.LineStringAt(i)
			if ls.NumCoords() == 0 {
				dst = append(dst, "EMPTY"...)
				continue
			}
			dst = appendLineString(dst, ls)
		}
		return append(dst, ')')
	case geotraits.MultiPolygonType:
		dst = tag(dst, "MULTIPOLYGON", d)
		mp := g.(geotraits.MultiPolygon)
		if mp.NumPolygons() == 0 {
			return append(dst, "EMPTY"...)
		}
		dst = append(dst, '(')
		for i := 0; i < mp.NumPolygons(); i++ {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			poly := mp.PolygonAt(i)
			if geotraits.NumRings(poly) == 0 {
				dst = append(dst, "EMPTY"...)
				continue
			}
			dst = appendPolygon(dst, poly)
		}
		return append(dst, ')')
	case geotraits.GeometryCollectionType:
		dst = tag(dst, "GEOMETRYCOLLECTION", d)
		gc := g.(geotraits.GeometryCollection)
		if gc.NumGeometries() == 0 {
			return append(dst, "EMPTY"...)
		}
		dst = append(dst, '(')
		for i := 0; i < gc.NumGeometries(); i++ {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = Append(dst, gc.GeometryAt(i))
		}
		return append(dst, ')')
	case geotraits.RectType:
		r := g.(geotraits.Rect)
		rv := geotraits.RectValue{Lo: geotraits.CoordOf(r.Min()), Hi: geotraits.CoordOf(r.Max())}
		return Append(dst, rv.Polygon())
	}
	return dst
}

func tag(dst []byte, keyword string, d geotraits.Dimension) []byte {
	dst = append(dst, keyword...)
	dst = append(dst, ' ')
	if s := d.Suffix(); s != "" {
		dst = append(dst, s...)
		dst = append(dst, ' ')
	}
	return dst
}

func appendFloat(dst []byte, v float64) []byte {
	return strconv.AppendFloat(dst, v, 'f', -1, 64)
}

func appendCoord(dst []byte, c geotraits.Coord) []byte {
	for i := 0; i < c.Dim().Size(); i++ {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = appendFloat(dst, c.Nth(i))
	}
	return dst
}

func appendLineString(dst []byte, l geotraits.LineString) []byte {
	dst = append(dst, '(')
	for i := 0; i < l.NumCoords(); i++ {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = appendCoord(dst, l.CoordAt(i))
	}
	return append(dst, ')')
}

func appendPolygon(dst []byte, p geotraits.Polygon) []byte {
	dst = append(dst, '(')
	for i := 0; i < geotraits.NumRings(p); i++ {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		ring := geotraits.Ring(p, i)
		if ring.NumCoords() == 0 {
			dst = append(dst, "EMPTY"...)
			continue
		}
		dst = appendLineString(dst, ring)
	}
	return append(dst, ')')
}

// TypeOf returns the geometry type named by the leading keyword of s
// without parsing the rest.
func TypeOf(s string) (geotraits.GeometryType, geotraits.Dimension, error) {
	p := &parser{lex: lexer{input: strings.TrimSpace(s)}}
	if err := p.srid(); err != nil {
		return geotraits.UnknownType, geotraits.XY, err
	}
	typ, err := p.keyword()
	return typ, p.dim, err
}
