package wkb

import (
	"encoding/binary"
	"math"

	"github.com/tingold/orb-geoarrow/geotraits"
)

// DefaultByteOrder is the byte order used by Encode.
var DefaultByteOrder binary.ByteOrder = binary.LittleEndian

// Encode returns the ISO WKB encoding of g in little endian byte order.
// Rects are encoded as polygons.
func Encode(g geotraits.Geometry) []byte {
	return Append(make([]byte, 0, Size(g)), g, DefaultByteOrder)
}

// Append appends the ISO WKB encoding of g in the given byte order to dst.
func Append(dst []byte, g geotraits.Geometry, order binary.ByteOrder) []byte {
	e := encoder{order: order}
	return e.geometry(dst, g)
}

type encoder struct {
	order binary.ByteOrder
}

func (e encoder) header(dst []byte, t geotraits.GeometryType, d geotraits.Dimension) []byte {
	if e.order == binary.BigEndian {
		dst = append(dst, XDR)
	} else {
		dst = append(dst, NDR)
	}
	return e.uint32(dst, t.WKBCode(d))
}

func (e encoder) uint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	e.order.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func (e encoder) float64(dst []byte, v float64) []byte {
	var buf [8]byte
	e.order.PutUint64(buf[:], math.Float64bits(v))
	return append(dst, buf[:]...)
}

func (e encoder) coord(dst []byte, c geotraits.Coord) []byte {
	for i := 0; i < c.Dim().Size(); i++ {
		dst = e.float64(dst, c.Nth(i))
	}
	return dst
}

func (e encoder) lineStringBody(dst []byte, l geotraits.LineString) []byte {
	dst = e.uint32(dst, uint32(l.NumCoords()))
	for i := 0; i < l.NumCoords(); i++ {
		dst = e.coord(dst, l.CoordAt(i))
	}
	return dst
}

func (e encoder) polygonBody(dst []byte, p geotraits.Polygon) []byte {
	n := geotraits.NumRings(p)
	dst = e.uint32(dst, uint32(n))
	for i := 0; i < n; i++ {
		dst = e.lineStringBody(dst, geotraits.Ring(p, i))
	}
	return dst
}

func (e encoder) geometry(dst []byte, g geotraits.Geometry) []byte {
	d := g.Dim()
	switch g.GeometryType() {
	case geotraits.PointType:
		dst = e.header(dst, geotraits.PointType, d)
		c, ok := g.(geotraits.Point).Coord()
		if !ok {
			for i := 0; i < d.Size(); i++ {
				dst = e.float64(dst, math.NaN())
			}
			return dst
		}
		return e.coord(dst, c)
	case geotraits.LineStringType:
		dst = e.header(dst, geotraits.LineStringType, d)
		return e.lineStringBody(dst, g.(geotraits.LineString))
	case geotraits.PolygonType:
		dst = e.header(dst, geotraits.PolygonType, d)
		return e.polygonBody(dst, g.(geotraits.Polygon))
	case geotraits.MultiPointType:
		mp := g.(geotraits.MultiPoint)
		dst = e.header(dst, geotraits.MultiPointType, d)
		dst = e.uint32(dst, uint32(mp.NumPoints()))
		for i := 0; i < mp.NumPoints(); i++ {
			dst = e.geometry(dst, mp.PointAt(i))
		}
		return dst
	case geotraits.MultiLineStringType:
		ml := g.(geotraits.MultiLineString)
		dst = e.header(dst, geotraits.MultiLineStringType, d)
		dst = e.uint32(dst, uint32(ml.NumLineStrings()))
		for i := 0; i < ml.NumLineStrings(); i++ {
			dst = e.header(dst, geotraits.LineStringType, d)
			dst = e.lineStringBody(dst, ml.LineStringAt(i))
		}
		return dst
	case geotraits.MultiPolygonType:
		mp := g.(geotraits.MultiPolygon)
		dst = e.header(dst, geotraits.MultiPolygonType, d)
		dst = e.uint32(dst, uint32(mp.NumPolygons()))
		for i := 0; i < mp.NumPolygons(); i++ {
			dst = e.header(dst, geotraits.PolygonType, d)
			dst = e.polygonBody(dst, mp.PolygonAt(i))
		}
		return dst
	case geotraits.GeometryCollectionType:
		gc := g.(geotraits.GeometryCollection)
		dst = e.header(dst, geotraits.GeometryCollectionType, d)
		dst = e.uint32(dst, uint32(gc.NumGeometries()))
		for i := 0; i < gc.NumGeometries(); i++ {
			dst = e.geometry(dst, gc.GeometryAt(i))
		}
		return dst
	case geotraits.RectType:
		r := g.(geotraits.Rect)
		rv := geotraits.RectValue{Lo: geotraits.CoordOf(r.Min()), Hi: geotraits.CoordOf(r.Max())}
		return e.geometry(dst, rv.Polygon())
	}
	return dst
}

// Size returns the number of bytes Encode produces for g.
func Size(g geotraits.Geometry) int {
	d := g.Dim()
	coordSize := 8 * d.Size()
	switch g.GeometryType() {
	case geotraits.PointType:
		return headerSize + coordSize
	case geotraits.LineStringType:
		return headerSize + countSize + coordSize*g.(geotraits.LineString).NumCoords()
	case geotraits.PolygonType:
		return headerSize + polygonBodySize(g.(geotraits.Polygon), coordSize)
	case geotraits.MultiPointType:
		return headerSize + countSize + g.(geotraits.MultiPoint).NumPoints()*(headerSize+coordSize)
	case geotraits.MultiLineStringType:
		ml := g.(geotraits.MultiLineString)
		n := headerSize + countSize
		for i := 0; i < ml.NumLineStrings(); i++ {
			n += headerSize + countSize + coordSize*ml.LineStringAt(i).NumCoords()
		}
		return n
	case geotraits.MultiPolygonType:
		mp := g.(geotraits.MultiPolygon)
		n := headerSize + countSize
		for i := 0; i < mp.NumPolygons(); i++ {
			n += headerSize + polygonBodySize(mp.PolygonAt(i), coordSize)
		}
		return n
	case geotraits.GeometryCollectionType:
		gc := g.(geotraits.GeometryCollection)
		n := headerSize + countSize
		for i := 0; i < gc.NumGeometries(); i++ {
			n += Size(gc.GeometryAt(i))
		}
		return n
	case geotraits.RectType:
		return headerSize + countSize + countSize + 5*coordSize
	}
	return 0
}

func polygonBodySize(p geotraits.Polygon, coordSize int) int {
	n := countSize
	for i := 0; i < geotraits.NumRings(p); i++ {
		n += countSize + coordSize*geotraits.Ring(p, i).NumCoords()
	}
	return n
}
