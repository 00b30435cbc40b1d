package geotraits

import "math"

// IsEmpty reports whether g has no positions.
func IsEmpty(g Geometry) bool {
	switch g.GeometryType() {
	case PointType:
		_, ok := g.(Point).Coord()
		return !ok
	case LineStringType:
		return g.(LineString).NumCoords() == 0
	case PolygonType:
		_, ok := g.(Polygon).Exterior()
		return !ok
	case MultiPointType:
		return g.(MultiPoint).NumPoints() == 0
	case MultiLineStringType:
		return g.(MultiLineString).NumLineStrings() == 0
	case MultiPolygonType:
		return g.(MultiPolygon).NumPolygons() == 0
	case GeometryCollectionType:
		return g.(GeometryCollection).NumGeometries() == 0
	default:
		return false
	}
}

// Equal reports whether a and b have the same kind, dimension and positions.
// NaN ordinates compare equal to each other.
func Equal(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.GeometryType() != b.GeometryType() || a.Dim() != b.Dim() {
		return false
	}
	switch a.GeometryType() {
	case PointType:
		ca, oka := a.(Point).Coord()
		cb, okb := b.(Point).Coord()
		if oka != okb {
			return false
		}
		return !oka || coordsEqual(ca, cb)
	case LineStringType:
		return lineStringsEqual(a.(LineString), b.(LineString))
	case PolygonType:
		return polygonsEqual(a.(Polygon), b.(Polygon))
	case MultiPointType:
		ma, mb := a.(MultiPoint), b.(MultiPoint)
		if ma.NumPoints() != mb.NumPoints() {
			return false
		}
		for i := 0; i < ma.NumPoints(); i++ {
			if !Equal(ma.PointAt(i), mb.PointAt(i)) {
				return false
			}
		}
		return true
	case MultiLineStringType:
		ma, mb := a.(MultiLineString), b.(MultiLineString)
		if ma.NumLineStrings() != mb.NumLineStrings() {
			return false
		}
		for i := 0; i < ma.NumLineStrings(); i++ {
			if !lineStringsEqual(ma.LineStringAt(i), mb.LineStringAt(i)) {
				return false
			}
		}
		return true
	case MultiPolygonType:
		ma, mb := a.(MultiPolygon), b.(MultiPolygon)
		if ma.NumPolygons() != mb.NumPolygons() {
			return false
		}
		for i := 0; i < ma.NumPolygons(); i++ {
			if !polygonsEqual(ma.PolygonAt(i), mb.PolygonAt(i)) {
				return false
			}
		}
		return true
	case GeometryCollectionType:
		ga, gb := a.(GeometryCollection), b.(GeometryCollection)
		if ga.NumGeometries() != gb.NumGeometries() {
			return false
		}
		for i := 0; i < ga.NumGeometries(); i++ {
			if !Equal(ga.GeometryAt(i), gb.GeometryAt(i)) {
				return false
			}
		}
		return true
	case RectType:
		ra, rb := a.(Rect), b.(Rect)
		return coordsEqual(ra.Min(), rb.Min()) && coordsEqual(ra.Max(), rb.Max())
	}
	return false
}

func coordsEqual(a, b Coord) bool {
	if a.Dim() != b.Dim() {
		return false
	}
	for i := 0; i < a.Dim().Size(); i++ {
		x, y := a.Nth(i), b.Nth(i)
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

func lineStringsEqual(a, b LineString) bool {
	if a.NumCoords() != b.NumCoords() {
		return false
	}
	for i := 0; i < a.NumCoords(); i++ {
		if !coordsEqual(a.CoordAt(i), b.CoordAt(i)) {
			return false
		}
	}
	return true
}

func polygonsEqual(a, b Polygon) bool {
	n := NumRings(a)
	if n != NumRings(b) {
		return false
	}
	for i := 0; i < n; i++ {
		if !lineStringsEqual(Ring(a, i), Ring(b, i)) {
			return false
		}
	}
	return true
}

// Bounds returns the XY bounding box of g (higher ordinates are bounded
// too when present). It returns false for empty geometries.
func Bounds(g Geometry) (RectValue, bool) {
	var b bounder
	b.geometry(g)
	if !b.set {
		return RectValue{}, false
	}
	return RectValue{Lo: b.lo, Hi: b.hi}, true
}

type bounder struct {
	lo, hi CoordValue
	set    bool
}

func (b *bounder) coord(c Coord) {
	n := c.Dim().Size()
	if !b.set {
		b.lo = CoordOf(c)
		b.hi = b.lo
		b.set = true
		return
	}
	for i := 0; i < n; i++ {
		v := c.Nth(i)
		if v < b.lo.V[i] {
			b.lo.V[i] = v
		}
		if v > b.hi.V[i] {
			b.hi.V[i] = v
		}
	}
}

func (b *bounder) lineString(l LineString) {
	for i := 0; i < l.NumCoords(); i++ {
		b.coord(l.CoordAt(i))
	}
}

func (b *bounder) polygon(p Polygon) {
	for i := 0; i < NumRings(p); i++ {
		b.lineString(Ring(p, i))
	}
}

func (b *bounder) geometry(g Geometry) {
	switch g.GeometryType() {
	case PointType:
		if c, ok := g.(Point).Coord(); ok {
			b.coord(c)
		}
	case LineStringType:
		b.lineString(g.(LineString))
	case PolygonType:
		b.polygon(g.(Polygon))
	case MultiPointType:
		mp := g.(MultiPoint)
		for i := 0; i < mp.NumPoints(); i++ {
			b.geometry(mp.PointAt(i))
		}
	case MultiLineStringType:
		ml := g.(MultiLineString)
		for i := 0; i < ml.NumLineStrings(); i++ {
			b.lineString(ml.LineStringAt(i))
		}
	case MultiPolygonType:
		mp := g.(MultiPolygon)
		for i := 0; i < mp.NumPolygons(); i++ {
			b.polygon(mp.PolygonAt(i))
		}
	case GeometryCollectionType:
		gc := g.(GeometryCollection)
		for i := 0; i < gc.NumGeometries(); i++ {
			b.geometry(gc.GeometryAt(i))
		}
	case RectType:
		r := g.(Rect)
		b.coord(r.Min())
		b.coord(r.Max())
	}
}

// ValueOf copies any geometry into the matching owned value type.
func ValueOf(g Geometry) Geometry {
	switch g.GeometryType() {
	case PointType:
		return pointValueOf(g.(Point))
	case LineStringType:
		return lineStringValueOf(g.(LineString))
	case PolygonType:
		return polygonValueOf(g.(Polygon))
	case MultiPointType:
		mp := g.(MultiPoint)
		out := MultiPointValue{D: mp.Dim(), Points: make([]PointValue, mp.NumPoints())}
		for i := range out.Points {
			out.Points[i] = pointValueOf(mp.PointAt(i))
		}
		return out
	case MultiLineStringType:
		ml := g.(MultiLineString)
		out := MultiLineStringValue{D: ml.Dim(), LineStrings: make([]LineStringValue, ml.NumLineStrings())}
		for i := range out.LineStrings {
			out.LineStrings[i] = lineStringValueOf(ml.LineStringAt(i))
		}
		return out
	case MultiPolygonType:
		mp := g.(MultiPolygon)
		out := MultiPolygonValue{D: mp.Dim(), Polygons: make([]PolygonValue, mp.NumPolygons())}
		for i := range out.Polygons {
			out.Polygons[i] = polygonValueOf(mp.PolygonAt(i))
		}
		return out
	case GeometryCollectionType:
		gc := g.(GeometryCollection)
		out := GeometryCollectionValue{D: gc.Dim(), Geometries: make([]Geometry, gc.NumGeometries())}
		for i := range out.Geometries {
			out.Geometries[i] = ValueOf(gc.GeometryAt(i))
		}
		return out
	case RectType:
		r := g.(Rect)
		return RectValue{Lo: CoordOf(r.Min()), Hi: CoordOf(r.Max())}
	}
	return g
}

func pointValueOf(p Point) PointValue {
	c, ok := p.Coord()
	if !ok {
		return EmptyPoint(p.Dim())
	}
	return NewPoint(CoordOf(c))
}

func lineStringValueOf(l LineString) LineStringValue {
	out := LineStringValue{D: l.Dim(), Coords: make([]CoordValue, l.NumCoords())}
	for i := range out.Coords {
		out.Coords[i] = CoordOf(l.CoordAt(i))
	}
	return out
}

func polygonValueOf(p Polygon) PolygonValue {
	out := PolygonValue{D: p.Dim(), Rings: make([]LineStringValue, NumRings(p))}
	for i := range out.Rings {
		out.Rings[i] = lineStringValueOf(Ring(p, i))
	}
	return out
}
