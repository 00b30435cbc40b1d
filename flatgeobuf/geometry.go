package flatgeobuf

import (
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// fgbType returns the FlatGeobuf geometry type storing t. Rects are
// written as polygons.
func fgbType(t geotraits.GeometryType) flattypes.GeometryType {
	switch t {
	case geotraits.RectType:
		return flattypes.GeometryTypePolygon
	case geotraits.PointType, geotraits.LineStringType, geotraits.PolygonType,
		geotraits.MultiPointType, geotraits.MultiLineStringType, geotraits.MultiPolygonType,
		geotraits.GeometryCollectionType:
		return flattypes.GeometryType(t)
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// dimensionOf returns the dimension declared by a header's Z and M flags.
func dimensionOf(hasZ, hasM bool) geotraits.Dimension {
	switch {
	case hasZ && hasM:
		return geotraits.XYZM
	case hasZ:
		return geotraits.XYZ
	case hasM:
		return geotraits.XYM
	}
	return geotraits.XY
}

// coordSink collects positions into the separate xy, z and m vectors of a
// FlatGeobuf geometry.
type coordSink struct {
	dim     geotraits.Dimension
	xy      []float64
	z, m    []float64
	ends    []uint32
	written uint32
}

func (s *coordSink) add(c geotraits.Coord) {
	s.xy = append(s.xy, c.X(), c.Y())
	n := 2
	if s.dim.HasZ() {
		s.z = append(s.z, c.Nth(n))
		n++
	}
	if s.dim.HasM() {
		s.m = append(s.m, c.Nth(n))
	}
	s.written++
}

func (s *coordSink) addNaN() {
	s.xy = append(s.xy, math.NaN(), math.NaN())
	if s.dim.HasZ() {
		s.z = append(s.z, math.NaN())
	}
	if s.dim.HasM() {
		s.m = append(s.m, math.NaN())
	}
	s.written++
}

// ring appends l and closes a run in the ends vector.
func (s *coordSink) ring(l geotraits.LineString) {
	for i := 0; i < l.NumCoords(); i++ {
		s.add(l.CoordAt(i))
	}
	s.ends = append(s.ends, s.written)
}

func (s *coordSink) polygon(p geotraits.Polygon) {
	for i := 0; i < geotraits.NumRings(p); i++ {
		s.ring(geotraits.Ring(p, i))
	}
}

func (s *coordSink) apply(g *writer.Geometry, withEnds bool) {
	g.SetXY(s.xy)
	if s.dim.HasZ() {
		g.SetZ(s.z)
	}
	if s.dim.HasM() {
		g.SetM(s.m)
	}
	if withEnds && len(s.ends) > 0 {
		g.SetEnds(s.ends)
	}
}

// geometryToFGB converts a geometry to a FlatGeobuf writer.Geometry.
func geometryToFGB(geom geotraits.Geometry, builder *flatbuffers.Builder) (*writer.Geometry, error) {
	if geom == nil {
		return nil, ErrNilGeometry
	}

	g := writer.NewGeometry(builder)
	g.SetType(fgbType(geom.GeometryType()))
	sink := &coordSink{dim: geom.Dim()}

	switch geom.GeometryType() {
	case geotraits.PointType:
		if c, ok := geom.(geotraits.Point).Coord(); ok {
			sink.add(c)
		}
		sink.apply(g, false)

	case geotraits.LineStringType:
		l := geom.(geotraits.LineString)
		for i := 0; i < l.NumCoords(); i++ {
			sink.add(l.CoordAt(i))
		}
		sink.apply(g, false)

	case geotraits.PolygonType:
		sink.polygon(geom.(geotraits.Polygon))
		sink.apply(g, true)

	case geotraits.MultiPointType:
		mp := geom.(geotraits.MultiPoint)
		for i := 0; i < mp.NumPoints(); i++ {
			if c, ok := mp.PointAt(i).Coord(); ok {
				sink.add(c)
			} else {
				sink.addNaN()
			}
		}
		sink.apply(g, false)

	case geotraits.MultiLineStringType:
		ml := geom.(geotraits.MultiLineString)
		for i := 0; i < ml.NumLineStrings(); i++ {
			sink.ring(ml.LineStringAt(i))
		}
		sink.apply(g, true)

	case geotraits.MultiPolygonType:
		mp := geom.(geotraits.MultiPolygon)
		parts := make([]writer.Geometry, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			part, err := geometryToFGB(mp.PolygonAt(i), builder)
			if err != nil {
				return nil, err
			}
			parts = append(parts, *part)
		}
		g.SetParts(parts)

	case geotraits.GeometryCollectionType:
		gc := geom.(geotraits.GeometryCollection)
		parts := make([]writer.Geometry, 0, gc.NumGeometries())
		for i := 0; i < gc.NumGeometries(); i++ {
			part, err := geometryToFGB(gc.GeometryAt(i), builder)
			if err != nil {
				return nil, err
			}
			parts = append(parts, *part)
		}
		g.SetParts(parts)

	case geotraits.RectType:
		r := geom.(geotraits.Rect)
		rect := geotraits.RectValue{Lo: geotraits.CoordOf(r.Min()), Hi: geotraits.CoordOf(r.Max())}
		sink.polygon(rect.Polygon())
		sink.apply(g, true)

	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%s", geom.GeometryType())
	}

	return g, nil
}

// fgbCoords reads positions out of the vectors of a FlatGeobuf geometry.
// Missing Z or M values read as NaN.
type fgbCoords struct {
	g   *flattypes.Geometry
	dim geotraits.Dimension
}

func (c fgbCoords) count() int { return c.g.XyLength() / 2 }

func (c fgbCoords) at(i int) geotraits.CoordValue {
	v := geotraits.CoordValue{D: c.dim}
	v.V[0], v.V[1] = c.g.Xy(2*i), c.g.Xy(2*i+1)
	n := 2
	if c.dim.HasZ() {
		v.V[n] = math.NaN()
		if i < c.g.ZLength() {
			v.V[n] = c.g.Z(i)
		}
		n++
	}
	if c.dim.HasM() {
		v.V[n] = math.NaN()
		if i < c.g.MLength() {
			v.V[n] = c.g.M(i)
		}
	}
	return v
}

func (c fgbCoords) lineString(start, end int) geotraits.LineStringValue {
	l := geotraits.LineStringValue{D: c.dim, Coords: make([]geotraits.CoordValue, 0, end-start)}
	for i := start; i < end; i++ {
		l.Coords = append(l.Coords, c.at(i))
	}
	return l
}

// runs splits the positions at the ends vector. Without ends all
// positions form one run.
func (c fgbCoords) runs() ([]geotraits.LineStringValue, error) {
	n := c.count()
	if c.g.EndsLength() == 0 {
		if n == 0 {
			return nil, nil
		}
		return []geotraits.LineStringValue{c.lineString(0, n)}, nil
	}
	out := make([]geotraits.LineStringValue, 0, c.g.EndsLength())
	start := 0
	for i := 0; i < c.g.EndsLength(); i++ {
		end := int(c.g.Ends(i))
		if end < start || end > n {
			return nil, errors.Wrapf(ErrInvalidData, "ring end %d outside [%d, %d]", end, start, n)
		}
		out = append(out, c.lineString(start, end))
		start = end
	}
	return out, nil
}

// GeometryFromFGB decodes a FlatGeobuf geometry. A geometry without its own
// type takes headerType, which every non-collection file declares. dim is
// the dimension declared by the file header.
func GeometryFromFGB(fgbGeom *flattypes.Geometry, headerType flattypes.GeometryType, dim geotraits.Dimension) (geotraits.Geometry, error) {
	if fgbGeom == nil {
		return nil, nil
	}

	geomType := fgbGeom.Type()
	if geomType == flattypes.GeometryTypeUnknown {
		geomType = headerType
	}
	c := fgbCoords{g: fgbGeom, dim: dim}

	switch geomType {
	case flattypes.GeometryTypePoint:
		if c.count() == 0 {
			return geotraits.EmptyPoint(dim), nil
		}
		return geotraits.NewPoint(c.at(0)), nil

	case flattypes.GeometryTypeLineString:
		return c.lineString(0, c.count()), nil

	case flattypes.GeometryTypePolygon:
		rings, err := c.runs()
		if err != nil {
			return nil, err
		}
		return geotraits.PolygonValue{D: dim, Rings: rings}, nil

	case flattypes.GeometryTypeMultiPoint:
		mp := geotraits.MultiPointValue{D: dim, Points: make([]geotraits.PointValue, 0, c.count())}
		for i := 0; i < c.count(); i++ {
			p := geotraits.NewPoint(c.at(i))
			p.Empty = math.IsNaN(p.C.V[0]) && math.IsNaN(p.C.V[1])
			mp.Points = append(mp.Points, p)
		}
		return mp, nil

	case flattypes.GeometryTypeMultiLineString:
		lines, err := c.runs()
		if err != nil {
			return nil, err
		}
		return geotraits.MultiLineStringValue{D: dim, LineStrings: lines}, nil

	case flattypes.GeometryTypeMultiPolygon:
		if fgbGeom.PartsLength() == 0 {
			// Some writers store a single polygon inline.
			rings, err := c.runs()
			if err != nil || len(rings) == 0 {
				return geotraits.MultiPolygonValue{D: dim}, err
			}
			return geotraits.MultiPolygonValue{D: dim, Polygons: []geotraits.PolygonValue{{D: dim, Rings: rings}}}, nil
		}
		mp := geotraits.MultiPolygonValue{D: dim, Polygons: make([]geotraits.PolygonValue, 0, fgbGeom.PartsLength())}
		for i := 0; i < fgbGeom.PartsLength(); i++ {
			var part flattypes.Geometry
			if !fgbGeom.Parts(&part, i) {
				return nil, errors.Wrapf(ErrInvalidData, "multipolygon part %d", i)
			}
			g, err := GeometryFromFGB(&part, flattypes.GeometryTypePolygon, dim)
			if err != nil {
				return nil, err
			}
			poly, ok := g.(geotraits.PolygonValue)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidData, "multipolygon part %d is a %s", i, g.GeometryType())
			}
			mp.Polygons = append(mp.Polygons, poly)
		}
		return mp, nil

	case flattypes.GeometryTypeGeometryCollection:
		gc := geotraits.GeometryCollectionValue{D: dim, Geometries: make([]geotraits.Geometry, 0, fgbGeom.PartsLength())}
		for i := 0; i < fgbGeom.PartsLength(); i++ {
			var part flattypes.Geometry
			if !fgbGeom.Parts(&part, i) {
				return nil, errors.Wrapf(ErrInvalidData, "collection part %d", i)
			}
			g, err := GeometryFromFGB(&part, flattypes.GeometryTypeUnknown, dim)
			if err != nil {
				return nil, err
			}
			gc.Geometries = append(gc.Geometries, g)
		}
		return gc, nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%s", flattypes.EnumNamesGeometryType[geomType])
	}
}
