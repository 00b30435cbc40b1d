package geotraits

import (
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
)

func dimFromLayout(l geom.Layout) (Dimension, error) {
	switch l {
	case geom.XY, geom.NoLayout:
		return XY, nil
	case geom.XYZ:
		return XYZ, nil
	case geom.XYM:
		return XYM, nil
	case geom.XYZM:
		return XYZM, nil
	default:
		return XY, errors.Errorf("geotraits: unsupported go-geom layout %v", l)
	}
}

func layoutFromDim(d Dimension) geom.Layout {
	switch d {
	case XYZ:
		return geom.XYZ
	case XYM:
		return geom.XYM
	case XYZM:
		return geom.XYZM
	default:
		return geom.XY
	}
}

// FromGeom converts a go-geom geometry into an owned geometry value keeping
// its Z and M ordinates. A nil geometry returns nil.
func FromGeom(g geom.T) (Geometry, error) {
	if g == nil {
		return nil, nil
	}
	d, err := dimFromLayout(g.Layout())
	if err != nil {
		return nil, err
	}
	switch v := g.(type) {
	case *geom.Point:
		if v.Empty() {
			return EmptyPoint(d), nil
		}
		return NewPoint(NewCoord(d, v.FlatCoords()...)), nil
	case *geom.LineString:
		return flatLineString(d, v.FlatCoords()), nil
	case *geom.LinearRing:
		return PolygonValue{D: d, Rings: []LineStringValue{flatLineString(d, v.FlatCoords())}}, nil
	case *geom.Polygon:
		return geomPolygon(d, v), nil
	case *geom.MultiPoint:
		out := MultiPointValue{D: d, Points: make([]PointValue, v.NumPoints())}
		for i := range out.Points {
			p := v.Point(i)
			if p.Empty() {
				out.Points[i] = EmptyPoint(d)
				continue
			}
			out.Points[i] = NewPoint(NewCoord(d, p.FlatCoords()...))
		}
		return out, nil
	case *geom.MultiLineString:
		out := MultiLineStringValue{D: d, LineStrings: make([]LineStringValue, v.NumLineStrings())}
		for i := range out.LineStrings {
			out.LineStrings[i] = flatLineString(d, v.LineString(i).FlatCoords())
		}
		return out, nil
	case *geom.MultiPolygon:
		out := MultiPolygonValue{D: d, Polygons: make([]PolygonValue, v.NumPolygons())}
		for i := range out.Polygons {
			out.Polygons[i] = geomPolygon(d, v.Polygon(i))
		}
		return out, nil
	case *geom.GeometryCollection:
		out := GeometryCollectionValue{D: d, Geometries: make([]Geometry, 0, v.NumGeoms())}
		for i, child := range v.Geoms() {
			c, err := FromGeom(child)
			if err != nil {
				return nil, err
			}
			if i == 0 && g.Layout() == geom.NoLayout {
				out.D = c.Dim()
			}
			out.Geometries = append(out.Geometries, c)
		}
		return out, nil
	default:
		return nil, errors.Errorf("geotraits: unsupported go-geom type %T", g)
	}
}

func flatLineString(d Dimension, flat []float64) LineStringValue {
	stride := d.Size()
	out := LineStringValue{D: d, Coords: make([]CoordValue, len(flat)/stride)}
	for i := range out.Coords {
		out.Coords[i] = NewCoord(d, flat[i*stride:(i+1)*stride]...)
	}
	return out
}

func geomPolygon(d Dimension, p *geom.Polygon) PolygonValue {
	out := PolygonValue{D: d, Rings: make([]LineStringValue, p.NumLinearRings())}
	for i := range out.Rings {
		out.Rings[i] = flatLineString(d, p.LinearRing(i).FlatCoords())
	}
	return out
}

// ToGeom converts g into the matching go-geom geometry. Rects become
// polygons.
func ToGeom(g Geometry) (geom.T, error) {
	if g == nil {
		return nil, nil
	}
	layout := layoutFromDim(g.Dim())
	switch g.GeometryType() {
	case PointType:
		c, ok := g.(Point).Coord()
		if !ok {
			return geom.NewPointEmpty(layout), nil
		}
		return geom.NewPointFlat(layout, appendFlat(nil, c)), nil
	case LineStringType:
		return geom.NewLineStringFlat(layout, appendLineString(nil, g.(LineString))), nil
	case PolygonType:
		flat, ends := appendPolygon(nil, nil, g.(Polygon))
		return geom.NewPolygonFlat(layout, flat, ends), nil
	case MultiPointType:
		mp := g.(MultiPoint)
		var flat []float64
		for i := 0; i < mp.NumPoints(); i++ {
			if c, ok := mp.PointAt(i).Coord(); ok {
				flat = appendFlat(flat, c)
			}
		}
		return geom.NewMultiPointFlat(layout, flat), nil
	case MultiLineStringType:
		ml := g.(MultiLineString)
		var flat []float64
		ends := make([]int, 0, ml.NumLineStrings())
		for i := 0; i < ml.NumLineStrings(); i++ {
			flat = appendLineString(flat, ml.LineStringAt(i))
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(layout, flat, ends), nil
	case MultiPolygonType:
		mp := g.(MultiPolygon)
		var flat []float64
		endss := make([][]int, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			var ends []int
			flat, ends = appendPolygon(flat, nil, mp.PolygonAt(i))
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss), nil
	case GeometryCollectionType:
		gc := g.(GeometryCollection)
		out := geom.NewGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			child, err := ToGeom(gc.GeometryAt(i))
			if err != nil {
				return nil, err
			}
			if err := out.Push(child); err != nil {
				return nil, errors.Wrap(err, "geotraits: building go-geom collection")
			}
		}
		return out, nil
	case RectType:
		return ToGeom(RectValue{Lo: CoordOf(g.(Rect).Min()), Hi: CoordOf(g.(Rect).Max())}.Polygon())
	}
	return nil, errors.Errorf("geotraits: unsupported geometry type %s", g.GeometryType())
}

func appendFlat(flat []float64, c Coord) []float64 {
	for i := 0; i < c.Dim().Size(); i++ {
		flat = append(flat, c.Nth(i))
	}
	return flat
}

func appendLineString(flat []float64, l LineString) []float64 {
	for i := 0; i < l.NumCoords(); i++ {
		flat = appendFlat(flat, l.CoordAt(i))
	}
	return flat
}

func appendPolygon(flat []float64, ends []int, p Polygon) ([]float64, []int) {
	for i := 0; i < NumRings(p); i++ {
		flat = appendLineString(flat, Ring(p, i))
		ends = append(ends, len(flat))
	}
	return flat, ends
}
