package flatgeobuf

import (
	"math"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

func TestFGBType(t *testing.T) {
	tests := []struct {
		name     string
		geom     orb.Geometry
		expected flattypes.GeometryType
	}{
		{"Point", orb.Point{1, 2}, flattypes.GeometryTypePoint},
		{"MultiPoint", orb.MultiPoint{{1, 2}, {3, 4}}, flattypes.GeometryTypeMultiPoint},
		{"LineString", orb.LineString{{0, 0}, {1, 1}}, flattypes.GeometryTypeLineString},
		{"MultiLineString", orb.MultiLineString{{{0, 0}, {1, 1}}}, flattypes.GeometryTypeMultiLineString},
		{"Ring", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, flattypes.GeometryTypePolygon},
		{"Polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, flattypes.GeometryTypePolygon},
		{"MultiPolygon", orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}, flattypes.GeometryTypeMultiPolygon},
		{"Collection", orb.Collection{orb.Point{1, 2}}, flattypes.GeometryTypeGeometryCollection},
		{"Bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, flattypes.GeometryTypePolygon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fgbType(geotraits.FromOrb(tt.geom).GeometryType())
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// encodeDecode writes g into a FlatGeobuf feature and decodes it again.
func encodeDecode(t *testing.T, g geotraits.Geometry, dim geotraits.Dimension) geotraits.Geometry {
	t.Helper()
	builder := flatbuffers.NewBuilder(256)
	fgbGeom, err := geometryToFGB(g, builder)
	if err != nil {
		t.Fatalf("geometryToFGB failed: %v", err)
	}
	feature := writer.NewFeature(builder)
	feature.SetGeometry(fgbGeom)
	builder.FinishSizePrefixed(feature.Build())

	f := flattypes.GetSizePrefixedRootAsFeature(builder.FinishedBytes(), 0)
	var obj flattypes.Geometry
	out, err := GeometryFromFGB(f.Geometry(&obj), flattypes.GeometryTypeUnknown, dim)
	if err != nil {
		t.Fatalf("GeometryFromFGB failed: %v", err)
	}
	return out
}

func TestGeometryRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{"Point", orb.Point{1.5, 2.5}},
		{"LineString", orb.LineString{{0, 0}, {1, 1}, {2, 2}}},
		{"PolygonWithHole", orb.Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{2, 2}, {8, 2}, {8, 8}, {2, 8}, {2, 2}},
		}},
		{"EmptyPolygon", orb.Polygon{}},
		{"MultiPoint", orb.MultiPoint{{1, 2}, {3, 4}}},
		{"MultiLineString", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}, {4, 4}}}},
		{"MultiPolygon", orb.MultiPolygon{
			{{{0, 0}, {5, 0}, {5, 5}, {0, 5}, {0, 0}}},
			{{{10, 10}, {15, 10}, {15, 15}, {10, 15}, {10, 10}}},
		}},
		{"Collection", orb.Collection{
			orb.Point{1, 2},
			orb.LineString{{0, 0}, {1, 1}},
			orb.Collection{orb.MultiPoint{{5, 5}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := geotraits.FromOrb(tt.geom)
			out := encodeDecode(t, in, geotraits.XY)
			if !geotraits.Equal(in, out) {
				t.Errorf("expected %v, got %v", in, out)
			}
		})
	}
}

func TestGeometryRoundTrip_ZM(t *testing.T) {
	tests := []struct {
		name string
		dim  geotraits.Dimension
		ords [][]float64
	}{
		{"XYZ", geotraits.XYZ, [][]float64{{0, 0, 1}, {1, 1, 2}}},
		{"XYM", geotraits.XYM, [][]float64{{0, 0, 10}, {1, 1, 20}}},
		{"XYZM", geotraits.XYZM, [][]float64{{0, 0, 1, 10}, {1, 1, 2, 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls := geotraits.LineStringValue{D: tt.dim}
			for _, o := range tt.ords {
				ls.Coords = append(ls.Coords, geotraits.NewCoord(tt.dim, o...))
			}
			out := encodeDecode(t, ls, tt.dim)
			if !geotraits.Equal(ls, out) {
				t.Errorf("expected %v, got %v", ls, out)
			}
		})
	}
}

func TestGeometryFromFGB_MissingZ(t *testing.T) {
	ls := geotraits.FromOrb(orb.LineString{{0, 0}, {1, 1}})
	out := encodeDecode(t, ls, geotraits.XYZ)

	got, ok := out.(geotraits.LineStringValue)
	if !ok {
		t.Fatalf("expected LineStringValue, got %T", out)
	}
	if got.D != geotraits.XYZ {
		t.Fatalf("expected XYZ, got %s", got.D)
	}
	for _, c := range got.Coords {
		if !math.IsNaN(c.Z()) {
			t.Errorf("expected NaN z, got %v", c.Z())
		}
	}
}

func TestGeometryToFGB_Bound(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	out := encodeDecode(t, geotraits.FromOrb(bound), geotraits.XY)

	poly, ok := out.(geotraits.PolygonValue)
	if !ok {
		t.Fatalf("expected PolygonValue, got %T", out)
	}
	if len(poly.Rings) != 1 || len(poly.Rings[0].Coords) != 5 {
		t.Fatalf("expected one closed ring of 5 positions, got %v", poly.Rings)
	}
	b, _ := geotraits.Bounds(poly)
	if b.Lo.X() != 0 || b.Lo.Y() != 0 || b.Hi.X() != 10 || b.Hi.Y() != 10 {
		t.Errorf("unexpected bounds %v", b)
	}
}

func TestGeometryToFGB_EmptyPoint(t *testing.T) {
	out := encodeDecode(t, geotraits.EmptyPoint(geotraits.XY), geotraits.XY)
	if !geotraits.IsEmpty(out) {
		t.Errorf("expected empty point, got %v", out)
	}
}

func TestGeometryToFGB_Nil(t *testing.T) {
	builder := flatbuffers.NewBuilder(256)

	geom, err := geometryToFGB(nil, builder)
	if geom != nil || err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v, %v", geom, err)
	}
}

func TestGeometryFromFGB_HeaderType(t *testing.T) {
	// Features may omit their type when the header declares one.
	builder := flatbuffers.NewBuilder(256)
	g := writer.NewGeometry(builder)
	g.SetXY([]float64{0, 0, 1, 1})
	feature := writer.NewFeature(builder)
	feature.SetGeometry(g)
	builder.FinishSizePrefixed(feature.Build())

	f := flattypes.GetSizePrefixedRootAsFeature(builder.FinishedBytes(), 0)
	var obj flattypes.Geometry
	out, err := GeometryFromFGB(f.Geometry(&obj), flattypes.GeometryTypeLineString, geotraits.XY)
	if err != nil {
		t.Fatalf("GeometryFromFGB failed: %v", err)
	}
	if out.GeometryType() != geotraits.LineStringType {
		t.Errorf("expected LineString, got %s", out.GeometryType())
	}

	_, err = GeometryFromFGB(&obj, flattypes.GeometryTypeUnknown, geotraits.XY)
	if err == nil {
		t.Error("expected error for untyped geometry without header type")
	}
}

func TestDimensionOf(t *testing.T) {
	tests := []struct {
		hasZ, hasM bool
		expected   geotraits.Dimension
	}{
		{false, false, geotraits.XY},
		{true, false, geotraits.XYZ},
		{false, true, geotraits.XYM},
		{true, true, geotraits.XYZM},
	}
	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			if got := dimensionOf(tt.hasZ, tt.hasM); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
