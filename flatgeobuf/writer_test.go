package flatgeobuf

import (
	"bytes"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

func TestWrite_Points(t *testing.T) {
	geometries := []orb.Geometry{
		orb.Point{1, 2},
		orb.Point{3, 4},
		orb.Point{5, 6},
	}

	var buf bytes.Buffer
	err := Write(&buf, geometries, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data := buf.Bytes()
	if !bytes.HasPrefix(data, writer.MagicBytes) {
		t.Fatalf("expected magic bytes, got % x", data[:min(len(data), 8)])
	}
}

func TestWrite_GeometryTypes(t *testing.T) {
	tests := []struct {
		name       string
		geometries []orb.Geometry
		expected   string
	}{
		{"LineStrings", []orb.Geometry{
			orb.LineString{{0, 0}, {1, 1}, {2, 2}},
			orb.LineString{{5, 5}, {6, 6}},
		}, "LineString"},
		{"Polygons", []orb.Geometry{
			orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
			orb.Polygon{{{20, 20}, {30, 20}, {30, 30}, {20, 30}, {20, 20}}},
		}, "Polygon"},
		{"Mixed", []orb.Geometry{
			orb.Point{1, 2},
			orb.LineString{{0, 0}, {1, 1}},
		}, "Unknown"},
		{"Collections", []orb.Geometry{
			orb.Collection{orb.Point{1, 2}},
		}, "GeometryCollection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.geometries, nil); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			reader, err := NewReaderFromData(buf.Bytes())
			if err != nil {
				t.Fatalf("NewReaderFromData failed: %v", err)
			}
			if got := reader.Header().GeometryType; got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if got := reader.Header().FeaturesCount; got != uint64(len(tt.geometries)) {
				t.Errorf("expected %d features, got %d", len(tt.geometries), got)
			}
		})
	}
}

func TestWrite_EmptyGeometries(t *testing.T) {
	err := Write(&bytes.Buffer{}, []orb.Geometry{}, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWrite_WithOptions(t *testing.T) {
	opts := &Options{
		Name:         "test_layer",
		Description:  "A test layer",
		IncludeIndex: true,
		CRS:          WGS84(),
	}

	var buf bytes.Buffer
	if err := Write(&buf, []orb.Geometry{orb.Point{1, 2}}, opts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReaderFromData failed: %v", err)
	}
	header := reader.Header()
	if header.Name != "test_layer" || header.Description != "A test layer" {
		t.Errorf("unexpected name/description %q/%q", header.Name, header.Description)
	}
	if header.CRS == nil || header.CRS.Name != "WGS 84" {
		t.Errorf("expected WGS 84 CRS, got %+v", header.CRS)
	}
}

func TestWriteArray_Kinds(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	tests := []struct {
		name string
		typ  geoarrow.DataType
		geom orb.Geometry
	}{
		{"Point", geoarrow.PointType(geoarrow.XY, geoarrow.Interleaved, geoarrow.Metadata{}), orb.Point{1, 2}},
		{"MultiLineString", geoarrow.MultiLineStringType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{}),
			orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}},
		{"MultiPolygon", geoarrow.MultiPolygonType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{}),
			orb.MultiPolygon{square}},
		{"WKB", geoarrow.WKBType(geoarrow.KindWKB, geoarrow.Metadata{}), square},
		{"LargeWKT", geoarrow.WKTType(geoarrow.KindLargeWKT, geoarrow.Metadata{}), orb.LineString{{0, 0}, {5, 5}}},
		{"WKBView", geoarrow.WKBType(geoarrow.KindWKBView, geoarrow.Metadata{}), orb.MultiPoint{{1, 1}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := mustArray(t, tt.typ, []orb.Geometry{tt.geom})
			reader := writeArray(t, arr, nil, &Options{})
			out, err := reader.ReadArray(geoarrow.Separated)
			if err != nil {
				t.Fatalf("ReadArray failed: %v", err)
			}
			got, _ := geoarrow.GeometryAt(out, 0)
			if want := geotraits.FromOrb(tt.geom); !geotraits.Equal(want, got) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestWriteArray_BoxAsPolygon(t *testing.T) {
	arr := mustArray(t, geoarrow.BoxType(geoarrow.XY, geoarrow.Metadata{}),
		[]orb.Geometry{orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 3}}})
	reader := writeArray(t, arr, nil, &Options{})

	if got := reader.Header().GeometryType; got != "Polygon" {
		t.Errorf("expected Polygon, got %q", got)
	}
	out, err := reader.ReadArray(geoarrow.Separated)
	if err != nil {
		t.Fatalf("ReadArray failed: %v", err)
	}
	bounds, ok, err := geoarrow.TotalBounds(out)
	if err != nil || !ok {
		t.Fatalf("TotalBounds failed: %v", err)
	}
	if bounds.Hi.X() != 2 || bounds.Hi.Y() != 3 {
		t.Errorf("unexpected bounds %v", bounds)
	}
}

func TestWriteArray_Errors(t *testing.T) {
	typ := geoarrow.PointType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{})

	allNull := mustArray(t, typ, []orb.Geometry{nil, nil})
	if err := WriteArray(&bytes.Buffer{}, allNull, nil); !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}

	empty := mustArray(t, typ, nil)
	if err := WriteArray(&bytes.Buffer{}, empty, nil); !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}

	arr := mustArray(t, typ, []orb.Geometry{orb.Point{1, 1}})
	props := []geojson.Properties{{"a": 1}, {"a": 2}}
	if err := WriteArrayWithProperties(&bytes.Buffer{}, arr, props, nil); !errors.Is(err, ErrPropertyMismatch) {
		t.Errorf("expected ErrPropertyMismatch, got %v", err)
	}
}

func TestWriteFeatures_WithProperties(t *testing.T) {
	fc := geojson.NewFeatureCollection()

	f1 := geojson.NewFeature(orb.Point{1, 2})
	f1.Properties = geojson.Properties{
		"name":   "Point A",
		"value":  42,
		"active": true,
	}
	fc.Append(f1)

	f2 := geojson.NewFeature(orb.Point{3, 4})
	f2.Properties = geojson.Properties{
		"name":   "Point B",
		"value":  100,
		"active": false,
	}
	fc.Append(f2)

	var buf bytes.Buffer
	if err := WriteFeatures(&buf, fc, &Options{}); err != nil {
		t.Fatalf("WriteFeatures failed: %v", err)
	}

	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReaderFromData failed: %v", err)
	}
	props, err := reader.ReadProperties()
	if err != nil {
		t.Fatalf("ReadProperties failed: %v", err)
	}
	if len(props) != 2 {
		t.Fatalf("expected 2 property sets, got %d", len(props))
	}
	if props[1]["name"] != "Point B" || props[1]["value"] != int32(100) || props[1]["active"] != false {
		t.Errorf("unexpected properties %v", props[1])
	}
}

func TestWriteFeatures_NilCollection(t *testing.T) {
	err := WriteFeatures(&bytes.Buffer{}, nil, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeatures_EmptyCollection(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	err := WriteFeatures(&bytes.Buffer{}, fc, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeature_Single(t *testing.T) {
	f := geojson.NewFeature(orb.Point{1, 2})
	f.Properties = geojson.Properties{"name": "test"}

	var buf bytes.Buffer
	err := WriteFeature(&buf, f, nil)
	if err != nil {
		t.Fatalf("WriteFeature failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFeature_Nil(t *testing.T) {
	err := WriteFeature(&bytes.Buffer{}, nil, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeatures_ComplexGeometries(t *testing.T) {
	fc := geojson.NewFeatureCollection()

	// Polygon with hole
	poly := orb.Polygon{
		{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}},
		{{20, 20}, {80, 20}, {80, 80}, {20, 80}, {20, 20}},
	}
	f1 := geojson.NewFeature(poly)
	f1.Properties = geojson.Properties{"type": "polygon_with_hole"}
	fc.Append(f1)

	mpoly := orb.MultiPolygon{
		{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
		{{{50, 50}, {60, 50}, {60, 60}, {50, 60}, {50, 50}}},
	}
	f2 := geojson.NewFeature(mpoly)
	f2.Properties = geojson.Properties{"type": "multipolygon"}
	fc.Append(f2)

	var buf bytes.Buffer
	if err := WriteFeatures(&buf, fc, &Options{}); err != nil {
		t.Fatalf("WriteFeatures failed: %v", err)
	}

	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReaderFromData failed: %v", err)
	}
	got, err := reader.ReadFeatures()
	if err != nil {
		t.Fatalf("ReadFeatures failed: %v", err)
	}
	if len(got.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(got.Features))
	}
	if !orb.Equal(got.Features[0].Geometry, poly) || !orb.Equal(got.Features[1].Geometry, mpoly) {
		t.Errorf("geometries did not survive the round trip")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts == nil {
		t.Fatal("expected non-nil options")
	}

	if !opts.IncludeIndex {
		t.Error("expected IncludeIndex to be true by default")
	}
}

func TestWGS84(t *testing.T) {
	crs := WGS84()

	if crs == nil {
		t.Fatal("expected non-nil CRS")
	}

	if crs.Code != 4326 {
		t.Errorf("expected code 4326, got %d", crs.Code)
	}

	if crs.Name != "WGS 84" {
		t.Errorf("expected name 'WGS 84', got %q", crs.Name)
	}

	if got := crs.GeoArrow(); got != geoarrow.EPSG(4326) {
		t.Errorf("expected EPSG:4326, got %+v", got)
	}
}

func TestCRSFromGeoArrow(t *testing.T) {
	tests := []struct {
		name     string
		crs      geoarrow.CRS
		expected *CRS
	}{
		{"zero", geoarrow.CRS{}, nil},
		{"authority", geoarrow.EPSG(3857), &CRS{Org: "EPSG", Code: 3857}},
		{"lowercase authority", geoarrow.CRS{Value: "epsg:4326"}, &CRS{Org: "EPSG", Code: 4326}},
		{"wkt2", geoarrow.CRS{Type: geoarrow.CRSWKT2, Value: `GEOGCRS["x"]`}, &CRS{WKT: `GEOGCRS["x"]`}},
		{"projjson", geoarrow.CRS{Type: geoarrow.CRSProjJSON, Value: `{"type":"GeographicCRS"}`}, nil},
		{"srid", geoarrow.CRS{Type: geoarrow.CRSSRID, Value: "4326"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crsFromGeoArrow(tt.crs)
			if (got == nil) != (tt.expected == nil) || (got != nil && *got != *tt.expected) {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}
