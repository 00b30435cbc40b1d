package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/arrowext"
	"github.com/tingold/orb-geoarrow/flatgeobuf"
)

func polygons(t *testing.T) geoarrow.Array {
	t.Helper()
	arr, err := geoarrow.FromOrb(geoarrow.PolygonType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{}), []orb.Geometry{
		orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}},
		orb.Polygon{
			{{10, 10}, {20, 10}, {20, 20}, {10, 20}, {10, 10}},
			{{12, 12}, {14, 12}, {14, 14}, {12, 12}},
		},
		orb.Polygon{{{-5.5, -5.5}, {-1.25, -5.5}, {-1.25, -1.25}, {-5.5, -5.5}}},
	})
	require.NoError(t, err)
	return arr
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path, explicit string
		want           string
		wantErr        bool
	}{
		{"a.fgb", "", formatFGB, false},
		{"a.GeoJSON", "", formatGeoJSON, false},
		{"a.json", "", formatGeoJSON, false},
		{"a.wkt", "", formatWKT, false},
		{"a.arrow", "", formatArrow, false},
		{"a.feather", "", formatArrow, false},
		{"a.bin", "WKT", formatWKT, false},
		{"a.bin", "", "", true},
		{"a.fgb", "shapefile", "", true},
	}
	for _, tt := range tests {
		got, err := formatOf(tt.path, tt.explicit)
		if tt.wantErr {
			assert.ErrorIs(t, err, errUnknownFormat, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := polygons(t)

	for _, format := range []string{formatFGB, formatGeoJSON, formatWKT, formatArrow} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, writeDataset(f, format, &dataset{arr: want}, writeOptions{}))
			require.NoError(t, f.Close())

			ds, err := readDataset(path, format, geoarrow.Separated)
			require.NoError(t, err)
			assert.Equal(t, want.DataType(), ds.arr.DataType())
			assert.True(t, geoarrow.Equal(want, ds.arr), "arrays differ after %s round trip", format)
		})
	}
}

func TestReadWKT_NullLines(t *testing.T) {
	in := "POINT (1 2)\n\nPOINT (3 4)\n"
	arr, err := readWKT(strings.NewReader(in), geoarrow.Interleaved)
	require.NoError(t, err)

	assert.Equal(t, geoarrow.PointType(geoarrow.XY, geoarrow.Interleaved, geoarrow.Metadata{}), arr.DataType())
	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 1, arr.NullCount())
	assert.True(t, arr.IsNull(1))
}

func TestReadWKT_Mixed(t *testing.T) {
	in := "POINT (1 2)\nLINESTRING (0 0, 1 1)\n"
	arr, err := readWKT(strings.NewReader(in), geoarrow.Separated)
	require.NoError(t, err)
	assert.Equal(t, geoarrow.KindGeometry, arr.DataType().Kind)
}

func TestReadWKT_Invalid(t *testing.T) {
	_, err := readWKT(strings.NewReader("POINT (1\n"), geoarrow.Separated)
	assert.Error(t, err)
}

func TestWriteGeoJSON_Properties(t *testing.T) {
	var buf bytes.Buffer
	ds := &dataset{
		arr:   polygons(t),
		props: []geojson.Properties{{"name": "a"}, nil, {"name": "c"}},
	}
	require.NoError(t, writeGeoJSON(&buf, ds))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "a", fc.Features[0].Properties["name"])
	assert.Empty(t, fc.Features[1].Properties)
	assert.Equal(t, "c", fc.Features[2].Properties["name"])
}

func TestTargetType(t *testing.T) {
	arr := polygons(t)

	typ, err := targetType(arr, "multipolygon", geoarrow.Interleaved)
	require.NoError(t, err)
	assert.Equal(t, geoarrow.MultiPolygonType(geoarrow.XY, geoarrow.Interleaved, geoarrow.Metadata{}), typ)

	typ, err = targetType(arr, "wkb", geoarrow.Separated)
	require.NoError(t, err)
	assert.Equal(t, geoarrow.WKBType(geoarrow.KindWKB, geoarrow.Metadata{}), typ)

	_, err = targetType(arr, "hexagon", geoarrow.Separated)
	assert.Error(t, err)
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wkt")
	out := filepath.Join(dir, "out.fgb")
	require.NoError(t, os.WriteFile(in, []byte("POINT (1 2)\nPOINT (3 4)\n"), 0o644))

	conf = viper.New()
	t.Cleanup(func() { conf = viper.New() })
	conf.Set("coord-type", "interleaved")
	conf.Set("kind", "multipoint")
	conf.Set("epsg", 3857)
	conf.Set("index", false)
	conf.Set("name", "pts")

	require.NoError(t, runConvert(in, out))

	r, err := flatgeobuf.NewReader(out)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.Equal(t, "pts", h.Name)
	assert.Equal(t, "MultiPoint", h.GeometryType)
	require.NotNil(t, h.CRS)
	assert.Equal(t, 3857, h.CRS.Code)

	arr, err := r.ReadArrayAs(geoarrow.MultiPointType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{}))
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, geoarrow.EPSG(3857), arr.DataType().Metadata.CRS)
}

func TestRunConvert_UnknownFormat(t *testing.T) {
	conf = viper.New()
	t.Cleanup(func() { conf = viper.New() })
	err := runConvert("in.shp", "out.fgb")
	assert.ErrorIs(t, err, errUnknownFormat)
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	arr := polygons(t).WithMetadata(geoarrow.Metadata{CRS: geoarrow.EPSG(4326)})
	require.NoError(t, printInfo(&buf, &dataset{arr: arr}))

	out := buf.String()
	assert.Contains(t, out, "polygon(xy, separated)")
	assert.Contains(t, out, "geoarrow.polygon")
	assert.Contains(t, out, "Rows:        3")
	assert.Contains(t, out, "EPSG:4326")
	assert.Contains(t, out, "Bounds:      [-5.5, -5.5, 20, 20]")
	assert.NotContains(t, out, "FlatGeobuf:")
}

func TestDataHandler(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wkt")
	require.NoError(t, os.WriteFile(in, []byte("POINT (1 2)\nPOINT (3 4)\nPOINT (5 6)\n"), 0o644))

	h, err := newDataHandler(in, "", "")
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/data.fgb")
	require.NoError(t, err)
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	r, err := flatgeobuf.NewReaderFromData(body.Bytes())
	require.NoError(t, err)
	assert.True(t, r.Header().HasIndex)
	assert.Equal(t, uint64(3), r.Header().FeaturesCount)
	require.NotNil(t, r.Header().CRS)
	assert.Equal(t, 4326, r.Header().CRS.Code)

	resp, err = http.Get(srv.URL + "/data.arrow")
	require.NoError(t, err)
	defer resp.Body.Close()
	ar, err := ipc.NewReader(resp.Body)
	require.NoError(t, err)
	defer ar.Release()
	require.True(t, ar.Next())
	arr, err := arrowext.FromRecord(ar.Record(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Len())

	resp, err = http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
