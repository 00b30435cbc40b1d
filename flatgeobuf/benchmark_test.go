package flatgeobuf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// =============================================================================
// Test Data Generators
// =============================================================================

func generatePoints(r *rand.Rand, n int, minX, maxX, minY, maxY float64) []orb.Point {
	points := make([]orb.Point, n)
	for i := range points {
		points[i] = orb.Point{minX + r.Float64()*(maxX-minX), minY + r.Float64()*(maxY-minY)}
	}
	return points
}

func generateLineStrings(r *rand.Rand, n, verticesPerLine int, minX, maxX, minY, maxY float64) []orb.LineString {
	lines := make([]orb.LineString, n)
	for i := range lines {
		line := make(orb.LineString, verticesPerLine)
		startX := minX + r.Float64()*(maxX-minX)
		startY := minY + r.Float64()*(maxY-minY)
		for j := range line {
			line[j] = orb.Point{startX + float64(j)*0.01, startY + float64(j)*0.01}
		}
		lines[i] = line
	}
	return lines
}

// generatePolygons creates n random square polygons.
func generatePolygons(r *rand.Rand, n int, minX, maxX, minY, maxY float64) []orb.Polygon {
	polys := make([]orb.Polygon, n)
	for i := range polys {
		x := minX + r.Float64()*(maxX-minX-0.1)
		y := minY + r.Float64()*(maxY-minY-0.1)
		size := 0.01 + r.Float64()*0.09
		polys[i] = orb.Polygon{{
			{x, y},
			{x + size, y},
			{x + size, y + size},
			{x, y + size},
			{x, y},
		}}
	}
	return polys
}

// generateComplexPolygons creates polygons approximating circles.
func generateComplexPolygons(r *rand.Rand, n, verticesPerPolygon int, minX, maxX, minY, maxY float64) []orb.Polygon {
	polys := make([]orb.Polygon, n)
	for i := range polys {
		centerX := minX + r.Float64()*(maxX-minX)
		centerY := minY + r.Float64()*(maxY-minY)
		radius := 0.01 + r.Float64()*0.05

		ring := make(orb.Ring, verticesPerPolygon+1)
		for j := 0; j < verticesPerPolygon; j++ {
			angle := 2 * math.Pi * float64(j) / float64(verticesPerPolygon)
			ring[j] = orb.Point{centerX + radius*math.Cos(angle), centerY + radius*math.Sin(angle)}
		}
		ring[verticesPerPolygon] = ring[0]
		polys[i] = orb.Polygon{ring}
	}
	return polys
}

func generateGeometries(r *rand.Rand, n int, geomType string) []orb.Geometry {
	geometries := make([]orb.Geometry, 0, n)
	switch geomType {
	case "point":
		for _, p := range generatePoints(r, n, -180, 180, -90, 90) {
			geometries = append(geometries, p)
		}
	case "linestring":
		for _, l := range generateLineStrings(r, n, 10, -180, 180, -90, 90) {
			geometries = append(geometries, l)
		}
	case "polygon":
		for _, p := range generatePolygons(r, n, -180, 180, -90, 90) {
			geometries = append(geometries, p)
		}
	case "complexpolygon":
		for _, p := range generateComplexPolygons(r, n, 32, -180, 180, -90, 90) {
			geometries = append(geometries, p)
		}
	}
	return geometries
}

// generateFeatureCollection creates a FeatureCollection with random geometries and properties.
func generateFeatureCollection(r *rand.Rand, n int, geomType string, withProperties bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, geom := range generateGeometries(r, n, geomType) {
		f := geojson.NewFeature(geom)
		if withProperties {
			f.Properties = geojson.Properties{
				"id":          i,
				"name":        fmt.Sprintf("Feature %d", i),
				"value":       r.Float64() * 1000,
				"active":      r.Intn(2) == 1,
				"category":    fmt.Sprintf("cat_%d", r.Intn(10)),
				"description": "This is a test feature with some descriptive text that adds to the payload size",
			}
		}
		fc.Append(f)
	}
	return fc
}

// generateArray builds a native array of the kind matching geomType.
func generateArray(tb testing.TB, r *rand.Rand, n int, geomType string) geoarrow.Array {
	tb.Helper()
	var typ geoarrow.DataType
	switch geomType {
	case "point":
		typ = geoarrow.PointType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{})
	case "linestring":
		typ = geoarrow.LineStringType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{})
	default:
		typ = geoarrow.PolygonType(geoarrow.XY, geoarrow.Separated, geoarrow.Metadata{})
	}
	arr, err := geoarrow.FromOrb(typ, generateGeometries(r, n, geomType))
	if err != nil {
		tb.Fatal(err)
	}
	return arr
}

// writeTempFile writes arr to a FlatGeobuf file and returns its path.
func writeTempFile(tb testing.TB, arr geoarrow.Array, props []geojson.Properties, includeIndex bool) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "benchmark.fgb")
	file, err := os.Create(path)
	if err != nil {
		tb.Fatal(err)
	}
	if err := WriteArrayWithProperties(file, arr, props, &Options{IncludeIndex: includeIndex}); err != nil {
		_ = file.Close()
		tb.Fatal(err)
	}
	if err := file.Close(); err != nil {
		tb.Fatal(err)
	}
	return path
}

// =============================================================================
// Size Comparison Tests
// =============================================================================

func TestSizeComparison_Points(t *testing.T) {
	testSizeComparison(t, "point", []int{10, 100, 1000})
}

func TestSizeComparison_LineStrings(t *testing.T) {
	testSizeComparison(t, "linestring", []int{10, 100, 1000})
}

func TestSizeComparison_Polygons(t *testing.T) {
	testSizeComparison(t, "polygon", []int{10, 100, 1000})
}

func TestSizeComparison_ComplexPolygons(t *testing.T) {
	testSizeComparison(t, "complexpolygon", []int{10, 100, 1000})
}

func testSizeComparison(t *testing.T, geomType string, sizes []int) {
	r := rand.New(rand.NewSource(42))

	t.Logf("\n=== Size Comparison: %s ===", geomType)
	t.Logf("%-10s | %-15s | %-15s | %-15s | %-15s", "Features", "GeoJSON", "WKB array", "FGB", "FGB+Index")

	for _, n := range sizes {
		arr := generateArray(t, r, n, geomType)

		fc := geojson.NewFeatureCollection()
		for _, g := range arr.(geoarrow.NativeArray).Geometries() {
			fc.Append(geojson.NewFeature(geotraits.ToOrbLossy(g)))
		}
		geoJSONBytes, err := json.Marshal(fc)
		if err != nil {
			t.Fatalf("JSON marshal failed: %v", err)
		}

		wkbArr, err := geoarrow.Cast(arr, geoarrow.WKBType(geoarrow.KindWKB, geoarrow.Metadata{}))
		if err != nil {
			t.Fatalf("cast to WKB failed: %v", err)
		}
		wkbSize := 0
		for i := 0; i < wkbArr.Len(); i++ {
			wkbSize += len(wkbArr.(geoarrow.SerializedArray).Bytes(i))
		}

		var fgbBuf, fgbIdxBuf bytes.Buffer
		if err := WriteArray(&fgbBuf, arr, &Options{IncludeIndex: false}); err != nil {
			t.Fatalf("FlatGeobuf write failed: %v", err)
		}
		if err := WriteArray(&fgbIdxBuf, arr, &Options{IncludeIndex: true}); err != nil {
			t.Fatalf("FlatGeobuf write with index failed: %v", err)
		}

		t.Logf("%-10d | %-15s | %-15s | %-15s | %-15s", n,
			formatBytes(len(geoJSONBytes)), formatBytes(wkbSize),
			formatBytes(fgbBuf.Len()), formatBytes(fgbIdxBuf.Len()))
	}
}

// =============================================================================
// Serialization Benchmarks
// =============================================================================

func BenchmarkWriteArray_Points_1000(b *testing.B) {
	benchmarkWriteArray(b, "point", 1000, false)
}

func BenchmarkWriteArrayIdx_Points_1000(b *testing.B) {
	benchmarkWriteArray(b, "point", 1000, true)
}

func BenchmarkWriteArrayIdx_Points_10000(b *testing.B) {
	benchmarkWriteArray(b, "point", 10000, true)
}

func BenchmarkWriteArray_Polygons_1000(b *testing.B) {
	benchmarkWriteArray(b, "polygon", 1000, false)
}

func BenchmarkWriteArray_ComplexPolygons_1000(b *testing.B) {
	benchmarkWriteArray(b, "complexpolygon", 1000, false)
}

func BenchmarkWriteArray_LineStrings_1000(b *testing.B) {
	benchmarkWriteArray(b, "linestring", 1000, false)
}

func BenchmarkWriteFeatures_PointsProps_1000(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	fc := generateFeatureCollection(r, 1000, "point", true)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := WriteFeatures(&buf, fc, &Options{IncludeIndex: true}); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkWriteArray(b *testing.B, geomType string, n int, includeIndex bool) {
	r := rand.New(rand.NewSource(42))
	arr := generateArray(b, r, n, geomType)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := WriteArray(&buf, arr, &Options{IncludeIndex: includeIndex}); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Deserialization Benchmarks
// =============================================================================

func BenchmarkReadArray_Points_1000(b *testing.B) {
	benchmarkReadArray(b, "point", 1000, geoarrow.Separated)
}

func BenchmarkReadArray_Points_10000(b *testing.B) {
	benchmarkReadArray(b, "point", 10000, geoarrow.Separated)
}

func BenchmarkReadArrayInterleaved_Points_10000(b *testing.B) {
	benchmarkReadArray(b, "point", 10000, geoarrow.Interleaved)
}

func BenchmarkReadArray_Polygons_1000(b *testing.B) {
	benchmarkReadArray(b, "polygon", 1000, geoarrow.Separated)
}

func BenchmarkReadArray_ComplexPolygons_1000(b *testing.B) {
	benchmarkReadArray(b, "complexpolygon", 1000, geoarrow.Separated)
}

func BenchmarkReadArray_LineStrings_1000(b *testing.B) {
	benchmarkReadArray(b, "linestring", 1000, geoarrow.Separated)
}

func BenchmarkReadFeatures_PointsProps_1000(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	fc := generateFeatureCollection(r, 1000, "point", true)
	var buf bytes.Buffer
	if err := WriteFeatures(&buf, fc, &Options{IncludeIndex: true}); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		reader, err := NewReaderFromData(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := reader.ReadFeatures(); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkReadArray(b *testing.B, geomType string, n int, ct geoarrow.CoordType) {
	r := rand.New(rand.NewSource(42))
	path := writeTempFile(b, generateArray(b, r, n, geomType), nil, true)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		reader, err := NewReader(path)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := reader.ReadArray(ct); err != nil {
			_ = reader.Close()
			b.Fatal(err)
		}
		if err := reader.Close(); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Spatial Query Benchmarks
// =============================================================================

func BenchmarkSpatialQuery_Scan_Points_10000(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	arr := generateArray(b, r, 10000, "point")
	query := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		boxes, err := geoarrow.BoundingBoxes(arr)
		if err != nil {
			b.Fatal(err)
		}
		matches := 0
		for box, ok := range boxes.Values() {
			if ok && intersects(box, query) {
				matches++
			}
		}
		_ = matches
	}
}

func BenchmarkSpatialQuery_Index_Points_10000(b *testing.B) {
	benchmarkSpatialQuery(b, 10000)
}

func BenchmarkSpatialQuery_Index_Points_50000(b *testing.B) {
	benchmarkSpatialQuery(b, 50000)
}

func benchmarkSpatialQuery(b *testing.B, n int) {
	r := rand.New(rand.NewSource(42))
	path := writeTempFile(b, generateArray(b, r, n, "point"), nil, true)
	reader, err := NewReader(path)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = reader.Close() }()

	query := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := reader.Search(query, geoarrow.Separated); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Performance Summary
// =============================================================================

func TestPerformanceSummary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance summary in short mode")
	}

	r := rand.New(rand.NewSource(42))
	arr := generateArray(t, r, 10000, "point")

	var buf bytes.Buffer
	if err := WriteArray(&buf, arr, &Options{IncludeIndex: true}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	query := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}
	hits, err := reader.Search(query, geoarrow.Separated)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	all, err := reader.ReadArray(geoarrow.Separated)
	if err != nil {
		t.Fatalf("read array failed: %v", err)
	}
	boxes, err := geoarrow.BoundingBoxes(all)
	if err != nil {
		t.Fatalf("bounding boxes failed: %v", err)
	}
	scanned := 0
	for box, ok := range boxes.Values() {
		if ok && intersects(box, query) {
			scanned++
		}
	}

	t.Logf("10000 points: %s with index, %d search hits", formatBytes(buf.Len()), hits.Len())
	if hits.Len() != scanned {
		t.Errorf("index search found %d points, linear scan found %d", hits.Len(), scanned)
	}
}

func intersects(box geoarrow.Box, query orb.Bound) bool {
	lo, hi := box.Min(), box.Max()
	return lo.X() <= query.Max[0] && hi.X() >= query.Min[0] &&
		lo.Y() <= query.Max[1] && hi.Y() >= query.Min[1]
}

func formatBytes(bytes int) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
