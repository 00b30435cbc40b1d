package geoarrow

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

func testPolygons(t testing.TB) Array {
	t.Helper()
	md := Metadata{CRS: EPSG(4326)}
	return mustFromOrb(t, PolygonType(XY, Separated, md), square, nil, donut, orb.Polygon{})
}

func TestCast_Identity(t *testing.T) {
	arr := testPolygons(t)
	out, err := Cast(arr, arr.DataType())
	if err != nil {
		t.Fatal(err)
	}
	if out != arr {
		t.Errorf("casting to the same type should return the input")
	}
}

func TestCast_RoundTrip(t *testing.T) {
	arr := testPolygons(t)
	md := arr.DataType().Metadata

	targets := []DataType{
		PolygonType(XY, Interleaved, md),
		MultiPolygonType(XY, Separated, md),
		MultiPolygonType(XY, Interleaved, md),
		GeometryCollectionType(XY, Separated, md),
		GeometryType(Separated, md),
		GeometryType(Interleaved, md),
		WKBType(KindWKB, md),
		WKBType(KindLargeWKB, md),
		WKBType(KindWKBView, md),
		WKTType(KindWKT, md),
		WKTType(KindLargeWKT, md),
		WKTType(KindWKTView, md),
	}
	for _, to := range targets {
		t.Run(to.String(), func(t *testing.T) {
			out, err := Cast(arr, to)
			if err != nil {
				t.Fatalf("cast to %s: %v", to, err)
			}
			if out.DataType() != to {
				t.Errorf("result type %s, want %s", out.DataType(), to)
			}
			if out.Len() != arr.Len() || out.NullCount() != arr.NullCount() {
				t.Errorf("rows %d/%d, want %d/%d", out.Len(), out.NullCount(), arr.Len(), arr.NullCount())
			}
			if err := Validate(out); err != nil {
				t.Errorf("validate: %v", err)
			}

			back, err := Cast(out, arr.DataType())
			if err != nil {
				t.Fatalf("cast back: %v", err)
			}
			if !Equal(arr, back) {
				t.Errorf("round trip through %s changed the array", to)
			}
		})
	}
}

func TestCast_SerializedFamilies(t *testing.T) {
	arr := testPolygons(t)
	md := arr.DataType().Metadata

	// WKB to WKT and back goes through geometries.
	wkb, err := Cast(arr, WKBType(KindWKB, md))
	if err != nil {
		t.Fatal(err)
	}
	wkt, err := Cast(wkb, WKTType(KindLargeWKT, md))
	if err != nil {
		t.Fatal(err)
	}
	text := wkt.(*WKTArray[int64]).String(0)
	if text != "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))" {
		t.Errorf("unexpected wkt %q", text)
	}

	// Within a family the bytes are copied untouched.
	large, err := Cast(wkb, WKBType(KindLargeWKB, md))
	if err != nil {
		t.Fatal(err)
	}
	view, err := Cast(large, WKBType(KindWKBView, md))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < wkb.Len(); i++ {
		a := wkb.(SerializedArray).Bytes(i)
		b := view.(SerializedArray).Bytes(i)
		if string(a) != string(b) {
			t.Errorf("row %d: bytes differ", i)
		}
	}
	small, err := Cast(view, WKBType(KindWKB, md))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(wkb, small) {
		t.Errorf("wkb -> large -> view -> wkb changed the array")
	}
}

func TestCast_ThroughSerialized(t *testing.T) {
	serialized := []Kind{KindWKB, KindLargeWKB, KindWKBView, KindWKT, KindLargeWKT, KindWKTView}
	for kind, arr := range fixtures(t) {
		if !kind.IsNative() || kind == KindBox {
			continue
		}
		for _, via := range serialized {
			t.Run(kind.String()+"/"+via.String(), func(t *testing.T) {
				out := mustCast(t, arr, NewDataType(via, XY, Separated, arr.DataType().Metadata))
				if out.Len() != arr.Len() || !out.IsNull(1) {
					t.Errorf("rows or nulls changed going to %s", via)
				}
				back := mustCast(t, out, arr.DataType())
				if !Equal(arr, back) {
					t.Errorf("round trip through %s changed the array", via)
				}
			})
		}
	}
}

func TestCast_HandWrittenWKB(t *testing.T) {
	// POINT (30 10), little endian ISO WKB.
	data := []byte{
		0x01,
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x3e, 0x40,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x24, 0x40,
	}
	arr, err := NewWKBArray(Metadata{}, NewOffsetBuffer([]int32{0, int32(len(data))}), data, Bitmap{})
	if err != nil {
		t.Fatal(err)
	}
	out := mustCast(t, arr, PointType(XY, Separated, Metadata{}))
	if out.Len() != 1 || out.NullCount() != 0 {
		t.Fatalf("expected one valid row, got %d/%d", out.Len(), out.NullCount())
	}
	if !out.DataType().Metadata.CRS.IsZero() {
		t.Errorf("no crs expected, got %v", out.DataType().Metadata.CRS)
	}
	g, err := GeometryAt(out, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !geotraits.Equal(geotraits.NewPoint(geotraits.XY2(30, 10)), g) {
		t.Errorf("row 0: got %v", g)
	}
}

func TestCast_WKTLineString(t *testing.T) {
	text := "LINESTRING (30 10, 10 30, 40 40)"
	arr, err := NewWKTArray(Metadata{}, NewOffsetBuffer([]int32{0, int32(len(text))}), []byte(text), Bitmap{})
	if err != nil {
		t.Fatal(err)
	}
	out := mustCast(t, arr, LineStringType(XY, Separated, Metadata{}))
	ls, ok := out.(*LineStringArray)
	if !ok {
		t.Fatalf("expected a linestring array, got %T", out)
	}
	if diff := cmp.Diff([]int32{0, 3}, ls.GeomOffsets().Values()); diff != "" {
		t.Errorf("geom offsets (-want +got):\n%s", diff)
	}
	want := geotraits.FromOrb(orb.LineString{{30, 10}, {10, 30}, {40, 40}})
	if !geotraits.Equal(want, ls.Geometry(0)) {
		t.Errorf("row 0: got %v", ls.Geometry(0))
	}
}

func TestCast_PromoteSharesCoords(t *testing.T) {
	arr := testPolygons(t).(*PolygonArray)
	out, err := Cast(arr, MultiPolygonType(XY, Separated, arr.DataType().Metadata))
	if err != nil {
		t.Fatal(err)
	}
	mp := out.(*MultiPolygonArray)
	if &mp.Coords().Axis(0)[0] != &arr.Coords().Axis(0)[0] {
		t.Errorf("promotion should share the coordinate buffer")
	}
	for i := 0; i < mp.Len(); i++ {
		if mp.IsNull(i) {
			continue
		}
		if n := mp.GeomOffsets().RunLength(i); n != 1 {
			t.Errorf("row %d has %d polygons, want 1", i, n)
		}
	}
}

func TestCast_DemoteFailure(t *testing.T) {
	typ := MultiPointType(XY, Separated, Metadata{})
	arr := mustFromOrb(t, typ, orb.MultiPoint{{1, 1}}, nil, orb.MultiPoint{{1, 1}, {2, 2}})

	_, err := Cast(arr, PointType(XY, Separated, Metadata{}))
	if !errors.Is(err, ErrRowFailure) {
		t.Fatalf("expected a row failure, got %v", err)
	}
	var ce *CastError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a CastError, got %T", err)
	}
	if ce.Kind != RowFailure || ce.Row != 2 {
		t.Errorf("expected row failure at row 2, got %s at %d", ce.Kind, ce.Row)
	}
	if !errors.Is(err, ErrWrongGeometryType) {
		t.Errorf("cause should be a wrong geometry type, got %v", ce.Err)
	}

	empty := mustFromOrb(t, typ, orb.MultiPoint{})
	if _, err := Cast(empty, PointType(XY, Separated, Metadata{})); !errors.Is(err, ErrRowFailure) {
		t.Errorf("an empty multipoint has no single point, got %v", err)
	}

	ok := arr.Slice(0, 2)
	out, err := Cast(ok, PointType(XY, Interleaved, Metadata{}))
	if err != nil {
		t.Fatalf("demoting one-part rows: %v", err)
	}
	if !geotraits.Equal(out.(NativeArray).Geometry(0), geotraits.NewPoint(geotraits.XY2(1, 1))) {
		t.Errorf("row 0: got %v", out.(NativeArray).Geometry(0))
	}
	if !out.IsNull(1) {
		t.Errorf("row 1 should stay null")
	}
}

func TestCast_Errors(t *testing.T) {
	arr := testPolygons(t)
	md := arr.DataType().Metadata

	tests := []struct {
		name string
		arr  Array
		to   DataType
		want error
	}{
		{"dimension", arr, PolygonType(XYZ, Separated, md), ErrDimensionMismatch},
		{"metadata", arr, PolygonType(XY, Separated, Metadata{CRS: EPSG(3857)}), ErrMetadataMismatch},
		{"edges", arr, PolygonType(XY, Separated, Metadata{CRS: md.CRS, Edges: EdgesSpherical}), ErrMetadataMismatch},
		{"polygon to point", arr, PointType(XY, Separated, md), ErrUnsupportedCast},
		{"polygon to box", arr, BoxType(XY, md), ErrUnsupportedCast},
		{"wkb to box", mustCast(t, arr, WKBType(KindWKB, md)), BoxType(XY, md), ErrUnsupportedCast},
		{"unknown kind", arr, DataType{Kind: Kind(99)}, ErrUnsupportedCast},
		{"geometry to bad dimension", mustCast(t, arr, GeometryType(Separated, md)), DataType{Kind: KindPoint, Dim: Dimension(9), Metadata: md}, ErrUnsupportedCast},
		{"wkt to bad dimension", mustCast(t, arr, WKTType(KindWKT, md)), DataType{Kind: KindPolygon, Dim: Dimension(-1), Metadata: md}, ErrUnsupportedCast},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Cast(tc.arr, tc.to)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if out != nil {
				t.Errorf("failed cast should return nil")
			}
		})
	}
}

func mustCast(t testing.TB, arr Array, to DataType) Array {
	t.Helper()
	out, err := Cast(arr, to)
	if err != nil {
		t.Fatalf("cast to %s: %v", to, err)
	}
	return out
}

func TestCast_MixedToSingle(t *testing.T) {
	typ := GeometryType(Separated, Metadata{})
	arr := mustFromOrb(t, typ, orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}})

	_, err := Cast(arr, PointType(XY, Separated, Metadata{}))
	var ce *CastError
	if !errors.As(err, &ce) || ce.Kind != RowFailure || ce.Row != 1 {
		t.Errorf("expected row failure at row 1, got %v", err)
	}

	gc, err := Cast(arr, GeometryCollectionType(XY, Separated, Metadata{}))
	if err != nil {
		t.Fatal(err)
	}
	member := gc.(*GeometryCollectionArray).Geometry(1).(geotraits.GeometryCollection)
	if member.NumGeometries() != 1 || !geotraits.Equal(member.GeometryAt(0), arr.(NativeArray).Geometry(1)) {
		t.Errorf("row 1 should be a collection of the original linestring")
	}
	back := mustCast(t, gc, typ)
	if back.(NativeArray).Geometry(1).GeometryType() != geotraits.GeometryCollectionType {
		t.Errorf("collections stay collections inside a geometry array")
	}
}

func TestCast_BoxToPolygon(t *testing.T) {
	arr := testPolygons(t)
	boxes, err := BoundingBoxes(arr)
	if err != nil {
		t.Fatal(err)
	}
	polys := mustCast(t, boxes, PolygonType(XY, Separated, arr.DataType().Metadata))
	want := geotraits.FromOrb(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 20}}).(geotraits.RectValue).Polygon()
	if !geotraits.Equal(want, polys.(NativeArray).Geometry(2)) {
		t.Errorf("row 2: got %v", polys.(NativeArray).Geometry(2))
	}
	if !polys.IsNull(1) || !polys.IsNull(3) {
		t.Errorf("null and empty rows should have null boxes")
	}

	g := mustCast(t, boxes, GeometryType(Separated, arr.DataType().Metadata))
	if g.(NativeArray).Geometry(0).GeometryType() != geotraits.PolygonType {
		t.Errorf("boxes should be stored as polygons in a geometry array")
	}
}

func TestCast_CastErrorMessage(t *testing.T) {
	arr := testPolygons(t)
	_, err := Cast(arr, PolygonType(XYZ, Separated, arr.DataType().Metadata))
	want := "geoarrow: cannot cast polygon(xy, separated) to polygon(xyz, separated): dimension mismatch"
	if err == nil || err.Error() != want {
		t.Errorf("expected %q, got %v", want, err)
	}
}
