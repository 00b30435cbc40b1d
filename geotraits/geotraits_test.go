package geotraits

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
)

func TestDimension(t *testing.T) {
	tests := []struct {
		dim        Dimension
		size       int
		hasZ, hasM bool
		suffix     string
		name       string
	}{
		{XY, 2, false, false, "", "xy"},
		{XYZ, 3, true, false, "Z", "xyz"},
		{XYM, 3, false, true, "M", "xym"},
		{XYZM, 4, true, true, "ZM", "xyzm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dim.Size(); got != tt.size {
				t.Errorf("Size: expected %d, got %d", tt.size, got)
			}
			if tt.dim.HasZ() != tt.hasZ || tt.dim.HasM() != tt.hasM {
				t.Errorf("HasZ/HasM: got %v/%v", tt.dim.HasZ(), tt.dim.HasM())
			}
			if got := tt.dim.Suffix(); got != tt.suffix {
				t.Errorf("Suffix: expected %q, got %q", tt.suffix, got)
			}
			if got := tt.dim.String(); got != tt.name {
				t.Errorf("String: expected %q, got %q", tt.name, got)
			}
			back, err := DimensionFromOrder(tt.dim.Order())
			if err != nil || back != tt.dim {
				t.Errorf("DimensionFromOrder: got %v, %v", back, err)
			}
		})
	}

	if _, err := DimensionFromOrder(4); err == nil {
		t.Error("expected error for order 4")
	}
	if d, ok := DimensionFromSize(3); !ok || d != XYZ {
		t.Errorf("expected width 3 to resolve to XYZ, got %v %v", d, ok)
	}
	if _, ok := DimensionFromSize(5); ok {
		t.Error("expected width 5 to be rejected")
	}
}

func TestTypeIDRoundTrip(t *testing.T) {
	for _, d := range []Dimension{XY, XYZ, XYM, XYZM} {
		for gt := PointType; gt <= GeometryCollectionType; gt++ {
			id := gt.TypeID(d)
			gotType, gotDim, err := TypeFromID(id)
			if err != nil {
				t.Fatalf("TypeFromID(%d): %v", id, err)
			}
			if gotType != gt || gotDim != d {
				t.Errorf("id %d: expected %s %s, got %s %s", id, gt, d, gotType, gotDim)
			}
		}
	}

	if id := PolygonType.TypeID(XYZM); id != 33 {
		t.Errorf("expected Polygon ZM id 33, got %d", id)
	}
	if code := MultiLineStringType.WKBCode(XYM); code != 2005 {
		t.Errorf("expected MultiLineString M code 2005, got %d", code)
	}
	for _, id := range []int8{0, 8, 40, 48} {
		if _, _, err := TypeFromID(id); err == nil {
			t.Errorf("expected error for type id %d", id)
		}
	}
}

func TestMultiSingle(t *testing.T) {
	pairs := []struct{ single, multi GeometryType }{
		{PointType, MultiPointType},
		{LineStringType, MultiLineStringType},
		{PolygonType, MultiPolygonType},
	}
	for _, p := range pairs {
		if p.single.Multi() != p.multi || p.multi.Single() != p.single {
			t.Errorf("%s and %s do not pair", p.single, p.multi)
		}
		if p.single.IsMulti() || !p.multi.IsMulti() {
			t.Errorf("IsMulti wrong for %s/%s", p.single, p.multi)
		}
	}
	if GeometryCollectionType.Single() != GeometryCollectionType {
		t.Error("collections have no single-part kind")
	}
}

func TestEqual(t *testing.T) {
	nan := math.NaN()
	a := LineStringValue{D: XYZ, Coords: []CoordValue{NewCoord(XYZ, 0, 0, nan), NewCoord(XYZ, 1, 1, 2)}}
	b := LineStringValue{D: XYZ, Coords: []CoordValue{NewCoord(XYZ, 0, 0, nan), NewCoord(XYZ, 1, 1, 2)}}
	if !Equal(a, b) {
		t.Error("expected NaN ordinates to compare equal")
	}

	b.Coords[1].V[2] = 3
	if Equal(a, b) {
		t.Error("expected differing Z to compare unequal")
	}

	xy := LineStringValue{D: XY, Coords: []CoordValue{XY2(0, 0), XY2(1, 1)}}
	if Equal(a, xy) {
		t.Error("expected differing dimensions to compare unequal")
	}
	if Equal(xy, MultiPointValue{D: XY}) {
		t.Error("expected differing kinds to compare unequal")
	}
	if !Equal(nil, nil) || Equal(xy, nil) {
		t.Error("nil handling is wrong")
	}
	if !Equal(EmptyPoint(XY), EmptyPoint(XY)) || Equal(EmptyPoint(XY), NewPoint(XY2(0, 0))) {
		t.Error("empty point handling is wrong")
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		geom  Geometry
		empty bool
	}{
		{"empty point", EmptyPoint(XY), true},
		{"point", NewPoint(XY2(1, 2)), false},
		{"empty linestring", LineStringValue{D: XY}, true},
		{"empty polygon", PolygonValue{D: XY}, true},
		{"empty multipoint", MultiPointValue{D: XY}, true},
		{"multipoint of empty", MultiPointValue{D: XY, Points: []PointValue{EmptyPoint(XY)}}, false},
		{"empty collection", GeometryCollectionValue{D: XY}, true},
		{"rect", RectValue{Lo: XY2(0, 0), Hi: XY2(1, 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmpty(tt.geom); got != tt.empty {
				t.Errorf("expected %v, got %v", tt.empty, got)
			}
		})
	}
}

func TestNumParts(t *testing.T) {
	if n := NumParts(EmptyPoint(XY)); n != 0 {
		t.Errorf("expected 0 parts, got %d", n)
	}
	if n := NumParts(NewPoint(XY2(0, 0))); n != 1 {
		t.Errorf("expected 1 part, got %d", n)
	}
	mp := FromOrb(orb.MultiPolygon{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
	})
	if n := NumParts(mp); n != 2 {
		t.Errorf("expected 2 parts, got %d", n)
	}
}

func TestBounds(t *testing.T) {
	gc := GeometryCollectionValue{D: XYZ, Geometries: []Geometry{
		NewPoint(NewCoord(XYZ, 5, -1, 10)),
		EmptyPoint(XYZ),
		LineStringValue{D: XYZ, Coords: []CoordValue{NewCoord(XYZ, -2, 3, 0), NewCoord(XYZ, 1, 7, 4)}},
	}}
	b, ok := Bounds(gc)
	if !ok {
		t.Fatal("expected bounds")
	}
	want := RectValue{Lo: NewCoord(XYZ, -2, -1, 0), Hi: NewCoord(XYZ, 5, 7, 10)}
	if !Equal(b, want) {
		t.Errorf("expected %v, got %v", want, b)
	}

	if _, ok := Bounds(GeometryCollectionValue{D: XY, Geometries: []Geometry{EmptyPoint(XY)}}); ok {
		t.Error("expected no bounds for a collection of empty points")
	}
}

func TestRectPolygon(t *testing.T) {
	r := RectValue{Lo: NewCoord(XYZ, 0, 0, 9), Hi: NewCoord(XYZ, 2, 3, 12)}
	p := r.Polygon()
	if p.D != XYZ || len(p.Rings) != 1 {
		t.Fatalf("unexpected polygon %v", p)
	}
	ring := p.Rings[0]
	if len(ring.Coords) != 5 || !Equal(NewPoint(ring.Coords[0]), NewPoint(ring.Coords[4])) {
		t.Fatalf("expected a closed five position ring, got %v", ring.Coords)
	}
	for _, c := range ring.Coords {
		if c.Z() != 9 {
			t.Errorf("expected Z from the lower corner, got %v", c.Z())
		}
	}
	if c := ring.Coords[2]; c.X() != 2 || c.Y() != 3 {
		t.Errorf("expected upper corner at index 2, got %v", c)
	}
}

func TestCoordValue_ZM(t *testing.T) {
	c := NewCoord(XYM, 1, 2, 3)
	if !math.IsNaN(c.Z()) || c.M() != 3 {
		t.Errorf("XYM: expected NaN z and m 3, got %v %v", c.Z(), c.M())
	}
	c = NewCoord(XYZM, 1, 2, 3, 4)
	if c.Z() != 3 || c.M() != 4 {
		t.Errorf("XYZM: expected z 3 and m 4, got %v %v", c.Z(), c.M())
	}
}

func TestValueOf(t *testing.T) {
	src := FromOrb(orb.Collection{
		orb.Point{1, 2},
		orb.MultiLineString{{{0, 0}, {1, 1}}},
		orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}},
	})
	got := ValueOf(src)
	if !Equal(src, got) {
		t.Errorf("expected %v, got %v", src, got)
	}
	if _, ok := got.(GeometryCollectionValue).Geometries[2].(RectValue); !ok {
		t.Errorf("expected rect member to stay a rect")
	}
}

func TestOrbRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{"Point", orb.Point{1, 2}},
		{"MultiPoint", orb.MultiPoint{{1, 2}, {3, 4}}},
		{"LineString", orb.LineString{{0, 0}, {1, 1}, {2, 0}}},
		{"MultiLineString", orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 6}}}},
		{"Polygon", orb.Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{2, 2}, {3, 2}, {3, 3}, {2, 2}},
		}},
		{"MultiPolygon", orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}},
		{"Collection", orb.Collection{orb.Point{1, 1}, orb.LineString{{0, 0}, {2, 2}}}},
		{"Bound", orb.Bound{Min: orb.Point{-1, -2}, Max: orb.Point{3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToOrb(FromOrb(tt.geom))
			if err != nil {
				t.Fatalf("ToOrb failed: %v", err)
			}
			if diff := cmp.Diff(tt.geom, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromOrb_Ring(t *testing.T) {
	g := FromOrb(orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	p, ok := g.(PolygonValue)
	if !ok || len(p.Rings) != 1 {
		t.Fatalf("expected single ring polygon, got %#v", g)
	}
	if FromOrb(nil) != nil {
		t.Error("expected nil for nil geometry")
	}
	if !IsEmpty(FromOrb(orb.Polygon{{}})) {
		t.Error("expected polygon with one empty ring to be empty")
	}
}

func TestToOrb_NotXY(t *testing.T) {
	p := NewPoint(NewCoord(XYZ, 1, 2, 3))
	if _, err := ToOrb(p); !errors.Is(err, ErrNotXY) {
		t.Errorf("expected ErrNotXY, got %v", err)
	}
	if got := ToOrbLossy(p); got != (orb.Point{1, 2}) {
		t.Errorf("expected Z to be dropped, got %v", got)
	}
	mp := MultiPointValue{D: XY, Points: []PointValue{EmptyPoint(XY), NewPoint(XY2(1, 1))}}
	if got := ToOrbLossy(mp).(orb.MultiPoint); len(got) != 1 {
		t.Errorf("expected empty members to be skipped, got %v", got)
	}
}

func TestGeomRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom geom.T
	}{
		{"PointXYZ", geom.NewPointFlat(geom.XYZ, []float64{1, 2, 3})},
		{"LineStringXYM", geom.NewLineStringFlat(geom.XYM, []float64{0, 0, 1, 1, 1, 2})},
		{"PolygonXYZM", geom.NewPolygonFlat(geom.XYZM, []float64{
			0, 0, 1, 9, 4, 0, 1, 9, 4, 4, 1, 9, 0, 0, 1, 9,
		}, []int{16})},
		{"MultiPointXYZ", geom.NewMultiPointFlat(geom.XYZ, []float64{1, 2, 3, 4, 5, 6})},
		{"MultiLineString", geom.NewMultiLineStringFlat(geom.XY, []float64{0, 0, 1, 1, 2, 2, 3, 3}, []int{4, 8})},
		{"MultiPolygon", geom.NewMultiPolygonFlat(geom.XY, []float64{
			0, 0, 1, 0, 1, 1, 0, 0,
			5, 5, 6, 5, 6, 6, 5, 5,
		}, [][]int{{8}, {16}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromGeom(tt.geom)
			if err != nil {
				t.Fatalf("FromGeom failed: %v", err)
			}
			back, err := ToGeom(g)
			if err != nil {
				t.Fatalf("ToGeom failed: %v", err)
			}
			if back.Layout() != tt.geom.Layout() {
				t.Errorf("layout: expected %v, got %v", tt.geom.Layout(), back.Layout())
			}
			if diff := cmp.Diff(tt.geom.FlatCoords(), back.FlatCoords()); diff != "" {
				t.Errorf("coordinates mismatch (-want +got):\n%s", diff)
			}
			again, err := FromGeom(back)
			if err != nil {
				t.Fatalf("FromGeom failed: %v", err)
			}
			if !Equal(g, again) {
				t.Errorf("expected %v, got %v", g, again)
			}
		})
	}
}

func TestGeomEmptyPoint(t *testing.T) {
	g, err := FromGeom(geom.NewPointEmpty(geom.XYM))
	if err != nil {
		t.Fatalf("FromGeom failed: %v", err)
	}
	if !IsEmpty(g) || g.Dim() != XYM {
		t.Errorf("expected empty XYM point, got %v", g)
	}
	back, err := ToGeom(g)
	if err != nil {
		t.Fatalf("ToGeom failed: %v", err)
	}
	if !back.(*geom.Point).Empty() {
		t.Error("expected empty go-geom point")
	}
}

func TestGeomCollection(t *testing.T) {
	gc := GeometryCollectionValue{D: XYZ, Geometries: []Geometry{
		NewPoint(NewCoord(XYZ, 1, 2, 3)),
		LineStringValue{D: XYZ, Coords: []CoordValue{NewCoord(XYZ, 0, 0, 0), NewCoord(XYZ, 1, 1, 1)}},
	}}
	g, err := ToGeom(gc)
	if err != nil {
		t.Fatalf("ToGeom failed: %v", err)
	}
	back, err := FromGeom(g)
	if err != nil {
		t.Fatalf("FromGeom failed: %v", err)
	}
	if !Equal(gc, back) {
		t.Errorf("expected %v, got %v", gc, back)
	}
}
