package geoarrow

import (
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
	"github.com/tingold/orb-geoarrow/wkb"
)

func TestWKBBuilder(t *testing.T) {
	b := NewWKBBuilder[int32](Metadata{})
	if err := b.PushOrb(orb.Point{1, 2}); err != nil {
		t.Fatal(err)
	}
	b.PushNull()
	if err := b.PushGeometry(nil); err != nil {
		t.Fatal(err)
	}
	if err := b.PushBytes(wkb.Encode(geotraits.FromOrb(square))); err != nil {
		t.Fatal(err)
	}
	arr := b.Finish()

	if arr.Len() != 4 || arr.NullCount() != 2 {
		t.Fatalf("expected 4 rows with 2 nulls, got %d/%d", arr.Len(), arr.NullCount())
	}
	if arr.Bytes(1) != nil {
		t.Errorf("null rows have no bytes")
	}
	if diff := cmp.Diff([]int32{0, 21, 21, 21, 114}, arr.Offsets().Values()); diff != "" {
		t.Errorf("offsets (-want +got):\n%s", diff)
	}

	g, err := arr.Geometry(3)
	if err != nil {
		t.Fatal(err)
	}
	if !geotraits.Equal(geotraits.FromOrb(square), g) {
		t.Errorf("row 3: got %v", g)
	}
	if g, err := arr.Geometry(2); g != nil || err != nil {
		t.Errorf("null rows decode to nil")
	}
}

func TestWKBArray_Invalid(t *testing.T) {
	data := []byte{0x01, 0x01, 0x00}
	if _, err := NewWKBArray(Metadata{}, NewOffsetBuffer([]int32{0, 5}), data, Bitmap{}); !errors.Is(err, ErrInvalidBuffers) {
		t.Errorf("offsets past the data should fail, got %v", err)
	}

	// Values are not parsed until they are read.
	arr, err := NewWKBArray(Metadata{}, NewOffsetBuffer([]int64{0, 3}), data, Bitmap{})
	if err != nil {
		t.Fatal(err)
	}
	if arr.DataType().Kind != KindLargeWKB {
		t.Errorf("64-bit offsets make a large wkb array, got %s", arr.DataType())
	}
	if err := Validate(arr); err != nil {
		t.Errorf("validate checks structure only: %v", err)
	}
	_, err = Cast(arr, PointType(XY, Separated, Metadata{}))
	var ce *CastError
	if !errors.As(err, &ce) || ce.Kind != RowFailure || ce.Row != 0 {
		t.Errorf("expected a row failure at row 0, got %v", err)
	}
}

func TestWKTBuilder(t *testing.T) {
	b := NewWKTBuilder[int64](Metadata{CRS: EPSG(4326)})
	if err := b.PushOrb(orb.LineString{{0, 0}, {1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := b.PushString("point z (1 2 3)"); err != nil {
		t.Fatal(err)
	}
	b.PushNull()
	arr := b.Finish()

	if got := arr.String(0); got != "LINESTRING (0 0, 1 1)" {
		t.Errorf("row 0: %q", got)
	}
	if got := arr.String(1); got != "point z (1 2 3)" {
		t.Errorf("pushed text is kept as is, got %q", got)
	}
	g, err := arr.Geometry(1)
	if err != nil {
		t.Fatal(err)
	}
	if !geotraits.Equal(geotraits.NewPoint(geotraits.NewCoord(XYZ, 1, 2, 3)), g) {
		t.Errorf("row 1: got %v", g)
	}

	md := arr.DataType().Metadata
	small := mustCast(t, arr, WKTType(KindWKT, md))
	if got := small.(*WKTArray[int32]).String(1); got != "point z (1 2 3)" {
		t.Errorf("narrowing should copy the text, got %q", got)
	}

	// A trip through WKB re-encodes every row.
	out := mustCast(t, mustCast(t, arr, WKBType(KindWKB, md)), WKTType(KindWKT, md))
	if got := out.(*WKTArray[int32]).String(1); got != "POINT Z (1 2 3)" {
		t.Errorf("row 1 after cast: %q", got)
	}
	if !out.IsNull(2) {
		t.Errorf("row 2 should stay null")
	}
}

func TestWKTViewBuilder(t *testing.T) {
	short := "POINT (1 2)"
	long := "LINESTRING (0 0, 10 10, 20 20)"

	b := NewWKTViewBuilder(Metadata{})
	for _, s := range []string{short, long, long} {
		if err := b.PushString(s); err != nil {
			t.Fatal(err)
		}
	}
	b.PushNull()
	arr := b.Finish()

	if !arr.Views()[0].IsInline() {
		t.Errorf("a %d byte value should be inline", len(short))
	}
	if arr.Views()[1].IsInline() {
		t.Errorf("a %d byte value should live in a buffer", len(long))
	}
	if len(arr.Buffers()) != 1 || len(arr.Buffers()[0]) != 2*len(long) {
		t.Errorf("expected one buffer holding both long values, got %d", len(arr.Buffers()))
	}
	for i, want := range []string{short, long, long} {
		if got := arr.String(i); got != want {
			t.Errorf("row %d: %q", i, got)
		}
	}
	if !arr.IsNull(3) || arr.Bytes(3) != nil {
		t.Errorf("row 3 should be null")
	}

	s := arr.Slice(1, 2).(*WKTViewArray)
	if s.String(0) != long || !s.IsNull(1) {
		t.Errorf("slice rows are wrong")
	}
}

func TestWKBViewArray_Invalid(t *testing.T) {
	var h arrow.ViewHeader
	h.SetBytes([]byte(strings.Repeat("x", 20)))
	h.SetIndexOffset(0, 10)

	if _, err := NewWKBViewArray(Metadata{}, []arrow.ViewHeader{h}, [][]byte{make([]byte, 20)}, Bitmap{}); !errors.Is(err, ErrInvalidBuffers) {
		t.Errorf("view past its buffer should fail, got %v", err)
	}
	if _, err := NewWKBViewArray(Metadata{}, []arrow.ViewHeader{h}, nil, Bitmap{}); !errors.Is(err, ErrInvalidBuffers) {
		t.Errorf("missing buffer should fail, got %v", err)
	}
	arr, err := NewWKBViewArray(Metadata{}, []arrow.ViewHeader{h}, [][]byte{make([]byte, 30)}, Bitmap{})
	if err != nil {
		t.Fatal(err)
	}
	if len(arr.Bytes(0)) != 20 {
		t.Errorf("expected 20 bytes, got %d", len(arr.Bytes(0)))
	}
}

func TestSerialized_TypeOfRows(t *testing.T) {
	arr := mustFromOrb(t, WKBType(KindWKBView, Metadata{}), orb.Point{1, 2}, nil, orb.MultiPoint{{1, 2}})
	var kinds []geotraits.GeometryType
	for i := 0; i < arr.Len(); i++ {
		g, err := GeometryAt(arr, i)
		if err != nil {
			t.Fatal(err)
		}
		if g == nil {
			kinds = append(kinds, geotraits.UnknownType)
			continue
		}
		kinds = append(kinds, g.GeometryType())
	}
	want := []geotraits.GeometryType{geotraits.PointType, geotraits.UnknownType, geotraits.MultiPointType}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("row kinds (-want +got):\n%s", diff)
	}
}
