package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
	"github.com/tingold/orb-geoarrow/wkb"
	"github.com/tingold/orb-geoarrow/wkt"
)

func binaryKind[O Offset](wkbKind, largeKind Kind) Kind {
	if maxOffset[O]() == maxOffset[int32]() {
		return wkbKind
	}
	return largeKind
}

// varData is a variable length binary column: offsets into one data
// buffer.
type varData[O Offset] struct {
	offsets OffsetBuffer[O]
	data    []byte
}

func (v *varData[O]) bytes(i int) []byte {
	return v.data[v.offsets.Start(i):v.offsets.End(i):v.offsets.End(i)]
}

// Offsets returns the value offsets.
func (v *varData[O]) Offsets() OffsetBuffer[O] { return v.offsets }

// Data returns the concatenated values.
func (v *varData[O]) Data() []byte { return v.data }

func newVarData[O Offset](offsets OffsetBuffer[O], data []byte, validity Bitmap) (varData[O], Bitmap, error) {
	if err := offsets.Validate(len(data)); err != nil {
		return varData[O]{}, validity, err
	}
	validity, err := checkValidity(validity, offsets.Len())
	return varData[O]{offsets: offsets, data: data}, validity, err
}

// WKBArray is an array of WKB values with 32-bit (WKB) or 64-bit
// (LargeWKB) offsets.
type WKBArray[O Offset] struct {
	baseArray
	varData[O]
}

// NewWKBArray wraps WKB values. The values are not parsed.
func NewWKBArray[O Offset](md Metadata, offsets OffsetBuffer[O], data []byte, validity Bitmap) (*WKBArray[O], error) {
	v, validity, err := newVarData(offsets, data, validity)
	if err != nil {
		return nil, err
	}
	typ := WKBType(binaryKind[O](KindWKB, KindLargeWKB), md)
	return &WKBArray[O]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}, nil
}

// Value returns the encoded row i without copying, or false when it is
// null.
func (a *WKBArray[O]) Value(i int) ([]byte, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	return a.bytes(i), true
}

func (a *WKBArray[O]) Values() iter.Seq2[[]byte, bool] { return values(a.Len(), a.Value) }

func (a *WKBArray[O]) Bytes(i int) []byte {
	b, _ := a.Value(i)
	return b
}

// Geometry decodes row i.
func (a *WKBArray[O]) Geometry(i int) (geotraits.Geometry, error) {
	b, ok := a.Value(i)
	if !ok {
		return nil, nil
	}
	return wkb.Decode(b)
}

func (a *WKBArray[O]) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.offsets = a.offsets.Slice(off, n)
	return &out
}

func (a *WKBArray[O]) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

// WKTArray is an array of WKT values with 32-bit (WKT) or 64-bit
// (LargeWKT) offsets.
type WKTArray[O Offset] struct {
	baseArray
	varData[O]
}

// NewWKTArray wraps WKT values. The values are not parsed.
func NewWKTArray[O Offset](md Metadata, offsets OffsetBuffer[O], data []byte, validity Bitmap) (*WKTArray[O], error) {
	v, validity, err := newVarData(offsets, data, validity)
	if err != nil {
		return nil, err
	}
	typ := WKTType(binaryKind[O](KindWKT, KindLargeWKT), md)
	return &WKTArray[O]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}, nil
}

func (a *WKTArray[O]) Value(i int) ([]byte, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	return a.bytes(i), true
}

func (a *WKTArray[O]) Values() iter.Seq2[[]byte, bool] { return values(a.Len(), a.Value) }

func (a *WKTArray[O]) Bytes(i int) []byte {
	b, _ := a.Value(i)
	return b
}

// String returns row i as text, "" when it is null.
func (a *WKTArray[O]) String(i int) string { return string(a.Bytes(i)) }

// Geometry parses row i.
func (a *WKTArray[O]) Geometry(i int) (geotraits.Geometry, error) {
	b, ok := a.Value(i)
	if !ok {
		return nil, nil
	}
	return wkt.Parse(string(b))
}

func (a *WKTArray[O]) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.offsets = a.offsets.Slice(off, n)
	return &out
}

func (a *WKTArray[O]) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

// varBuilder appends variable length values.
type varBuilder[O Offset] struct {
	typ      DataType
	offsets  *OffsetBuilder[O]
	data     []byte
	scratch  []byte
	validity BitmapBuilder
	finished bool
}

func newVarBuilder[O Offset](typ DataType, c SerializedCapacity) varBuilder[O] {
	b := varBuilder[O]{typ: typ, offsets: NewOffsetBuilder[O](0)}
	b.Reserve(c)
	return b
}

func (b *varBuilder[O]) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *varBuilder[O]) Len() int { return b.validity.Len() }

func (b *varBuilder[O]) Reserve(c SerializedCapacity) {
	b.live()
	b.offsets.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
	if cap(b.data)-len(b.data) < c.Bytes {
		grown := make([]byte, len(b.data), len(b.data)+c.Bytes)
		copy(grown, b.data)
		b.data = grown
	}
}

func (b *varBuilder[O]) ShrinkToFit() {
	b.live()
	b.offsets.ShrinkToFit()
	b.validity.ShrinkToFit()
	b.scratch = nil
	if cap(b.data) > len(b.data) {
		b.data = append([]byte(nil), b.data...)
	}
}

// PushBytes appends one encoded value as is.
func (b *varBuilder[O]) PushBytes(v []byte) error {
	b.live()
	if err := b.offsets.Check(len(v)); err != nil {
		return builderErrorf(b.Len(), err, "value of %d bytes", len(v))
	}
	b.data = append(b.data, v...)
	b.offsets.pushUnchecked(len(v))
	b.validity.Append(true)
	return nil
}

func (b *varBuilder[O]) PushNull() {
	b.live()
	b.offsets.pushUnchecked(0)
	b.validity.Append(false)
}

func (b *varBuilder[O]) finish() (varData[O], Bitmap) {
	b.live()
	b.finished = true
	data := b.data
	if data == nil {
		data = []byte{}
	}
	return varData[O]{offsets: b.offsets.Finish(), data: data}, b.validity.Finish()
}

// WKBBuilder encodes geometries into a WKBArray.
type WKBBuilder[O Offset] struct {
	varBuilder[O]
}

// NewWKBBuilder returns a builder for WKB (int32) or LargeWKB (int64).
func NewWKBBuilder[O Offset](md Metadata) *WKBBuilder[O] {
	return NewWKBBuilderWithCapacity[O](md, SerializedCapacity{})
}

func NewWKBBuilderWithCapacity[O Offset](md Metadata, c SerializedCapacity) *WKBBuilder[O] {
	typ := WKBType(binaryKind[O](KindWKB, KindLargeWKB), md)
	return &WKBBuilder[O]{varBuilder: newVarBuilder[O](typ, c)}
}

// PushGeometry appends the ISO WKB encoding of g. A nil g appends a null
// row.
func (b *WKBBuilder[O]) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	if err := b.offsets.Check(wkb.Size(g)); err != nil {
		return builderErrorf(b.Len(), err, "wkb value")
	}
	start := len(b.data)
	b.data = wkb.Append(b.data, g, wkb.DefaultByteOrder)
	b.offsets.pushUnchecked(len(b.data) - start)
	b.validity.Append(true)
	return nil
}

func (b *WKBBuilder[O]) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *WKBBuilder[O]) Finish() *WKBArray[O] {
	v, validity := b.finish()
	return &WKBArray[O]{baseArray: baseArray{typ: b.typ, validity: validity}, varData: v}
}

// WKTBuilder encodes geometries into a WKTArray.
type WKTBuilder[O Offset] struct {
	varBuilder[O]
}

// NewWKTBuilder returns a builder for WKT (int32) or LargeWKT (int64).
func NewWKTBuilder[O Offset](md Metadata) *WKTBuilder[O] {
	return NewWKTBuilderWithCapacity[O](md, SerializedCapacity{})
}

func NewWKTBuilderWithCapacity[O Offset](md Metadata, c SerializedCapacity) *WKTBuilder[O] {
	typ := WKTType(binaryKind[O](KindWKT, KindLargeWKT), md)
	return &WKTBuilder[O]{varBuilder: newVarBuilder[O](typ, c)}
}

// PushGeometry appends the WKT text of g. A nil g appends a null row.
func (b *WKTBuilder[O]) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	b.scratch = wkt.Append(b.scratch[:0], g)
	return b.PushBytes(b.scratch)
}

// PushString appends one WKT value as is.
func (b *WKTBuilder[O]) PushString(s string) error { return b.PushBytes([]byte(s)) }

func (b *WKTBuilder[O]) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *WKTBuilder[O]) Finish() *WKTArray[O] {
	v, validity := b.finish()
	return &WKTArray[O]{baseArray: baseArray{typ: b.typ, validity: validity}, varData: v}
}
