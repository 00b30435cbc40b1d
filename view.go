package geoarrow

import (
	"iter"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
	"github.com/tingold/orb-geoarrow/wkb"
	"github.com/tingold/orb-geoarrow/wkt"
)

// viewInlineSize is the longest value stored inside its view header.
const viewInlineSize = 12

// viewData is a binary view column: 16 byte headers holding either the
// value itself or a prefix plus a buffer index and offset.
type viewData struct {
	views   []arrow.ViewHeader
	buffers [][]byte
}

func (v *viewData) bytes(i int) []byte {
	h := &v.views[i]
	if h.IsInline() {
		return h.InlineBytes()
	}
	off := int(h.BufferOffset())
	return v.buffers[h.BufferIndex()][off : off+h.Len() : off+h.Len()]
}

// Views returns the view headers.
func (v *viewData) Views() []arrow.ViewHeader { return v.views }

// Buffers returns the data buffers referenced by non-inline views.
func (v *viewData) Buffers() [][]byte { return v.buffers }

func newViewData(views []arrow.ViewHeader, buffers [][]byte, validity Bitmap) (viewData, Bitmap, error) {
	for i := range views {
		h := &views[i]
		if h.Len() < 0 {
			return viewData{}, validity, errorf(ErrInvalidBuffers, "view %d has negative length", i)
		}
		if h.IsInline() {
			continue
		}
		idx, off := int(h.BufferIndex()), int(h.BufferOffset())
		if idx < 0 || idx >= len(buffers) || off < 0 || off+h.Len() > len(buffers[idx]) {
			return viewData{}, validity, errorf(ErrInvalidBuffers, "view %d points outside its buffer", i)
		}
	}
	validity, err := checkValidity(validity, len(views))
	return viewData{views: views, buffers: buffers}, validity, err
}

// WKBViewArray is an array of WKB values stored as binary views.
type WKBViewArray struct {
	baseArray
	viewData
}

// NewWKBViewArray wraps binary views holding WKB values.
func NewWKBViewArray(md Metadata, views []arrow.ViewHeader, buffers [][]byte, validity Bitmap) (*WKBViewArray, error) {
	v, validity, err := newViewData(views, buffers, validity)
	if err != nil {
		return nil, err
	}
	return &WKBViewArray{baseArray: baseArray{typ: WKBType(KindWKBView, md), validity: validity}, viewData: v}, nil
}

func (a *WKBViewArray) Value(i int) ([]byte, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	return a.bytes(i), true
}

func (a *WKBViewArray) Values() iter.Seq2[[]byte, bool] { return values(a.Len(), a.Value) }

func (a *WKBViewArray) Bytes(i int) []byte {
	b, _ := a.Value(i)
	return b
}

func (a *WKBViewArray) Geometry(i int) (geotraits.Geometry, error) {
	b, ok := a.Value(i)
	if !ok {
		return nil, nil
	}
	return wkb.Decode(b)
}

func (a *WKBViewArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.views = a.views[off : off+n]
	return &out
}

func (a *WKBViewArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

// WKTViewArray is an array of WKT values stored as string views.
type WKTViewArray struct {
	baseArray
	viewData
}

// NewWKTViewArray wraps string views holding WKT values.
func NewWKTViewArray(md Metadata, views []arrow.ViewHeader, buffers [][]byte, validity Bitmap) (*WKTViewArray, error) {
	v, validity, err := newViewData(views, buffers, validity)
	if err != nil {
		return nil, err
	}
	return &WKTViewArray{baseArray: baseArray{typ: WKTType(KindWKTView, md), validity: validity}, viewData: v}, nil
}

func (a *WKTViewArray) Value(i int) ([]byte, bool) {
	if a.IsNull(i) {
		return nil, false
	}
	return a.bytes(i), true
}

func (a *WKTViewArray) Values() iter.Seq2[[]byte, bool] { return values(a.Len(), a.Value) }

func (a *WKTViewArray) Bytes(i int) []byte {
	b, _ := a.Value(i)
	return b
}

func (a *WKTViewArray) String(i int) string { return string(a.Bytes(i)) }

func (a *WKTViewArray) Geometry(i int) (geotraits.Geometry, error) {
	b, ok := a.Value(i)
	if !ok {
		return nil, nil
	}
	return wkt.Parse(string(b))
}

func (a *WKTViewArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	out := *a
	out.validity = a.validity.Slice(off, n)
	out.views = a.views[off : off+n]
	return &out
}

func (a *WKTViewArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

// viewBuilder appends values as views. Long values go to the current data
// buffer, and a new buffer is started once the current one cannot be
// addressed by a 32-bit offset.
type viewBuilder struct {
	typ      DataType
	views    []arrow.ViewHeader
	buffers  [][]byte
	scratch  []byte
	validity BitmapBuilder
	finished bool
}

func (b *viewBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *viewBuilder) Len() int { return b.validity.Len() }

func (b *viewBuilder) Reserve(c SerializedCapacity) {
	b.live()
	if cap(b.views)-len(b.views) < c.Geoms {
		grown := make([]arrow.ViewHeader, len(b.views), len(b.views)+c.Geoms)
		copy(grown, b.views)
		b.views = grown
	}
	b.validity.Reserve(c.Geoms)
	if c.Bytes > 0 && len(b.buffers) == 0 {
		n := c.Bytes
		if n > math.MaxInt32 {
			n = math.MaxInt32
		}
		b.buffers = append(b.buffers, make([]byte, 0, n))
	}
}

func (b *viewBuilder) ShrinkToFit() {
	b.live()
	b.views = append([]arrow.ViewHeader(nil), b.views...)
	b.validity.ShrinkToFit()
	b.scratch = nil
	for i, buf := range b.buffers {
		if cap(buf) > len(buf) {
			b.buffers[i] = append([]byte(nil), buf...)
		}
	}
}

// PushBytes appends one encoded value as is.
func (b *viewBuilder) PushBytes(v []byte) error {
	b.live()
	if len(v) > math.MaxInt32 {
		return builderErrorf(b.Len(), ErrOffsetOverflow, "value of %d bytes", len(v))
	}
	var h arrow.ViewHeader
	h.SetBytes(v)
	if len(v) > viewInlineSize {
		last := len(b.buffers) - 1
		if last < 0 || len(b.buffers[last])+len(v) > math.MaxInt32 {
			b.buffers = append(b.buffers, nil)
			last++
		}
		h.SetIndexOffset(int32(last), int32(len(b.buffers[last])))
		b.buffers[last] = append(b.buffers[last], v...)
	}
	b.views = append(b.views, h)
	b.validity.Append(true)
	return nil
}

func (b *viewBuilder) PushNull() {
	b.live()
	b.views = append(b.views, arrow.ViewHeader{})
	b.validity.Append(false)
}

func (b *viewBuilder) finish() (viewData, Bitmap) {
	b.live()
	b.finished = true
	views := b.views
	if views == nil {
		views = []arrow.ViewHeader{}
	}
	return viewData{views: views, buffers: b.buffers}, b.validity.Finish()
}

// WKBViewBuilder encodes geometries into a WKBViewArray.
type WKBViewBuilder struct {
	viewBuilder
}

func NewWKBViewBuilder(md Metadata) *WKBViewBuilder {
	return NewWKBViewBuilderWithCapacity(md, SerializedCapacity{})
}

func NewWKBViewBuilderWithCapacity(md Metadata, c SerializedCapacity) *WKBViewBuilder {
	b := &WKBViewBuilder{viewBuilder{typ: WKBType(KindWKBView, md)}}
	b.Reserve(c)
	return b
}

func (b *WKBViewBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	b.scratch = wkb.Append(b.scratch[:0], g, wkb.DefaultByteOrder)
	return b.PushBytes(b.scratch)
}

func (b *WKBViewBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *WKBViewBuilder) Finish() *WKBViewArray {
	v, validity := b.finish()
	return &WKBViewArray{baseArray: baseArray{typ: b.typ, validity: validity}, viewData: v}
}

// WKTViewBuilder encodes geometries into a WKTViewArray.
type WKTViewBuilder struct {
	viewBuilder
}

func NewWKTViewBuilder(md Metadata) *WKTViewBuilder {
	return NewWKTViewBuilderWithCapacity(md, SerializedCapacity{})
}

func NewWKTViewBuilderWithCapacity(md Metadata, c SerializedCapacity) *WKTViewBuilder {
	b := &WKTViewBuilder{viewBuilder{typ: WKTType(KindWKTView, md)}}
	b.Reserve(c)
	return b
}

func (b *WKTViewBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	b.scratch = wkt.Append(b.scratch[:0], g)
	return b.PushBytes(b.scratch)
}

// PushString appends one WKT value as is.
func (b *WKTViewBuilder) PushString(s string) error { return b.PushBytes([]byte(s)) }

func (b *WKTViewBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *WKTViewBuilder) Finish() *WKTViewArray {
	v, validity := b.finish()
	return &WKTViewArray{baseArray: baseArray{typ: b.typ, validity: validity}, viewData: v}
}
