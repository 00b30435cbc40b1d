package geoarrow

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// BoxArray is an array of axis aligned boxes stored as separated lower and
// upper corners.
type BoxArray struct {
	baseArray
	lo, hi CoordBuffer
}

// NewBoxArray assembles a box array from separated corner buffers.
func NewBoxArray(typ DataType, lo, hi CoordBuffer, validity Bitmap) (*BoxArray, error) {
	if err := checkType(typ, KindBox, lo.dim, Separated); err != nil {
		return nil, err
	}
	if lo.typ != Separated || hi.typ != Separated || hi.dim != lo.dim || hi.Len() != lo.Len() {
		return nil, errorf(ErrInvalidBuffers, "box corners must be separated buffers of equal shape")
	}
	validity, err := checkValidity(validity, lo.Len())
	if err != nil {
		return nil, err
	}
	return &BoxArray{baseArray: baseArray{typ: typ, validity: validity}, lo: lo, hi: hi}, nil
}

// Lower returns the buffer of lower corners.
func (a *BoxArray) Lower() *CoordBuffer { return &a.lo }

// Upper returns the buffer of upper corners.
func (a *BoxArray) Upper() *CoordBuffer { return &a.hi }

func (a *BoxArray) Value(i int) (Box, bool) {
	if a.IsNull(i) {
		return Box{}, false
	}
	return Box{arr: a, i: i}, true
}

func (a *BoxArray) Values() iter.Seq2[Box, bool] { return values(a.Len(), a.Value) }

func (a *BoxArray) Geometry(i int) geotraits.Geometry {
	if v, ok := a.Value(i); ok {
		return v
	}
	return nil
}

func (a *BoxArray) Geometries() iter.Seq2[int, geotraits.Geometry] {
	return geometries(a.Len(), a.Geometry)
}

func (a *BoxArray) Slice(off, n int) Array {
	checkSlice(a, off, n)
	return &BoxArray{
		baseArray: baseArray{typ: a.typ, validity: a.validity.Slice(off, n)},
		lo:        a.lo.Slice(off, n),
		hi:        a.hi.Slice(off, n),
	}
}

func (a *BoxArray) WithMetadata(md Metadata) Array {
	out := *a
	out.typ = a.typ.WithMetadata(md)
	return &out
}

// IntoCoordType returns a unchanged: boxes are always separated.
func (a *BoxArray) IntoCoordType(CoordType) NativeArray { return a }

// BoxBuilder builds a BoxArray.
type BoxBuilder struct {
	typ      DataType
	lo, hi   *CoordBufferBuilder
	validity BitmapBuilder
	finished bool
}

func NewBoxBuilder(typ DataType) *BoxBuilder {
	return NewBoxBuilderWithCapacity(typ, BoxCapacity{})
}

func NewBoxBuilderWithCapacity(typ DataType, capacity BoxCapacity) *BoxBuilder {
	mustKind(typ, KindBox)
	b := &BoxBuilder{
		typ: typ,
		lo:  NewCoordBufferBuilder(typ.Dim, Separated, 0),
		hi:  NewCoordBufferBuilder(typ.Dim, Separated, 0),
	}
	b.Reserve(capacity)
	return b
}

func (b *BoxBuilder) live() {
	if b.finished {
		panic(errBuilderFinished)
	}
}

func (b *BoxBuilder) Len() int { return b.validity.Len() }

func (b *BoxBuilder) Reserve(c BoxCapacity) {
	b.live()
	b.lo.Reserve(c.Geoms)
	b.hi.Reserve(c.Geoms)
	b.validity.Reserve(c.Geoms)
}

func (b *BoxBuilder) ShrinkToFit() {
	b.live()
	b.lo.ShrinkToFit()
	b.hi.ShrinkToFit()
	b.validity.ShrinkToFit()
}

// PushRect appends r. A nil r appends a null row.
func (b *BoxBuilder) PushRect(r geotraits.Rect) error {
	b.live()
	if r == nil {
		b.PushNull()
		return nil
	}
	if err := checkRect(r, b.typ.Dim); err != nil {
		return builderErrorf(b.Len(), err, "invalid rect")
	}
	b.lo.pushCoord(r.Min())
	b.hi.pushCoord(r.Max())
	b.validity.Append(true)
	return nil
}

func (b *BoxBuilder) PushNull() {
	b.live()
	b.lo.PushNaN()
	b.hi.PushNaN()
	b.validity.Append(false)
}

// PushGeometry appends g, which must be a rect.
func (b *BoxBuilder) PushGeometry(g geotraits.Geometry) error {
	b.live()
	if g == nil {
		b.PushNull()
		return nil
	}
	r, ok := g.(geotraits.Rect)
	if !ok || g.GeometryType() != geotraits.RectType {
		return wrongType(b.Len(), g, KindBox)
	}
	return b.PushRect(r)
}

// PushOrb appends an orb.Bound.
func (b *BoxBuilder) PushOrb(g orb.Geometry) error {
	if g == nil {
		b.PushNull()
		return nil
	}
	return b.PushGeometry(geotraits.FromOrb(g))
}

func (b *BoxBuilder) Finish() *BoxArray {
	b.live()
	b.finished = true
	return &BoxArray{
		baseArray: baseArray{typ: b.typ, validity: b.validity.Finish()},
		lo:        b.lo.Finish(),
		hi:        b.hi.Finish(),
	}
}
