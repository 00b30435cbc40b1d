package arrowext

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Export returns arr as an Arrow storage array and the field describing
// it. Coordinate, offset and byte buffers are shared with arr. Validity
// bitmaps of sliced arrays are copied into memory from mem.
//
// Arrow dense unions have no validity of their own, so a geometry array is
// exported without its top level bitmap; its null rows point at null slots
// of the point child and Import restores them from there.
func Export(mem memory.Allocator, name string, arr geoarrow.Array) (arrow.Field, arrow.Array, error) {
	field, err := Field(name, arr.DataType())
	if err != nil {
		return arrow.Field{}, nil, err
	}
	e := exporter{mem: mem}
	data, err := e.array(field.Type, arr)
	if err != nil {
		return arrow.Field{}, nil, err
	}
	defer data.Release()
	return field, array.MakeFromData(data), nil
}

type exporter struct {
	mem memory.Allocator
}

func bufferOf(b []byte) *memory.Buffer {
	if b == nil {
		b = []byte{}
	}
	return memory.NewBufferBytes(b)
}

// newData assembles array data and drops the references held by the
// caller on buffers and children.
func newData(dt arrow.DataType, n int, buffers []*memory.Buffer, children []arrow.ArrayData, nulls int) *array.Data {
	data := array.NewData(dt, n, buffers, children, nulls, 0)
	for _, b := range buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, c := range children {
		c.Release()
	}
	return data
}

func (e *exporter) validity(b geoarrow.Bitmap) (*memory.Buffer, int) {
	if b.NullCount() == 0 || b.Bytes() == nil {
		return nil, 0
	}
	if b.Offset() == 0 {
		return memory.NewBufferBytes(b.Bytes()), b.NullCount()
	}
	buf := memory.NewResizableBuffer(e.mem)
	buf.Resize(int(bitutil.BytesForBits(int64(b.Len()))))
	bitutil.CopyBitmap(b.Bytes(), b.Offset(), b.Len(), buf.Bytes(), 0)
	return buf, b.NullCount()
}

func float64s(v []float64) *array.Data {
	buf := memory.NewBufferBytes(arrow.Float64Traits.CastToBytes(v))
	return newData(arrow.PrimitiveTypes.Float64, len(v), []*memory.Buffer{nil, buf}, nil, 0)
}

func offsetsBuffer[O geoarrow.Offset](o geoarrow.OffsetBuffer[O]) *memory.Buffer {
	switch v := any(o.Values()).(type) {
	case []int32:
		if len(v) == 0 {
			v = []int32{0}
		}
		return memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(v))
	case []int64:
		if len(v) == 0 {
			v = []int64{0}
		}
		return memory.NewBufferBytes(arrow.Int64Traits.CastToBytes(v))
	}
	return nil
}

// coords exports a coordinate buffer as a struct of axes or a fixed size
// list of packed ordinates.
func (e *exporter) coords(dt arrow.DataType, c *geoarrow.CoordBuffer, validity geoarrow.Bitmap) arrow.ArrayData {
	bits, nulls := e.validity(validity)
	n := c.Len()
	if c.CoordType() == geoarrow.Interleaved {
		return newData(dt, n, []*memory.Buffer{bits}, []arrow.ArrayData{float64s(c.Values())}, nulls)
	}
	size := c.Dim().Size()
	children := make([]arrow.ArrayData, size)
	for ax := 0; ax < size; ax++ {
		children[ax] = float64s(c.Axis(ax))
	}
	return newData(dt, n, []*memory.Buffer{bits}, children, nulls)
}

// list wraps child in a list level. The outermost level carries validity.
func (e *exporter) list(dt arrow.DataType, o geoarrow.OffsetBuffer[int32], validity *geoarrow.Bitmap, child arrow.ArrayData) arrow.ArrayData {
	var bits *memory.Buffer
	var nulls int
	if validity != nil {
		bits, nulls = e.validity(*validity)
	}
	return newData(dt, o.Len(), []*memory.Buffer{bits, offsetsBuffer(o)}, []arrow.ArrayData{child}, nulls)
}

func elem(dt arrow.DataType) arrow.DataType { return dt.(*arrow.ListType).Elem() }

func (e *exporter) array(dt arrow.DataType, arr geoarrow.Array) (arrow.ArrayData, error) {
	validity := arr.Validity()
	switch a := arr.(type) {
	case *geoarrow.PointArray:
		return e.coords(dt, a.Coords(), validity), nil
	case *geoarrow.LineStringArray:
		v := e.coords(elem(dt), a.Coords(), geoarrow.AllValid(a.Coords().Len()))
		return e.list(dt, a.GeomOffsets(), &validity, v), nil
	case *geoarrow.MultiPointArray:
		v := e.coords(elem(dt), a.Coords(), geoarrow.AllValid(a.Coords().Len()))
		return e.list(dt, a.GeomOffsets(), &validity, v), nil
	case *geoarrow.PolygonArray:
		ringType := elem(dt)
		v := e.coords(elem(ringType), a.Coords(), geoarrow.AllValid(a.Coords().Len()))
		rings := e.list(ringType, a.RingOffsets(), nil, v)
		return e.list(dt, a.GeomOffsets(), &validity, rings), nil
	case *geoarrow.MultiLineStringArray:
		lineType := elem(dt)
		v := e.coords(elem(lineType), a.Coords(), geoarrow.AllValid(a.Coords().Len()))
		lines := e.list(lineType, a.RingOffsets(), nil, v)
		return e.list(dt, a.GeomOffsets(), &validity, lines), nil
	case *geoarrow.MultiPolygonArray:
		polyType := elem(dt)
		ringType := elem(polyType)
		v := e.coords(elem(ringType), a.Coords(), geoarrow.AllValid(a.Coords().Len()))
		rings := e.list(ringType, a.RingOffsets(), nil, v)
		polys := e.list(polyType, a.PolygonOffsets(), nil, rings)
		return e.list(dt, a.GeomOffsets(), &validity, polys), nil
	case *geoarrow.GeometryCollectionArray:
		ut := elem(dt).(*arrow.DenseUnionType)
		children := make([]geoarrow.NativeArray, len(ut.Fields()))
		for i, code := range ut.TypeCodes() {
			children[i] = a.Child(geotraits.GeometryType(code % 10))
		}
		members, err := e.union(ut, a.TypeIDs(), a.Offsets(), children)
		if err != nil {
			return nil, err
		}
		return e.list(dt, a.GeomOffsets(), &validity, members), nil
	case *geoarrow.GeometryArray:
		ut := dt.(*arrow.DenseUnionType)
		children := make([]geoarrow.NativeArray, len(ut.Fields()))
		for i, code := range ut.TypeCodes() {
			children[i] = a.Child(code)
		}
		return e.union(ut, a.TypeIDs(), a.Offsets(), children)
	case *geoarrow.BoxArray:
		bits, nulls := e.validity(validity)
		size := a.Lower().Dim().Size()
		children := make([]arrow.ArrayData, 0, 2*size)
		for ax := 0; ax < size; ax++ {
			children = append(children, float64s(a.Lower().Axis(ax)))
		}
		for ax := 0; ax < size; ax++ {
			children = append(children, float64s(a.Upper().Axis(ax)))
		}
		return newData(dt, a.Len(), []*memory.Buffer{bits}, children, nulls), nil
	case *geoarrow.WKBArray[int32]:
		return e.binary(dt, validity, offsetsBuffer(a.Offsets()), a.Data()), nil
	case *geoarrow.WKBArray[int64]:
		return e.binary(dt, validity, offsetsBuffer(a.Offsets()), a.Data()), nil
	case *geoarrow.WKTArray[int32]:
		return e.binary(dt, validity, offsetsBuffer(a.Offsets()), a.Data()), nil
	case *geoarrow.WKTArray[int64]:
		return e.binary(dt, validity, offsetsBuffer(a.Offsets()), a.Data()), nil
	case *geoarrow.WKBViewArray:
		return e.views(dt, validity, a.Views(), a.Buffers()), nil
	case *geoarrow.WKTViewArray:
		return e.views(dt, validity, a.Views(), a.Buffers()), nil
	}
	return nil, errors.Errorf("arrowext: cannot export %T", arr)
}

func (e *exporter) union(ut *arrow.DenseUnionType, typeIDs []int8, offsets []int32, children []geoarrow.NativeArray) (arrow.ArrayData, error) {
	childData := make([]arrow.ArrayData, len(children))
	for i, child := range children {
		d, err := e.array(ut.Fields()[i].Type, child)
		if err != nil {
			for _, done := range childData[:i] {
				done.Release()
			}
			return nil, err
		}
		childData[i] = d
	}
	ids := memory.NewBufferBytes(arrow.Int8Traits.CastToBytes(typeIDs))
	offs := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))
	return newData(ut, len(typeIDs), []*memory.Buffer{nil, ids, offs}, childData, 0), nil
}

func (e *exporter) binary(dt arrow.DataType, validity geoarrow.Bitmap, offsets *memory.Buffer, data []byte) arrow.ArrayData {
	bits, nulls := e.validity(validity)
	return newData(dt, validity.Len(), []*memory.Buffer{bits, offsets, bufferOf(data)}, nil, nulls)
}

func (e *exporter) views(dt arrow.DataType, validity geoarrow.Bitmap, views []arrow.ViewHeader, buffers [][]byte) arrow.ArrayData {
	bits, nulls := e.validity(validity)
	out := make([]*memory.Buffer, 0, 2+len(buffers))
	out = append(out, bits, memory.NewBufferBytes(arrow.ViewHeaderTraits.CastToBytes(views)))
	for _, b := range buffers {
		out = append(out, bufferOf(b))
	}
	return newData(dt, validity.Len(), out, nil, nulls)
}
