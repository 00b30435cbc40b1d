// Package wkb decodes and encodes Well-Known Binary geometries.
//
// Decoding accepts ISO WKB (dimension in the thousands digit of the type
// code) and PostGIS EWKB (dimension and SRID in the high bits). An EWKB SRID
// is read and discarded: it is never surfaced to callers. Encoding always
// produces ISO WKB.
package wkb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Byte order markers.
const (
	XDR byte = 0x00 // big endian
	NDR byte = 0x01 // little endian
)

// EWKB type flags.
const (
	ewkbZ    uint32 = 0x80000000
	ewkbM    uint32 = 0x40000000
	ewkbSRID uint32 = 0x20000000
)

const (
	headerSize = 1 + 4
	countSize  = 4
)

// ErrEmptyInput is returned when decoding a zero length buffer.
var ErrEmptyInput = errors.New("wkb: empty input")

// ParseError reports malformed WKB and the byte offset it was found at.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wkb: %s at byte %d", e.Msg, e.Offset)
}

// Header is the decoded type information at the start of a WKB value.
type Header struct {
	Order binary.ByteOrder
	Type  geotraits.GeometryType
	Dim   geotraits.Dimension
	SRID  uint32
	// HasSRID is set for EWKB values carrying an SRID.
	HasSRID bool
}

// MaxDepth is the deepest collection nesting Decode accepts.
const MaxDepth = 32

type decoder struct {
	b     []byte
	pos   int
	depth int
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return &ParseError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) need(n int) error {
	if n < 0 || len(d.b)-d.pos < n {
		return d.errorf("unexpected end of input: need %d bytes, have %d", n, len(d.b)-d.pos)
	}
	return nil
}

func (d *decoder) uint32(order binary.ByteOrder) (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := order.Uint32(d.b[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) float64(order binary.ByteOrder) (float64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := math.Float64frombits(order.Uint64(d.b[d.pos:]))
	d.pos += 8
	return v, nil
}

// count reads an element count and checks that count elements of at least
// minSize bytes each could fit in the remaining input.
func (d *decoder) count(order binary.ByteOrder, minSize int) (int, error) {
	start := d.pos
	n, err := d.uint32(order)
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(len(d.b)-d.pos) {
		d.pos = start
		return 0, d.errorf("count %d exceeds remaining input", n)
	}
	return int(n), nil
}

func (d *decoder) header() (Header, error) {
	var h Header
	if err := d.need(headerSize); err != nil {
		return h, err
	}
	switch d.b[d.pos] {
	case XDR:
		h.Order = binary.BigEndian
	case NDR:
		h.Order = binary.LittleEndian
	default:
		return h, d.errorf("invalid byte order %#x", d.b[d.pos])
	}
	d.pos++
	typePos := d.pos
	t, err := d.uint32(h.Order)
	if err != nil {
		return h, err
	}
	hasZ, hasM := t&ewkbZ != 0, t&ewkbM != 0
	h.HasSRID = t&ewkbSRID != 0
	base := t &^ (ewkbZ | ewkbM | ewkbSRID)
	code, order := base%1000, base/1000
	if code < 1 || code > 7 || order > 3 {
		d.pos = typePos
		return h, d.errorf("invalid geometry type code %d", base)
	}
	h.Type = geotraits.GeometryType(code)
	switch {
	case hasZ && hasM:
		h.Dim = geotraits.XYZM
	case hasZ:
		h.Dim = geotraits.XYZ
	case hasM:
		h.Dim = geotraits.XYM
	default:
		h.Dim = geotraits.Dimension(order)
	}
	if (hasZ || hasM) && order != 0 {
		d.pos = typePos
		return h, d.errorf("type code %#x mixes EWKB flags and ISO dimension", t)
	}
	if h.HasSRID {
		if h.SRID, err = d.uint32(h.Order); err != nil {
			return h, err
		}
	}
	return h, nil
}

// ReadHeader decodes only the header of b.
func ReadHeader(b []byte) (Header, error) {
	d := decoder{b: b}
	if len(b) == 0 {
		return Header{}, ErrEmptyInput
	}
	return d.header()
}

// Decode parses a single WKB or EWKB geometry. Trailing bytes are an error.
func Decode(b []byte) (geotraits.Geometry, error) {
	if len(b) == 0 {
		return nil, ErrEmptyInput
	}
	d := decoder{b: b}
	g, err := d.geometry(nil)
	if err != nil {
		return nil, err
	}
	if d.pos != len(b) {
		return nil, d.errorf("%d trailing bytes", len(b)-d.pos)
	}
	return g, nil
}

// geometry decodes one geometry. When parent is set the child header must
// agree with the parent's dimension.
func (d *decoder) geometry(parent *Header) (geotraits.Geometry, error) {
	start := d.pos
	h, err := d.header()
	if err != nil {
		return nil, err
	}
	if parent != nil && h.Dim != parent.Dim {
		d.pos = start
		return nil, d.errorf("%s child of %s has dimension %s, want %s", h.Type, parent.Type, h.Dim, parent.Dim)
	}
	coordSize := 8 * h.Dim.Size()
	switch h.Type {
	case geotraits.PointType:
		c, err := d.coord(h)
		if err != nil {
			return nil, err
		}
		if isNaNCoord(c) {
			return geotraits.EmptyPoint(h.Dim), nil
		}
		return geotraits.NewPoint(c), nil
	case geotraits.LineStringType:
		return d.lineString(h, coordSize)
	case geotraits.PolygonType:
		return d.polygon(h, coordSize)
	case geotraits.MultiPointType:
		n, err := d.count(h.Order, headerSize+coordSize)
		if err != nil {
			return nil, err
		}
		out := geotraits.MultiPointValue{D: h.Dim, Points: make([]geotraits.PointValue, 0, n)}
		for i := 0; i < n; i++ {
			child, err := d.typedChild(&h, geotraits.PointType)
			if err != nil {
				return nil, err
			}
			out.Points = append(out.Points, child.(geotraits.PointValue))
		}
		return out, nil
	case geotraits.MultiLineStringType:
		n, err := d.count(h.Order, headerSize+countSize)
		if err != nil {
			return nil, err
		}
		out := geotraits.MultiLineStringValue{D: h.Dim, LineStrings: make([]geotraits.LineStringValue, 0, n)}
		for i := 0; i < n; i++ {
			child, err := d.typedChild(&h, geotraits.LineStringType)
			if err != nil {
				return nil, err
			}
			out.LineStrings = append(out.LineStrings, child.(geotraits.LineStringValue))
		}
		return out, nil
	case geotraits.MultiPolygonType:
		n, err := d.count(h.Order, headerSize+countSize)
		if err != nil {
			return nil, err
		}
		out := geotraits.MultiPolygonValue{D: h.Dim, Polygons: make([]geotraits.PolygonValue, 0, n)}
		for i := 0; i < n; i++ {
			child, err := d.typedChild(&h, geotraits.PolygonType)
			if err != nil {
				return nil, err
			}
			out.Polygons = append(out.Polygons, child.(geotraits.PolygonValue))
		}
		return out, nil
	case geotraits.GeometryCollectionType:
		if d.depth >= MaxDepth {
			d.pos = start
			return nil, d.errorf("collections nested deeper than %d", MaxDepth)
		}
		n, err := d.count(h.Order, headerSize)
		if err != nil {
			return nil, err
		}
		d.depth++
		defer func() { d.depth-- }()
		out := geotraits.GeometryCollectionValue{D: h.Dim, Geometries: make([]geotraits.Geometry, 0, n)}
		for i := 0; i < n; i++ {
			child, err := d.geometry(&h)
			if err != nil {
				return nil, err
			}
			out.Geometries = append(out.Geometries, child)
		}
		return out, nil
	}
	d.pos = start
	return nil, d.errorf("unsupported geometry type %s", h.Type)
}

func (d *decoder) typedChild(parent *Header, want geotraits.GeometryType) (geotraits.Geometry, error) {
	start := d.pos
	g, err := d.geometry(parent)
	if err != nil {
		return nil, err
	}
	if g.GeometryType() != want {
		d.pos = start
		return nil, d.errorf("%s contains %s, want %s", parent.Type, g.GeometryType(), want)
	}
	return g, nil
}

func (d *decoder) coord(h Header) (geotraits.CoordValue, error) {
	c := geotraits.CoordValue{D: h.Dim}
	for i := 0; i < h.Dim.Size(); i++ {
		v, err := d.float64(h.Order)
		if err != nil {
			return c, err
		}
		c.V[i] = v
	}
	return c, nil
}

func (d *decoder) lineString(h Header, coordSize int) (geotraits.LineStringValue, error) {
	n, err := d.count(h.Order, coordSize)
	if err != nil {
		return geotraits.LineStringValue{}, err
	}
	out := geotraits.LineStringValue{D: h.Dim, Coords: make([]geotraits.CoordValue, n)}
	for i := range out.Coords {
		if out.Coords[i], err = d.coord(h); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *decoder) polygon(h Header, coordSize int) (geotraits.PolygonValue, error) {
	n, err := d.count(h.Order, countSize)
	if err != nil {
		return geotraits.PolygonValue{}, err
	}
	out := geotraits.PolygonValue{D: h.Dim}
	if n > 0 {
		out.Rings = make([]geotraits.LineStringValue, n)
	}
	for i := range out.Rings {
		if out.Rings[i], err = d.lineString(h, coordSize); err != nil {
			return out, err
		}
	}
	return out, nil
}

func isNaNCoord(c geotraits.CoordValue) bool {
	for i := 0; i < c.D.Size(); i++ {
		if !math.IsNaN(c.V[i]) {
			return false
		}
	}
	return true
}
