package wkt

import (
	"strconv"
	"strings"

	"github.com/tingold/orb-geoarrow/geotraits"
)

var keywords = map[string]geotraits.GeometryType{
	"POINT":              geotraits.PointType,
	"LINESTRING":         geotraits.LineStringType,
	"POLYGON":            geotraits.PolygonType,
	"MULTIPOINT":         geotraits.MultiPointType,
	"MULTILINESTRING":    geotraits.MultiLineStringType,
	"MULTIPOLYGON":       geotraits.MultiPolygonType,
	"GEOMETRYCOLLECTION": geotraits.GeometryCollectionType,
}

// MaxDepth is the deepest collection nesting Parse accepts.
const MaxDepth = 32

// parser is a recursive-descent parser over the WKT grammar. The dimension
// of the whole geometry is fixed by the first explicit tag or the width of
// the first coordinate, whichever comes first.
type parser struct {
	lex      lexer
	dim      geotraits.Dimension
	dimKnown bool
	depth    int
}

// Parse parses a single WKT geometry. An EWKT "SRID=n;" prefix is accepted
// and discarded.
func Parse(s string) (geotraits.Geometry, error) {
	p := &parser{lex: lexer{input: s}}
	if err := p.srid(); err != nil {
		return nil, err
	}
	g, err := p.geometry()
	if err != nil {
		return nil, err
	}
	t, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if t.kind != tokEOF {
		return nil, p.lex.errorf(t.pos, "unexpected %s after geometry", describe(t))
	}
	return withDim(g, p.dim), nil
}

func (p *parser) srid() error {
	t, err := p.lex.peek()
	if err != nil {
		return err
	}
	if t.kind != tokWord || !strings.EqualFold(t.text, "SRID") {
		return nil
	}
	p.lex.next()
	if _, err := p.lex.expect(tokEquals); err != nil {
		return err
	}
	n, err := p.lex.expect(tokNumber)
	if err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.text, 10, 32); err != nil {
		return p.lex.errorf(n.pos, "invalid SRID %q", n.text)
	}
	_, err = p.lex.expect(tokSemicolon)
	return err
}

// setDim records dim as the geometry dimension or checks it against the
// dimension already in force.
func (p *parser) setDim(dim geotraits.Dimension, pos int) error {
	if !p.dimKnown {
		p.dim, p.dimKnown = dim, true
		return nil
	}
	if p.dim != dim {
		return p.lex.errorf(pos, "mixed dimensions %s and %s", p.dim, dim)
	}
	return nil
}

// keyword reads a geometry keyword with an optional dimension tag, either
// separate ("POINT Z") or suffixed ("POINTZ").
func (p *parser) keyword() (geotraits.GeometryType, error) {
	t, err := p.lex.expect(tokWord)
	if err != nil {
		return geotraits.UnknownType, err
	}
	word := strings.ToUpper(t.text)
	if typ, ok := keywords[word]; ok {
		next, err := p.lex.peek()
		if err != nil {
			return typ, err
		}
		if next.kind == tokWord {
			if dim, ok := dimTag(strings.ToUpper(next.text)); ok {
				p.lex.next()
				return typ, p.setDim(dim, next.pos)
			}
		}
		return typ, nil
	}
	for _, suffix := range []string{"ZM", "Z", "M"} {
		base := strings.TrimSuffix(word, suffix)
		if typ, ok := keywords[base]; ok && base != word {
			dim, _ := dimTag(suffix)
			return typ, p.setDim(dim, t.pos)
		}
	}
	return geotraits.UnknownType, p.lex.errorf(t.pos, "unknown geometry type %q", t.text)
}

func dimTag(s string) (geotraits.Dimension, bool) {
	switch s {
	case "Z":
		return geotraits.XYZ, true
	case "M":
		return geotraits.XYM, true
	case "ZM":
		return geotraits.XYZM, true
	default:
		return geotraits.XY, false
	}
}

// empty consumes an EMPTY keyword if one is next.
func (p *parser) empty() (bool, error) {
	t, err := p.lex.peek()
	if err != nil {
		return false, err
	}
	if t.kind == tokWord && strings.EqualFold(t.text, "EMPTY") {
		p.lex.next()
		return true, nil
	}
	return false, nil
}

func (p *parser) geometry() (geotraits.Geometry, error) {
	start, err := p.lex.peek()
	if err != nil {
		return nil, err
	}
	typ, err := p.keyword()
	if err != nil {
		return nil, err
	}
	empty, err := p.empty()
	if err != nil {
		return nil, err
	}
	switch typ {
	case geotraits.PointType:
		if empty {
			return geotraits.EmptyPoint(p.dim), nil
		}
		if _, err := p.lex.expect(tokLParen); err != nil {
			return nil, err
		}
		c, err := p.coord()
		if err != nil {
			return nil, err
		}
		if _, err := p.lex.expect(tokRParen); err != nil {
			return nil, err
		}
		return geotraits.NewPoint(c), nil
	case geotraits.LineStringType:
		if empty {
			return geotraits.LineStringValue{}, nil
		}
		return p.lineString()
	case geotraits.PolygonType:
		if empty {
			return geotraits.PolygonValue{}, nil
		}
		return p.polygon()
	case geotraits.MultiPointType:
		out := geotraits.MultiPointValue{}
		if empty {
			return out, nil
		}
		err := p.list(func() error {
			pt, err := p.multiPointMember()
			out.Points = append(out.Points, pt)
			return err
		})
		return out, err
	case geotraits.MultiLineStringType:
		out := geotraits.MultiLineStringValue{}
		if empty {
			return out, nil
		}
		err := p.list(func() error {
			ls, err := p.optionalEmptyLineString()
			out.LineStrings = append(out.LineStrings, ls)
			return err
		})
		return out, err
	case geotraits.MultiPolygonType:
		out := geotraits.MultiPolygonValue{}
		if empty {
			return out, nil
		}
		err := p.list(func() error {
			isEmpty, err := p.empty()
			if err != nil || isEmpty {
				out.Polygons = append(out.Polygons, geotraits.PolygonValue{})
				return err
			}
			poly, err := p.polygon()
			out.Polygons = append(out.Polygons, poly)
			return err
		})
		return out, err
	case geotraits.GeometryCollectionType:
		if p.depth >= MaxDepth {
			return nil, p.lex.errorf(start.pos, "collections nested deeper than %d", MaxDepth)
		}
		out := geotraits.GeometryCollectionValue{}
		if empty {
			return out, nil
		}
		p.depth++
		defer func() { p.depth-- }()
		err := p.list(func() error {
			g, err := p.geometry()
			if err == nil {
				out.Geometries = append(out.Geometries, g)
			}
			return err
		})
		return out, err
	}
	return nil, p.lex.errorf(p.lex.pos, "unsupported geometry type %s", typ)
}

// list parses "( item {, item} )".
func (p *parser) list(item func() error) error {
	if _, err := p.lex.expect(tokLParen); err != nil {
		return err
	}
	for {
		if err := item(); err != nil {
			return err
		}
		t, err := p.lex.next()
		if err != nil {
			return err
		}
		switch t.kind {
		case tokComma:
			continue
		case tokRParen:
			return nil
		default:
			return p.lex.errorf(t.pos, "expected ',' or ')', found %s", describe(t))
		}
	}
}

func (p *parser) coord() (geotraits.CoordValue, error) {
	var c geotraits.CoordValue
	n := 0
	start := -1
	for {
		t, err := p.lex.peek()
		if err != nil {
			return c, err
		}
		if start < 0 {
			start = t.pos
		}
		if t.kind != tokNumber && !(t.kind == tokWord && isNumberWord(t.text)) {
			break
		}
		p.lex.next()
		if n == 4 {
			return c, p.lex.errorf(t.pos, "too many ordinates")
		}
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return c, p.lex.errorf(t.pos, "invalid number %q", t.text)
		}
		c.V[n] = v
		n++
	}
	if n < 2 {
		t, _ := p.lex.peek()
		return c, p.lex.errorf(t.pos, "expected at least 2 ordinates, found %d", n)
	}
	if p.dimKnown {
		if n != p.dim.Size() {
			return c, p.lex.errorf(start, "coordinate has %d ordinates, want %d for %s", n, p.dim.Size(), p.dim)
		}
	} else {
		dim, _ := geotraits.DimensionFromSize(n)
		p.dim, p.dimKnown = dim, true
	}
	c.D = p.dim
	return c, nil
}

func isNumberWord(s string) bool {
	switch strings.ToUpper(s) {
	case "NAN", "INF", "INFINITY":
		return true
	default:
		return false
	}
}

func (p *parser) lineString() (geotraits.LineStringValue, error) {
	var out geotraits.LineStringValue
	err := p.list(func() error {
		c, err := p.coord()
		out.Coords = append(out.Coords, c)
		return err
	})
	return out, err
}

func (p *parser) optionalEmptyLineString() (geotraits.LineStringValue, error) {
	isEmpty, err := p.empty()
	if err != nil || isEmpty {
		return geotraits.LineStringValue{}, err
	}
	return p.lineString()
}

func (p *parser) polygon() (geotraits.PolygonValue, error) {
	var out geotraits.PolygonValue
	err := p.list(func() error {
		ring, err := p.optionalEmptyLineString()
		out.Rings = append(out.Rings, ring)
		return err
	})
	// A polygon written as "((EMPTY))"-style empty exterior collapses to an
	// empty polygon.
	if err == nil && len(out.Rings) == 1 && len(out.Rings[0].Coords) == 0 {
		out.Rings = nil
	}
	return out, err
}

// multiPointMember accepts "(x y)", bare "x y" and EMPTY.
func (p *parser) multiPointMember() (geotraits.PointValue, error) {
	t, err := p.lex.peek()
	if err != nil {
		return geotraits.PointValue{}, err
	}
	switch {
	case t.kind == tokWord && strings.EqualFold(t.text, "EMPTY"):
		p.lex.next()
		return geotraits.EmptyPoint(p.dim), nil
	case t.kind == tokLParen:
		p.lex.next()
		c, err := p.coord()
		if err != nil {
			return geotraits.PointValue{}, err
		}
		if _, err := p.lex.expect(tokRParen); err != nil {
			return geotraits.PointValue{}, err
		}
		return geotraits.NewPoint(c), nil
	default:
		c, err := p.coord()
		return geotraits.NewPoint(c), err
	}
}

// withDim stamps d on every owned value in g. Values built before the
// dimension was known (leading EMPTY members) carry the zero dimension.
func withDim(g geotraits.Geometry, d geotraits.Dimension) geotraits.Geometry {
	switch v := g.(type) {
	case geotraits.PointValue:
		v.C.D = d
		return v
	case geotraits.LineStringValue:
		return lineStringWithDim(v, d)
	case geotraits.PolygonValue:
		return polygonWithDim(v, d)
	case geotraits.MultiPointValue:
		v.D = d
		for i := range v.Points {
			v.Points[i].C.D = d
		}
		return v
	case geotraits.MultiLineStringValue:
		v.D = d
		for i := range v.LineStrings {
			v.LineStrings[i] = lineStringWithDim(v.LineStrings[i], d)
		}
		return v
	case geotraits.MultiPolygonValue:
		v.D = d
		for i := range v.Polygons {
			v.Polygons[i] = polygonWithDim(v.Polygons[i], d)
		}
		return v
	case geotraits.GeometryCollectionValue:
		v.D = d
		for i := range v.Geometries {
			v.Geometries[i] = withDim(v.Geometries[i], d)
		}
		return v
	}
	return g
}

func lineStringWithDim(l geotraits.LineStringValue, d geotraits.Dimension) geotraits.LineStringValue {
	l.D = d
	for i := range l.Coords {
		l.Coords[i].D = d
	}
	return l
}

func polygonWithDim(p geotraits.PolygonValue, d geotraits.Dimension) geotraits.PolygonValue {
	p.D = d
	for i := range p.Rings {
		p.Rings[i] = lineStringWithDim(p.Rings[i], d)
	}
	return p
}
