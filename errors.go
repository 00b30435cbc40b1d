package geoarrow

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Common errors returned by this package.
var (
	ErrDimensionMismatch  = errors.New("geoarrow: dimension mismatch")
	ErrMetadataMismatch   = errors.New("geoarrow: metadata mismatch")
	ErrUnsupportedCast    = errors.New("geoarrow: unsupported conversion")
	ErrRowFailure         = errors.New("geoarrow: row conversion failed")
	ErrWrongGeometryType  = errors.New("geoarrow: wrong geometry type")
	ErrInvalidGeometry    = errors.New("geoarrow: invalid geometry")
	ErrNonFinite          = errors.New("geoarrow: non-finite coordinate")
	ErrOffsetOverflow     = errors.New("geoarrow: offset overflow")
	ErrInvalidBuffers     = errors.New("geoarrow: invalid buffers")
	ErrTypeMismatch       = errors.New("geoarrow: data type mismatch")
	ErrNestedCollection   = errors.New("geoarrow: nested geometry collection")
	ErrNotSerialized      = errors.New("geoarrow: not a serialized array")
	ErrEmptyConcatenation = errors.New("geoarrow: nothing to concatenate")
)

// BuilderError reports a geometry a builder refused. The builder is left
// exactly as it was before the failing push.
type BuilderError struct {
	Row    int
	Reason string
	Err    error
}

func (e *BuilderError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("geoarrow: builder row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("geoarrow: builder row %d: %s: %v", e.Row, e.Reason, e.Err)
}

func (e *BuilderError) Unwrap() error { return e.Err }

func builderErrorf(row int, cause error, format string, args ...interface{}) error {
	return &BuilderError{Row: row, Reason: fmt.Sprintf(format, args...), Err: cause}
}

// CastErrorKind classifies a CastError.
type CastErrorKind int

const (
	DimensionMismatch CastErrorKind = iota + 1
	MetadataMismatch
	UnsupportedConversion
	RowFailure
)

func (k CastErrorKind) String() string {
	switch k {
	case DimensionMismatch:
		return "dimension mismatch"
	case MetadataMismatch:
		return "metadata mismatch"
	case UnsupportedConversion:
		return "unsupported conversion"
	case RowFailure:
		return "row failure"
	default:
		return "unknown"
	}
}

func (k CastErrorKind) sentinel() error {
	switch k {
	case DimensionMismatch:
		return ErrDimensionMismatch
	case MetadataMismatch:
		return ErrMetadataMismatch
	case UnsupportedConversion:
		return ErrUnsupportedCast
	case RowFailure:
		return ErrRowFailure
	default:
		return nil
	}
}

// CastError is returned by Cast. For RowFailure, Row is the index of the
// first row that could not be converted and Err the underlying cause.
type CastError struct {
	Kind CastErrorKind
	From DataType
	To   DataType
	Row  int
	Err  error
}

func (e *CastError) Error() string {
	if e.Kind == RowFailure {
		return fmt.Sprintf("geoarrow: cannot cast %s to %s: row %d: %v", e.From, e.To, e.Row, e.Err)
	}
	return fmt.Sprintf("geoarrow: cannot cast %s to %s: %s", e.From, e.To, e.Kind)
}

// Is matches the sentinel error of the cast error kind.
func (e *CastError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *CastError) Unwrap() error { return e.Err }

func rowFailure(from, to DataType, row int, err error) error {
	return &CastError{Kind: RowFailure, From: from, To: to, Row: row, Err: err}
}

func dimensionError(row int, got, want geotraits.Dimension) error {
	return builderErrorf(row, ErrDimensionMismatch, "geometry is %s, builder is %s", got, want)
}

// errorf annotates a sentinel so errors.Is still matches it.
func errorf(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}

const errBuilderFinished = "geoarrow: builder used after Finish"

func mustKind(typ DataType, kind Kind) {
	if typ.Kind != kind {
		panic(fmt.Sprintf("geoarrow: %s is not a %s type", typ, kind))
	}
	if !typ.Dim.Valid() {
		panic(fmt.Sprintf("geoarrow: invalid dimension %s", typ.Dim))
	}
}

func wrongType(row int, g geotraits.Geometry, kind Kind) error {
	return builderErrorf(row, ErrWrongGeometryType, "cannot push %s %s into a %s builder",
		g.Dim(), g.GeometryType(), kind)
}
