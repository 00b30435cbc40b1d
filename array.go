// Package geoarrow implements the GeoArrow columnar geometry layout:
// coordinate, offset and validity buffers, the native and serialized array
// variants, their builders and scalars, and the cast engine that converts
// between them.
//
// Arrays are immutable once built and may be shared freely. Builders are
// single-writer.
package geoarrow

import (
	"iter"

	"github.com/tingold/orb-geoarrow/geotraits"
)

// Array is implemented by every array variant in this package and by no
// other type.
type Array interface {
	DataType() DataType
	Len() int
	NullCount() int
	IsNull(i int) bool
	IsValid(i int) bool
	Validity() Bitmap
	// Slice returns rows [off, off+n) sharing every buffer.
	Slice(off, n int) Array
	// WithMetadata returns the same buffers under new metadata.
	WithMetadata(md Metadata) Array

	isArray()
}

// NativeArray is an array stored as coordinates and offsets.
type NativeArray interface {
	Array
	// Geometry returns row i, or nil when it is null.
	Geometry(i int) geotraits.Geometry
	// IntoCoordType returns the array with its coordinates in layout ct.
	IntoCoordType(ct CoordType) NativeArray
	// Geometries yields every row in order, nil for null rows.
	Geometries() iter.Seq2[int, geotraits.Geometry]
}

// SerializedArray is an array of WKB or WKT values.
type SerializedArray interface {
	Array
	// Bytes returns the encoded value of row i, nil when it is null.
	Bytes(i int) []byte
	// Geometry decodes row i. Null rows decode to nil.
	Geometry(i int) (geotraits.Geometry, error)
}

type baseArray struct {
	typ      DataType
	validity Bitmap
}

func (a *baseArray) DataType() DataType { return a.typ }
func (a *baseArray) Len() int           { return a.validity.Len() }
func (a *baseArray) NullCount() int     { return a.validity.NullCount() }
func (a *baseArray) IsValid(i int) bool { return a.validity.IsValid(i) }
func (a *baseArray) IsNull(i int) bool  { return !a.validity.IsValid(i) }
func (a *baseArray) Validity() Bitmap   { return a.validity }
func (a *baseArray) isArray()           {}

func checkSlice(a Array, off, n int) {
	if off < 0 || n < 0 || off+n > a.Len() {
		panic("geoarrow: slice out of range")
	}
}

// geometries adapts a row accessor to an iterator.
func geometries(n int, at func(int) geotraits.Geometry) iter.Seq2[int, geotraits.Geometry] {
	return func(yield func(int, geotraits.Geometry) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, at(i)) {
				return
			}
		}
	}
}

// values adapts a typed accessor to an iterator of (scalar, valid) pairs.
func values[S any](n int, at func(int) (S, bool)) iter.Seq2[S, bool] {
	return func(yield func(S, bool) bool) {
		for i := 0; i < n; i++ {
			if !yield(at(i)) {
				return
			}
		}
	}
}

// checkValidity makes sure a validity bitmap matches the row count.
func checkValidity(validity Bitmap, n int) (Bitmap, error) {
	if validity.Len() == 0 && validity.Bytes() == nil {
		return AllValid(n), nil
	}
	if validity.Len() != n {
		return validity, errorf(ErrInvalidBuffers, "validity has %d rows, array has %d", validity.Len(), n)
	}
	return validity, nil
}

func checkType(typ DataType, kind Kind, dim Dimension, ct CoordType) error {
	if typ.Kind != kind {
		return errorf(ErrTypeMismatch, "%s is not a %s type", typ, kind)
	}
	if kind.HasDimension() && typ.Dim != dim {
		return errorf(ErrDimensionMismatch, "type is %s, buffers are %s", typ.Dim, dim)
	}
	if kind.HasCoordType() && kind != KindGeometry && kind != KindGeometryCollection && typ.CoordType != ct {
		return errorf(ErrTypeMismatch, "type is %s, buffers are %s", typ.CoordType, ct)
	}
	return nil
}

// AsNative returns arr as a NativeArray when it is one.
func AsNative(arr Array) (NativeArray, bool) {
	n, ok := arr.(NativeArray)
	return n, ok
}

// GeometryAt decodes row i of any array, nil for null rows.
func GeometryAt(arr Array, i int) (geotraits.Geometry, error) {
	switch a := arr.(type) {
	case NativeArray:
		return a.Geometry(i), nil
	case SerializedArray:
		return a.Geometry(i)
	}
	return nil, errorf(ErrTypeMismatch, "unknown array %T", arr)
}
