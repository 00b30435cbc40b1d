package geoarrow

import (
	"bytes"

	"github.com/tingold/orb-geoarrow/geotraits"
)

// Equal reports whether a and b have the same data type, length and
// validity, and equal values in every valid row. Native rows are compared
// as geometries, so the coordinate layout and slicing of the buffers do
// not matter. Serialized rows are compared byte for byte.
func Equal(a, b Array) bool {
	if a.DataType() != b.DataType() || a.Len() != b.Len() || a.NullCount() != b.NullCount() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.IsValid(i) != b.IsValid(i) {
			return false
		}
		if a.IsNull(i) {
			continue
		}
		switch x := a.(type) {
		case NativeArray:
			if !geotraits.Equal(x.Geometry(i), b.(NativeArray).Geometry(i)) {
				return false
			}
		case SerializedArray:
			if !bytes.Equal(x.Bytes(i), b.(SerializedArray).Bytes(i)) {
				return false
			}
		}
	}
	return true
}
