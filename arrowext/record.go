package arrowext

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
)

// NewRecord exports arr as the single column of a record batch.
func NewRecord(mem memory.Allocator, name string, arr geoarrow.Array) (arrow.Record, error) {
	field, col, err := Export(mem, name, arr)
	if err != nil {
		return nil, err
	}
	defer col.Release()
	schema := arrow.NewSchema([]arrow.Field{field}, nil)
	return array.NewRecord(schema, []arrow.Array{col}, int64(arr.Len())), nil
}

// FromRecord imports column i of rec.
func FromRecord(rec arrow.Record, i int) (geoarrow.Array, error) {
	if i < 0 || i >= int(rec.NumCols()) {
		return nil, errors.Errorf("arrowext: record has no column %d", i)
	}
	return Import(rec.Schema().Field(i), rec.Column(i))
}

// GeometryColumns returns the indices of the columns of schema that carry
// GeoArrow extension metadata.
func GeometryColumns(schema *arrow.Schema) []int {
	var out []int
	for i, f := range schema.Fields() {
		if _, err := DataTypeOf(f); err == nil {
			out = append(out, i)
		}
	}
	return out
}
