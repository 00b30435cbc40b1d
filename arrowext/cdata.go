//go:build cgo

package arrowext

import (
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/apache/arrow-go/v18/arrow/memory"
	geoarrow "github.com/tingold/orb-geoarrow"
)

// ExportC exports arr through the Arrow C data interface as a one-column
// record batch. The consumer owns out and outSchema and must release them.
func ExportC(mem memory.Allocator, name string, arr geoarrow.Array, out *cdata.CArrowArray, outSchema *cdata.CArrowSchema) error {
	rec, err := NewRecord(mem, name, arr)
	if err != nil {
		return err
	}
	defer rec.Release()
	cdata.ExportArrowRecordBatch(rec, out, outSchema)
	return nil
}

// ImportC imports the first column of a record batch received through the
// Arrow C data interface. Ownership of arr moves to the returned array.
func ImportC(arr *cdata.CArrowArray, schema *cdata.CArrowSchema) (geoarrow.Array, error) {
	sc, err := cdata.ImportCArrowSchema(schema)
	if err != nil {
		return nil, err
	}
	rec, err := cdata.ImportCRecordBatchWithSchema(arr, sc)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec, 0)
}
