package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/arrowext"
	"github.com/tingold/orb-geoarrow/flatgeobuf"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Supported file formats.
const (
	formatFGB     = "fgb"
	formatGeoJSON = "geojson"
	formatWKT     = "wkt"
	formatArrow   = "arrow"
)

var errUnknownFormat = errors.New("unknown file format")

// formatOf returns explicit when set, otherwise the format implied by the
// extension of path.
func formatOf(path, explicit string) (string, error) {
	if explicit != "" {
		switch f := strings.ToLower(explicit); f {
		case formatFGB, formatGeoJSON, formatWKT, formatArrow:
			return f, nil
		}
		return "", errors.Wrap(errUnknownFormat, explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fgb":
		return formatFGB, nil
	case ".geojson", ".json":
		return formatGeoJSON, nil
	case ".wkt", ".txt":
		return formatWKT, nil
	case ".arrow", ".feather", ".ipc":
		return formatArrow, nil
	}
	return "", errors.Wrapf(errUnknownFormat, "cannot infer format of %q", path)
}

func addFromFlag(f *pflag.FlagSet) {
	f.String("from", "", "Input format: fgb, geojson, wkt or arrow. Inferred from the extension when empty.")
}

// dataset is a geometry column plus optional per-row properties.
type dataset struct {
	arr    geoarrow.Array
	props  []geojson.Properties
	header *flatgeobuf.Header
}

func readDataset(path, format string, ct geoarrow.CoordType) (*dataset, error) {
	switch format {
	case formatFGB:
		return readFGB(path, ct)
	case formatGeoJSON:
		return readGeoJSON(path, ct)
	case formatWKT:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		arr, err := readWKT(f, ct)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		return &dataset{arr: arr}, nil
	case formatArrow:
		return readArrow(path)
	}
	return nil, errors.Wrap(errUnknownFormat, format)
}

func readFGB(path string, ct geoarrow.CoordType) (*dataset, error) {
	r, err := flatgeobuf.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	arr, err := r.ReadArray(ct)
	if err != nil {
		return nil, err
	}
	props, err := r.ReadProperties()
	if err != nil {
		return nil, err
	}
	return &dataset{arr: arr, props: props, header: r.Header()}, nil
}

func readGeoJSON(path string, ct geoarrow.CoordType) (*dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	b := geoarrow.NewGeometryBuilder(geoarrow.GeometryType(ct, geoarrow.Metadata{}))
	props := make([]geojson.Properties, 0, len(fc.Features))
	for i, f := range fc.Features {
		if err := b.PushOrb(f.Geometry); err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		props = append(props, f.Properties)
	}
	arr, err := geoarrow.Downcast(b.Finish(), ct)
	if err != nil {
		return nil, err
	}
	return &dataset{arr: arr, props: props}, nil
}

// readWKT reads one WKT geometry per line. Blank lines are null rows.
func readWKT(r io.Reader, ct geoarrow.CoordType) (geoarrow.Array, error) {
	b := geoarrow.NewWKTBuilder[int32](geoarrow.Metadata{})
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			b.PushNull()
			continue
		}
		if err := b.PushString(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	native, err := geoarrow.Cast(b.Finish(), geoarrow.GeometryType(ct, geoarrow.Metadata{}))
	if err != nil {
		return nil, err
	}
	return geoarrow.Downcast(native, ct)
}

// readArrow reads the first geometry column of every batch of an Arrow IPC
// file and concatenates them.
func readArrow(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer r.Close()

	cols := arrowext.GeometryColumns(r.Schema())
	if len(cols) == 0 {
		return nil, errors.Errorf("%s: no geoarrow column", path)
	}
	var parts []geoarrow.Array
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: batch %d", path, i)
		}
		arr, err := arrowext.FromRecord(rec, cols[0])
		if err != nil {
			return nil, errors.Wrapf(err, "%s: batch %d", path, i)
		}
		parts = append(parts, arr)
	}
	if len(parts) == 0 {
		return nil, errors.Errorf("%s: no record batches", path)
	}
	arr, err := geoarrow.Concat(parts...)
	if err != nil {
		return nil, err
	}
	return &dataset{arr: arr}, nil
}

// writeOptions configures writeDataset.
type writeOptions struct {
	Name        string
	Description string
	Index       bool
	Column      string
}

func writeDataset(w io.Writer, format string, ds *dataset, opts writeOptions) error {
	switch format {
	case formatFGB:
		return flatgeobuf.WriteArrayWithProperties(w, ds.arr, ds.props, &flatgeobuf.Options{
			Name:         opts.Name,
			Description:  opts.Description,
			IncludeIndex: opts.Index,
		})
	case formatGeoJSON:
		return writeGeoJSON(w, ds)
	case formatWKT:
		return writeWKT(w, ds.arr)
	case formatArrow:
		return writeArrow(w, ds.arr, opts.Column)
	}
	return errors.Wrap(errUnknownFormat, format)
}

func writeGeoJSON(w io.Writer, ds *dataset) error {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < ds.arr.Len(); i++ {
		g, err := geoarrow.GeometryAt(ds.arr, i)
		if err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
		f := &geojson.Feature{Type: "Feature", Properties: geojson.Properties{}}
		if g != nil {
			f.Geometry = geotraits.ToOrbLossy(g)
		}
		if ds.props != nil && ds.props[i] != nil {
			f.Properties = ds.props[i]
		}
		fc.Append(f)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(fc)
}

func writeWKT(w io.Writer, arr geoarrow.Array) error {
	wktArr, err := geoarrow.Cast(arr, geoarrow.WKTType(geoarrow.KindLargeWKT, arr.DataType().Metadata))
	if err != nil {
		return err
	}
	text := wktArr.(geoarrow.SerializedArray)
	bw := bufio.NewWriter(w)
	for i := 0; i < text.Len(); i++ {
		if _, err := bw.Write(text.Bytes(i)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeArrow(w io.Writer, arr geoarrow.Array, column string) error {
	if column == "" {
		column = "geometry"
	}
	mem := memory.NewGoAllocator()
	rec, err := arrowext.NewRecord(mem, column, arr)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// encodeArrowStream returns arr as an Arrow IPC stream, the framing browsers
// and pyarrow read over HTTP.
func encodeArrowStream(arr geoarrow.Array) ([]byte, error) {
	mem := memory.NewGoAllocator()
	rec, err := arrowext.NewRecord(mem, "geometry", arr)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	sw := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := sw.Write(rec); err != nil {
		_ = sw.Close()
		return nil, err
	}
	if err := sw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
