package flatgeobuf

import (
	"os"
	"strings"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/index"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Reader provides read access to a FlatGeobuf file.
type Reader struct {
	fgb            *flatgeobuf.FlatGeoBuf
	data           []byte
	featuresOffset int
	dim            geotraits.Dimension
}

// NewReader creates a reader from a file path. The whole file is loaded
// into memory.
func NewReader(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return NewReaderFromData(data)
}

// NewReaderFromData creates a reader from byte data.
func NewReaderFromData(data []byte) (*Reader, error) {
	prefix := len(writer.MagicBytes) + flatbuffers.SizeUOffsetT
	if len(data) < prefix {
		return nil, errors.Wrapf(ErrInvalidData, "%d bytes is too short for a header", len(data))
	}
	headerSize := int(flatbuffers.GetUOffsetT(data[len(writer.MagicBytes):]))
	if len(data) < prefix+headerSize {
		return nil, errors.Wrap(ErrInvalidData, "truncated header")
	}

	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidData, err.Error())
	}

	h := fgb.Header()
	offset := prefix + headerSize
	if n := h.IndexNodeSize(); n > 0 && h.FeaturesCount() > 0 {
		tree := index.NewPackedRTreeFromData(data[offset:], h.FeaturesCount(), n, false)
		offset += int(tree.Size())
	}

	return &Reader{
		fgb:            fgb,
		data:           data,
		featuresOffset: offset,
		dim:            dimensionOf(h.HasZ(), h.HasM()),
	}, nil
}

// Header returns metadata about the FlatGeobuf file.
func (r *Reader) Header() *Header {
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
		Dimension:     r.dim,
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3)}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Org:         string(crs.Org()),
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
			WKT:         string(crs.Wkt()),
		}
		// The writer keeps WKT in the description.
		if header.CRS.WKT == "" && strings.Contains(header.CRS.Description, "[") {
			header.CRS.WKT = header.CRS.Description
		}
	}

	if n := h.ColumnsLength(); n > 0 {
		header.Columns = make([]ColumnInfo, 0, n)
		for i := 0; i < n; i++ {
			var col flattypes.Column
			if h.Columns(&col, i) {
				header.Columns = append(header.Columns, ColumnInfo{
					Name:        string(col.Name()),
					Type:        flattypes.EnumNamesColumnType[col.Type()],
					Title:       string(col.Title()),
					Description: string(col.Description()),
					Nullable:    col.Nullable(),
				})
			}
		}
	}

	return header
}

// each calls fn for every feature in file order. Features are walked by
// their size prefixes, so files without an index are readable too.
func (r *Reader) each(fn func(f *flattypes.Feature) error) error {
	for offset := r.featuresOffset; offset < len(r.data); {
		if offset+flatbuffers.SizeUOffsetT > len(r.data) {
			return errors.Wrapf(ErrInvalidData, "truncated feature at offset %d", offset)
		}
		size := int(flatbuffers.GetUOffsetT(r.data[offset:]))
		if offset+flatbuffers.SizeUOffsetT+size > len(r.data) {
			return errors.Wrapf(ErrInvalidData, "feature at offset %d overruns the file", offset)
		}
		f := flattypes.GetSizePrefixedRootAsFeature(r.data, flatbuffers.UOffsetT(offset))
		if err := fn(f); err != nil {
			return err
		}
		offset += flatbuffers.SizeUOffsetT + size
	}
	return nil
}

func (r *Reader) geometry(f *flattypes.Feature) (geotraits.Geometry, error) {
	var obj flattypes.Geometry
	g := f.Geometry(&obj)
	if g == nil {
		return nil, nil
	}
	return GeometryFromFGB(g, r.fgb.Header().GeometryType(), r.dim)
}

func (r *Reader) build(b geoarrow.Builder, features []*flattypes.Feature) (geoarrow.Array, error) {
	push := func(f *flattypes.Feature) error {
		g, err := r.geometry(f)
		if err != nil {
			return err
		}
		return b.PushGeometry(g)
	}
	if features == nil {
		if err := r.each(push); err != nil {
			return nil, err
		}
	}
	for _, f := range features {
		if err := push(f); err != nil {
			return nil, err
		}
	}
	return b.FinishArray(), nil
}

// ReadArray reads every feature geometry into the most compact native array
// holding them, with coordinates in layout ct. Files mixing geometry types
// come back as a geometry array. The array carries the file CRS.
func (r *Reader) ReadArray(ct geoarrow.CoordType) (geoarrow.Array, error) {
	b := geoarrow.NewGeometryBuilder(geoarrow.GeometryType(ct, r.Header().Metadata()))
	arr, err := r.build(b, nil)
	if err != nil {
		return nil, err
	}
	return geoarrow.Downcast(arr, ct)
}

// ReadArrayAs reads every feature geometry into an array of type typ. The
// file CRS is used when typ has no metadata.
func (r *Reader) ReadArrayAs(typ geoarrow.DataType) (geoarrow.Array, error) {
	if typ.Metadata == (geoarrow.Metadata{}) {
		typ = typ.WithMetadata(r.Header().Metadata())
	}
	return r.build(geoarrow.NewBuilder(typ), nil)
}

// ReadProperties decodes the properties of every feature, in the same order
// as ReadArray returns geometries.
func (r *Reader) ReadProperties() ([]geojson.Properties, error) {
	var out []geojson.Properties
	err := r.each(func(f *flattypes.Feature) error {
		props, err := decodeProperties(f.PropertiesBytes(), r.fgb.Header())
		if err != nil {
			return err
		}
		out = append(out, props)
		return nil
	})
	return out, err
}

// ReadFeatures reads all features as a FeatureCollection. Z and M values
// are dropped.
func (r *Reader) ReadFeatures() (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	err := r.each(func(f *flattypes.Feature) error {
		feature, err := r.feature(f)
		if err != nil || feature == nil {
			return err
		}
		fc.Append(feature)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// Search performs a spatial query using the built-in index and returns the
// geometries whose bounding boxes intersect bounds, in index order.
func (r *Reader) Search(bounds orb.Bound, ct geoarrow.CoordType) (geoarrow.Array, error) {
	features, err := r.search(bounds)
	if err != nil {
		return nil, err
	}
	b := geoarrow.NewGeometryBuilder(geoarrow.GeometryType(ct, r.Header().Metadata()))
	if features == nil {
		features = []*flattypes.Feature{}
	}
	arr, err := r.build(b, features)
	if err != nil {
		return nil, err
	}
	return geoarrow.Downcast(arr, ct)
}

// SearchFeatures performs a spatial query returning GeoJSON features.
func (r *Reader) SearchFeatures(bounds orb.Bound) (*geojson.FeatureCollection, error) {
	features, err := r.search(bounds)
	if err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		feature, err := r.feature(f)
		if err != nil {
			return nil, err
		}
		if feature != nil {
			fc.Append(feature)
		}
	}
	return fc, nil
}

func (r *Reader) search(bounds orb.Bound) ([]*flattypes.Feature, error) {
	h := r.fgb.Header()
	if h.IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	if h.FeaturesCount() == 0 {
		return nil, nil
	}
	return r.fgb.Search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
}

// Close releases the file data.
func (r *Reader) Close() error {
	r.fgb = nil
	r.data = nil
	return nil
}

// feature converts a FlatGeobuf feature to a geojson.Feature. Features
// without a geometry are skipped.
func (r *Reader) feature(f *flattypes.Feature) (*geojson.Feature, error) {
	g, err := r.geometry(f)
	if err != nil || g == nil {
		return nil, err
	}
	feature := geojson.NewFeature(geotraits.ToOrbLossy(g))
	props, err := decodeProperties(f.PropertiesBytes(), r.fgb.Header())
	if err != nil {
		return nil, err
	}
	if props != nil {
		feature.Properties = props
	}
	return feature, nil
}
