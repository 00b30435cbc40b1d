package flatgeobuf

import (
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
	"github.com/tingold/orb-geoarrow/geotraits"
)

// Write writes orb geometries to FlatGeobuf format.
// This is a convenience function for writing geometry-only data without properties.
func Write(w io.Writer, geometries []orb.Geometry, opts *Options) error {
	if len(geometries) == 0 {
		return ErrNilGeometry
	}
	arr, err := geoarrow.FromOrb(geoarrow.GeometryType(geoarrow.Separated, geoarrow.Metadata{}), geometries)
	if err != nil {
		return err
	}
	return WriteArray(w, arr, opts)
}

// WriteFeatures writes a FeatureCollection to FlatGeobuf format.
func WriteFeatures(w io.Writer, fc *geojson.FeatureCollection, opts *Options) error {
	if fc == nil || len(fc.Features) == 0 {
		return ErrNilGeometry
	}

	b := geoarrow.NewGeometryBuilder(geoarrow.GeometryType(geoarrow.Separated, geoarrow.Metadata{}))
	props := make([]geojson.Properties, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if err := b.PushOrb(f.Geometry); err != nil {
			return err
		}
		props = append(props, f.Properties)
	}
	return WriteArrayWithProperties(w, b.Finish(), props, opts)
}

// WriteFeature writes a single feature to FlatGeobuf format.
func WriteFeature(w io.Writer, f *geojson.Feature, opts *Options) error {
	if f == nil {
		return ErrNilGeometry
	}
	return WriteFeatures(w, &geojson.FeatureCollection{Features: []*geojson.Feature{f}}, opts)
}

// WriteArray writes every non-null row of arr as a feature. Any array kind
// is accepted; serialized rows are parsed first and boxes are written as
// polygons.
func WriteArray(w io.Writer, arr geoarrow.Array, opts *Options) error {
	return WriteArrayWithProperties(w, arr, nil, opts)
}

// WriteArrayWithProperties writes arr with props[i] as the properties of
// row i. The column schema is inferred from the properties of non-null rows.
func WriteArrayWithProperties(w io.Writer, arr geoarrow.Array, props []geojson.Properties, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if arr == nil || arr.Len() == 0 {
		return ErrNilGeometry
	}
	if props != nil && len(props) != arr.Len() {
		return errors.Wrapf(ErrPropertyMismatch, "%d properties for %d rows", len(props), arr.Len())
	}

	gen := &arrayFeatureGenerator{}
	var kept []geojson.Properties
	for i := 0; i < arr.Len(); i++ {
		g, err := geoarrow.GeometryAt(arr, i)
		if err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
		if g == nil {
			continue
		}
		gen.geometries = append(gen.geometries, g)
		if props != nil {
			kept = append(kept, props[i])
		}
	}
	if len(gen.geometries) == 0 {
		return errors.Wrap(ErrNilGeometry, "every row is null")
	}

	builder := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(builder)

	geomType := fgbType(gen.geometries[0].GeometryType())
	var hasZ, hasM bool
	for _, g := range gen.geometries {
		if fgbType(g.GeometryType()) != geomType {
			geomType = flattypes.GeometryTypeUnknown
		}
		hasZ = hasZ || g.Dim().HasZ()
		hasM = hasM || g.Dim().HasM()
	}
	header.SetGeometryType(geomType)
	header.SetHasZ(hasZ)
	header.SetHasM(hasM)
	header.SetFeaturesCount(uint64(len(gen.geometries)))

	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}

	if schema := inferSchema(kept); schema != nil {
		header.SetColumns(schema.columns(builder))
		gen.properties = make([][]byte, len(kept))
		for i, p := range kept {
			encoded, err := schema.encode(p)
			if err != nil {
				return err
			}
			gen.properties[i] = encoded
		}
	}

	crs := opts.CRS
	if crs == nil {
		crs = crsFromGeoArrow(arr.DataType().Metadata.CRS)
	}
	if crs != nil {
		header.SetCrs(fgbCrs(builder, crs))
	}

	if !opts.IncludeIndex {
		if bounds, ok, err := geoarrow.TotalBounds(arr); err == nil && ok {
			header.SetEnvelope([]float64{bounds.Lo.X(), bounds.Lo.Y(), bounds.Hi.X(), bounds.Hi.Y()})
		}
	}

	fgbWriter := writer.NewWriter(header, opts.IncludeIndex, gen, nil)
	if _, err := fgbWriter.Write(w); err != nil {
		return err
	}
	return gen.err
}

func fgbCrs(builder *flatbuffers.Builder, c *CRS) *writer.Crs {
	crs := writer.NewCrs(builder)
	if c.Code > 0 {
		crs.SetOrg(c.org())
		crs.SetCode(int32(c.Code))
	} else if c.Org != "" {
		crs.SetOrg(c.Org)
	}
	if c.Name != "" {
		crs.SetName(c.Name)
	}
	if c.Description != "" {
		crs.SetDescription(c.Description)
	}
	// WKT can be stored in description if needed
	if c.WKT != "" && c.Description == "" {
		crs.SetDescription(c.WKT)
	}
	return crs
}

// arrayFeatureGenerator feeds the non-null rows of an array to the
// FlatGeobuf writer. The first conversion error stops generation.
type arrayFeatureGenerator struct {
	geometries []geotraits.Geometry
	properties [][]byte
	index      int
	err        error
}

func (g *arrayFeatureGenerator) Generate() *writer.Feature {
	if g.err != nil || g.index >= len(g.geometries) {
		return nil
	}
	i := g.index
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	fgbGeom, err := geometryToFGB(g.geometries[i], builder)
	if err != nil {
		g.err = errors.Wrapf(err, "feature %d", i)
		return nil
	}

	feature := writer.NewFeature(builder)
	feature.SetGeometry(fgbGeom)
	if g.properties != nil && len(g.properties[i]) > 0 {
		feature.SetProperties(g.properties[i])
	}
	return feature
}
