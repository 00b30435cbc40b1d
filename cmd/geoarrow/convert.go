package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	geoarrow "github.com/tingold/orb-geoarrow"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a geometry column between file formats",
	Long: `Convert reads the geometry column of <input>, optionally casts it to
another GeoArrow type and writes it to <output>. Formats are inferred from
file extensions unless --from or --to is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0], args[1])
	},
}

func init() {
	f := convertCmd.Flags()
	addFromFlag(f)
	f.String("to", "", "Output format: fgb, geojson, wkt or arrow.")
	f.String("coord-type", "separated", "Coordinate layout of native arrays: separated or interleaved.")
	f.String("kind", "", "Cast to this array kind (point, polygon, geometry, wkb, ...) before writing.")
	f.Int("epsg", 0, "Tag the column with this EPSG code.")
	f.Bool("index", true, "Write a packed Hilbert R-tree into FlatGeobuf output.")
	f.String("name", "", "Layer name for FlatGeobuf output.")
	f.String("description", "", "Layer description for FlatGeobuf output.")
	f.String("column", "geometry", "Column name for Arrow output.")
}

// targetType builds the cast target for --kind, keeping the dimension of
// the input where the kind needs one.
func targetType(arr geoarrow.Array, kindName string, ct geoarrow.CoordType) (geoarrow.DataType, error) {
	kind, err := geoarrow.ParseKind(kindName)
	if err != nil {
		return geoarrow.DataType{}, err
	}
	dim, ok := arr.DataType().Dimension()
	if !ok {
		dim = geoarrow.XY
		if inferred, ok, err := geoarrow.InferDowncastType(arr); err == nil && ok {
			if d, ok := inferred.Dimension(); ok {
				dim = d
			}
		}
	}
	return geoarrow.NewDataType(kind, dim, ct, arr.DataType().Metadata), nil
}

func runConvert(in, out string) error {
	from, err := formatOf(in, conf.GetString("from"))
	if err != nil {
		return err
	}
	to, err := formatOf(out, conf.GetString("to"))
	if err != nil {
		return err
	}
	ct, err := geoarrow.ParseCoordType(conf.GetString("coord-type"))
	if err != nil {
		return err
	}

	ds, err := readDataset(in, from, ct)
	if err != nil {
		return err
	}
	log.Debugw("read input", "path", in, "format", from, "type", ds.arr.DataType().String(), "rows", ds.arr.Len())

	if code := conf.GetInt("epsg"); code > 0 {
		md := ds.arr.DataType().Metadata
		md.CRS = geoarrow.EPSG(code)
		ds.arr = ds.arr.WithMetadata(md)
	}
	if k := conf.GetString("kind"); k != "" {
		typ, err := targetType(ds.arr, k, ct)
		if err != nil {
			return err
		}
		if ds.arr, err = geoarrow.Cast(ds.arr, typ); err != nil {
			return errors.Wrapf(err, "cast to %s", typ)
		}
		log.Debugw("cast", "type", typ.String())
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	err = writeDataset(f, to, ds, writeOptions{
		Name:        conf.GetString("name"),
		Description: conf.GetString("description"),
		Index:       conf.GetBool("index"),
		Column:      conf.GetString("column"),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, out)
	}
	log.Infow("converted", "input", in, "output", out, "format", to, "rows", ds.arr.Len())
	return nil
}
