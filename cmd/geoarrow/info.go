package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	geoarrow "github.com/tingold/orb-geoarrow"
)

var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Describe the geometry column of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatOf(args[0], conf.GetString("from"))
		if err != nil {
			return err
		}
		ds, err := readDataset(args[0], format, geoarrow.Separated)
		if err != nil {
			return err
		}
		if conf.GetBool("validate") {
			if err := geoarrow.Validate(ds.arr); err != nil {
				return err
			}
			log.Debugw("validated", "path", args[0])
		}
		return printInfo(cmd.OutOrStdout(), ds)
	},
}

func init() {
	addFromFlag(infoCmd.Flags())
	infoCmd.Flags().Bool("validate", false, "Check the array buffers before describing them.")
}

func printInfo(w io.Writer, ds *dataset) error {
	arr := ds.arr
	typ := arr.DataType()
	fmt.Fprintf(w, "Type:        %s\n", typ)
	fmt.Fprintf(w, "Extension:   %s\n", typ.ExtensionName())
	fmt.Fprintf(w, "Rows:        %d\n", arr.Len())
	fmt.Fprintf(w, "Nulls:       %d\n", arr.NullCount())
	if !typ.Metadata.CRS.IsZero() {
		fmt.Fprintf(w, "CRS:         %s\n", typ.Metadata.CRS.Value)
	}
	if typ.Metadata.Edges != "" {
		fmt.Fprintf(w, "Edges:       %s\n", typ.Metadata.Edges)
	}

	bounds, ok, err := geoarrow.TotalBounds(arr)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "Bounds:      [%g, %g, %g, %g]\n", bounds.Lo.X(), bounds.Lo.Y(), bounds.Hi.X(), bounds.Hi.Y())
	} else {
		fmt.Fprintln(w, "Bounds:      empty")
	}

	if compact, ok, err := geoarrow.InferDowncastType(arr); err != nil {
		return err
	} else if ok && compact.WithMetadata(geoarrow.Metadata{}) != typ.WithMetadata(geoarrow.Metadata{}) {
		fmt.Fprintf(w, "Downcast:    %s\n", compact)
	}

	if h := ds.header; h != nil {
		fmt.Fprintln(w, "FlatGeobuf:")
		if h.Name != "" {
			fmt.Fprintf(w, "  Name:      %s\n", h.Name)
		}
		fmt.Fprintf(w, "  Geometry:  %s %s\n", h.GeometryType, h.Dimension)
		fmt.Fprintf(w, "  Features:  %d\n", h.FeaturesCount)
		fmt.Fprintf(w, "  Index:     %t\n", h.HasIndex)
		for _, c := range h.Columns {
			fmt.Fprintf(w, "  Column:    %s (%s)\n", c.Name, c.Type)
		}
	}
	return nil
}
