// Package flatgeobuf reads and writes FlatGeobuf files as geoarrow arrays.
// Geometries are decoded straight into array builders, including Z and M
// ordinates, and arrays of any kind can be written back out.
package flatgeobuf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	geoarrow "github.com/tingold/orb-geoarrow"
)

// Common errors returned by this package.
var (
	ErrNilGeometry      = errors.New("flatgeobuf: nil geometry")
	ErrUnsupportedType  = errors.New("flatgeobuf: unsupported geometry type")
	ErrInvalidData      = errors.New("flatgeobuf: invalid data")
	ErrNoIndex          = errors.New("flatgeobuf: file has no spatial index")
	ErrPropertyMismatch = errors.New("flatgeobuf: property count does not match rows")
)

// CRS represents a coordinate reference system.
type CRS struct {
	Org         string // Authority (e.g., "EPSG"); EPSG when empty
	Code        int    // Authority code (e.g., 4326 for WGS84)
	Name        string // CRS name
	Description string // CRS description
	WKT         string // Well-Known Text representation
}

// WGS84 returns the standard WGS84 CRS (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Org:  "EPSG",
		Code: 4326,
		Name: "WGS 84",
	}
}

func (c *CRS) org() string {
	if c.Org == "" {
		return "EPSG"
	}
	return c.Org
}

// GeoArrow returns the array metadata CRS for c: an authority code when c
// has one, otherwise its WKT.
func (c *CRS) GeoArrow() geoarrow.CRS {
	switch {
	case c == nil:
		return geoarrow.CRS{}
	case c.Code > 0:
		return geoarrow.CRS{Type: geoarrow.CRSAuthorityCode, Value: fmt.Sprintf("%s:%d", c.org(), c.Code)}
	case c.WKT != "":
		return geoarrow.CRS{Value: c.WKT}
	}
	return geoarrow.CRS{}
}

// crsFromGeoArrow maps array metadata onto a FlatGeobuf CRS. Only authority
// codes and WKT survive; PROJJSON and opaque values are dropped.
func crsFromGeoArrow(c geoarrow.CRS) *CRS {
	if c.IsZero() {
		return nil
	}
	if org, code, ok := strings.Cut(c.Value, ":"); ok && c.Type != geoarrow.CRSProjJSON {
		if n, err := strconv.Atoi(code); err == nil {
			return &CRS{Org: strings.ToUpper(org), Code: n}
		}
	}
	switch c.Type {
	case geoarrow.CRSWKT2, geoarrow.CRSUnknown:
		if strings.Contains(c.Value, "[") {
			return &CRS{WKT: c.Value}
		}
	}
	return nil
}

// Options configures FlatGeobuf writing.
type Options struct {
	Name         string // Layer name
	Description  string // Layer description
	IncludeIndex bool   // Include spatial index (default: true)
	CRS          *CRS   // Coordinate reference system; taken from the array metadata when nil
}

// DefaultOptions returns default options for writing FlatGeobuf files.
func DefaultOptions() *Options {
	return &Options{
		IncludeIndex: true,
	}
}

// ColumnInfo describes a property column in a FlatGeobuf file.
type ColumnInfo struct {
	Name        string // Column name
	Type        string // Column type ("Bool", "Int", "Long", "Double", "String", "Json", etc.)
	Title       string // Column title (human-readable)
	Description string // Column description
	Nullable    bool   // Whether the column can contain null values
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string             // Layer name
	Description   string             // Layer description
	GeometryType  string             // Geometry type ("Point", "Polygon", "Unknown", etc.)
	Dimension     geoarrow.Dimension // Ordinates stored per position
	FeaturesCount uint64             // Number of features in the file
	Envelope      [4]float64         // Bounding box [minX, minY, maxX, maxY]
	CRS           *CRS               // Coordinate reference system
	HasIndex      bool               // Whether the file has a spatial index
	Columns       []ColumnInfo       // Property column schema
}

// Metadata returns the geoarrow metadata of arrays read from the file.
func (h *Header) Metadata() geoarrow.Metadata {
	return geoarrow.Metadata{CRS: h.CRS.GeoArrow()}
}
