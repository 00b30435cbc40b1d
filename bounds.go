package geoarrow

import "github.com/tingold/orb-geoarrow/geotraits"

// boundsDim is the dimension of the boxes computed for arr. Dimensionless
// arrays are bounded in XY.
func boundsDim(arr Array) Dimension {
	if d, ok := arr.DataType().Dimension(); ok {
		return d
	}
	return XY
}

func project(r geotraits.RectValue, d Dimension) geotraits.RectValue {
	if r.Dim() == d {
		return r
	}
	lo := geotraits.CoordValue{D: d, V: [4]float64{r.Lo.X(), r.Lo.Y()}}
	hi := geotraits.CoordValue{D: d, V: [4]float64{r.Hi.X(), r.Hi.Y()}}
	return geotraits.RectValue{Lo: lo, Hi: hi}
}

// BoundingBoxes returns the bounding box of every row. Null and empty rows
// are null boxes. Boxes of dimensionless arrays are in XY.
func BoundingBoxes(arr Array) (*BoxArray, error) {
	d := boundsDim(arr)
	b := NewBoxBuilderWithCapacity(BoxType(d, arr.DataType().Metadata), BoxCapacity{Geoms: arr.Len()})
	for i := 0; i < arr.Len(); i++ {
		g, err := GeometryAt(arr, i)
		if err != nil {
			return nil, rowFailure(arr.DataType(), b.typ, i, err)
		}
		if g == nil {
			b.PushNull()
			continue
		}
		r, ok := geotraits.Bounds(g)
		if !ok {
			b.PushNull()
			continue
		}
		if err := b.PushRect(project(r, d)); err != nil {
			return nil, rowFailure(arr.DataType(), b.typ, i, err)
		}
	}
	return b.Finish(), nil
}

// TotalBounds returns the box covering every valid row, or false when no
// row has a position.
func TotalBounds(arr Array) (geotraits.RectValue, bool, error) {
	d := boundsDim(arr)
	var total geotraits.RectValue
	found := false
	for i := 0; i < arr.Len(); i++ {
		g, err := GeometryAt(arr, i)
		if err != nil {
			return total, false, err
		}
		if g == nil {
			continue
		}
		r, ok := geotraits.Bounds(g)
		if !ok {
			continue
		}
		r = project(r, d)
		if !found {
			total, found = r, true
			continue
		}
		for ax := 0; ax < d.Size(); ax++ {
			if r.Lo.V[ax] < total.Lo.V[ax] {
				total.Lo.V[ax] = r.Lo.V[ax]
			}
			if r.Hi.V[ax] > total.Hi.V[ax] {
				total.Hi.V[ax] = r.Hi.V[ax]
			}
		}
	}
	return total, found, nil
}
