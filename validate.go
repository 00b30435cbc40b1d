package geoarrow

import "github.com/tingold/orb-geoarrow/geotraits"

// Validate checks the structure of arr: offsets are non-decreasing and stay
// inside their child, union type ids and offsets point at existing child
// rows, and validity covers every row. Slices of valid arrays are valid.
// Errors wrap ErrInvalidBuffers.
func Validate(arr Array) error {
	if arr.Validity().Len() != arr.Len() {
		return errorf(ErrInvalidBuffers, "validity has %d rows, array has %d", arr.Validity().Len(), arr.Len())
	}
	switch a := arr.(type) {
	case *PointArray, *BoxArray:
		return nil
	case *LineStringArray:
		return a.geomOffsets.Validate(a.coords.Len())
	case *MultiPointArray:
		return a.geomOffsets.Validate(a.coords.Len())
	case *PolygonArray:
		return validateLevels(a.coords.Len(), a.geomOffsets, a.ringOffsets)
	case *MultiLineStringArray:
		return validateLevels(a.coords.Len(), a.geomOffsets, a.ringOffsets)
	case *MultiPolygonArray:
		return validateLevels(a.coords.Len(), a.geomOffsets, a.polygonOffsets, a.ringOffsets)
	case *GeometryCollectionArray:
		if err := a.geomOffsets.Validate(a.mixed.Len()); err != nil {
			return err
		}
		for code := 1; code <= 6; code++ {
			if err := Validate(a.mixed.children[code]); err != nil {
				return err
			}
		}
		return validateUnion(a.mixed.typeIDs, a.mixed.offsets, func(t geotraits.GeometryType, d Dimension) NativeArray {
			if d != a.mixed.dim || t == geotraits.GeometryCollectionType {
				return nil
			}
			return a.mixed.children[t]
		})
	case *GeometryArray:
		for d := range a.children {
			for t := 1; t <= 7; t++ {
				if err := Validate(a.children[d][t]); err != nil {
					return err
				}
			}
		}
		return validateUnion(a.typeIDs, a.offsets, func(t geotraits.GeometryType, d Dimension) NativeArray {
			return a.children[d][t]
		})
	case *WKBArray[int32]:
		return a.offsets.Validate(len(a.data))
	case *WKBArray[int64]:
		return a.offsets.Validate(len(a.data))
	case *WKTArray[int32]:
		return a.offsets.Validate(len(a.data))
	case *WKTArray[int64]:
		return a.offsets.Validate(len(a.data))
	case *WKBViewArray:
		_, _, err := newViewData(a.views, a.buffers, a.validity)
		return err
	case *WKTViewArray:
		_, _, err := newViewData(a.views, a.buffers, a.validity)
		return err
	}
	return errorf(ErrTypeMismatch, "unknown array %T", arr)
}

// validateLevels checks nested offsets from the outermost level in. Each
// level indexes the runs of the next; the last indexes coordinates.
func validateLevels(coords int, levels ...OffsetBuffer[int32]) error {
	for i, o := range levels {
		child := coords
		if i+1 < len(levels) {
			child = levels[i+1].Len()
		}
		if err := o.Validate(child); err != nil {
			return err
		}
	}
	return nil
}

func validateUnion(typeIDs []int8, offsets []int32, child func(geotraits.GeometryType, Dimension) NativeArray) error {
	if len(typeIDs) != len(offsets) {
		return errorf(ErrInvalidBuffers, "%d type ids but %d offsets", len(typeIDs), len(offsets))
	}
	for i, id := range typeIDs {
		t, d, err := geotraits.TypeFromID(id)
		if err != nil {
			return errorf(ErrInvalidBuffers, "row %d: %v", i, err)
		}
		c := child(t, d)
		if c == nil {
			return errorf(ErrInvalidBuffers, "row %d: type id %d not allowed here", i, id)
		}
		if o := int(offsets[i]); o < 0 || o >= c.Len() {
			return errorf(ErrInvalidBuffers, "row %d: offset %d out of range for type id %d", i, o, id)
		}
	}
	return nil
}
