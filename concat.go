package geoarrow

// Concat appends arrays of one data type into a new array. Offsets are
// rebased by a running total; union and view arrays are rebuilt row by row.
func Concat(arrs ...Array) (Array, error) {
	if len(arrs) == 0 {
		return nil, ErrEmptyConcatenation
	}
	typ := arrs[0].DataType()
	rows := 0
	for _, a := range arrs {
		if a.DataType() != typ {
			return nil, errorf(ErrTypeMismatch, "cannot concatenate %s and %s", typ, a.DataType())
		}
		rows += a.Len()
	}
	if len(arrs) == 1 {
		return arrs[0], nil
	}

	switch typ.Kind {
	case KindPoint:
		b := NewPointBuilderWithCapacity(typ, PointCapacity{Geoms: rows})
		for _, a := range arrs {
			p := a.(*PointArray)
			b.coords.appendBuffer(&p.coords)
			b.validity.AppendBitmap(p.validity)
		}
		return b.Finish(), nil
	case KindLineString, KindMultiPoint:
		return concatOneLevel(typ, arrs)
	case KindPolygon, KindMultiLineString:
		return concatTwoLevels(typ, arrs)
	case KindMultiPolygon:
		return concatMultiPolygons(typ, arrs)
	case KindBox:
		b := NewBoxBuilderWithCapacity(typ, BoxCapacity{Geoms: rows})
		for _, a := range arrs {
			box := a.(*BoxArray)
			b.lo.appendBuffer(&box.lo)
			b.hi.appendBuffer(&box.hi)
			b.validity.AppendBitmap(box.validity)
		}
		return b.Finish(), nil
	case KindWKB:
		return concatVar(arrs, func(a Array) varData[int32] { return a.(*WKBArray[int32]).varData },
			func(v varData[int32], validity Bitmap) Array {
				return &WKBArray[int32]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}
			})
	case KindLargeWKB:
		return concatVar(arrs, func(a Array) varData[int64] { return a.(*WKBArray[int64]).varData },
			func(v varData[int64], validity Bitmap) Array {
				return &WKBArray[int64]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}
			})
	case KindWKT:
		return concatVar(arrs, func(a Array) varData[int32] { return a.(*WKTArray[int32]).varData },
			func(v varData[int32], validity Bitmap) Array {
				return &WKTArray[int32]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}
			})
	case KindLargeWKT:
		return concatVar(arrs, func(a Array) varData[int64] { return a.(*WKTArray[int64]).varData },
			func(v varData[int64], validity Bitmap) Array {
				return &WKTArray[int64]{baseArray: baseArray{typ: typ, validity: validity}, varData: v}
			})
	case KindWKBView, KindWKTView:
		b := NewBuilder(typ).(interface {
			Builder
			PushBytes([]byte) error
		})
		for _, a := range arrs {
			s := a.(SerializedArray)
			for i := 0; i < s.Len(); i++ {
				if s.IsNull(i) {
					b.PushNull()
				} else if err := b.PushBytes(s.Bytes(i)); err != nil {
					return nil, err
				}
			}
		}
		return b.FinishArray(), nil
	}

	b := NewBuilder(typ)
	for _, a := range arrs {
		n := a.(NativeArray)
		for i := 0; i < n.Len(); i++ {
			if err := b.PushGeometry(n.Geometry(i)); err != nil {
				return nil, err
			}
		}
	}
	return b.FinishArray(), nil
}

// appendRuns appends the run lengths of o to b after checking the total
// still fits.
func appendRuns[O Offset](b *OffsetBuilder[O], o OffsetBuffer[O]) error {
	if err := b.Check(o.Last() - o.First()); err != nil {
		return err
	}
	for i := 0; i < o.Len(); i++ {
		b.pushUnchecked(o.RunLength(i))
	}
	return nil
}

func concatOneLevel(typ DataType, arrs []Array) (Array, error) {
	coords := NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0)
	geoms := NewOffsetBuilder[int32](0)
	var validity BitmapBuilder
	for _, a := range arrs {
		var c *CoordBuffer
		var g OffsetBuffer[int32]
		switch a := a.(type) {
		case *LineStringArray:
			c, g = &a.coords, a.geomOffsets
		case *MultiPointArray:
			c, g = &a.coords, a.geomOffsets
		}
		if err := appendRuns(geoms, g); err != nil {
			return nil, err
		}
		run := c.Slice(g.First(), g.Last()-g.First())
		coords.appendBuffer(&run)
		validity.AppendBitmap(a.Validity())
	}
	base := baseArray{typ: typ, validity: validity.Finish()}
	if typ.Kind == KindLineString {
		return &LineStringArray{baseArray: base, coords: coords.Finish(), geomOffsets: geoms.Finish()}, nil
	}
	return &MultiPointArray{baseArray: base, coords: coords.Finish(), geomOffsets: geoms.Finish()}, nil
}

func concatTwoLevels(typ DataType, arrs []Array) (Array, error) {
	coords := NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0)
	geoms := NewOffsetBuilder[int32](0)
	parts := NewOffsetBuilder[int32](0)
	var validity BitmapBuilder
	for _, a := range arrs {
		var c *CoordBuffer
		var g, r OffsetBuffer[int32]
		switch a := a.(type) {
		case *PolygonArray:
			c, g, r = &a.coords, a.geomOffsets, a.ringOffsets
		case *MultiLineStringArray:
			c, g, r = &a.coords, a.geomOffsets, a.ringOffsets
		}
		r = r.Slice(g.First(), g.Last()-g.First())
		if err := appendRuns(geoms, g); err != nil {
			return nil, err
		}
		if err := appendRuns(parts, r); err != nil {
			return nil, err
		}
		run := c.Slice(r.First(), r.Last()-r.First())
		coords.appendBuffer(&run)
		validity.AppendBitmap(a.Validity())
	}
	base := baseArray{typ: typ, validity: validity.Finish()}
	if typ.Kind == KindPolygon {
		return &PolygonArray{baseArray: base, coords: coords.Finish(), geomOffsets: geoms.Finish(), ringOffsets: parts.Finish()}, nil
	}
	return &MultiLineStringArray{baseArray: base, coords: coords.Finish(), geomOffsets: geoms.Finish(), ringOffsets: parts.Finish()}, nil
}

func concatMultiPolygons(typ DataType, arrs []Array) (Array, error) {
	coords := NewCoordBufferBuilder(typ.Dim, typ.CoordType, 0)
	geoms := NewOffsetBuilder[int32](0)
	polygons := NewOffsetBuilder[int32](0)
	rings := NewOffsetBuilder[int32](0)
	var validity BitmapBuilder
	for _, a := range arrs {
		m := a.(*MultiPolygonArray)
		g := m.geomOffsets
		p := m.polygonOffsets.Slice(g.First(), g.Last()-g.First())
		r := m.ringOffsets.Slice(p.First(), p.Last()-p.First())
		if err := appendRuns(geoms, g); err != nil {
			return nil, err
		}
		if err := appendRuns(polygons, p); err != nil {
			return nil, err
		}
		if err := appendRuns(rings, r); err != nil {
			return nil, err
		}
		run := m.coords.Slice(r.First(), r.Last()-r.First())
		coords.appendBuffer(&run)
		validity.AppendBitmap(m.validity)
	}
	return &MultiPolygonArray{
		baseArray:      baseArray{typ: typ, validity: validity.Finish()},
		coords:         coords.Finish(),
		geomOffsets:    geoms.Finish(),
		polygonOffsets: polygons.Finish(),
		ringOffsets:    rings.Finish(),
	}, nil
}

func concatVar[O Offset](arrs []Array, get func(Array) varData[O], build func(varData[O], Bitmap) Array) (Array, error) {
	offsets := NewOffsetBuilder[O](0)
	var data []byte
	var validity BitmapBuilder
	for _, a := range arrs {
		v := get(a)
		if err := appendRuns(offsets, v.offsets); err != nil {
			return nil, err
		}
		data = append(data, v.data[v.offsets.First():v.offsets.Last()]...)
		validity.AppendBitmap(a.Validity())
	}
	if data == nil {
		data = []byte{}
	}
	return build(varData[O]{offsets: offsets.Finish(), data: data}, validity.Finish()), nil
}
