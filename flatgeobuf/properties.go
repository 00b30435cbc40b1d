package flatgeobuf

import (
	"encoding/binary"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// columnSchema is the property layout of a file being written.
type columnSchema struct {
	names []string
	types []flattypes.ColumnType
	typed []bool
	index map[string]int
}

// inferSchema derives columns from every key seen across props. Columns are
// ordered by first appearance, keys of one feature in sorted order, and
// each column gets the most general type of its values. Columns holding
// only nulls are strings.
func inferSchema(props []geojson.Properties) *columnSchema {
	s := &columnSchema{index: make(map[string]int)}
	for _, p := range props {
		for _, name := range slices.Sorted(maps.Keys(p)) {
			value := p[name]
			i, seen := s.index[name]
			if !seen {
				i = len(s.names)
				s.index[name] = i
				s.names = append(s.names, name)
				s.types = append(s.types, flattypes.ColumnTypeString)
				s.typed = append(s.typed, false)
			}
			switch {
			case value == nil:
			case !s.typed[i]:
				s.types[i], s.typed[i] = inferColumnType(value), true
			default:
				s.types[i] = promoteColumnType(s.types[i], inferColumnType(value))
			}
		}
	}
	if len(s.names) == 0 {
		return nil
	}
	return s
}

func (s *columnSchema) columns(builder *flatbuffers.Builder) []*writer.Column {
	columns := make([]*writer.Column, 0, len(s.names))
	for i, name := range s.names {
		col := writer.NewColumn(builder)
		col.SetName(name)
		col.SetTitle(name) // Set title to match name for JS library compatibility
		col.SetType(s.types[i])
		col.SetNullable(true)
		columns = append(columns, col)
	}
	return columns
}

// encode writes props in the FlatGeobuf property layout: a little endian
// uint16 column index followed by the value, for each non-null property.
// Properties outside the schema are dropped.
func (s *columnSchema) encode(props geojson.Properties) ([]byte, error) {
	var buf []byte
	for i, name := range s.names {
		value, ok := props[name]
		if !ok || value == nil {
			continue
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(i))
		var err error
		if buf, err = appendValue(buf, value, s.types[i]); err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
	}
	return buf, nil
}

// inferColumnType determines the FlatGeobuf column type for a Go value.
func inferColumnType(value interface{}) flattypes.ColumnType {
	switch v := value.(type) {
	case nil:
		return flattypes.ColumnTypeString
	case bool:
		return flattypes.ColumnTypeBool
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return flattypes.ColumnTypeInt
		}
		return flattypes.ColumnTypeLong
	case int8, int16, int32:
		return flattypes.ColumnTypeInt
	case int64:
		return flattypes.ColumnTypeLong
	case uint, uint8, uint16, uint32:
		return flattypes.ColumnTypeUInt
	case uint64:
		return flattypes.ColumnTypeULong
	case float32:
		return flattypes.ColumnTypeFloat
	case float64:
		return flattypes.ColumnTypeDouble
	case string:
		return flattypes.ColumnTypeString
	case time.Time:
		return flattypes.ColumnTypeDateTime
	case []byte:
		return flattypes.ColumnTypeBinary
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return flattypes.ColumnTypeLong
		}
		return flattypes.ColumnTypeDouble
	default:
		return flattypes.ColumnTypeJson
	}
}

func isFloat(t flattypes.ColumnType) bool {
	return t == flattypes.ColumnTypeFloat || t == flattypes.ColumnTypeDouble
}

func isUnsigned(t flattypes.ColumnType) bool {
	return t == flattypes.ColumnTypeUInt || t == flattypes.ColumnTypeULong
}

var numericRank = map[flattypes.ColumnType]int{
	flattypes.ColumnTypeBool:   0,
	flattypes.ColumnTypeInt:    1,
	flattypes.ColumnTypeUInt:   2,
	flattypes.ColumnTypeLong:   3,
	flattypes.ColumnTypeULong:  4,
	flattypes.ColumnTypeFloat:  5,
	flattypes.ColumnTypeDouble: 6,
}

// promoteColumnType returns a type able to hold values of both a and b.
func promoteColumnType(a, b flattypes.ColumnType) flattypes.ColumnType {
	if a == b {
		return a
	}
	if a == flattypes.ColumnTypeJson || b == flattypes.ColumnTypeJson {
		return flattypes.ColumnTypeJson
	}
	rankA, okA := numericRank[a]
	rankB, okB := numericRank[b]
	if !okA || !okB {
		return flattypes.ColumnTypeString
	}
	switch {
	case isFloat(a) || isFloat(b):
		return flattypes.ColumnTypeDouble
	case isUnsigned(a) != isUnsigned(b) && a != flattypes.ColumnTypeBool && b != flattypes.ColumnTypeBool:
		// Signed and unsigned meet in Long unless a ULong is involved.
		if a == flattypes.ColumnTypeULong || b == flattypes.ColumnTypeULong {
			return flattypes.ColumnTypeDouble
		}
		return flattypes.ColumnTypeLong
	case rankA > rankB:
		return a
	}
	return b
}

func appendValue(buf []byte, value interface{}, colType flattypes.ColumnType) ([]byte, error) {
	bad := func() ([]byte, error) {
		return nil, errors.Errorf("cannot encode %T as %s", value, flattypes.EnumNamesColumnType[colType])
	}
	le := binary.LittleEndian

	switch colType {
	case flattypes.ColumnTypeBool:
		v, ok := value.(bool)
		if !ok {
			return bad()
		}
		if v {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case flattypes.ColumnTypeByte, flattypes.ColumnTypeUByte:
		v, ok := toInt64(value)
		if !ok {
			return bad()
		}
		return append(buf, byte(v)), nil

	case flattypes.ColumnTypeShort, flattypes.ColumnTypeUShort:
		v, ok := toInt64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint16(buf, uint16(v)), nil

	case flattypes.ColumnTypeInt:
		v, ok := toInt64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint32(buf, uint32(int32(v))), nil

	case flattypes.ColumnTypeUInt:
		v, ok := toUint64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint32(buf, uint32(v)), nil

	case flattypes.ColumnTypeLong:
		v, ok := toInt64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint64(buf, uint64(v)), nil

	case flattypes.ColumnTypeULong:
		v, ok := toUint64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint64(buf, v), nil

	case flattypes.ColumnTypeFloat:
		v, ok := toFloat64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint32(buf, math.Float32bits(float32(v))), nil

	case flattypes.ColumnTypeDouble:
		v, ok := toFloat64(value)
		if !ok {
			return bad()
		}
		return le.AppendUint64(buf, math.Float64bits(v)), nil

	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		return appendSized(buf, []byte(toString(value))), nil

	case flattypes.ColumnTypeJson:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, "marshal json property")
		}
		return appendSized(buf, b), nil

	case flattypes.ColumnTypeBinary:
		b, ok := value.([]byte)
		if !ok {
			return bad()
		}
		return appendSized(buf, b), nil
	}
	return bad()
}

// appendSized appends b behind its uint32 length.
func appendSized(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// decodeProperties decodes the property bytes of one feature.
func decodeProperties(data []byte, header *flattypes.Header) (geojson.Properties, error) {
	if len(data) == 0 || header == nil {
		return nil, nil
	}

	props := make(geojson.Properties)
	for offset := 0; offset < len(data); {
		if offset+2 > len(data) {
			return nil, errors.Wrap(ErrInvalidData, "truncated column index")
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return nil, errors.Wrapf(ErrInvalidData, "column index %d out of range", colIndex)
		}

		value, n, err := readPropertyValue(data[offset:], col.Type())
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", col.Name())
		}
		offset += n
		props[string(col.Name())] = value
	}
	return props, nil
}

var fixedSize = map[flattypes.ColumnType]int{
	flattypes.ColumnTypeBool: 1, flattypes.ColumnTypeByte: 1, flattypes.ColumnTypeUByte: 1,
	flattypes.ColumnTypeShort: 2, flattypes.ColumnTypeUShort: 2,
	flattypes.ColumnTypeInt: 4, flattypes.ColumnTypeUInt: 4, flattypes.ColumnTypeFloat: 4,
	flattypes.ColumnTypeLong: 8, flattypes.ColumnTypeULong: 8, flattypes.ColumnTypeDouble: 8,
}

// readPropertyValue reads one value and reports how many bytes it took.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (interface{}, int, error) {
	size, isFixed := fixedSize[colType]
	if !isFixed {
		size = 4
	}
	if len(data) < size {
		return nil, 0, errors.Wrapf(ErrInvalidData, "truncated %s value", flattypes.EnumNamesColumnType[colType])
	}
	le := binary.LittleEndian

	switch colType {
	case flattypes.ColumnTypeBool:
		return data[0] != 0, 1, nil
	case flattypes.ColumnTypeByte:
		return int8(data[0]), 1, nil
	case flattypes.ColumnTypeUByte:
		return data[0], 1, nil
	case flattypes.ColumnTypeShort:
		return int16(le.Uint16(data)), 2, nil
	case flattypes.ColumnTypeUShort:
		return le.Uint16(data), 2, nil
	case flattypes.ColumnTypeInt:
		return int32(le.Uint32(data)), 4, nil
	case flattypes.ColumnTypeUInt:
		return le.Uint32(data), 4, nil
	case flattypes.ColumnTypeLong:
		return int64(le.Uint64(data)), 8, nil
	case flattypes.ColumnTypeULong:
		return le.Uint64(data), 8, nil
	case flattypes.ColumnTypeFloat:
		return math.Float32frombits(le.Uint32(data)), 4, nil
	case flattypes.ColumnTypeDouble:
		return math.Float64frombits(le.Uint64(data)), 8, nil
	}

	n := int(le.Uint32(data))
	if len(data)-4 < n {
		return nil, 0, errors.Wrapf(ErrInvalidData, "%s value of %d bytes overruns properties", flattypes.EnumNamesColumnType[colType], n)
	}
	raw := data[4 : 4+n]

	switch colType {
	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		return string(raw), 4 + n, nil
	case flattypes.ColumnTypeJson:
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return string(raw), 4 + n, nil
		}
		return v, 4 + n, nil
	case flattypes.ColumnTypeBinary:
		return slices.Clone(raw), 4 + n, nil
	}
	return nil, 0, errors.Wrapf(ErrInvalidData, "unknown column type %d", colType)
}

// Type conversion helpers

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
		if f, err := val.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func toUint64(v interface{}) (uint64, bool) {
	switch val := v.(type) {
	case uint:
		return uint64(val), true
	case uint8:
		return uint64(val), true
	case uint16:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case uint64:
		return val, true
	case float64:
		if val >= 0 {
			return uint64(val), true
		}
	case json.Number:
		if i, err := val.Int64(); err == nil && i >= 0 {
			return uint64(i), true
		}
	}
	if i, ok := toInt64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case uint64:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
		return 0, false
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
