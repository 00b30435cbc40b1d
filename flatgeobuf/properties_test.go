package flatgeobuf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb/geojson"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected flattypes.ColumnType
	}{
		{"nil", nil, flattypes.ColumnTypeString},
		{"bool true", true, flattypes.ColumnTypeBool},
		{"bool false", false, flattypes.ColumnTypeBool},
		{"int", 42, flattypes.ColumnTypeInt},
		{"int64", int64(9999999999), flattypes.ColumnTypeLong},
		{"uint32", uint32(7), flattypes.ColumnTypeUInt},
		{"float32", float32(3.14), flattypes.ColumnTypeFloat},
		{"float64", 3.14159, flattypes.ColumnTypeDouble},
		{"string", "hello", flattypes.ColumnTypeString},
		{"time", time.Unix(0, 0), flattypes.ColumnTypeDateTime},
		{"bytes", []byte{1, 2}, flattypes.ColumnTypeBinary},
		{"map", map[string]interface{}{"key": "value"}, flattypes.ColumnTypeJson},
		{"slice", []interface{}{1, 2, 3}, flattypes.ColumnTypeJson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := inferColumnType(tt.value)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestInferColumnType_JsonNumber(t *testing.T) {
	intNum := json.Number("42")
	result := inferColumnType(intNum)
	if result != flattypes.ColumnTypeLong {
		t.Errorf("expected Long for integer json.Number, got %v", result)
	}

	floatNum := json.Number("3.14")
	result = inferColumnType(floatNum)
	if result != flattypes.ColumnTypeDouble {
		t.Errorf("expected Double for float json.Number, got %v", result)
	}
}

func TestPromoteColumnType(t *testing.T) {
	tests := []struct {
		name     string
		a, b     flattypes.ColumnType
		expected flattypes.ColumnType
	}{
		{"same type", flattypes.ColumnTypeInt, flattypes.ColumnTypeInt, flattypes.ColumnTypeInt},
		{"int to long", flattypes.ColumnTypeInt, flattypes.ColumnTypeLong, flattypes.ColumnTypeLong},
		{"int to double", flattypes.ColumnTypeInt, flattypes.ColumnTypeDouble, flattypes.ColumnTypeDouble},
		{"bool to int", flattypes.ColumnTypeBool, flattypes.ColumnTypeInt, flattypes.ColumnTypeInt},
		{"int and uint", flattypes.ColumnTypeInt, flattypes.ColumnTypeUInt, flattypes.ColumnTypeLong},
		{"long and ulong", flattypes.ColumnTypeLong, flattypes.ColumnTypeULong, flattypes.ColumnTypeDouble},
		{"float to double", flattypes.ColumnTypeFloat, flattypes.ColumnTypeLong, flattypes.ColumnTypeDouble},
		{"any to json", flattypes.ColumnTypeInt, flattypes.ColumnTypeJson, flattypes.ColumnTypeJson},
		{"any to string", flattypes.ColumnTypeInt, flattypes.ColumnTypeString, flattypes.ColumnTypeString},
		{"datetime and string", flattypes.ColumnTypeDateTime, flattypes.ColumnTypeString, flattypes.ColumnTypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := promoteColumnType(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestInferSchema(t *testing.T) {
	schema := inferSchema([]geojson.Properties{
		{"name": "test", "value": 42, "active": true},
		nil,
		{"name": "test2", "value": 2.5, "score": nil},
		{"score": 7},
	})
	if schema == nil {
		t.Fatal("expected a schema")
	}

	wantNames := []string{"active", "name", "value", "score"}
	if diff := cmp.Diff(wantNames, schema.names); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
	wantTypes := []flattypes.ColumnType{
		flattypes.ColumnTypeBool,
		flattypes.ColumnTypeString,
		flattypes.ColumnTypeDouble,
		flattypes.ColumnTypeInt,
	}
	if diff := cmp.Diff(wantTypes, schema.types); diff != "" {
		t.Errorf("column types mismatch (-want +got):\n%s", diff)
	}
}

func TestInferSchema_Empty(t *testing.T) {
	if schema := inferSchema([]geojson.Properties{nil, {}}); schema != nil {
		t.Errorf("expected nil schema, got %v", schema.names)
	}
}

// headerFor builds a FlatGeobuf header holding the columns of schema.
func headerFor(schema *columnSchema) *flattypes.Header {
	builder := flatbuffers.NewBuilder(256)
	header := writer.NewHeader(builder)
	header.SetGeometryType(flattypes.GeometryTypePoint)
	header.SetColumns(schema.columns(builder))
	builder.FinishSizePrefixed(header.Build())
	return flattypes.GetSizePrefixedRootAsHeader(builder.FinishedBytes(), 0)
}

func TestEncodeDecodeProperties(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	props := []geojson.Properties{
		{
			"flag":   true,
			"count":  int64(1) << 40,
			"small":  int32(-5),
			"ratio":  0.25,
			"label":  "café",
			"when":   when,
			"blob":   []byte{0, 1, 2},
			"nested": map[string]interface{}{"a": 1.0},
		},
		{"label": nil},
	}
	schema := inferSchema(props)
	header := headerFor(schema)

	data, err := schema.encode(props[0])
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := decodeProperties(data, header)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	want := geojson.Properties{
		"flag":   true,
		"count":  int64(1) << 40,
		"small":  int32(-5),
		"ratio":  0.25,
		"label":  "café",
		"when":   when.Format(time.RFC3339Nano),
		"blob":   []byte{0, 1, 2},
		"nested": map[string]interface{}{"a": 1.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	data, err = schema.encode(props[1])
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected null properties to encode to nothing, got %d bytes", len(data))
	}
}

func TestEncodeProperties_UsesColumnType(t *testing.T) {
	// An int in a Double column must be written as a double.
	schema := inferSchema([]geojson.Properties{{"v": 1.5}, {"v": 3}})
	header := headerFor(schema)

	data, err := schema.encode(geojson.Properties{"v": 3})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(data) != 2+8 {
		t.Fatalf("expected 10 bytes, got %d", len(data))
	}
	got, err := decodeProperties(data, header)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got["v"] != 3.0 {
		t.Errorf("expected 3.0, got %v (%T)", got["v"], got["v"])
	}
}

func TestEncodeProperties_Mismatch(t *testing.T) {
	schema := &columnSchema{
		names: []string{"flag"},
		types: []flattypes.ColumnType{flattypes.ColumnTypeBool},
		index: map[string]int{"flag": 0},
	}
	if _, err := schema.encode(geojson.Properties{"flag": "yes"}); err == nil {
		t.Error("expected error encoding a string as Bool")
	}
}

func TestDecodeProperties_Truncated(t *testing.T) {
	schema := inferSchema([]geojson.Properties{{"label": "hello"}})
	header := headerFor(schema)
	data, err := schema.encode(geojson.Properties{"label": "hello"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	for _, n := range []int{1, 3, len(data) - 1} {
		if _, err := decodeProperties(data[:n], header); err == nil {
			t.Errorf("expected error for %d of %d bytes", n, len(data))
		}
	}

	bad := []byte{9, 0, 1}
	if _, err := decodeProperties(bad, header); err == nil {
		t.Error("expected error for out of range column index")
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected int64
		ok       bool
	}{
		{"int", 42, 42, true},
		{"int64", int64(100), 100, true},
		{"float64", 3.7, 3, true},
		{"bool", true, 1, true},
		{"json.Number", json.Number("123"), 123, true},
		{"string", "not a number", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toInt64(tt.value)
			if ok != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestToUint64(t *testing.T) {
	if v, ok := toUint64(int32(5)); !ok || v != 5 {
		t.Errorf("expected 5, got %d (%v)", v, ok)
	}
	if _, ok := toUint64(-1); ok {
		t.Error("expected negative int to fail")
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected float64
		ok       bool
	}{
		{"float64", 3.14, 3.14, true},
		{"float32", float32(2.5), 2.5, true},
		{"int", 42, 42.0, true},
		{"int16", int16(-3), -3.0, true},
		{"json.Number", json.Number("1.5"), 1.5, true},
		{"string", "not a number", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toFloat64(tt.value)
			if ok != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"string", "hello", "hello"},
		{"bytes", []byte("world"), "world"},
		{"int", 42, "42"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
		{"map", map[string]interface{}{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toString(tt.value)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}
