package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"

	"github.com/sqlio/sqlio/core"
)

// uniqueNames suffixes repeated column names with _1, _2, ... so every column
// of a frame can be addressed by name.
func uniqueNames(header core.Header) []string {
	seen := make(map[string]int, len(header))
	for _, name := range header {
		seen[name] = 0
	}

	names := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	for i, name := range header {
		candidate := name
		for {
			if _, ok := used[candidate]; !ok {
				break
			}
			seen[name]++
			candidate = fmt.Sprintf("%s_%d", name, seen[name])
		}
		used[candidate] = struct{}{}
		names[i] = candidate
	}
	return names
}

// ambiguousNames returns the frame names that don't refer to exactly one
// column of the source query: suffixed names and repeated source names.
func ambiguousNames(header core.Header, names []string) map[string]struct{} {
	counts := make(map[string]int, len(header))
	for _, name := range header {
		counts[name]++
	}

	out := make(map[string]struct{})
	for i, name := range header {
		if counts[name] > 1 {
			out[name] = struct{}{}
		}
		if names[i] != name {
			out[names[i]] = struct{}{}
		}
	}
	return out
}

// inferType returns the arrow type of a single driver value.
func inferType(v any) arrow.DataType {
	switch v.(type) {
	case nil:
		return arrow.Null
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return arrow.PrimitiveTypes.Int64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case []byte:
		return arrow.BinaryTypes.Binary
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func isNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32:
		return true
	}
	return false
}

// unifyTypes widens two column types: null yields to anything, int and float
// widen to float and every other mismatch becomes string.
func unifyTypes(a, b arrow.DataType) arrow.DataType {
	switch {
	case a.ID() == arrow.NULL:
		return b
	case b.ID() == arrow.NULL:
		return a
	case arrow.TypeEqual(a, b):
		return a
	case isNumeric(a) && isNumeric(b):
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// inferSchema derives the column types from sample rows.
func inferSchema(names []string, rows []core.Row) []arrow.DataType {
	types := make([]arrow.DataType, len(names))
	for i := range types {
		types[i] = arrow.Null
	}
	for _, row := range rows {
		for i := range types {
			if i >= len(row) {
				continue
			}
			types[i] = unifyTypes(types[i], inferType(row[i]))
		}
	}
	return types
}

// databaseType maps a driver reported type name to an arrow type.
func databaseType(name string) arrow.DataType {
	name = strings.ToUpper(name)
	switch {
	case name == "":
		return arrow.BinaryTypes.String
	case strings.Contains(name, "INT"):
		return arrow.PrimitiveTypes.Int64
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOAT"),
		strings.Contains(name, "DOUBLE"), strings.Contains(name, "DECIMAL"),
		strings.Contains(name, "NUMERIC"), strings.Contains(name, "NUMBER"):
		return arrow.PrimitiveTypes.Float64
	case strings.HasPrefix(name, "BOOL"), name == "BIT":
		return arrow.FixedWidthTypes.Boolean
	case strings.HasPrefix(name, "DATE"), strings.HasPrefix(name, "TIME"):
		return arrow.FixedWidthTypes.Timestamp_us
	case strings.Contains(name, "BLOB"), name == "BYTEA", strings.Contains(name, "BINARY"):
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

// supportedType reports whether frames can hold values of the type.
func supportedType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.NULL, arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32,
		arrow.BOOL, arrow.STRING, arrow.BINARY, arrow.TIMESTAMP, arrow.DATE32:
		return true
	}
	return false
}

// estimateRowBytes returns the mean in-memory size of the sample rows.
func estimateRowBytes(rows []core.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total int
	for _, row := range rows {
		for _, v := range row {
			total += valueSize(v)
		}
	}
	return float64(total) / float64(len(rows))
}

func valueSize(v any) int {
	switch v := v.(type) {
	case nil:
		return 0
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case string:
		return len(v)
	case []byte:
		return len(v)
	default:
		return 8
	}
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// exactInt returns v as an int64 only if v is an integer that fits without
// rounding. Floats are never converted.
func exactInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return i, true
		}
	}

	f, ok := toFloat64(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func toBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	i, ok := toInt64(v)
	return i != 0, ok
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	var s string
	switch v := v.(type) {
	case time.Time:
		return v, true
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func timestampOf(t time.Time, unit arrow.TimeUnit) arrow.Timestamp {
	switch unit {
	case arrow.Second:
		return arrow.Timestamp(t.Unix())
	case arrow.Millisecond:
		return arrow.Timestamp(t.UnixMilli())
	case arrow.Nanosecond:
		return arrow.Timestamp(t.UnixNano())
	default:
		return arrow.Timestamp(t.UnixMicro())
	}
}

// appendValue casts v to the builder's type and appends it.
func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	var ok bool
	switch b := b.(type) {
	case *array.NullBuilder:
		b.AppendNull()
		ok = true
	case *array.Int64Builder:
		var i int64
		if i, ok = toInt64(v); ok {
			b.Append(i)
		}
	case *array.Int32Builder:
		var i int64
		if i, ok = toInt64(v); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			b.Append(int32(i))
		} else {
			ok = false
		}
	case *array.Float64Builder:
		var f float64
		if f, ok = toFloat64(v); ok {
			b.Append(f)
		}
	case *array.Float32Builder:
		var f float64
		if f, ok = toFloat64(v); ok {
			b.Append(float32(f))
		}
	case *array.BooleanBuilder:
		var bl bool
		if bl, ok = toBool(v); ok {
			b.Append(bl)
		}
	case *array.StringBuilder:
		b.Append(toString(v))
		ok = true
	case *array.BinaryBuilder:
		switch v := v.(type) {
		case []byte:
			b.Append(v)
		default:
			b.Append([]byte(toString(v)))
		}
		ok = true
	case *array.TimestampBuilder:
		var t time.Time
		if t, ok = toTime(v); ok {
			b.Append(timestampOf(t, b.Type().(*arrow.TimestampType).Unit))
		}
	case *array.Date32Builder:
		var t time.Time
		if t, ok = toTime(v); ok {
			b.Append(arrow.Date32FromTime(t))
		}
	default:
		return fmt.Errorf("unsupported column type %s", b.Type())
	}

	if !ok {
		return fmt.Errorf("cannot cast %v (%T) to %s", v, v, b.Type())
	}
	return nil
}

// valueAt reads a go value back from an arrow array.
func valueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Binary:
		return append([]byte(nil), a.Value(i)...)
	case *array.Timestamp:
		return a.Value(i).ToTime(a.DataType().(*arrow.TimestampType).Unit)
	case *array.Date32:
		return a.Value(i).ToTime()
	default:
		return arr.ValueStr(i)
	}
}
