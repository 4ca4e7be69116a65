package boundary

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// describe names the dynamic kind of v for mismatch messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

// asUint returns v as an unsigned integer no larger than max. Floats must be
// integral.
func asUint(v any, max uint64) (uint64, bool) {
	if u, ok := toUint64(v); ok {
		return u, u <= max
	}
	if i, ok := toInt64(v); ok {
		return uint64(i), i >= 0 && uint64(i) <= max
	}
	switch x := v.(type) {
	case float32:
		return floatToUint(float64(x), max)
	case float64:
		return floatToUint(x, max)
	case json.Number:
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u, u <= max
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToUint(f, max)
	}
	return 0, false
}

func floatToUint(f float64, max uint64) (uint64, bool) {
	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) || f > float64(max) {
		return 0, false
	}
	return uint64(f), true
}

// asFloat32 returns v as an f32. Every number, integer or float, is rounded
// to the nearest float32 and must lie within float32 range; NaN and
// infinities pass through. Every 64-bit integer is within range.
func asFloat32(v any) (float32, bool) {
	if i, ok := toInt64(v); ok {
		return float32(i), true
	}
	if u, ok := toUint64(v); ok {
		return float32(u), true
	}
	var f float64
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, false
	}
	return float32(f), true
}
