package check

import (
	"math"
	"reflect"
	"unicode/utf8"
)

// AsFloat converts any Go numeric kind to float64.
func AsFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// Magnitude maps a value onto the number bound checks compare: strings by
// rune count, slices and arrays by length, numbers as themselves. Anything
// else is NaN, which satisfies no comparison.
func Magnitude(v any) float64 {
	if s, ok := v.(string); ok {
		return float64(utf8.RuneCountInString(s))
	}
	if f, ok := AsFloat(v); ok {
		return f
	}
	if v == nil {
		return math.NaN()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return float64(rv.Len())
	default:
		return math.NaN()
	}
}

// Equal compares two attribute values. Numbers compare by value across Go
// numeric kinds; everything else uses reflect.DeepEqual.
func Equal(a, b any) bool {
	fa, okA := AsFloat(a)
	fb, okB := AsFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
