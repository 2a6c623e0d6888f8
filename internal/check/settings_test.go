package check

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeType(t *testing.T) {
	for _, name := range []string{"string", "number", "boolean", "object", "array", "function", "null", "undefined"} {
		_, err := NormalizeType(name)
		assert.NoError(t, err, name)
	}
	_, err := NormalizeType("widget")
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NormalizeType(42)
	assert.Error(t, err)

	s, err := NormalizeType(nil)
	require.NoError(t, err)
	assert.Equal(t, KindAny, s.Kind)

	s, err = NormalizeType(reflect.TypeOf((*error)(nil)).Elem())
	require.NoError(t, err)
	assert.True(t, s.Matches(fmt.Errorf("x")))
	assert.False(t, s.Matches("x"))
}

func TestTypeSettingMatches(t *testing.T) {
	cases := []struct {
		kind  Kind
		value any
		want  bool
	}{
		{KindString, "x", true},
		{KindString, 5, false},
		{KindNumber, 5, true},
		{KindNumber, uint8(5), true},
		{KindNumber, 5.5, true},
		{KindNumber, "5", false},
		{KindBoolean, true, true},
		{KindObject, map[string]any{}, true},
		{KindObject, &struct{}{}, true},
		{KindObject, []int{}, false},
		{KindArray, []int{}, true},
		{KindFunction, func() {}, true},
		{KindNull, nil, true},
		{KindNull, 0, false},
		{KindAny, 0, true},
		{KindAny, nil, false},
	}
	for _, tc := range cases {
		got := TypeSetting{Kind: tc.kind}.Matches(tc.value)
		assert.Equal(t, tc.want, got, "%s(%#v)", tc.kind, tc.value)
	}
}

func TestNormalizeNumber(t *testing.T) {
	s, err := NormalizeNumber(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Value)
	_, err = NormalizeNumber("3")
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NormalizeNumber(nil)
	assert.Error(t, err)
}

func TestNormalizeRange(t *testing.T) {
	s, err := NormalizeRange([]any{100, 3})
	require.NoError(t, err)
	assert.Equal(t, RangeSetting{Min: 3, Max: 100}, s)

	s, err = NormalizeRange(map[string]any{"min": 1, "max": 1})
	require.NoError(t, err)
	assert.Equal(t, RangeSetting{Min: 1, Max: 1}, s)

	for _, bad := range []any{
		[]any{1},
		[]any{"a", 1},
		map[string]any{"min": 100, "max": 1},
		map[string]any{"min": 1},
		"1-3",
	} {
		_, err := NormalizeRange(bad)
		assert.Error(t, err, "%#v", bad)
	}

	assert.Equal(t, "min", RangeSetting{Min: 2, Max: 4}.Violation(1))
	assert.Equal(t, "max", RangeSetting{Min: 2, Max: 4}.Violation(5))
	assert.Equal(t, "", RangeSetting{Min: 2, Max: 4}.Violation(4))
}

func TestNormalizeList(t *testing.T) {
	s, err := NormalizeList([]string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
	_, err = NormalizeList("a")
	assert.Error(t, err)

	nums, err := NormalizeList([]any{1, 2})
	require.NoError(t, err)
	assert.True(t, nums.Contains(2.0))
}

func TestNormalizePattern(t *testing.T) {
	patterns := NewRegistry(map[string]*regexp.Regexp{
		"digits": regexp.MustCompile(`^\d+$`),
		"short":  regexp.MustCompile(`^.{0,3}$`),
	})
	a := regexp.MustCompile(`a`)

	s, err := NormalizePattern("digits", patterns)
	require.NoError(t, err)
	assert.Len(t, s.All, 1)
	assert.True(t, s.Matches("123"))

	s, err = NormalizePattern([]any{"digits", "short"}, patterns)
	require.NoError(t, err)
	assert.True(t, s.Matches("123"))
	assert.False(t, s.Matches("1234"))

	s, err = NormalizePattern(map[string]any{"any": []any{a, "digits"}}, patterns)
	require.NoError(t, err)
	assert.True(t, s.Matches("bab"))
	assert.True(t, s.Matches("7"))
	assert.False(t, s.Matches("b"))

	s, err = NormalizePattern("/^x+$/", patterns)
	require.NoError(t, err)
	assert.True(t, s.Matches("xxx"))

	for _, bad := range []any{
		"test",
		[]any{},
		map[string]any{},
		map[string]any{"all": []any{}},
		map[string]any{"some": "digits"},
		"/(/",
		12,
	} {
		_, err := NormalizePattern(bad, patterns)
		assert.True(t, errors.Is(err, ErrConfiguration), "%#v: %v", bad, err)
	}
}
