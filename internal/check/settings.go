package check

import (
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Kind names a primitive type class a TypeSetting can require.
type Kind string

const (
	KindAny      Kind = "any"
	KindNull     Kind = "null"
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindFunction Kind = "function"
	KindInstance Kind = "instance"
)

var kindAliases = map[string]Kind{
	"any":       KindAny,
	"null":      KindNull,
	"undefined": KindNull,
	"string":    KindString,
	"number":    KindNumber,
	"boolean":   KindBoolean,
	"bool":      KindBoolean,
	"object":    KindObject,
	"array":     KindArray,
	"function":  KindFunction,
}

// TypeSetting requires values of a primitive kind, or, for KindInstance,
// values whose dynamic type is assignable to Instance.
type TypeSetting struct {
	Kind     Kind
	Instance reflect.Type
}

// NormalizeType accepts a kind name, a reflect.Type or nil (any non-nil
// value).
func NormalizeType(raw any) (TypeSetting, error) {
	switch v := raw.(type) {
	case nil:
		return TypeSetting{Kind: KindAny}, nil
	case TypeSetting:
		return v, nil
	case Kind:
		return NormalizeType(string(v))
	case string:
		kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(v))]
		if !ok {
			return TypeSetting{}, Configf("unknown type %q", v)
		}
		return TypeSetting{Kind: kind}, nil
	case reflect.Type:
		return TypeSetting{Kind: KindInstance, Instance: v}, nil
	default:
		return TypeSetting{}, Configf("type must be a type name or reflect.Type, got %T", raw)
	}
}

// Matches reports whether value satisfies the setting.
func (t TypeSetting) Matches(value any) bool {
	if t.Kind == KindNull {
		return value == nil
	}
	if value == nil {
		return false
	}
	rt := reflect.TypeOf(value)
	switch t.Kind {
	case KindAny:
		return true
	case KindString:
		return rt.Kind() == reflect.String
	case KindNumber:
		_, ok := AsFloat(value)
		return ok
	case KindBoolean:
		return rt.Kind() == reflect.Bool
	case KindObject:
		if rt.Kind() == reflect.Pointer {
			rt = rt.Elem()
		}
		return rt.Kind() == reflect.Map || rt.Kind() == reflect.Struct
	case KindArray:
		return rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array
	case KindFunction:
		return rt.Kind() == reflect.Func
	case KindInstance:
		if t.Instance == nil {
			return false
		}
		return rt.AssignableTo(t.Instance)
	default:
		return false
	}
}

// NumberSetting is a single numeric bound.
type NumberSetting struct {
	Value float64
}

// NormalizeNumber accepts any Go numeric value except NaN.
func NormalizeNumber(raw any) (NumberSetting, error) {
	if s, ok := raw.(NumberSetting); ok {
		return s, nil
	}
	f, ok := AsFloat(raw)
	if !ok {
		return NumberSetting{}, Configf("bound must be a number, got %T", raw)
	}
	if math.IsNaN(f) {
		return NumberSetting{}, Configf("bound must not be NaN")
	}
	return NumberSetting{Value: f}, nil
}

// RangeSetting is an inclusive numeric interval.
type RangeSetting struct {
	Min float64
	Max float64
}

// NormalizeRange accepts a two-element list (in either order) or a mapping
// with min and max keys where max >= min.
func NormalizeRange(raw any) (RangeSetting, error) {
	if s, ok := raw.(RangeSetting); ok {
		if s.Max < s.Min {
			return RangeSetting{}, Configf("range max %v is below min %v", s.Max, s.Min)
		}
		return s, nil
	}
	if items, ok := listItems(raw); ok {
		if len(items) != 2 {
			return RangeSetting{}, Configf("range list needs exactly 2 bounds, got %d", len(items))
		}
		lo, err := NormalizeNumber(items[0])
		if err != nil {
			return RangeSetting{}, err
		}
		hi, err := NormalizeNumber(items[1])
		if err != nil {
			return RangeSetting{}, err
		}
		return RangeSetting{Min: math.Min(lo.Value, hi.Value), Max: math.Max(lo.Value, hi.Value)}, nil
	}
	if m, ok := stringMap(raw); ok {
		minRaw, hasMin := m["min"]
		maxRaw, hasMax := m["max"]
		if !hasMin || !hasMax {
			return RangeSetting{}, Configf("range mapping needs min and max")
		}
		lo, err := NormalizeNumber(minRaw)
		if err != nil {
			return RangeSetting{}, err
		}
		hi, err := NormalizeNumber(maxRaw)
		if err != nil {
			return RangeSetting{}, err
		}
		if hi.Value < lo.Value {
			return RangeSetting{}, Configf("range max %v is below min %v", hi.Value, lo.Value)
		}
		return RangeSetting{Min: lo.Value, Max: hi.Value}, nil
	}
	return RangeSetting{}, Configf("range must be a [min, max] list or {min, max} mapping, got %T", raw)
}

// Violation returns "min" or "max" for the bound n breaks, or "" when n
// lies within the range. NaN breaks neither bound.
func (r RangeSetting) Violation(n float64) string {
	switch {
	case n < r.Min:
		return "min"
	case n > r.Max:
		return "max"
	default:
		return ""
	}
}

// ListSetting is a membership list.
type ListSetting struct {
	Items []any
}

// NormalizeList accepts any slice or array.
func NormalizeList(raw any) (ListSetting, error) {
	if s, ok := raw.(ListSetting); ok {
		return s, nil
	}
	items, ok := listItems(raw)
	if !ok {
		return ListSetting{}, Configf("member list must be a list, got %T", raw)
	}
	return ListSetting{Items: items}, nil
}

// Contains reports whether value equals one of the items.
func (l ListSetting) Contains(value any) bool {
	for _, item := range l.Items {
		if Equal(item, value) {
			return true
		}
	}
	return false
}

// PatternSetting combines regular expressions: every All entry and at least
// one Any entry must match. Empty groups are not configured.
type PatternSetting struct {
	All []*regexp.Regexp
	Any []*regexp.Regexp
}

// NormalizePattern accepts a pattern reference, a list of references, or a
// mapping with "all" and/or "any" keys holding one reference or a list. A
// reference is a *regexp.Regexp, a registered pattern name, or a literal
// expression written between slashes ("/^a+$/").
func NormalizePattern(raw any, patterns *Registry[*regexp.Regexp]) (PatternSetting, error) {
	if s, ok := raw.(PatternSetting); ok {
		if len(s.All) == 0 && len(s.Any) == 0 {
			return PatternSetting{}, Configf("empty pattern configuration")
		}
		return s, nil
	}
	groups := map[string]any{}
	if m, ok := stringMap(raw); ok {
		if len(m) == 0 {
			return PatternSetting{}, Configf("empty pattern configuration")
		}
		groups = m
	} else {
		groups["all"] = raw
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var out PatternSetting
	for _, op := range keys {
		if op != "all" && op != "any" {
			return PatternSetting{}, Configf("invalid pattern operator %q", op)
		}
		refs, ok := listItems(groups[op])
		if !ok {
			refs = []any{groups[op]}
		}
		if len(refs) == 0 {
			return PatternSetting{}, Configf("empty pattern operator %q", op)
		}
		compiled := make([]*regexp.Regexp, 0, len(refs))
		for _, ref := range refs {
			re, err := resolvePattern(ref, patterns)
			if err != nil {
				return PatternSetting{}, err
			}
			compiled = append(compiled, re)
		}
		if op == "all" {
			out.All = compiled
		} else {
			out.Any = compiled
		}
	}
	return out, nil
}

// Matches applies the combined expressions to the textual form of value.
func (p PatternSetting) Matches(text string) bool {
	for _, re := range p.All {
		if !re.MatchString(text) {
			return false
		}
	}
	if len(p.Any) == 0 {
		return true
	}
	for _, re := range p.Any {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func resolvePattern(ref any, patterns *Registry[*regexp.Regexp]) (*regexp.Regexp, error) {
	switch v := ref.(type) {
	case *regexp.Regexp:
		if v == nil {
			return nil, Configf("nil pattern")
		}
		return v, nil
	case string:
		if len(v) >= 2 && strings.HasPrefix(v, "/") && strings.HasSuffix(v, "/") {
			re, err := regexp.Compile(v[1 : len(v)-1])
			if err != nil {
				return nil, &ConfigurationError{Reason: "invalid literal pattern " + v, Err: err}
			}
			return re, nil
		}
		if patterns != nil {
			if re, ok := patterns.Lookup(v); ok {
				return re, nil
			}
		}
		return nil, Configf("unknown pattern %q", v)
	default:
		return nil, Configf("pattern must be a name or regular expression, got %T", ref)
	}
}

func listItems(raw any) ([]any, bool) {
	if raw == nil {
		return nil, false
	}
	if items, ok := raw.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func stringMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]float64:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]int:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string][]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}
