package builtin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
)

// Definitions returns the stock check definitions. required and type are
// fatal: once either fails, nothing further can be said about the value.
func Definitions() []check.Definition {
	return []check.Definition{
		{Name: "required", Description: "value must be defined", Fatal: true, Factory: newRequired},
		{Name: "type", Description: "value must be of a kind or type", Requires: []string{"required"}, Fatal: true, Factory: newType},
		{Name: "min", Description: "number, length or size lower bound", Requires: []string{"type"}, Factory: newMin},
		{Name: "max", Description: "number, length or size upper bound", Requires: []string{"type"}, Factory: newMax},
		{Name: "range", Description: "number, length or size within [min, max]", Requires: []string{"type"}, Factory: newRange},
		{Name: "identical", Description: "value must be the very same value", Requires: []string{"required"}, Factory: newIdentical},
		{Name: "equal", Description: "value must deeply equal the expected value", Requires: []string{"required"}, Factory: newEqual},
		{Name: "member", Description: "value must be one of a list", Requires: []string{"required"}, Factory: newMember},
		{Name: "match", Description: "value must match named or literal patterns", Requires: []string{"type"}, Factory: newMatch},
		{Name: "duplicate", Description: "value must equal another attribute", Requires: []string{"required"}, Factory: newDuplicate},
	}
}

// Register installs the stock definitions and patterns into cat.
func Register(cat *check.Catalogue) error {
	for _, def := range Definitions() {
		if err := cat.Register(def); err != nil {
			return err
		}
	}
	for name, re := range Patterns() {
		if err := cat.RegisterPattern(name, re); err != nil {
			return err
		}
	}
	return nil
}

// Catalogue returns a fresh catalogue holding the stock checks.
func Catalogue() *check.Catalogue {
	cat := check.NewCatalogue()
	if err := Register(cat); err != nil {
		panic(err)
	}
	return cat
}

func newRequired(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	required := truthy(raw)
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		switch {
		case value != nil:
			done(nil)
		case required:
			done(true)
		default:
			done(nil, check.Meta{Abort: true})
		}
	}), nil
}

func newType(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	setting, err := check.NormalizeType(raw)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(!setting.Matches(value))
	}), nil
}

func newMin(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	bound, err := check.NormalizeNumber(raw)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(check.Magnitude(value) < bound.Value)
	}), nil
}

func newMax(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	bound, err := check.NormalizeNumber(raw)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(check.Magnitude(value) > bound.Value)
	}), nil
}

func newRange(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	setting, err := check.NormalizeRange(raw)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		if bound := setting.Violation(check.Magnitude(value)); bound != "" {
			done(bound)
			return
		}
		done(nil)
	}), nil
}

func newIdentical(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(!identical(value, raw))
	}), nil
}

func newEqual(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(!check.Equal(value, raw))
	}), nil
}

func newMember(raw any, _ check.BuildEnv) (check.Evaluator, error) {
	list, err := check.NormalizeList(raw)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(!list.Contains(value))
	}), nil
}

func newMatch(raw any, env check.BuildEnv) (check.Evaluator, error) {
	setting, err := check.NormalizePattern(raw, env.Patterns)
	if err != nil {
		return nil, err
	}
	return check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		text, ok := value.(string)
		if !ok {
			text = fmt.Sprint(value)
		}
		done(!setting.Matches(text))
	}), nil
}

func newDuplicate(raw any, env check.BuildEnv) (check.Evaluator, error) {
	other, ok := raw.(string)
	other = strings.TrimSpace(other)
	if !ok || other == "" {
		return nil, check.Configf("duplicate needs the name of another attribute, got %T", raw)
	}
	if other == env.Field {
		return nil, check.Configf("duplicate cannot reference its own field")
	}
	if env.Relate != nil {
		env.Relate(other)
	}
	return check.EvaluatorFunc(func(value any, attrs record.Attributes, done check.Completion) {
		done(!check.Equal(attrs[other], value))
	}), nil
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := check.AsFloat(raw); ok {
		return f != 0
	}
	return true
}

// identical is reference equality: comparable values compare with ==,
// reference kinds compare by the address they point at.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}
