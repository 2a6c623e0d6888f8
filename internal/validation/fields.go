package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/plan"
	"github.com/kingrea/fieldcheck/internal/runner"
)

// CheckSpec requests one check for a field with its raw configuration.
type CheckSpec struct {
	Name   string
	Config any
}

// FieldSpec lists the checks requested for a field, in order.
type FieldSpec struct {
	Name   string
	Checks []CheckSpec
}

// Names returns the requested check names in order.
func (f FieldSpec) Names() []string {
	names := make([]string, len(f.Checks))
	for i, c := range f.Checks {
		names[i] = c.Name
	}
	return names
}

// Config returns the configuration requested for name. Checks that only run
// as a prerequisite have no configuration.
func (f FieldSpec) Config(name string) (any, bool) {
	for _, c := range f.Checks {
		if c.Name == name {
			return c.Config, true
		}
	}
	return nil, false
}

// Validate ensures the field is named and requests each check at most once.
func (f FieldSpec) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("validation: field name is required")
	}
	seen := make(map[string]struct{}, len(f.Checks))
	for _, c := range f.Checks {
		if c.Name == "" {
			return fmt.Errorf("validation: field %s: empty check name", f.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("validation: field %s: check %s requested twice", f.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Relations maps an attribute to the fields that must be re-validated
// whenever it changes.
type Relations map[string][]string

// Add records that each target depends on source.
func (r Relations) Add(source string, targets ...string) {
	for _, target := range targets {
		if !containsString(r[source], target) {
			r[source] = append(r[source], target)
		}
	}
}

// Merge adds every edge of other.
func (r Relations) Merge(other Relations) {
	for source, targets := range other {
		r.Add(source, targets...)
	}
}

// Sources returns the related attributes in sorted order.
func (r Relations) Sources() []string {
	out := make([]string, 0, len(r))
	for source := range r {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// Closure returns start followed by every field reachable from it through
// the relation graph, breadth first, each name once.
func (r Relations) Closure(start []string) []string {
	seen := make(map[string]bool, len(start))
	queue := make([]string, 0, len(start))
	for _, name := range start {
		if !seen[name] {
			seen[name] = true
			queue = append(queue, name)
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, target := range r[queue[i]] {
			if !seen[target] {
				seen[target] = true
				queue = append(queue, target)
			}
		}
	}
	return queue
}

func (r Relations) clone() Relations {
	out := make(Relations, len(r))
	for source, targets := range r {
		out[source] = append([]string(nil), targets...)
	}
	return out
}

// compiled is the build-time product for one field.
type compiled struct {
	spec  FieldSpec
	plan  *plan.Plan
	steps []runner.Step
}

// compile resolves and configures every field. Check factories may declare
// relations, which are added to rel. All configuration errors are reported
// together.
func compile(fields []FieldSpec, cat *check.Catalogue, resolver *plan.Resolver, rel Relations, wrap EvaluatorWrapper) ([]compiled, error) {
	var errs []error
	seen := make(map[string]struct{}, len(fields))
	out := make([]compiled, 0, len(fields))
	for _, field := range fields {
		if err := field.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[field.Name]; dup {
			errs = append(errs, fmt.Errorf("validation: field %s configured twice", field.Name))
			continue
		}
		seen[field.Name] = struct{}{}

		p, err := resolver.Resolve(field.Names()...)
		if err != nil {
			errs = append(errs, fmt.Errorf("validation: field %s: %w", field.Name, err))
			continue
		}
		name := field.Name
		env := cat.Env(name, func(source string) { rel.Add(source, name) })
		steps := make([]runner.Step, 0, p.Len())
		var fieldErrs []error
		for _, step := range p.Steps {
			def, _ := cat.Check(step)
			raw, _ := field.Config(step)
			ev, err := def.Build(raw, env)
			if err != nil {
				fieldErrs = append(fieldErrs, err)
				continue
			}
			if wrap != nil {
				ev = wrap(name, step, ev)
			}
			steps = append(steps, runner.Step{Name: step, Fatal: def.Fatal, Evaluator: ev})
		}
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		out = append(out, compiled{spec: field, plan: p, steps: steps})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
