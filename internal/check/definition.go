package check

import (
	"fmt"
	"regexp"
)

// Factory configures a check for one field from its raw configuration.
// raw is nil when the check runs only as another check's prerequisite.
type Factory func(raw any, env BuildEnv) (Evaluator, error)

// BuildEnv is what a Factory may consult while configuring a check.
type BuildEnv struct {
	// Field is the name of the field being configured.
	Field string
	// Patterns resolves named regular expressions.
	Patterns *Registry[*regexp.Regexp]
	// Relate declares that Field must be re-validated whenever source
	// changes. It may be nil when relations are not collected.
	Relate func(source string)
}

// Definition registers a named check.
type Definition struct {
	Name        string
	Description string
	// Requires lists prerequisite checks in the order they should run.
	Requires []string
	// Fatal marks checks whose failure makes the remaining checks
	// meaningless. It only changes behaviour when failures are collected.
	Fatal   bool
	Factory Factory
}

// Validate ensures the definition is usable.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("check: name is required")
	}
	if d.Factory == nil {
		return fmt.Errorf("check: factory is required for %s", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Requires))
	for _, dep := range d.Requires {
		if dep == "" {
			return fmt.Errorf("check: %s has an empty prerequisite", d.Name)
		}
		if _, dup := seen[dep]; dup {
			return fmt.Errorf("check: %s has duplicate prerequisite %s", d.Name, dep)
		}
		seen[dep] = struct{}{}
	}
	return nil
}

// Build configures the check for env.Field.
func (d Definition) Build(raw any, env BuildEnv) (Evaluator, error) {
	ev, err := d.Factory(raw, env)
	if err != nil {
		return nil, WithContext(err, env.Field, d.Name)
	}
	if ev == nil {
		return nil, &ConfigurationError{Field: env.Field, Check: d.Name, Reason: "factory returned no evaluator"}
	}
	return ev, nil
}
