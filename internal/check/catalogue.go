package check

import (
	"fmt"
	"regexp"
)

// Catalogue pairs the check registry with the named pattern registry that
// pattern-based checks resolve against.
type Catalogue struct {
	checks   *Registry[Definition]
	patterns *Registry[*regexp.Regexp]
}

// Pack is a set of overrides applied when branching a catalogue.
type Pack struct {
	Checks   []Definition
	Patterns map[string]*regexp.Regexp
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		checks:   NewRegistry[Definition](nil),
		patterns: NewRegistry[*regexp.Regexp](nil),
	}
}

// Register installs a check definition on the catalogue's top layer.
func (c *Catalogue) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	return c.checks.Register(def.Name, def)
}

// MustRegister panics if registration fails.
func (c *Catalogue) MustRegister(def Definition) {
	if err := c.Register(def); err != nil {
		panic(err)
	}
}

// RegisterPattern installs a named regular expression.
func (c *Catalogue) RegisterPattern(name string, re *regexp.Regexp) error {
	if re == nil {
		return fmt.Errorf("check: pattern %s is nil", name)
	}
	return c.patterns.Register(name, re)
}

// Check resolves a check definition.
func (c *Catalogue) Check(name string) (Definition, bool) {
	return c.checks.Lookup(name)
}

// Pattern resolves a named pattern.
func (c *Catalogue) Pattern(name string) (*regexp.Regexp, bool) {
	return c.patterns.Lookup(name)
}

// CheckNames lists every resolvable check.
func (c *Catalogue) CheckNames() []string {
	return c.checks.Names()
}

// PatternNames lists every resolvable pattern.
func (c *Catalogue) PatternNames() []string {
	return c.patterns.Names()
}

// Patterns exposes the pattern registry to check factories.
func (c *Catalogue) Patterns() *Registry[*regexp.Regexp] {
	return c.patterns
}

// Branch derives a catalogue with pack layered over everything c resolves.
// c itself is left untouched.
func (c *Catalogue) Branch(pack Pack) (*Catalogue, error) {
	checks := make(map[string]Definition, len(pack.Checks))
	for _, def := range pack.Checks {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := checks[def.Name]; dup {
			return nil, fmt.Errorf("check: %s defined twice in pack", def.Name)
		}
		checks[def.Name] = def
	}
	for name, re := range pack.Patterns {
		if re == nil {
			return nil, fmt.Errorf("check: pattern %s is nil", name)
		}
	}
	return &Catalogue{
		checks:   c.checks.Branch(checks),
		patterns: c.patterns.Branch(pack.Patterns),
	}, nil
}

// Clone returns an independent copy of the catalogue.
func (c *Catalogue) Clone() *Catalogue {
	return &Catalogue{checks: c.checks.Clone(), patterns: c.patterns.Clone()}
}

// Env builds the BuildEnv a factory receives for field.
func (c *Catalogue) Env(field string, relate func(source string)) BuildEnv {
	return BuildEnv{Field: field, Patterns: c.patterns, Relate: relate}
}
