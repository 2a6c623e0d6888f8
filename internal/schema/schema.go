// Package schema decodes declarative field schemas. A schema lists fields
// in order, each with an ordered mapping of check names to configuration,
// plus optional relations and extra named patterns:
//
//	fields:
//	  password:
//	    min: 8
//	  confirm:
//	    duplicate: password
//	  zip:
//	    match: zip
//	relations:
//	  country: [zip]
//	patterns:
//	  zip: '^\d{5}$'
package schema

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/validation"
)

// Schema is a decoded field schema.
type Schema struct {
	Fields    []validation.FieldSpec
	Relations validation.Relations
	Patterns  map[string]string
}

// Field returns the spec of name.
func (s Schema) Field(name string) (validation.FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return validation.FieldSpec{}, false
}

// FieldNames lists the fields in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate ensures the schema declares at least one field.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema: at least one field is required")
	}
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// Catalogue derives a catalogue from base that also resolves the schema's
// patterns. base is returned as-is when the schema declares none.
func (s Schema) Catalogue(base *check.Catalogue) (*check.Catalogue, error) {
	if len(s.Patterns) == 0 {
		return base, nil
	}
	names := make([]string, 0, len(s.Patterns))
	for name := range s.Patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	compiled := make(map[string]*regexp.Regexp, len(names))
	for _, name := range names {
		re, err := regexp.Compile(s.Patterns[name])
		if err != nil {
			return nil, fmt.Errorf("schema: pattern %s: %w", name, err)
		}
		compiled[name] = re
	}
	return base.Branch(check.Pack{Patterns: compiled})
}

// Options returns the validation options the schema implies: its relations
// and a catalogue carrying its patterns.
func (s Schema) Options(base *check.Catalogue) ([]validation.Option, error) {
	cat, err := s.Catalogue(base)
	if err != nil {
		return nil, err
	}
	return []validation.Option{
		validation.WithCatalogue(cat),
		validation.WithRelations(s.Relations),
	}, nil
}
