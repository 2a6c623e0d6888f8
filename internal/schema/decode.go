package schema

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/fieldcheck/internal/validation"
)

// Parse decodes a schema from YAML (or JSON) bytes, keeping the declaration
// order of fields and of each field's checks.
func Parse(data []byte) (Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Schema{}, fmt.Errorf("schema: payload is empty")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Schema{}, fmt.Errorf("schema: decode: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return Schema{}, fmt.Errorf("schema: line %d: top level must be a mapping", root.Line)
	}

	var out Schema
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var err error
		switch key.Value {
		case "fields":
			out.Fields, err = decodeFields(value)
		case "relations":
			out.Relations, err = decodeRelations(value)
		case "patterns":
			out.Patterns = map[string]string{}
			err = value.Decode(&out.Patterns)
		default:
			err = fmt.Errorf("line %d: unknown key %q", key.Line, key.Value)
		}
		if err != nil {
			return Schema{}, fmt.Errorf("schema: %s: %w", key.Value, err)
		}
	}
	if err := out.Validate(); err != nil {
		return Schema{}, err
	}
	return out, nil
}

func decodeFields(node *yaml.Node) ([]validation.FieldSpec, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of field names", node.Line)
	}
	fields := make([]validation.FieldSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i], node.Content[i+1]
		field := validation.FieldSpec{Name: name.Value}
		switch {
		case body.Kind == yaml.ScalarNode && body.Tag == "!!null":
		case body.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(body.Content); j += 2 {
				checkName, raw := body.Content[j], body.Content[j+1]
				var config any
				if err := raw.Decode(&config); err != nil {
					return nil, fmt.Errorf("field %s check %s: %w", name.Value, checkName.Value, err)
				}
				field.Checks = append(field.Checks, validation.CheckSpec{Name: checkName.Value, Config: config})
			}
		default:
			return nil, fmt.Errorf("line %d: field %s must map check names to configuration", body.Line, name.Value)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func decodeRelations(node *yaml.Node) (validation.Relations, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of attribute names", node.Line)
	}
	rel := validation.Relations{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		source, targets := node.Content[i], node.Content[i+1]
		switch targets.Kind {
		case yaml.ScalarNode:
			rel.Add(source.Value, targets.Value)
		case yaml.SequenceNode:
			var list []string
			if err := targets.Decode(&list); err != nil {
				return nil, fmt.Errorf("%s: %w", source.Value, err)
			}
			rel.Add(source.Value, list...)
		default:
			return nil, fmt.Errorf("line %d: %s must list field names", targets.Line, source.Value)
		}
	}
	return rel, nil
}
