package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/fieldcheck/internal/record"
)

// LoadReader reads a schema from r.
func LoadReader(r io.Reader) (Schema, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read: %w", err)
	}
	return Parse(content)
}

// LoadFile loads a schema from path.
func LoadFile(path string) (Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	s, parseErr := Parse(content)
	if parseErr != nil {
		return Schema{}, fmt.Errorf("%s: %w", path, parseErr)
	}
	return s, nil
}

// ParseAttributes decodes a record document: a YAML or JSON mapping of
// attribute names to values. An empty document is an empty record.
func ParseAttributes(data []byte) (record.Attributes, error) {
	var attrs map[string]any
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	return record.Attributes(attrs).Clone(), nil
}

// LoadAttributesFile reads a record document from path, or from stdin when
// path is "-".
func LoadAttributesFile(path string) (record.Attributes, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("record: read %s: %w", path, err)
	}
	return ParseAttributes(content)
}

// ParseScalar types a single value the way a record document would: numbers,
// booleans and null become Go values, anything else stays a string. Blank
// input is undefined.
func ParseScalar(text string) any {
	if text == "" {
		return nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(text), &value); err != nil {
		return text
	}
	switch value.(type) {
	case map[string]any, []any:
		return text
	}
	return value
}
