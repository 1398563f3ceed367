// Package validation checks form fields against named rule tables.
package validation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Schema names used by the forms.
const (
	SchemaProductList = "productList"
	SchemaNewList     = "newList"
)

// ErrInvalidSchema is returned when a rule table cannot be used.
var ErrInvalidSchema = errors.New("invalid validation schema")

//go:embed schemas.yaml
var defaultSchemas []byte

// Rule checks one field with a validator tag expression.
type Rule struct {
	Field   string `yaml:"field" json:"field"`
	Tag     string `yaml:"tag" json:"tag"`
	Message string `yaml:"message" json:"message"`
}

// Table maps schema names to their ordered rules.
type Table struct {
	Schemas map[string][]Rule `yaml:"schemas" json:"schemas"`
}

// Names returns the schema names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Schemas))
	for name := range t.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTable returns the built-in rule table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultSchemas)
	if err != nil {
		panic(fmt.Sprintf("embedded schemas: %v", err))
	}
	return t
}

// LoadTable reads a rule table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema file %s: %w", path, err)
	}

	return t, nil
}

// ParseTable decodes a YAML rule table and checks its shape. Tags are
// checked later, when a Validator is built from the table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	if len(t.Schemas) == 0 {
		return nil, fmt.Errorf("%w: no schemas defined", ErrInvalidSchema)
	}

	for name, rules := range t.Schemas {
		if len(rules) == 0 {
			return nil, fmt.Errorf("%w: schema %q has no rules", ErrInvalidSchema, name)
		}
		for i, r := range rules {
			if r.Field == "" || r.Tag == "" {
				return nil, fmt.Errorf("%w: schema %q rule %d needs field and tag", ErrInvalidSchema, name, i)
			}
		}
	}

	return &t, nil
}
