package model

import "sort"

// Schema describes a remote database: its title and typed properties.
type Schema struct {
	ID         string                    `json:"id" yaml:"id"`
	Title      string                    `json:"title" yaml:"title"`
	Properties map[string]SchemaProperty `json:"properties" yaml:"properties"`
}

// SchemaProperty is one column of a remote database.
type SchemaProperty struct {
	ID   string       `json:"id" yaml:"id"`
	Name string       `json:"name" yaml:"name"`
	Type PropertyKind `json:"type" yaml:"type"`
}

// PropertyNames returns the property names sorted alphabetically.
func (s Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TitleProperty returns the name of the title-kind property, if any.
func (s Schema) TitleProperty() (string, bool) {
	for _, name := range s.PropertyNames() {
		if s.Properties[name].Type == KindTitle {
			return name, true
		}
	}
	return "", false
}
