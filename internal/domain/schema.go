package domain

import "fmt"

// FieldType defines the data type of a table field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiSelect"
	FieldDate        FieldType = "date"
	FieldCheckbox    FieldType = "checkbox"
)

// FieldTypes lists every supported field type in declaration order.
var FieldTypes = []FieldType{
	FieldText, FieldNumber, FieldSelect, FieldMultiSelect, FieldDate, FieldCheckbox,
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldMultiSelect, FieldDate, FieldCheckbox:
		return true
	}
	return false
}

// FieldOption is one choice of a select or multiSelect field.
// Records store the option Name, not its ID.
type FieldOption struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// FieldSchema describes one typed field of a table.
type FieldSchema struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Type      FieldType     `json:"type" yaml:"type"`
	IsPrimary bool          `json:"isPrimary,omitempty" yaml:"isPrimary,omitempty"`
	Options   []FieldOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the first option whose name matches.
func (f FieldSchema) Option(name string) (FieldOption, bool) {
	for _, o := range f.Options {
		if o.Name == name {
			return o, true
		}
	}
	return FieldOption{}, false
}

// TableSchema is the declarative description driving every view.
type TableSchema struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Icon   string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Fields []FieldSchema `json:"fields" yaml:"fields"`
}

// Field looks up a field by id.
func (s *TableSchema) Field(id string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// PrimaryField returns the first field flagged primary, falling back to the
// first field. ok is false only for a schema without fields.
func (s *TableSchema) PrimaryField() (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.IsPrimary {
			return f, true
		}
	}
	if len(s.Fields) == 0 {
		return FieldSchema{}, false
	}
	return s.Fields[0], true
}

// SelectField returns the first select-typed field (the kanban grouping key).
func (s *TableSchema) SelectField() (FieldSchema, bool) {
	return s.firstOfType(FieldSelect)
}

// DateField returns the first date-typed field (the calendar bucketing key).
func (s *TableSchema) DateField() (FieldSchema, bool) {
	return s.firstOfType(FieldDate)
}

func (s *TableSchema) firstOfType(t FieldType) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Type == t {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Validate checks that field ids are present and unique and that every
// field has a known type. Option ids must be present and unique within
// their field since kanban columns are addressed by them. Option lists
// are not checked against record values.
func (s *TableSchema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q has no fields", s.ID)
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.ID == "" {
			return fmt.Errorf("field %d: missing id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("field %q: duplicate id", f.ID)
		}
		seen[f.ID] = true
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.ID, f.Type)
		}
		optionIDs := make(map[string]bool, len(f.Options))
		for j, o := range f.Options {
			if o.ID == "" {
				return fmt.Errorf("field %q: option %d: missing id", f.ID, j)
			}
			if optionIDs[o.ID] {
				return fmt.Errorf("field %q: option %q: duplicate id", f.ID, o.ID)
			}
			optionIDs[o.ID] = true
		}
	}
	return nil
}
