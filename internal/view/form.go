package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"dataviews/internal/domain"
)

// ErrReadOnly is returned when a view-mode form is edited or submitted.
var ErrReadOnly = errors.New("form is read-only")

// FormMode selects how the record editor behaves.
type FormMode string

const (
	ModeAdd  FormMode = "add"
	ModeEdit FormMode = "edit"
	ModeView FormMode = "view"
)

// ParseFormMode validates a mode string.
func ParseFormMode(s string) (FormMode, error) {
	switch m := FormMode(s); m {
	case ModeAdd, ModeEdit, ModeView:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown form mode: %q", domain.ErrBadInput, s)
}

// ControlKind is the input widget a field renders as.
type ControlKind string

const (
	ControlText        ControlKind = "text"
	ControlTextArea    ControlKind = "textarea"
	ControlNumber      ControlKind = "number"
	ControlDate        ControlKind = "date"
	ControlCheckbox    ControlKind = "checkbox"
	ControlSelect      ControlKind = "select"
	ControlMultiSelect ControlKind = "multiSelect"
)

// ControlFor picks the control for a field. Description fields get a
// multi-line text area.
func ControlFor(f domain.FieldSchema) ControlKind {
	if f.ID == "description" || f.Type == domain.FieldText && strings.Contains(strings.ToLower(f.Name), "description") {
		return ControlTextArea
	}
	switch f.Type {
	case domain.FieldNumber:
		return ControlNumber
	case domain.FieldDate:
		return ControlDate
	case domain.FieldCheckbox:
		return ControlCheckbox
	case domain.FieldSelect:
		return ControlSelect
	case domain.FieldMultiSelect:
		return ControlMultiSelect
	}
	return ControlText
}

// FormControl is one rendered form input.
type FormControl struct {
	FieldID   string               `json:"fieldId"`
	Label     string               `json:"label"`
	Type      domain.FieldType     `json:"type"`
	Kind      ControlKind          `json:"kind"`
	IsPrimary bool                 `json:"isPrimary,omitempty"`
	ReadOnly  bool                 `json:"readOnly"`
	Value     any                  `json:"value"`
	Display   string               `json:"display,omitempty"`
	Badges    []Badge              `json:"badges,omitempty"`
	Options   []domain.FieldOption `json:"options,omitempty"`
}

// Form is a generic record editor generated from the schema. It never talks
// to a backend: Submit hands the values back to the caller.
type Form struct {
	schema *domain.TableSchema
	mode   FormMode
	values domain.Fields
}

// NewForm starts a form from initial values: a partial pre-fill in add mode,
// the record's fields in edit and view mode.
func NewForm(schema *domain.TableSchema, mode FormMode, initial domain.Fields) *Form {
	values := domain.Fields{}
	if initial != nil {
		values = initial.Clone()
	}
	return &Form{schema: schema, mode: mode, values: values}
}

// Mode returns the form's mode.
func (f *Form) Mode() FormMode { return f.mode }

// Values returns a copy of the current values.
func (f *Form) Values() domain.Fields { return f.values.Clone() }

// Set changes one field's value.
func (f *Form) Set(fieldID string, value any) error {
	if f.mode == ModeView {
		return ErrReadOnly
	}
	if _, ok := f.schema.Field(fieldID); !ok {
		return fmt.Errorf("%w: unknown field: %q", domain.ErrBadInput, fieldID)
	}
	f.values[fieldID] = value
	return nil
}

// Toggle adds or removes an option on a multiSelect field.
func (f *Form) Toggle(fieldID, option string) error {
	if f.mode == ModeView {
		return ErrReadOnly
	}
	field, ok := f.schema.Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: unknown field: %q", domain.ErrBadInput, fieldID)
	}
	if field.Type != domain.FieldMultiSelect {
		return fmt.Errorf("%w: field %q is not a multiSelect field", domain.ErrBadInput, fieldID)
	}
	selected := slices.Clone(stringList(f.values[fieldID]))
	if i := slices.Index(selected, option); i >= 0 {
		selected = slices.Delete(selected, i, i+1)
	} else {
		selected = append(selected, option)
	}
	list := make([]any, len(selected))
	for i, s := range selected {
		list[i] = s
	}
	f.values[fieldID] = list
	return nil
}

// Submit returns the field-value mapping to persist. In add mode every schema
// field is present, blank fields carrying their type's empty value.
func (f *Form) Submit() (domain.Fields, error) {
	if f.mode == ModeView {
		return nil, ErrReadOnly
	}
	out := f.values.Clone()
	if f.mode == ModeAdd {
		for _, field := range f.schema.Fields {
			if _, ok := out[field.ID]; !ok {
				out[field.ID] = emptyValue(field.Type)
			}
		}
	}
	return out, nil
}

func emptyValue(t domain.FieldType) any {
	switch t {
	case domain.FieldCheckbox:
		return false
	case domain.FieldMultiSelect:
		return []any{}
	}
	return ""
}

// Controls renders one control per schema field in declared order.
func (f *Form) Controls(loc Locale) []FormControl {
	readOnly := f.mode == ModeView
	controls := make([]FormControl, 0, len(f.schema.Fields))
	for _, field := range f.schema.Fields {
		value := f.values[field.ID]
		c := FormControl{
			FieldID:   field.ID,
			Label:     field.Name,
			Type:      field.Type,
			Kind:      ControlFor(field),
			IsPrimary: field.IsPrimary,
			ReadOnly:  readOnly,
			Value:     value,
		}
		switch c.Kind {
		case ControlSelect, ControlMultiSelect:
			c.Options = field.Options
		}
		if readOnly {
			presentReadOnly(&c, field, value, loc)
		}
		controls = append(controls, c)
	}
	return controls
}

// presentReadOnly fills the static presentation of a value.
func presentReadOnly(c *FormControl, field domain.FieldSchema, value any, loc Locale) {
	switch c.Kind {
	case ControlCheckbox:
		c.Display = loc.YesNo(truthy(value))
	case ControlSelect:
		if truthy(value) {
			b := optionBadge(field, stringify(value))
			c.Badges = []Badge{b}
			c.Display = b.Label
		}
	case ControlMultiSelect:
		for _, v := range stringList(value) {
			c.Badges = append(c.Badges, optionBadge(field, v))
		}
	default:
		c.Display = stringify(value)
	}
}
