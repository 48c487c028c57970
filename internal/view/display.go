package view

import (
	"strings"

	"dataviews/internal/domain"
)

// Badge is a coloured label for a select or multiSelect value.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// Cell is the display form of one field value inside a grid row.
type Cell struct {
	FieldID string           `json:"fieldId"`
	Type    domain.FieldType `json:"type"`
	Text    string           `json:"text,omitempty"`
	Badges  []Badge          `json:"badges,omitempty"`
	Checked bool             `json:"checked,omitempty"`
	Empty   bool             `json:"empty"`
}

// RenderCell formats a raw value for a grid cell according to its field type.
func RenderCell(field domain.FieldSchema, value any, loc Locale) Cell {
	c := Cell{FieldID: field.ID, Type: field.Type}
	switch field.Type {
	case domain.FieldCheckbox:
		c.Checked = truthy(value)
		c.Text = loc.YesNo(c.Checked)
		return c
	case domain.FieldSelect:
		if !truthy(value) {
			c.Empty = true
			return c
		}
		c.Badges = []Badge{optionBadge(field, stringify(value))}
		c.Text = c.Badges[0].Label
		return c
	case domain.FieldMultiSelect:
		for _, v := range stringList(value) {
			c.Badges = append(c.Badges, optionBadge(field, v))
		}
		c.Empty = len(c.Badges) == 0
		return c
	case domain.FieldDate:
		if !truthy(value) {
			c.Empty = true
			return c
		}
		if t, ok := parseDate(value); ok {
			c.Text = loc.FormatDate(t)
		} else {
			c.Text = stringify(value)
		}
		return c
	case domain.FieldNumber:
		if value == nil {
			c.Empty = true
			return c
		}
		if f, ok := toNumber(value); ok {
			c.Text = loc.FormatNumber(f)
		} else {
			c.Text = stringify(value)
		}
		return c
	case domain.FieldText:
		c.Text = stringify(value)
	default:
		c.Text = stringify(value)
	}
	c.Empty = c.Text == ""
	return c
}

func optionBadge(field domain.FieldSchema, name string) Badge {
	b := Badge{Label: name}
	if opt, ok := field.Option(name); ok {
		b.Color = opt.Color
	}
	return b
}

// DisplayField is a labelled, pre-formatted value on a card.
type DisplayField struct {
	FieldID string           `json:"fieldId"`
	Name    string           `json:"name"`
	Type    domain.FieldType `json:"type"`
	Text    string           `json:"text"`
	Color   string           `json:"color,omitempty"`
}

// cardField formats a value for a gallery or kanban card. Blank values are
// dropped rather than rendered as empty rows.
func cardField(field domain.FieldSchema, value any, loc Locale) (DisplayField, bool) {
	if isBlank(value) {
		return DisplayField{}, false
	}
	d := DisplayField{FieldID: field.ID, Name: field.Name, Type: field.Type}
	if field.Type == domain.FieldSelect {
		b := optionBadge(field, stringify(value))
		d.Text, d.Color = b.Label, b.Color
		return d, true
	}
	switch v := value.(type) {
	case []any, []string:
		d.Text = strings.Join(stringList(v), ", ")
	case bool:
		d.Text = loc.YesNo(v)
	default:
		if field.Type == domain.FieldDate {
			if t, ok := parseDate(value); ok {
				d.Text = loc.FormatDate(t)
				return d, true
			}
		}
		d.Text = stringify(value)
	}
	return d, true
}

// recordTitle is the primary field's value, or the localized placeholder.
func recordTitle(schema *domain.TableSchema, r domain.Record, loc Locale) string {
	primary, ok := schema.PrimaryField()
	if !ok {
		return loc.Untitled()
	}
	if t := stringify(r.Value(primary.ID)); t != "" {
		return t
	}
	return loc.Untitled()
}
