package etl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dataviews/internal/domain"
)

// ── Transformer ────────────────────────────────────────────
// Transformers modify rows in-flight between source and table.
// Each takes a row and returns a (possibly modified) row and whether to keep it.

// Transformer processes a single row.
type Transformer interface {
	Transform(Row) (Row, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Row) (Row, bool)

func (f TransformerFunc) Transform(r Row) (Row, bool) { return f(r) }

// ApplyTransformers runs r through ts in order, stopping at the first drop.
func ApplyTransformers(r Row, ts []Transformer) (Row, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// ── Schema transforms ──────────────────────────────────────

// MapFieldsTransform renames source columns to field ids. A column matches a
// field by id, or by name ignoring case and surrounding spaces. Columns that
// match nothing are dropped.
type MapFieldsTransform struct {
	byKey map[string]string
}

func NewMapFieldsTransform(schema *domain.TableSchema) *MapFieldsTransform {
	t := &MapFieldsTransform{byKey: make(map[string]string, 2*len(schema.Fields))}
	for _, f := range schema.Fields {
		name := normalizeColumn(f.Name)
		if _, taken := t.byKey[name]; !taken {
			t.byKey[name] = f.ID
		}
	}
	// Ids win over names.
	for _, f := range schema.Fields {
		t.byKey[f.ID] = f.ID
	}
	return t
}

func (t *MapFieldsTransform) Transform(r Row) (Row, bool) {
	out := make(map[string]any, len(r.Data))
	for col, v := range r.Data {
		id, ok := t.byKey[col]
		if !ok {
			id, ok = t.byKey[normalizeColumn(col)]
		}
		if ok {
			out[id] = v
		}
	}
	return Row{Data: out}, true
}

func normalizeColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CoerceTransform converts values to the shape each field type stores.
// Blank values and values that cannot be read as the field type are dropped;
// rows left without any field are dropped too.
type CoerceTransform struct {
	Schema *domain.TableSchema
}

func (t *CoerceTransform) Transform(r Row) (Row, bool) {
	out := make(map[string]any, len(r.Data))
	for id, v := range r.Data {
		f, ok := t.Schema.Field(id)
		if !ok {
			continue
		}
		if cv, ok := coerceValue(f, v); ok {
			out[id] = cv
		}
	}
	return Row{Data: out}, len(out) > 0
}

func coerceValue(f domain.FieldSchema, v any) (any, bool) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
		if v == "" {
			return nil, false
		}
	}
	if v == nil {
		return nil, false
	}

	switch f.Type {
	case domain.FieldNumber:
		return toFloat(v)
	case domain.FieldCheckbox:
		return toBool(v), true
	case domain.FieldDate:
		return toDay(v)
	case domain.FieldSelect:
		return optionName(f, toText(v)), true
	case domain.FieldMultiSelect:
		var parts []string
		switch vv := v.(type) {
		case []any:
			for _, p := range vv {
				parts = append(parts, toText(p))
			}
		default:
			parts = strings.Split(toText(v), ",")
		}
		names := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, optionName(f, p))
			}
		}
		return names, len(names) > 0
	default:
		return toText(v), true
	}
}

// optionName resolves s to an option name by name, id, or case-insensitive
// name. Unmatched values are kept verbatim.
func optionName(f domain.FieldSchema, s string) string {
	if o, ok := f.Option(s); ok {
		return o.Name
	}
	for _, o := range f.Options {
		if o.ID == s {
			return o.Name
		}
	}
	for _, o := range f.Options {
		if strings.EqualFold(o.Name, s) {
			return o.Name
		}
	}
	return s
}

// DedupeTransform drops rows with duplicate values for the given field.
type DedupeTransform struct {
	Key  string
	seen map[string]bool
}

func NewDedupeTransform(key string) *DedupeTransform {
	return &DedupeTransform{Key: key, seen: make(map[string]bool)}
}

func (t *DedupeTransform) Transform(r Row) (Row, bool) {
	v := fmt.Sprint(r.Data[t.Key])
	if t.seen[v] {
		return r, false
	}
	t.seen[v] = true
	return r, true
}

// LimitTransform caps the number of rows.
type LimitTransform struct {
	Count int
	seen  int
}

func NewLimitTransform(count int) *LimitTransform {
	return &LimitTransform{Count: count}
}

func (t *LimitTransform) Transform(r Row) (Row, bool) {
	t.seen++
	return r, t.seen <= t.Count
}

// ── Value helpers ──────────────────────────────────────────

// dayLayout is the calendar-day format date fields store.
const dayLayout = "2006-01-02"

var dayLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

func toDay(v any) (any, bool) {
	if t, ok := v.(time.Time); ok {
		return t.Format(dayLayout), true
	}
	s := toText(v)
	if len(s) >= len(dayLayout) {
		if _, err := time.Parse(dayLayout, s[:len(dayLayout)]); err == nil {
			return s[:len(dayLayout)], true
		}
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dayLayout), true
		}
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(b) {
		case "true", "yes", "y", "1", "x", "✓":
			return true
		}
		return false
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(v)
	}
}
