package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"dataviews/internal/domain"
)

// Operator is a filter comparison.
type Operator string

const (
	OpContains     Operator = "contains"
	OpEquals       Operator = "equals"
	OpGreater      Operator = "greater"
	OpLess         Operator = "less"
	OpGreaterEqual Operator = "greaterEqual"
	OpLessEqual    Operator = "lessEqual"
	OpBefore       Operator = "before"
	OpAfter        Operator = "after"
)

// SortDirection orders a sorted grid.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort selects the sort key. An empty FieldID leaves records in source order.
type Sort struct {
	FieldID   string        `json:"fieldId,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// Filter selects the filter predicate. A filter with no field or no value is inactive.
type Filter struct {
	FieldID  string   `json:"fieldId,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// Active reports whether the filter constrains anything.
func (f Filter) Active() bool {
	return f.FieldID != "" && f.Value != ""
}

// DefaultOperator is the operator a freshly selected filter field starts with.
func DefaultOperator(t domain.FieldType) Operator {
	switch t {
	case domain.FieldNumber, domain.FieldDate:
		return OpEquals
	}
	return OpContains
}

// Operators lists the operators accepted for a field type, the default
// first. Select, multi-select and checkbox filters match the value exactly
// whichever of their operators is chosen.
func Operators(t domain.FieldType) []Operator {
	switch t {
	case domain.FieldNumber:
		return []Operator{OpEquals, OpGreater, OpLess, OpGreaterEqual, OpLessEqual}
	case domain.FieldDate:
		return []Operator{OpEquals, OpBefore, OpAfter}
	case domain.FieldSelect, domain.FieldMultiSelect, domain.FieldCheckbox:
		return []Operator{OpContains, OpEquals}
	}
	return []Operator{OpContains}
}

// ErrUnsupportedOperator is returned when a filter operator does not apply
// to its field's type.
var ErrUnsupportedOperator = errors.New("unsupported filter operator")

// Resolve fills in the default operator for the filter's field when none is
// set and rejects operators the field type does not accept. A filter naming
// an unknown field is left as-is and matches nothing once active.
func (f *Filter) Resolve(schema *domain.TableSchema) error {
	field, ok := schema.Field(f.FieldID)
	if !ok {
		if f.Operator == "" {
			f.Operator = OpContains
		}
		return nil
	}
	if f.Operator == "" {
		f.Operator = DefaultOperator(field.Type)
		return nil
	}
	if !slices.Contains(Operators(field.Type), f.Operator) {
		return fmt.Errorf("%w: %q on %s field %q", ErrUnsupportedOperator, f.Operator, field.Type, field.ID)
	}
	return nil
}

// GridState is the grid's local UI state: the chosen sort and filter.
type GridState struct {
	Sort   Sort   `json:"sort"`
	Filter Filter `json:"filter"`
}

// SetSortField picks the sort key; an empty id disables sorting. The
// direction defaults to ascending the first time a key is chosen.
func (g *GridState) SetSortField(fieldID string) {
	g.Sort.FieldID = fieldID
	if g.Sort.Direction == "" {
		g.Sort.Direction = SortAsc
	}
}

// ToggleDirection flips between ascending and descending.
func (g *GridState) ToggleDirection() {
	if g.Sort.Direction == SortDesc {
		g.Sort.Direction = SortAsc
		return
	}
	g.Sort.Direction = SortDesc
}

// SetFilterField selects a new filter field, clearing the value and
// re-deriving the default operator from the field's type.
func (g *GridState) SetFilterField(schema *domain.TableSchema, fieldID string) {
	g.Filter.FieldID = fieldID
	g.Filter.Value = ""
	if fieldID == "" {
		g.Filter.Operator = OpContains
		return
	}
	var t domain.FieldType
	if f, ok := schema.Field(fieldID); ok {
		t = f.Type
	}
	g.Filter.Operator = DefaultOperator(t)
}

// ClearFilter removes the filter.
func (g *GridState) ClearFilter() {
	g.Filter = Filter{Operator: OpContains}
}

// FilterRecords returns the records matching f, in their original relative
// order. The input slice is not modified.
func FilterRecords(schema *domain.TableSchema, records []domain.Record, f Filter) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	if !f.Active() {
		return append(out, records...)
	}
	field, ok := schema.Field(f.FieldID)
	if !ok {
		return out
	}
	for _, r := range records {
		if Matches(field, r.Value(field.ID), f) {
			out = append(out, r)
		}
	}
	return out
}

// Matches applies a filter to one value. A nil value never matches.
func Matches(field domain.FieldSchema, value any, f Filter) bool {
	if value == nil {
		return false
	}
	switch field.Type {
	case domain.FieldText:
		return containsFold(stringify(value), f.Value)
	case domain.FieldNumber:
		return matchNumber(value, f)
	case domain.FieldSelect, domain.FieldMultiSelect:
		if list := stringList(value); list != nil {
			return slices.Contains(list, f.Value)
		}
		return stringify(value) == f.Value
	case domain.FieldCheckbox:
		if f.Value == "true" {
			return truthy(value)
		}
		return !truthy(value)
	case domain.FieldDate:
		return matchDate(value, f)
	default:
		return containsFold(stringify(value), f.Value)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchNumber(value any, f Filter) bool {
	n, ok := toNumber(value)
	if !ok {
		return false
	}
	want, ok := toNumber(f.Value)
	if !ok {
		return false
	}
	switch f.Operator {
	case OpEquals:
		return n == want
	case OpGreater:
		return n > want
	case OpLess:
		return n < want
	case OpGreaterEqual:
		return n >= want
	case OpLessEqual:
		return n <= want
	}
	return false
}

func matchDate(value any, f Filter) bool {
	switch f.Operator {
	case OpEquals:
		got, ok := dayKey(value)
		if !ok {
			return false
		}
		want, ok := dayKey(f.Value)
		return ok && got == want
	case OpBefore, OpAfter:
		got, ok := parseDate(value)
		if !ok {
			return false
		}
		want, ok := parseDate(f.Value)
		if !ok {
			return false
		}
		if f.Operator == OpBefore {
			return got.Before(want)
		}
		return got.After(want)
	}
	return false
}

// SortRecords returns a stably sorted copy of records. Missing values sort
// last in both directions; numbers compare numerically and everything else
// by locale collation.
func SortRecords(schema *domain.TableSchema, records []domain.Record, s Sort, loc Locale) []domain.Record {
	out := append([]domain.Record(nil), records...)
	if s.FieldID == "" {
		return out
	}
	numeric := false
	if f, ok := schema.Field(s.FieldID); ok && f.Type == domain.FieldNumber {
		numeric = true
	}
	col := loc.collator()
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		av, bv := a.Value(s.FieldID), b.Value(s.FieldID)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		c := compareValues(av, bv, numeric, func(x, y string) int { return col.CompareString(x, y) })
		if s.Direction == SortDesc {
			return -c
		}
		return c
	})
	return out
}

func compareValues(a, b any, numericField bool, collate func(x, y string) int) int {
	if isNumeric(a) && isNumeric(b) || numericField {
		an, aok := toNumber(a)
		bn, bok := toNumber(b)
		if aok && bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	return collate(stringify(a), stringify(b))
}

// GridRow is one rendered grid row.
type GridRow struct {
	Index  int           `json:"index"`
	Record domain.Record `json:"record"`
	Cells  []Cell        `json:"cells"`
}

// GridColumn is one grid header.
type GridColumn struct {
	FieldID   string               `json:"fieldId"`
	Name      string               `json:"name"`
	Type      domain.FieldType     `json:"type"`
	IsPrimary bool                 `json:"isPrimary,omitempty"`
	Operators []Operator           `json:"operators"`
	Options   []domain.FieldOption `json:"options,omitempty"`
}

// GridProjection is the filtered, sorted grid plus the counts shown in its toolbar.
type GridProjection struct {
	Columns []GridColumn `json:"columns"`
	Rows    []GridRow    `json:"rows"`
	State   GridState    `json:"state"`
	Matched int          `json:"matched"`
	Total   int          `json:"total"`
}

// Grid filters, sorts and renders records. The snapshot is left untouched.
func Grid(schema *domain.TableSchema, records []domain.Record, state GridState, loc Locale) GridProjection {
	processed := SortRecords(schema, FilterRecords(schema, records, state.Filter), state.Sort, loc)

	p := GridProjection{
		Columns: make([]GridColumn, 0, len(schema.Fields)),
		Rows:    make([]GridRow, 0, len(processed)),
		State:   state,
		Matched: len(processed),
		Total:   len(records),
	}
	for _, f := range schema.Fields {
		p.Columns = append(p.Columns, GridColumn{
			FieldID:   f.ID,
			Name:      f.Name,
			Type:      f.Type,
			IsPrimary: f.IsPrimary,
			Operators: Operators(f.Type),
			Options:   f.Options,
		})
	}
	for i, r := range processed {
		row := GridRow{Index: i + 1, Record: r.Clone(), Cells: make([]Cell, 0, len(schema.Fields))}
		for _, f := range schema.Fields {
			row.Cells = append(row.Cells, RenderCell(f, r.Value(f.ID), loc))
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}
