package view

import (
	"errors"
	"fmt"

	"dataviews/internal/domain"
)

// ErrNoSelectField means the schema has no select field to group by; the
// kanban view renders an explanatory empty state instead of a board.
var ErrNoSelectField = errors.New("no select field found in schema; add a select field to enable the kanban view")

// UncategorizedColumnID identifies the trailing catch-all column.
const UncategorizedColumnID = "__uncategorized__"

// KanbanCard is one record on the board.
type KanbanCard struct {
	Record  domain.Record  `json:"record"`
	Title   string         `json:"title"`
	Details []DisplayField `json:"details,omitempty"`
}

// KanbanColumn holds the records whose select value equals the column's option name.
type KanbanColumn struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Color         string       `json:"color,omitempty"`
	Uncategorized bool         `json:"uncategorized,omitempty"`
	Cards         []KanbanCard `json:"cards"`
}

// Board is the kanban projection. Every record appears in exactly one column.
type Board struct {
	Field   domain.FieldSchema `json:"field"`
	Columns []KanbanColumn     `json:"columns"`
}

// Kanban groups records by the schema's first select field: one column per
// option in declaration order, then an uncategorized column for records whose
// value is absent or matches no option.
func Kanban(schema *domain.TableSchema, records []domain.Record, loc Locale) (*Board, error) {
	field, ok := schema.SelectField()
	if !ok {
		return nil, ErrNoSelectField
	}
	primary, _ := schema.PrimaryField()

	b := &Board{Field: field, Columns: make([]KanbanColumn, 0, len(field.Options)+1)}
	// Duplicate option names share one value; the first column claims it.
	byName := make(map[string]int, len(field.Options))
	for _, opt := range field.Options {
		if _, dup := byName[opt.Name]; !dup {
			byName[opt.Name] = len(b.Columns)
		}
		b.Columns = append(b.Columns, KanbanColumn{
			ID:    opt.ID,
			Name:  opt.Name,
			Color: opt.Color,
			Cards: []KanbanCard{},
		})
	}
	uncategorized := len(b.Columns)
	b.Columns = append(b.Columns, KanbanColumn{
		ID:            UncategorizedColumnID,
		Name:          loc.Uncategorized(),
		Color:         "gray",
		Uncategorized: true,
		Cards:         []KanbanCard{},
	})

	for _, r := range records {
		col := uncategorized
		if v, ok := r.Value(field.ID).(string); ok && v != "" {
			if i, found := byName[v]; found {
				col = i
			}
		}
		b.Columns[col].Cards = append(b.Columns[col].Cards, kanbanCard(schema, field, primary, r, loc))
	}
	return b, nil
}

func kanbanCard(schema *domain.TableSchema, group, primary domain.FieldSchema, r domain.Record, loc Locale) KanbanCard {
	card := KanbanCard{Record: r.Clone(), Title: recordTitle(schema, r, loc)}
	for _, f := range schema.Fields {
		if f.ID == primary.ID || f.ID == group.ID {
			continue
		}
		if d, ok := cardField(f, r.Value(f.ID), loc); ok {
			card.Details = append(card.Details, d)
		}
	}
	return card
}

// Column looks up a column by id.
func (b *Board) Column(id string) (KanbanColumn, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return KanbanColumn{}, false
}

// Drop returns the patch that moves a record onto a column: the grouping
// field set to the column's option name, or "" for the uncategorized column.
func (b *Board) Drop(columnID string) (domain.Fields, error) {
	col, ok := b.Column(columnID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kanban column: %q", domain.ErrBadInput, columnID)
	}
	value := col.Name
	if col.Uncategorized {
		value = ""
	}
	return domain.Fields{b.Field.ID: value}, nil
}
