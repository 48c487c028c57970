package view

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"dataviews/internal/domain"
)

// TestProperty_FilterIsOrderedSubset checks that the filtered result is a
// subset of the input, in input order, and that each kept record satisfies
// the predicate while each dropped one does not.
func TestProperty_FilterIsOrderedSubset(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	schema := taskSchema()
	field, _ := schema.Field("points")

	ops := []Operator{OpEquals, OpGreater, OpLess, OpGreaterEqual, OpLessEqual}

	properties.Property("filtered records are an ordered subset matching the predicate", prop.ForAll(
		func(values []int, threshold int, opIdx int) bool {
			records := numberRecords(values)
			f := Filter{FieldID: "points", Operator: ops[opIdx], Value: fmt.Sprint(threshold)}
			got := FilterRecords(schema, records, f)

			next := 0
			for _, r := range records {
				kept := next < len(got) && got[next].ID == r.ID
				if kept {
					next++
				}
				if kept != Matches(field, r.Value("points"), f) {
					return false
				}
				if kept && r.Value("points") == nil {
					return false
				}
			}
			return next == len(got)
		},
		gen.SliceOf(gen.IntRange(-1, 20)),
		gen.IntRange(0, 20),
		gen.IntRange(0, len(ops)-1),
	))

	properties.TestingRun(t)
}

// TestProperty_SortIsStableAndNullsLast checks repeatability, stability and
// null placement for both directions.
func TestProperty_SortIsStableAndNullsLast(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	schema := taskSchema()
	loc := NewLocale("en")

	properties.Property("sorting is deterministic, stable and puts nulls last", prop.ForAll(
		func(values []int, desc bool) bool {
			records := numberRecords(values)
			s := Sort{FieldID: "points", Direction: SortAsc}
			if desc {
				s.Direction = SortDesc
			}
			first := SortRecords(schema, records, s, loc)
			second := SortRecords(schema, records, s, loc)
			if !slices.Equal(ids(first), ids(second)) || len(first) != len(records) {
				return false
			}

			seenNil := false
			for i, r := range first {
				v := r.Value("points")
				if v == nil {
					seenNil = true
					continue
				}
				if seenNil {
					return false
				}
				if i == 0 {
					continue
				}
				prev := first[i-1].Value("points").(float64)
				cur := v.(float64)
				if !desc && prev > cur || desc && prev < cur {
					return false
				}
				// Equal keys keep their input order (ids are r<index>).
				if prev == cur && indexOf(records, first[i-1].ID) > indexOf(records, r.ID) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1, 10)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func indexOf(records []domain.Record, id string) int {
	return slices.IndexFunc(records, func(r domain.Record) bool { return r.ID == id })
}

// TestProperty_KanbanPartition checks that every record lands in exactly one column.
func TestProperty_KanbanPartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	schema := taskSchema()
	loc := NewLocale("en")
	choices := []any{"To Do", "In Progress", "Done", "Archived", "", nil, 42, []any{"Done"}}

	properties.Property("kanban columns partition the record set", prop.ForAll(
		func(picks []int) bool {
			records := make([]domain.Record, len(picks))
			for i, p := range picks {
				records[i] = rec(fmt.Sprintf("r%d", i), domain.Fields{"status": choices[p]})
			}
			board, err := Kanban(schema, records, loc)
			if err != nil || len(board.Columns) != 4 {
				return false
			}
			seen := map[string]int{}
			for _, col := range board.Columns {
				for _, c := range col.Cards {
					seen[c.Record.ID]++
					v, _ := c.Record.Value("status").(string)
					if !col.Uncategorized && v != col.Name {
						return false
					}
				}
			}
			if len(seen) != len(records) {
				return false
			}
			for _, n := range seen {
				if n != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(choices)-1)),
	))

	properties.TestingRun(t)
}

// TestProperty_CalendarGrid checks the fixed 42-cell layout for any month.
func TestProperty_CalendarGrid(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	schema := taskSchema()
	loc := NewLocale("en")

	properties.Property("every month has 42 contiguous cells starting on Sunday", prop.ForAll(
		func(year, month, day int) bool {
			now := time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day)
			m, err := Calendar(schema, nil, now.Year(), now.Month(), now, loc)
			if err != nil || len(m.Cells) != CalendarCells {
				return false
			}
			if m.Cells[0].Date.Weekday() != time.Sunday {
				return false
			}
			inMonth, today := 0, 0
			for i, c := range m.Cells {
				if i > 0 && !c.Date.Equal(m.Cells[i-1].Date.AddDate(0, 0, 1)) {
					return false
				}
				if c.InMonth {
					inMonth++
				}
				if c.Today {
					today++
				}
			}
			daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
			return inMonth == daysInMonth && today == 1
		},
		gen.IntRange(1900, 2100),
		gen.IntRange(1, 12),
		gen.IntRange(0, 27),
	))

	properties.TestingRun(t)
}
