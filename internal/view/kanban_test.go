package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
)

func TestKanban_ColumnsFollowOptionOrder(t *testing.T) {
	schema := taskSchema()
	records := []domain.Record{
		rec("a", domain.Fields{"title": "A", "status": "Done"}),
		rec("b", domain.Fields{"title": "B", "status": "To Do"}),
		rec("c", domain.Fields{"title": "C", "status": "Archived"}),
		rec("d", domain.Fields{"title": "D"}),
		rec("e", domain.Fields{"title": "E", "status": "Done"}),
	}

	board, err := Kanban(schema, records, NewLocale("en"))
	require.NoError(t, err)
	require.Len(t, board.Columns, 4)

	names := []string{}
	for _, c := range board.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"To Do", "In Progress", "Done", "Uncategorized"}, names)

	cardIDs := func(c KanbanColumn) []string {
		out := []string{}
		for _, card := range c.Cards {
			out = append(out, card.Record.ID)
		}
		return out
	}
	assert.Equal(t, []string{"b"}, cardIDs(board.Columns[0]))
	assert.Empty(t, cardIDs(board.Columns[1]))
	assert.Equal(t, []string{"a", "e"}, cardIDs(board.Columns[2]))
	assert.Equal(t, []string{"c", "d"}, cardIDs(board.Columns[3]))
	assert.True(t, board.Columns[3].Uncategorized)
}

func TestKanban_CardDetailsSkipTitleGroupAndBlanks(t *testing.T) {
	schema := taskSchema()
	records := []domain.Record{
		rec("a", domain.Fields{"title": "", "status": "Done", "description": "", "completed": false, "points": 3, "tags": []any{"Bug", "UI"}}),
	}

	board, err := Kanban(schema, records, NewLocale("en"))
	require.NoError(t, err)
	card := board.Columns[2].Cards[0]
	assert.Equal(t, "Untitled", card.Title)

	fields := []string{}
	for _, d := range card.Details {
		fields = append(fields, d.FieldID)
	}
	assert.Equal(t, []string{"tags", "points"}, fields)
	assert.Equal(t, "Bug, UI", card.Details[0].Text)
}

func TestKanban_NoSelectField(t *testing.T) {
	schema := &domain.TableSchema{Fields: []domain.FieldSchema{{ID: "title", Type: domain.FieldText}}}
	_, err := Kanban(schema, nil, NewLocale("en"))
	assert.True(t, errors.Is(err, ErrNoSelectField))
}

func TestBoard_Drop(t *testing.T) {
	board, err := Kanban(taskSchema(), nil, NewLocale("fr"))
	require.NoError(t, err)

	patch, err := board.Drop("in_progress")
	require.NoError(t, err)
	assert.Equal(t, domain.Fields{"status": "In Progress"}, patch)

	patch, err = board.Drop(UncategorizedColumnID)
	require.NoError(t, err)
	assert.Equal(t, domain.Fields{"status": ""}, patch)
	assert.Equal(t, "Non classé", board.Columns[3].Name)

	_, err = board.Drop("missing")
	assert.ErrorIs(t, err, domain.ErrBadInput)
}
