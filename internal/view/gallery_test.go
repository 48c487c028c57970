package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
)

func TestGallery_CardsShowTitleAndFirstThreeFields(t *testing.T) {
	schema := taskSchema()
	records := []domain.Record{
		rec("a", domain.Fields{"title": "écrire", "description": "Draft", "status": "Done", "tags": []any{"Bug"}, "points": 8}),
		rec("b", domain.Fields{"description": ""}),
	}

	cards := Gallery(schema, records, NewLocale("en"))
	require.Len(t, cards, 2)

	a := cards[0]
	assert.Equal(t, "écrire", a.Title)
	assert.Equal(t, "É", a.Initial)
	require.Len(t, a.Fields, 3)
	assert.Equal(t, "description", a.Fields[0].FieldID)
	assert.Equal(t, "Done", a.Fields[1].Text)
	assert.Equal(t, "green", a.Fields[1].Color)
	assert.Equal(t, "Bug", a.Fields[2].Text)

	b := cards[1]
	assert.Equal(t, "Untitled", b.Title)
	assert.Equal(t, "U", b.Initial)
	assert.Empty(t, b.Fields)
}

func TestGallery_FormatsBooleansAndDates(t *testing.T) {
	schema := &domain.TableSchema{Fields: []domain.FieldSchema{
		{ID: "name", Name: "Name", Type: domain.FieldText, IsPrimary: true},
		{ID: "due", Name: "Due", Type: domain.FieldDate},
		{ID: "done", Name: "Done", Type: domain.FieldCheckbox},
		{ID: "flag", Name: "Flag", Type: domain.FieldText},
	}}
	records := []domain.Record{
		rec("a", domain.Fields{"name": "A", "due": "2024-03-05", "done": false, "flag": true}),
	}

	cards := Gallery(schema, records, NewLocale("de"))
	require.Len(t, cards[0].Fields, 2)
	assert.Equal(t, "5.3.2024", cards[0].Fields[0].Text)
	assert.Equal(t, "Ja", cards[0].Fields[1].Text)
}

func TestGallery_Empty(t *testing.T) {
	cards := Gallery(taskSchema(), nil, NewLocale("en"))
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}
