package view

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
)

func TestCalendar_LayoutAndBuckets(t *testing.T) {
	schema := taskSchema()
	records := []domain.Record{
		rec("a", domain.Fields{"title": "Launch", "dueDate": "2024-03-05"}),
		rec("b", domain.Fields{"title": "Late", "dueDate": "2024-03-05T22:00:00-05:00"}),
		rec("c", domain.Fields{"title": "Spill", "dueDate": "2024-02-29"}),
		rec("d", domain.Fields{"title": "None"}),
		rec("e", domain.Fields{"title": "Bad", "dueDate": "soon"}),
	}
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

	m, err := Calendar(schema, records, 2024, time.March, now, NewLocale("en"))
	require.NoError(t, err)
	require.Len(t, m.Cells, CalendarCells)

	// March 2024 starts on a Friday: five leading February days.
	assert.Equal(t, "2024-02-25", m.Cells[0].Day)
	assert.False(t, m.Cells[0].InMonth)
	assert.Equal(t, "2024-03-01", m.Cells[5].Day)
	assert.True(t, m.Cells[5].InMonth)
	assert.Equal(t, "2024-04-06", m.Cells[41].Day)

	cell, ok := m.Cell("2024-03-05")
	require.True(t, ok)
	require.Len(t, cell.Entries, 2)
	assert.Equal(t, "Launch", cell.Entries[0].Title)
	assert.Equal(t, "b", cell.Entries[1].Record.ID)

	leap, _ := m.Cell("2024-02-29")
	assert.Len(t, leap.Entries, 1)

	todays := 0
	for _, c := range m.Cells {
		if c.Today {
			todays++
			assert.Equal(t, "2024-03-14", c.Day)
		}
	}
	assert.Equal(t, 1, todays)
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, m.Weekdays)
}

func TestCalendar_NoTodayOutsideMonth(t *testing.T) {
	now := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	m, err := Calendar(taskSchema(), nil, 2024, time.January, now, NewLocale("en"))
	require.NoError(t, err)
	for _, c := range m.Cells {
		assert.False(t, c.Today)
	}
}

func TestCalendar_MoveAndNavigation(t *testing.T) {
	m, err := Calendar(taskSchema(), nil, 2024, time.December, time.Now(), NewLocale("en"))
	require.NoError(t, err)

	patch, err := m.Move("2024-12-24T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, domain.Fields{"dueDate": "2024-12-24"}, patch)

	prefill, err := m.NewRecordAt("2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, domain.Fields{"dueDate": "2024-12-01"}, prefill)

	_, err = m.Move("christmas")
	assert.Error(t, err)

	y, mo := m.Next()
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.January, mo)
	y, mo = m.Prev()
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.November, mo)
}

func TestCalendar_NoDateField(t *testing.T) {
	schema := &domain.TableSchema{Fields: []domain.FieldSchema{{ID: "title", Type: domain.FieldText}}}
	_, err := Calendar(schema, nil, 2024, time.March, time.Now(), NewLocale("en"))
	assert.True(t, errors.Is(err, ErrNoDateField))
}

func TestRecordColor_IsStable(t *testing.T) {
	c := RecordColor("rec_1700000000000")
	assert.Equal(t, c, RecordColor("rec_1700000000000"))
	assert.Contains(t, calendarColors, c)
	assert.Contains(t, calendarColors, RecordColor(""))
}
