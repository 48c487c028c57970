package view

import (
	"errors"
	"fmt"
	"math"
	"time"

	"dataviews/internal/domain"
)

// ErrNoDateField means the schema has no date field to bucket by.
var ErrNoDateField = errors.New("no date field found in schema; add a date field to enable the calendar view")

// CalendarCells is the fixed size of a month grid: six weeks.
const CalendarCells = 42

var calendarColors = []string{
	"blue", "green", "purple", "orange", "pink", "cyan",
	"indigo", "teal", "rose", "amber", "emerald", "violet",
}

// CalendarEntry is one record placed on a day.
type CalendarEntry struct {
	Record domain.Record `json:"record"`
	Title  string        `json:"title"`
	Color  string        `json:"color"`
}

// CalendarCell is one day of the grid.
type CalendarCell struct {
	Day     string          `json:"day"`
	Date    time.Time       `json:"date"`
	InMonth bool            `json:"inMonth"`
	Today   bool            `json:"today"`
	Entries []CalendarEntry `json:"entries"`
}

// Month is the calendar projection of one displayed month.
type Month struct {
	Field    domain.FieldSchema `json:"field"`
	Year     int                `json:"year"`
	Month    time.Month         `json:"month"`
	Weekdays []string           `json:"weekdays"`
	Cells    []CalendarCell     `json:"cells"`
}

// Calendar lays out the month containing (year, month) as 42 Sunday-first
// cells: trailing days of the previous month, the whole month, then leading
// days of the next. Records land on the calendar day of their date value.
// now decides which cell, if any, is marked today.
func Calendar(schema *domain.TableSchema, records []domain.Record, year int, month time.Month, now time.Time, loc Locale) (*Month, error) {
	field, ok := schema.DateField()
	if !ok {
		return nil, ErrNoDateField
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()
	start := first.AddDate(0, 0, -int(first.Weekday()))
	today := now.Format(DayLayout)

	byDay := make(map[string][]CalendarEntry)
	for _, r := range records {
		day, ok := dayKey(r.Value(field.ID))
		if !ok {
			continue
		}
		byDay[day] = append(byDay[day], CalendarEntry{
			Record: r.Clone(),
			Title:  recordTitle(schema, r, loc),
			Color:  RecordColor(r.ID),
		})
	}

	m := &Month{
		Field:    field,
		Year:     year,
		Month:    month,
		Weekdays: loc.Weekdays(),
		Cells:    make([]CalendarCell, CalendarCells),
	}
	for i := range m.Cells {
		d := start.AddDate(0, 0, i)
		key := d.Format(DayLayout)
		entries := byDay[key]
		if entries == nil {
			entries = []CalendarEntry{}
		}
		m.Cells[i] = CalendarCell{
			Day:     key,
			Date:    d,
			InMonth: d.Month() == month,
			Today:   key == today,
			Entries: entries,
		}
	}
	return m, nil
}

// Cell returns the cell for a YYYY-MM-DD day, if it is on the grid.
func (m *Month) Cell(day string) (CalendarCell, bool) {
	for _, c := range m.Cells {
		if c.Day == day {
			return c, true
		}
	}
	return CalendarCell{}, false
}

// Prev returns the year and month before the displayed one.
func (m *Month) Prev() (int, time.Month) {
	t := time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Next returns the year and month after the displayed one.
func (m *Month) Next() (int, time.Month) {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Move returns the patch that drops a record onto day. Only the date field
// is overwritten and any time component is dropped.
func (m *Month) Move(day string) (domain.Fields, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	return domain.Fields{m.Field.ID: key}, nil
}

// NewRecordAt returns the add-form pre-fill for clicking an empty day.
func (m *Month) NewRecordAt(day string) (domain.Fields, error) {
	return m.Move(day)
}

func normalizeDay(day string) (string, error) {
	key, ok := dayKey(day)
	if !ok {
		return "", fmt.Errorf("%w: invalid day %q: want YYYY-MM-DD", domain.ErrBadInput, day)
	}
	return key, nil
}

// RecordColor picks a stable colour for a record id so the same record keeps
// its colour across renders.
func RecordColor(id string) string {
	var acc float64
	for _, ch := range id {
		shifted := toInt32(acc) << 5
		acc = float64(ch) + (float64(shifted) - acc)
	}
	idx := int(math.Mod(math.Abs(acc), float64(len(calendarColors))))
	return calendarColors[idx]
}

func toInt32(f float64) int32 {
	return int32(uint32(int64(math.Trunc(f))))
}
