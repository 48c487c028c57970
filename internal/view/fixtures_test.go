package view

import (
	"fmt"
	"time"

	"dataviews/internal/domain"
)

func taskSchema() *domain.TableSchema {
	return &domain.TableSchema{
		ID:   "tasks",
		Name: "Tasks",
		Icon: "📋",
		Fields: []domain.FieldSchema{
			{ID: "title", Name: "Title", Type: domain.FieldText, IsPrimary: true},
			{ID: "description", Name: "Description", Type: domain.FieldText},
			{ID: "status", Name: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{
				{ID: "todo", Name: "To Do", Color: "gray"},
				{ID: "in_progress", Name: "In Progress", Color: "blue"},
				{ID: "done", Name: "Done", Color: "green"},
			}},
			{ID: "tags", Name: "Tags", Type: domain.FieldMultiSelect, Options: []domain.FieldOption{
				{ID: "bug", Name: "Bug", Color: "red"},
				{ID: "ui", Name: "UI", Color: "purple"},
			}},
			{ID: "points", Name: "Points", Type: domain.FieldNumber},
			{ID: "dueDate", Name: "Due Date", Type: domain.FieldDate},
			{ID: "completed", Name: "Completed", Type: domain.FieldCheckbox},
		},
	}
}

func rec(id string, fields domain.Fields) domain.Record {
	return domain.Record{ID: id, Fields: fields, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// numberRecords builds one record per value; negative values become a
// missing field.
func numberRecords(values []int) []domain.Record {
	out := make([]domain.Record, len(values))
	for i, v := range values {
		f := domain.Fields{}
		if v >= 0 {
			f["points"] = float64(v)
		}
		out[i] = rec(fmt.Sprintf("r%d", i), f)
	}
	return out
}
