package domain

import (
	"context"
	"errors"
	"maps"
	"time"
)

var (
	// ErrNotFound is returned when an update targets a record id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotPersisted is returned when the backing store rejects a write.
	ErrNotPersisted = errors.New("record not persisted")
	// ErrBadInput marks caller mistakes: unknown fields, columns, views or days.
	ErrBadInput = errors.New("bad input")
)

// Fields maps field ids to loosely typed values.
// Values are whatever the writer produced; nothing is validated against the schema.
type Fields map[string]any

// Clone returns a shallow copy. Slice values are copied one level deep so a
// clone can be handed to a view without sharing multiSelect backing arrays.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		switch vv := v.(type) {
		case []any:
			out[k] = append([]any(nil), vv...)
		case []string:
			out[k] = append([]string(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

// Merge returns base with patch shallow-merged on top. Keys absent from the
// patch keep their previous value.
func Merge(base, patch Fields) Fields {
	out := base.Clone()
	maps.Copy(out, patch.Clone())
	return out
}

// Record is a single row: an identifier plus a field-id → value mapping.
type Record struct {
	ID        string    `json:"id"`
	Fields    Fields    `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
}

// Value returns the stored value for fieldID, nil when absent.
func (r Record) Value(fieldID string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[fieldID]
}

// Clone returns a copy that shares nothing mutable with r.
func (r Record) Clone() Record {
	r.Fields = r.Fields.Clone()
	return r
}

// CloneRecords copies a record slice, cloning every record.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// RecordClient is the record-store capability every backend implements.
// Implementations must be safe for concurrent use.
type RecordClient interface {
	// ListRecords returns every record, newest first.
	ListRecords(ctx context.Context) ([]Record, error)
	// CreateRecord stores a new record with a generated id and creation time.
	CreateRecord(ctx context.Context, fields Fields) (*Record, error)
	// UpdateRecord shallow-merges fields onto the stored record.
	UpdateRecord(ctx context.Context, id string, fields Fields) (*Record, error)
	// DeleteRecord removes a record. Deleting a missing id is not an error.
	DeleteRecord(ctx context.Context, id string) error
}
