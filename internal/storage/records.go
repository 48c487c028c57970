package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dataviews/internal/domain"
)

// RecordStore implements domain.RecordClient on the SQLite records table.
// Each store is scoped to one table id so several schemas can share a file.
type RecordStore struct {
	db      *DB
	tableID string
}

var _ domain.RecordClient = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore for the records of tableID.
func NewRecordStore(db *DB, tableID string) *RecordStore {
	return &RecordStore{db: db, tableID: tableID}
}

func (s *RecordStore) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, fields_json, created_at FROM records
		 WHERE table_id = ? ORDER BY created_at DESC, seq DESC`, s.tableID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	result := []domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *RecordStore) CreateRecord(ctx context.Context, fields domain.Fields) (*domain.Record, error) {
	if fields == nil {
		fields = domain.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: encode fields: %v", domain.ErrNotPersisted, err)
	}
	r := &domain.Record{
		ID:        uuid.New().String(),
		Fields:    fields.Clone(),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO records (id, table_id, fields_json, created_at, updated_at, seq)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records))`,
		r.ID, s.tableID, string(data), r.CreatedAt, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert: %v", domain.ErrNotPersisted, err)
	}
	// Round-trip through JSON so the returned values match what a later list reads back.
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return r, nil
}

// UpdateRecord merges fields onto the stored record inside a transaction so
// concurrent patches to different fields do not overwrite each other.
func (s *RecordStore) UpdateRecord(ctx context.Context, id string, fields domain.Fields) (*domain.Record, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrNotPersisted, err)
	}
	defer tx.Rollback()

	r, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT id, fields_json, created_at FROM records WHERE table_id = ? AND id = ?`,
		s.tableID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	r.Fields = domain.Merge(r.Fields, fields)
	data, err := json.Marshal(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: encode fields: %v", domain.ErrNotPersisted, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET fields_json = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("%w: update: %v", domain.ErrNotPersisted, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrNotPersisted, err)
	}
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return r, nil
}

func (s *RecordStore) DeleteRecord(ctx context.Context, id string) error {
	_, err := s.db.conn.ExecContext(ctx, `DELETE FROM records WHERE table_id = ? AND id = ?`, s.tableID, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		r    domain.Record
		data string
	)
	if err := row.Scan(&r.ID, &data, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Fields = domain.Fields{}
	if err := json.Unmarshal([]byte(data), &r.Fields); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return &r, nil
}
