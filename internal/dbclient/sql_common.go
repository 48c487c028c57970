package dbclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dataviews/internal/domain"
)

// dialect captures the differences between the SQL servers we support.
type dialect struct {
	driver      string
	quote       func(string) string
	placeholder func(n int) string
	createTable string
}

// rebind rewrites ? placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// sqlClient is the shared RecordClient implementation for MySQL and Postgres.
// Records live in one table keyed by table_id with their fields as JSON text.
type sqlClient struct {
	dialect dialect
	db      *sql.DB
	table   string // quoted
	tableID string
	logger  *zap.Logger
}

// newSQLClient opens the pool and makes sure the records table exists.
func newSQLClient(ctx context.Context, d dialect, dsn, table, tableID string, logger *zap.Logger) (*sqlClient, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	c := &sqlClient{dialect: d, db: db, table: d.quote(table), tableID: tableID, logger: logger}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("record table ready", zap.String("table", table))
	return c, nil
}

func (c *sqlClient) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.db.ExecContext(ctx, fmt.Sprintf(c.dialect.createTable, c.table)); err != nil {
		return fmt.Errorf("create %s table: %w", c.dialect.driver, err)
	}
	return nil
}

func (c *sqlClient) q(query string) string {
	return c.dialect.rebind(strings.ReplaceAll(query, "{table}", c.table))
}

func (c *sqlClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *sqlClient) Close() error {
	return c.db.Close()
}

func (c *sqlClient) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := c.db.QueryContext(ctx, c.q(
		`SELECT id, fields_json, created_at FROM {table} WHERE table_id = ? ORDER BY created_at DESC, seq DESC`),
		c.tableID,
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

func (c *sqlClient) CreateRecord(ctx context.Context, fields domain.Fields) (*domain.Record, error) {
	if fields == nil {
		fields = domain.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: encode fields: %v", domain.ErrNotPersisted, err)
	}
	r := &domain.Record{ID: uuid.New().String(), Fields: domain.Fields{}, CreatedAt: time.Now().UTC()}
	if _, err := c.db.ExecContext(ctx, c.q(
		`INSERT INTO {table} (id, table_id, fields_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		r.ID, c.tableID, string(data), r.CreatedAt, r.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("%w: insert: %v", domain.ErrNotPersisted, err)
	}
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return r, nil
}

func (c *sqlClient) UpdateRecord(ctx context.Context, id string, fields domain.Fields) (*domain.Record, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrNotPersisted, err)
	}
	defer tx.Rollback()

	r, err := scanRecord(tx.QueryRowContext(ctx, c.q(
		`SELECT id, fields_json, created_at FROM {table} WHERE table_id = ? AND id = ? FOR UPDATE`),
		c.tableID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	merged := domain.Merge(r.Fields, fields)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: encode fields: %v", domain.ErrNotPersisted, err)
	}
	if _, err := tx.ExecContext(ctx, c.q(
		`UPDATE {table} SET fields_json = ?, updated_at = ? WHERE table_id = ? AND id = ?`),
		string(data), time.Now().UTC(), c.tableID, id,
	); err != nil {
		return nil, fmt.Errorf("%w: update: %v", domain.ErrNotPersisted, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrNotPersisted, err)
	}

	r.Fields = domain.Fields{}
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return r, nil
}

func (c *sqlClient) DeleteRecord(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, c.q(`DELETE FROM {table} WHERE table_id = ? AND id = ?`), c.tableID, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.logger.Debug("delete matched no record", zap.String("id", id))
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
