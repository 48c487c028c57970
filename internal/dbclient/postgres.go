package dbclient

import (
	"fmt"

	"github.com/lib/pq"
)

var postgresDialect = dialect{
	driver:      "postgres",
	quote:       pq.QuoteIdentifier,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	createTable: `CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		table_id TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		seq BIGSERIAL
	)`,
}
