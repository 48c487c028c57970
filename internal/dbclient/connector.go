package dbclient

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"dataviews/internal/domain"
	"dataviews/internal/storage"
)

// defaultTable is the SQL table / mongo collection used when none is configured.
const defaultTable = "records"

// Client is a RecordClient bound to a live backend connection.
type Client interface {
	domain.RecordClient

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Open connects the backend described by cfg. tableID scopes the records to
// one schema so several tables can share a backend.
func Open(ctx context.Context, cfg domain.BackendConfig, tableID string, logger *zap.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("dbclient").With(zap.String("driver", string(cfg.Driver)))

	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	switch cfg.Driver {
	case domain.BackendMemory:
		return &memoryClient{MemoryStore: storage.NewMemoryStore(cfg.Latency)}, nil
	case domain.BackendSQLite:
		return newSQLiteClient(cfg.DSN, tableID)
	case domain.BackendPostgres:
		return newSQLClient(ctx, postgresDialect, cfg.DSN, table, tableID, logger)
	case domain.BackendMySQL:
		dsn, err := buildMySQLDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return newSQLClient(ctx, mysqlDialect, dsn, table, tableID, logger)
	case domain.BackendMongoDB:
		return newMongoClient(ctx, cfg, table, tableID, logger)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func validIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// memoryClient adapts the in-process store to Client.
type memoryClient struct {
	*storage.MemoryStore
}

func (c *memoryClient) Ping(ctx context.Context) error { return ctx.Err() }
func (c *memoryClient) Close() error                   { return nil }

// sqliteClient owns the embedded database file behind a RecordStore.
type sqliteClient struct {
	*storage.RecordStore
	db *storage.DB
}

func newSQLiteClient(path, tableID string) (*sqliteClient, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite backend: %w", err)
	}
	return &sqliteClient{RecordStore: storage.NewRecordStore(db, tableID), db: db}, nil
}

func (c *sqliteClient) Ping(ctx context.Context) error { return c.db.Conn().PingContext(ctx) }
func (c *sqliteClient) Close() error                   { return c.db.Close() }
