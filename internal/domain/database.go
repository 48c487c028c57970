package domain

import (
	"fmt"
	"time"
)

// BackendDriver names the engine behind a RecordClient.
type BackendDriver string

const (
	BackendMemory   BackendDriver = "memory"
	BackendSQLite   BackendDriver = "sqlite"
	BackendPostgres BackendDriver = "postgres"
	BackendMySQL    BackendDriver = "mysql"
	BackendMongoDB  BackendDriver = "mongodb"
)

// BackendConfig holds the settings for connecting a record backend.
type BackendConfig struct {
	Driver   BackendDriver `json:"driver" mapstructure:"driver"`
	DSN      string        `json:"dsn" mapstructure:"dsn"`           // file path (sqlite), DSN or URI
	Database string        `json:"database" mapstructure:"database"` // mongodb database name
	Table    string        `json:"table" mapstructure:"table"`       // SQL table or mongo collection
	Latency  time.Duration `json:"latency" mapstructure:"latency"`   // simulated delay (memory only)
}

// Validate checks the driver name and that remote drivers have a DSN.
func (c BackendConfig) Validate() error {
	switch c.Driver {
	case BackendMemory:
		return nil
	case BackendSQLite, BackendPostgres, BackendMySQL, BackendMongoDB:
		if c.DSN == "" {
			return fmt.Errorf("backend %s: dsn is required", c.Driver)
		}
		return nil
	}
	return fmt.Errorf("unsupported backend driver: %q", c.Driver)
}
