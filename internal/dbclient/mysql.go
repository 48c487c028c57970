package dbclient

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	driver: "mysql",
	quote: func(name string) string {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	},
	placeholder: func(int) string { return "?" },
	createTable: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(64) PRIMARY KEY,
		table_id VARCHAR(255) NOT NULL,
		fields_json LONGTEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE
	) CHARACTER SET utf8mb4`,
}

// buildMySQLDSN normalizes a MySQL DSN so DATETIME columns scan into time.Time.
// Format: user:password@tcp(host:port)/dbname
func buildMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
