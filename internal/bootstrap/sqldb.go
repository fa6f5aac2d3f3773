package bootstrap

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/furniscan/furniscan-backend/config"
)

// OpenSQLDB opens a database/sql connection used by the migration runner and
// the export audit repository. Request-path repositories use pgxpool instead
// (see OpenDB).
func OpenSQLDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}
