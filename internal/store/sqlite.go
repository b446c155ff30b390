package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/migrations"
)

// DB wraps the engine's single SQLite connection. All durable collections
// (records, queue items, meta) share it, so one transaction can span them.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Open opens (creating if needed) the SQLite database at cfg.DSN, verifies
// the connection, and applies pending schema migrations.
func Open(ctx context.Context, cfg config.Storage, log *logger.Logger) (*DB, error) {
	if err := createDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("dsn", cfg.DSN).Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN+"?_busy_timeout=5000&_journal_mode=WAL&_fk=1")
	if err != nil {
		log.Err(err).Msg("error opening database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Msg("error connecting database (ping)")
		return nil, err
	}

	if err = migrations.Migrate(conn); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	log.Debug().Str("dsn", cfg.DSN).Msg("connected to database")

	return &DB{DB: conn, logger: log}, nil
}

func createDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); !os.IsNotExist(err) {
		return nil
	}

	if dir := filepath.Dir(dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating DB dir: %w", err)
		}
	}

	f, err := os.OpenFile(dbFile, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("error creating DB file: %w", err)
	}
	return f.Close()
}
