package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(path string) (*DB, error) {
	// WAL for concurrent readers, foreign keys for cascading deletes
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Set("_time_format", "sqlite")
	dsn := fmt.Sprintf("file:%s?%s", path, params.Encode())

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite with WAL mode supports concurrent reads but serializes writes
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)

	log.Debug().Str("path", path).Msg("Database connection established")

	return &DB{
		conn: conn,
		path: path,
	}, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close refreshes planner statistics and closes the connection pool.
func (db *DB) Close() error {
	var err error
	if _, optErr := db.conn.Exec("PRAGMA optimize"); optErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to optimize database: %w", optErr))
	}
	if closeErr := db.conn.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to close database: %w", closeErr))
	}
	return err
}

// IsFirstRun checks if this is the first run (no accounts exist)
func (db *DB) IsFirstRun(ctx context.Context) (bool, error) {
	var count int
	err := db.queryRow(ctx, "SELECT COUNT(*) FROM drivers").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check accounts: %w", err)
	}
	return count == 0, nil
}

// Transaction wraps a function in a database transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
