package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRecorder persists exchange records to a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(path string, timeout time.Duration) (*SQLiteRecorder, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path, timeout))
	if err != nil {
		return nil, err
	}
	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, exchange Exchange) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exchanges (at, method, target, status, bytes, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		exchange.At.UTC().Format(time.RFC3339Nano),
		exchange.Method,
		exchange.Target,
		exchange.Status,
		exchange.Bytes,
		exchange.Duration.Milliseconds(),
		exchange.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func sqliteDSN(path string, timeout time.Duration) string {
	if strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path
	}
	busyMillis := int(timeout.Milliseconds())
	if busyMillis <= 0 {
		busyMillis = 5000
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyMillis)
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS exchanges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			method TEXT NOT NULL,
			target TEXT NOT NULL,
			status INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS exchanges_target ON exchanges (target)`)
	return err
}
