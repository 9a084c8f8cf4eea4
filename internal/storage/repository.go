package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps snapshots in a single sqlite table.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ SnapshotStore = (*SQLiteRepository)(nil)
	_ BatchSaver    = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return data, nil
}

const sqliteUpsert = `
	INSERT INTO snapshots (key, data, updated_at)
	VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

func (r *SQLiteRepository) Save(ctx context.Context, key string, data []byte) error {
	if _, err := r.db.ExecContext(ctx, sqliteUpsert, key, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite", "snapshot_key", key, "bytes", len(data))
	return nil
}

// SaveAll writes every snapshot inside one transaction.
func (r *SQLiteRepository) SaveAll(ctx context.Context, snapshots []Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, s := range snapshots {
		if len(s.Data) == 0 {
			return fmt.Errorf("save snapshot %s: empty document", s.Key)
		}
		if _, err := tx.ExecContext(ctx, sqliteUpsert, s.Key, s.Data); err != nil {
			return fmt.Errorf("save snapshot %s: %w", s.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}

	slog.DebugContext(ctx, "Snapshots saved to SQLite", "count", len(snapshots))
	return nil
}
