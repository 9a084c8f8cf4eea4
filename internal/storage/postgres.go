package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository keeps snapshots as JSONB rows.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ SnapshotStore = (*PostgresRepository)(nil)
	_ BatchSaver    = (*PostgresRepository)(nil)
)

func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data::text FROM snapshots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return []byte(data), nil
}

const postgresUpsert = `
	INSERT INTO snapshots (key, data, updated_at)
	VALUES ($1, $2::jsonb, now())
	ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

func (r *PostgresRepository) Save(ctx context.Context, key string, data []byte) error {
	if _, err := r.db.ExecContext(ctx, postgresUpsert, key, string(data)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Snapshot saved to Postgres", "snapshot_key", key, "bytes", len(data))
	return nil
}

// SaveAll writes every snapshot inside one transaction.
func (r *PostgresRepository) SaveAll(ctx context.Context, snapshots []Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, s := range snapshots {
		if _, err := tx.ExecContext(ctx, postgresUpsert, s.Key, string(s.Data)); err != nil {
			return fmt.Errorf("save snapshot %s: %w", s.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}

	slog.DebugContext(ctx, "Snapshots saved to Postgres", "count", len(snapshots))
	return nil
}
