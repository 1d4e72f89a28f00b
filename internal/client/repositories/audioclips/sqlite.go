package audioclips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM audio_cache WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audio[%s]: %w", key, err)
	}
	return data, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audio_cache (key, data, size, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, size = excluded.size, created_at = excluded.created_at
	`, key, data, len(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put audio[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audio_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete audio[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM audio_cache`).Scan(&s.Count, &s.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read audio stats: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audio_cache`); err != nil {
		return fmt.Errorf("failed to clear audio cache: %w", err)
	}
	return nil
}
