package entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

// TableFor returns the cache table backing kind.
func TableFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindWords:
		return "words_cache", nil
	case models.KindSentences:
		return "sentences_cache", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository[T models.Entity[T]] struct {
	db    dbx.DBTX
	table string
}

// NewSQLiteRepository binds a repository for kind to db.
func NewSQLiteRepository[T models.Entity[T]](db dbx.DBTX, kind models.Kind) (*SQLiteRepository[T], error) {
	table, err := TableFor(kind)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository[T]{db: db, table: table}, nil
}

func (r *SQLiteRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE sync_status <> ? ORDER BY created_at DESC, rowid DESC`, r.table)
	rows, err := r.db.QueryContext(ctx, query, models.StatusPendingDelete)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", r.table, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", r.table, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.table, err)
	}
	return result, nil
}

func (r *SQLiteRepository[T]) GetByID(ctx context.Context, id string) (*models.Cached[T], error) {
	query := fmt.Sprintf(`SELECT payload, sync_status FROM %s WHERE id = ?`, r.table)

	var payload []byte
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", r.table, id, err)
	}

	var item T
	if err := json.Unmarshal(payload, &item); err != nil {
		return nil, fmt.Errorf("failed to decode %s[%s]: %w", r.table, id, err)
	}
	return &models.Cached[T]{Entity: item, Status: models.SyncStatus(status)}, nil
}

func (r *SQLiteRepository[T]) ReplaceSynced(ctx context.Context, items []T) error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE sync_status = ?`, r.table)
	if _, err := r.db.ExecContext(ctx, del, models.StatusSynced); err != nil {
		return fmt.Errorf("failed to clear synced %s: %w", r.table, err)
	}

	ins := fmt.Sprintf(`INSERT INTO %s (id, payload, sync_status, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`, r.table)
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode %s[%s]: %w", r.table, item.GetID(), err)
		}
		if _, err := r.db.ExecContext(ctx, ins, item.GetID(), payload, models.StatusSynced, stamp(item.GetCreatedAt())); err != nil {
			return fmt.Errorf("failed to insert %s[%s]: %w", r.table, item.GetID(), err)
		}
	}
	return nil
}

func (r *SQLiteRepository[T]) Put(ctx context.Context, item T, status models.SyncStatus) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s[%s]: %w", r.table, item.GetID(), err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, payload, sync_status, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload,
			sync_status = excluded.sync_status,
			created_at = excluded.created_at`, r.table)
	if _, err := r.db.ExecContext(ctx, query, item.GetID(), payload, status, stamp(item.GetCreatedAt())); err != nil {
		return fmt.Errorf("failed to put %s[%s]: %w", r.table, item.GetID(), err)
	}
	return nil
}

func (r *SQLiteRepository[T]) SetStatus(ctx context.Context, id string, status models.SyncStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE id = ?`, r.table)
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set status of %s[%s]: %w", r.table, id, err)
	}
	return expectOne(res, id)
}

func (r *SQLiteRepository[T]) Patch(ctx context.Context, id string, fields map[string]any) error {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, r.table)
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s[%s]: %w", r.table, id, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("failed to decode %s[%s]: %w", r.table, id, err)
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}

	// round-trip through T so unknown keys are dropped
	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var item T
	if err := json.Unmarshal(merged, &item); err != nil {
		return fmt.Errorf("failed to apply patch to %s[%s]: %w", r.table, id, err)
	}
	if payload, err = json.Marshal(item); err != nil {
		return err
	}

	upd := fmt.Sprintf(`UPDATE %s SET payload = ? WHERE id = ?`, r.table)
	if _, err := r.db.ExecContext(ctx, upd, payload, id); err != nil {
		return fmt.Errorf("failed to patch %s[%s]: %w", r.table, id, err)
	}
	return nil
}

func (r *SQLiteRepository[T]) Remap(ctx context.Context, oldID, newID string, status models.SyncStatus) error {
	cached, err := r.GetByID(ctx, oldID)
	if err != nil {
		return err
	}
	if err := r.Delete(ctx, oldID); err != nil {
		return err
	}
	return r.Put(ctx, cached.Entity.WithID(newID), status)
}

func (r *SQLiteRepository[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.table, id, err)
	}
	return nil
}

func (r *SQLiteRepository[T]) CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error) {
	query := fmt.Sprintf(`SELECT sync_status, COUNT(*) FROM %s GROUP BY sync_status`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	defer rows.Close()

	result := make(map[models.SyncStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[models.SyncStatus(status)] = n
	}
	return result, rows.Err()
}

func (r *SQLiteRepository[T]) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.table, err)
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UnixNano()
	}
	return t.UnixNano()
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, common.ErrNotFound)
	}
	return nil
}
