package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

const columns = `id, kind, op, entity_id, payload, created_at, retry_count, last_error, status`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, op models.PendingOperation) error {
	if op.Status == "" {
		op.Status = models.OpReady
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_operations (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			retry_count = excluded.retry_count,
			last_error = excluded.last_error,
			status = excluded.status
	`, op.ID, op.Kind, op.Op, op.EntityID, []byte(op.Payload), op.CreatedAt.UnixNano(),
		op.RetryCount, op.LastError, op.Status)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", op.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Dequeue(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to dequeue %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.PendingOperation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM pending_operations WHERE id = ?`, id)
	op, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending[%s]: %w", id, err)
	}
	return &op, nil
}

func (r *SQLiteRepository) ListOrderedByAge(ctx context.Context, kind models.Kind) ([]models.PendingOperation, error) {
	return r.list(ctx, `SELECT `+columns+` FROM pending_operations
		WHERE kind = ? AND status = ? ORDER BY created_at, rowid`, kind, models.OpReady)
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]models.PendingOperation, error) {
	return r.list(ctx, `SELECT `+columns+` FROM pending_operations
		WHERE status = ? ORDER BY created_at, rowid`, models.OpFailed)
}

func (r *SQLiteRepository) ListByEntity(ctx context.Context, kind models.Kind, entityID string) ([]models.PendingOperation, error) {
	return r.list(ctx, `SELECT `+columns+` FROM pending_operations
		WHERE kind = ? AND entity_id = ? ORDER BY created_at, rowid`, kind, entityID)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountReady(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations WHERE status = ?`, models.OpReady).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) RemapEntity(ctx context.Context, kind models.Kind, oldID, newID string) error {
	ops, err := r.ListByEntity(ctx, kind, oldID)
	if err != nil {
		return err
	}
	for _, op := range ops {
		moved, err := op.Remapped(newID)
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, `UPDATE pending_operations
			SET id = ?, entity_id = ?, payload = ? WHERE id = ?`,
			moved.ID, moved.EntityID, []byte(moved.Payload), op.ID)
		if err != nil {
			return fmt.Errorf("failed to remap %s: %w", op.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id, reason string, maxRetries int) (bool, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE pending_operations
		SET retry_count = retry_count + 1,
			last_error = ?,
			status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE status END
		WHERE id = ?`, reason, maxRetries, models.OpFailed, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s failed: %w", id, err)
	}
	op, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return op.Status == models.OpFailed, nil
}

func (r *SQLiteRepository) Retry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pending_operations
		SET status = ?, retry_count = 0, last_error = '' WHERE id = ?`, models.OpReady, id)
	if err != nil {
		return fmt.Errorf("failed to retry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations`); err != nil {
		return fmt.Errorf("failed to clear pending operations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.PendingOperation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending operations: %w", err)
	}
	defer rows.Close()

	result := make([]models.PendingOperation, 0)
	for rows.Next() {
		op, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending operation: %w", err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending operations: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (models.PendingOperation, error) {
	var (
		op        models.PendingOperation
		kind, typ string
		status    string
		payload   []byte
		created   int64
	)
	if err := s.Scan(&op.ID, &kind, &typ, &op.EntityID, &payload, &created,
		&op.RetryCount, &op.LastError, &status); err != nil {
		return op, err
	}
	op.Kind = models.Kind(kind)
	op.Op = models.OpKind(typ)
	op.Status = models.OpStatus(status)
	op.Payload = payload
	op.CreatedAt = time.Unix(0, created)
	return op, nil
}
