package entities

import (
	"context"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
)

// Repository describes the cache table of one entity kind.
type Repository[T models.Entity[T]] interface {
	// GetAll returns visible records (everything except pending_delete),
	// newest first.
	GetAll(ctx context.Context) ([]T, error)

	// GetByID returns a record with its status, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Cached[T], error)

	// ReplaceSynced drops every synced row and inserts items as synced.
	// Rows with a pending status keep their content. Run it in a transaction.
	ReplaceSynced(ctx context.Context, items []T) error

	// Put inserts or replaces a record with the given status.
	Put(ctx context.Context, item T, status models.SyncStatus) error

	// SetStatus changes only the sync status of id.
	SetStatus(ctx context.Context, id string, status models.SyncStatus) error

	// Patch merges fields into the stored payload. Status is untouched.
	Patch(ctx context.Context, id string, fields map[string]any) error

	// Remap moves the record stored under oldID to newID with the given status.
	Remap(ctx context.Context, oldID, newID string, status models.SyncStatus) error

	// Delete removes a record; a missing row is not an error.
	Delete(ctx context.Context, id string) error

	// CountByStatus groups row counts by sync status.
	CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error)

	// Clear removes every row.
	Clear(ctx context.Context) error
}
