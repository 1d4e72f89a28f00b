// Package pending is the durable FIFO of mutations made while offline.
// Operations are keyed by kind, op and entity id, so enqueueing the same
// mutation twice overwrites the first entry.
package pending

import (
	"context"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
)

type Repository interface {
	Enqueue(ctx context.Context, op models.PendingOperation) error
	Dequeue(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.PendingOperation, error)

	// ListOrderedByAge returns replayable operations of kind, oldest first.
	ListOrderedByAge(ctx context.Context, kind models.Kind) ([]models.PendingOperation, error)
	// ListFailed returns dead-lettered operations of every kind.
	ListFailed(ctx context.Context) ([]models.PendingOperation, error)
	// ListByEntity returns every operation of kind that references entityID.
	ListByEntity(ctx context.Context, kind models.Kind, entityID string) ([]models.PendingOperation, error)

	// Count includes dead-lettered operations; CountReady does not.
	Count(ctx context.Context) (int, error)
	CountReady(ctx context.Context) (int, error)

	// RemapEntity rewrites operations that reference a temporary id.
	RemapEntity(ctx context.Context, kind models.Kind, oldID, newID string) error
	// MarkFailed records a replay failure. It reports true when the operation
	// reached maxRetries and was dead-lettered.
	MarkFailed(ctx context.Context, id, reason string, maxRetries int) (bool, error)
	// Retry returns a dead-lettered operation to the replay set.
	Retry(ctx context.Context, id string) error

	Clear(ctx context.Context) error
}
