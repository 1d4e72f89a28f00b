// Package localstore is the durable cache facade used by the entity services.
//
// Plain reads and writes are best effort: engine failures are logged and
// degrade to empty results or no-ops. The Stage* and Commit* operations are
// transactional composites over the entity table and the pending queue and
// do return errors, because the caller's offline action depends on them.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/entities"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/pending"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
)

type Store[T models.Entity[T]] struct {
	db     *sql.DB
	kind   models.Kind
	logger logging.Logger
	now    func() time.Time
}

func New[T models.Entity[T]](db *sql.DB, kind models.Kind, logger logging.Logger) (*Store[T], error) {
	if _, err := entities.TableFor(kind); err != nil {
		return nil, err
	}
	return &Store[T]{
		db:     db,
		kind:   kind,
		logger: logger.With("component", "localstore", "kind", string(kind)),
		now:    time.Now,
	}, nil
}

func (s *Store[T]) Kind() models.Kind { return s.kind }

func (s *Store[T]) entities(h dbx.DBTX) *entities.SQLiteRepository[T] {
	// kind was validated in New
	r, _ := entities.NewSQLiteRepository[T](h, s.kind)
	return r
}

// GetAll returns the visible cached records, newest first, or nil when the
// cache cannot be read.
func (s *Store[T]) GetAll(ctx context.Context) []T {
	items, err := s.entities(s.db).GetAll(ctx)
	if err != nil {
		s.logger.Warn(ctx, "local cache read failed", "error", err)
		return nil
	}
	return items
}

// Get returns a single record with its status.
func (s *Store[T]) Get(ctx context.Context, id string) (*models.Cached[T], error) {
	return s.entities(s.db).GetByID(ctx, id)
}

// PutAll replaces the synced portion of the cache with the server view.
func (s *Store[T]) PutAll(ctx context.Context, items []T) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.entities(tx).ReplaceSynced(ctx, items)
	})
	if err != nil {
		s.logger.Warn(ctx, "local cache refresh failed", "count", len(items), "error", err)
	}
}

func (s *Store[T]) PutOne(ctx context.Context, item T, status models.SyncStatus) {
	if err := s.entities(s.db).Put(ctx, item, status); err != nil {
		s.logger.Warn(ctx, "local cache write failed", "id", item.GetID(), "error", err)
	}
}

func (s *Store[T]) DeleteOne(ctx context.Context, id string) {
	if err := s.entities(s.db).Delete(ctx, id); err != nil {
		s.logger.Warn(ctx, "local cache delete failed", "id", id, "error", err)
	}
}

func (s *Store[T]) PatchOne(ctx context.Context, id string, fields map[string]any) {
	err := s.entities(s.db).Patch(ctx, id, fields)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "local cache patch failed", "id", id, "error", err)
	}
}

func (s *Store[T]) CountByStatus(ctx context.Context) map[models.SyncStatus]int {
	counts, err := s.entities(s.db).CountByStatus(ctx)
	if err != nil {
		s.logger.Warn(ctx, "local cache count failed", "error", err)
		return map[models.SyncStatus]int{}
	}
	return counts
}

// Clear empties the cache table of this kind.
func (s *Store[T]) Clear(ctx context.Context) error {
	return s.entities(s.db).Clear(ctx)
}

// StageAdd caches item as pending_add and queues its insert.
func (s *Store[T]) StageAdd(ctx context.Context, item T) error {
	op, err := models.NewAddOperation(s.kind, item, s.now())
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.entities(tx).Put(ctx, item, models.StatusPendingAdd); err != nil {
			return err
		}
		return pending.NewSQLiteRepository(tx).Enqueue(ctx, op)
	})
}

// StageDelete records an offline delete of item. A record that never reached
// the remote store is dropped together with its queued insert; anything else
// is kept as pending_delete and a delete is queued. A record missing from the
// table is written back first so the queued delete always has its mirror.
func (s *Store[T]) StageDelete(ctx context.Context, item T) error {
	id := item.GetID()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ents := s.entities(tx)
		queue := pending.NewSQLiteRepository(tx)

		cached, err := ents.GetByID(ctx, id)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if models.IsTemporaryID(id) || (cached != nil && cached.Status == models.StatusPendingAdd) {
			if err := ents.Delete(ctx, id); err != nil {
				return err
			}
			return queue.Dequeue(ctx, models.PendingID(s.kind, models.OpAdd, id))
		}

		if cached != nil {
			err = ents.SetStatus(ctx, id, models.StatusPendingDelete)
		} else {
			err = ents.Put(ctx, item, models.StatusPendingDelete)
		}
		if err != nil {
			return err
		}
		return queue.Enqueue(ctx, models.NewDeleteOperation(s.kind, id, s.now()))
	})
}

// StageRestore undoes a delete while offline. A record still hidden as
// pending_delete is made visible again and its queued delete dropped;
// otherwise the record is re-added under a fresh temporary id.
func (s *Store[T]) StageRestore(ctx context.Context, item T) (T, error) {
	restored := item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ents := s.entities(tx)
		queue := pending.NewSQLiteRepository(tx)

		cached, err := ents.GetByID(ctx, item.GetID())
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if cached != nil && cached.Status == models.StatusPendingDelete {
			if err := ents.SetStatus(ctx, item.GetID(), models.StatusSynced); err != nil {
				return err
			}
			restored = cached.Entity
			return queue.Dequeue(ctx, models.PendingID(s.kind, models.OpDelete, item.GetID()))
		}

		restored = item.WithID(models.NewTemporaryID())
		op, err := models.NewAddOperation(s.kind, restored, s.now())
		if err != nil {
			return err
		}
		if err := ents.Put(ctx, restored, models.StatusPendingAdd); err != nil {
			return err
		}
		return queue.Enqueue(ctx, op)
	})
	return restored, err
}

// StagePatch edits a record that has not reached the remote store yet, so the
// queued insert carries the new fields.
func (s *Store[T]) StagePatch(ctx context.Context, id string, fields map[string]any) (T, error) {
	var patched T
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ents := s.entities(tx)
		queue := pending.NewSQLiteRepository(tx)

		cached, err := ents.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cached.Status != models.StatusPendingAdd {
			return fmt.Errorf("record %s is %s: %w", id, cached.Status, ErrNotStaged)
		}
		if err := ents.Patch(ctx, id, fields); err != nil {
			return err
		}
		if cached, err = ents.GetByID(ctx, id); err != nil {
			return err
		}
		patched = cached.Entity

		queued, err := queue.Get(ctx, models.PendingID(s.kind, models.OpAdd, id))
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		op, err := models.NewAddOperation(s.kind, patched, queued.CreatedAt)
		if err != nil {
			return err
		}
		op.RetryCount, op.LastError, op.Status = queued.RetryCount, queued.LastError, queued.Status
		return queue.Enqueue(ctx, op)
	})
	return patched, err
}

// CommitAdd finalises a replayed insert: the record moves to serverID as
// synced, the operation leaves the queue and later operations that still
// reference the temporary id are rewritten.
func (s *Store[T]) CommitAdd(ctx context.Context, op models.PendingOperation, serverID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ents := s.entities(tx)
		queue := pending.NewSQLiteRepository(tx)

		err := ents.Remap(ctx, op.EntityID, serverID, models.StatusSynced)
		if errors.Is(err, common.ErrNotFound) {
			item, derr := models.DecodePayload[T](op)
			if derr != nil {
				return derr
			}
			err = ents.Put(ctx, item.WithID(serverID), models.StatusSynced)
		}
		if err != nil {
			return err
		}
		if err := queue.Dequeue(ctx, op.ID); err != nil {
			return err
		}
		return queue.RemapEntity(ctx, s.kind, op.EntityID, serverID)
	})
}

// CommitDelete finalises a replayed delete.
func (s *Store[T]) CommitDelete(ctx context.Context, op models.PendingOperation) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.entities(tx).Delete(ctx, op.EntityID); err != nil {
			return err
		}
		return pending.NewSQLiteRepository(tx).Dequeue(ctx, op.ID)
	})
}

// Discard drops a queued operation and rolls the cached record back: a
// never-synced insert disappears, a pending delete becomes visible again.
func (s *Store[T]) Discard(ctx context.Context, opID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		queue := pending.NewSQLiteRepository(tx)
		op, err := queue.Get(ctx, opID)
		if err != nil {
			return err
		}
		if op.Kind != s.kind {
			return fmt.Errorf("operation %s belongs to %s", opID, op.Kind)
		}
		if err := queue.Dequeue(ctx, opID); err != nil {
			return err
		}
		ents := s.entities(tx)
		switch op.Op {
		case models.OpAdd:
			return ents.Delete(ctx, op.EntityID)
		case models.OpDelete:
			err := ents.SetStatus(ctx, op.EntityID, models.StatusSynced)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			return err
		}
		return nil
	})
}
