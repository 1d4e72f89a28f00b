// Package services contains the client's application services: the cached
// entity services for words and sentences, the sync orchestrator, settings
// and the one-off legacy import.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localstore"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/google/uuid"
)

// Connectivity reports the current online state.
type Connectivity interface {
	IsOnline() bool
}

// AudioEvictor drops cached pronunciation audio for a deleted record.
type AudioEvictor interface {
	Evict(ctx context.Context, language, text string)
}

// Phase tells how a delete ended.
type Phase int

const (
	// PhaseTentative: removed from the in-memory view only.
	PhaseTentative Phase = iota
	// PhaseCommitted: the removal is durable (remote or queued).
	PhaseCommitted
	// PhaseRolledBack: the removal failed and the record is back in place.
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseTentative:
		return "tentative"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Transition describes a delete: the record, the position it held in the
// view and the phase the operation ended in.
type Transition[T any] struct {
	Entity T
	Index  int
	Phase  Phase
}

// EntityService is the cached CRUD service of one entity kind. It keeps an
// in-memory view ordered newest first, mirrors it to the local store and
// branches every write on connectivity.
type EntityService[T models.Entity[T]] struct {
	kind    models.Kind
	remote  remote.Collection[T]
	local   *localstore.Store[T]
	net     Connectivity
	evictor AudioEvictor
	logger  logging.Logger
	now     func() time.Time

	mu    sync.RWMutex
	items []T
}

func NewEntityService[T models.Entity[T]](
	local *localstore.Store[T],
	rem remote.Collection[T],
	net Connectivity,
	evictor AudioEvictor,
	logger logging.Logger,
) *EntityService[T] {
	return &EntityService[T]{
		kind:    local.Kind(),
		remote:  rem,
		local:   local,
		net:     net,
		evictor: evictor,
		logger:  logger.With("component", "entity_service", "kind", string(local.Kind())),
		now:     time.Now,
	}
}

func (s *EntityService[T]) Kind() models.Kind { return s.kind }

// Items returns a copy of the current view.
func (s *EntityService[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Find returns the record with id from the current view.
func (s *EntityService[T]) Find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.GetID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Load fills the view from the local cache first, then, when online,
// refreshes it from the remote store. The view is usable as soon as the
// local read finishes; a remote failure leaves the cached view in place.
func (s *EntityService[T]) Load(ctx context.Context, owner string) error {
	s.setItems(s.local.GetAll(ctx))

	if !s.net.IsOnline() {
		return nil
	}

	fresh, err := s.remote.Select(ctx, owner)
	if err != nil {
		if !errors.Is(err, remote.ErrParseFailed) {
			s.logger.Warn(ctx, "remote refresh failed, keeping cached view", "error", err)
			return err
		}
		s.logger.Warn(ctx, "skipped undecodable remote records", "error", err)
	}

	s.local.PutAll(ctx, fresh)
	if merged := s.local.GetAll(ctx); merged != nil {
		s.setItems(merged)
	} else {
		s.setItems(fresh)
	}
	return nil
}

// Reload refreshes the view from the local cache only.
func (s *EntityService[T]) Reload(ctx context.Context) {
	if items := s.local.GetAll(ctx); items != nil {
		s.setItems(items)
	}
}

// Add creates item. Online it is written to the remote store and cached as
// synced; offline it gets a temporary id, is cached as pending_add and its
// insert is queued.
func (s *EntityService[T]) Add(ctx context.Context, owner string, item T) (T, error) {
	if item.GetCreatedAt().IsZero() {
		item = item.WithCreatedAt(s.now())
	}
	return s.create(ctx, owner, item)
}

// Restore re-creates a previously deleted record with its original content
// and timestamp.
func (s *EntityService[T]) Restore(ctx context.Context, owner string, item T) (T, error) {
	cached, err := s.local.Get(ctx, item.GetID())
	hidden := err == nil && cached.Status == models.StatusPendingDelete

	// a delete still waiting in the queue is cancelled rather than re-inserted
	if hidden || !s.net.IsOnline() {
		restored, err := s.local.StageRestore(ctx, item)
		if err != nil {
			return item, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
		}
		s.insertSorted(restored)
		return restored, nil
	}
	return s.create(ctx, owner, item)
}

func (s *EntityService[T]) create(ctx context.Context, owner string, item T) (T, error) {
	if s.net.IsOnline() {
		id, err := s.remote.Insert(ctx, owner, uuid.NewString(), item)
		if err != nil {
			return item, fmt.Errorf("%w: %w", ErrRemoteWriteFailed, err)
		}
		item = item.WithID(id)
		s.local.PutOne(ctx, item, models.StatusSynced)
		s.insertSorted(item)
		return item, nil
	}

	item = item.WithID(models.NewTemporaryID())
	if err := s.local.StageAdd(ctx, item); err != nil {
		return item, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	s.insertSorted(item)
	return item, nil
}

// Delete removes id in two phases: the record leaves the view immediately
// (tentative), then the removal is made durable (committed) or undone and the
// record reinserted at its old position (rolled back).
func (s *EntityService[T]) Delete(ctx context.Context, owner, id string) (Transition[T], error) {
	tr, ok := s.removeTentative(id)
	if !ok {
		return tr, common.ErrNotFound
	}

	if s.evictor != nil {
		lang, text := tr.Entity.AudioText()
		s.evictor.Evict(ctx, lang, text)
	}

	// a temporary id never reached the remote store
	if models.IsTemporaryID(id) || !s.net.IsOnline() {
		if err := s.local.StageDelete(ctx, tr.Entity); err != nil {
			s.rollback(&tr)
			return tr, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
		}
		tr.Phase = PhaseCommitted
		return tr, nil
	}

	err := s.remote.Delete(ctx, owner, id)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		s.rollback(&tr)
		return tr, fmt.Errorf("%w: %w", ErrRemoteWriteFailed, err)
	}
	s.local.DeleteOne(ctx, id)
	tr.Phase = PhaseCommitted
	return tr, nil
}

// Patch edits fields of an existing record in place. Sync status is not
// changed. Offline, only records that have not reached the remote store yet
// can be edited.
func (s *EntityService[T]) Patch(ctx context.Context, owner, id string, fields map[string]any) (T, error) {
	current, ok := s.Find(id)
	if !ok {
		return current, common.ErrNotFound
	}

	if models.IsTemporaryID(id) || !s.net.IsOnline() {
		patched, err := s.local.StagePatch(ctx, id, fields)
		if errors.Is(err, localstore.ErrNotStaged) {
			return current, fmt.Errorf("edit %s: %w", id, ErrOffline)
		}
		if err != nil {
			return current, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
		}
		s.replace(patched)
		return patched, nil
	}

	if err := s.remote.Update(ctx, owner, id, fields); err != nil {
		return current, fmt.Errorf("%w: %w", ErrRemoteWriteFailed, err)
	}
	s.local.PatchOne(ctx, id, fields)
	patched := current
	if cached, err := s.local.Get(ctx, id); err == nil {
		patched = cached.Entity
	}
	s.replace(patched)
	return patched, nil
}

// Discard drops a queued operation of this kind and reloads the view.
func (s *EntityService[T]) Discard(ctx context.Context, opID string) error {
	if err := s.local.Discard(ctx, opID); err != nil {
		return err
	}
	s.Reload(ctx)
	return nil
}

// Clear empties the local cache of this kind and the view.
func (s *EntityService[T]) Clear(ctx context.Context) error {
	if err := s.local.Clear(ctx); err != nil {
		return err
	}
	s.setItems(nil)
	return nil
}

// Replay sends one queued operation to the remote store and finalises it
// locally. It returns the server id for inserts.
func (s *EntityService[T]) Replay(ctx context.Context, owner string, op models.PendingOperation) (string, error) {
	switch op.Op {
	case models.OpAdd:
		item, err := models.DecodePayload[T](op)
		if err != nil {
			return "", err
		}
		// the temporary id doubles as the idempotency key
		serverID, err := s.remote.Insert(ctx, owner, op.EntityID, item)
		if err != nil {
			return "", err
		}
		if err := s.local.CommitAdd(ctx, op, serverID); err != nil {
			return "", fmt.Errorf("commit %s: %w", op.ID, err)
		}
		s.replaceID(op.EntityID, serverID)
		return serverID, nil

	case models.OpDelete:
		if !models.IsTemporaryID(op.EntityID) {
			err := s.remote.Delete(ctx, owner, op.EntityID)
			if err != nil && !errors.Is(err, remote.ErrNotFound) {
				return "", err
			}
		}
		if err := s.local.CommitDelete(ctx, op); err != nil {
			return "", fmt.Errorf("commit %s: %w", op.ID, err)
		}
		return "", nil

	default:
		return "", fmt.Errorf("unknown operation %q", op.Op)
	}
}

func (s *EntityService[T]) setItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *EntityService[T]) insertSorted(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.GetID() == item.GetID() {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	pos := len(s.items)
	for i, it := range s.items {
		if !item.GetCreatedAt().Before(it.GetCreatedAt()) {
			pos = i
			break
		}
	}
	s.items = append(s.items, item)
	copy(s.items[pos+1:], s.items[pos:])
	s.items[pos] = item
}

func (s *EntityService[T]) removeTentative(id string) (Transition[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.GetID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return Transition[T]{Entity: it, Index: i, Phase: PhaseTentative}, true
		}
	}
	return Transition[T]{Index: -1}, false
}

func (s *EntityService[T]) rollback(tr *Transition[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := tr.Index
	if idx > len(s.items) {
		idx = len(s.items)
	}
	s.items = append(s.items, tr.Entity)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = tr.Entity
	tr.Phase = PhaseRolledBack
}

func (s *EntityService[T]) replace(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.GetID() == item.GetID() {
			s.items[i] = item
			return
		}
	}
}

func (s *EntityService[T]) replaceID(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.GetID() == oldID {
			s.items[i] = it.WithID(newID)
			return
		}
	}
}
