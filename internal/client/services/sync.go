package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/pending"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/aaajiao/vocab-tracker-sub000/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxRetries is the number of failed replays after which an operation
// is dead-lettered.
const DefaultMaxRetries = 5

// Replayer applies queued operations of one kind. EntityService implements it.
type Replayer interface {
	Kind() models.Kind
	Replay(ctx context.Context, owner string, op models.PendingOperation) (string, error)
	Discard(ctx context.Context, opID string) error
	Clear(ctx context.Context) error
}

// SyncResult tallies one sync pass. Errors holds one message per failed or
// deferred operation.
type SyncResult struct {
	Synced       int
	Failed       int
	DeadLettered int
	Errors       []string
}

// SyncService replays the pending queue against the remote store.
//
// Contract:
//   - Kinds are replayed one after another in the order given; operations of
//     one kind oldest first.
//   - A failed operation stays queued and does not stop the pass. Later
//     operations on the same entity are deferred to the next pass.
//   - Concurrent calls for the same owner share one pass.
type SyncService interface {
	SyncPendingOperations(ctx context.Context, owner string) (SyncResult, error)
	InFlight() bool
	CountReady(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	Failed(ctx context.Context) ([]models.PendingOperation, error)
	Retry(ctx context.Context, opID string) error
	Discard(ctx context.Context, opID string) error

	// Reset wipes the cached records of every kind and then the queue.
	Reset(ctx context.Context) error
}

type syncService struct {
	queue      pending.Repository
	replayers  []Replayer
	maxRetries int
	logger     logging.Logger
	metrics    *metrics.Metrics

	group    singleflight.Group
	inFlight atomic.Bool
}

func NewSyncService(queue pending.Repository, maxRetries int, logger logging.Logger, m *metrics.Metrics, replayers ...Replayer) SyncService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &syncService{
		queue:      queue,
		replayers:  replayers,
		maxRetries: maxRetries,
		logger:     logger.With("component", "sync"),
		metrics:    m,
	}
}

func (s *syncService) InFlight() bool { return s.inFlight.Load() }

func (s *syncService) SyncPendingOperations(ctx context.Context, owner string) (SyncResult, error) {
	v, err, shared := s.group.Do(owner, func() (any, error) {
		return s.run(ctx, owner)
	})
	if shared {
		s.logger.Debug(ctx, "joined running sync pass")
	}
	res, _ := v.(SyncResult)
	return res, err
}

func (s *syncService) run(ctx context.Context, owner string) (SyncResult, error) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	var res SyncResult
	for _, r := range s.replayers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.replayKind(ctx, owner, r, &res); err != nil {
			return res, err
		}
	}

	depth, err := s.queue.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to count pending operations", "error", err)
	}
	s.metrics.ObserveSyncPass(depth)
	s.logger.Info(ctx, "sync pass finished",
		"synced", res.Synced, "failed", res.Failed, "dead_lettered", res.DeadLettered, "remaining", depth)
	return res, nil
}

func (s *syncService) replayKind(ctx context.Context, owner string, r Replayer, res *SyncResult) error {
	kind := r.Kind()
	log := s.logger.With("kind", string(kind))

	ops, err := s.queue.ListOrderedByAge(ctx, kind)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", kind, err))
		log.Error(ctx, "failed to read pending operations", "error", err)
		return nil
	}

	remapped := make(map[string]string)
	blocked := make(map[string]bool)

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}

		if newID, ok := remapped[op.EntityID]; ok {
			moved, err := op.Remapped(newID)
			if err == nil {
				op = moved
			}
		}

		if blocked[op.EntityID] {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s %s %s: deferred after earlier failure", kind, op.Op, op.EntityID))
			s.metrics.ObserveSyncOp(string(kind), string(op.Op), "deferred")
			continue
		}

		serverID, err := r.Replay(ctx, owner, op)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s %s %s: %v", kind, op.Op, op.EntityID, err))
			blocked[op.EntityID] = true
			s.metrics.ObserveSyncOp(string(kind), string(op.Op), "failed")

			dead, merr := s.queue.MarkFailed(ctx, op.ID, err.Error(), s.maxRetries)
			if merr != nil {
				log.Error(ctx, "failed to record replay failure", "op", op.ID, "error", merr)
			}
			if dead {
				res.DeadLettered++
				log.Warn(ctx, "operation dead-lettered", "op", op.ID, "error", err)
			} else {
				log.Debug(ctx, "operation replay failed", "op", op.ID, "error", err)
			}
			continue
		}

		if op.Op == models.OpAdd && serverID != "" {
			remapped[op.EntityID] = serverID
		}
		res.Synced++
		s.metrics.ObserveSyncOp(string(kind), string(op.Op), "synced")
		log.Debug(ctx, "operation replayed", "op", op.ID, "server_id", serverID)
	}
	return nil
}

func (s *syncService) CountReady(ctx context.Context) (int, error) {
	return s.queue.CountReady(ctx)
}

func (s *syncService) Count(ctx context.Context) (int, error) {
	return s.queue.Count(ctx)
}

func (s *syncService) Failed(ctx context.Context) ([]models.PendingOperation, error) {
	return s.queue.ListFailed(ctx)
}

func (s *syncService) Retry(ctx context.Context, opID string) error {
	return s.queue.Retry(ctx, opID)
}

func (s *syncService) Discard(ctx context.Context, opID string) error {
	op, err := s.queue.Get(ctx, opID)
	if err != nil {
		return err
	}
	for _, r := range s.replayers {
		if r.Kind() == op.Kind {
			return r.Discard(ctx, opID)
		}
	}
	return fmt.Errorf("no replayer for kind %q", op.Kind)
}

func (s *syncService) Reset(ctx context.Context) error {
	for _, r := range s.replayers {
		if err := r.Clear(ctx); err != nil {
			return fmt.Errorf("clear %s cache: %w", r.Kind(), err)
		}
	}
	if err := s.queue.Clear(ctx); err != nil {
		return err
	}
	s.metrics.SetQueueDepth(0)
	s.logger.Info(ctx, "local caches cleared")
	return nil
}
