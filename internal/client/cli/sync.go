package cli

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"
)

func (a *App) Sync(ctx context.Context) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if !a.net.IsOnline() {
		n, err := a.sync.Count(ctx)
		if err != nil {
			return err
		}
		a.printf("Offline: %d operations queued, they will sync when the connection returns.", n)
		return nil
	}

	res, err := a.sync.SyncPendingOperations(ctx, a.owner)
	if err != nil {
		return err
	}
	a.printf("Synced %d, failed %d", res.Synced, res.Failed)
	for _, msg := range res.Errors {
		a.printf("  %s", msg)
	}
	if res.DeadLettered > 0 {
		a.printf("%d operations gave up after repeated failures, see 'pending'.", res.DeadLettered)
	}
	a.reload(ctx)
	return nil
}

// Pending lists the queue, including operations that stopped retrying.
func (a *App) Pending(ctx context.Context) error {
	total, err := a.sync.Count(ctx)
	if err != nil {
		return err
	}
	ready, err := a.sync.CountReady(ctx)
	if err != nil {
		return err
	}
	a.printf("%d queued, %d waiting to sync", total, ready)

	failed, err := a.sync.Failed(ctx)
	if err != nil {
		return err
	}
	for _, op := range failed {
		a.printf("  %s  tried %d times, queued %s: %s",
			op.ID, op.RetryCount, humanize.Time(op.CreatedAt), op.LastError)
	}
	if len(failed) > 0 {
		a.printf("Use 'retry <id>' or 'discard <id>'.")
	}
	return nil
}

func (a *App) Retry(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return errors.New("usage: retry <operation id>")
	}
	if err := a.sync.Retry(ctx, id); err != nil {
		return err
	}
	if a.net.IsOnline() && a.owner != "" {
		a.net.TriggerSync(ctx)
	}
	a.printf("Queued %s for another attempt.", id)
	return nil
}

func (a *App) Discard(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return errors.New("usage: discard <operation id>")
	}
	if err := a.sync.Discard(ctx, id); err != nil {
		return err
	}
	a.printf("Discarded %s.", id)
	return nil
}

// ClearCache wipes cached records, the queue and cached audio.
func (a *App) ClearCache(ctx context.Context) error {
	n, err := a.sync.Count(ctx)
	if err != nil {
		return err
	}
	prompt := "Clear all cached data?"
	if n > 0 {
		prompt = "Clear all cached data? Unsynced changes will be lost."
	}
	if !Confirm(a.reader, prompt, a.out) {
		a.printf("Cancelled.")
		return nil
	}

	if err := a.sync.Reset(ctx); err != nil {
		return err
	}
	if a.audio != nil {
		if err := a.audio.Clear(ctx); err != nil {
			return err
		}
	}
	a.undo = nil
	a.printf("Local caches cleared.")
	return nil
}

func (a *App) AudioStats(ctx context.Context) error {
	if a.audio == nil {
		return errors.New("audio cache is not configured")
	}
	st, err := a.audio.Stats(ctx)
	if err != nil {
		return err
	}
	a.printf("Audio cache: %d clips, %s", st.Count, humanize.Bytes(uint64(st.TotalBytes)))
	return nil
}
