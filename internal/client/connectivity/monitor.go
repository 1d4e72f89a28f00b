// Package connectivity tracks whether the remote store is reachable and
// starts a sync pass whenever the client comes back online.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/services"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/aaajiao/vocab-tracker-sub000/internal/metrics"
)

type State string

const (
	StateOnline  State = "ONLINE"
	StateOffline State = "OFFLINE"
)

const (
	DefaultProbeInterval     = 5 * time.Second
	DefaultProbeTimeout      = 3 * time.Second
	DefaultSyncCheckInterval = 30 * time.Second
)

// Prober checks that the remote store answers.
type Prober interface {
	Ping(ctx context.Context) error
}

// Syncer is the part of the sync service the monitor drives.
type Syncer interface {
	SyncPendingOperations(ctx context.Context, owner string) (services.SyncResult, error)
	CountReady(ctx context.Context) (int, error)
	InFlight() bool
}

// OwnerSource resolves the signed-in user.
type OwnerSource interface {
	OwnerID(ctx context.Context) (string, error)
}

type Options struct {
	ProbeInterval     time.Duration
	ProbeTimeout      time.Duration
	SyncCheckInterval time.Duration

	// OnStateChange is called after every transition.
	OnStateChange func(State)
	// OnSyncDone is called after every sync pass the monitor started.
	OnSyncDone func(services.SyncResult, error)
}

// Monitor is an edge-triggered ONLINE/OFFLINE state machine. It starts
// OFFLINE. Only the OFFLINE to ONLINE edge triggers a sync; while online a
// periodic check triggers one when ready operations are queued. At most one
// triggered pass runs at a time and triggers during a pass are dropped.
type Monitor struct {
	prober  Prober
	syncer  Syncer
	owner   OwnerSource
	logger  logging.Logger
	metrics *metrics.Metrics
	opts    Options

	online  atomic.Bool
	syncing atomic.Bool
	wg      sync.WaitGroup
}

func NewMonitor(prober Prober, syncer Syncer, owner OwnerSource, logger logging.Logger, m *metrics.Metrics, opts Options) *Monitor {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.SyncCheckInterval <= 0 {
		opts.SyncCheckInterval = DefaultSyncCheckInterval
	}
	m.SetOnline(false)
	return &Monitor{
		prober:  prober,
		syncer:  syncer,
		owner:   owner,
		logger:  logger.With("component", "connectivity"),
		metrics: m,
		opts:    opts,
	}
}

func (m *Monitor) IsOnline() bool { return m.online.Load() }

func (m *Monitor) State() State {
	if m.IsOnline() {
		return StateOnline
	}
	return StateOffline
}

// SetOnline injects a connectivity observation.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	if m.online.Swap(online) == online {
		return
	}
	state := m.State()
	m.metrics.SetOnline(online)
	m.logger.Info(ctx, "connectivity changed", "state", string(state))
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(state)
	}
	if online {
		m.TriggerSync(ctx)
	}
}

// Probe pings the remote store once and records the outcome.
func (m *Monitor) Probe(ctx context.Context) {
	if m.prober == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, m.opts.ProbeTimeout)
	err := m.prober.Ping(pctx)
	cancel()
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil && m.IsOnline() {
		m.logger.Debug(ctx, "probe failed", "error", err)
	}
	m.SetOnline(ctx, err == nil)
}

// CheckPending triggers a sync when online and ready operations are queued.
func (m *Monitor) CheckPending(ctx context.Context) {
	if !m.IsOnline() || m.syncer.InFlight() {
		return
	}
	n, err := m.syncer.CountReady(ctx)
	if err != nil {
		m.logger.Warn(ctx, "failed to count pending operations", "error", err)
		return
	}
	m.metrics.SetQueueDepth(n)
	if n > 0 {
		m.TriggerSync(ctx)
	}
}

// TriggerSync starts a sync pass in the background unless one is already
// running. It reports whether a pass was started.
func (m *Monitor) TriggerSync(ctx context.Context) bool {
	if !m.syncing.CompareAndSwap(false, true) {
		return false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.syncing.Store(false)

		owner, err := m.owner.OwnerID(ctx)
		if err != nil {
			if !errors.Is(err, services.ErrNotSignedIn) {
				m.logger.Warn(ctx, "cannot resolve owner for sync", "error", err)
			}
			return
		}

		res, err := m.syncer.SyncPendingOperations(ctx, owner)
		if err != nil {
			m.logger.Error(ctx, "sync failed", "error", err)
		}
		if m.opts.OnSyncDone != nil {
			m.opts.OnSyncDone(res, err)
		}
	}()
	return true
}

// Wait blocks until background sync passes have finished.
func (m *Monitor) Wait() { m.wg.Wait() }

// Run probes and checks the queue until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.wg.Wait()

	var probeC <-chan time.Time
	if m.prober != nil && m.opts.ProbeInterval > 0 {
		m.Probe(ctx)
		t := time.NewTicker(m.opts.ProbeInterval)
		defer t.Stop()
		probeC = t.C
	}

	check := time.NewTicker(m.opts.SyncCheckInterval)
	defer check.Stop()

	for {
		select {
		case <-probeC:
			m.Probe(ctx)
		case <-check.C:
			m.CheckPending(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
