package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/audioclips"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/aaajiao/vocab-tracker-sub000/internal/metrics"
	"github.com/spf13/afero"
)

// SharedStore is an optional tier shared between devices.
type SharedStore interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	// SessionCapacity bounds the in-session LRU. Zero means the default.
	SessionCapacity int
	// Fs holds the temp files handed out by Handle. Defaults to the OS.
	Fs afero.Fs
	// TempDir is where handles are created. Empty means the system default.
	TempDir string
	Shared  SharedStore
}

// Cache is the audio byte cache. Audio is derived data: lookup failures are
// logged and reported as misses.
type Cache struct {
	repo    audioclips.Repository
	shared  SharedStore
	session *session
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewCache(repo audioclips.Repository, logger logging.Logger, m *metrics.Metrics, opts Options) *Cache {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return &Cache{
		repo:    repo,
		shared:  opts.Shared,
		session: newSession(fs, dir, opts.SessionCapacity),
		logger:  logger.With("component", "audio_cache"),
		metrics: m,
	}
}

// Get looks key up in every tier, filling faster tiers on a hit.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if data, ok := c.session.get(key); ok {
		c.metrics.ObserveAudio("session", true)
		return data, true
	}
	c.metrics.ObserveAudio("session", false)

	data, err := c.repo.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "audio cache read failed", "key", key, "error", err)
	}
	if len(data) > 0 {
		c.metrics.ObserveAudio("local", true)
		c.session.add(key, data)
		return data, true
	}
	c.metrics.ObserveAudio("local", false)

	if c.shared == nil {
		return nil, false
	}
	data, err = c.shared.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "shared audio read failed", "key", key, "error", err)
	}
	if len(data) == 0 {
		c.metrics.ObserveAudio("shared", false)
		return nil, false
	}
	c.metrics.ObserveAudio("shared", true)
	if err := c.repo.Put(ctx, key, data); err != nil {
		c.logger.Warn(ctx, "audio cache write failed", "key", key, "error", err)
	}
	c.session.add(key, data)
	return data, true
}

// Put stores data in the session and local tiers and writes it through to
// the shared tier.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty audio for %q", key)
	}
	c.session.add(key, data)
	if err := c.repo.Put(ctx, key, data); err != nil {
		return err
	}
	if c.shared != nil {
		if err := c.shared.Put(ctx, key, data); err != nil {
			c.logger.Warn(ctx, "shared audio write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.session.remove(key)
	if err := c.repo.Delete(ctx, key); err != nil {
		return err
	}
	if c.shared != nil {
		if err := c.shared.Delete(ctx, key); err != nil {
			c.logger.Warn(ctx, "shared audio delete failed", "key", key, "error", err)
		}
	}
	return nil
}

// Evict drops the audio of a deleted record.
func (c *Cache) Evict(ctx context.Context, language, text string) {
	key := Key(language, text)
	if err := c.Delete(ctx, key); err != nil {
		c.logger.Warn(ctx, "audio eviction failed", "key", key, "error", err)
	}
}

// Handle returns a playable file for key. The file stays valid until the
// entry leaves the session cache.
func (c *Cache) Handle(ctx context.Context, key string) (string, bool, error) {
	if _, ok := c.Get(ctx, key); !ok {
		return "", false, nil
	}
	return c.session.handle(key)
}

func (c *Cache) Stats(ctx context.Context) (audioclips.Stats, error) {
	return c.repo.Stats(ctx)
}

// Clear empties the session and local tiers. The shared tier is left alone.
func (c *Cache) Clear(ctx context.Context) error {
	c.session.clear()
	return c.repo.Clear(ctx)
}

// Close releases every session handle.
func (c *Cache) Close() error {
	c.session.clear()
	return nil
}
