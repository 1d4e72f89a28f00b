package audio

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

const DefaultSessionCapacity = 50

type sessionEntry struct {
	data []byte
	path string
}

// session is the per-process LRU in front of the persistent tier. An entry
// may own a temp file handed to the player; the file is removed when the
// entry leaves the cache.
type session struct {
	fs  afero.Fs
	dir string

	// mu serialises entry mutation; the evict callback runs under it.
	mu    sync.Mutex
	cache *lru.Cache[string, *sessionEntry]
}

func newSession(fs afero.Fs, dir string, capacity int) *session {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	s := &session{fs: fs, dir: dir}
	// only fails for a non-positive size
	s.cache, _ = lru.NewWithEvict(capacity, func(_ string, e *sessionEntry) {
		s.release(e)
	})
	return s
}

func (s *session) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return e.data, true
}

func (s *session) add(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Add does not report a replaced value, so drop the old entry first
	s.cache.Remove(key)
	s.cache.Add(key, &sessionEntry{data: data})
}

// handle returns a file path holding the audio of key, creating it on first
// use.
func (s *session) handle(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	if e.path != "" {
		return e.path, true, nil
	}

	f, err := afero.TempFile(s.fs, s.dir, "audio-*.mp3")
	if err != nil {
		return "", false, fmt.Errorf("create audio handle: %w", err)
	}
	if _, err := f.Write(e.data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(f.Name())
		return "", false, fmt.Errorf("write audio handle: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(f.Name())
		return "", false, err
	}
	e.path = f.Name()
	return e.path, true, nil
}

func (s *session) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
}

func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

func (s *session) len() int {
	return s.cache.Len()
}

func (s *session) contains(key string) bool {
	return s.cache.Contains(key)
}

// release revokes the transient handle of an entry leaving the cache.
func (s *session) release(e *sessionEntry) {
	if e.path != "" {
		_ = s.fs.Remove(e.path)
		e.path = ""
	}
}
