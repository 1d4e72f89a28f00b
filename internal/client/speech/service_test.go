package speech

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	putErr  error
	handles []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok
}

func (m *memCache) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return m.putErr
}

func (m *memCache) Handle(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return "", false, nil
	}
	m.handles = append(m.handles, key)
	return "/tmp/" + key + ".mp3", true, nil
}

type scriptedSynth struct {
	mu    sync.Mutex
	errs  []error
	data  []byte
	calls int
	delay time.Duration
}

func (s *scriptedSynth) Synthesize(ctx context.Context, _, _ string) ([]byte, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.data, nil
}

type recorder struct {
	mu     sync.Mutex
	played []string
	said   []string
	err    error
}

func (r *recorder) Play(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, path)
	return r.err
}

func (r *recorder) Say(_ context.Context, text, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.said = append(r.said, language+":"+text)
	return nil
}

func fastOpts() Options {
	return Options{AttemptTimeout: 50 * time.Millisecond, BackoffBase: time.Millisecond}
}

func serverErr(code int) error {
	return &openai.APIError{HTTPStatusCode: code, Message: http.StatusText(code)}
}

func TestSpeak_CacheHitSkipsRemote(t *testing.T) {
	cache := newMemCache()
	cache.data["es:hola"] = []byte("mp3")
	synth := &scriptedSynth{}
	player := &recorder{}
	svc := NewService(cache, synth, player, &recorder{}, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), " Hola ", "ES")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Zero(t, synth.calls)
	assert.Equal(t, []string{"/tmp/es:hola.mp3"}, player.played)
}

func TestSpeak_FetchesCachesAndPlays(t *testing.T) {
	cache := newMemCache()
	synth := &scriptedSynth{data: []byte("fresh")}
	player := &recorder{}
	svc := NewService(cache, synth, player, &recorder{}, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "gato", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, []byte("fresh"), cache.data["es:gato"])
	assert.Len(t, player.played, 1)

	src, err = svc.Speak(context.Background(), "gato", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Equal(t, 1, synth.calls)
}

func TestSpeak_RetriesTransientFailures(t *testing.T) {
	cache := newMemCache()
	synth := &scriptedSynth{
		errs: []error{serverErr(503), serverErr(429), errors.New("connection reset")},
		data: []byte("ok"),
	}
	svc := NewService(cache, synth, nil, &recorder{}, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "perro", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, 4, synth.calls)
}

func TestSpeak_FallsBackAfterRetriesAreExhausted(t *testing.T) {
	cache := newMemCache()
	synth := &scriptedSynth{errs: []error{serverErr(500), serverErr(500), serverErr(500), serverErr(500), serverErr(500)}}
	fb := &recorder{}
	svc := NewService(cache, synth, &recorder{}, fb, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "pez", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, 1+DefaultMaxRetries, synth.calls)
	assert.Equal(t, []string{"es:pez"}, fb.said)
	assert.Empty(t, cache.data)
}

func TestSpeak_ClientErrorIsNotRetried(t *testing.T) {
	synth := &scriptedSynth{errs: []error{serverErr(401)}}
	fb := &recorder{}
	svc := NewService(newMemCache(), synth, nil, fb, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "sol", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, 1, synth.calls)
}

func TestSpeak_AttemptTimeoutIsRetried(t *testing.T) {
	synth := &scriptedSynth{delay: time.Second}
	fb := &recorder{}
	svc := NewService(newMemCache(), synth, nil, fb, logging.Discard(), Options{
		AttemptTimeout: 5 * time.Millisecond,
		BackoffBase:    time.Millisecond,
		MaxRetries:     1,
	})

	src, err := svc.Speak(context.Background(), "luna", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, 2, synth.calls)
}

func TestSpeak_EmptyAudioFallsBack(t *testing.T) {
	synth := &scriptedSynth{}
	fb := &recorder{}
	svc := NewService(newMemCache(), synth, nil, fb, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "mar", "es")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, 1, synth.calls)
}

func TestSpeak_PlaybackFailureFallsBack(t *testing.T) {
	cache := newMemCache()
	cache.data["en:sun"] = []byte("x")
	fb := &recorder{}
	svc := NewService(cache, &scriptedSynth{}, &recorder{err: errors.New("no device")}, fb, logging.Discard(), fastOpts())

	src, err := svc.Speak(context.Background(), "sun", "en")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, []string{"en:sun"}, fb.said)
}

func TestSpeak_NoFallbackConfigured(t *testing.T) {
	synth := &scriptedSynth{errs: []error{serverErr(400)}}
	svc := NewService(newMemCache(), synth, nil, nil, logging.Discard(), fastOpts())
	_, err := svc.Speak(context.Background(), "x", "en")
	require.Error(t, err)
}

func TestSpeak_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	synth := &scriptedSynth{errs: []error{serverErr(500)}}
	fb := &recorder{}
	svc := NewService(newMemCache(), synth, nil, fb, logging.Discard(), fastOpts())

	_, err := svc.Speak(ctx, "x", "en")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fb.said)
}
