package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localdb"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localstore"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/pending"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/stretchr/testify/require"
)

type fakeNet struct{ online atomic.Bool }

func (f *fakeNet) IsOnline() bool  { return f.online.Load() }
func (f *fakeNet) set(online bool) { f.online.Store(online) }

type fakeEvictor struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeEvictor) Evict(_ context.Context, language, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, language+":"+text)
}

// callLog records remote calls across collections in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

type fakeRemote[T models.Entity[T]] struct {
	name string
	log  *callLog

	mu        sync.Mutex
	rows      map[string]T
	byClient  map[string]string
	seq       int
	selectErr error
	insertErr map[string]error // by client id
	deleteErr error
	updateErr error
	updates   []map[string]any
	block     chan struct{}
	started   chan struct{}
}

func newFakeRemote[T models.Entity[T]](name string, log *callLog) *fakeRemote[T] {
	return &fakeRemote[T]{
		name:      name,
		log:       log,
		rows:      map[string]T{},
		byClient:  map[string]string{},
		insertErr: map[string]error{},
	}
}

func (f *fakeRemote[T]) seed(items ...T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		f.rows[it.GetID()] = it
	}
}

func (f *fakeRemote[T]) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

func (f *fakeRemote[T]) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeRemote[T]) Select(_ context.Context, _ string) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	out := make([]T, 0, len(f.rows))
	for _, it := range f.rows {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetCreatedAt().After(out[j].GetCreatedAt()) })
	return out, nil
}

func (f *fakeRemote[T]) Insert(_ context.Context, _ string, clientID string, item T) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.log != nil {
		f.log.add(f.name + ":insert")
	}
	if err := f.insertErr[clientID]; err != nil {
		return "", err
	}
	if id, ok := f.byClient[clientID]; ok {
		return id, nil
	}
	f.seq++
	id := fmt.Sprintf("%s-srv-%d", f.name, f.seq)
	f.byClient[clientID] = id
	f.rows[id] = item.WithID(id)
	return id, nil
}

func (f *fakeRemote[T]) Update(_ context.Context, _ string, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.rows[id]; !ok {
		return remote.ErrNotFound
	}
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeRemote[T]) Delete(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.log != nil {
		f.log.add(f.name + ":delete")
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return remote.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type env struct {
	db        *sql.DB
	net       *fakeNet
	evictor   *fakeEvictor
	log       *callLog
	wordsRem  *fakeRemote[models.Word]
	sentRem   *fakeRemote[models.Sentence]
	words     *WordService
	sentences *SentenceService
	queue     *pending.SQLiteRepository
	sync      SyncService
}

func newEnv(t *testing.T, maxRetries int) *env {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{db: db, net: &fakeNet{}, evictor: &fakeEvictor{}, log: &callLog{}}
	e.wordsRem = newFakeRemote[models.Word]("words", e.log)
	e.sentRem = newFakeRemote[models.Sentence]("sentences", e.log)

	e.words, err = NewWordService(db, e.wordsRem, e.net, e.evictor, logging.Discard())
	require.NoError(t, err)
	e.sentences, err = NewSentenceService(db, e.sentRem, e.net, e.evictor, logging.Discard())
	require.NoError(t, err)

	e.queue = pending.NewSQLiteRepository(db)
	e.sync = NewSyncService(e.queue, maxRetries, logging.Discard(), nil, e.words, e.sentences)
	return e
}

func (e *env) pendingCount(t *testing.T) int {
	t.Helper()
	n, err := e.queue.Count(context.Background())
	require.NoError(t, err)
	return n
}

func discardLogger() *logging.SlogLogger { return logging.Discard() }

func mustStore(t *testing.T, e *env) *localstore.Store[models.Word] {
	t.Helper()
	s, err := localstore.New[models.Word](e.db, models.KindWords, logging.Discard())
	require.NoError(t, err)
	return s
}

type failingInsert struct {
	*fakeRemote[models.Word]
	err error
}

func (f *failingInsert) Insert(context.Context, string, string, models.Word) (string, error) {
	return "", f.err
}

type partialSelect struct {
	*fakeRemote[models.Word]
	items []models.Word
}

func (p *partialSelect) Select(context.Context, string) ([]models.Word, error) {
	return p.items, remote.ErrParseFailed
}
