package pending

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localdb"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func addOp(t *testing.T, kind models.Kind, id string, at time.Time) models.PendingOperation {
	t.Helper()
	var (
		op  models.PendingOperation
		err error
	)
	switch kind {
	case models.KindWords:
		op, err = models.NewAddOperation(kind, models.Word{ID: id, Word: "w-" + id, CreatedAt: at}, at)
	default:
		op, err = models.NewAddOperation(kind, models.Sentence{ID: id, Sentence: "s-" + id, CreatedAt: at}, at)
	}
	require.NoError(t, err)
	return op
}

func opIDs(ops []models.PendingOperation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.ID)
	}
	return out
}

func TestEnqueue_UpsertsByDeterministicID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	op := addOp(t, models.KindWords, "temp_1", t0)
	require.NoError(t, r.Enqueue(ctx, op))
	require.NoError(t, r.Enqueue(ctx, op))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListOrderedByAge_FIFOPerKind(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindWords, "temp_b", t0.Add(2*time.Second))))
	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindWords, "temp_a", t0)))
	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindSentences, "temp_s", t0.Add(time.Second))))
	require.NoError(t, r.Enqueue(ctx, models.NewDeleteOperation(models.KindWords, "srv-1", t0.Add(time.Second))))

	words, err := r.ListOrderedByAge(ctx, models.KindWords)
	require.NoError(t, err)
	assert.Equal(t, []string{"words:add:temp_a", "words:delete:srv-1", "words:add:temp_b"}, opIDs(words))

	sentences, err := r.ListOrderedByAge(ctx, models.KindSentences)
	require.NoError(t, err)
	assert.Equal(t, []string{"sentences:add:temp_s"}, opIDs(sentences))
	assert.Equal(t, t0.Add(time.Second).UnixNano(), sentences[0].CreatedAt.UnixNano())
}

func TestListOrderedByAge_TiesKeepInsertionOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindWords, "temp_2", t0)))
	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindWords, "temp_1", t0)))

	ops, err := r.ListOrderedByAge(ctx, models.KindWords)
	require.NoError(t, err)
	assert.Equal(t, []string{"words:add:temp_2", "words:add:temp_1"}, opIDs(ops))
}

func TestDequeueAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	op := addOp(t, models.KindWords, "temp_1", t0)
	require.NoError(t, r.Enqueue(ctx, op))

	got, err := r.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpAdd, got.Op)
	assert.Equal(t, "temp_1", got.EntityID)
	assert.JSONEq(t, string(op.Payload), string(got.Payload))

	require.NoError(t, r.Dequeue(ctx, op.ID))
	_, err = r.Get(ctx, op.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, r.Dequeue(ctx, op.ID))
}

func TestRemapEntity_RewritesLaterOperations(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, models.NewDeleteOperation(models.KindWords, "temp_1", t0)))
	require.NoError(t, r.Enqueue(ctx, models.NewDeleteOperation(models.KindSentences, "temp_1", t0)))

	require.NoError(t, r.RemapEntity(ctx, models.KindWords, "temp_1", "srv-1"))

	words, err := r.ListOrderedByAge(ctx, models.KindWords)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "words:delete:srv-1", words[0].ID)
	assert.Equal(t, "srv-1", words[0].EntityID)
	assert.JSONEq(t, `{"id":"srv-1"}`, string(words[0].Payload))

	sentences, err := r.ListOrderedByAge(ctx, models.KindSentences)
	require.NoError(t, err)
	assert.Equal(t, "temp_1", sentences[0].EntityID, "other kinds are untouched")
}

func TestMarkFailed_DeadLettersAtCap(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	op := addOp(t, models.KindWords, "temp_1", t0)
	require.NoError(t, r.Enqueue(ctx, op))

	dead, err := r.MarkFailed(ctx, op.ID, "remote unavailable", 2)
	require.NoError(t, err)
	assert.False(t, dead)

	got, err := r.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "remote unavailable", got.LastError)

	dead, err = r.MarkFailed(ctx, op.ID, "remote unavailable", 2)
	require.NoError(t, err)
	assert.True(t, dead)

	ready, err := r.ListOrderedByAge(ctx, models.KindWords)
	require.NoError(t, err)
	assert.Empty(t, ready)

	failed, err := r.ListFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{op.ID}, opIDs(failed))

	total, err := r.Count(ctx)
	require.NoError(t, err)
	readyN, err := r.CountReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, readyN)

	require.NoError(t, r.Retry(ctx, op.ID))
	readyN, err = r.CountReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, readyN)

	require.ErrorIs(t, r.Retry(ctx, "words:add:nope"), common.ErrNotFound)
}

func TestMarkFailed_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.MarkFailed(context.Background(), "words:add:nope", "x", 5)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, addOp(t, models.KindWords, "temp_1", t0)))
	require.NoError(t, r.Clear(ctx))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
