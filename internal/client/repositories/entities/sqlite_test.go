package entities

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

func newWords(t *testing.T, db *sql.DB) *SQLiteRepository[models.Word] {
	t.Helper()
	r, err := NewSQLiteRepository[models.Word](db, models.KindWords)
	require.NoError(t, err)
	return r
}

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func word(id, text string, minutes int) models.Word {
	return models.Word{ID: id, Word: text, Language: "en", CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func ids(items []models.Word) []string {
	out := make([]string, 0, len(items))
	for _, w := range items {
		out = append(out, w.ID)
	}
	return out
}

func TestTableFor(t *testing.T) {
	tbl, err := TableFor(models.KindSentences)
	require.NoError(t, err)
	assert.Equal(t, "sentences_cache", tbl)

	_, err = TableFor("notes")
	require.Error(t, err)
}

func TestGetAll_OrdersNewestFirstAndHidesPendingDelete(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, word("a", "apple", 1), models.StatusSynced))
	require.NoError(t, r.Put(ctx, word("b", "banana", 3), models.StatusPendingAdd))
	require.NoError(t, r.Put(ctx, word("c", "cherry", 2), models.StatusPendingDelete))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))
}

func TestReplaceSynced_KeepsPendingRows(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, word("old", "stale", 1), models.StatusSynced))
	require.NoError(t, r.Put(ctx, word("temp_1", "offline", 5), models.StatusPendingAdd))
	require.NoError(t, r.Put(ctx, word("gone", "deleted", 2), models.StatusPendingDelete))

	// server still has "gone" because the delete has not been replayed yet
	server := []models.Word{word("s1", "fresh", 4), word("gone", "deleted-server", 2)}
	require.NoError(t, r.ReplaceSynced(ctx, server))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp_1", "s1"}, ids(got))

	gone, err := r.GetByID(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDelete, gone.Status)
	assert.Equal(t, "deleted", gone.Entity.Word, "pending row content must win")

	_, err = r.GetByID(ctx, "old")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPatch_MergesFieldsAndKeepsStatus(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, word("temp_x", "run", 1), models.StatusPendingAdd))
	require.NoError(t, r.Patch(ctx, "temp_x", map[string]any{
		"example":    "I run daily.",
		"example_cn": "我每天跑步。",
		"id":         "ignored",
	}))

	got, err := r.GetByID(ctx, "temp_x")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAdd, got.Status)
	assert.Equal(t, "I run daily.", got.Entity.Example)
	assert.Equal(t, "我每天跑步。", got.Entity.ExampleCn)
	assert.Equal(t, "temp_x", got.Entity.ID)

	require.ErrorIs(t, r.Patch(ctx, "missing", map[string]any{"example": "x"}), common.ErrNotFound)
}

func TestRemap_MovesRowToServerID(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, word("temp_1", "tree", 1), models.StatusPendingAdd))
	require.NoError(t, r.Remap(ctx, "temp_1", "srv-9", models.StatusSynced))

	_, err := r.GetByID(ctx, "temp_1")
	require.ErrorIs(t, err, common.ErrNotFound)

	got, err := r.GetByID(ctx, "srv-9")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.Status)
	assert.Equal(t, "srv-9", got.Entity.ID)
	assert.Equal(t, "tree", got.Entity.Word)
}

func TestSetStatus_MissingRow(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)

	err := r.SetStatus(context.Background(), "nope", models.StatusSynced)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCountByStatusAndClear(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, word("a", "a", 1), models.StatusSynced))
	require.NoError(t, r.Put(ctx, word("b", "b", 2), models.StatusSynced))
	require.NoError(t, r.Put(ctx, word("temp_c", "c", 3), models.StatusPendingAdd))

	counts, err := r.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StatusSynced])
	assert.Equal(t, 1, counts[models.StatusPendingAdd])

	require.NoError(t, r.Clear(ctx))
	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSentencesTableIsSeparate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	words := newWords(t, db)
	sentences, err := NewSQLiteRepository[models.Sentence](db, models.KindSentences)
	require.NoError(t, err)

	require.NoError(t, words.Put(ctx, word("w1", "cat", 1), models.StatusSynced))
	require.NoError(t, sentences.Put(ctx, models.Sentence{ID: "s1", Sentence: "The cat sleeps.", SourceWords: []string{"cat"}, CreatedAt: base}, models.StatusSynced))

	got, err := sentences.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"cat"}, got[0].SourceWords)
}

func TestGetAll_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := newWords(t, db)
	require.NoError(t, db.Close())

	_, err := r.GetAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to select words_cache")
}
