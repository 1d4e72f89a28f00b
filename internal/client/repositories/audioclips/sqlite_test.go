package audioclips

import (
	"context"
	"testing"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db, err := localdb.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r := NewSQLiteRepository(db)

	got, err := r.Get(ctx, "en:hello")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, r.Put(ctx, "en:hello", []byte{1, 2, 3}))
	require.NoError(t, r.Put(ctx, "fr:bonjour", []byte{4, 5}))
	require.NoError(t, r.Put(ctx, "en:hello", []byte{9, 9, 9, 9}))

	got, err = r.Get(ctx, "en:hello")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 2, TotalBytes: 6}, stats)

	require.NoError(t, r.Delete(ctx, "fr:bonjour"))
	require.NoError(t, r.Delete(ctx, "fr:bonjour"))

	require.NoError(t, r.Clear(ctx))
	stats, err = r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestAudioRepository_ClosedDB(t *testing.T) {
	ctx := context.Background()
	db, err := localdb.Open(ctx, ":memory:")
	require.NoError(t, err)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err = r.Get(ctx, "en:x")
	require.ErrorContains(t, err, "failed to get audio[en:x]")
	_, err = r.Stats(ctx)
	require.ErrorContains(t, err, "failed to read audio stats")
}
