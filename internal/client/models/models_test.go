package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemporaryID(t *testing.T) {
	id := NewTemporaryID()
	assert.True(t, IsTemporaryID(id))
	assert.NotEqual(t, id, NewTemporaryID())
	assert.False(t, IsTemporaryID("5b6f0d0e-2f3c-4d1b-9b1e-000000000001"))
}

func TestPendingID_IsDeterministic(t *testing.T) {
	assert.Equal(t, "words:add:temp_1", PendingID(KindWords, OpAdd, "temp_1"))
	assert.Equal(t, PendingID(KindSentences, OpDelete, "x"), PendingID(KindSentences, OpDelete, "x"))
}

func TestWord_WithCreatedAtFillsDate(t *testing.T) {
	ts := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)
	w := Word{Word: "hola"}.WithCreatedAt(ts)
	assert.Equal(t, "2024-03-09", w.Date)

	kept := Word{Word: "hola", Date: "2020-01-01"}.WithCreatedAt(ts)
	assert.Equal(t, "2020-01-01", kept.Date)
}

func TestNewAddOperation_RemappedRewritesPayload(t *testing.T) {
	now := time.Now()
	w := Word{ID: "temp_a", Word: "bonjour", Language: "fr", CreatedAt: now}

	op, err := NewAddOperation(KindWords, w, now)
	require.NoError(t, err)
	assert.Equal(t, "words:add:temp_a", op.ID)
	assert.Equal(t, OpReady, op.Status)

	moved, err := op.Remapped("srv-1")
	require.NoError(t, err)
	assert.Equal(t, "words:add:srv-1", moved.ID)
	assert.Equal(t, "srv-1", moved.EntityID)

	got, err := DecodePayload[Word](moved)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ID)
	assert.Equal(t, "bonjour", got.Word)
}

func TestNewDeleteOperation_Remapped(t *testing.T) {
	op := NewDeleteOperation(KindSentences, "temp_b", time.Now())
	moved, err := op.Remapped("srv-2")
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(moved.Payload, &body))
	assert.Equal(t, "srv-2", body["id"])
	assert.Equal(t, "sentences:delete:srv-2", moved.ID)
}

func TestAudioText(t *testing.T) {
	lang, text := Sentence{Language: "ja", Sentence: "こんにちは"}.AudioText()
	assert.Equal(t, "ja", lang)
	assert.Equal(t, "こんにちは", text)
}
