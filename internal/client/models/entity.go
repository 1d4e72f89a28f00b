// Package models defines the client-side vocabulary records and the
// bookkeeping types used by the offline cache and the sync queue.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind names an entity collection. Each kind has its own cache table and is
// replayed in its own sync pass.
type Kind string

const (
	KindWords     Kind = "words"
	KindSentences Kind = "sentences"
)

// Kinds lists the collections in replay order.
var Kinds = []Kind{KindWords, KindSentences}

// SyncStatus marks whether a cached record matches the remote store.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusPendingAdd    SyncStatus = "pending_add"
	StatusPendingDelete SyncStatus = "pending_delete"
)

// TempIDPrefix marks ids minted offline before the remote store assigned one.
const TempIDPrefix = "temp_"

// NewTemporaryID returns a fresh offline id.
func NewTemporaryID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTemporaryID reports whether id was minted offline.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Entity is implemented by every cached record type. Methods use value
// receivers so T itself satisfies Entity[T].
type Entity[T any] interface {
	GetID() string
	WithID(id string) T
	GetCreatedAt() time.Time
	WithCreatedAt(t time.Time) T
	// AudioText returns the language and text whose pronunciation may be cached.
	AudioText() (language, text string)
}

// Cached pairs a record with its local sync status.
type Cached[T any] struct {
	Entity T
	Status SyncStatus
}
