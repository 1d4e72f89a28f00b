// Package audio caches synthesized pronunciation audio. Lookups go through a
// bounded in-session LRU, then the local database, then an optional shared
// bucket.
package audio

import "strings"

// Key normalises a (language, text) pair into the cache key.
func Key(language, text string) string {
	return strings.ToLower(strings.TrimSpace(language)) + ":" + strings.ToLower(strings.TrimSpace(text))
}
