// Package audioclips keeps synthesized pronunciation audio in the local
// database, keyed by the normalised "language:text" key.
package audioclips

import "context"

// Stats summarises the persistent audio tier.
type Stats struct {
	Count      int
	TotalBytes int64
}

type Repository interface {
	// Get returns (nil, nil) when key is not cached.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
}
