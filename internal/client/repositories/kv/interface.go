package kv

import "context"

type Repository interface {
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany upserts all pairs atomically; on error nothing is written.
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
	// Size returns the total number of value bytes stored, optionally
	// excluding one key (used to evaluate a pending replacement).
	Size(ctx context.Context, excludeKey string) (int64, error)
}
