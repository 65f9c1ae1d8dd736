package storage

import (
	"context"

	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

// WithFallback probes primary and returns it when usable, otherwise a
// memory-only store with the same quota. The bool reports whether the
// durable store is in use.
func WithFallback(ctx context.Context, primary Store, quota int64, log logging.Logger) (Store, bool) {
	if primary != nil && primary.IsAvailable(ctx) {
		return primary, true
	}
	if log == nil {
		log = logging.NewNop()
	}
	log.Warn(ctx, "persistent storage unavailable, running memory-only")
	return NewMemoryStore(quota, log), false
}
