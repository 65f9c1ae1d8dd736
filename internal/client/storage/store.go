// Package storage is the client's persistent store: JSON values under a few
// well-known keys, accessed through a contract that never returns errors.
// Every failure (quota, encoding, unavailable backend, corrupt data) is logged
// and reported as false so callers can keep working from memory.
package storage

import (
	"context"
	"encoding/json"
)

// Key names a persisted value.
type Key string

const (
	KeyEntries        Key = "diary_entries"
	KeyUserState      Key = "user_state"
	KeyDraftState     Key = "draft_state"
	KeyAppSettings    Key = "app_settings"
	KeyPendingDeletes Key = "pending_deletes"

	probeKey Key = "__storage_test__"
)

// Keys lists every key owned by the application.
var Keys = []Key{KeyEntries, KeyUserState, KeyDraftState, KeyAppSettings, KeyPendingDeletes}

// DefaultQuota mirrors the ~5 MiB budget of browser local storage.
const DefaultQuota int64 = 5 * 1024 * 1024

type Store interface {
	// Get decodes the value at key into dst. It returns false when the key
	// is missing, unreadable or malformed; dst must then be treated as unset.
	Get(ctx context.Context, key Key, dst any) bool
	// Set replaces the value at key. On false the prior value is intact.
	Set(ctx context.Context, key Key, value any) bool
	Remove(ctx context.Context, key Key) bool
	// IsAvailable writes and deletes a sentinel key.
	IsAvailable(ctx context.Context) bool

	// Snapshot returns the raw JSON of every present key.
	Snapshot(ctx context.Context) (map[Key]json.RawMessage, bool)
	// Restore replaces the given keys in one step; on false nothing changed.
	Restore(ctx context.Context, values map[Key]json.RawMessage) bool
	Usage(ctx context.Context) Usage
}

// Usage reports bytes used against the configured quota.
type Usage struct {
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
	Total     int64 `json:"total"`
}

func newUsage(used, total int64) Usage {
	avail := total - used
	if avail < 0 {
		avail = 0
	}
	return Usage{Used: used, Available: avail, Total: total}
}
