package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

// MemoryStore keeps JSON-encoded values in a map. It is the fallback when
// the durable store is unavailable and a convenient fake in tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[Key][]byte
	quota  int64
	log    logging.Logger
}

func NewMemoryStore(quota int64, log logging.Logger) *MemoryStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &MemoryStore{values: make(map[Key][]byte), quota: quota, log: log.With("component", "storage", "mode", "memory")}
}

func (m *MemoryStore) Get(ctx context.Context, key Key, dst any) bool {
	m.mu.Lock()
	raw, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		m.log.Warn(ctx, "malformed value in storage, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

func (m *MemoryStore) Set(ctx context.Context, key Key, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		metrics.StorageWritesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		m.log.Error(ctx, "failed to write to storage", "key", key, "error", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 && m.sizeLocked(key)+int64(len(raw)) > m.quota {
		metrics.StorageWritesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		m.log.Error(ctx, "failed to write to storage", "key", key, "error", errQuotaExceeded)
		return false
	}
	m.values[key] = raw
	metrics.StorageWritesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return true
}

// SetRaw stores bytes without encoding. Used by tests to plant corrupt data.
func (m *MemoryStore) SetRaw(key Key, raw []byte) {
	m.mu.Lock()
	m.values[key] = bytes.Clone(raw)
	m.mu.Unlock()
}

func (m *MemoryStore) Remove(_ context.Context, key Key) bool {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return true
}

func (m *MemoryStore) IsAvailable(context.Context) bool { return true }

func (m *MemoryStore) Snapshot(context.Context) (map[Key]json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Key]json.RawMessage, len(m.values))
	for k, v := range m.values {
		out[k] = bytes.Clone(v)
	}
	return out, true
}

func (m *MemoryStore) Restore(ctx context.Context, values map[Key]json.RawMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		var total int64
		for k, v := range m.values {
			if _, replaced := values[k]; !replaced {
				total += int64(len(v))
			}
		}
		for _, v := range values {
			total += int64(len(v))
		}
		if total > m.quota {
			m.log.Error(ctx, "failed to restore storage", "error", errQuotaExceeded)
			return false
		}
	}
	for k, v := range values {
		m.values[k] = bytes.Clone(v)
	}
	return true
}

func (m *MemoryStore) Usage(context.Context) Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.quota
	if total <= 0 {
		total = DefaultQuota
	}
	return newUsage(m.sizeLocked(""), total)
}

func (m *MemoryStore) sizeLocked(exclude Key) int64 {
	var n int64
	for k, v := range m.values {
		if k != exclude {
			n += int64(len(v))
		}
	}
	return n
}
