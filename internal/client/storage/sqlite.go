package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/client/repositories/kv"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

var errQuotaExceeded = errors.New("storage quota exceeded")

// KVStore implements Store on top of a kv.Repository.
type KVStore struct {
	repo  kv.Repository
	quota int64
	log   logging.Logger
}

// NewKVStore builds a store; quota <= 0 disables the quota check.
func NewKVStore(repo kv.Repository, quota int64, log logging.Logger) *KVStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &KVStore{repo: repo, quota: quota, log: log.With("component", "storage")}
}

func (s *KVStore) Get(ctx context.Context, key Key, dst any) bool {
	raw, err := s.repo.Get(ctx, string(key))
	if err != nil {
		s.log.Error(ctx, "failed to read from storage", "key", key, "error", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn(ctx, "malformed value in storage, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

func (s *KVStore) Set(ctx context.Context, key Key, value any) bool {
	err := s.set(ctx, key, value)
	metrics.StorageWritesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error(ctx, "failed to write to storage", "key", key, "error", err)
		return false
	}
	return true
}

func (s *KVStore) set(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.checkQuota(ctx, key, int64(len(raw))); err != nil {
		return err
	}
	return s.repo.Set(ctx, string(key), raw)
}

func (s *KVStore) checkQuota(ctx context.Context, key Key, size int64) error {
	if s.quota <= 0 {
		return nil
	}
	others, err := s.repo.Size(ctx, string(key))
	if err != nil {
		return err
	}
	if others+size > s.quota {
		return errQuotaExceeded
	}
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key Key) bool {
	if err := s.repo.Delete(ctx, string(key)); err != nil {
		s.log.Error(ctx, "failed to remove from storage", "key", key, "error", err)
		return false
	}
	return true
}

func (s *KVStore) IsAvailable(ctx context.Context) bool {
	if err := s.repo.Set(ctx, string(probeKey), []byte(`"test"`)); err != nil {
		s.log.Error(ctx, "storage is not available", "error", err)
		return false
	}
	if err := s.repo.Delete(ctx, string(probeKey)); err != nil {
		s.log.Error(ctx, "storage is not available", "error", err)
		return false
	}
	return true
}

func (s *KVStore) Snapshot(ctx context.Context) (map[Key]json.RawMessage, bool) {
	all, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to snapshot storage", "error", err)
		return nil, false
	}
	out := make(map[Key]json.RawMessage, len(all))
	for k, v := range all {
		if Key(k) == probeKey {
			continue
		}
		out[Key(k)] = json.RawMessage(v)
	}
	return out, true
}

func (s *KVStore) Restore(ctx context.Context, values map[Key]json.RawMessage) bool {
	raw := make(map[string][]byte, len(values))
	var incoming int64
	for k, v := range values {
		raw[string(k)] = v
		incoming += int64(len(v))
	}

	if s.quota > 0 {
		current, err := s.repo.List(ctx)
		if err != nil {
			s.log.Error(ctx, "failed to restore storage", "error", err)
			return false
		}
		var kept int64
		for k, v := range current {
			if _, replaced := raw[k]; !replaced {
				kept += int64(len(v))
			}
		}
		if kept+incoming > s.quota {
			s.log.Error(ctx, "failed to restore storage", "error", errQuotaExceeded)
			return false
		}
	}

	err := s.repo.SetMany(ctx, raw)
	metrics.StorageWritesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error(ctx, "failed to restore storage", "error", err)
		return false
	}
	return true
}

func (s *KVStore) Usage(ctx context.Context) Usage {
	used, err := s.repo.Size(ctx, string(probeKey))
	if err != nil {
		s.log.Error(ctx, "failed to compute storage usage", "error", err)
		return Usage{}
	}
	total := s.quota
	if total <= 0 {
		total = DefaultQuota
	}
	return newUsage(used, total)
}
