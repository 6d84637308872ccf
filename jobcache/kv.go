package jobcache

import (
	"context"
	"path"
	"sort"
	"sync"

	"github.com/montazreklam/jobs_backend/config"
)

// KV is the narrow key-value surface the cache runs on. The production
// implementation is Redis; tests run against the in-memory one.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

type redisKV struct{}

func NewRedisKV() KV {
	return redisKV{}
}

func (redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := config.GetRedisValue(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (redisKV) Set(ctx context.Context, key string, value []byte) error {
	return config.SetRedisValue(key, string(value), 0)
}

func (redisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return config.RemoveRedisKey(keys...)
}

func (redisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	return config.ScanRedisKeys(pattern)
}

// MemoryKV is a map-backed KV for tests and the cache-rebuild tool.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
