package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound 表示缓存不存在或已过期。
var ErrNotFound = errors.New("cache entry not found")

// Store 管理带 TTL 的短期键值，列表缓存与重扫标记共用一份实例。
type Store interface {
	// Get 返回未过期的缓存值。不存在或已过期时返回 ErrNotFound。
	Get(key string) ([]byte, error)

	// Set 写入缓存值并重置过期时间。ttl 必须大于 0。
	Set(key string, value []byte, ttl time.Duration) error

	// Delete 无条件删除缓存值，用于显式失效。
	Delete(key string)
}

// NewStore 构建内存 TTL 存储。
func NewStore() Store {
	return &memoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore 用互斥锁保护条目表，过期条目在读取时惰性清理。
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func (s *memoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

func (s *memoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key required")
	}
	if ttl <= 0 {
		return errors.New("cache ttl must be positive")
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     stored,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
