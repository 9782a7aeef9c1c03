package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryClient is an in-process stand-in for Redis used when no Redis
// instance is configured.
type MemoryClient struct {
	mutex   sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryClient) Get(ctx context.Context, key string) *redisv9.StringCmd {
	m.mutex.RLock()
	entry, exists := m.entries[key]
	m.mutex.RUnlock()

	if exists && m.expired(entry) {
		m.mutex.Lock()
		// a Set may have replaced the entry since the read lock was released
		entry, exists = m.entries[key]
		if exists && m.expired(entry) {
			delete(m.entries, key)
			exists = false
		}
		m.mutex.Unlock()
	}

	if !exists {
		return redisv9.NewStringResult("", redisv9.Nil)
	}
	return redisv9.NewStringResult(string(entry.value), nil)
}

func (m *MemoryClient) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}

func (m *MemoryClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = append([]byte(nil), v...)
	case string:
		b = []byte(v)
	default:
		return redisv9.NewStatusResult("", fmt.Errorf("unsupported cache value type %T", value))
	}

	entry := memoryEntry{value: b}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}

	m.mutex.Lock()
	m.entries[key] = entry
	m.mutex.Unlock()

	return redisv9.NewStatusResult("OK", nil)
}

func (m *MemoryClient) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}

var (
	_ Client = (*MemoryClient)(nil)
	_ Client = (*redisv9.Client)(nil)
)
