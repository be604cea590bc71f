package cache

import (
	"sync"
	"time"
)

// memoryEntry is a value in the process-local tier.
type memoryEntry struct {
	payload []byte
	ttlAt   time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.ttlAt.IsZero() && !now.Before(e.ttlAt)
}

// memoryTier is the capacity-bounded process-local cache tier. Safe for
// concurrent use; entries are immutable once written so a plain mutex around
// the map is all the coordination required.
type memoryTier struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	capacity int
	nowFunc  func() time.Time
}

func newMemoryTier(capacity int) *memoryTier {
	if capacity <= 0 {
		capacity = 500
	}
	return &memoryTier{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		nowFunc:  time.Now,
	}
}

func (m *memoryTier) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(m.nowFunc()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.payload, true
}

func (m *memoryTier) set(key string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ttlAt time.Time
	if ttl > 0 {
		ttlAt = m.nowFunc().Add(ttl)
	}
	m.entries[key] = memoryEntry{payload: payload, ttlAt: ttlAt}

	if len(m.entries) > m.capacity {
		m.evictLocked()
	}
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictLocked first drops expired entries; if the tier is still over
// capacity it drops arbitrary entries until back under the bound. Eviction
// here is advisory — the durable tier remains the system of record.
func (m *memoryTier) evictLocked() {
	now := m.nowFunc()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	for k := range m.entries {
		if len(m.entries) <= m.capacity {
			break
		}
		delete(m.entries, k)
	}
}
