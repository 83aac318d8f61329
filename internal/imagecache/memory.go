package imagecache

import (
	"container/list"
	"sync"
	"time"
)

type memoryEntry struct {
	key     string
	data    []byte
	expires time.Time
}

// memoryCache is an LRU keyed by URL whose capacity is measured in bytes.
type memoryCache struct {
	mu         sync.Mutex
	limit      int64
	expiration time.Duration
	used       int64
	order      *list.List // front = most recently used
	items      map[string]*list.Element
	now        func() time.Time
}

func newMemoryCache(limit int64, expiration time.Duration, now func() time.Time) *memoryCache {
	return &memoryCache{
		limit:      limit,
		expiration: expiration,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        now,
	}
}

func (m *memoryCache) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*memoryEntry)
	if m.expiration > 0 && !m.now().Before(entry.expires) {
		m.removeElement(elem)
		return nil, false
	}
	m.order.MoveToFront(elem)
	return entry.data, true
}

// set stores data under key. Values larger than the whole budget are not kept.
func (m *memoryCache) set(key string, data []byte) {
	cost := int64(len(data))
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	if m.limit > 0 && cost > m.limit {
		return
	}
	entry := &memoryEntry{key: key, data: data, expires: m.now().Add(m.expiration)}
	m.items[key] = m.order.PushFront(entry)
	m.used += cost
	for m.limit > 0 && m.used > m.limit {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		m.removeElement(oldest)
	}
}

// purgeExpired drops expired entries and returns how many were removed.
func (m *memoryCache) purgeExpired() int {
	if m.expiration <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*memoryEntry).expires) {
			m.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (m *memoryCache) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	m.items = make(map[string]*list.Element)
	m.used = 0
}

func (m *memoryCache) usage() (int, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), m.used
}

func (m *memoryCache) removeElement(elem *list.Element) {
	entry := m.order.Remove(elem).(*memoryEntry)
	delete(m.items, entry.key)
	m.used -= int64(len(entry.data))
}
