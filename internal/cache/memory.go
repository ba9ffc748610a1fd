// Package cache provides the in-memory response cache for comparable
// item queries. Entries are keyed by a hash of the upstream operation
// and its normalized parameters; hits bypass both the network call and
// the rate limiter.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is an in-memory LRU cache with per-entry TTL.
type Memory struct {
	maxSize    int
	defaultTTL time.Duration
	items      map[string]*list.Element
	lru        *list.List
	mu         sync.Mutex

	hits   int64
	misses int64
}

type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

// NewMemory creates a memory cache holding at most maxSize entries.
// When full, the least recently used entry is evicted.
func NewMemory(maxSize int, defaultTTL time.Duration) *Memory {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Memory{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
	}
}

// Get retrieves a value. Expired entries are removed on access.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	element, exists := m.items[key]
	if !exists {
		m.misses++
		return nil, false
	}

	e := element.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		m.removeElement(element)
		m.misses++
		return nil, false
	}

	m.lru.MoveToFront(element)
	m.hits++
	return e.value, true
}

// Set stores a value. A zero ttl uses the cache default.
func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	if element, exists := m.items[key]; exists {
		element.Value = e
		m.lru.MoveToFront(element)
		return
	}

	element := m.lru.PushFront(e)
	m.items[key] = element

	for m.lru.Len() > m.maxSize {
		oldest := m.lru.Back()
		if oldest == nil {
			break
		}
		m.removeElement(oldest)
	}
}

// PurgeExpired removes every expired entry and reports how many were
// dropped. Called periodically by the maintenance scheduler.
func (m *Memory) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	purged := 0

	for element := m.lru.Back(); element != nil; {
		prev := element.Prev()
		if now.After(element.Value.(*entry).expiresAt) {
			m.removeElement(element)
			purged++
		}
		element = prev
	}
	return purged
}

// Len returns the number of live entries, including any not yet purged
// expired ones.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Stats returns cumulative hit and miss counts.
func (m *Memory) Stats() (hits, misses int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// removeElement drops an entry. Must be called with the mutex held.
func (m *Memory) removeElement(element *list.Element) {
	m.lru.Remove(element)
	delete(m.items, element.Value.(*entry).key)
}
