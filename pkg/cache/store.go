// Package cache provides a small in-memory LRU memo for derived results
// that are expensive to recompute but cheap to keep, such as per-column
// unique-value tallies. Entries are keyed by hashed composite keys and
// evicted least-recently-used first, with optional TTL expiry.
package cache

import (
	"container/list"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
)

// StoreConfig holds configuration for a cache Store.
type StoreConfig struct {
	// MaxEntries is the upper bound on cached entries. Zero means 128.
	MaxEntries int

	// TTL is how long an entry stays valid. Zero means entries never
	// expire by age.
	TTL time.Duration

	// Clock supplies time for TTL checks. Nil means the system clock.
	Clock sched.Clock
}

func (c StoreConfig) defaults() StoreConfig {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 128
	}
	if c.Clock == nil {
		c.Clock = sched.SystemClock()
	}
	return c
}

// Stats holds runtime statistics for a Store.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// lruEntry is the value stored in each list.Element.
type lruEntry struct {
	hash    string
	value   any
	created time.Time
}

// Store is an in-memory key-value memo with LRU eviction and TTL expiry.
type Store struct {
	cfg StoreConfig

	mu        sync.Mutex
	lru       *list.List               // front = most recently used
	items     map[string]*list.Element // hash -> element holding *lruEntry
	hits      int64
	misses    int64
	evictions int64
}

// NewStore creates an empty Store.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		cfg:   cfg.defaults(),
		lru:   list.New(),
		items: make(map[string]*list.Element),
	}
}

// Get retrieves the value for key. Returns (nil, false) if the key is
// missing or expired. On a hit the entry is promoted to the front of the
// LRU.
func (s *Store) Get(key string) (any, bool) {
	h := hashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[h]
	if !ok {
		s.misses++
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if s.cfg.TTL > 0 && s.cfg.Clock.Now().Sub(entry.created) > s.cfg.TTL {
		s.removeLocked(elem)
		s.misses++
		return nil, false
	}
	s.lru.MoveToFront(elem)
	s.hits++
	return entry.value, true
}

// Put stores value under key, evicting the least recently used entries
// if the store is full.
func (s *Store) Put(key string, value any) {
	h := hashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[h]; ok {
		entry := elem.Value.(*lruEntry)
		entry.value = value
		entry.created = s.cfg.Clock.Now()
		s.lru.MoveToFront(elem)
		return
	}

	for len(s.items) >= s.cfg.MaxEntries {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest)
		s.evictions++
	}

	elem := s.lru.PushFront(&lruEntry{
		hash:    h,
		value:   value,
		created: s.cfg.Clock.Now(),
	})
	s.items[h] = elem
}

// Invalidate removes a single key.
func (s *Store) Invalidate(key string) {
	h := hashKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[h]; ok {
		s.removeLocked(elem)
	}
}

// InvalidateAll drops every entry. Statistics are kept.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Init()
	s.items = make(map[string]*list.Element)
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Entries:   len(s.items),
	}
}

func (s *Store) removeLocked(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	s.lru.Remove(elem)
	delete(s.items, entry.hash)
}
