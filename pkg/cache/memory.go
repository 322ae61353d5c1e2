package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an entry stays servable after being written.
	DefaultTTL = 300 * time.Second

	// DefaultMaxEntries bounds the memory store's size.
	DefaultMaxEntries = 1024
)

// MemoryConfig holds the memory store configuration.
type MemoryConfig struct {
	// TTL is the fixed lifetime of every entry.
	TTL time.Duration

	// MaxEntries is the capacity bound; the least recently used entry is
	// evicted when a write would exceed it.
	MaxEntries int

	// Clock overrides the time source (for tests).
	Clock func() time.Time
}

// DefaultMemoryConfig returns a safe default configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:        DefaultTTL,
		MaxEntries: DefaultMaxEntries,
	}
}

// memoryItem is one LRU slot.
type memoryItem struct {
	key       string
	entry     *Entry
	expiresAt time.Time
}

// MemoryStore is a process-local Store with fixed TTL and LRU eviction.
// All operations are safe under concurrent access.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	ttl     time.Duration
	maxSize int
	clock   func() time.Time
}

// NewMemoryStore creates a memory-backed result cache.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &MemoryStore{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxEntries,
		clock:   cfg.Clock,
	}
}

// Get retrieves an entry, refreshing its LRU position.
// Returns ErrCacheMiss for absent or expired keys.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key.String()]
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	item := elem.Value.(*memoryItem)
	if s.clock().After(item.expiresAt) {
		s.removeLocked(elem)
		CacheEvictions.WithLabelValues("expired").Inc()
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	s.order.MoveToFront(elem)
	CacheHits.WithLabelValues("memory").Inc()
	return item.entry, nil
}

// Set stores an entry under key. Entries carrying an error are discarded so
// failures are never served from cache.
func (s *MemoryStore) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if entry.Err != nil {
		CacheRejected.Inc()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	stored := *entry
	stored.StoredAt = now

	k := key.String()
	if elem, ok := s.items[k]; ok {
		item := elem.Value.(*memoryItem)
		item.entry = &stored
		item.expiresAt = now.Add(s.ttl)
		s.order.MoveToFront(elem)
		return nil
	}

	for len(s.items) >= s.maxSize {
		s.evictLocked()
	}

	elem := s.order.PushFront(&memoryItem{
		key:       k,
		entry:     &stored,
		expiresAt: now.Add(s.ttl),
	})
	s.items[k] = elem
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key.String()]; ok {
		s.removeLocked(elem)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until
// they are touched or evicted.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

// Close implements Store. The memory store holds no external resources.
func (s *MemoryStore) Close() error {
	return nil
}

// evictLocked drops the best eviction candidate: the oldest expired entry
// if one exists, otherwise the least recently used entry.
func (s *MemoryStore) evictLocked() {
	now := s.clock()
	for elem := s.order.Back(); elem != nil; elem = elem.Prev() {
		if now.After(elem.Value.(*memoryItem).expiresAt) {
			s.removeLocked(elem)
			CacheEvictions.WithLabelValues("expired").Inc()
			return
		}
	}
	if elem := s.order.Back(); elem != nil {
		s.removeLocked(elem)
		CacheEvictions.WithLabelValues("capacity").Inc()
	}
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	item := elem.Value.(*memoryItem)
	s.order.Remove(elem)
	delete(s.items, item.key)
}
