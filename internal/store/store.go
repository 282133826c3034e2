// Package store keeps recent comparisons in memory so clients can fetch
// hourly traces after the simulate call returns.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"microgrid-dispatch/internal/sim"
)

// Entry is one stored comparison.
type Entry struct {
	ID         string
	Key        string
	Comparison *sim.Comparison
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// ResultStore is an in-memory TTL store of comparisons keyed by uuid. Identical
// requests (same Key) share one entry until it expires.
type ResultStore struct {
	mu    sync.RWMutex
	byID  map[string]*Entry
	byKey map[string]string
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// New creates a store and starts its cleanup goroutine. Call Close to stop it.
func New(ttl, cleanupEvery time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}
	s := &ResultStore{
		byID:  make(map[string]*Entry),
		byKey: make(map[string]string),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go s.cleanup(cleanupEvery)
	return s
}

// Put stores cmp under a fresh id, or returns the live entry already stored
// under key. An empty key never deduplicates.
func (s *ResultStore) Put(key string, cmp *sim.Comparison) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if key != "" {
		if id, ok := s.byKey[key]; ok {
			if e, ok := s.byID[id]; ok && now.Before(e.ExpiresAt) {
				return e
			}
		}
	}

	e := &Entry{
		ID:         uuid.NewString(),
		Key:        key,
		Comparison: cmp,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.byID[e.ID] = e
	if key != "" {
		s.byKey[key] = e.ID
	}
	return e
}

// Get retrieves an entry if it exists and has not expired.
func (s *ResultStore) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok || s.now().After(e.ExpiresAt) {
		return nil, false
	}
	return e, true
}

// Lookup returns the live entry stored under key, if any.
func (s *ResultStore) Lookup(key string) (*Entry, bool) {
	if key == "" {
		return nil, false
	}
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.Get(id)
}

// Len counts stored entries, expired or not.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear removes all entries.
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Entry)
	s.byKey = make(map[string]string)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *ResultStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *ResultStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *ResultStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.byID {
		if now.After(e.ExpiresAt) {
			delete(s.byID, id)
			if s.byKey[e.Key] == id {
				delete(s.byKey, e.Key)
			}
		}
	}
}

// KeyFor derives a deterministic key from any JSON-encodable request.
func KeyFor(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:]), nil
}
