package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local KV backed by a mutex-guarded map. It is the
// default backend for single-instance deployments and for tests.
// Expired entries are dropped lazily when touched.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// NewMemoryWithClock creates an in-memory store with an injected clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
	m := NewMemory()
	if now != nil {
		m.now = now
	}
	return m
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set implements KV.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{value: value, expiresAt: m.deadline(ttl)}
	return nil
}

// Delete implements KV.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// CompareAndSwap implements KV. The entire read-compare-write runs under
// the store mutex, so concurrent counters cannot lose updates.
func (m *Memory) CompareAndSwap(_ context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	current := ""
	if ok {
		current = entry.value
	}
	if current != old {
		return false, nil
	}

	m.entries[key] = memoryEntry{value: value, expiresAt: m.deadline(ttl)}
	return true, nil
}

// Len reports the number of live entries. Used by tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.entries {
		if _, ok := m.lookup(key); ok {
			n++
		}
	}
	return n
}

// lookup returns the entry for key, dropping it if expired.
// Callers must hold the mutex.
func (m *Memory) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *Memory) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
