package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store. Entries are swept lazily on writes.
type Memory struct {
	mu              sync.Mutex
	items           map[string]memoryEntry
	now             func() time.Time
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{
		items:           make(map[string]memoryEntry),
		now:             time.Now,
		lastCleanup:     time.Now(),
		cleanupInterval: cleanupInterval,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.items, key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *Memory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeCleanup(now)

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.items[key] = entry
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) maybeCleanup(now time.Time) {
	if m.cleanupInterval <= 0 {
		return
	}
	if !m.lastCleanup.IsZero() && now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	for key, entry := range m.items {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.items, key)
		}
	}
	m.lastCleanup = now
}
