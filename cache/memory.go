package cache

import (
	"context"
	"sync"
)

// Memory is a process-local Cache backed by a mutex-guarded map. Handlers run
// on concurrent goroutines, so every access takes the lock.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, shortID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	url, ok := m.entries[shortID]
	return url, ok
}

func (m *Memory) Set(_ context.Context, shortID, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[shortID] = url
}

func (m *Memory) Delete(_ context.Context, shortID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, shortID)
}
