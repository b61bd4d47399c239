package cache

import (
	"context"
	"sync"
	"time"

	"github.com/myta-ai/myta/internal/agent/core"
)

type memoryEntry struct {
	result    core.ChatTurnResult
	expiresAt time.Time
}

// Memory is the in-process response cache. Entries expire lazily on read
// plus via ClearExpired sweeps. The clock is injectable for tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, time.Now)
}

func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (m *Memory) Get(ctx context.Context, message string, userCtx map[string]interface{}, intent core.QueryType) (core.ChatTurnResult, bool) {
	key := Key(message, userCtx, intent)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return core.ChatTurnResult{}, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return core.ChatTurnResult{}, false
	}
	return e.result, true
}

func (m *Memory) Set(ctx context.Context, message string, userCtx map[string]interface{}, result core.ChatTurnResult, intent core.QueryType) {
	key := Key(message, userCtx, intent)
	m.mu.Lock()
	m.entries[key] = memoryEntry{result: result, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

// ClearExpired removes every expired entry and returns how many were
// dropped.
func (m *Memory) ClearExpired(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
