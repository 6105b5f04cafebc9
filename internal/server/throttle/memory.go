package throttle

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count       int
	lastAttempt time.Time
}

// Memory is a process-local Throttle. State is lost on restart and is not
// shared between server instances.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	entries map[string]*entry
	now     func() time.Time
}

func NewMemory(p Policy) *Memory {
	return &Memory{
		policy:  p.withDefaults(),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// IsLocked drops every expired entry and then reports whether email has
// reached the failure limit.
func (m *Memory) IsLocked(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if now.Sub(e.lastAttempt) > m.policy.Lockout {
			delete(m.entries, k)
		}
	}

	e, ok := m.entries[key(email)]
	return ok && e.count >= m.policy.MaxFailures, nil
}

// RecordFailure counts a failed login. A failure after the window has passed
// starts a new count.
func (m *Memory) RecordFailure(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := key(email)

	if e, ok := m.entries[k]; ok && now.Sub(e.lastAttempt) <= m.policy.Lockout {
		e.count++
		e.lastAttempt = now
		return nil
	}

	m.entries[k] = &entry{count: 1, lastAttempt: now}
	return nil
}

func (m *Memory) Clear(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key(email))
	return nil
}

// Len returns the number of tracked emails.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
