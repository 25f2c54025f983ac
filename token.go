package goAuthClient

import "sync"

// TokenMemory is the process-local holder of the current access credential.
// It is injectable through [Builder.WithTokenMemory] so tests can substitute
// their own slot. Implementations must never persist the token.
type TokenMemory interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

// memoryTokenSlot is the default TokenMemory: one mutex-guarded slot,
// last-writer-wins. Staleness is discovered lazily through a 401, never by
// a timer, so the slot carries no expiry metadata at all.
type memoryTokenSlot struct {
	mu    sync.RWMutex
	token string
}

// NewTokenMemory returns the default in-memory token slot.
//
// NewTokenMemory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTokenMemory() TokenMemory {
	return &memoryTokenSlot{}
}

func (m *memoryTokenSlot) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *memoryTokenSlot) Set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *memoryTokenSlot) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}
