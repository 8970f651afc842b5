package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
	hasExpiry bool
}

func (e memoryEntry) expired(now time.Time) bool {
	return e.hasExpiry && !now.Before(e.expiresAt)
}

// MemoryStore is the in-process fallback store. It mirrors the shared
// store's externally observable behavior: lazy expiry on every read
// path, and Incr that preserves the existing expiry.
//
// Operations never fail; it is the guaranteed-available baseline the
// facade degrades to.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   Clock

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// NewMemoryStore creates an in-memory store on the system clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(SystemClock())
}

// NewMemoryStoreWithClock creates an in-memory store with an injected
// clock, for deterministic expiry in tests.
func NewMemoryStoreWithClock(clock Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return "", false, nil
	}

	return entry.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = m.clock.Now().Add(ttl)
	}

	m.entries[key] = entry

	return nil
}

func (m *MemoryStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}

func (m *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)

	var current int64

	if ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %q: value is not an integer: %w", key, err)
		}

		current = parsed
	}

	current++

	// A fresh entry starts with no expiry; an existing entry keeps
	// its expiry untouched, matching the shared store's INCR.
	entry.value = strconv.FormatInt(current, 10)
	m.entries[key] = entry

	return current, nil
}

func (m *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return nil
	}

	entry.hasExpiry = true
	entry.expiresAt = m.clock.Now().Add(ttl)
	m.entries[key] = entry

	return nil
}

func (m *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		return TTLMissing, nil
	}

	if !entry.hasExpiry {
		return TTLNone, nil
	}

	remaining := entry.expiresAt.Sub(m.clock.Now())
	if remaining <= 0 {
		return TTLMissing, nil
	}

	return remaining, nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)

	return ok, nil
}

// Pipeline executes the commands sequentially. Unlike the shared
// store there is no atomicity across the batch; each command is
// atomic on its own.
func (m *MemoryStore) Pipeline(ctx context.Context, cmds []Command) ([]CommandResult, error) {
	results := make([]CommandResult, len(cmds))

	for i, cmd := range cmds {
		switch cmd.Kind {
		case CommandGet:
			value, found, _ := m.Get(ctx, cmd.Key)
			results[i] = CommandResult{Value: value, Found: found}
		case CommandSet:
			_ = m.Set(ctx, cmd.Key, cmd.Value, cmd.TTL)
		case CommandDel:
			_ = m.Del(ctx, cmd.Key)
		case CommandIncr:
			count, err := m.Incr(ctx, cmd.Key)
			if err != nil {
				return nil, err
			}

			results[i] = CommandResult{Count: count}
		case CommandExpire:
			_ = m.Expire(ctx, cmd.Key, cmd.TTL)
		default:
			return nil, fmt.Errorf("pipeline: unknown command kind %d", cmd.Kind)
		}
	}

	return results, nil
}

// lookup returns the live entry for key, deleting it as a side effect
// if it has expired. Callers must hold m.mu.
func (m *MemoryStore) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}

	if entry.expired(m.clock.Now()) {
		delete(m.entries, key)

		return memoryEntry{}, false
	}

	return entry, true
}

// Sweep removes every expired entry. Reads already expire lazily, so
// this only bounds memory held by keys nobody touches again.
func (m *MemoryStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	count := 0

	for _, entry := range m.entries {
		if !entry.expired(now) {
			count++
		}
	}

	return count
}

// StartSweep begins a background sweep every interval. It does nothing
// if interval <= 0 or a sweep is already running.
func (m *MemoryStore) StartSweep(interval time.Duration) {
	if interval <= 0 || m.sweepStop != nil {
		return
	}

	m.sweepStop = make(chan struct{})
	m.sweepDone = make(chan struct{})

	go m.sweepLoop(interval)
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(m.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown stops the background sweep, if one was started.
func (m *MemoryStore) Shutdown() error {
	if m.sweepStop != nil {
		close(m.sweepStop)
		<-m.sweepDone
		m.sweepStop = nil
		m.sweepDone = nil
	}

	return nil
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)
