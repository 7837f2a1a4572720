// Package lock provides in-process mutual exclusion scoped to string keys,
// such as a room or booking identifier.
package lock

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key. Entries are dropped once no goroutine
// holds or waits on them, so the map stays proportional to live contention.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock blocks until key is held and returns the function that releases it.
// The release function is safe to call exactly once; callers defer it.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

// LockAll acquires every distinct key in sorted order, so two callers locking
// overlapping key sets can never deadlock. The returned function releases all of them.
func (k *KeyedMutex) LockAll(keys ...string) func() {
	uniq := make(map[string]struct{}, len(keys))
	sorted := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, seen := uniq[key]; seen {
			continue
		}
		uniq[key] = struct{}{}
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	for _, key := range sorted {
		unlocks = append(unlocks, k.Lock(key))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Len reports how many keys currently have holders or waiters.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
