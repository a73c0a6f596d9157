package utils

import "sync"

// KeyMutex a fixed pool of mutexes addressed by string key.
// Distinct keys may share a lock; the same key always maps to the same lock.
type KeyMutex struct {
	locks []sync.Mutex
	count uint
}

// NewKeyMutex creates a KeyMutex with count shards
func NewKeyMutex(count uint) *KeyMutex {
	return &KeyMutex{
		count: count,
		locks: make([]sync.Mutex, count),
	}
}

// Lock locks the shard for key
func (m *KeyMutex) Lock(key string) {
	m.locks[elfHash(key)%m.count].Lock()
}

// Unlock unlocks the shard for key
func (m *KeyMutex) Unlock(key string) {
	m.locks[elfHash(key)%m.count].Unlock()
}

func elfHash(key string) uint {
	h := uint(0)
	for i := 0; i < len(key); i++ {
		h = (h << 4) + uint(key[i])
		g := h & 0xF0000000
		if g != 0 {
			h ^= g >> 24
		}
		h &= ^g
	}
	return h
}
