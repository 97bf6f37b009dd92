package model

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"sync"
)

// A Key is the content hash of a memo entry's inputs.
type Key struct {
	key string
}

// MakeKey hashes the gob encoding of args. Args must not contain maps,
// since gob encodes them in iteration order.
func MakeKey(args ...any) Key {
	h := sha256.New()

	enc := gob.NewEncoder(h)
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			panic("error encoding memo key: " + err.Error())
		}
	}

	return Key{hex.EncodeToString(h.Sum(nil))}
}

func (k Key) String() string { return k.key }

// A Memo maps content hashes to derived values. Entries are never
// invalidated explicitly: a changed input hashes to a different key.
type Memo[T any] struct {
	mu           sync.Mutex
	m            map[Key]T
	hits, misses int
}

func NewMemo[T any]() *Memo[T] {
	return &Memo[T]{m: make(map[Key]T)}
}

// Get returns the value for k, calling compute on a miss. Errors are not
// memoized.
func (m *Memo[T]) Get(k Key, compute func() (T, error)) (T, error) {
	m.mu.Lock()
	v, ok := m.m[k]
	if ok {
		m.hits++
	}
	m.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	m.mu.Lock()
	m.m[k] = v
	m.misses++
	m.mu.Unlock()
	return v, nil
}

// Stats returns the number of hits and misses since the last call to
// Stats.
func (m *Memo[T]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits, misses = m.hits, m.misses
	m.hits, m.misses = 0, 0
	return
}

func (m *Memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}
