package service

import "sync"

// keyedLock serializes operations per key: seat changes per room, gift
// sends per sender. Locks are never released back to the map; the key
// space (live rooms, active senders) stays small enough not to matter.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*sync.Mutex)}
}

func (l *keyedLock) Lock(key string) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
}

func (l *keyedLock) Unlock(key string) {
	l.mu.Lock()
	m := l.locks[key]
	l.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}
