package services

import "sync"

// ProtocolLocks hands out one mutex per protocol id. Unused entries are dropped
// so the map only holds protocols with in-flight writes.
type ProtocolLocks struct {
	mu    sync.Mutex
	locks map[int]*protocolLock
}

type protocolLock struct {
	mu   sync.Mutex
	refs int
}

func NewProtocolLocks() *ProtocolLocks {
	return &ProtocolLocks{locks: make(map[int]*protocolLock)}
}

// Lock blocks until protocolID is free and returns the matching unlock func.
func (l *ProtocolLocks) Lock(protocolID int) func() {
	l.mu.Lock()
	entry, ok := l.locks[protocolID]
	if !ok {
		entry = &protocolLock{}
		l.locks[protocolID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, protocolID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *ProtocolLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
