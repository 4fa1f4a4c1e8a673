package service

import "sync"

// lockTable hands out one mutex per string key. Sync uses it to serialise
// runs per source; the approval gate uses it to serialise create/resolve per
// (category, key). Entries are never evicted; the key space is small and
// bounded by the variable set.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

// lock blocks until the key's mutex is held.
func (t *lockTable) lock(key string) {
	t.get(key).Lock()
}

// tryLock acquires the key's mutex without blocking.
func (t *lockTable) tryLock(key string) bool {
	return t.get(key).TryLock()
}

func (t *lockTable) unlock(key string) {
	t.get(key).Unlock()
}
