package executor

import "sync"

// accountLocks serializes submissions per signing account. Two
// concurrent submissions from the same account would race on the
// pending nonce; different accounts proceed in parallel.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the account and returns its release func. Lock entries
// are kept for the process lifetime; the account set is small and
// bounded by the operator's key inventory.
func (l *accountLocks) acquire(account string) func() {
	l.mu.Lock()
	lock, ok := l.locks[account]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[account] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
