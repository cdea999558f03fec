package storage

import "sync"

// UserLocks hands out one mutex per user id.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewUserLocks creates an empty UserLocks.
func NewUserLocks() *UserLocks {
	return &UserLocks{
		locks: make(map[int64]*userLock),
	}
}

// Lock blocks until the user's lock is held and returns its release func.
func (l *UserLocks) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
	}
}

// Len returns the number of users currently holding or waiting for a lock.
func (l *UserLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
