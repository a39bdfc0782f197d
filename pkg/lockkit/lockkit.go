// Package lockkit provides reference counted locking primitives.
package lockkit

import (
	"sync"

	"github.com/bitwelder/stew/port/guard"
)

// RefLock is a reference counted lock.
//
// Any number of holders may hold a RefLock at the same time; the lock keeps count of
// them. When the holder count transitions from zero to one, the observer is notified
// through guard.Observer.OnFirstAcquire, and when the count returns to zero, through
// guard.Observer.OnLastRelease. Both hooks finish before the triggering Lock/Unlock
// call returns, and the lock's own mutex serializes them against each other.
//
// RefLock does not provide mutual exclusion between its holders. It is a lock-state
// tracker: the protected resource uses the hooks to find out when it became shared
// and when it is exclusively reachable again.
type RefLock struct {
	mu       sync.Mutex
	count    int
	observer guard.Observer
}

var _ guard.Locker = (*RefLock)(nil)
var _ guard.Counter = (*RefLock)(nil)

// NewRefLock creates a reference counted lock that reports
// its 0→1 and 1→0 holder count transitions to the given observer.
func NewRefLock(observer guard.Observer) *RefLock {
	return &RefLock{observer: observer}
}

// Lock registers the caller as a holder of the lock.
// The first holder triggers the observer's OnFirstAcquire hook.
// Lock never blocks on other holders.
func (l *RefLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	if l.count == 1 && l.observer != nil {
		l.observer.OnFirstAcquire()
	}
}

// TryLock acquires the lock the same way Lock does.
// Since a RefLock is always acquirable, it reports true.
func (l *RefLock) TryLock() bool {
	l.Lock()
	return true
}

// Unlock deregisters the caller as a holder of the lock.
// When the last holder leaves, the observer's OnLastRelease hook runs to completion
// before Unlock returns, so a holder that locks afterwards observes the released state.
//
// Unlocking a RefLock with no holders panics with guard.ErrNoLock,
// as it indicates the lock discipline of the caller is broken.
func (l *RefLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		panic(guard.ErrNoLock)
	}
	l.count--
	if l.count == 0 && l.observer != nil {
		l.observer.OnLastRelease()
	}
}

// Count returns the current holder multiplicity.
func (l *RefLock) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// IsLocked reports whether the lock currently has any holder.
func (l *RefLock) IsLocked() bool {
	return 0 < l.Count()
}

// Sync runs the given function while holding the lock.
func (l *RefLock) Sync(fn func()) {
	l.Lock()
	defer l.Unlock()
	fn()
}
