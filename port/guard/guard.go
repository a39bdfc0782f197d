// Package guard describes the contract between a reference counted lock
// and the resources it protects.
package guard

import (
	"sync"

	"github.com/bitwelder/stew/internal/constant"
)

// Observer is a resource that wants to know about the lifecycle of the lock guarding it.
//
// The lock that accepts an Observer must fire OnFirstAcquire exactly once when its
// holder count transitions from zero to one, and OnLastRelease exactly once when the
// count returns to zero, before the unlock is reported back to the last holder.
// The two hooks are never invoked concurrently with each other.
type Observer interface {
	// OnFirstAcquire is called when the first holder acquires the lock.
	OnFirstAcquire()
	// OnLastRelease is called after the last holder released the lock.
	OnLastRelease()
}

// Counter reports the current holder multiplicity of a reference counted lock.
type Counter interface {
	Count() int
}

// Locker is the surface lock holders interact with.
type Locker interface {
	sync.Locker
	// TryLock attempts to acquire the lock without blocking.
	TryLock() bool
}

const ErrNoLock constant.Error = "guard: unlock of an unheld lock"
