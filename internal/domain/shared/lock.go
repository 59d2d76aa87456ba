package shared

import (
	"context"
	"time"
)

// Lock is a held exclusive lease
type Lock interface {
	// Release gives the lease up. Releasing a lease that already expired, or was taken over
	// by another holder, is not an error and leaves the other holder's lease alone.
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases on named keys. Linking runs hold one for their duration.
type Locker interface {
	// TryLock acquires key for ttl without waiting. acquired is false when someone else holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (lock Lock, acquired bool, err error)
}
