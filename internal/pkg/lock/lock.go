// Package lock serializes balance-changing operations per user.
//
// Each user gets a one-slot semaphore that exists only while someone holds or
// waits for it. Operations touching several users take the locks in ascending
// id order, so two transfers between the same pair of users cannot deadlock.
package lock

import (
	"context"
	"slices"
	"sync"
	"time"
)

type entry struct {
	sem  chan struct{}
	refs int // holders plus waiters
}

// UserLock is a set of per-user locks. The zero value is not usable; use
// NewUserLock.
type UserLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{entries: make(map[int64]*entry)}
}

func (ul *UserLock) ref(userID int64) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	e, ok := ul.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		ul.entries[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) unref(userID int64, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(ul.entries, userID)
	}
}

// unlock releases a lock acquired by lock.
func (ul *UserLock) unlock(userID int64) {
	ul.mu.Lock()
	e := ul.entries[userID]
	ul.mu.Unlock()
	<-e.sem
	ul.unref(userID, e)
}

// lock waits for the user's lock until ctx is done or timeout passes.
func (ul *UserLock) lock(ctx context.Context, userID int64, timeout time.Duration) error {
	e := ul.ref(userID)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.unref(userID, e)
		return ctx.Err()
	case <-timer.C:
		ul.unref(userID, e)
		return ErrLockTimeout
	}
}

// WithLocks executes fn while holding the locks of every listed user.
// Duplicate ids are locked once. Each lock gets its own timeout.
func (ul *UserLock) WithLocks(ctx context.Context, timeout time.Duration, userIDs []int64, fn func() error) error {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]int64, 0, len(ids))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			ul.unlock(held[i])
		}
	}()

	for _, id := range ids {
		if err := ul.lock(ctx, id, timeout); err != nil {
			return err
		}
		held = append(held, id)
	}

	// select picks randomly when the lock is free and ctx is already done
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
