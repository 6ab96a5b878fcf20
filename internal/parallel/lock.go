// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"sync"
)

// LockRegistry hands out mutual-exclusion locks keyed by object identity
// (map key, typically a pointer) rather than by value, so that two
// distinct computations over equal-looking data never contend on the
// same lock by accident, and a single computation's lock is shared by
// every goroutine that holds a reference to it (§4.D shared-memory lock
// registry).
//
// A lock entry is retained only while at least one caller holds or is
// waiting on it; Release removes it once the last holder leaves, so the
// registry does not grow unboundedly over a long-running host process.
type LockRegistry struct {
	mu      sync.Mutex
	entries map[any]*lockEntry
}

type lockEntry struct {
	ch  chan struct{} // 1-buffered: a send holds the lock, a receive releases it
	ref int
}

// NewLockRegistry returns an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{entries: make(map[any]*lockEntry)}
}

func (r *LockRegistry) entry(key any) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.ref++
	return e
}

func (r *LockRegistry) release(key any, e *lockEntry) {
	r.mu.Lock()
	e.ref--
	if e.ref == 0 {
		delete(r.entries, key)
	}
	r.mu.Unlock()
}

// Acquire blocks until the lock for key is held or ctx is cancelled. The
// returned release func must be called exactly once to give up the lock.
func (r *LockRegistry) Acquire(ctx context.Context, key any) (release func(), err error) {
	e := r.entry(key)
	select {
	case e.ch <- struct{}{}:
		return r.releaser(key, e), nil
	case <-ctx.Done():
		r.release(key, e)
		return nil, ctx.Err()
	}
}

// TryAcquire attempts to take the lock without blocking, reporting
// whether it succeeded.
func (r *LockRegistry) TryAcquire(key any) (release func(), ok bool) {
	e := r.entry(key)
	select {
	case e.ch <- struct{}{}:
		return r.releaser(key, e), true
	default:
		r.release(key, e)
		return nil, false
	}
}

func (r *LockRegistry) releaser(key any, e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			r.release(key, e)
		})
	}
}

// AcquireOrHelp is the donation primitive of §4.D: instead of blocking
// idle on a contended computation's lock, a worker keeps calling help
// (typically "claim and run one more batch of a different, uncontended
// computation") until either the lock frees up or help reports that
// there is nothing left to help with, at which point it falls back to a
// blocking Acquire.
func (r *LockRegistry) AcquireOrHelp(ctx context.Context, key any, help func(ctx context.Context) (didWork bool, err error)) (release func(), err error) {
	for {
		if rel, ok := r.TryAcquire(key); ok {
			return rel, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		did, err := help(ctx)
		if err != nil {
			return nil, err
		}
		if !did {
			return r.Acquire(ctx, key)
		}
	}
}
