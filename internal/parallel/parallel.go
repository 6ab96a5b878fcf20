// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel implements §4.D's work dispatcher: an atomic work
// cursor shared by a pool of workers fanned out over a host-supplied
// executor, plus a shared-memory lock registry keyed by object identity
// that lets a worker blocked on one computation's lock donate its thread
// to another contending computation instead of idling.
package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrInterrupted is returned by Run when ctx is cancelled before every
// unit of work has been claimed (§6 Interrupted).
var ErrInterrupted = errors.New("parallel: interrupted before all work was claimed")

// Runnable processes the half-open work range [start, start+length) of
// some larger computation. Implementations must be safe to call
// concurrently with disjoint ranges: Run never calls the same Runnable
// with overlapping ranges, but it may call it from many goroutines at
// once.
type Runnable interface {
	RunRange(ctx context.Context, start, length int64) error
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context, start, length int64) error

// RunRange implements Runnable.
func (f RunnableFunc) RunRange(ctx context.Context, start, length int64) error { return f(ctx, start, length) }

// Executor runs a unit of work, typically by submitting it to a worker
// pool. The host supplies this (§4.D: "fan-out via an externally supplied
// executor"); Run never creates goroutines on its own beyond what
// errgroup needs to wait on submissions.
type Executor interface {
	Go(func() error)
}

// goroutinePerTask is the trivial Executor every Runner falls back to
// when the host does not supply one: one goroutine per worker slot.
type goroutinePerTask struct {
	g *errgroup.Group
}

func (e goroutinePerTask) Go(f func() error) { e.g.Go(f) }

// Runner dispatches a computation of total elements over length-sized
// batches to numWorkers goroutines, each repeatedly claiming the next
// unclaimed batch from a shared atomic cursor until the work is
// exhausted (§4.D). It is the concurrency primitive every NTT and CRT
// stage in this module is built on.
type Runner struct {
	// NumWorkers bounds how many goroutines are launched; <=0 means 1.
	NumWorkers int
	// BatchSize, when positive, is used as the batch size as given;
	// otherwise Run uses floor(sqrt(total)), clamped to a minimum of 16
	// elements per batch.
	BatchSize int64
}

const minBatchSize = 16

// defaultBatchSize returns floor(sqrt(total)), clamped to minBatchSize.
func defaultBatchSize(total int64) int64 {
	if total <= 0 {
		return minBatchSize
	}
	b := isqrt(total)
	if b < minBatchSize {
		b = minBatchSize
	}
	if b > total {
		b = total
	}
	return b
}

func isqrt(n int64) int64 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// Run dispatches r over [0, total) using the given Runnable, via exec if
// non-nil or an internal errgroup otherwise. It blocks until every batch
// has completed or ctx is cancelled, returning the first error
// encountered (or ErrInterrupted if cancellation won the race before any
// batch reported an error).
func (r Runner) Run(ctx context.Context, total int64, run Runnable, exec Executor) error {
	if total <= 0 {
		return nil
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize(total)
	}
	workers := r.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	if int64(workers) > (total+batch-1)/batch {
		workers = int(((total + batch - 1) / batch))
	}

	g, gctx := errgroup.WithContext(ctx)
	e := exec
	if e == nil {
		e = goroutinePerTask{g: g}
	}

	var cursor int64

	worker := func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := atomic.AddInt64(&cursor, batch) - batch
			if start >= total {
				return nil
			}
			length := batch
			if start+length > total {
				length = total - start
			}
			if err := run.RunRange(gctx, start, length); err != nil {
				return err
			}
		}
	}

	if exec == nil {
		for i := 0; i < workers; i++ {
			g.Go(worker)
		}
		if err := g.Wait(); err != nil {
			if errors.Is(err, context.Canceled) {
				return ErrInterrupted
			}
			return err
		}
		return nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		e.Go(func() error {
			defer wg.Done()
			err := worker()
			if err != nil {
				errs <- err
			}
			return err
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ErrInterrupted
			}
			return err
		}
	}
	return nil
}
