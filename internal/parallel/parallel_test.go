// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunCoversEveryElementExactlyOnce(t *testing.T) {
	const total = 10007 // prime, forces a ragged last batch
	var hits [total]int32

	run := RunnableFunc(func(_ context.Context, start, length int64) error {
		for i := start; i < start+length; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
		return nil
	})

	r := Runner{NumWorkers: 8}
	if err := r.Run(context.Background(), total, run, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("element %d covered %d times, want exactly 1", i, h)
		}
	}
}

func TestRunZeroTotalIsNoop(t *testing.T) {
	called := false
	run := RunnableFunc(func(_ context.Context, _, _ int64) error {
		called = true
		return nil
	})
	if err := (Runner{}).Run(context.Background(), 0, run, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Fatalf("Run must not invoke the runnable for zero total work")
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	wantErr := errors.New("boom")
	run := RunnableFunc(func(_ context.Context, start, _ int64) error {
		if start == 0 {
			return wantErr
		}
		return nil
	})
	r := Runner{NumWorkers: 4, BatchSize: 16}
	err := (r).Run(context.Background(), 1000, run, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v, want %v", err, wantErr)
	}
}

func TestRunHonorsExternalExecutor(t *testing.T) {
	var submitted int32
	exec := execFunc(func(f func() error) {
		atomic.AddInt32(&submitted, 1)
		f()
	})

	var total int64
	run := RunnableFunc(func(_ context.Context, _, length int64) error {
		atomic.AddInt64(&total, length)
		return nil
	})

	r := Runner{NumWorkers: 4, BatchSize: 25}
	if err := r.Run(context.Background(), 1000, run, exec); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 1000 {
		t.Fatalf("total processed = %d, want 1000", total)
	}
	if submitted == 0 {
		t.Fatalf("expected the external executor to be used")
	}
}

type execFunc func(func() error)

func (e execFunc) Go(f func() error) { e(f) }

func TestRunRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	run := RunnableFunc(func(ctx context.Context, _, _ int64) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	})

	r := Runner{NumWorkers: 2, BatchSize: 16}
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 1_000_000, run, nil) }()

	<-started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run error = %v, want interrupted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestLockRegistryIsMutualExclusion(t *testing.T) {
	reg := NewLockRegistry()
	key := new(int)

	rel, err := reg.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, ok := reg.TryAcquire(key); ok {
		t.Fatalf("TryAcquire should fail while the lock is held")
	}
	rel()
	rel2, ok := reg.TryAcquire(key)
	if !ok {
		t.Fatalf("TryAcquire should succeed once the lock is released")
	}
	rel2()
}

func TestLockRegistryDistinctKeysDoNotContend(t *testing.T) {
	reg := NewLockRegistry()
	a, b := new(int), new(int)

	relA, err := reg.Acquire(context.Background(), a)
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer relA()

	relB, err := reg.Acquire(context.Background(), b)
	if err != nil {
		t.Fatalf("Acquire b did not succeed even though a and b are distinct identities: %v", err)
	}
	relB()
}

func TestAcquireOrHelpDoesWorkWhileWaiting(t *testing.T) {
	reg := NewLockRegistry()
	key := new(int)

	rel, err := reg.Acquire(context.Background(), key)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	var helped int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		rel()
	}()

	help := func(_ context.Context) (bool, error) {
		n := atomic.AddInt32(&helped, 1)
		if n > 50 {
			return false, nil
		}
		time.Sleep(time.Millisecond)
		return true, nil
	}

	rel2, err := reg.AcquireOrHelp(context.Background(), key, help)
	if err != nil {
		t.Fatalf("AcquireOrHelp: %v", err)
	}
	defer rel2()

	if atomic.LoadInt32(&helped) == 0 {
		t.Fatalf("expected AcquireOrHelp to call help at least once while waiting")
	}
}

func ExampleRunner_Run() {
	var sum int64
	run := RunnableFunc(func(_ context.Context, start, length int64) error {
		var local int64
		for i := start; i < start+length; i++ {
			local += i
		}
		atomic.AddInt64(&sum, local)
		return nil
	})
	r := Runner{NumWorkers: 4}
	if err := r.Run(context.Background(), 100, run, nil); err != nil {
		panic(err)
	}
	fmt.Println(sum)
	// Output: 4950
}
