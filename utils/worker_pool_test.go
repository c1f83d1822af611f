package utils

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3)
	defer pool.Stop()

	if pool.Size() != 3 {
		t.Errorf("size = %d", pool.Size())
	}

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		if !pool.Submit(func() { count.Add(1) }) {
			t.Fatalf("job %d rejected", i)
		}
	}
	pool.Wait()
	if count.Load() != 100 {
		t.Errorf("ran %d jobs, want 100", count.Load())
	}
}

func TestWorkerPoolDefaultSize(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Stop()
	if pool.Size() <= 0 {
		t.Errorf("size = %d", pool.Size())
	}
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 2)
	defer pool.Stop()
	cancel()

	var ran atomic.Bool
	for i := 0; i < 10; i++ {
		pool.Submit(func() { ran.Store(true) })
	}
	pool.Wait()
	if ran.Load() {
		t.Error("job ran after context cancellation")
	}
}

func TestWorkerPoolStop(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2)
	pool.Stop()
	pool.Stop()
	if pool.Submit(func() {}) {
		t.Error("stopped pool accepted a job")
	}
}
