package utils

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool 固定数量协程执行提交的任务
type WorkerPool struct {
	jobs    chan func()
	workers sync.WaitGroup
	pending sync.WaitGroup
	size    int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerPool 创建并启动工作池，workers <= 0 时使用 GOMAXPROCS
// ctx 取消后不再接受新任务，已开始的任务继续执行
func NewWorkerPool(ctx context.Context, workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(ctx)
	pool := &WorkerPool{
		jobs:   make(chan func(), workers*2), // 缓冲区大小为工作者数量的2倍
		size:   workers,
		ctx:    ctx,
		cancel: cancel,
	}
	pool.start()
	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.size; i++ {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
}

// Submit 提交一个任务
// 工作池已停止或 ctx 已取消时返回 false，任务不会执行
func (p *WorkerPool) Submit(job func()) bool {
	if p.closed.Load() {
		return false
	}

	p.pending.Add(1)
	wrapped := func() {
		defer p.pending.Done()
		if p.ctx.Err() != nil {
			return
		}
		job()
	}

	select {
	case p.jobs <- wrapped:
		return true
	case <-p.ctx.Done():
		p.pending.Done()
		return false
	}
}

// Wait 等待所有已提交的任务结束
func (p *WorkerPool) Wait() {
	p.pending.Wait()
}

// Size 返回工作协程数量
func (p *WorkerPool) Size() int {
	return p.size
}

// Stop 停止工作池并等待所有工作协程退出，可重复调用
// 不能与 Submit 并发调用
func (p *WorkerPool) Stop() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	close(p.jobs)
	p.workers.Wait()
}
