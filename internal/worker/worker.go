package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"library-hub/internal/logger"
)

// ErrStopped 在 Stop 之後呼叫 Submit 時回傳
var ErrStopped = errors.New("worker pool stopped")

// Task 背景工作，回傳的錯誤只會被記錄
type Task func(ctx context.Context) error

// Pool 非同步執行請求以外的副作用，例如更新 last_login、刪除舊照片
type Pool interface {
	Submit(name string, t Task) error
	Stop()
}

type job struct {
	name string
	task Task
}

type pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	timeout time.Duration
}

// NewPool 建立 n 個 worker，n<=0 視為 1；每個工作最多執行 timeout（<=0 不限制）
func NewPool(n int, timeout time.Duration) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan job, n*4), timeout: timeout}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
	return p
}

func (p *pool) run(j job) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("task", j.name).Str("panic", fmt.Sprint(r)).Msg("worker task panicked")
		}
	}()
	start := time.Now()
	if err := j.task(ctx); err != nil {
		logger.Error().Err(err).Str("task", j.name).Msg("worker task failed")
		return
	}
	logger.Debug().Str("task", j.name).Dur("elapsed", time.Since(start)).Msg("worker task done")
}

func (p *pool) Submit(name string, t Task) error {
	if t == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	p.jobs <- job{name: name, task: t}
	return nil
}

// Stop 等待已排入的工作完成
func (p *pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
