package supervisor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"greeter/internal/shared/logger"
)

// ErrClosed is returned by Go after Close has been called.
var ErrClosed = errors.New("supervisor is closed")

type completion struct {
	id      string
	elapsed time.Duration
	panic   error
}

// Supervisor 负责启动 worker goroutine 并回收已结束的 worker。
// 每个 worker 结束时向 done 通道报告, 由独立的回收 goroutine 统一处理,
// 调用方 (accept 循环) 永远不会因为回收而阻塞。
type Supervisor struct {
	done chan completion

	active  atomic.Int64
	reaped  atomic.Int64
	crashed atomic.Int64

	mu     sync.RWMutex // 保护 closed, 保证 Close 之后不会再有 wg.Add
	closed bool

	workers   sync.WaitGroup
	reaperWG  sync.WaitGroup
	closeOnce sync.Once
}

func New() *Supervisor {
	s := &Supervisor{
		done: make(chan completion, 64),
	}
	s.reaperWG.Add(1)
	go s.reapLoop()
	return s
}

// Go starts fn as a supervised worker identified by id.
// A panic in fn is recovered and counted; it never reaches the caller.
func (s *Supervisor) Go(id string, fn func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	s.active.Add(1)
	s.workers.Add(1)
	go s.run(id, fn)
	return nil
}

func (s *Supervisor) run(id string, fn func()) {
	c := completion{id: id}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.panic = fmt.Errorf("worker panic: %v\n\n%s", r, debug.Stack())
		}
		c.elapsed = time.Since(start)
		s.done <- c
		s.workers.Done()
	}()
	fn()
}

func (s *Supervisor) reapLoop() {
	defer s.reaperWG.Done()
	l := logger.WithComponent("supervisor")
	for c := range s.done {
		if c.panic != nil {
			s.crashed.Add(1)
			l.Error().Str("worker_id", c.id).Err(c.panic).Msg("Worker crashed")
		} else {
			l.Debug().Str("worker_id", c.id).Int64("elapsed_us", c.elapsed.Microseconds()).Msg("Worker reaped")
		}
		s.reaped.Add(1)
		s.active.Add(-1)
	}
}

// Active is the number of started workers not yet reaped.
func (s *Supervisor) Active() int64 { return s.active.Load() }

// Reaped is the total number of workers reaped so far.
func (s *Supervisor) Reaped() int64 { return s.reaped.Load() }

// Crashed is the number of reaped workers that panicked.
func (s *Supervisor) Crashed() int64 { return s.crashed.Load() }

// Close rejects new workers, waits for running ones and for the reaper to
// account for all of them.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.workers.Wait()
		close(s.done)
		s.reaperWG.Wait()
	})
}
