// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workerpool runs tasks on a fixed number of goroutines and hands
// results back through futures.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ManuGH/admitd/internal/log"
	"github.com/ManuGH/admitd/internal/metrics"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is one unit of work. Its context is detached from the submitter's
// cancellation; admitted work always runs to completion.
type Task func(ctx context.Context) (any, error)

// PanicError carries a recovered task panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Config defines configuration for the Pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Future is the pending result of a submitted task.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Done is closed once the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes and returns its result.
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.value, f.err
}

type job struct {
	ctx    context.Context
	task   Task
	future *Future
}

// Pool is a bounded set of worker goroutines fed from a buffered queue.
type Pool struct {
	jobs    chan job
	workers int
	busy    atomic.Int64

	mu     sync.RWMutex
	closed bool

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	logger    zerolog.Logger
}

// New creates a pool. Workers below 1 fall back to 1; a non-positive queue
// size defaults to 64 slots per worker.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64 * cfg.Workers
	}
	return &Pool{
		jobs:    make(chan job, cfg.QueueSize),
		workers: cfg.Workers,
		logger:  log.WithComponent("workerpool"),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for j := range p.jobs {
					p.run(j)
				}
			}()
		}
		p.logger.Info().
			Str(log.FieldEvent, "workerpool.started").
			Int(log.FieldWorkers, p.workers).
			Int("queue_size", cap(p.jobs)).
			Msg("worker pool started")
	})
}

// Submit enqueues task and returns its future. It blocks only while the
// queue is full; ctx bounds that wait, not the task's execution.
func (p *Pool) Submit(ctx context.Context, task Task) (*Future, error) {
	if task == nil {
		return nil, errors.New("workerpool: nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	f := &Future{done: make(chan struct{})}
	j := job{ctx: context.WithoutCancel(ctx), task: task, future: f}
	select {
	case p.jobs <- j:
		return f, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("submit task: %w", ctx.Err())
	}
}

func (p *Pool) run(j job) {
	p.busy.Add(1)
	metrics.IncWorkerBusy()
	defer func() {
		p.busy.Add(-1)
		metrics.DecWorkerBusy()
		close(j.future.done)
	}()

	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			j.future.err = &PanicError{Value: rec, Stack: string(buf[:n])}
			metrics.RecordTask("panic")
			p.logger.Error().
				Str(log.FieldEvent, "workerpool.task_panic").
				Interface("panic_value", rec).
				Str("stack_trace", string(buf[:n])).
				Msg("panic recovered in pool task")
		}
	}()

	j.future.value, j.future.err = j.task(j.ctx)
	if j.future.err != nil {
		metrics.RecordTask("error")
		return
	}
	metrics.RecordTask("ok")
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Busy returns the number of workers currently running a task.
func (p *Pool) Busy() int {
	return int(p.busy.Load())
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close stops accepting tasks and waits, bounded by ctx, for queued and
// running tasks to finish.
func (p *Pool) Close(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info().Str(log.FieldEvent, "workerpool.stopped").Msg("worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close worker pool: %w", ctx.Err())
	}
}
