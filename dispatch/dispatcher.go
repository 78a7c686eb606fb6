/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/logging"
)

// Completion receives the outcome of an operation submitted with Submit.
type Completion[T any] func(T, error)

// Dispatcher runs operations in blocking or completion form. By default the
// completion form runs the operation on the calling goroutine; with a pool
// it runs on a bounded set of workers.
type Dispatcher struct {
	pool    *ants.Pool
	logger  logging.Logger
	metrics *Metrics
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*config)

type config struct {
	poolSize int
	logger   logging.Logger
	metrics  *Metrics
}

// WithPoolSize runs completion-form operations on a pool of size workers.
// Zero or less keeps them on the caller.
func WithPoolSize(size int) Option {
	return func(c *config) {
		c.poolSize = size
	}
}

// WithLogger sets the logger that records failed operations.
func WithLogger(l logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every operation in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New creates a Dispatcher.
func New(opts ...Option) (*Dispatcher, error) {
	cfg := config{logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{logger: cfg.logger, metrics: cfg.metrics}
	if cfg.poolSize > 0 {
		pool, err := ants.NewPool(cfg.poolSize, ants.WithPanicHandler(func(v any) {
			d.logger.Error("dispatched operation panic", "panic", v)
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to create worker pool: %w", err)
		}
		d.pool = pool
	}
	return d, nil
}

// Close waits for submitted operations to complete and releases the pool.
func (d *Dispatcher) Close() {
	d.wg.Wait()
	if d.pool != nil {
		_ = d.pool.ReleaseTimeout(3 * time.Second)
	}
}

// Do runs fn and returns its result.
func Do[T any](ctx context.Context, d *Dispatcher, operation string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	d.metrics.observe(operation, time.Since(start).Seconds(), err)
	if err != nil {
		d.report(operation, err)
	}
	return result, err
}

// Submit runs fn and passes its outcome to done exactly once. The operation
// has completed, including any commit, before done is called.
func Submit[T any](ctx context.Context, d *Dispatcher, operation string, fn func(context.Context) (T, error), done Completion[T]) {
	var once sync.Once
	complete := func(result T, err error) {
		once.Do(func() {
			if done != nil {
				done(result, err)
			}
		})
	}

	run := func() {
		var (
			result T
			err    error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", operation, r)
				d.logger.Error("dispatched operation panic", "operation", operation, "panic", r)
			}
			complete(result, err)
		}()
		result, err = Do(ctx, d, operation, fn)
	}

	if d.pool == nil {
		run()
		return
	}

	d.wg.Add(1)
	if err := d.pool.Submit(func() {
		defer d.wg.Done()
		run()
	}); err != nil {
		d.wg.Done()
		d.logger.Error("failed to submit operation to pool", "operation", operation, "error", err)
		var zero T
		complete(zero, err)
	}
}

func (d *Dispatcher) report(operation string, err error) {
	if errors.IsStoreFailure(err) {
		d.logger.Warn("store failure", "operation", operation, "error", err)
		return
	}
	d.logger.Debug("operation failed", "operation", operation, "error", err)
}
