package commission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Direction selects which lifecycle transition a Commissioner performs.
type Direction int

const (
	Commissioning Direction = iota
	Decommissioning
)

func (d Direction) String() string {
	if d == Decommissioning {
		return "decommission"
	}
	return "commission"
}

// DefaultQueueSize is the request channel capacity used when none is set.
const DefaultQueueSize = 16

// Option configures a Commissioner.
type Option func(*Commissioner)

// WithQueueSize sets the request channel capacity.
func WithQueueSize(n int) Option {
	return func(c *Commissioner) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithDisposeGrace bounds how long Dispose waits for the worker to exit.
func WithDisposeGrace(d time.Duration) Option {
	return func(c *Commissioner) {
		c.disposeGrace = d
	}
}

// Commissioner serializes lifecycle transitions on a single worker goroutine.
type Commissioner struct {
	logger       *slog.Logger
	direction    Direction
	queueSize    int
	disposeGrace time.Duration

	queue   chan *request
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts a Commissioner and its worker.
func New(logger *slog.Logger, direction Direction, opts ...Option) *Commissioner {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Commissioner{
		logger:       logger.With("commissioner", direction.String()),
		direction:    direction,
		queueSize:    DefaultQueueSize,
		disposeGrace: time.Second,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue = make(chan *request, c.queueSize)

	go c.work()
	c.logger.Debug("Commissioner worker started.")
	return c
}

// Direction returns the transition this Commissioner performs.
func (c *Commissioner) Direction() Direction {
	return c.direction
}

func (c *Commissioner) work() {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			c.logger.Debug("Commissioner worker stopping.")
			return
		case req := <-c.queue:
			c.process(req)
		}
	}
}

func (c *Commissioner) process(req *request) {
	logger := c.logger.With("request_id", req.id.String(), "target", req.target.Path())
	if err := req.ctx.Err(); err != nil {
		req.result <- req.classify(err)
		return
	}
	logger.Debug("Processing request.")

	var err error
	if c.direction == Commissioning {
		err = req.target.Commission(req.ctx)
	} else {
		err = req.target.Decommission(req.ctx)
	}

	out := req.classify(err)
	switch out.kind {
	case outcomeDone:
		logger.Debug("Request completed.")
	case outcomeInterrupted:
		logger.Warn("Request interrupted.")
	default:
		logger.Debug("Request failed.", "error", err)
	}
	req.result <- out
}

// Commission submits target and blocks until it completes, fails or times
// out. It returns the elapsed time on success.
func (c *Commissioner) Commission(ctx context.Context, target Target) (time.Duration, error) {
	req := newRequest(ctx, target)
	defer req.cancel(nil)

	select {
	case <-c.done:
		return 0, ErrDisposed
	default:
	}

	start := time.Now()
	select {
	case c.queue <- req:
	case <-c.done:
		return 0, ErrDisposed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return c.waitForCompletion(ctx, req, start)
}

// waitForCompletion implements the two-window wait. A non-positive timeout
// waits until the target returns or ctx ends.
func (c *Commissioner) waitForCompletion(ctx context.Context, req *request, start time.Time) (time.Duration, error) {
	timeout := req.target.DeploymentTimeout()
	path := req.target.Path()

	if timeout <= 0 {
		select {
		case out := <-req.result:
			return c.finish(req, out, start)
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		}
	}

	first := time.NewTimer(timeout)
	defer first.Stop()
	select {
	case out := <-req.result:
		return c.finish(req, out, start)
	case <-first.C:
	}

	c.logger.Warn("Deployment timeout exceeded, interrupting.",
		"request_id", req.id.String(), "target", path, "timeout", timeout)
	req.interrupt()

	second := time.NewTimer(timeout)
	defer second.Stop()
	select {
	case out := <-req.result:
		if out.kind == outcomeInterrupted {
			return time.Since(start), &CommissioningError{
				Path:      path,
				Direction: c.direction,
				Timeout:   timeout,
				Elapsed:   time.Since(start),
			}
		}
		return c.finish(req, out, start)
	case <-second.C:
	}

	elapsed := time.Since(start)
	c.logger.Error("Handler did not respond to interruption.",
		"request_id", req.id.String(), "target", path, "elapsed", elapsed)
	return elapsed, &FatalCommissioningError{
		Path:      path,
		Direction: c.direction,
		Timeout:   timeout,
		Elapsed:   elapsed,
	}
}

func (c *Commissioner) finish(req *request, out outcome, start time.Time) (time.Duration, error) {
	elapsed := time.Since(start)
	switch out.kind {
	case outcomeDone:
		return elapsed, nil
	case outcomeInterrupted:
		return elapsed, &CommissioningError{
			Path:      req.target.Path(),
			Direction: c.direction,
			Timeout:   req.target.DeploymentTimeout(),
			Elapsed:   elapsed,
		}
	default:
		return elapsed, out.err
	}
}

// Dispose stops the worker. It waits a bounded time for the worker to exit;
// a worker stuck inside a handler is abandoned.
func (c *Commissioner) Dispose() {
	c.once.Do(func() {
		close(c.done)
		select {
		case <-c.stopped:
		case <-time.After(c.disposeGrace):
			c.logger.Warn("Commissioner worker did not stop; abandoning it.")
		}
	})
}

// String implements fmt.Stringer.
func (c *Commissioner) String() string {
	return fmt.Sprintf("Commissioner(%s)", c.direction)
}
