package netclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/netclient/target"
)

// Scheduler runs delivery callbacks for asynchronous calls.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// DefaultScheduler delivers on a new goroutine.
var DefaultScheduler Scheduler = SchedulerFunc(func(fn func()) { go fn() })

// Queue is a serial Scheduler: callbacks run one at a time, in submission
// order, on the goroutine that calls Run.
type Queue struct {
	ch chan func()
}

// NewQueue returns a Queue buffering up to size pending callbacks.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan func(), size)}
}

// Schedule enqueues fn. It blocks while the buffer is full.
func (q *Queue) Schedule(fn func()) { q.ch <- fn }

// Run executes queued callbacks until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case fn := <-q.ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// RunOne executes the next queued callback, waiting for one if needed.
func (q *Queue) RunOne(ctx context.Context) bool {
	select {
	case fn := <-q.ch:
		fn()
		return true
	case <-ctx.Done():
		return false
	}
}

// Result carries the outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// CancelFunc cancels an in-flight call. Calling it more than once is a no-op.
type CancelFunc func()

// Request executes t and decodes the narrowed payload into T.
func Request[T any](ctx context.Context, c *Client, t target.Target, opts ...CallOption) (T, error) {
	var out T
	_, err := c.run(ctx, t.Descriptor(), newCallOptions(opts), func(data []byte) error {
		if err := c.decoder.Decode(data, &out); err != nil {
			return NewDecodingError(err)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Call is a single-value future for an in-flight request.
type Call[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	result Result[T]
}

// Go starts t on a background goroutine. The result is available through
// Done and Result; it is never delivered through a Scheduler.
func Go[T any](ctx context.Context, c *Client, t target.Target, opts ...CallOption) *Call[T] {
	ctx, cancel := context.WithCancel(ctx)
	call := &Call[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer cancel()
		v, err := Request[T](ctx, c, t, opts...)
		call.resolve(Result[T]{Value: v, Err: err})
	}()
	return call
}

func (c *Call[T]) resolve(r Result[T]) {
	c.once.Do(func() {
		c.result = r
		close(c.done)
	})
}

// Done is closed once the result is available.
func (c *Call[T]) Done() <-chan struct{} { return c.done }

// Result waits for the call to finish or ctx to end.
func (c *Call[T]) Result(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.result.Value, c.result.Err
	case <-ctx.Done():
		var zero T
		return zero, NewUnderlyingError(ctx.Err())
	}
}

// Cancel aborts the call. A pending call resolves with a cancellation
// error; a finished call keeps its result.
func (c *Call[T]) Cancel() {
	c.cancel()
	c.resolve(Result[T]{Err: NewUnderlyingError(context.Canceled)})
}

// Subscribe runs t asynchronously and hands the outcome to sink through the
// call's Scheduler. sink is not invoked once the call is cancelled, either
// through the returned CancelFunc or through ctx.
func Subscribe[T any](ctx context.Context, c *Client, t target.Target, sink func(T, error), opts ...CallOption) CancelFunc {
	return start(ctx, c, t, opts, func(r Result[T]) { sink(r.Value, r.Err) }, nil)
}

// Stream runs t asynchronously. The channel yields exactly one Result and is
// then closed, or is closed without a value when the call is cancelled.
func Stream[T any](ctx context.Context, c *Client, t target.Target, opts ...CallOption) <-chan Result[T] {
	out := make(chan Result[T], 1)
	start(ctx, c, t, opts,
		func(r Result[T]) {
			out <- r
			close(out)
		},
		func() { close(out) },
	)
	return out
}

const (
	statePending int32 = iota
	stateDelivered
	stateCancelled
)

// start runs the call and settles it exactly once: deliver runs on the
// scheduler with the outcome, or abort runs on cancellation.
func start[T any](
	ctx context.Context,
	c *Client,
	t target.Target,
	opts []CallOption,
	deliver func(Result[T]),
	abort func(),
) CancelFunc {
	o := newCallOptions(opts)
	reqCtx, cancel := context.WithCancel(ctx)

	var state atomic.Int32
	stop := func() {
		if state.CompareAndSwap(statePending, stateCancelled) {
			cancel()
			if abort != nil {
				abort()
			}
		}
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		v, err := Request[T](reqCtx, c, t, opts...)
		cancel()
		if state.Load() != statePending {
			return
		}
		o.scheduler.Schedule(func() {
			if ctx.Err() != nil {
				stop()
				return
			}
			if state.CompareAndSwap(statePending, stateDelivered) {
				deliver(Result[T]{Value: v, Err: err})
			}
		})
	}()

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-finished:
		}
	}()

	return stop
}
