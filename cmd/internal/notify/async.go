package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Async after Close.
var ErrClosed = errors.New("notify: closed")

const (
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second
)

// Async hands messages to a Sender in the background.
//
// At most Workers sends run at once; callers block while all slots are busy
// (bounded by their own context). Each send gets its own timeout and is
// detached from the caller's cancellation.
type Async struct {
	next    Sender
	log     *slog.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// AsyncOption configures Async.
type AsyncOption func(*Async)

// WithWorkers bounds concurrent sends.
func WithWorkers(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout bounds each send.
func WithTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(log *slog.Logger) AsyncOption {
	return func(a *Async) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAsync wraps next.
func NewAsync(next Sender, opts ...AsyncOption) *Async {
	a := &Async{
		next:    next,
		log:     slog.Default(),
		sem:     semaphore.NewWeighted(DefaultWorkers),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// SendConfirmation schedules msg and returns once a worker slot is held.
// Delivery errors are logged, never returned.
func (a *Async) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.wg.Add(1)
	a.mu.Unlock()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		a.wg.Done()
		return err
	}

	base := context.WithoutCancel(ctx)
	go func() {
		defer a.wg.Done()
		defer a.sem.Release(1)

		sendCtx, cancel := context.WithTimeout(base, a.timeout)
		defer cancel()

		if err := a.next.SendConfirmation(sendCtx, msg); err != nil {
			a.log.Warn("notify.confirmation.fail", "email", msg.Email, "err", err)
		}
	}()
	return nil
}

// Close rejects new sends and waits for in-flight ones, or for ctx.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
