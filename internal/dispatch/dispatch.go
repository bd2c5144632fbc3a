// Package dispatch executes batches of send requests with bounded
// concurrency. Failures are isolated per request and surfaced as outcomes,
// never as pool errors; retry policy belongs to the caller.
package dispatch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nhle/mailseed/internal/model"
)

// Sender performs one outbound authenticated send and returns the assigned
// message id.
type Sender interface {
	Send(ctx context.Context, req model.SendRequest) (string, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req model.SendRequest) (string, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, req model.SendRequest) (string, error) {
	return f(ctx, req)
}

// Dispatcher runs batches against a Sender with at most Concurrency requests
// in flight. Workers share no mutable state; each owns its request for the
// duration of the send.
type Dispatcher struct {
	sender      Sender
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each individual send. Zero means no per-send timeout.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.timeout = d }
}

// WithRateLimit caps sends per second across all workers. Non-positive
// disables the cap.
func WithRateLimit(perSec float64) Option {
	return func(dp *Dispatcher) {
		if perSec > 0 {
			dp.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// New returns a dispatcher over the given sender with the given concurrency
// limit. A limit below one is treated as one.
func New(sender Sender, concurrency int, opts ...Option) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	d := &Dispatcher{sender: sender, concurrency: concurrency}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes every request in the batch and returns one outcome per
// request, in the batch's input order regardless of completion order. A
// failed request produces a failure outcome and does not affect its
// siblings. Dispatch blocks until the whole batch has resolved.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []model.SendRequest) []model.SendOutcome {
	outcomes := make([]model.SendOutcome, len(batch))

	grp := &errgroup.Group{}
	grp.SetLimit(d.concurrency)

	for i, req := range batch {
		i, req := i, req
		grp.Go(func() error {
			outcomes[i] = d.sendOne(ctx, req)
			return nil
		})
	}

	// Workers never return errors; Wait is purely the batch barrier.
	_ = grp.Wait()
	return outcomes
}

// sendOne performs a single send with the configured rate cap and timeout.
func (d *Dispatcher) sendOne(ctx context.Context, req model.SendRequest) model.SendOutcome {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return model.SendOutcome{Err: err}
		}
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	id, err := d.sender.Send(sendCtx, req)
	if err != nil {
		return model.SendOutcome{Err: err}
	}
	return model.SendOutcome{OK: true, MessageID: id}
}
