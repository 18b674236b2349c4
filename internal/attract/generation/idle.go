package generation

import (
	"context"
	"errors"
	"iter"
	"time"
)

var errIdle = errors.New("no data received within idle timeout")

type idleGuard struct {
	next    Generator
	timeout time.Duration
}

// WithIdleTimeout cancels a generation that goes longer than timeout without
// delivering a chunk and reports it as KindStalled. Time spent by the caller
// handling a chunk does not count. A non-positive timeout returns g unchanged.
func WithIdleTimeout(g Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		return g
	}
	return &idleGuard{next: g, timeout: timeout}
}

func (g *idleGuard) Name() string {
	return g.next.Name()
}

func (g *idleGuard) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		timer := time.AfterFunc(g.timeout, func() { cancel(errIdle) })
		defer timer.Stop()

		stalled := func() bool {
			return errors.Is(context.Cause(ctx), errIdle)
		}

		for chunk, err := range g.next.Generate(ctx, prompt) {
			if err != nil {
				if stalled() {
					err = &Error{Kind: KindStalled, Message: errIdle.Error(), Err: err}
				}
				yield("", err)
				return
			}

			if !timer.Stop() && stalled() {
				yield("", &Error{Kind: KindStalled, Message: errIdle.Error()})
				return
			}
			if !yield(chunk, nil) {
				return
			}
			timer.Reset(g.timeout)
		}

		if stalled() {
			yield("", &Error{Kind: KindStalled, Message: errIdle.Error()})
		}
	}
}
