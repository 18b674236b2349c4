// Package generationtest provides a scripted Generator for tests.
package generationtest

import (
	"context"
	"iter"
	"sync"
	"time"
)

// Fake replays Chunks and then optionally fails with Err. It records every
// prompt it receives.
type Fake struct {
	Chunks []string
	Err    error
	// Delay is waited before each chunk
	Delay time.Duration
	// Gate, when set, must receive a value before each chunk is delivered
	Gate chan struct{}
	// Hang blocks after the last chunk until the context ends
	Hang bool
	// ProviderName is returned by Name
	ProviderName string

	mu      sync.Mutex
	prompts []string
}

func (f *Fake) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

func (f *Fake) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	return func(yield func(string, error) bool) {
		for _, chunk := range f.Chunks {
			if err := f.wait(ctx); err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}

		if f.Hang {
			<-ctx.Done()
			yield("", ctx.Err())
			return
		}
		if f.Err != nil {
			yield("", f.Err)
		}
	}
}

func (f *Fake) wait(ctx context.Context) error {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Calls returns how many times Generate was invoked
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns every prompt received, in call order
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if none
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
