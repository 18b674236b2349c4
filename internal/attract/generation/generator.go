// Package generation talks to the remote text generation service.
package generation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Generator produces the model's answer for a prompt as a sequence of text
// chunks. Each call makes exactly one outbound request and never retries.
// The sequence ends after the first error; an error after some chunks means
// the text seen so far is incomplete.
type Generator interface {
	Generate(ctx context.Context, prompt string) iter.Seq2[string, error]

	// Name identifies the provider in logs and events
	Name() string
}

// ErrNotConfigured is returned when no API key is available
var ErrNotConfigured = errors.New("generation: API key is not configured")

// Kind classifies generation failures
type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindEmptyBody Kind = "empty_body"
	KindEndpoint  Kind = "endpoint"
	KindStalled   Kind = "stalled"
)

// Error is a failed generation call
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("generation ")
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && (e.Message == "" || !strings.Contains(e.Message, e.Err.Error())) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not a generation error
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: "request failed", Err: err}
}

// Collect drains a generation into one string. Partial text is discarded on
// failure, and a response without any text is reported as KindEmptyBody.
func Collect(ctx context.Context, g Generator, prompt string) (string, error) {
	var b strings.Builder
	for chunk, err := range g.Generate(ctx, prompt) {
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}

	if b.Len() == 0 {
		return "", &Error{Kind: KindEmptyBody, Message: "response contained no text"}
	}
	return b.String(), nil
}
