// Package llm provides streaming text-generation clients.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout indicates the generation deadline elapsed before the
// endpoint signaled completion. The stream is abandoned at that point;
// no further tokens are accumulated.
var ErrTimeout = errors.New("inference request timed out")

// InferenceError wraps a transport or parse failure from the generation
// endpoint. Deadline expiry is reported as ErrTimeout instead.
type InferenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("inference %s failed", e.Op)
}

// Unwrap returns the underlying cause.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Generator produces a completion for a prompt. The deadline travels on
// the context; implementations must abandon the stream and return
// ErrTimeout once it elapses. Errors are returned as values, never
// panicked past the client boundary.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TokenCallback observes each streamed fragment as it arrives.
type TokenCallback func(token string)

// timeoutOr classifies an error that interrupted a generation call:
// context expiry maps to ErrTimeout, everything else to InferenceError.
func timeoutOr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: try reducing context or using a smaller model", ErrTimeout)
	}
	return &InferenceError{Op: op, Err: err}
}
