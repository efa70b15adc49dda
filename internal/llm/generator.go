// Package llm defines the text-completion collaborator used to phrase replies
// and to produce structured judgments, plus its Gemini implementation.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Options tune a single completion.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// Generator is the text completion contract consumed by the engine.
type Generator interface {
	// Complete returns the generated text for prompt. Failures are reported as *Error.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Kind classifies why a completion failed.
type Kind string

const (
	KindQuota     Kind = "quota_exceeded"
	KindAuth      Kind = "auth_invalid"
	KindTransient Kind = "transient"
)

// Error is returned by every Generator in this package.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "generation " + string(e.Kind)
	}
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrEmptyCompletion is reported when the service answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// ErrMockMode is reported by Unavailable.
var ErrMockMode = errors.New("generation disabled")

// KindOf returns the failure kind of err. Unknown errors are transient.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// Unavailable is a Generator that always fails. It backs mock mode and runs
// without a configured API key.
type Unavailable struct{}

// Complete always returns a transient *Error.
func (Unavailable) Complete(context.Context, string, Options) (string, error) {
	return "", &Error{Kind: KindTransient, Err: ErrMockMode}
}

// Ensure implementations satisfy Generator.
var (
	_ Generator = Unavailable{}
	_ Generator = (*GeminiClient)(nil)
	_ Generator = (*Guard)(nil)
)
