// Package llm implements plan step generators on top of hosted text models.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies generation failures.
type ErrorCode string

const (
	ErrNotConfigured     ErrorCode = "NOT_CONFIGURED"
	ErrUnavailable       ErrorCode = "UNAVAILABLE"
	ErrTimeout           ErrorCode = "TIMEOUT"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrEmptyResponse     ErrorCode = "EMPTY_RESPONSE"
)

// GenerationError is returned by every generator in this package.
type GenerationError struct {
	Code     ErrorCode
	Provider string // e.g. "gemini" or "anthropic"
	Message  string
	Cause    error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Provider, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of a GenerationError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// callError maps a transport failure to a code.
func callError(ctx context.Context, provider string, err error) error {
	code := ErrUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = ErrTimeout
	}
	return &GenerationError{Code: code, Provider: provider, Message: "request failed", Cause: err}
}
