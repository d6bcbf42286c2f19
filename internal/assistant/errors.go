package assistant

import (
	"context"
	"errors"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
)

// ErrorCode classifies why an assistant call fell back.
type ErrorCode string

const (
	CodeAuth            ErrorCode = "auth"
	CodeModelNotFound   ErrorCode = "model_not_found"
	CodeBadRequest      ErrorCode = "bad_request"
	CodeRateLimited     ErrorCode = "rate_limited"
	CodeServer          ErrorCode = "server"
	CodeUnreachable     ErrorCode = "unreachable"
	CodeInvalidResponse ErrorCode = "invalid_response"
	CodeUnknown         ErrorCode = "unknown"
)

// Code maps an error from the runtime or decoder to an ErrorCode.
func Code(err error) ErrorCode {
	var (
		authErr     *ai.AuthError
		notFound    *ai.ModelNotFoundError
		badReq      *ai.BadRequestError
		rateLimited *ai.RateLimitError
		quota       *ai.QuotaExceededError
		serverErr   *ai.ServerError
		unreachable *ai.UnreachableError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr), errors.Is(err, ai.ErrMissingAPIKey):
		return CodeAuth
	case errors.As(err, &notFound):
		return CodeModelNotFound
	case errors.As(err, &badReq):
		return CodeBadRequest
	case errors.As(err, &rateLimited), errors.As(err, &quota):
		return CodeRateLimited
	case errors.As(err, &serverErr):
		return CodeServer
	case errors.As(err, &unreachable), errors.Is(err, context.DeadlineExceeded):
		return CodeUnreachable
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ai.ErrEmptyResponse):
		return CodeInvalidResponse
	}
	return CodeUnknown
}

// Error wraps a failed call with its code. Callers still receive a usable
// fallback value alongside it.
type Error struct {
	Op   string
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string { return e.Op + ": " + string(e.Code) + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Code: Code(err), Err: err}
}
