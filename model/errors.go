package model

import "time"

const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeRateLimitReached    = "RATE_LIMIT_REACHED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeUnexpected          = "UNEXPECTED_ERROR"
)

// UpstreamError is the uniform error shape for failed upstream cycles
// rate limit errors carry the reset timestamp and the remaining call count when known
type UpstreamError struct {
	Code      string
	ResetAt   *time.Time
	Remaining *int
}

func (e *UpstreamError) Error() string {
	return e.Code
}

func NewNotFoundError() *UpstreamError {
	return &UpstreamError{Code: ErrCodeNotFound}
}

func NewRateLimitError(resetAt *time.Time, remaining *int) *UpstreamError {
	return &UpstreamError{Code: ErrCodeRateLimitReached, ResetAt: resetAt, Remaining: remaining}
}

func NewUpstreamUnavailableError() *UpstreamError {
	return &UpstreamError{Code: ErrCodeUpstreamUnavailable}
}

func NewUnexpectedError() *UpstreamError {
	return &UpstreamError{Code: ErrCodeUnexpected}
}

type APIError struct {
	Code      string     `json:"error"`
	Message   string     `json:"message"`
	ResetAt   *time.Time `json:"resetAt,omitempty"`
	Remaining *int       `json:"remaining,omitempty"`
}

func NewAPIError(errReason error) APIError {
	upstreamErr, ok := errReason.(*UpstreamError)
	if !ok {
		return APIError{
			Code:    ErrCodeUnexpected,
			Message: "internal server error. contact our support with the reason code for assistance",
		}
	}

	switch upstreamErr.Code {
	case ErrCodeNotFound:
		return APIError{
			Code:    ErrCodeNotFound,
			Message: "no github account found for this username",
		}

	case ErrCodeRateLimitReached:
		return APIError{
			Code:      ErrCodeRateLimitReached,
			Message:   "github rate limit reached. consider using a token to increase the limit or wait few minutes and try again",
			ResetAt:   upstreamErr.ResetAt,
			Remaining: upstreamErr.Remaining,
		}

	case ErrCodeUpstreamUnavailable:
		return APIError{
			Code:    ErrCodeUpstreamUnavailable,
			Message: "github is unreachable at the moment. try again in a few minutes",
		}

	default:
		return APIError{
			Code:    upstreamErr.Code,
			Message: "internal server error. contact our support with the reason code for assistance",
		}
	}
}
