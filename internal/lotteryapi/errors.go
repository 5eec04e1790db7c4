package lotteryapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the requested entity does not exist externally.
	ErrNotFound = errors.New("lotteryapi: not found")
	// ErrForbidden means the external system refused the operation for this customer.
	ErrForbidden = errors.New("lotteryapi: forbidden")
	// ErrConflict means the operation collides with existing external state,
	// e.g. the ticket was already consumed.
	ErrConflict = errors.New("lotteryapi: conflict")
	// ErrNoUnfilledTicket means the customer has no ticket left to fill in the draw.
	ErrNoUnfilledTicket = errors.New("lotteryapi: no unfilled ticket")
	// ErrTransient covers timeouts, connection failures and 5xx responses.
	ErrTransient = errors.New("lotteryapi: temporarily unavailable")
	// ErrUnexpected covers every other non-success response.
	ErrUnexpected = errors.New("lotteryapi: unexpected response")
)

// APIError describes a non-success response. It unwraps to one of the
// sentinel errors above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusTooManyRequests, code >= 500:
		return ErrTransient
	default:
		return ErrUnexpected
	}
}

// IsRejection reports the explicit refusals of a fill or create: forbidden,
// conflict, or nothing left to fill. These differ from transient failures in
// that retrying the same request will not help.
func IsRejection(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNoUnfilledTicket)
}
