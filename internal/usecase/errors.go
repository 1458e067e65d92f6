package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Errors reported by external Steam-like sources. Their messages are stored
// verbatim on valuations, so keep them stable.
var (
	ErrInventoryPrivate  = errors.New("Inventory is private")
	ErrSourceRateLimited = errors.New("Rate limited by Steam")
	ErrSourceBadRequest  = errors.New("Steam API bad request")
)

// SourceStatusError is any other non-success response from a source.
type SourceStatusError struct {
	StatusCode int
}

func (e *SourceStatusError) Error() string {
	return fmt.Sprintf("Steam API error: %d", e.StatusCode)
}

// valuationErrorMessage renders err as the message persisted on a valuation.
func valuationErrorMessage(err error) string {
	var statusErr *SourceStatusError
	switch {
	case errors.Is(err, ErrInventoryPrivate):
		return ErrInventoryPrivate.Error()
	case errors.Is(err, ErrSourceRateLimited):
		return ErrSourceRateLimited.Error()
	case errors.As(err, &statusErr):
		return statusErr.Error()
	default:
		return "Error: " + err.Error()
	}
}
