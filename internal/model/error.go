package model

import "errors"

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error kinds. Operations wrap one of these so callers can match with errors.Is.
var (
	ErrPersistenceFailure  = errors.New("persistence failure")
	ErrNetworkFailure      = errors.New("network failure")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyRunning      = errors.New("a batch is already running")
	ErrCancelled           = errors.New("cancelled")
)

// ErrorCode maps an error to the short code used in ErrorResponse.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		return "already_running"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return ""
	}
}
