package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInstrumentNotFound = errors.New("instrument_not_found")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrInsufficientShares = errors.New("insufficient_shares")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidToken       = errors.New("invalid_token")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
