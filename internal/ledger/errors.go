package ledger

import "errors"

// Sentinel errors surfaced to callers as validation failures. No partial
// writes are visible when any of them is returned.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrValidation       = errors.New("validation failed")
)
