package referral

import "errors"

// Domain errors returned by ledger operations. NotFound and
// InvalidTransition are expected outcomes, not failures; callers map them
// to user-facing responses instead of aborting.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidTransition   = errors.New("operation not allowed in current status")
	ErrInsufficientBalance = errors.New("payout amount exceeds balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrDuplicateAccrual    = errors.New("earning already exists for order")
)
