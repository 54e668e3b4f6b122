package dana

import "errors"

var (
	// ErrAccountNotFound is returned when a fund account id does not resolve.
	ErrAccountNotFound = errors.New("fund account not found")
	// ErrBatchNotFound is returned when a purchase batch id does not resolve.
	ErrBatchNotFound = errors.New("purchase batch not found")
	// ErrInsufficientFunds is returned when a debit would overdraw an account.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrSameAccount is returned for a transfer where source == destination.
	ErrSameAccount = errors.New("transfer source and destination are the same account")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidBatchState is returned when a transition is attempted from a
	// state that does not allow it.
	ErrInvalidBatchState = errors.New("purchase batch is not in a state that allows this operation")
	// ErrNoApprovedItems is returned when payment is attempted on a batch with
	// no accepted items.
	ErrNoApprovedItems = errors.New("purchase batch has no approved items")
	// ErrAlreadyCapitalized is returned when initial capital is seeded twice.
	ErrAlreadyCapitalized = errors.New("account already has initial capital")
	// ErrItemNotFound is returned when a review decision names an unknown item.
	ErrItemNotFound = errors.New("purchase item not found")
	// ErrValidation wraps malformed-input failures raised before any mutation.
	ErrValidation = errors.New("validation failed")
)
