package models

import "errors"

// Typed domain errors. Services return these directly; the API layer maps
// them to problem responses. ErrWalletNotFound deliberately covers both
// "absent" and "owned by someone else" so existence never leaks.
var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrSenderNotFound         = errors.New("sender wallet not found")
	ErrReceiverNotFound       = errors.New("receiver wallet not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidChoice          = errors.New("invalid card type or currency")
	ErrWalletLimitExceeded    = errors.New("wallet limit exceeded for user")
	ErrSameWallet             = errors.New("cannot transfer to the same wallet")
	ErrCurrencyMismatch       = errors.New("sender and receiver currencies differ")
	ErrInsufficientFunds      = errors.New("insufficient funds to cover transfer and fee")
	ErrDuplicateName          = errors.New("wallet name already taken")
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrReferentialRestriction = errors.New("wallet is referenced by transactions")
	ErrNotWalletOwner         = errors.New("sender wallet is not owned by requester")
	ErrInvalidCredentials     = errors.New("invalid username or password")
)
