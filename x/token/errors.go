package token

import "github.com/iov-one/escrowd/errors"

// Token reserves 1000~1009 error codes
var (
	ErrMintMismatch      = errors.Register(1000, "mint mismatch")
	ErrOwnerMismatch     = errors.Register(1001, "owner mismatch")
	ErrDecimals          = errors.Register(1002, "decimals mismatch")
	ErrFrozen            = errors.Register(1003, "account frozen")
	ErrInsufficientFunds = errors.Register(1004, "insufficient funds")
	ErrAccountNotEmpty   = errors.Register(1005, "account not empty")
	ErrInvalidAccount    = errors.Register(1006, "invalid account address")
)
