package escrow

import "github.com/iov-one/escrowd/errors"

// Escrow reserves 1100~1109 error codes
var (
	// ErrBinding is returned when a supplied maker, vault or account does
	// not belong to the escrow record.
	ErrBinding = errors.Register(1100, "escrow binding mismatch")
	// ErrRetired is returned when a {maker, seed} pair was already used by
	// an escrow that has been settled or refunded.
	ErrRetired = errors.Register(1101, "escrow retired")
)
