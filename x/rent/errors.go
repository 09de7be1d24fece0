package rent

import "github.com/iov-one/escrowd/errors"

// ErrInsufficientAllowance is returned when a payer cannot cover a reserve.
var ErrInsufficientAllowance = errors.Register(130, "insufficient storage allowance")
