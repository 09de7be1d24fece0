package rent

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// AllowanceView is the query representation of an allowance.
type AllowanceView struct {
	Address escrowd.Address `json:"address"`
	Amount  uint64          `json:"amount"`
}

// RegisterQuery exposes "/allowance" (by address) and "/rent" (the
// configured reserves).
func (c Controller) RegisterQuery(qr escrowd.QueryRouter) {
	qr.Register("/allowance", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		addr := escrowd.Address(data)
		if err := addr.Validate(); err != nil {
			return nil, errors.Wrap(err, "address")
		}
		amount, err := c.Balance(db, addr)
		if err != nil {
			return nil, err
		}
		return AllowanceView{Address: addr, Amount: amount}, nil
	}))
	qr.Register("/rent", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		return c.Config(db)
	}))
}
