package token

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// AccountView is the query representation of an account.
type AccountView struct {
	Address escrowd.Address `json:"address"`
	*Account
}

// RegisterQuery exposes "/mint" (by ticker), "/account" (by account
// address) and "/accounts" (by owner address).
func (c Controller) RegisterQuery(qr escrowd.QueryRouter) {
	qr.Register("/mint", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		return c.GetMint(db, string(data))
	}))
	qr.Register("/account", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		addr := escrowd.Address(data)
		if err := addr.Validate(); err != nil {
			return nil, errors.Wrap(err, "account address")
		}
		a, err := c.GetAccount(db, addr)
		if err != nil {
			return nil, err
		}
		return AccountView{Address: addr, Account: a}, nil
	}))
	qr.Register("/accounts", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		owner := escrowd.Address(data)
		if err := owner.Validate(); err != nil {
			return nil, errors.Wrap(err, "owner address")
		}
		accounts, err := c.AccountsOf(db, owner)
		if err != nil {
			return nil, err
		}
		views := make([]AccountView, len(accounts))
		for i, a := range accounts {
			views[i] = AccountView{Address: a.Address(), Account: a}
		}
		return views, nil
	}))
}
