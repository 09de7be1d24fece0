package token

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x/rent"
)

const optKey = "token"

// GenesisAccount is an initial balance of an owner.
type GenesisAccount struct {
	Owner  escrowd.Address `json:"owner"`
	Ticker string          `json:"ticker"`
	Amount uint64          `json:"amount"`
}

// Genesis is the token section of the genesis file.
type Genesis struct {
	Mints    []Mint           `json:"mints"`
	Accounts []GenesisAccount `json:"accounts"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file. It must run after the rent initializer, because genesis
// accounts lock the configured reserve.
type Initializer struct{}

var _ escrowd.Initializer = Initializer{}

// FromGenesis stores all mints and initial accounts. Genesis accounts carry
// the configured reserve without charging anyone.
func (Initializer) FromGenesis(opts escrowd.Options, db escrowd.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "read token: %s", err)
	}
	if len(gen.Mints) == 0 && len(gen.Accounts) == 0 {
		return nil
	}

	r := rent.NewController()
	ctrl := NewController(r)
	for i := range gen.Mints {
		if err := ctrl.CreateMint(db, &gen.Mints[i]); err != nil {
			return errors.Wrapf(err, "mint #%d", i)
		}
	}

	var reserve uint64
	if len(gen.Accounts) > 0 {
		conf, err := r.Config(db)
		if err != nil {
			return err
		}
		reserve = conf.AccountReserve
	}
	accounts := NewAccountBucket()
	for i, a := range gen.Accounts {
		if _, err := ctrl.GetMint(db, a.Ticker); err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
		addr := AccountAddress(a.Owner, a.Ticker)
		if err := accounts.Has(db, addr); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "account #%d", i)
		}
		acc := &Account{Owner: a.Owner, Ticker: a.Ticker, Amount: a.Amount, Reserve: reserve}
		if err := accounts.Put(db, addr, acc); err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
	}
	return nil
}
