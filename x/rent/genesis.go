package rent

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/gconf"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ escrowd.Initializer = Initializer{}

// GenesisAllowance is the initial allowance of a single address.
type GenesisAllowance struct {
	Address escrowd.Address `json:"address"`
	Amount  uint64          `json:"amount"`
}

// FromGenesis stores the configuration and all initial allowances.
func (Initializer) FromGenesis(opts escrowd.Options, db escrowd.KVStore) error {
	if err := gconf.InitConfig(db, opts, packageName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var allowances []GenesisAllowance
	if err := opts.ReadOptions("rent", &allowances); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "read rent: %s", err)
	}
	ctrl := NewController()
	for i, a := range allowances {
		if err := ctrl.Refund(db, a.Address, a.Amount); err != nil {
			return errors.Wrapf(err, "allowance #%d", i)
		}
	}
	return nil
}
