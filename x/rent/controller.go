package rent

import (
	"math"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/gconf"
	"github.com/iov-one/escrowd/orm"
)

// Controller manages the storage allowance ledger. Other extensions use it
// to charge and return reserves.
type Controller struct {
	bucket orm.ModelBucket
}

// NewController returns a controller using the default bucket.
func NewController() Controller {
	return Controller{bucket: NewBucket()}
}

// Config loads the reserve configuration.
func (c Controller) Config(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load rent configuration")
	}
	return &conf, nil
}

// Balance returns the allowance of the address. Unknown addresses hold
// nothing.
func (c Controller) Balance(db escrowd.ReadOnlyKVStore, addr escrowd.Address) (uint64, error) {
	a, err := loadAllowance(db, c.bucket, addr)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// Charge takes amount of allowance from the payer. It fails without any
// change if the payer cannot cover it.
func (c Controller) Charge(db escrowd.KVStore, payer escrowd.Address, amount uint64) error {
	if err := payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	a, err := loadAllowance(db, c.bucket, payer)
	if err != nil {
		return err
	}
	if a.Amount < amount {
		return errors.Wrapf(ErrInsufficientAllowance, "%s holds %d, needs %d", payer, a.Amount, amount)
	}
	a.Amount -= amount
	return c.save(db, payer, a)
}

// Refund returns amount of allowance to the destination.
func (c Controller) Refund(db escrowd.KVStore, dest escrowd.Address, amount uint64) error {
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	a, err := loadAllowance(db, c.bucket, dest)
	if err != nil {
		return err
	}
	if a.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "allowance of %s", dest)
	}
	a.Amount += amount
	return c.save(db, dest, a)
}

func (c Controller) save(db escrowd.KVStore, addr escrowd.Address, a *Allowance) error {
	if a.Amount == 0 {
		if err := c.bucket.Delete(db, addr); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.bucket.Put(db, addr, a)
}
