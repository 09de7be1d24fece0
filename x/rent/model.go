package rent

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/orm"
)

const packageName = "rent"

// Configuration holds the reserve sizes charged for every persisted entity.
type Configuration struct {
	// AccountReserve is locked for every open token account.
	AccountReserve uint64 `json:"account_reserve"`
	// EscrowReserve is locked for every escrow record.
	EscrowReserve uint64 `json:"escrow_reserve"`
}

func (c *Configuration) Marshal() ([]byte, error) {
	return orm.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, c)
}

func (c *Configuration) Validate() error {
	if c.AccountReserve == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "account reserve must be positive")
	}
	if c.EscrowReserve == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "escrow reserve must be positive")
	}
	return nil
}

// Allowance is the storage allowance held by a single address.
type Allowance struct {
	Amount uint64 `json:"amount"`
}

var _ orm.Model = (*Allowance)(nil)

func (a *Allowance) Marshal() ([]byte, error) {
	return orm.Marshal(a)
}

func (a *Allowance) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, a)
}

func (a *Allowance) Validate() error {
	return nil
}

// NewBucket returns a bucket for storing allowances keyed by the owner
// address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("rent", &Allowance{})
}

func loadAllowance(db escrowd.ReadOnlyKVStore, b orm.ModelBucket, addr escrowd.Address) (*Allowance, error) {
	var a Allowance
	switch err := b.One(db, addr, &a); {
	case err == nil:
		return &a, nil
	case errors.ErrNotFound.Is(err):
		return &Allowance{}, nil
	default:
		return nil, err
	}
}
