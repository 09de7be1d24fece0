package token

import (
	"regexp"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/orm"
)

const (
	// MaxDecimals is the greatest precision a mint may declare.
	MaxDecimals = 18

	accountExtension = "token"
	accountType      = "acct"
)

var (
	isTicker    = regexp.MustCompile(`^[A-Z0-9]{3,8}$`).MatchString
	isTokenName = regexp.MustCompile(`^[A-Za-z0-9 \-_:]{3,32}$`).MatchString
)

// IsTicker returns true if the value can be used as a mint ticker.
func IsTicker(ticker string) bool {
	return isTicker(ticker)
}

// Mint describes a single asset.
type Mint struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Decimals uint32 `json:"decimals"`
	// Authority may issue new units and freeze accounts.
	Authority escrowd.Address `json:"authority"`
}

var _ orm.Model = (*Mint)(nil)

func (m *Mint) Marshal() ([]byte, error) {
	return orm.Marshal(m)
}

func (m *Mint) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, m)
}

func (m *Mint) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidModel, "invalid ticker %q", m.Ticker)
	}
	if !isTokenName(m.Name) {
		return errors.Wrapf(errors.ErrInvalidModel, "invalid token name %q", m.Name)
	}
	if m.Decimals > MaxDecimals {
		return errors.Wrapf(errors.ErrInvalidModel, "too many decimals: %d", m.Decimals)
	}
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	return nil
}

// NewMintBucket returns a bucket storing mints under their ticker.
func NewMintBucket() orm.ModelBucket {
	return orm.NewModelBucket("mint", &Mint{})
}

// Account holds a balance of a single asset on behalf of the owner.
type Account struct {
	Owner  escrowd.Address `json:"owner"`
	Ticker string          `json:"ticker"`
	Amount uint64          `json:"amount"`
	// Reserve is the storage allowance locked by this account. It is
	// returned when the account is closed.
	Reserve uint64 `json:"reserve"`
	Frozen  bool   `json:"frozen"`
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Marshal() ([]byte, error) {
	return orm.Marshal(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, a)
}

func (a *Account) Validate() error {
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if !isTicker(a.Ticker) {
		return errors.Wrapf(errors.ErrInvalidModel, "invalid ticker %q", a.Ticker)
	}
	return nil
}

// Address returns the address this account is stored under.
func (a *Account) Address() escrowd.Address {
	return AccountAddress(a.Owner, a.Ticker)
}

// AccountAddress returns the address of the account associated with the
// owner for the given mint.
func AccountAddress(owner escrowd.Address, ticker string) escrowd.Address {
	data := make([]byte, 0, len(owner)+len(ticker))
	data = append(data, owner...)
	data = append(data, ticker...)
	return escrowd.NewCondition(accountExtension, accountType, data).Address()
}

// NewAccountBucket returns a bucket storing accounts under their associated
// address, indexed by owner.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("acct", &Account{},
		orm.WithIndex("owner", accountOwner, false))
}

func accountOwner(m orm.Model) ([]byte, error) {
	a, ok := m.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return a.Owner, nil
}
