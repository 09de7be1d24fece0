package token

import (
	"math"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/orm"
	"github.com/iov-one/escrowd/x"
	"github.com/iov-one/escrowd/x/rent"
)

// Controller is the functionality other extensions use to move assets.
type Controller struct {
	mints    orm.ModelBucket
	accounts orm.ModelBucket
	rent     rent.Controller
}

// NewController returns a controller charging account reserves through the
// given rent controller.
func NewController(r rent.Controller) Controller {
	return Controller{
		mints:    NewMintBucket(),
		accounts: NewAccountBucket(),
		rent:     r,
	}
}

// CreateMint registers a new asset. Tickers are unique.
func (c Controller) CreateMint(db escrowd.KVStore, m *Mint) error {
	switch err := c.mints.Has(db, []byte(m.Ticker)); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "mint %s", m.Ticker)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return c.mints.Put(db, []byte(m.Ticker), m)
}

// GetMint returns the mint of the ticker.
func (c Controller) GetMint(db escrowd.ReadOnlyKVStore, ticker string) (*Mint, error) {
	var m Mint
	if err := c.mints.One(db, []byte(ticker), &m); err != nil {
		return nil, errors.Wrapf(err, "mint %s", ticker)
	}
	return &m, nil
}

// GetAccount returns the account stored under the address.
func (c Controller) GetAccount(db escrowd.ReadOnlyKVStore, addr escrowd.Address) (*Account, error) {
	var a Account
	if err := c.accounts.One(db, addr, &a); err != nil {
		return nil, errors.Wrapf(err, "account %s", addr)
	}
	return &a, nil
}

// AccountsOf returns all accounts of the owner.
func (c Controller) AccountsOf(db escrowd.ReadOnlyKVStore, owner escrowd.Address) ([]*Account, error) {
	var accounts []*Account
	if _, err := c.accounts.ByIndex(db, "owner", owner, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Balance returns the amount held by the account.
func (c Controller) Balance(db escrowd.ReadOnlyKVStore, addr escrowd.Address) (uint64, error) {
	a, err := c.GetAccount(db, addr)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// OpenAccount creates the account associated with the owner for the ticker.
// The payer is charged the account reserve.
func (c Controller) OpenAccount(db escrowd.KVStore, payer, owner escrowd.Address, ticker string) (*Account, error) {
	if _, err := c.GetMint(db, ticker); err != nil {
		return nil, err
	}
	addr := AccountAddress(owner, ticker)
	switch err := c.accounts.Has(db, addr); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %s", addr)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	conf, err := c.rent.Config(db)
	if err != nil {
		return nil, err
	}
	if err := c.rent.Charge(db, payer, conf.AccountReserve); err != nil {
		return nil, errors.Wrap(err, "account reserve")
	}
	acc := &Account{
		Owner:   owner,
		Ticker:  ticker,
		Reserve: conf.AccountReserve,
	}
	if err := c.accounts.Put(db, addr, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// EnsureAccount returns the account under the supplied address, creating it
// at the payer's expense if it does not exist yet. The supplied address must
// be the account associated with the owner for the ticker and an existing
// account must belong to that owner and mint.
func (c Controller) EnsureAccount(db escrowd.KVStore, payer, owner escrowd.Address, ticker string, supplied escrowd.Address) (*Account, bool, error) {
	if want := AccountAddress(owner, ticker); !want.Equals(supplied) {
		return nil, false, errors.Wrapf(ErrInvalidAccount, "%s is not the %s account of %s", supplied, ticker, owner)
	}
	var acc Account
	switch err := c.accounts.One(db, supplied, &acc); {
	case err == nil:
		if err := CheckAccount(&acc, owner, ticker); err != nil {
			return nil, false, err
		}
		return &acc, false, nil
	case errors.ErrNotFound.Is(err):
		created, err := c.OpenAccount(db, payer, owner, ticker)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	default:
		return nil, false, err
	}
}

// CheckAccount ensures the account is held by the owner for the mint.
func CheckAccount(a *Account, owner escrowd.Address, ticker string) error {
	if a.Ticker != ticker {
		return errors.Wrapf(ErrMintMismatch, "account holds %s, not %s", a.Ticker, ticker)
	}
	if !a.Owner.Equals(owner) {
		return errors.Wrapf(ErrOwnerMismatch, "account owned by %s, not %s", a.Owner, owner)
	}
	return nil
}

// Issue creates amount of new units of the mint and adds them to the
// account.
func (c Controller) Issue(db escrowd.KVStore, addr escrowd.Address, amount uint64) error {
	acc, err := c.GetAccount(db, addr)
	if err != nil {
		return err
	}
	if acc.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "account %s", addr)
	}
	acc.Amount += amount
	return c.accounts.Put(db, addr, acc)
}

// TransferChecked moves amount from src to dst account. The owner of the
// source account must be authenticated. The decimals must match the mint's
// decimals, so that a caller never moves an amount expressed in a different
// precision.
func (c Controller) TransferChecked(
	ctx escrowd.Context,
	db escrowd.KVStore,
	auth x.Authenticator,
	src, dst escrowd.Address,
	ticker string,
	amount uint64,
	decimals uint32,
) error {
	mint, err := c.GetMint(db, ticker)
	if err != nil {
		return err
	}
	if mint.Decimals != decimals {
		return errors.Wrapf(ErrDecimals, "%s has %d decimals, got %d", ticker, mint.Decimals, decimals)
	}

	from, err := c.GetAccount(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if from.Ticker != ticker {
		return errors.Wrapf(ErrMintMismatch, "source holds %s", from.Ticker)
	}
	if !auth.HasAddress(ctx, from.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "source owner")
	}
	to, err := c.GetAccount(db, dst)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if to.Ticker != ticker {
		return errors.Wrapf(ErrMintMismatch, "destination holds %s", to.Ticker)
	}
	if from.Frozen {
		return errors.Wrapf(ErrFrozen, "source %s", src)
	}
	if to.Frozen {
		return errors.Wrapf(ErrFrozen, "destination %s", dst)
	}
	if from.Amount < amount {
		return errors.Wrapf(ErrInsufficientFunds, "%s holds %d, needs %d", src, from.Amount, amount)
	}
	if src.Equals(dst) {
		return nil
	}
	if to.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "destination %s", dst)
	}

	from.Amount -= amount
	to.Amount += amount
	if err := c.accounts.Put(db, src, from); err != nil {
		return err
	}
	return c.accounts.Put(db, dst, to)
}

// CloseAccount removes an empty account and returns its reserve to dest.
// The account owner must be authenticated.
func (c Controller) CloseAccount(ctx escrowd.Context, db escrowd.KVStore, auth x.Authenticator, addr, dest escrowd.Address) error {
	acc, err := c.GetAccount(db, addr)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, acc.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "account owner")
	}
	if acc.Frozen {
		return errors.Wrapf(ErrFrozen, "account %s", addr)
	}
	if acc.Amount != 0 {
		return errors.Wrapf(ErrAccountNotEmpty, "account %s holds %d", addr, acc.Amount)
	}
	if err := c.accounts.Delete(db, addr); err != nil {
		return err
	}
	if err := c.rent.Refund(db, dest, acc.Reserve); err != nil {
		return errors.Wrap(err, "account reserve")
	}
	return nil
}

// SetFrozen freezes or thaws the account.
func (c Controller) SetFrozen(db escrowd.KVStore, addr escrowd.Address, frozen bool) error {
	acc, err := c.GetAccount(db, addr)
	if err != nil {
		return err
	}
	acc.Frozen = frozen
	return c.accounts.Put(db, addr, acc)
}
