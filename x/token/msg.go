package token

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

const (
	pathCreateMint   = "token/create_mint"
	pathIssue        = "token/issue"
	pathTransfer     = "token/transfer"
	pathFreeze       = "token/freeze"
	pathCloseAccount = "token/close_account"
)

// CreateMintMsg registers a new asset.
type CreateMintMsg struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Decimals  uint32          `json:"decimals"`
	Authority escrowd.Address `json:"authority"`
}

var _ escrowd.Msg = (*CreateMintMsg)(nil)

func (CreateMintMsg) Path() string {
	return pathCreateMint
}

func (m *CreateMintMsg) Validate() error {
	mint := Mint{Ticker: m.Ticker, Name: m.Name, Decimals: m.Decimals, Authority: m.Authority}
	if err := mint.Validate(); err != nil {
		return errors.Wrap(errors.ErrInvalidMsg, err.Error())
	}
	return nil
}

// IssueMsg creates new units of an asset in the owner's account.
type IssueMsg struct {
	Ticker string          `json:"ticker"`
	Owner  escrowd.Address `json:"owner"`
	Amount uint64          `json:"amount"`
}

var _ escrowd.Msg = (*IssueMsg)(nil)

func (IssueMsg) Path() string {
	return pathIssue
}

func (m *IssueMsg) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid ticker %q", m.Ticker)
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "must be positive")
	}
	return nil
}

// TransferMsg moves an amount of an asset between the associated accounts
// of two owners. The destination account is created if needed.
type TransferMsg struct {
	Ticker      string          `json:"ticker"`
	Decimals    uint32          `json:"decimals"`
	Source      escrowd.Address `json:"source"`
	Destination escrowd.Address `json:"destination"`
	Amount      uint64          `json:"amount"`
}

var _ escrowd.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string {
	return pathTransfer
}

func (m *TransferMsg) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid ticker %q", m.Ticker)
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "must be positive")
	}
	return nil
}

// FreezeMsg freezes or thaws the owner's account.
type FreezeMsg struct {
	Ticker string          `json:"ticker"`
	Owner  escrowd.Address `json:"owner"`
	Frozen bool            `json:"frozen"`
}

var _ escrowd.Msg = (*FreezeMsg)(nil)

func (FreezeMsg) Path() string {
	return pathFreeze
}

func (m *FreezeMsg) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid ticker %q", m.Ticker)
	}
	return errors.Wrap(m.Owner.Validate(), "owner")
}

// CloseAccountMsg closes an empty account of the signer.
type CloseAccountMsg struct {
	Ticker string          `json:"ticker"`
	Owner  escrowd.Address `json:"owner"`
}

var _ escrowd.Msg = (*CloseAccountMsg)(nil)

func (CloseAccountMsg) Path() string {
	return pathCloseAccount
}

func (m *CloseAccountMsg) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid ticker %q", m.Ticker)
	}
	return errors.Wrap(m.Owner.Validate(), "owner")
}
