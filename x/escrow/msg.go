package escrow

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x/token"
)

const (
	pathMake   = "escrow/make"
	pathTake   = "escrow/take"
	pathRefund = "escrow/refund"
)

func (a Asset) validate() error {
	if !token.IsTicker(a.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid ticker %q", a.Ticker)
	}
	return nil
}

// MakeMsg locks a deposit of asset A in a new escrow that asks for
// ReceiveAmount of asset B in return.
type MakeMsg struct {
	Maker         escrowd.Address `json:"maker"`
	Seed          uint64          `json:"seed"`
	MintA         Asset           `json:"mint_a"`
	MintB         Asset           `json:"mint_b"`
	Deposit       uint64          `json:"deposit"`
	ReceiveAmount uint64          `json:"receive_amount"`
}

var _ escrowd.Msg = (*MakeMsg)(nil)

func (MakeMsg) Path() string {
	return pathMake
}

func (m *MakeMsg) Validate() error {
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.MintA.validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	if err := m.MintB.validate(); err != nil {
		return errors.Wrap(err, "mint b")
	}
	if m.MintA.Ticker == m.MintB.Ticker {
		return errors.Wrap(errors.ErrInvalidMsg, "both sides trade the same asset")
	}
	if m.Deposit == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "deposit must be positive")
	}
	if m.ReceiveAmount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "receive amount must be positive")
	}
	return nil
}

// Request returns the engine request described by the message.
func (m *MakeMsg) Request() *MakeRequest {
	return &MakeRequest{
		Maker:         m.Maker,
		Seed:          m.Seed,
		MintA:         m.MintA,
		MintB:         m.MintB,
		Deposit:       m.Deposit,
		ReceiveAmount: m.ReceiveAmount,
	}
}

// TakeMsg settles an escrow. Account fields may be left empty, in which case
// the associated account addresses are used.
type TakeMsg struct {
	Taker         escrowd.Address `json:"taker"`
	Maker         escrowd.Address `json:"maker"`
	Escrow        escrowd.Address `json:"escrow"`
	MintA         Asset           `json:"mint_a"`
	MintB         Asset           `json:"mint_b"`
	Vault         escrowd.Address `json:"vault,omitempty"`
	TakerAccountA escrowd.Address `json:"taker_account_a,omitempty"`
	TakerAccountB escrowd.Address `json:"taker_account_b,omitempty"`
	MakerAccountB escrowd.Address `json:"maker_account_b,omitempty"`
}

var _ escrowd.Msg = (*TakeMsg)(nil)

func (TakeMsg) Path() string {
	return pathTake
}

func (m *TakeMsg) Validate() error {
	if err := m.Taker.Validate(); err != nil {
		return errors.Wrap(err, "taker")
	}
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.Escrow.Validate(); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := m.MintA.validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	if err := m.MintB.validate(); err != nil {
		return errors.Wrap(err, "mint b")
	}
	return validateOptional(map[string]escrowd.Address{
		"vault":           m.Vault,
		"taker account a": m.TakerAccountA,
		"taker account b": m.TakerAccountB,
		"maker account b": m.MakerAccountB,
	})
}

// Request returns the engine request described by the message, filling
// the omitted accounts with their associated addresses.
func (m *TakeMsg) Request() *TakeRequest {
	return &TakeRequest{
		Taker:         m.Taker,
		Maker:         m.Maker,
		Escrow:        m.Escrow,
		MintA:         m.MintA,
		MintB:         m.MintB,
		Vault:         orDefault(m.Vault, VaultAddress(m.Escrow, m.MintA.Ticker)),
		TakerAccountA: orDefault(m.TakerAccountA, token.AccountAddress(m.Taker, m.MintA.Ticker)),
		TakerAccountB: orDefault(m.TakerAccountB, token.AccountAddress(m.Taker, m.MintB.Ticker)),
		MakerAccountB: orDefault(m.MakerAccountB, token.AccountAddress(m.Maker, m.MintB.Ticker)),
	}
}

// RefundMsg cancels an escrow and returns the deposit to the maker.
type RefundMsg struct {
	Maker         escrowd.Address `json:"maker"`
	Escrow        escrowd.Address `json:"escrow"`
	MintA         Asset           `json:"mint_a"`
	Vault         escrowd.Address `json:"vault,omitempty"`
	MakerAccountA escrowd.Address `json:"maker_account_a,omitempty"`
}

var _ escrowd.Msg = (*RefundMsg)(nil)

func (RefundMsg) Path() string {
	return pathRefund
}

func (m *RefundMsg) Validate() error {
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.Escrow.Validate(); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := m.MintA.validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	return validateOptional(map[string]escrowd.Address{
		"vault":           m.Vault,
		"maker account a": m.MakerAccountA,
	})
}

// Request returns the engine request described by the message.
func (m *RefundMsg) Request() *RefundRequest {
	return &RefundRequest{
		Maker:         m.Maker,
		Escrow:        m.Escrow,
		MintA:         m.MintA,
		Vault:         orDefault(m.Vault, VaultAddress(m.Escrow, m.MintA.Ticker)),
		MakerAccountA: orDefault(m.MakerAccountA, token.AccountAddress(m.Maker, m.MintA.Ticker)),
	}
}

func validateOptional(addrs map[string]escrowd.Address) error {
	for name, a := range addrs {
		if len(a) == 0 {
			continue
		}
		if err := a.Validate(); err != nil {
			return errors.Wrap(err, name)
		}
	}
	return nil
}

func orDefault(a, def escrowd.Address) escrowd.Address {
	if len(a) == 0 {
		return def
	}
	return a
}
