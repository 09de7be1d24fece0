package escrow

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/orm"
	"github.com/iov-one/escrowd/x/token"
)

// ProgramName is the name under which escrow authorities are derived.
const ProgramName = "escrow"

// State is the settlement progress of an escrow.
type State uint32

const (
	// Pending escrow holds a funded vault.
	Pending State = iota
	// Settling escrow has been paid by the taker but the vault is not
	// released yet.
	Settling
	// Closed escrow is retired together with its vault.
	Closed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Settling:
		return "settling"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(raw []byte) error {
	for _, st := range []State{Pending, Settling, Closed} {
		if st.String() == string(raw) {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidInput, "unknown state %q", raw)
}

// Escrow is the record of a single pending trade. It is stored under the
// address of its derived authority. All fields are immutable.
type Escrow struct {
	Maker         escrowd.Address `json:"maker"`
	MintA         string          `json:"mint_a"`
	MintB         string          `json:"mint_b"`
	ReceiveAmount uint64          `json:"receive_amount"`
	Seed          uint64          `json:"seed"`
	Bump          uint32          `json:"bump"`
	// Reserve is the storage allowance locked by this record.
	Reserve uint64 `json:"reserve"`
}

var _ orm.Model = (*Escrow)(nil)

func (e *Escrow) Marshal() ([]byte, error) {
	return orm.Marshal(e)
}

func (e *Escrow) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, e)
}

func (e *Escrow) Validate() error {
	if err := e.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if !token.IsTicker(e.MintA) {
		return errors.Wrapf(errors.ErrInvalidModel, "invalid mint a %q", e.MintA)
	}
	if !token.IsTicker(e.MintB) {
		return errors.Wrapf(errors.ErrInvalidModel, "invalid mint b %q", e.MintB)
	}
	if e.MintA == e.MintB {
		return errors.Wrap(errors.ErrInvalidModel, "both sides trade the same asset")
	}
	if e.ReceiveAmount == 0 {
		return errors.Wrap(errors.ErrInvalidModel, "receive amount must be positive")
	}
	if e.Bump > math.MaxUint8 {
		return errors.Wrapf(errors.ErrInvalidModel, "bump out of range: %d", e.Bump)
	}
	return nil
}

// Authority recomputes the derived authority of the escrow and ensures it
// is represented by the given address.
func (e *Escrow) Authority(addr escrowd.Address) (escrowd.Condition, error) {
	if e.Bump > math.MaxUint8 {
		return nil, errors.Wrapf(errors.ErrDerivation, "bump out of range: %d", e.Bump)
	}
	return escrowd.VerifyAuthority(ProgramName, uint8(e.Bump), addr, Seeds(e.Maker, e.Seed)...)
}

// Seeds returns the derivation seeds of the escrow authority of the maker.
func Seeds(maker escrowd.Address, seed uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, seed)
	return [][]byte{[]byte(ProgramName), maker, le}
}

// DeriveAddress returns the authority of the {maker, seed} escrow together
// with the canonical bump. The address of the authority is the escrow key.
func DeriveAddress(maker escrowd.Address, seed uint64) (escrowd.Condition, uint8, error) {
	return escrowd.DeriveAuthority(ProgramName, Seeds(maker, seed)...)
}

// VaultAddress returns the address of the vault account owned by the escrow
// authority.
func VaultAddress(authority escrowd.Address, mintA string) escrowd.Address {
	return token.AccountAddress(authority, mintA)
}

// NewBucket returns a bucket storing escrows under their authority address,
// indexed by maker.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("escrow", &Escrow{},
		orm.WithIndex("maker", escrowMaker, false))
}

func escrowMaker(m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return e.Maker, nil
}

// Tombstone marks a retired {maker, seed} pair.
type Tombstone struct {
	Maker escrowd.Address `json:"maker"`
	Seed  uint64          `json:"seed"`
	// Settled is true if the escrow was taken and false if it was refunded.
	Settled bool `json:"settled"`
}

var _ orm.Model = (*Tombstone)(nil)

func (t *Tombstone) Marshal() ([]byte, error) {
	return orm.Marshal(t)
}

func (t *Tombstone) Unmarshal(raw []byte) error {
	return orm.Unmarshal(raw, t)
}

func (t *Tombstone) Validate() error {
	return errors.Wrap(t.Maker.Validate(), "maker")
}

// NewTombstoneBucket returns a bucket of retired pairs keyed by
// tombstoneKey.
func NewTombstoneBucket() orm.ModelBucket {
	return orm.NewModelBucket("esc_done", &Tombstone{})
}

func tombstoneKey(maker escrowd.Address, seed uint64) []byte {
	key := make([]byte, len(maker)+8)
	copy(key, maker)
	binary.BigEndian.PutUint64(key[len(maker):], seed)
	return key
}
