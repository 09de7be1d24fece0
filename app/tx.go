package app

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/crypto"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x/escrow"
	"github.com/iov-one/escrowd/x/sigs"
	"github.com/iov-one/escrowd/x/token"
	amino "github.com/tendermint/go-amino"
)

// TxCodec serializes transactions. All messages the application can route
// are registered with it.
var TxCodec = NewTxCodec()

// NewTxCodec returns a sealed codec that knows all messages of the
// application.
func NewTxCodec() *amino.Codec {
	cdc := amino.NewCodec()
	cdc.RegisterInterface((*escrowd.Msg)(nil), nil)
	token.RegisterCodec(cdc)
	escrow.RegisterCodec(cdc)
	cdc.Seal()
	return cdc
}

// Tx is a single message together with the signatures that authorize it.
type Tx struct {
	Msg        escrowd.Msg           `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

var _ escrowd.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction carrying the message.
func NewTx(msg escrowd.Msg) *Tx {
	return &Tx{Msg: msg}
}

func (tx *Tx) GetMsg() (escrowd.Msg, error) {
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the serialized transaction without signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Sign appends a signature of the signer for the given chain and sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	raw, err := TxCodec.MarshalBinaryBare(tx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "cannot marshal tx: %s", err)
	}
	return raw, nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if err := TxCodec.UnmarshalBinaryBare(raw, tx); err != nil {
		return errors.Wrapf(errors.ErrInvalidMsg, "cannot unmarshal tx: %s", err)
	}
	return nil
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (escrowd.Tx, error)

// DecodeTx parses the binary representation of a Tx.
func DecodeTx(raw []byte) (escrowd.Tx, error) {
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &tx, nil
}
