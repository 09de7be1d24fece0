package sigs

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// NonceView is the query representation of a signer state.
type NonceView struct {
	Address  escrowd.Address `json:"address"`
	Sequence int64           `json:"sequence"`
}

// RegisterQuery exposes "/nonce", the sequence that the next signature of a
// signer address must carry.
func RegisterQuery(qr escrowd.QueryRouter) {
	qr.Register("/nonce", escrowd.QueryHandlerFunc(func(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
		addr := escrowd.Address(data)
		if err := addr.Validate(); err != nil {
			return nil, errors.Wrap(err, "signer address")
		}
		seq, err := NextSequence(db, addr)
		if err != nil {
			return nil, err
		}
		return NonceView{Address: addr, Sequence: seq}, nil
	}))
}
