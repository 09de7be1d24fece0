package escrow

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// View is the query representation of a pending escrow.
type View struct {
	Address escrowd.Address `json:"address"`
	Vault   escrowd.Address `json:"vault"`
	*Escrow
}

func newView(addr escrowd.Address, rec *Escrow) View {
	return View{Address: addr, Vault: VaultAddress(addr, rec.MintA), Escrow: rec}
}

// RegisterQuery exposes escrow records under "/escrow" (by escrow address)
// and "/escrows" (by maker address).
func (e *Engine) RegisterQuery(qr escrowd.QueryRouter) {
	qr.Register("/escrow", escrowd.QueryHandlerFunc(e.queryOne))
	qr.Register("/escrows", escrowd.QueryHandlerFunc(e.queryByMaker))
}

func (e *Engine) queryOne(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
	addr := escrowd.Address(data)
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "escrow address")
	}
	rec, err := e.Get(db, addr)
	if err != nil {
		return nil, err
	}
	return newView(addr, rec), nil
}

func (e *Engine) queryByMaker(db escrowd.ReadOnlyKVStore, data []byte) (interface{}, error) {
	maker := escrowd.Address(data)
	if err := maker.Validate(); err != nil {
		return nil, errors.Wrap(err, "maker address")
	}
	addrs, recs, err := e.ByMaker(db, maker)
	if err != nil {
		return nil, err
	}
	views := make([]View, len(recs))
	for i := range recs {
		views[i] = newView(addrs[i], recs[i])
	}
	return views, nil
}
