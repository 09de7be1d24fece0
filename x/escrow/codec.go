package escrow

import amino "github.com/tendermint/go-amino"

// RegisterCodec registers all messages of this package, so that they can be
// carried by a transaction.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(&MakeMsg{}, pathMake, nil)
	cdc.RegisterConcrete(&TakeMsg{}, pathTake, nil)
	cdc.RegisterConcrete(&RefundMsg{}, pathRefund, nil)
}
