package token

import amino "github.com/tendermint/go-amino"

// RegisterCodec registers all messages of this package, so that they can be
// carried by a transaction.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(&CreateMintMsg{}, pathCreateMint, nil)
	cdc.RegisterConcrete(&IssueMsg{}, pathIssue, nil)
	cdc.RegisterConcrete(&TransferMsg{}, pathTransfer, nil)
	cdc.RegisterConcrete(&FreezeMsg{}, pathFreeze, nil)
	cdc.RegisterConcrete(&CloseAccountMsg{}, pathCloseAccount, nil)
}
