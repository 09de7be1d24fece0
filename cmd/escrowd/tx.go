package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x/escrow"
	"github.com/iov-one/escrowd/x/sigs"
	"github.com/iov-one/escrowd/x/token"
	"github.com/spf13/cobra"
	abci "github.com/tendermint/tendermint/abci/types"
)

const flagFrom = "from"

func (c *cli) txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Sign a transaction and commit it as a new block",
	}
	cmd.PersistentFlags().String(flagFrom, "", "name of the signing key")
	cmd.AddCommand(c.makeCmd(), c.takeCmd(), c.refundCmd(), c.transferCmd())
	return cmd
}

func (c *cli) makeCmd() *cobra.Command {
	var (
		seed             uint64
		mintA, mintB     string
		deposit, receive uint64
	)
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Lock a deposit of asset A until someone pays the receive amount of asset B",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey(fromFlag(cmd))
			if err != nil {
				return err
			}
			a, err := parseAsset(mintA)
			if err != nil {
				return err
			}
			b, err := parseAsset(mintB)
			if err != nil {
				return err
			}
			msg := &escrow.MakeMsg{
				Maker:         key.PublicKey().Address(),
				Seed:          seed,
				MintA:         a,
				MintB:         b,
				Deposit:       deposit,
				ReceiveAmount: receive,
			}
			return c.execute(cmd, fromFlag(cmd), msg, func(data []byte) interface{} {
				return escrowd.Address(data)
			})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed distinguishing escrows of the same maker")
	cmd.Flags().StringVar(&mintA, "mint-a", "", "deposited asset as TICKER:DECIMALS")
	cmd.Flags().StringVar(&mintB, "mint-b", "", "requested asset as TICKER:DECIMALS")
	cmd.Flags().Uint64Var(&deposit, "deposit", 0, "amount of asset A to lock")
	cmd.Flags().Uint64Var(&receive, "receive", 0, "amount of asset B requested")
	return cmd
}

func (c *cli) takeCmd() *cobra.Command {
	var maker, addr, mintA, mintB string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Pay the maker and receive the escrow deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey(fromFlag(cmd))
			if err != nil {
				return err
			}
			makerAddr, err := c.address(maker)
			if err != nil {
				return errors.Wrap(err, "maker")
			}
			escrowAddr, err := c.address(addr)
			if err != nil {
				return errors.Wrap(err, "escrow")
			}
			a, err := parseAsset(mintA)
			if err != nil {
				return err
			}
			b, err := parseAsset(mintB)
			if err != nil {
				return err
			}
			msg := &escrow.TakeMsg{
				Taker:  key.PublicKey().Address(),
				Maker:  makerAddr,
				Escrow: escrowAddr,
				MintA:  a,
				MintB:  b,
			}
			return c.execute(cmd, fromFlag(cmd), msg, rawJSON)
		},
	}
	cmd.Flags().StringVar(&maker, "maker", "", "address or key name of the maker")
	cmd.Flags().StringVar(&addr, "escrow", "", "address of the escrow")
	cmd.Flags().StringVar(&mintA, "mint-a", "", "deposited asset as TICKER:DECIMALS")
	cmd.Flags().StringVar(&mintB, "mint-b", "", "paid asset as TICKER:DECIMALS")
	return cmd
}

func (c *cli) refundCmd() *cobra.Command {
	var addr, mintA string
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Cancel an escrow and return the deposit to the maker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey(fromFlag(cmd))
			if err != nil {
				return err
			}
			escrowAddr, err := c.address(addr)
			if err != nil {
				return errors.Wrap(err, "escrow")
			}
			a, err := parseAsset(mintA)
			if err != nil {
				return err
			}
			msg := &escrow.RefundMsg{
				Maker:  key.PublicKey().Address(),
				Escrow: escrowAddr,
				MintA:  a,
			}
			return c.execute(cmd, fromFlag(cmd), msg, rawJSON)
		},
	}
	cmd.Flags().StringVar(&addr, "escrow", "", "address of the escrow")
	cmd.Flags().StringVar(&mintA, "mint-a", "", "deposited asset as TICKER:DECIMALS")
	return cmd
}

func (c *cli) transferCmd() *cobra.Command {
	var to, asset string
	var amount uint64
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send tokens to another owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey(fromFlag(cmd))
			if err != nil {
				return err
			}
			dst, err := c.address(to)
			if err != nil {
				return errors.Wrap(err, "destination")
			}
			a, err := parseAsset(asset)
			if err != nil {
				return err
			}
			msg := &token.TransferMsg{
				Ticker:      a.Ticker,
				Decimals:    a.Decimals,
				Source:      key.PublicKey().Address(),
				Destination: dst,
				Amount:      amount,
			}
			return c.execute(cmd, fromFlag(cmd), msg, nil)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "address or key name of the recipient")
	cmd.Flags().StringVar(&asset, "asset", "", "asset as TICKER:DECIMALS")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to send")
	return cmd
}

func fromFlag(cmd *cobra.Command) string {
	name, _ := cmd.Flags().GetString(flagFrom)
	return name
}

// parseAsset reads the TICKER:DECIMALS form.
func parseAsset(s string) (escrow.Asset, error) {
	chunks := strings.SplitN(s, ":", 2)
	if len(chunks) != 2 {
		return escrow.Asset{}, errors.Wrapf(errors.ErrInvalidInput, "asset %q must be TICKER:DECIMALS", s)
	}
	dec, err := strconv.ParseUint(chunks[1], 10, 32)
	if err != nil {
		return escrow.Asset{}, errors.Wrapf(errors.ErrInvalidInput, "asset %q decimals: %s", s, err)
	}
	return escrow.Asset{Ticker: chunks[0], Decimals: uint32(dec)}, nil
}

func rawJSON(data []byte) interface{} {
	return json.RawMessage(data)
}

// txResult is printed after a transaction is committed.
type txResult struct {
	Height  int64             `json:"height"`
	AppHash string            `json:"app_hash"`
	Tags    map[string]string `json:"tags,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// execute signs the message with the named key, delivers it in a new block
// and commits the block. A failed transaction is committed as well, because
// it consumed the signer sequence.
func (c *cli) execute(cmd *cobra.Command, keyName string, msg escrowd.Msg, decode func([]byte) interface{}) error {
	key, err := c.loadKey(keyName)
	if err != nil {
		return err
	}
	a, closeDB, err := c.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	chainID := a.ChainID()
	if chainID == "" {
		return errors.Wrap(errors.ErrInvalidState, "chain is not initialized, run init first")
	}
	var nonce sigs.NonceView
	if err := query(a, "/nonce", key.PublicKey().Address(), &nonce); err != nil {
		return err
	}
	tx := app.NewTx(msg)
	if err := tx.Sign(key, chainID, nonce.Sequence); err != nil {
		return err
	}
	raw, err := tx.Marshal()
	if err != nil {
		return err
	}

	if res := a.CheckTx(raw); res.Code != errors.SuccessABCICode {
		return errors.ABCIError(res.Code, res.Log)
	}
	info := a.Info(abci.RequestInfo{})
	height := info.LastBlockHeight + 1
	a.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{ChainID: chainID, Height: height}})
	res := a.DeliverTx(raw)
	a.EndBlock(abci.RequestEndBlock{Height: height})
	commit := a.Commit()
	if res.Code != errors.SuccessABCICode {
		return errors.ABCIError(res.Code, res.Log)
	}

	out := txResult{Height: height, AppHash: fmt.Sprintf("%X", commit.Data)}
	if len(res.Tags) > 0 {
		out.Tags = make(map[string]string, len(res.Tags))
		for _, t := range res.Tags {
			out.Tags[string(t.Key)] = string(t.Value)
		}
	}
	if decode != nil && len(res.Data) > 0 {
		out.Data = decode(res.Data)
	}
	return printJSON(cmd, out)
}
