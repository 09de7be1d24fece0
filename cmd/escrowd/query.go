package main

import (
	"bytes"
	"encoding/json"

	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x/token"
	"github.com/spf13/cobra"
	abci "github.com/tendermint/tendermint/abci/types"
)

func (c *cli) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read the committed state",
	}
	cmd.AddCommand(
		c.addressQueryCmd("escrow <address>", "Show a pending escrow", "/escrow"),
		c.addressQueryCmd("escrows <maker>", "List the pending escrows of a maker", "/escrows"),
		c.addressQueryCmd("accounts <owner>", "List the token accounts of an owner", "/accounts"),
		c.addressQueryCmd("allowance <address>", "Show the storage allowance of an address", "/allowance"),
		c.addressQueryCmd("nonce <address>", "Show the next signature sequence of a signer", "/nonce"),
		&cobra.Command{
			Use:   "mint <ticker>",
			Short: "Show a mint",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.printQuery(cmd, "/mint", []byte(args[0]))
			},
		},
		&cobra.Command{
			Use:   "account <owner> <ticker>",
			Short: "Show the token account of an owner",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, err := c.address(args[0])
				if err != nil {
					return err
				}
				return c.printQuery(cmd, "/account", token.AccountAddress(owner, args[1]))
			},
		},
		&cobra.Command{
			Use:   "rent",
			Short: "Show the storage reserve configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.printQuery(cmd, "/rent", nil)
			},
		},
	)
	return cmd
}

// addressQueryCmd builds a query taking a single address or key name.
func (c *cli) addressQueryCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := c.address(args[0])
			if err != nil {
				return err
			}
			return c.printQuery(cmd, path, addr)
		},
	}
}

func (c *cli) printQuery(cmd *cobra.Command, path string, data []byte) error {
	a, closeDB, err := c.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	var raw json.RawMessage
	if err := query(a, path, data, &raw); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	out.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}

// query runs a query against the latest committed state and decodes the
// JSON result into dest.
func query(a *app.Application, path string, data []byte, dest interface{}) error {
	res := a.Query(abci.RequestQuery{Path: path, Data: data})
	if res.Code != errors.SuccessABCICode {
		return errors.ABCIError(res.Code, res.Log)
	}
	if err := json.Unmarshal(res.Value, dest); err != nil {
		return errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

