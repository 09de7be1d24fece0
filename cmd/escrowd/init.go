package main

import (
	"fmt"

	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/commands/server"
	"github.com/iov-one/escrowd/errors"
	"github.com/spf13/cobra"
)

func (c *cli) initCmd() *cobra.Command {
	var chainID, genesisPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the home directory and load the genesis state",
		Long: `Create the home directory and load the genesis state.

A genesis file is generated with an empty asset list, unless one exists in
the home directory or is given with --genesis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := c.logger()
			if err != nil {
				return err
			}

			appState := app.DefaultAppState()
			if genesisPath != "" {
				src, err := app.ReadGenesis(genesisPath)
				if err != nil {
					return err
				}
				chainID, appState = src.ChainID, src.AppState
			}
			g, err := server.InitHome(c.home(), chainID, appState, logger)
			if err != nil {
				return err
			}
			if err := server.ValidateGenesis(app.NewStack(nil).Initializer, []string{server.GenesisFile(c.home())}); err != nil {
				return err
			}

			a, closeDB, err := c.openApp()
			if err != nil {
				return err
			}
			defer closeDB()
			if id := a.ChainID(); id != "" {
				return errors.Wrapf(errors.ErrInvalidState, "state already initialized for chain %s", id)
			}
			if err := a.LoadGenesis(g.ChainID, g.AppState); err != nil {
				return err
			}
			res := a.Commit()
			fmt.Fprintf(cmd.OutOrStdout(), "initialized chain %s with app hash %X\n", g.ChainID, res.Data)
			return nil
		},
	}
	cmd.Flags().StringVar(&chainID, "chain-id", "escrowd-local", "chain id of a generated genesis")
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "genesis file to copy into the home directory")
	return cmd
}
