package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/escrowd/commands/server"
	"github.com/spf13/cobra"
)

func (c *cli) startCmd() *cobra.Command {
	var bind, metrics string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the application to a tendermint node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := c.logger()
			if err != nil {
				return err
			}
			a, closeDB, err := c.openApp()
			if err != nil {
				return err
			}
			defer closeDB()

			done := make(chan struct{})
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				close(done)
			}()
			return server.Serve(a, bind, metrics, logger, done)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "tcp://localhost:26658", "address the ABCI server listens on")
	cmd.Flags().StringVar(&metrics, "metrics", "", "address to serve prometheus metrics on, disabled if empty")
	return cmd
}
