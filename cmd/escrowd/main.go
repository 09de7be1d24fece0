// Command escrowd runs a two-party escrow settlement node.
//
// The state is kept in an iavl tree in the home directory. Transactions can
// be executed locally with the tx commands, each one committed as a block of
// its own, or the application can be served to a tendermint node with
// start.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
