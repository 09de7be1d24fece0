package server

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// GenesisFile returns the path of the genesis file in the home directory.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// DataDir returns the directory that holds the application state.
func DataDir(home string) string {
	return filepath.Join(home, "data")
}

// InitHome creates the home directory layout. A genesis file with the given
// chain id and application state is written unless one already exists. The
// genesis file that must be used is returned.
func InitHome(home, chainID string, appState json.RawMessage, logger log.Logger) (*app.Genesis, error) {
	for _, dir := range []string{filepath.Dir(GenesisFile(home)), DataDir(home)} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "create %s: %s", dir, err)
		}
	}

	genFile := GenesisFile(home)
	if fileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
		return app.ReadGenesis(genFile)
	}

	g := &app.Genesis{ChainID: chainID, AppState: appState}
	if err := app.WriteGenesis(genFile, g); err != nil {
		return nil, err
	}
	logger.Info("Generated genesis file", "path", genFile)
	return g, nil
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
