package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// Genesis is the content of a genesis file. It is a subset of the
// tendermint genesis document.
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState json.RawMessage `json:"app_state"`
}

// Validate returns an error if the genesis cannot be used to start a chain.
func (g *Genesis) Validate() error {
	if !escrowd.IsValidChainID(g.ChainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id: %q", g.ChainID)
	}
	if len(g.AppState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state")
	}
	var opts escrowd.Options
	if err := json.Unmarshal(g.AppState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "app_state: %s", err)
	}
	return nil
}

// ReadGenesis loads and validates a genesis file.
func ReadGenesis(path string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "genesis file: %s", err)
	}
	var g Genesis
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "genesis file: %s", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// WriteGenesis stores the genesis in a file, indented for humans.
func WriteGenesis(path string, g *Genesis) error {
	if err := g.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return ioutil.WriteFile(path, raw, 0600)
}

// DefaultAppState returns an application state with the rent configuration
// and no assets. Mints and balances must be added before the chain is
// useful.
func DefaultAppState() json.RawMessage {
	return json.RawMessage(`{
  "conf": {
    "rent": {"account_reserve": 10, "escrow_reserve": 20}
  },
  "rent": [],
  "token": {"mints": [], "accounts": []}
}`)
}
