package server

import (
	"encoding/json"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store"
)

// ValidateGenesis loads every genesis file and runs the initializer against
// a throwaway store, so that a broken genesis is found before a chain is
// started with it.
func ValidateGenesis(ini escrowd.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		g, err := app.ReadGenesis(path)
		if err != nil {
			return errors.Wrap(err, path)
		}
		if err := validateAppState(ini, g.AppState); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateAppState(ini escrowd.Initializer, appState json.RawMessage) error {
	var opts escrowd.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "app_state: %s", err)
	}
	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(opts, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
