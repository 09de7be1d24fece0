package server

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store/iavl"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestInitHomeKeepsExistingGenesis(t *testing.T) {
	home, err := ioutil.TempDir("", "escrowd-home")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	g, err := InitHome(home, "first-chain", app.DefaultAppState(), log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, "first-chain", g.ChainID)
	require.DirExists(t, DataDir(home))

	g, err = InitHome(home, "second-chain", app.DefaultAppState(), log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, "first-chain", g.ChainID)
}

func TestValidateGenesis(t *testing.T) {
	home, err := ioutil.TempDir("", "escrowd-home")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	stack := app.NewStack(nil)

	_, err = InitHome(home, "valid-chain", app.DefaultAppState(), log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, ValidateGenesis(stack.Initializer, []string{GenesisFile(home)}))

	broken := GenesisFile(home) + ".broken"
	require.NoError(t, app.WriteGenesis(broken, &app.Genesis{
		ChainID:  "valid-chain",
		AppState: []byte(`{"conf": {"rent": {"account_reserve": 1, "escrow_reserve": 1}}, "token": {"mints": [{"ticker": "x"}]}}`),
	}))
	err = ValidateGenesis(stack.Initializer, []string{broken})
	require.True(t, errors.ErrInvalidModel.Is(err), "%+v", err)

	err = ValidateGenesis(stack.Initializer, []string{GenesisFile(home) + ".missing"})
	require.True(t, errors.ErrNotFound.Is(err))
}

func TestServeStopsWhenDone(t *testing.T) {
	a, err := app.NewApplication("escrowd", iavl.MockCommitStore(), app.NewStack(nil))
	require.NoError(t, err)

	done := make(chan struct{})
	close(done)
	require.NoError(t, Serve(a, "tcp://127.0.0.1:0", "", log.NewNopLogger(), done))
}
