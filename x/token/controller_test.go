package token

import (
	"context"
	"testing"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/gconf"
	"github.com/iov-one/escrowd/store"
	"github.com/iov-one/escrowd/weavetest"
	"github.com/iov-one/escrowd/x"
	"github.com/iov-one/escrowd/x/rent"
	"github.com/stretchr/testify/require"
)

const testReserve = 10

// newTestController returns a controller on top of a store configured with
// a rent reserve and the given allowances.
func newTestController(t testing.TB, allowances ...escrowd.Address) (Controller, escrowd.KVStore) {
	t.Helper()
	db := store.MemStore()
	conf := &rent.Configuration{AccountReserve: testReserve, EscrowReserve: 2 * testReserve}
	require.NoError(t, gconf.Save(db, "rent", conf))
	r := rent.NewController()
	for _, a := range allowances {
		require.NoError(t, r.Refund(db, a, 1000))
	}
	return NewController(r), db
}

func TestControllerAccounts(t *testing.T) {
	authority := weavetest.NewCondition().Address()
	alice := weavetest.NewCondition().Address()
	poor := weavetest.NewCondition().Address()
	ctrl, db := newTestController(t, authority, alice)

	require.NoError(t, ctrl.CreateMint(db, &Mint{Ticker: "DOGE", Name: "doge coin", Decimals: 6, Authority: authority}))
	err := ctrl.CreateMint(db, &Mint{Ticker: "DOGE", Name: "other", Decimals: 2, Authority: authority})
	require.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)

	acc, err := ctrl.OpenAccount(db, alice, alice, "DOGE")
	require.NoError(t, err)
	require.Equal(t, uint64(testReserve), acc.Reserve)

	_, err = ctrl.OpenAccount(db, alice, alice, "DOGE")
	require.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)

	_, err = ctrl.OpenAccount(db, alice, alice, "NOPE")
	require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)

	_, err = ctrl.OpenAccount(db, poor, poor, "DOGE")
	require.True(t, rent.ErrInsufficientAllowance.Is(err), "got %+v", err)

	allowance, err := rent.NewController().Balance(db, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1000-testReserve), allowance)

	// Existing account is returned as it is.
	addr := AccountAddress(alice, "DOGE")
	got, created, err := ctrl.EnsureAccount(db, authority, alice, "DOGE", addr)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, acc, got)

	// Missing account is created at the payer's expense.
	bob := weavetest.NewCondition().Address()
	got, created, err = ctrl.EnsureAccount(db, authority, bob, "DOGE", AccountAddress(bob, "DOGE"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, bob, got.Owner)
	allowance, err = rent.NewController().Balance(db, authority)
	require.NoError(t, err)
	require.Equal(t, uint64(1000-testReserve), allowance)

	// Address not associated with the owner is refused.
	_, _, err = ctrl.EnsureAccount(db, authority, bob, "DOGE", addr)
	require.True(t, ErrInvalidAccount.Is(err), "got %+v", err)

	accounts, err := ctrl.AccountsOf(db, alice)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestTransferChecked(t *testing.T) {
	authority := weavetest.NewCondition()
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()

	cases := map[string]struct {
		signer   escrowd.Condition
		src      escrowd.Address
		dst      escrowd.Address
		ticker   string
		amount   uint64
		decimals uint32
		prepare  func(t testing.TB, ctrl Controller, db escrowd.KVStore)
		wantErr  *errors.Error
		wantSrc  uint64
		wantDst  uint64
	}{
		"success": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   300,
			decimals: 6,
			wantSrc:  700,
			wantDst:  300,
		},
		"whole balance": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   1000,
			decimals: 6,
			wantSrc:  0,
			wantDst:  1000,
		},
		"decimals mismatch": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   300,
			decimals: 2,
			wantErr:  ErrDecimals,
			wantSrc:  1000,
		},
		"insufficient funds": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   1001,
			decimals: 6,
			wantErr:  ErrInsufficientFunds,
			wantSrc:  1000,
		},
		"not the owner": {
			signer:   bob,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   1,
			decimals: 6,
			wantErr:  errors.ErrUnauthorized,
			wantSrc:  1000,
		},
		"wrong mint": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "CAT",
			amount:   1,
			decimals: 0,
			wantErr:  ErrMintMismatch,
			wantSrc:  1000,
		},
		"frozen destination": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(bob.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   1,
			decimals: 6,
			prepare: func(t testing.TB, ctrl Controller, db escrowd.KVStore) {
				require.NoError(t, ctrl.SetFrozen(db, AccountAddress(bob.Address(), "DOGE"), true))
			},
			wantErr: ErrFrozen,
			wantSrc: 1000,
		},
		"missing destination": {
			signer:   alice,
			src:      AccountAddress(alice.Address(), "DOGE"),
			dst:      AccountAddress(authority.Address(), "DOGE"),
			ticker:   "DOGE",
			amount:   1,
			decimals: 6,
			wantErr:  errors.ErrNotFound,
			wantSrc:  1000,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctrl, db := newTestController(t, authority.Address())
			require.NoError(t, ctrl.CreateMint(db, &Mint{Ticker: "DOGE", Name: "doge coin", Decimals: 6, Authority: authority.Address()}))
			require.NoError(t, ctrl.CreateMint(db, &Mint{Ticker: "CAT", Name: "cat coin", Decimals: 0, Authority: authority.Address()}))
			for _, owner := range []escrowd.Address{alice.Address(), bob.Address()} {
				_, err := ctrl.OpenAccount(db, authority.Address(), owner, "DOGE")
				require.NoError(t, err)
			}
			require.NoError(t, ctrl.Issue(db, AccountAddress(alice.Address(), "DOGE"), 1000))
			if tc.prepare != nil {
				tc.prepare(t, ctrl, db)
			}

			ctx := context.Background()
			auth := &weavetest.Auth{Signer: tc.signer}
			err := ctrl.TransferChecked(ctx, db, auth, tc.src, tc.dst, tc.ticker, tc.amount, tc.decimals)
			require.True(t, tc.wantErr.Is(err), "got %+v", err)

			balance, err := ctrl.Balance(db, tc.src)
			require.NoError(t, err)
			require.Equal(t, tc.wantSrc, balance)
			if tc.wantErr == nil {
				balance, err = ctrl.Balance(db, tc.dst)
				require.NoError(t, err)
				require.Equal(t, tc.wantDst, balance)
			}
		})
	}
}

func TestCloseAccount(t *testing.T) {
	authority := weavetest.NewCondition()
	program := escrowd.NewCondition("escrow", escrowd.AuthorityType, []byte("derived-authority-digest"))
	ctrl, db := newTestController(t, authority.Address())
	require.NoError(t, ctrl.CreateMint(db, &Mint{Ticker: "DOGE", Name: "doge coin", Decimals: 6, Authority: authority.Address()}))

	vault := AccountAddress(program.Address(), "DOGE")
	_, err := ctrl.OpenAccount(db, authority.Address(), program.Address(), "DOGE")
	require.NoError(t, err)
	require.NoError(t, ctrl.Issue(db, vault, 5))

	ctx := context.Background()
	dest := weavetest.NewCondition().Address()

	// The funds holder signature is never enough.
	err = ctrl.CloseAccount(ctx, db, &weavetest.Auth{Signer: authority}, vault, dest)
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	programAuth := x.ConditionAuth{program}
	err = ctrl.CloseAccount(ctx, db, programAuth, vault, dest)
	require.True(t, ErrAccountNotEmpty.Is(err), "got %+v", err)

	// Move the funds out and close.
	_, err = ctrl.OpenAccount(db, authority.Address(), dest, "DOGE")
	require.NoError(t, err)
	require.NoError(t, ctrl.TransferChecked(ctx, db, programAuth, vault, AccountAddress(dest, "DOGE"), "DOGE", 5, 6))
	require.NoError(t, ctrl.CloseAccount(ctx, db, programAuth, vault, dest))

	_, err = ctrl.GetAccount(db, vault)
	require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
	allowance, err := rent.NewController().Balance(db, dest)
	require.NoError(t, err)
	require.Equal(t, uint64(testReserve), allowance)
}
