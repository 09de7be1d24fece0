package escrow

import (
	"context"
	"testing"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/gconf"
	"github.com/iov-one/escrowd/store"
	"github.com/iov-one/escrowd/weavetest"
	"github.com/iov-one/escrowd/x/rent"
	"github.com/iov-one/escrowd/x/token"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	accountReserve = 10
	escrowReserve  = 20
	allowance      = 1000
)

var (
	assetA = Asset{Ticker: "AAA", Decimals: 6}
	assetB = Asset{Ticker: "BBB", Decimals: 2}
)

type fixture struct {
	db      escrowd.KVStore
	engine  *Engine
	tokens  token.Controller
	rent    rent.Controller
	metrics *Metrics

	maker  escrowd.Condition
	taker  escrowd.Condition
	escrow escrowd.Address
}

// newFixture returns a store holding a pending escrow of deposit units of
// asset A asking for receive units of asset B, and a taker owning takerB
// units of asset B.
func newFixture(t testing.TB, deposit, receive, takerB uint64) *fixture {
	t.Helper()

	db := store.MemStore()
	conf := &rent.Configuration{AccountReserve: accountReserve, EscrowReserve: escrowReserve}
	require.NoError(t, gconf.Save(db, "rent", conf))

	f := &fixture{
		db:      db,
		rent:    rent.NewController(),
		metrics: NewMetrics(),
		maker:   weavetest.NewCondition(),
		taker:   weavetest.NewCondition(),
	}
	f.tokens = token.NewController(f.rent)
	f.engine = NewEngine(f.tokens, f.rent, f.metrics)

	issuer := weavetest.NewCondition().Address()
	for _, a := range []escrowd.Address{issuer, f.maker.Address(), f.taker.Address()} {
		require.NoError(t, f.rent.Refund(db, a, allowance))
	}
	for _, a := range []Asset{assetA, assetB} {
		require.NoError(t, f.tokens.CreateMint(db, &token.Mint{Ticker: a.Ticker, Name: "asset", Decimals: a.Decimals, Authority: issuer}))
	}
	f.fund(t, issuer, f.maker.Address(), assetA.Ticker, deposit)
	f.fund(t, issuer, f.taker.Address(), assetB.Ticker, takerB)

	ctx := context.Background()
	addr, err := f.engine.Make(ctx, db, &weavetest.Auth{Signer: f.maker}, &MakeRequest{
		Maker:         f.maker.Address(),
		Seed:          7,
		MintA:         assetA,
		MintB:         assetB,
		Deposit:       deposit,
		ReceiveAmount: receive,
	})
	require.NoError(t, err)
	f.escrow = addr
	return f
}

func (f *fixture) fund(t testing.TB, issuer, owner escrowd.Address, ticker string, amount uint64) {
	t.Helper()
	acc, err := f.tokens.OpenAccount(f.db, issuer, owner, ticker)
	require.NoError(t, err)
	if amount > 0 {
		require.NoError(t, f.tokens.Issue(f.db, acc.Address(), amount))
	}
}

func (f *fixture) takeRequest() *TakeRequest {
	msg := TakeMsg{
		Taker:  f.taker.Address(),
		Maker:  f.maker.Address(),
		Escrow: f.escrow,
		MintA:  assetA,
		MintB:  assetB,
	}
	return msg.Request()
}

func (f *fixture) refundRequest() *RefundRequest {
	msg := RefundMsg{
		Maker:  f.maker.Address(),
		Escrow: f.escrow,
		MintA:  assetA,
	}
	return msg.Request()
}

func (f *fixture) vault() escrowd.Address {
	return VaultAddress(f.escrow, assetA.Ticker)
}

// balance returns the amount held by the account of the owner, or -1 if the
// account does not exist.
func (f *fixture) balance(t testing.TB, owner escrowd.Address, ticker string) int64 {
	t.Helper()
	acc, err := f.tokens.GetAccount(f.db, token.AccountAddress(owner, ticker))
	if errors.ErrNotFound.Is(err) {
		return -1
	}
	require.NoError(t, err)
	return int64(acc.Amount)
}

func (f *fixture) allowance(t testing.TB, addr escrowd.Address) uint64 {
	t.Helper()
	n, err := f.rent.Balance(f.db, addr)
	require.NoError(t, err)
	return n
}

// snapshot captures every balance and allowance the settlement can touch.
func (f *fixture) snapshot(t testing.TB) map[string]int64 {
	t.Helper()
	return map[string]int64{
		"maker a":         f.balance(t, f.maker.Address(), assetA.Ticker),
		"maker b":         f.balance(t, f.maker.Address(), assetB.Ticker),
		"taker a":         f.balance(t, f.taker.Address(), assetA.Ticker),
		"taker b":         f.balance(t, f.taker.Address(), assetB.Ticker),
		"vault":           f.balance(t, f.escrow, assetA.Ticker),
		"maker allowance": int64(f.allowance(t, f.maker.Address())),
		"taker allowance": int64(f.allowance(t, f.taker.Address())),
	}
}

func (f *fixture) requirePending(t testing.TB) {
	t.Helper()
	rec, err := f.engine.Get(f.db, f.escrow)
	require.NoError(t, err)
	require.Equal(t, f.maker.Address(), rec.Maker)
}

func TestMake(t *testing.T) {
	f := newFixture(t, 50, 20, 0)

	rec, err := f.engine.Get(f.db, f.escrow)
	require.NoError(t, err)
	require.Equal(t, assetA.Ticker, rec.MintA)
	require.Equal(t, assetB.Ticker, rec.MintB)
	require.Equal(t, uint64(20), rec.ReceiveAmount)
	require.Equal(t, uint64(7), rec.Seed)
	require.Equal(t, uint64(escrowReserve), rec.Reserve)

	authority, err := rec.Authority(f.escrow)
	require.NoError(t, err)
	require.True(t, escrowd.IsAuthority(authority, ProgramName))

	require.Equal(t, int64(50), f.balance(t, f.escrow, assetA.Ticker))
	require.Equal(t, int64(0), f.balance(t, f.maker.Address(), assetA.Ticker))
	require.Equal(t, uint64(allowance-escrowReserve-accountReserve), f.allowance(t, f.maker.Address()))

	vault, err := f.tokens.GetAccount(f.db, f.vault())
	require.NoError(t, err)
	require.Equal(t, authority.Address(), vault.Owner)

	addrs, recs, err := f.engine.ByMaker(f.db, f.maker.Address())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, f.escrow, addrs[0])
}

func TestMakeRejected(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		signer  func(*fixture) escrowd.Condition
		req     func(*fixture) *MakeRequest
		wantErr *errors.Error
	}{
		"maker must sign": {
			signer: func(f *fixture) escrowd.Condition { return f.taker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.maker.Address(), Seed: 1, MintA: assetA, MintB: assetB, Deposit: 1, ReceiveAmount: 1}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"pending seed": {
			signer: func(f *fixture) escrowd.Condition { return f.maker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.maker.Address(), Seed: 7, MintA: assetA, MintB: assetB, Deposit: 1, ReceiveAmount: 1}
			},
			wantErr: errors.ErrDuplicate,
		},
		"unknown mint": {
			signer: func(f *fixture) escrowd.Condition { return f.taker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.taker.Address(), Seed: 1, MintA: assetB, MintB: Asset{Ticker: "NOPE"}, Deposit: 1, ReceiveAmount: 1}
			},
			wantErr: errors.ErrNotFound,
		},
		"wrong decimals": {
			signer: func(f *fixture) escrowd.Condition { return f.taker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.taker.Address(), Seed: 1, MintA: Asset{Ticker: "BBB", Decimals: 6}, MintB: assetA, Deposit: 1, ReceiveAmount: 1}
			},
			wantErr: token.ErrDecimals,
		},
		"deposit exceeds balance": {
			signer: func(f *fixture) escrowd.Condition { return f.taker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.taker.Address(), Seed: 1, MintA: assetB, MintB: assetA, Deposit: 31, ReceiveAmount: 1}
			},
			wantErr: token.ErrInsufficientFunds,
		},
		"nothing wanted in return": {
			signer: func(f *fixture) escrowd.Condition { return f.taker },
			req: func(f *fixture) *MakeRequest {
				return &MakeRequest{Maker: f.taker.Address(), Seed: 1, MintA: assetB, MintB: assetA, Deposit: 1}
			},
			wantErr: errors.ErrInvalidModel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 50, 20, 30)
			before := f.snapshot(t)

			auth := &weavetest.Auth{Signer: tc.signer(f)}
			_, err := f.engine.Make(ctx, f.db, auth, tc.req(f))
			require.True(t, tc.wantErr.Is(err), "got %+v", err)
			require.Equal(t, before, f.snapshot(t))
		})
	}
}

func TestTake(t *testing.T) {
	f := newFixture(t, 50, 20, 30)
	makerAllowance := f.allowance(t, f.maker.Address())

	auth := &weavetest.Auth{Signer: f.taker}
	res, err := f.engine.Take(context.Background(), f.db, auth, f.takeRequest())
	require.NoError(t, err)
	require.Equal(t, &Settlement{
		Escrow:    f.escrow,
		State:     Closed,
		Paid:      20,
		Released:  50,
		Reclaimed: accountReserve + escrowReserve,
	}, res)

	require.Equal(t, int64(20), f.balance(t, f.maker.Address(), assetB.Ticker))
	require.Equal(t, int64(50), f.balance(t, f.taker.Address(), assetA.Ticker))
	require.Equal(t, int64(10), f.balance(t, f.taker.Address(), assetB.Ticker))

	// The vault and the record are gone.
	require.Equal(t, int64(-1), f.balance(t, f.escrow, assetA.Ticker))
	_, err = f.engine.Get(f.db, f.escrow)
	require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
	_, recs, err := f.engine.ByMaker(f.db, f.maker.Address())
	require.NoError(t, err)
	require.Len(t, recs, 0)

	// Both reserves go back to the maker, the taker paid for the two
	// accounts created during settlement.
	require.Equal(t, makerAllowance+accountReserve+escrowReserve, f.allowance(t, f.maker.Address()))
	require.Equal(t, uint64(allowance-2*accountReserve), f.allowance(t, f.taker.Address()))

	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.operations.WithLabelValues(opTake, "ok")))
	require.Equal(t, float64(20), testutil.ToFloat64(f.metrics.settled.WithLabelValues(assetB.Ticker)))
	require.Equal(t, float64(50), testutil.ToFloat64(f.metrics.settled.WithLabelValues(assetA.Ticker)))
}

func TestTakeMovesOnlyReceiveAmount(t *testing.T) {
	f := newFixture(t, 5, 100, 1000)

	auth := &weavetest.Auth{Signer: f.taker}
	_, err := f.engine.Take(context.Background(), f.db, auth, f.takeRequest())
	require.NoError(t, err)

	require.Equal(t, int64(100), f.balance(t, f.maker.Address(), assetB.Ticker))
	require.Equal(t, int64(900), f.balance(t, f.taker.Address(), assetB.Ticker))
	require.Equal(t, int64(5), f.balance(t, f.taker.Address(), assetA.Ticker))
}

func TestTakeInsufficientFunds(t *testing.T) {
	f := newFixture(t, 50, 20, 15)
	before := f.snapshot(t)

	auth := &weavetest.Auth{Signer: f.taker}
	res, err := f.engine.Take(context.Background(), f.db, auth, f.takeRequest())
	require.True(t, token.ErrInsufficientFunds.Is(err), "got %+v", err)
	require.Nil(t, res)

	require.Equal(t, before, f.snapshot(t))
	require.Equal(t, int64(50), f.balance(t, f.escrow, assetA.Ticker))
	f.requirePending(t)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.operations.WithLabelValues(opTake, "error")))
}

func TestTakeRejectsMismatch(t *testing.T) {
	stranger := weavetest.NewCondition()

	cases := map[string]struct {
		signer  func(*fixture) escrowd.Condition
		modify  func(*fixture, *TakeRequest)
		wantErr *errors.Error
	}{
		"taker must sign": {
			signer:  func(f *fixture) escrowd.Condition { return stranger },
			wantErr: errors.ErrUnauthorized,
		},
		"unknown escrow": {
			modify: func(f *fixture, r *TakeRequest) {
				r.Escrow = stranger.Address()
			},
			wantErr: errors.ErrNotFound,
		},
		"wrong maker": {
			modify: func(f *fixture, r *TakeRequest) {
				r.Maker = stranger.Address()
				r.MakerAccountB = token.AccountAddress(stranger.Address(), assetB.Ticker)
			},
			wantErr: ErrBinding,
		},
		"wrong asset a": {
			modify: func(f *fixture, r *TakeRequest) {
				r.MintA = Asset{Ticker: "CCC", Decimals: 6}
			},
			wantErr: token.ErrMintMismatch,
		},
		"swapped assets": {
			modify: func(f *fixture, r *TakeRequest) {
				r.MintA, r.MintB = r.MintB, r.MintA
			},
			wantErr: token.ErrMintMismatch,
		},
		"wrong asset a precision": {
			modify: func(f *fixture, r *TakeRequest) {
				r.MintA.Decimals = 2
			},
			wantErr: token.ErrDecimals,
		},
		"wrong asset b precision": {
			modify: func(f *fixture, r *TakeRequest) {
				r.MintB.Decimals = 6
			},
			wantErr: token.ErrDecimals,
		},
		"vault not derived from the escrow": {
			modify: func(f *fixture, r *TakeRequest) {
				r.Vault = token.AccountAddress(f.maker.Address(), assetA.Ticker)
			},
			wantErr: ErrBinding,
		},
		"taker pays from a foreign account": {
			modify: func(f *fixture, r *TakeRequest) {
				r.TakerAccountB = token.AccountAddress(f.maker.Address(), assetB.Ticker)
			},
			wantErr: token.ErrInvalidAccount,
		},
		"taker asset a account not associated": {
			modify: func(f *fixture, r *TakeRequest) {
				r.TakerAccountA = token.AccountAddress(stranger.Address(), assetA.Ticker)
			},
			wantErr: token.ErrInvalidAccount,
		},
		"payment sent to a foreign account": {
			modify: func(f *fixture, r *TakeRequest) {
				r.MakerAccountB = token.AccountAddress(f.taker.Address(), assetB.Ticker)
			},
			wantErr: token.ErrInvalidAccount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 50, 20, 30)
			before := f.snapshot(t)

			signer := f.taker
			if tc.signer != nil {
				signer = tc.signer(f)
			}
			req := f.takeRequest()
			if tc.modify != nil {
				tc.modify(f, req)
			}
			_, err := f.engine.Take(context.Background(), f.db, &weavetest.Auth{Signer: signer}, req)
			require.True(t, tc.wantErr.Is(err), "got %+v", err)

			require.Equal(t, before, f.snapshot(t))
			f.requirePending(t)
		})
	}
}

func TestTakeCorruptedRecord(t *testing.T) {
	cases := map[string]func(*Escrow){
		"bump": func(e *Escrow) {
			e.Bump = (e.Bump + 1) % 256
		},
		"seed": func(e *Escrow) {
			e.Seed++
		},
		"maker": func(e *Escrow) {
			e.Maker = weavetest.NewCondition().Address()
		},
	}

	for testName, corrupt := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 50, 20, 30)
			rec, err := f.engine.Get(f.db, f.escrow)
			require.NoError(t, err)
			corrupt(rec)
			require.NoError(t, f.engine.escrows.Put(f.db, f.escrow, rec))
			before := f.snapshot(t)

			req := f.takeRequest()
			req.Maker = rec.Maker
			req.MakerAccountB = token.AccountAddress(rec.Maker, assetB.Ticker)
			_, err = f.engine.Take(context.Background(), f.db, &weavetest.Auth{Signer: f.taker}, req)
			require.True(t, errors.ErrDerivation.Is(err), "got %+v", err)
			require.Equal(t, before, f.snapshot(t))
		})
	}
}

func TestTakeIsAtomic(t *testing.T) {
	cases := map[string]struct {
		prepare func(testing.TB, *fixture)
		wantErr *errors.Error
	}{
		"leg 1 fails on a frozen payer": {
			prepare: func(t testing.TB, f *fixture) {
				addr := token.AccountAddress(f.taker.Address(), assetB.Ticker)
				require.NoError(t, f.tokens.SetFrozen(f.db, addr, true))
			},
			wantErr: token.ErrFrozen,
		},
		"leg 2 fails after the maker was paid": {
			prepare: func(t testing.TB, f *fixture) {
				acc, err := f.tokens.OpenAccount(f.db, f.taker.Address(), f.taker.Address(), assetA.Ticker)
				require.NoError(t, err)
				require.NoError(t, f.tokens.SetFrozen(f.db, acc.Address(), true))
			},
			wantErr: token.ErrFrozen,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 50, 20, 30)
			tc.prepare(t, f)
			before := f.snapshot(t)

			_, err := f.engine.Take(context.Background(), f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
			require.True(t, tc.wantErr.Is(err), "got %+v", err)
			require.Equal(t, before, f.snapshot(t))
			f.requirePending(t)
		})
	}
}

func TestRefund(t *testing.T) {
	f := newFixture(t, 50, 20, 30)
	ctx := context.Background()

	_, err := f.engine.Refund(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.refundRequest())
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	res, err := f.engine.Refund(ctx, f.db, &weavetest.Auth{Signer: f.maker}, f.refundRequest())
	require.NoError(t, err)
	require.Equal(t, Closed, res.State)
	require.Equal(t, uint64(50), res.Released)
	require.Equal(t, uint64(accountReserve+escrowReserve), res.Reclaimed)

	require.Equal(t, int64(50), f.balance(t, f.maker.Address(), assetA.Ticker))
	require.Equal(t, int64(-1), f.balance(t, f.escrow, assetA.Ticker))
	require.Equal(t, uint64(allowance), f.allowance(t, f.maker.Address()))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.operations.WithLabelValues(opRefund, "ok")))
}

func TestTerminalOperationsExclusive(t *testing.T) {
	ctx := context.Background()

	t.Run("take first", func(t *testing.T) {
		f := newFixture(t, 50, 20, 30)
		_, err := f.engine.Take(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
		require.NoError(t, err)

		_, err = f.engine.Refund(ctx, f.db, &weavetest.Auth{Signer: f.maker}, f.refundRequest())
		require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
		require.Equal(t, int64(0), f.balance(t, f.maker.Address(), assetA.Ticker))
	})

	t.Run("refund first", func(t *testing.T) {
		f := newFixture(t, 50, 20, 30)
		_, err := f.engine.Refund(ctx, f.db, &weavetest.Auth{Signer: f.maker}, f.refundRequest())
		require.NoError(t, err)

		before := f.snapshot(t)
		_, err = f.engine.Take(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
		require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
		require.Equal(t, before, f.snapshot(t))
	})

	t.Run("second take", func(t *testing.T) {
		f := newFixture(t, 50, 20, 40)
		_, err := f.engine.Take(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
		require.NoError(t, err)
		_, err = f.engine.Take(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
		require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
		require.Equal(t, int64(20), f.balance(t, f.taker.Address(), assetB.Ticker))
	})
}

func TestSeedIsRetired(t *testing.T) {
	f := newFixture(t, 50, 20, 30)
	ctx := context.Background()

	_, err := f.engine.Take(ctx, f.db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
	require.NoError(t, err)

	var tomb Tombstone
	require.NoError(t, f.engine.tombstones.One(f.db, tombstoneKey(f.maker.Address(), 7), &tomb))
	require.True(t, tomb.Settled)

	// The maker got asset B, so it can offer it under a new escrow, but the
	// settled seed stays retired.
	req := &MakeRequest{
		Maker:         f.maker.Address(),
		Seed:          7,
		MintA:         assetB,
		MintB:         assetA,
		Deposit:       5,
		ReceiveAmount: 1,
	}
	_, err = f.engine.Make(ctx, f.db, &weavetest.Auth{Signer: f.maker}, req)
	require.True(t, ErrRetired.Is(err), "got %+v", err)

	req.Seed = 8
	addr, err := f.engine.Make(ctx, f.db, &weavetest.Auth{Signer: f.maker}, req)
	require.NoError(t, err)
	require.NotEqual(t, f.escrow, addr)
}

// plainStore hides the cache wrap capability of the underlying store.
type plainStore struct {
	escrowd.KVStore
}

func TestTakeWithoutCacheWrap(t *testing.T) {
	f := newFixture(t, 50, 20, 30)
	db := plainStore{f.db}

	_, err := f.engine.Take(context.Background(), db, &weavetest.Auth{Signer: f.taker}, f.takeRequest())
	require.NoError(t, err)
	require.Equal(t, int64(50), f.balance(t, f.taker.Address(), assetA.Ticker))
}
