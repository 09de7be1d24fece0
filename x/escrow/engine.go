package escrow

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/orm"
	"github.com/iov-one/escrowd/x"
	"github.com/iov-one/escrowd/x/rent"
	"github.com/iov-one/escrowd/x/token"
)

// Asset identifies a mint together with the precision the caller expects.
type Asset struct {
	Ticker   string `json:"ticker"`
	Decimals uint32 `json:"decimals"`
}

// MakeRequest describes a new escrow.
type MakeRequest struct {
	Maker         escrowd.Address
	Seed          uint64
	MintA         Asset
	MintB         Asset
	Deposit       uint64
	ReceiveAmount uint64
}

// TakeRequest carries everything a taker supplies to settle an escrow.
// Every address is checked against the escrow record before any transfer.
type TakeRequest struct {
	Taker  escrowd.Address
	Maker  escrowd.Address
	Escrow escrowd.Address
	MintA  Asset
	MintB  Asset
	Vault  escrowd.Address
	// TakerAccountA receives the vault balance. Created if missing.
	TakerAccountA escrowd.Address
	// TakerAccountB pays the maker. Must exist.
	TakerAccountB escrowd.Address
	// MakerAccountB receives the payment. Created if missing.
	MakerAccountB escrowd.Address
}

// RefundRequest carries everything a maker supplies to cancel an escrow.
type RefundRequest struct {
	Maker         escrowd.Address
	Escrow        escrowd.Address
	MintA         Asset
	Vault         escrowd.Address
	MakerAccountA escrowd.Address
}

// Settlement is the outcome of a terminal operation.
type Settlement struct {
	Escrow escrowd.Address `json:"escrow"`
	State  State           `json:"state"`
	// Paid is the amount of asset B moved from the taker to the maker.
	Paid uint64 `json:"paid"`
	// Released is the amount of asset A moved out of the vault.
	Released uint64 `json:"released"`
	// Reclaimed is the storage allowance returned to the maker.
	Reclaimed uint64 `json:"reclaimed"`
}

// Engine creates, settles and refunds escrows.
type Engine struct {
	escrows    orm.ModelBucket
	tombstones orm.ModelBucket
	tokens     token.Controller
	rent       rent.Controller
	metrics    *Metrics
}

// NewEngine returns an engine moving assets with the token controller. Pass
// nil metrics to disable them.
func NewEngine(tokens token.Controller, r rent.Controller, m *Metrics) *Engine {
	return &Engine{
		escrows:    NewBucket(),
		tombstones: NewTombstoneBucket(),
		tokens:     tokens,
		rent:       r,
		metrics:    m,
	}
}

// Get returns the escrow stored under the address.
func (e *Engine) Get(db escrowd.ReadOnlyKVStore, addr escrowd.Address) (*Escrow, error) {
	var rec Escrow
	if err := e.escrows.One(db, addr, &rec); err != nil {
		return nil, errors.Wrapf(err, "escrow %s", addr)
	}
	return &rec, nil
}

// ByMaker returns all pending escrows of the maker with their addresses.
func (e *Engine) ByMaker(db escrowd.ReadOnlyKVStore, maker escrowd.Address) ([]escrowd.Address, []*Escrow, error) {
	var recs []*Escrow
	keys, err := e.escrows.ByIndex(db, "maker", maker, &recs)
	if err != nil {
		return nil, nil, err
	}
	addrs := make([]escrowd.Address, len(keys))
	for i, k := range keys {
		addrs[i] = k
	}
	return addrs, recs, nil
}

// Make creates an escrow and funds its vault with the deposit taken from the
// maker's asset A account. The maker pays the reserves of the record and
// the vault.
func (e *Engine) Make(ctx escrowd.Context, db escrowd.KVStore, auth x.Authenticator, req *MakeRequest) (addr escrowd.Address, err error) {
	defer func() { e.metrics.observe(opMake, err) }()

	db, commit, discard := atomic(db)
	defer discard()

	if !auth.HasAddress(ctx, req.Maker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	if req.Deposit == 0 {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "deposit must be positive")
	}
	switch err := e.tombstones.Has(db, tombstoneKey(req.Maker, req.Seed)); {
	case err == nil:
		return nil, errors.Wrapf(ErrRetired, "seed %d", req.Seed)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	authority, bump, err := DeriveAddress(req.Maker, req.Seed)
	if err != nil {
		return nil, err
	}
	addr = authority.Address()
	switch err := e.escrows.Has(db, addr); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "escrow %s", addr)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	for _, a := range []Asset{req.MintA, req.MintB} {
		mint, err := e.tokens.GetMint(db, a.Ticker)
		if err != nil {
			return nil, err
		}
		if mint.Decimals != a.Decimals {
			return nil, errors.Wrapf(token.ErrDecimals, "%s has %d decimals, got %d", a.Ticker, mint.Decimals, a.Decimals)
		}
	}

	conf, err := e.rent.Config(db)
	if err != nil {
		return nil, err
	}
	rec := &Escrow{
		Maker:         req.Maker,
		MintA:         req.MintA.Ticker,
		MintB:         req.MintB.Ticker,
		ReceiveAmount: req.ReceiveAmount,
		Seed:          req.Seed,
		Bump:          uint32(bump),
		Reserve:       conf.EscrowReserve,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := e.rent.Charge(db, req.Maker, conf.EscrowReserve); err != nil {
		return nil, errors.Wrap(err, "escrow reserve")
	}

	if _, err := e.tokens.OpenAccount(db, req.Maker, addr, rec.MintA); err != nil {
		return nil, errors.Wrap(err, "open vault")
	}
	makerA := token.AccountAddress(req.Maker, rec.MintA)
	vault := VaultAddress(addr, rec.MintA)
	if err := e.tokens.TransferChecked(ctx, db, auth, makerA, vault, rec.MintA, req.Deposit, req.MintA.Decimals); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	if err := e.escrows.Put(db, addr, rec); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	escrowd.GetLogger(ctx).Info("escrow created",
		"escrow", addr, "maker", req.Maker, "deposit", req.Deposit, "receive", rec.ReceiveAmount)
	return addr, nil
}

// Take settles the escrow. The taker pays the receive amount of asset B to
// the maker and gets the whole vault balance of asset A. The vault and the
// record are then retired and their reserves go to the maker.
//
// All bindings and the taker balance are verified before the first transfer.
// The operation is all or nothing: if the store can be cache wrapped,
// nothing is written unless settlement completes.
func (e *Engine) Take(ctx escrowd.Context, db escrowd.KVStore, auth x.Authenticator, req *TakeRequest) (res *Settlement, err error) {
	defer func() { e.metrics.observe(opTake, err) }()

	log := escrowd.GetLogger(ctx).With("escrow", req.Escrow)
	defer func() {
		if err != nil {
			log.Debug("settlement failed", "err", err)
		}
	}()

	db, commit, discard := atomic(db)
	defer discard()

	if !auth.HasAddress(ctx, req.Taker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "taker signature missing")
	}
	rec, err := e.Get(db, req.Escrow)
	if err != nil {
		return nil, err
	}
	if !req.Maker.Equals(rec.Maker) {
		return nil, errors.Wrapf(ErrBinding, "maker %s is not the escrow maker", req.Maker)
	}
	if req.MintA.Ticker != rec.MintA {
		return nil, errors.Wrapf(token.ErrMintMismatch, "mint a %s, escrow holds %s", req.MintA.Ticker, rec.MintA)
	}
	if req.MintB.Ticker != rec.MintB {
		return nil, errors.Wrapf(token.ErrMintMismatch, "mint b %s, escrow wants %s", req.MintB.Ticker, rec.MintB)
	}
	if err := e.checkDecimals(db, req.MintA, req.MintB); err != nil {
		return nil, err
	}

	authority, err := rec.Authority(req.Escrow)
	if err != nil {
		return nil, errors.Wrap(err, "escrow record corrupted")
	}
	vault, err := e.vault(db, authority, rec, req.Vault)
	if err != nil {
		return nil, err
	}

	if want := token.AccountAddress(req.Taker, rec.MintB); !want.Equals(req.TakerAccountB) {
		return nil, errors.Wrapf(token.ErrInvalidAccount, "%s is not the %s account of the taker", req.TakerAccountB, rec.MintB)
	}
	payer, err := e.tokens.GetAccount(db, req.TakerAccountB)
	if err != nil {
		return nil, errors.Wrap(err, "taker account b")
	}
	if err := token.CheckAccount(payer, req.Taker, rec.MintB); err != nil {
		return nil, err
	}
	if payer.Amount < rec.ReceiveAmount {
		return nil, errors.Wrapf(token.ErrInsufficientFunds, "taker holds %d, escrow wants %d", payer.Amount, rec.ReceiveAmount)
	}

	if _, _, err := e.tokens.EnsureAccount(db, req.Taker, req.Taker, rec.MintA, req.TakerAccountA); err != nil {
		return nil, errors.Wrap(err, "taker account a")
	}
	if _, _, err := e.tokens.EnsureAccount(db, req.Taker, rec.Maker, rec.MintB, req.MakerAccountB); err != nil {
		return nil, errors.Wrap(err, "maker account b")
	}

	res = &Settlement{Escrow: req.Escrow, State: Pending}

	// Leg 1 is authorized by the taker.
	if err := e.tokens.TransferChecked(ctx, db, auth, req.TakerAccountB, req.MakerAccountB, rec.MintB, rec.ReceiveAmount, req.MintB.Decimals); err != nil {
		return nil, errors.Wrap(err, "pay maker")
	}
	res.State = Settling
	res.Paid = rec.ReceiveAmount

	// Leg 2 and the retirement are authorized by the derived authority only.
	reclaimed, err := e.release(ctx, db, authority, rec, req.Escrow, vault, req.TakerAccountA, req.MintA.Decimals, true)
	if err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	res.State = Closed
	res.Released = vault.Amount
	res.Reclaimed = reclaimed

	e.metrics.observeSettled(rec.MintB, res.Paid)
	e.metrics.observeSettled(rec.MintA, res.Released)
	log.Info("escrow settled", "taker", req.Taker, "paid", res.Paid, "released", res.Released)
	return res, nil
}

// Refund cancels the escrow. The whole vault balance returns to the maker's
// asset A account, then the vault and the record are retired.
func (e *Engine) Refund(ctx escrowd.Context, db escrowd.KVStore, auth x.Authenticator, req *RefundRequest) (res *Settlement, err error) {
	defer func() { e.metrics.observe(opRefund, err) }()

	db, commit, discard := atomic(db)
	defer discard()

	if !auth.HasAddress(ctx, req.Maker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	rec, err := e.Get(db, req.Escrow)
	if err != nil {
		return nil, err
	}
	if !req.Maker.Equals(rec.Maker) {
		return nil, errors.Wrapf(ErrBinding, "maker %s is not the escrow maker", req.Maker)
	}
	if req.MintA.Ticker != rec.MintA {
		return nil, errors.Wrapf(token.ErrMintMismatch, "mint a %s, escrow holds %s", req.MintA.Ticker, rec.MintA)
	}
	if err := e.checkDecimals(db, req.MintA); err != nil {
		return nil, err
	}
	authority, err := rec.Authority(req.Escrow)
	if err != nil {
		return nil, errors.Wrap(err, "escrow record corrupted")
	}
	vault, err := e.vault(db, authority, rec, req.Vault)
	if err != nil {
		return nil, err
	}
	if _, _, err := e.tokens.EnsureAccount(db, req.Maker, req.Maker, rec.MintA, req.MakerAccountA); err != nil {
		return nil, errors.Wrap(err, "maker account a")
	}

	reclaimed, err := e.release(ctx, db, authority, rec, req.Escrow, vault, req.MakerAccountA, req.MintA.Decimals, false)
	if err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	escrowd.GetLogger(ctx).Info("escrow refunded", "escrow", req.Escrow, "released", vault.Amount)
	return &Settlement{
		Escrow:    req.Escrow,
		State:     Closed,
		Released:  vault.Amount,
		Reclaimed: reclaimed,
	}, nil
}

// vault loads the vault of the escrow and ensures the supplied address is
// the one owned by the derived authority.
func (e *Engine) vault(db escrowd.ReadOnlyKVStore, authority escrowd.Condition, rec *Escrow, supplied escrowd.Address) (*token.Account, error) {
	if want := VaultAddress(authority.Address(), rec.MintA); !want.Equals(supplied) {
		return nil, errors.Wrapf(ErrBinding, "%s is not the escrow vault", supplied)
	}
	vault, err := e.tokens.GetAccount(db, supplied)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if err := token.CheckAccount(vault, authority.Address(), rec.MintA); err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	return vault, nil
}

// release moves the whole vault balance to dest, closes the vault and
// retires the record. Only the derived authority is used to act on the
// vault. The returned value is the reserve reclaimed by the maker.
func (e *Engine) release(
	ctx escrowd.Context,
	db escrowd.KVStore,
	authority escrowd.Condition,
	rec *Escrow,
	addr escrowd.Address,
	vault *token.Account,
	dest escrowd.Address,
	decimals uint32,
	settled bool,
) (uint64, error) {
	program := x.ConditionAuth{authority}
	vaultAddr := VaultAddress(authority.Address(), rec.MintA)

	if err := e.tokens.TransferChecked(ctx, db, program, vaultAddr, dest, rec.MintA, vault.Amount, decimals); err != nil {
		return 0, errors.Wrap(err, "release vault")
	}
	if err := e.tokens.CloseAccount(ctx, db, program, vaultAddr, rec.Maker); err != nil {
		return 0, errors.Wrap(err, "close vault")
	}
	if err := e.escrows.Delete(db, addr); err != nil {
		return 0, err
	}
	if err := e.rent.Refund(db, rec.Maker, rec.Reserve); err != nil {
		return 0, errors.Wrap(err, "escrow reserve")
	}
	tomb := &Tombstone{Maker: rec.Maker, Seed: rec.Seed, Settled: settled}
	if err := e.tombstones.Put(db, tombstoneKey(rec.Maker, rec.Seed), tomb); err != nil {
		return 0, err
	}
	return vault.Reserve + rec.Reserve, nil
}

func (e *Engine) checkDecimals(db escrowd.ReadOnlyKVStore, assets ...Asset) error {
	for _, a := range assets {
		mint, err := e.tokens.GetMint(db, a.Ticker)
		if err != nil {
			return err
		}
		if mint.Decimals != a.Decimals {
			return errors.Wrapf(token.ErrDecimals, "%s has %d decimals, got %d", a.Ticker, mint.Decimals, a.Decimals)
		}
	}
	return nil
}

// atomic wraps the store so that nothing is written unless commit is called.
// Stores that cannot be wrapped are used directly and their atomicity is up
// to the caller.
func atomic(db escrowd.KVStore) (escrowd.KVStore, func() error, func()) {
	c, ok := db.(escrowd.CacheableKVStore)
	if !ok {
		return db, func() error { return nil }, func() {}
	}
	wrap := c.CacheWrap()
	return wrap, wrap.Write, wrap.Discard
}
