package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Application is the ABCI application of escrowd.
//
// All methods that touch the state hold the same lock, so transactions are
// processed one at a time in the order they arrive. Errors on ABCI steps
// that do not take user input (InitChain, Commit) cannot be reported to
// tendermint and result in a panic.
type Application struct {
	mu sync.Mutex

	// name is what is returned from abci.Info
	name    string
	logger  log.Logger
	metrics *Metrics
	debug   bool

	store       *CommitStore
	decoder     TxDecoder
	handler     escrowd.Handler
	queries     escrowd.QueryRouter
	initializer escrowd.Initializer

	// chainID is loaded from the store or set once by InitChain.
	chainID string
	// height of the block being processed.
	height int64
}

var _ abci.Application = (*Application)(nil)

// NewApplication loads the latest state of the store and returns an
// application processing transactions with the stack.
func NewApplication(name string, kv escrowd.CommitKVStore, stack *Stack) (*Application, error) {
	store, err := NewCommitStore(kv)
	if err != nil {
		return nil, err
	}
	chainID, err := loadChainID(store.DeliverStore())
	if err != nil {
		return nil, err
	}
	info, err := store.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &Application{
		name:        name,
		logger:      log.NewNopLogger(),
		store:       store,
		decoder:     DecodeTx,
		handler:     stack.Handler,
		queries:     stack.Queries,
		initializer: stack.Initializer,
		chainID:     chainID,
		height:      info.Version,
	}, nil
}

// WithLogger sets the logger and returns the application, to make it easy to
// chain in initialization.
func (a *Application) WithLogger(logger log.Logger) *Application {
	a.logger = logger
	return a
}

// WithMetrics sets the metrics collector.
func (a *Application) WithMetrics(m *Metrics) *Application {
	a.metrics = m
	return a
}

// WithDebug enables full error messages in results.
func (a *Application) WithDebug(debug bool) *Application {
	a.debug = debug
	return a
}

// ChainID returns the chain id, or an empty string before InitChain.
func (a *Application) ChainID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chainID
}

// Info implements abci.Application. It returns the height and hash of the
// last committed state.
func (a *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	a.logger.Info("Info synced",
		"height", info.Version,
		"hash", fmt.Sprintf("%X", info.Hash))
	return abci.ResponseInfo{
		Data:             a.name,
		Version:          escrowd.Version(),
		LastBlockHeight:  info.Version,
		LastBlockAppHash: info.Hash,
	}
}

// SetOption is not supported.
func (a *Application) SetOption(req abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// InitChain implements abci.Application. It stores the chain id and loads
// the genesis state.
func (a *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := a.LoadGenesis(req.ChainId, req.AppStateBytes); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// LoadGenesis stores the chain id and initializes all extensions from the
// application state. It can be called only once in the lifetime of a chain.
// Nothing is written if the initialization fails.
func (a *Application) LoadGenesis(chainID string, appState []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID != "" {
		return errors.Wrapf(errors.ErrInvalidState, "app state already loaded for chain %s", a.chainID)
	}
	if len(appState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state not set in genesis")
	}
	var opts escrowd.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "app_state: %s", err)
	}

	cache := a.store.DeliverStore().CacheWrap()
	if err := saveChainID(cache, chainID); err != nil {
		cache.Discard()
		return err
	}
	if err := a.initializer.FromGenesis(opts, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := cache.Write(); err != nil {
		return err
	}
	a.chainID = chainID
	a.logger.Info("Genesis loaded", "chain_id", chainID)
	return nil
}

// BeginBlock implements abci.Application. It sets the height of the
// processed block.
func (a *Application) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.height = req.Header.Height
	return abci.ResponseBeginBlock{}
}

// EndBlock implements abci.Application. Escrowd does not change the
// validator set.
func (a *Application) EndBlock(req abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}

// CheckTx implements abci.Application. The transaction is validated against
// the check state.
func (a *Application) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	tx, err := a.loadTx(txBytes)
	if err != nil {
		res := CheckOrError(nil, err, a.debug)
		a.metrics.observeTx("check_tx", "(invalid)", res.Code, start)
		return res
	}
	ctx, err := a.context("check_tx", tx)
	var result *escrowd.CheckResult
	if err == nil {
		result, err = a.handler.Check(ctx, a.store.CheckStore(), tx)
	}
	res := CheckOrError(result, err, a.debug)
	a.metrics.observeTx("check_tx", escrowd.GetPath(tx), res.Code, start)
	return res
}

// DeliverTx implements abci.Application. The transaction is executed
// against the deliver state.
func (a *Application) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	tx, err := a.loadTx(txBytes)
	if err != nil {
		res := DeliverOrError(nil, err, a.debug)
		a.metrics.observeTx("deliver_tx", "(invalid)", res.Code, start)
		return res
	}
	ctx, err := a.context("deliver_tx", tx)
	var result *escrowd.DeliverResult
	if err == nil {
		result, err = a.handler.Deliver(ctx, a.store.DeliverStore(), tx)
	}
	res := DeliverOrError(result, err, a.debug)
	a.metrics.observeTx("deliver_tx", escrowd.GetPath(tx), res.Code, start)
	return res
}

// Commit implements abci.Application. All delivered transactions are
// persisted.
func (a *Application) Commit() abci.ResponseCommit {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.store.Commit()
	if err != nil {
		panic(err)
	}
	a.height = info.Version
	a.metrics.observeCommit(info.Version)
	a.logger.Debug("Commit synced",
		"height", info.Version,
		"hash", fmt.Sprintf("%X", info.Hash))
	return abci.ResponseCommit{Data: info.Hash}
}

/*
Query reads the last committed state.

Path selects the query handler, for example "/escrow" or "/account". Data is
interpreted by that handler, usually as an address. The result is returned as
JSON in the Value field. Historical queries and proofs are not supported.
*/
func (a *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, err := a.store.CommitInfo()
	if err != nil {
		return a.queryError(errors.Wrap(errors.ErrDatabase, err.Error()))
	}
	if req.Prove {
		return a.queryError(errors.Wrap(errors.ErrInvalidInput, "proofs are not supported"))
	}
	if req.Height != 0 && req.Height != info.Version {
		return a.queryError(errors.Wrapf(errors.ErrInvalidInput, "only the latest height %d can be queried", info.Version))
	}
	h := a.queries.Handler(req.Path)
	if h == nil {
		return a.queryError(errors.Wrapf(errors.ErrNotFound, "unknown query path %q", req.Path))
	}
	res, err := h.Query(a.store.Committed(), req.Data)
	if err != nil {
		return a.queryError(err)
	}
	value, err := json.Marshal(res)
	if err != nil {
		return a.queryError(errors.Wrap(errors.ErrInvalidModel, err.Error()))
	}
	return abci.ResponseQuery{
		Key:    req.Data,
		Value:  value,
		Height: info.Version,
	}
}

func (a *Application) queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, a.debug)
	return abci.ResponseQuery{Code: code, Log: log}
}

// context returns the context of a single transaction.
func (a *Application) context(call string, tx escrowd.Tx) (escrowd.Context, error) {
	if a.chainID == "" {
		return nil, errors.Wrap(errors.ErrInvalidState, "chain is not initialized")
	}
	ctx := escrowd.WithLogger(context.Background(), a.logger)
	ctx = escrowd.WithChainID(ctx, a.chainID)
	ctx = escrowd.WithHeight(ctx, a.height)
	return escrowd.WithLogInfo(ctx, "call", call, "path", escrowd.GetPath(tx)), nil
}

// loadTx calls the decoder, and capture any panics
func (a *Application) loadTx(txBytes []byte) (tx escrowd.Tx, err error) {
	defer errors.Recover(&err)
	return a.decoder(txBytes)
}
