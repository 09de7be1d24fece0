package token

import (
	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x"
)

const (
	createMintCost = 100
	issueCost      = 50
	transferCost   = 50
	freezeCost     = 10
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r escrowd.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&CreateMintMsg{}, &createMintHandler{auth: auth, ctrl: ctrl})
	r.Handle(&IssueMsg{}, &issueHandler{auth: auth, ctrl: ctrl})
	r.Handle(&TransferMsg{}, &transferHandler{auth: auth, ctrl: ctrl})
	r.Handle(&FreezeMsg{}, &freezeHandler{auth: auth, ctrl: ctrl})
	r.Handle(&CloseAccountMsg{}, &closeAccountHandler{auth: auth, ctrl: ctrl})
}

type createMintHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ escrowd.Handler = (*createMintHandler)(nil)

func (h *createMintHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: createMintCost}, nil
}

func (h *createMintHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	mint := &Mint{
		Ticker:    msg.Ticker,
		Name:      msg.Name,
		Decimals:  msg.Decimals,
		Authority: msg.Authority,
	}
	if err := h.ctrl.CreateMint(db, mint); err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{Data: []byte(mint.Ticker)}, nil
}

func (h *createMintHandler) validate(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*CreateMintMsg, error) {
	var msg CreateMintMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "mint authority signature missing")
	}
	return &msg, nil
}

type issueHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ escrowd.Handler = (*issueHandler)(nil)

func (h *issueHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: issueCost}, nil
}

// Deliver issues new units. The owner's account is opened if needed at the
// mint authority's expense.
func (h *issueHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, mint, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr := AccountAddress(msg.Owner, msg.Ticker)
	if _, _, err := h.ctrl.EnsureAccount(db, mint.Authority, msg.Owner, msg.Ticker, addr); err != nil {
		return nil, err
	}
	if err := h.ctrl.Issue(db, addr, msg.Amount); err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{Data: addr}, nil
}

func (h *issueHandler) validate(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*IssueMsg, *Mint, error) {
	var msg IssueMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	mint, err := h.ctrl.GetMint(db, msg.Ticker)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, mint.Authority) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "mint authority signature missing")
	}
	return &msg, mint, nil
}

type transferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ escrowd.Handler = (*transferHandler)(nil)

func (h *transferHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: transferCost}, nil
}

// Deliver moves the tokens. The destination account is created if needed at
// the sender's expense.
func (h *transferHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	dst := AccountAddress(msg.Destination, msg.Ticker)
	if _, _, err := h.ctrl.EnsureAccount(db, msg.Source, msg.Destination, msg.Ticker, dst); err != nil {
		return nil, err
	}
	src := AccountAddress(msg.Source, msg.Ticker)
	if err := h.ctrl.TransferChecked(ctx, db, h.auth, src, dst, msg.Ticker, msg.Amount, msg.Decimals); err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{}, nil
}

func (h *transferHandler) validate(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	return &msg, nil
}

type freezeHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ escrowd.Handler = (*freezeHandler)(nil)

func (h *freezeHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: freezeCost}, nil
}

func (h *freezeHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.SetFrozen(db, AccountAddress(msg.Owner, msg.Ticker), msg.Frozen); err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{}, nil
}

func (h *freezeHandler) validate(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*FreezeMsg, error) {
	var msg FreezeMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	mint, err := h.ctrl.GetMint(db, msg.Ticker)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, mint.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "mint authority signature missing")
	}
	return &msg, nil
}

type closeAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ escrowd.Handler = (*closeAccountHandler)(nil)

func (h *closeAccountHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: freezeCost}, nil
}

// Deliver closes the account and returns its reserve to the owner.
func (h *closeAccountHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr := AccountAddress(msg.Owner, msg.Ticker)
	if err := h.ctrl.CloseAccount(ctx, db, h.auth, addr, msg.Owner); err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{}, nil
}

func (h *closeAccountHandler) validate(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*CloseAccountMsg, error) {
	var msg CloseAccountMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature missing")
	}
	return &msg, nil
}
