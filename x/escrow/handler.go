package escrow

import (
	"encoding/json"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/x"
)

const (
	makeCost   = 300
	takeCost   = 500
	refundCost = 200

	tagEscrow = "escrow"
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r escrowd.Registry, auth x.Authenticator, engine *Engine) {
	r.Handle(&MakeMsg{}, &makeHandler{auth: auth, engine: engine})
	r.Handle(&TakeMsg{}, &takeHandler{auth: auth, engine: engine})
	r.Handle(&RefundMsg{}, &refundHandler{auth: auth, engine: engine})
}

type makeHandler struct {
	auth   x.Authenticator
	engine *Engine
}

var _ escrowd.Handler = (*makeHandler)(nil)

func (h *makeHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: makeCost}, nil
}

// Deliver creates the escrow and returns its address as data.
func (h *makeHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.engine.Make(ctx, db, h.auth, msg.Request())
	if err != nil {
		return nil, err
	}
	return &escrowd.DeliverResult{
		Data: addr,
		Tags: tags(addr),
	}, nil
}

func (h *makeHandler) validate(ctx escrowd.Context, tx escrowd.Tx) (*MakeMsg, error) {
	var msg MakeMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	return &msg, nil
}

type takeHandler struct {
	auth   x.Authenticator
	engine *Engine
}

var _ escrowd.Handler = (*takeHandler)(nil)

func (h *takeHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.engine.Get(db, msg.Escrow); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: takeCost}, nil
}

// Deliver settles the escrow. The settlement is returned as JSON data.
func (h *takeHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	res, err := h.engine.Take(ctx, db, h.auth, msg.Request())
	if err != nil {
		return nil, err
	}
	return settlementResult(res)
}

func (h *takeHandler) validate(ctx escrowd.Context, tx escrowd.Tx) (*TakeMsg, error) {
	var msg TakeMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "taker signature missing")
	}
	return &msg, nil
}

type refundHandler struct {
	auth   x.Authenticator
	engine *Engine
}

var _ escrowd.Handler = (*refundHandler)(nil)

func (h *refundHandler) Check(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.CheckResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.engine.Get(db, msg.Escrow); err != nil {
		return nil, err
	}
	return &escrowd.CheckResult{GasAllocated: refundCost}, nil
}

func (h *refundHandler) Deliver(ctx escrowd.Context, db escrowd.KVStore, tx escrowd.Tx) (*escrowd.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	res, err := h.engine.Refund(ctx, db, h.auth, msg.Request())
	if err != nil {
		return nil, err
	}
	return settlementResult(res)
}

func (h *refundHandler) validate(ctx escrowd.Context, tx escrowd.Tx) (*RefundMsg, error) {
	var msg RefundMsg
	if err := escrowd.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	return &msg, nil
}

func settlementResult(s *Settlement) (*escrowd.DeliverResult, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return &escrowd.DeliverResult{
		Data: data,
		Tags: tags(s.Escrow),
	}, nil
}

func tags(addr escrowd.Address) []escrowd.Tag {
	return []escrowd.Tag{
		{Key: []byte(tagEscrow), Value: []byte(addr.String())},
	}
}
