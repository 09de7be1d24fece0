package weavetest

import (
	"context"
	"testing"

	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store"
	"github.com/iov-one/escrowd/weavetest/assert"
)

func TestDecoratorWithError(t *testing.T) {
	d := &Decorator{CheckErr: errors.ErrUnauthorized, DeliverErr: errors.ErrNotFound}
	h := &Handler{}
	handler := Decorate(h, d)
	db := store.MemStore()

	_, err := handler.Check(context.TODO(), db, &Tx{})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = handler.Deliver(context.TODO(), db, &Tx{})
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Equal(t, 2, d.CallCount())
	assert.Equal(t, 0, h.CallCount())
}

func TestDecoratorCallsHandler(t *testing.T) {
	d := &Decorator{}
	h := &Handler{DeliverResult: escrowdResult("ok")}
	handler := Decorate(h, d)
	db := store.MemStore()

	_, err := handler.Check(context.TODO(), db, &Tx{})
	assert.Nil(t, err)
	res, err := handler.Deliver(context.TODO(), db, &Tx{})
	assert.Nil(t, err)
	assert.Equal(t, "ok", res.Log)

	assert.Equal(t, 1, d.CheckCallCount())
	assert.Equal(t, 1, d.DeliverCallCount())
	assert.Equal(t, 2, h.CallCount())
}
