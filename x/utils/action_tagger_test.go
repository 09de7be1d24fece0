package utils_test

import (
	"context"
	"testing"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store"
	"github.com/iov-one/escrowd/weavetest"
	"github.com/iov-one/escrowd/weavetest/assert"
	"github.com/iov-one/escrowd/x/utils"
)

func stringTag(key, value string) escrowd.Tag {
	return escrowd.Tag{
		Key:   []byte(key),
		Value: []byte(value),
	}
}

func TestActionTagger(t *testing.T) {
	cases := map[string]struct {
		stack escrowd.Handler
		tx    escrowd.Tx
		err   *errors.Error
		tags  []escrowd.Tag
	}{
		"simple call": {
			stack: weavetest.Decorate(&weavetest.Handler{}, utils.NewActionTagger()),
			tx:    &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/take"}},
			tags:  []escrowd.Tag{stringTag(utils.ActionKey, "escrow/take")},
		},
		"passes through error": {
			stack: weavetest.Decorate(&weavetest.Handler{DeliverErr: errors.ErrHuman}, utils.NewActionTagger()),
			tx:    &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/take"}},
			err:   errors.ErrHuman,
		},
		"tags are additive": {
			stack: weavetest.Decorate(&weavetest.Handler{
				DeliverResult: escrowd.DeliverResult{Tags: []escrowd.Tag{stringTag("escrow", "ABCD")}},
			}, utils.NewActionTagger()),
			tx:   &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/take"}},
			tags: []escrowd.Tag{stringTag("escrow", "ABCD"), stringTag(utils.ActionKey, "escrow/take")},
		},
		"message error is reported": {
			stack: weavetest.Decorate(&weavetest.Handler{}, utils.NewActionTagger()),
			tx:    &weavetest.Tx{Err: errors.ErrInvalidMsg},
			err:   errors.ErrInvalidMsg,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := tc.stack.Deliver(context.Background(), store.MemStore(), tc.tx)
			assert.IsErr(t, tc.err, err)
			if err == nil {
				assert.Equal(t, tc.tags, res.Tags)
			}
		})
	}
}
