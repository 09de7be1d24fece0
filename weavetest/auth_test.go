package weavetest

import (
	"context"
	"testing"

	"github.com/iov-one/escrowd"
)

func TestAuth(t *testing.T) {
	var (
		c1 = NewCondition()
		c2 = NewCondition()
		c3 = NewCondition()
	)

	cases := map[string]struct {
		auth     *Auth
		wantAddr []escrowd.Address
		rejected []escrowd.Address
	}{
		"single signer": {
			auth:     &Auth{Signer: c1},
			wantAddr: []escrowd.Address{c1.Address()},
			rejected: []escrowd.Address{c2.Address()},
		},
		"many signers": {
			auth:     &Auth{Signer: c1, Signers: []escrowd.Condition{c2}},
			wantAddr: []escrowd.Address{c1.Address(), c2.Address()},
			rejected: []escrowd.Address{c3.Address()},
		},
		"nobody": {
			auth:     &Auth{},
			rejected: []escrowd.Address{c1.Address()},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			for _, a := range tc.wantAddr {
				if !tc.auth.HasAddress(ctx, a) {
					t.Errorf("address %s not authenticated", a)
				}
			}
			for _, a := range tc.rejected {
				if tc.auth.HasAddress(ctx, a) {
					t.Errorf("address %s authenticated", a)
				}
			}
		})
	}
}

func TestCtxAuth(t *testing.T) {
	auth := &CtxAuth{Key: "auth"}
	c := NewCondition()

	ctx := context.Background()
	if auth.HasAddress(ctx, c.Address()) {
		t.Fatal("empty context authenticated")
	}
	ctx = auth.SetConditions(ctx, c)
	if !auth.HasAddress(ctx, c.Address()) {
		t.Fatal("condition not authenticated")
	}
	if got := auth.GetConditions(ctx); len(got) != 1 || !got[0].Equals(c) {
		t.Fatalf("unexpected conditions: %v", got)
	}
}
