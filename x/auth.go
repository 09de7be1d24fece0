package x

import (
	"github.com/iov-one/escrowd"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(escrowd.Context) []escrowd.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(escrowd.Context, escrowd.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx escrowd.Context) []escrowd.Condition {
	var res []escrowd.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx escrowd.Context, addr escrowd.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// ConditionAuth authenticates exactly the given conditions, regardless of the
// context. A program uses it to act with an authority it has derived and
// verified itself.
type ConditionAuth []escrowd.Condition

var _ Authenticator = ConditionAuth(nil)

// GetConditions returns all held conditions.
func (a ConditionAuth) GetConditions(escrowd.Context) []escrowd.Condition {
	return a
}

// HasAddress returns true if any held condition matches this address.
func (a ConditionAuth) HasAddress(_ escrowd.Context, addr escrowd.Address) bool {
	for _, c := range a {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx escrowd.Context, auth Authenticator) []escrowd.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]escrowd.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx escrowd.Context, auth Authenticator) escrowd.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx escrowd.Context, auth Authenticator, required []escrowd.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasNAddresses returns true if at least n elements in requested are
// also in context.
func HasNAddresses(ctx escrowd.Context, auth Authenticator, required []escrowd.Address, n int) bool {
	if n <= 0 {
		return true
	}

	for _, r := range required {
		if auth.HasAddress(ctx, r) {
			n--
			if n == 0 {
				return true
			}
		}
	}
	return false
}
