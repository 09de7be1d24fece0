package escrowd

import (
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/iov-one/escrowd/errors"
)

const (
	// AuthorityType is the condition type of every derived authority.
	AuthorityType = "pda"

	// MaxSeeds is the maximum number of seeds accepted by a derivation.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32

	derivationMarker = "ProgramDerivedAddress"
)

// CreateAuthority computes the authority that the given program controls for
// the seeds and bump. The authority is a condition that no private key can
// fulfill: its data is a sha256 digest that is guaranteed not to be a valid
// ed25519 public key. A digest that lands on the curve is rejected with
// ErrDerivation, and the caller must try another bump.
//
// Anyone knowing the program name, the seeds and the bump can recompute the
// authority, but only the program itself may act on its behalf.
func CreateAuthority(program string, bump uint8, seeds ...[]byte) (Condition, error) {
	if len(seeds) > MaxSeeds {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "seed %d too long: %d", i, len(s))
		}
		_, _ = h.Write(s)
	}
	_, _ = h.Write([]byte{bump})
	_, _ = h.Write([]byte(program))
	_, _ = h.Write([]byte(derivationMarker))
	digest := h.Sum(nil)

	if onCurve(digest) {
		return nil, errors.Wrapf(errors.ErrDerivation, "bump %d yields a point on the curve", bump)
	}
	cond := NewCondition(program, AuthorityType, digest)
	if err := cond.Validate(); err != nil {
		return nil, errors.Wrapf(err, "program %q", program)
	}
	return cond, nil
}

// DeriveAuthority finds the canonical bump for the seeds, starting at 255 and
// going down, and returns the authority together with that bump. Persist the
// bump so that the authority can later be reproduced with CreateAuthority
// without repeating the search.
func DeriveAuthority(program string, seeds ...[]byte) (Condition, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		cond, err := CreateAuthority(program, uint8(bump), seeds...)
		switch {
		case err == nil:
			return cond, uint8(bump), nil
		case errors.ErrDerivation.Is(err):
			continue
		default:
			return nil, 0, err
		}
	}
	return nil, 0, errors.Wrap(errors.ErrDerivation, "no viable bump")
}

// VerifyAuthority recomputes the authority from the seeds and bump and
// ensures that it is represented by the expected address. Any failure is
// reported as ErrDerivation, so a caller can never act with an authority it
// did not prove.
func VerifyAuthority(program string, bump uint8, expected Address, seeds ...[]byte) (Condition, error) {
	cond, err := CreateAuthority(program, bump, seeds...)
	if err != nil {
		if errors.ErrDerivation.Is(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrDerivation, err.Error())
	}
	if !cond.Address().Equals(expected) {
		return nil, errors.Wrapf(errors.ErrDerivation, "authority %s does not match %s", cond.Address(), expected)
	}
	return cond, nil
}

// IsAuthority returns true if the condition was produced by a derivation of
// the given program.
func IsAuthority(c Condition, program string) bool {
	ext, typ, _, err := c.Parse()
	return err == nil && ext == program && typ == AuthorityType
}

func onCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
