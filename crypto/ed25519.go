package crypto

import (
	"crypto/rand"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() *PublicKey
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

var _ Signer = (*PrivateKey)(nil)

// GenPrivKeyEd25519 generates a new random key.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{key: priv}
}

// PrivKeyFromBytes loads a private key from its raw representation.
func PrivKeyFromBytes(raw []byte) (*PrivateKey, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return &PrivateKey{key: append(ed25519.PrivateKey(nil), raw...)}, nil
}

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(p.key, message), nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := p.key.Public().(ed25519.PublicKey)
	return &PublicKey{key: pub}
}

// Bytes returns the raw private key.
func (p *PrivateKey) Bytes() []byte {
	return append([]byte(nil), p.key...)
}

// PublicKey is an ed25519 public key.
type PublicKey struct {
	key ed25519.PublicKey
}

// NewPublicKey loads a public key from its raw representation.
func NewPublicKey(raw []byte) (*PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "public key must be %d bytes", ed25519.PublicKeySize)
	}
	return &PublicKey{key: append(ed25519.PublicKey(nil), raw...)}, nil
}

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message []byte, sig []byte) bool {
	if p == nil || len(p.key) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(p.key, message, sig)
}

// Condition encodes the public key into a signature condition
func (p *PublicKey) Condition() escrowd.Condition {
	return escrowd.NewCondition(ExtensionName, "ed25519", p.key)
}

// Address is the address of the condition fulfilled by this key.
func (p *PublicKey) Address() escrowd.Address {
	return p.Condition().Address()
}

// Bytes returns the raw public key.
func (p *PublicKey) Bytes() []byte {
	return append([]byte(nil), p.key...)
}
