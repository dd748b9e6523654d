package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Ed25519KeyPair is an Ed25519 signing key.
type Ed25519KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func newEd25519KeyPair(priv ed25519.PrivateKey) *Ed25519KeyPair {
	return &Ed25519KeyPair{priv: priv, pub: priv.Public().(ed25519.PublicKey)}
}

// GenerateEd25519 creates a random Ed25519 key pair.
func GenerateEd25519() (*Ed25519KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return newEd25519KeyPair(priv), nil
}

// Ed25519FromSeed builds a key pair from a 32-byte seed.
func Ed25519FromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 seed must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	return newEd25519KeyPair(ed25519.NewKeyFromSeed(seed)), nil
}

func (k *Ed25519KeyPair) Scheme() SignatureScheme { return Ed25519 }

// PublicKey returns the 32-byte public key. It survives Zero.
func (k *Ed25519KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.pub...)
}

// Sign produces a deterministic Ed25519 signature over msg.
func (k *Ed25519KeyPair) Sign(msg []byte) (Signature, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: key has been zeroed", ErrInvalidKey)
	}
	sig := ed25519.Sign(k.priv, msg)
	return newSignature(Ed25519, sig, k.PublicKey()), nil
}

func (k *Ed25519KeyPair) Address() types.AccountAddress {
	return AddressFromPublicKey(Ed25519, k.PublicKey())
}

// PrivateKey returns the 32-byte seed, or nil once the key has been zeroed.
func (k *Ed25519KeyPair) PrivateKey() []byte {
	if k.priv == nil {
		return nil
	}
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, k.priv.Seed())
	return seed
}

func (k *Ed25519KeyPair) Zero() {
	zeroBytes(k.priv)
	k.priv = nil
}

// String never includes key material.
func (k *Ed25519KeyPair) String() string {
	return "ed25519:" + k.Address().String()
}

func verifyEd25519(pub, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
