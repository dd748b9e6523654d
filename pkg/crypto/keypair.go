package crypto

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// KeyPair signs messages on behalf of one account.
type KeyPair interface {
	// Scheme returns the signature scheme.
	Scheme() SignatureScheme
	// PublicKey returns the encoded public key (32 bytes for Ed25519,
	// 33 compressed bytes for secp256k1).
	PublicKey() []byte
	// Sign signs msg and returns the serialized flag || sig || pk form.
	Sign(msg []byte) (Signature, error)
	// Address returns the account address derived from the public key.
	Address() types.AccountAddress
	// PrivateKey returns a copy of the 32-byte secret.
	PrivateKey() []byte
	// Zero wipes the secret from memory. The key pair is unusable afterwards.
	Zero()
}

// GenerateKeyPair creates a random key pair for the given scheme.
func GenerateKeyPair(scheme SignatureScheme) (KeyPair, error) {
	switch scheme {
	case Ed25519:
		return GenerateEd25519()
	case Secp256k1:
		return GenerateSecp256k1()
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
}

// KeyPairFromPrivateKey rebuilds a key pair from its 32-byte secret.
func KeyPairFromPrivateKey(scheme SignatureScheme, secret []byte) (KeyPair, error) {
	switch scheme {
	case Ed25519:
		return Ed25519FromSeed(secret)
	case Secp256k1:
		return Secp256k1FromBytes(secret)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
