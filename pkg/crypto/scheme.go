package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Crypto errors.
var (
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")
	ErrInvalidKey        = errors.New("invalid key")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrVerifyFailed      = errors.New("signature verification failed")
)

// SignatureScheme identifies a key type. The value is the flag byte that
// prefixes serialized signatures and public keys.
type SignatureScheme byte

const (
	Ed25519   SignatureScheme = 0x00
	Secp256k1 SignatureScheme = 0x01
)

// ParseScheme accepts the scheme names used in configuration.
func ParseScheme(s string) (SignatureScheme, error) {
	switch strings.ToLower(s) {
	case "ed25519":
		return Ed25519, nil
	case "secp256k1":
		return Secp256k1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
}

// Flag returns the scheme flag byte.
func (s SignatureScheme) Flag() byte {
	return byte(s)
}

func (s SignatureScheme) String() string {
	switch s {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	}
	return fmt.Sprintf("scheme(0x%02x)", byte(s))
}

// PublicKeySize returns the encoded public key length for the scheme.
func (s SignatureScheme) PublicKeySize() int {
	switch s {
	case Ed25519:
		return 32
	case Secp256k1:
		return 33
	}
	return 0
}

// AddressFromPublicKey derives the account address for a public key.
// Ed25519 addresses hash the bare key; other schemes hash flag || key.
func AddressFromPublicKey(scheme SignatureScheme, pub []byte) types.AccountAddress {
	if scheme == Ed25519 {
		return types.AccountAddress(Blake2b256(pub))
	}
	return types.AccountAddress(Blake2b256Concat([]byte{scheme.Flag()}, pub))
}
