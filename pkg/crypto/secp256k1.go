package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Secp256k1KeyPair is an ECDSA secp256k1 signing key. Messages are
// pre-hashed with SHA-256 and signatures are 64-byte compact r || s with
// low s.
type Secp256k1KeyPair struct {
	key *secp256k1.PrivateKey
	pub []byte
}

func newSecp256k1KeyPair(key *secp256k1.PrivateKey) *Secp256k1KeyPair {
	return &Secp256k1KeyPair{key: key, pub: key.PubKey().SerializeCompressed()}
}

// GenerateSecp256k1 creates a random secp256k1 key pair.
func GenerateSecp256k1() (*Secp256k1KeyPair, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return newSecp256k1KeyPair(key), nil
}

// Secp256k1FromBytes creates a key pair from a 32-byte big-endian secret in
// [1, N-1]. Values at or above the group order are rejected, not reduced.
func Secp256k1FromBytes(b []byte) (*Secp256k1KeyPair, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: secp256k1 key must be 32 bytes, got %d", ErrInvalidKey, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		s.Zero()
		return nil, fmt.Errorf("%w: secp256k1 key is zero or out of range", ErrInvalidKey)
	}
	return newSecp256k1KeyPair(secp256k1.NewPrivateKey(&s)), nil
}

func (k *Secp256k1KeyPair) Scheme() SignatureScheme { return Secp256k1 }

// PublicKey returns the compressed 33-byte public key. It survives Zero.
func (k *Secp256k1KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.pub...)
}

// Sign hashes msg with SHA-256 and signs it with RFC 6979 nonces.
func (k *Secp256k1KeyPair) Sign(msg []byte) (Signature, error) {
	if k.key == nil {
		return nil, fmt.Errorf("%w: key has been zeroed", ErrInvalidKey)
	}
	hash := sha256.Sum256(msg)
	// SignCompact prepends a recovery byte that the ledger format omits.
	compact := ecdsa.SignCompact(k.key, hash[:], true)
	return newSignature(Secp256k1, compact[1:], k.PublicKey()), nil
}

func (k *Secp256k1KeyPair) Address() types.AccountAddress {
	return AddressFromPublicKey(Secp256k1, k.PublicKey())
}

// PrivateKey returns nil once the key has been zeroed.
func (k *Secp256k1KeyPair) PrivateKey() []byte {
	if k.key == nil {
		return nil
	}
	return k.key.Serialize()
}

func (k *Secp256k1KeyPair) Zero() {
	if k.key != nil {
		k.key.Zero()
		k.key = nil
	}
}

// String never includes key material.
func (k *Secp256k1KeyPair) String() string {
	return "secp256k1:" + k.Address().String()
}

func verifySecp256k1(pub, msg, sig []byte) bool {
	if len(sig) != 64 {
		return false
	}
	pubKey, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return false
	}
	// Reject high s so each message has exactly one valid signature.
	if s.IsOverHalfOrder() {
		return false
	}
	hash := sha256.Sum256(msg)
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], pubKey)
}
