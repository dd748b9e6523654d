package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stellar/go/tools/stellar-hd-wallet/crypto/derivation"

	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
)

// HardenedOffset marks a hardened child index.
const HardenedOffset uint32 = 0x80000000

// Derivation path fields used by the ledger's wallets.
// Ed25519:   m/44'/4218'/account'/change'/index'
// Secp256k1: m/54'/4218'/account'/change/index
const (
	PurposeEd25519   uint32 = 44
	PurposeSecp256k1 uint32 = 54
	CoinTypeIota     uint32 = 4218
)

// ErrInvalidPath is returned for malformed or scheme-incompatible paths.
var ErrInvalidPath = errors.New("invalid derivation path")

// DerivationPath is a BIP-32 path. Hardened levels carry HardenedOffset.
type DerivationPath []uint32

// Ed25519Path returns m/44'/4218'/account'/0'/index'.
func Ed25519Path(account, index uint32) DerivationPath {
	return DerivationPath{
		PurposeEd25519 | HardenedOffset,
		CoinTypeIota | HardenedOffset,
		account | HardenedOffset,
		HardenedOffset,
		index | HardenedOffset,
	}
}

// Secp256k1Path returns m/54'/4218'/account'/0/index.
func Secp256k1Path(account, index uint32) DerivationPath {
	return DerivationPath{
		PurposeSecp256k1 | HardenedOffset,
		CoinTypeIota | HardenedOffset,
		account | HardenedOffset,
		0,
		index,
	}
}

// DefaultPath returns the standard path of scheme for account and index.
func DefaultPath(scheme crypto.SignatureScheme, account, index uint32) (DerivationPath, error) {
	switch scheme {
	case crypto.Ed25519:
		return Ed25519Path(account, index), nil
	case crypto.Secp256k1:
		return Secp256k1Path(account, index), nil
	}
	return nil, fmt.Errorf("%w: no default path for %s", ErrInvalidPath, scheme)
}

// ParseDerivationPath parses "m/44'/4218'/0'/0'/0'". Hardened levels may be
// marked with ' or h.
func ParseDerivationPath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	path := make(DerivationPath, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		if hardened {
			p = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || uint32(n) >= HardenedOffset {
			return nil, fmt.Errorf("%w: bad level %q in %q", ErrInvalidPath, p, s)
		}
		idx := uint32(n)
		if hardened {
			idx |= HardenedOffset
		}
		path = append(path, idx)
	}
	return path, nil
}

func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, idx := range p {
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatUint(uint64(idx&^HardenedOffset), 10))
		if idx&HardenedOffset != 0 {
			sb.WriteByte('\'')
		}
	}
	return sb.String()
}

// Account returns the account level, or 0 for short paths.
func (p DerivationPath) Account() uint32 {
	if len(p) < 3 {
		return 0
	}
	return p[2] &^ HardenedOffset
}

// Index returns the address index level, or 0 for short paths.
func (p DerivationPath) Index() uint32 {
	if len(p) < 5 {
		return 0
	}
	return p[4] &^ HardenedOffset
}

// ValidateFor checks that p is a five-level path of the form scheme's
// wallets use.
func (p DerivationPath) ValidateFor(scheme crypto.SignatureScheme) error {
	if len(p) != 5 {
		return fmt.Errorf("%w: %s has %d levels, want 5", ErrInvalidPath, p, len(p))
	}
	if p[1] != CoinTypeIota|HardenedOffset {
		return fmt.Errorf("%w: %s: coin type must be %d'", ErrInvalidPath, p, CoinTypeIota)
	}
	if p[2]&HardenedOffset == 0 {
		return fmt.Errorf("%w: %s: account must be hardened", ErrInvalidPath, p)
	}
	switch scheme {
	case crypto.Ed25519:
		if p[0] != PurposeEd25519|HardenedOffset {
			return fmt.Errorf("%w: %s: ed25519 purpose must be %d'", ErrInvalidPath, p, PurposeEd25519)
		}
		if p[3]&HardenedOffset == 0 || p[4]&HardenedOffset == 0 {
			return fmt.Errorf("%w: %s: ed25519 levels must all be hardened", ErrInvalidPath, p)
		}
	case crypto.Secp256k1:
		if p[0] != PurposeSecp256k1|HardenedOffset {
			return fmt.Errorf("%w: %s: secp256k1 purpose must be %d'", ErrInvalidPath, p, PurposeSecp256k1)
		}
		if p[3]&HardenedOffset != 0 || p[4]&HardenedOffset != 0 {
			return fmt.Errorf("%w: %s: secp256k1 change and index must not be hardened", ErrInvalidPath, p)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %s", ErrInvalidPath, scheme)
	}
	return nil
}

// DeriveKeyPair derives the key of scheme at path from a BIP-39 seed.
func DeriveKeyPair(seed []byte, scheme crypto.SignatureScheme, path DerivationPath) (crypto.KeyPair, error) {
	if err := path.ValidateFor(scheme); err != nil {
		return nil, err
	}
	switch scheme {
	case crypto.Ed25519:
		key, _, err := deriveEd25519(seed, path)
		if err != nil {
			return nil, err
		}
		defer zero(key)
		return crypto.Ed25519FromSeed(key)
	case crypto.Secp256k1:
		master, err := NewMasterKey(seed)
		if err != nil {
			return nil, err
		}
		child, err := master.DerivePath(path...)
		if err != nil {
			return nil, err
		}
		return child.KeyPair()
	}
	return nil, fmt.Errorf("%w: unsupported scheme %s", ErrInvalidPath, scheme)
}

// deriveEd25519 walks path with SLIP-10 for ed25519 and returns the private
// key and chain code. Every level must be hardened.
func deriveEd25519(seed []byte, path DerivationPath) (key, chain []byte, err error) {
	for _, idx := range path {
		if idx&HardenedOffset == 0 {
			return nil, nil, fmt.Errorf("%w: ed25519 cannot derive non-hardened index %d", ErrInvalidPath, idx)
		}
	}

	node, err := derivation.NewMasterKey(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("slip10 master key: %w", err)
	}
	for _, idx := range path {
		next, err := node.Derive(idx)
		zero(node.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("slip10 derive %d: %w", idx&^HardenedOffset, err)
		}
		node = next
	}
	return node.Key, node.ChainCode, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
