package wallet

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// ErrKeyNotFound is returned when no key is registered for an address.
var ErrKeyNotFound = errors.New("key not found")

// Keystore holds the key pairs of an unlocked wallet, keyed by address.
// Imports take the write lock; signing shares the read lock.
type Keystore struct {
	mu   sync.RWMutex
	keys map[types.AccountAddress]crypto.KeyPair
}

// NewKeystore returns an empty registry.
func NewKeystore() *Keystore {
	return &Keystore{keys: make(map[types.AccountAddress]crypto.KeyPair)}
}

// ImportFromMnemonic derives the key of scheme at path and registers it.
func (ks *Keystore) ImportFromMnemonic(mnemonic, passphrase string, scheme crypto.SignatureScheme, path DerivationPath) (types.AccountAddress, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return types.AccountAddress{}, err
	}
	defer zero(seed)

	kp, err := DeriveKeyPair(seed, scheme, path)
	if err != nil {
		return types.AccountAddress{}, fmt.Errorf("derive %s: %w", path, err)
	}
	return ks.Add(kp), nil
}

// Add registers kp and returns its address. A key already registered for
// the address is replaced and wiped.
func (ks *Keystore) Add(kp crypto.KeyPair) types.AccountAddress {
	addr := kp.Address()
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if old, ok := ks.keys[addr]; ok && old != kp {
		old.Zero()
	}
	ks.keys[addr] = kp
	return addr
}

// Addresses returns the registered addresses in ascending order.
func (ks *Keystore) Addresses() []types.AccountAddress {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	out := make([]types.AccountAddress, 0, len(ks.keys))
	for a := range ks.keys {
		out = append(out, a)
	}
	slices.SortFunc(out, types.AccountAddress.Compare)
	return out
}

// Len returns the number of registered keys.
func (ks *Keystore) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}

// Get returns the key pair of addr.
func (ks *Keystore) Get(addr types.AccountAddress) (crypto.KeyPair, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	kp, ok := ks.keys[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
	}
	return kp, nil
}

// SignSecure signs value under intent with the key of addr.
func (ks *Keystore) SignSecure(addr types.AccountAddress, value bcs.Marshaler, intent crypto.Intent) (crypto.Signature, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	kp, ok := ks.keys[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
	}
	return crypto.SignSecure(kp, value, intent)
}

// Remove wipes and drops the key of addr.
func (ks *Keystore) Remove(addr types.AccountAddress) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	kp, ok := ks.keys[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
	}
	kp.Zero()
	delete(ks.keys, addr)
	return nil
}

// Clear wipes every key. The registry stays usable.
func (ks *Keystore) Clear() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	for addr, kp := range ks.keys {
		kp.Zero()
		delete(ks.keys, addr)
	}
}
