// Package crypto provides hashing, key pairs and signatures for the IOTA
// Rebased network.
package crypto

import (
	"golang.org/x/crypto/blake2b"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Blake2b256 computes the 256-bit BLAKE2b hash used throughout the ledger.
func Blake2b256(data []byte) types.Digest {
	return blake2b.Sum256(data)
}

// Blake2b256Concat hashes the concatenation of parts without copying them
// into one buffer first.
func Blake2b256Concat(parts ...[]byte) types.Digest {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var d types.Digest
	copy(d[:], h.Sum(nil))
	return d
}
