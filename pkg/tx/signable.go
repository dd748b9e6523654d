package tx

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Signable is a value whose digest is Blake2b256(name + "::" + bcs(value)).
// The set is closed: only TransactionData and TransactionEvents implement it.
type Signable interface {
	bcs.Marshaler
	signableName() string
}

// Digest hashes a signable value with its type-name domain separator.
func Digest(v Signable) (types.Digest, error) {
	raw, err := bcs.Marshal(v)
	if err != nil {
		return types.Digest{}, fmt.Errorf("encode %s: %w", v.signableName(), err)
	}
	return crypto.Blake2b256Concat([]byte(v.signableName()+"::"), raw), nil
}
