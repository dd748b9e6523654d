// derive_key.go prints the scheme, pubkey and address for a private key file.
// The file holds either a Bech32 "iotaprivkey1..." string or "<scheme>:<hex>".
// Usage: go run scripts/derive_key.go <keyfile>
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	kp, err := parseKey(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer kp.Zero()
	fmt.Printf("scheme=%s\n", kp.Scheme())
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(kp.PublicKey()))
	fmt.Printf("address=%s\n", kp.Address())
}

func parseKey(s string) (crypto.KeyPair, error) {
	if strings.HasPrefix(s, "iotaprivkey1") {
		return crypto.DecodePrivateKey(s)
	}
	name, keyHex, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("expected iotaprivkey1... or <scheme>:<hex>")
	}
	scheme, err := crypto.ParseScheme(name)
	if err != nil {
		return nil, err
	}
	secret, err := hex.DecodeString(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, err
	}
	return crypto.KeyPairFromPrivateKey(scheme, secret)
}
