package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

func fixedKeyPair(t *testing.T, scheme SignatureScheme, fill byte) KeyPair {
	t.Helper()
	secret := bytes.Repeat([]byte{fill}, 32)
	kp, err := KeyPairFromPrivateKey(scheme, secret)
	if err != nil {
		t.Fatalf("KeyPairFromPrivateKey(%s): %v", scheme, err)
	}
	return kp
}

var schemes = []SignatureScheme{Ed25519, Secp256k1}

func TestGenerateKeyPair(t *testing.T) {
	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			k1, err := GenerateKeyPair(scheme)
			if err != nil {
				t.Fatalf("GenerateKeyPair: %v", err)
			}
			k2, err := GenerateKeyPair(scheme)
			if err != nil {
				t.Fatalf("GenerateKeyPair: %v", err)
			}
			if len(k1.PublicKey()) != scheme.PublicKeySize() {
				t.Errorf("public key length = %d, want %d", len(k1.PublicKey()), scheme.PublicKeySize())
			}
			if bytes.Equal(k1.PrivateKey(), k2.PrivateKey()) {
				t.Error("two generated keys should not be identical")
			}

			restored, err := KeyPairFromPrivateKey(scheme, k1.PrivateKey())
			if err != nil {
				t.Fatalf("KeyPairFromPrivateKey: %v", err)
			}
			if restored.Address() != k1.Address() {
				t.Error("restored key should have the same address")
			}
		})
	}
}

func TestKeyPairFromPrivateKey_InvalidLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"too short", make([]byte, 16)},
		{"too long", make([]byte, 64)},
	}
	for _, scheme := range schemes {
		for _, tt := range tests {
			t.Run(scheme.String()+"/"+tt.name, func(t *testing.T) {
				_, err := KeyPairFromPrivateKey(scheme, tt.data)
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("expected ErrInvalidKey, got %v", err)
				}
			})
		}
	}
	if _, err := KeyPairFromPrivateKey(Secp256k1, make([]byte, 32)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("zero secp256k1 key: %v", err)
	}
	if _, err := KeyPairFromPrivateKey(SignatureScheme(9), make([]byte, 32)); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("unknown scheme: %v", err)
	}
}

func TestSign_HelloVerifies(t *testing.T) {
	msg := []byte("hello")
	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			kp := fixedKeyPair(t, scheme, 0x11)
			other := fixedKeyPair(t, scheme, 0x22)

			sig, err := kp.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if want := 1 + 64 + scheme.PublicKeySize(); len(sig) != want {
				t.Errorf("serialized length = %d, want %d", len(sig), want)
			}
			if sig.Scheme() != scheme {
				t.Errorf("flag = %s", sig.Scheme())
			}
			if err := sig.Verify(msg); err != nil {
				t.Errorf("Verify under own key: %v", err)
			}
			err = VerifyWithKey(scheme, other.PublicKey(), msg, sig.SignatureBytes())
			if !errors.Is(err, ErrVerifyFailed) {
				t.Errorf("Verify under other key: %v", err)
			}
			if err := sig.Verify([]byte("hellO")); !errors.Is(err, ErrVerifyFailed) {
				t.Errorf("Verify over mutated message: %v", err)
			}
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	for _, scheme := range schemes {
		kp := fixedKeyPair(t, scheme, 0x33)
		s1, err := kp.Sign([]byte("deterministic"))
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		s2, err := kp.Sign([]byte("deterministic"))
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if !bytes.Equal(s1, s2) {
			t.Errorf("%s signatures differ", scheme)
		}
	}
}

func TestVerify_CorruptedSignature(t *testing.T) {
	for _, scheme := range schemes {
		kp := fixedKeyPair(t, scheme, 0x44)
		sig, err := kp.Sign([]byte("message"))
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		corrupted := make(Signature, len(sig))
		copy(corrupted, sig)
		corrupted[5] ^= 0x01
		if err := corrupted.Verify([]byte("message")); err == nil {
			t.Errorf("%s: corrupted signature should not verify", scheme)
		}
	}
}

func TestSignatureFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidSignature},
		{"unknown flag", append([]byte{0x07}, make([]byte, 96)...), ErrUnsupportedScheme},
		{"ed25519 short", append([]byte{0x00}, make([]byte, 95)...), ErrInvalidSignature},
		{"secp256k1 short", append([]byte{0x01}, make([]byte, 96)...), ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SignatureFromBytes(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignature_JSONAndBCS(t *testing.T) {
	kp := fixedKeyPair(t, Ed25519, 0x55)
	sig, err := kp.Sign([]byte("wire"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var fromJSON Signature
	if err := json.Unmarshal(data, &fromJSON); err != nil || !bytes.Equal(fromJSON, sig) {
		t.Fatalf("json round trip: %v", err)
	}

	raw := bcs.MustMarshal(sig)
	if raw[0] != 97 {
		t.Errorf("bcs length prefix = %d, want 97", raw[0])
	}
	var fromBCS Signature
	if err := bcs.Unmarshal(raw, &fromBCS); err != nil || !bytes.Equal(fromBCS, sig) {
		t.Fatalf("bcs round trip: %v", err)
	}
}

func TestAddressFromPublicKey(t *testing.T) {
	pub := bytes.Repeat([]byte{0xab}, 32)
	ed := AddressFromPublicKey(Ed25519, pub)
	if ed != types.AccountAddress(Blake2b256(pub)) {
		t.Error("ed25519 address should hash the bare key")
	}

	pub33 := append([]byte{0x02}, pub...)
	k1 := AddressFromPublicKey(Secp256k1, pub33)
	if k1 != types.AccountAddress(Blake2b256(append([]byte{0x01}, pub33...))) {
		t.Error("secp256k1 address should hash flag || key")
	}
}

func TestBlake2b256_KnownVector(t *testing.T) {
	d := Blake2b256([]byte("abc"))
	want := "bddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319"
	if hex.EncodeToString(d[:]) != want {
		t.Errorf("Blake2b256(abc) = %x", d[:])
	}
	if Blake2b256Concat([]byte("a"), []byte("bc")) != d {
		t.Error("Blake2b256Concat should match Blake2b256 of the joined input")
	}
}

func TestKeyPair_Zero(t *testing.T) {
	for _, scheme := range schemes {
		kp := fixedKeyPair(t, scheme, 0x66)
		addr := kp.Address()
		pub := kp.PublicKey()
		str := fmt.Sprint(kp)
		kp.Zero()

		if _, err := kp.Sign([]byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("%s: sign after Zero: %v", scheme, err)
		}
		if kp.Address() != addr {
			t.Errorf("%s: address changed after Zero", scheme)
		}
		if !bytes.Equal(kp.PublicKey(), pub) {
			t.Errorf("%s: public key changed after Zero", scheme)
		}
		if fmt.Sprint(kp) != str {
			t.Errorf("%s: String() = %q after Zero, want %q", scheme, fmt.Sprint(kp), str)
		}
		if kp.PrivateKey() != nil {
			t.Errorf("%s: private key should be nil after Zero", scheme)
		}
		if _, err := EncodePrivateKey(kp); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("%s: export after Zero: %v", scheme, err)
		}
		kp.Zero()
	}
}

func TestSecp256k1FromBytes_GroupOrder(t *testing.T) {
	order, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	plusOne, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364142")
	belowOrder, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140")
	allOnes := bytes.Repeat([]byte{0xff}, 32)

	tests := []struct {
		name   string
		secret []byte
		ok     bool
	}{
		{"N", order, false},
		{"N+1", plusOne, false},
		{"max", allOnes, false},
		{"N-1", belowOrder, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := Secp256k1FromBytes(tt.secret)
			if !tt.ok {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("expected ErrInvalidKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Secp256k1FromBytes: %v", err)
			}
			if !bytes.Equal(kp.PrivateKey(), tt.secret) {
				t.Errorf("PrivateKey() = %x, want %x", kp.PrivateKey(), tt.secret)
			}
		})
	}

	payload := append([]byte{Secp256k1.Flag()}, plusOne...)
	encoded, err := bech32Encode(PrivateKeyHRP, payload)
	if err != nil {
		t.Fatalf("bech32Encode: %v", err)
	}
	if _, err := DecodePrivateKey(encoded); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("DecodePrivateKey(N+1): expected ErrInvalidKey, got %v", err)
	}
}
