package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

func TestIntent_Bytes(t *testing.T) {
	if got := IotaTransactionIntent().Bytes(); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Errorf("transaction intent = %v", got)
	}
	if got := PersonalMessageIntent().Bytes(); !bytes.Equal(got, []byte{3, 0, 0}) {
		t.Errorf("personal message intent = %v", got)
	}
}

func TestIntentMessage_Encoding(t *testing.T) {
	msg := NewIntentMessage(IotaTransactionIntent(), bcs.String("pay"))
	raw := bcs.MustMarshal(msg)
	want := []byte{0, 0, 0, 3, 'p', 'a', 'y'}
	if !bytes.Equal(raw, want) {
		t.Fatalf("bcs = %x, want %x", raw, want)
	}
	digest, err := msg.SigningDigest()
	if err != nil {
		t.Fatalf("SigningDigest: %v", err)
	}
	if digest != Blake2b256(want) {
		t.Error("signing digest should be Blake2b256 of the encoded intent message")
	}
}

func TestSignSecure(t *testing.T) {
	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			kp := fixedKeyPair(t, scheme, 0x21)
			value := bcs.U64(1000)

			sig, err := SignSecure(kp, value, IotaTransactionIntent())
			if err != nil {
				t.Fatalf("SignSecure: %v", err)
			}
			if err := VerifySecure(sig, value, IotaTransactionIntent()); err != nil {
				t.Errorf("VerifySecure: %v", err)
			}
			if err := VerifySecure(sig, value, PersonalMessageIntent()); !errors.Is(err, ErrVerifyFailed) {
				t.Errorf("signature should not verify under a different intent: %v", err)
			}
			if err := VerifySecure(sig, bcs.U64(1001), IotaTransactionIntent()); !errors.Is(err, ErrVerifyFailed) {
				t.Errorf("signature should not verify over a different value: %v", err)
			}
			if sig.SignerAddress() != kp.Address() {
				t.Error("signer address should match the key pair")
			}
		})
	}
}

func TestPrivateKey_Bech32RoundTrip(t *testing.T) {
	for _, scheme := range schemes {
		t.Run(scheme.String(), func(t *testing.T) {
			kp := fixedKeyPair(t, scheme, 0x42)
			encoded, err := EncodePrivateKey(kp)
			if err != nil {
				t.Fatalf("EncodePrivateKey: %v", err)
			}
			if !strings.HasPrefix(encoded, PrivateKeyHRP+"1") {
				t.Errorf("encoded = %s", encoded)
			}
			back, err := DecodePrivateKey(encoded)
			if err != nil {
				t.Fatalf("DecodePrivateKey: %v", err)
			}
			if back.Scheme() != scheme || back.Address() != kp.Address() {
				t.Errorf("decoded %s %s, want %s %s", back.Scheme(), back.Address(), scheme, kp.Address())
			}
			upper, err := DecodePrivateKey(strings.ToUpper(encoded))
			if err != nil || upper.Address() != kp.Address() {
				t.Errorf("upper-case decode: %v", err)
			}
		})
	}
}

func TestDecodePrivateKey_Rejects(t *testing.T) {
	kp := fixedKeyPair(t, Ed25519, 0x42)
	encoded, err := EncodePrivateKey(kp)
	if err != nil {
		t.Fatalf("EncodePrivateKey: %v", err)
	}
	last := encoded[len(encoded)-1]
	swap := byte('q')
	if last == 'q' {
		swap = 'p'
	}
	wrongPrefix, err := bech32Encode("iotapubkey", append([]byte{0}, kp.PrivateKey()...))
	if err != nil {
		t.Fatalf("bech32Encode: %v", err)
	}
	tests := []struct {
		name  string
		input string
	}{
		{"bad checksum", encoded[:len(encoded)-1] + string(swap)},
		{"mixed case", strings.ToUpper(encoded[:5]) + encoded[5:]},
		{"wrong prefix", wrongPrefix},
		{"no separator", "iotaprivkey"},
		{"invalid char", encoded[:20] + "b" + encoded[21:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePrivateKey(tt.input); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}
