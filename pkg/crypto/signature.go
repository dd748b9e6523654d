package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

const rawSignatureSize = 64

// Signature is the serialized form flag || signature || public key that the
// network accepts. Its text form is Base64.
type Signature []byte

func newSignature(scheme SignatureScheme, sig, pub []byte) Signature {
	out := make(Signature, 0, 1+len(sig)+len(pub))
	out = append(out, scheme.Flag())
	out = append(out, sig...)
	return append(out, pub...)
}

// ParseSignature decodes and validates a Base64 serialized signature.
func ParseSignature(s string) (Signature, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrInvalidSignature, err)
	}
	return SignatureFromBytes(b)
}

// SignatureFromBytes validates the serialized layout and copies it.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	scheme := SignatureScheme(b[0])
	pkLen := scheme.PublicKeySize()
	if pkLen == 0 {
		return nil, fmt.Errorf("%w: flag 0x%02x", ErrUnsupportedScheme, b[0])
	}
	if want := 1 + rawSignatureSize + pkLen; len(b) != want {
		return nil, fmt.Errorf("%w: %s signature must be %d bytes, got %d", ErrInvalidSignature, scheme, want, len(b))
	}
	sig := make(Signature, len(b))
	copy(sig, b)
	return sig, nil
}

// Scheme returns the scheme named by the flag byte.
func (s Signature) Scheme() SignatureScheme {
	if len(s) == 0 {
		return 0
	}
	return SignatureScheme(s[0])
}

// SignatureBytes returns the raw 64-byte signature.
func (s Signature) SignatureBytes() []byte {
	if len(s) < 1+rawSignatureSize {
		return nil
	}
	return s[1 : 1+rawSignatureSize]
}

// PublicKey returns the embedded public key.
func (s Signature) PublicKey() []byte {
	if len(s) < 1+rawSignatureSize {
		return nil
	}
	return s[1+rawSignatureSize:]
}

// SignerAddress returns the address of the embedded public key.
func (s Signature) SignerAddress() types.AccountAddress {
	return AddressFromPublicKey(s.Scheme(), s.PublicKey())
}

// Verify checks the signature over msg against the embedded public key.
func (s Signature) Verify(msg []byte) error {
	if _, err := SignatureFromBytes(s); err != nil {
		return err
	}
	return VerifyWithKey(s.Scheme(), s.PublicKey(), msg, s.SignatureBytes())
}

// VerifyWithKey checks a raw signature against an explicit public key.
func VerifyWithKey(scheme SignatureScheme, pub, msg, sig []byte) error {
	var ok bool
	switch scheme {
	case Ed25519:
		ok = verifyEd25519(pub, msg, sig)
	case Secp256k1:
		ok = verifySecp256k1(pub, msg, sig)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	if !ok {
		return ErrVerifyFailed
	}
	return nil
}

// String returns the Base64 form.
func (s Signature) String() string {
	return base64.StdEncoding.EncodeToString(s)
}

// MarshalJSON encodes the signature as Base64.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a Base64 signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSignature(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalBCS writes the serialized signature as a byte vector.
func (s Signature) MarshalBCS(e *bcs.Encoder) {
	e.WriteBytes(s)
}

// UnmarshalBCS reads and validates a byte vector.
func (s *Signature) UnmarshalBCS(d *bcs.Decoder) {
	b := d.ReadBytes()
	if d.Err() != nil {
		return
	}
	sig, err := SignatureFromBytes(b)
	if err != nil {
		d.SetErr(err)
		return
	}
	*s = sig
}
