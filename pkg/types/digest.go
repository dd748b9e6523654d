package types

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/mr-tron/base58"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// DigestSize is the length of a content digest in bytes.
const DigestSize = 32

// Digest is a 32-byte content hash. Its text form is standard Base64.
type Digest [DigestSize]byte

// DigestFromBytes copies b into a digest. b must be exactly 32 bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, parseErr(ErrInvalidDigest, base64.StdEncoding.EncodeToString(b), "digest must be %d bytes, got %d", DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// ParseDigest decodes the Base64 form.
func ParseDigest(s string) (Digest, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Digest{}, parseErr(ErrInvalidDigest, s, "invalid base64: %v", err)
	}
	if len(b) != DigestSize {
		return Digest{}, parseErr(ErrInvalidDigest, s, "digest must be %d bytes, got %d", DigestSize, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// RandomDigest returns a digest filled from crypto/rand.
func RandomDigest() Digest {
	var d Digest
	if _, err := rand.Read(d[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return d
}

// IsZero returns true if the digest is all zeros.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Bytes returns a copy of the digest bytes.
func (d Digest) Bytes() []byte {
	b := make([]byte, DigestSize)
	copy(b, d[:])
	return b
}

// String returns the Base64 form.
func (d Digest) String() string {
	return base64.StdEncoding.EncodeToString(d[:])
}

// Base58 returns the Base58 form used by transaction and object endpoints.
func (d Digest) Base58() string {
	return base58.Encode(d[:])
}

// Compare orders digests byte-wise.
func (d Digest) Compare(other Digest) int {
	return bytes.Compare(d[:], other[:])
}

// NextLexicographical returns the digest that follows d when read as a
// big-endian integer. It returns false if d is all 0xff.
func (d Digest) NextLexicographical() (Digest, bool) {
	next := d
	for i := DigestSize - 1; i >= 0; i-- {
		if next[i] != 0xff {
			next[i]++
			return next, true
		}
		next[i] = 0
	}
	return Digest{}, false
}

// MarshalJSON encodes the digest as Base64.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a Base64 digest.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalBCS writes the digest as a length-prefixed byte vector.
func (d Digest) MarshalBCS(e *bcs.Encoder) {
	e.WriteBytes(d[:])
}

// UnmarshalBCS reads a length-prefixed byte vector of exactly 32 bytes.
func (d *Digest) UnmarshalBCS(dec *bcs.Decoder) {
	b := dec.ReadBytes()
	if dec.Err() != nil {
		return
	}
	if len(b) != DigestSize {
		dec.SetErr(parseErr(ErrInvalidDigest, base64.StdEncoding.EncodeToString(b), "digest must be %d bytes, got %d", DigestSize, len(b)))
		return
	}
	copy(d[:], b)
}

func parseBase58Digest(s string) (Digest, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Digest{}, parseErr(ErrInvalidDigest, s, "invalid base58: %v", err)
	}
	if len(b) != DigestSize {
		return Digest{}, parseErr(ErrInvalidDigest, s, "digest must be %d bytes, got %d", DigestSize, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

func unmarshalBase58Digest(data []byte) (Digest, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Digest{}, err
	}
	return parseBase58Digest(s)
}

// TransactionDigest identifies a transaction. Text form is Base58.
type TransactionDigest Digest

// ParseTransactionDigest decodes a Base58 transaction digest.
func ParseTransactionDigest(s string) (TransactionDigest, error) {
	d, err := parseBase58Digest(s)
	return TransactionDigest(d), err
}

func (d TransactionDigest) Inner() Digest  { return Digest(d) }
func (d TransactionDigest) String() string { return Digest(d).Base58() }

func (d TransactionDigest) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *TransactionDigest) UnmarshalJSON(data []byte) error {
	v, err := unmarshalBase58Digest(data)
	if err != nil {
		return err
	}
	*d = TransactionDigest(v)
	return nil
}

func (d TransactionDigest) MarshalBCS(e *bcs.Encoder)      { Digest(d).MarshalBCS(e) }
func (d *TransactionDigest) UnmarshalBCS(dec *bcs.Decoder) { (*Digest)(d).UnmarshalBCS(dec) }

// ObjectDigest is the content hash of one object version. Text form is Base58.
type ObjectDigest Digest

// ParseObjectDigest decodes a Base58 object digest.
func ParseObjectDigest(s string) (ObjectDigest, error) {
	d, err := parseBase58Digest(s)
	return ObjectDigest(d), err
}

func (d ObjectDigest) Inner() Digest  { return Digest(d) }
func (d ObjectDigest) String() string { return Digest(d).Base58() }

func (d ObjectDigest) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *ObjectDigest) UnmarshalJSON(data []byte) error {
	v, err := unmarshalBase58Digest(data)
	if err != nil {
		return err
	}
	*d = ObjectDigest(v)
	return nil
}

func (d ObjectDigest) MarshalBCS(e *bcs.Encoder)      { Digest(d).MarshalBCS(e) }
func (d *ObjectDigest) UnmarshalBCS(dec *bcs.Decoder) { (*Digest)(d).UnmarshalBCS(dec) }

// CheckpointDigest identifies a checkpoint summary. Text form is Base58.
type CheckpointDigest Digest

// ParseCheckpointDigest decodes a Base58 checkpoint digest.
func ParseCheckpointDigest(s string) (CheckpointDigest, error) {
	d, err := parseBase58Digest(s)
	return CheckpointDigest(d), err
}

func (d CheckpointDigest) Inner() Digest  { return Digest(d) }
func (d CheckpointDigest) String() string { return Digest(d).Base58() }

func (d CheckpointDigest) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *CheckpointDigest) UnmarshalJSON(data []byte) error {
	v, err := unmarshalBase58Digest(data)
	if err != nil {
		return err
	}
	*d = CheckpointDigest(v)
	return nil
}

// TransactionEventsDigest is the hash of a transaction's emitted events.
type TransactionEventsDigest Digest

func (d TransactionEventsDigest) Inner() Digest  { return Digest(d) }
func (d TransactionEventsDigest) String() string { return Digest(d).Base58() }

func (d TransactionEventsDigest) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *TransactionEventsDigest) UnmarshalJSON(data []byte) error {
	v, err := unmarshalBase58Digest(data)
	if err != nil {
		return err
	}
	*d = TransactionEventsDigest(v)
	return nil
}
