package crypto

import (
	"errors"
	"fmt"
	"strings"
)

// PrivateKeyHRP is the human-readable prefix of exported private keys.
const PrivateKeyHRP = "iotaprivkey"

const bech32Alphabet = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32Values [128]int8

func init() {
	for i := range bech32Values {
		bech32Values[i] = -1
	}
	for i, c := range bech32Alphabet {
		bech32Values[c] = int8(i)
	}
}

var errBech32 = errors.New("bech32")

// EncodePrivateKey exports kp as Bech32 "iotaprivkey1..." over
// flag || secret, the format other IOTA wallets import.
func EncodePrivateKey(kp KeyPair) (string, error) {
	secret := kp.PrivateKey()
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: key has been zeroed", ErrInvalidKey)
	}
	defer zeroBytes(secret)
	payload := append([]byte{kp.Scheme().Flag()}, secret...)
	defer zeroBytes(payload)
	return bech32Encode(PrivateKeyHRP, payload)
}

// DecodePrivateKey imports a key pair exported by EncodePrivateKey.
func DecodePrivateKey(s string) (KeyPair, error) {
	hrp, payload, err := bech32Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer zeroBytes(payload)
	if hrp != PrivateKeyHRP {
		return nil, fmt.Errorf("%w: prefix %q, want %q", ErrInvalidKey, hrp, PrivateKeyHRP)
	}
	if len(payload) != 33 {
		return nil, fmt.Errorf("%w: payload must be 33 bytes, got %d", ErrInvalidKey, len(payload))
	}
	return KeyPairFromPrivateKey(SignatureScheme(payload[0]), payload[1:])
}

func bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("%w: empty prefix", errBech32)
	}
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", fmt.Errorf("%w: invalid prefix character %q", errBech32, c)
		}
	}
	groups, err := regroupBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := bech32Checksum(hrp, groups)

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups) + len(checksum))
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, g := range groups {
		sb.WriteByte(bech32Alphabet[g])
	}
	for _, g := range checksum {
		sb.WriteByte(bech32Alphabet[g])
	}
	return sb.String(), nil
}

func bech32Decode(s string) (string, []byte, error) {
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return "", nil, fmt.Errorf("%w: mixed case", errBech32)
	}
	s = strings.ToLower(s)

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return "", nil, fmt.Errorf("%w: missing separator or too short", errBech32)
	}
	hrp, body := s[:sep], s[sep+1:]

	groups := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= 128 || bech32Values[c] < 0 {
			return "", nil, fmt.Errorf("%w: invalid character %q", errBech32, c)
		}
		groups[i] = byte(bech32Values[c])
	}
	if bech32Polymod(append(expandPrefix(hrp), groups...)) != 1 {
		return "", nil, fmt.Errorf("%w: invalid checksum", errBech32)
	}
	data, err := regroupBits(groups[:len(groups)-6], 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, data, nil
}

func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range gen {
			if (top>>uint(i))&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

func expandPrefix(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32Checksum(hrp string, groups []byte) []byte {
	values := append(expandPrefix(hrp), groups...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := bech32Polymod(values) ^ 1
	out := make([]byte, 6)
	for i := range out {
		out[i] = byte(mod>>uint(5*(5-i))) & 31
	}
	return out
}

// regroupBits converts between bit group sizes, as in BIP-173.
func regroupBits(data []byte, from, to uint, pad bool) ([]byte, error) {
	var (
		acc  uint32
		bits uint
		out  []byte
	)
	maxv := uint32(1)<<to - 1
	for _, b := range data {
		if uint32(b)>>from != 0 {
			return nil, fmt.Errorf("%w: invalid data byte %d", errBech32, b)
		}
		acc = acc<<from | uint32(b)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	switch {
	case pad && bits > 0:
		out = append(out, byte(acc<<(to-bits)&maxv))
	case !pad && (bits >= from || acc<<(to-bits)&maxv != 0):
		return nil, fmt.Errorf("%w: non-zero padding", errBech32)
	}
	return out, nil
}
