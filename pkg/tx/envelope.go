package tx

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Envelope errors.
var (
	ErrNoSignatures  = errors.New("transaction has no signatures")
	ErrSenderNotSign = errors.New("sender did not sign the transaction")
	ErrInvalidIntent = errors.New("invalid intent for transaction")
)

// SenderSignedTransaction is transaction data under its intent together
// with the signatures authorising it.
type SenderSignedTransaction struct {
	IntentMessage crypto.IntentMessage[TransactionData]
	Signatures    []crypto.Signature
}

func (s SenderSignedTransaction) MarshalBCS(e *bcs.Encoder) {
	if s.IntentMessage.Intent != crypto.IotaTransactionIntent() {
		e.SetErr(ErrInvalidIntent)
		return
	}
	s.IntentMessage.MarshalBCS(e)
	bcs.WriteSeq(e, s.Signatures)
}

func (s *SenderSignedTransaction) UnmarshalBCS(d *bcs.Decoder) {
	s.IntentMessage.Intent.UnmarshalBCS(d)
	if d.Err() == nil && s.IntentMessage.Intent != crypto.IotaTransactionIntent() {
		d.SetErr(ErrInvalidIntent)
		return
	}
	s.IntentMessage.Value.UnmarshalBCS(d)
	s.Signatures = bcs.ReadSeq[crypto.Signature](d)
}

// SenderSignedData always holds exactly one signed transaction.
type SenderSignedData struct {
	inner types.SizeOneVec[SenderSignedTransaction]
}

func (s SenderSignedData) Inner() SenderSignedTransaction { return s.inner.Element() }

func (s SenderSignedData) MarshalBCS(e *bcs.Encoder) {
	types.WriteSizeOneVec(e, s.inner)
}

func (s *SenderSignedData) UnmarshalBCS(d *bcs.Decoder) {
	s.inner = types.ReadSizeOneVec[SenderSignedTransaction](d)
}

// Transaction is a signed transaction ready for submission.
type Transaction struct {
	data SenderSignedData
}

// FromData wraps data, signed under the transaction intent, with sigs.
func FromData(data TransactionData, sigs []crypto.Signature) Transaction {
	return Transaction{data: SenderSignedData{inner: types.NewSizeOneVec(SenderSignedTransaction{
		IntentMessage: crypto.NewIntentMessage(crypto.IotaTransactionIntent(), data),
		Signatures:    sigs,
	})}}
}

// Sign signs data with each key pair in order and returns the envelope.
func Sign(data TransactionData, signers ...crypto.KeyPair) (Transaction, error) {
	sigs := make([]crypto.Signature, 0, len(signers))
	for _, kp := range signers {
		sig, err := crypto.SignSecure(kp, data, crypto.IotaTransactionIntent())
		if err != nil {
			return Transaction{}, fmt.Errorf("sign as %s: %w", kp.Address(), err)
		}
		sigs = append(sigs, sig)
	}
	return FromData(data, sigs), nil
}

// Data returns the signed transaction data.
func (t Transaction) Data() TransactionData {
	return t.data.Inner().IntentMessage.Value
}

// Signatures returns the attached signatures.
func (t Transaction) Signatures() []crypto.Signature {
	return t.data.Inner().Signatures
}

// SenderSignedData returns the envelope.
func (t Transaction) SenderSignedData() SenderSignedData { return t.data }

// Digest is the digest of the transaction data; signatures do not change it.
func (t Transaction) Digest() (types.TransactionDigest, error) {
	return t.Data().Digest()
}

// VerifySignatures checks every signature against the data and requires
// one of them to come from the sender.
func (t Transaction) VerifySignatures() error {
	sigs := t.Signatures()
	if len(sigs) == 0 {
		return ErrNoSignatures
	}
	inner := t.data.Inner()
	senderSigned := false
	for i, sig := range sigs {
		if err := crypto.VerifySecure(sig, inner.IntentMessage.Value, inner.IntentMessage.Intent); err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		if sig.SignerAddress() == inner.IntentMessage.Value.Sender() {
			senderSigned = true
		}
	}
	if !senderSigned {
		return ErrSenderNotSign
	}
	return nil
}

// ToTxBytesAndSignatures returns the Base64 transaction bytes and Base64
// signatures in the form executeTransactionBlock expects.
func (t Transaction) ToTxBytesAndSignatures() (string, []string, error) {
	raw, err := t.Data().Bytes()
	if err != nil {
		return "", nil, fmt.Errorf("encode transaction data: %w", err)
	}
	sigs := t.Signatures()
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = s.String()
	}
	return base64.StdEncoding.EncodeToString(raw), out, nil
}
