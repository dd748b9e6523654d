package crypto

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// IntentScope says what kind of message is being signed.
type IntentScope uint8

const (
	ScopeTransactionData    IntentScope = 0
	ScopeTransactionEffects IntentScope = 1
	ScopeCheckpointSummary  IntentScope = 2
	ScopePersonalMessage    IntentScope = 3
)

// IntentVersion is the intent format version.
type IntentVersion uint8

const IntentV0 IntentVersion = 0

// AppID names the application domain of the intent.
type AppID uint8

const (
	AppIota      AppID = 0
	AppNarwhal   AppID = 1
	AppConsensus AppID = 2
)

// Intent is the three-byte domain separator prepended to every signed message.
type Intent struct {
	Scope   IntentScope
	Version IntentVersion
	AppID   AppID
}

// IotaTransactionIntent is the intent for user transactions, [0, 0, 0].
func IotaTransactionIntent() Intent {
	return Intent{Scope: ScopeTransactionData, Version: IntentV0, AppID: AppIota}
}

// PersonalMessageIntent is the intent for signing arbitrary user messages.
func PersonalMessageIntent() Intent {
	return Intent{Scope: ScopePersonalMessage, Version: IntentV0, AppID: AppIota}
}

// Bytes returns the three-byte encoding.
func (i Intent) Bytes() []byte {
	return []byte{byte(i.Scope), byte(i.Version), byte(i.AppID)}
}

func (i Intent) MarshalBCS(e *bcs.Encoder) {
	e.WriteU8(uint8(i.Scope))
	e.WriteU8(uint8(i.Version))
	e.WriteU8(uint8(i.AppID))
}

func (i *Intent) UnmarshalBCS(d *bcs.Decoder) {
	i.Scope = IntentScope(d.ReadU8())
	i.Version = IntentVersion(d.ReadU8())
	i.AppID = AppID(d.ReadU8())
}

// IntentMessage pairs a value with the intent it is signed under.
type IntentMessage[T bcs.Marshaler] struct {
	Intent Intent
	Value  T
}

// NewIntentMessage wraps value.
func NewIntentMessage[T bcs.Marshaler](intent Intent, value T) IntentMessage[T] {
	return IntentMessage[T]{Intent: intent, Value: value}
}

func (m IntentMessage[T]) MarshalBCS(e *bcs.Encoder) {
	m.Intent.MarshalBCS(e)
	m.Value.MarshalBCS(e)
}

// SigningDigest returns Blake2b256(bcs(intent message)), the bytes that are
// actually signed.
func (m IntentMessage[T]) SigningDigest() ([32]byte, error) {
	raw, err := bcs.Marshal(m)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode intent message: %w", err)
	}
	return Blake2b256(raw), nil
}

// SignSecure signs value under intent with kp.
func SignSecure[T bcs.Marshaler](kp KeyPair, value T, intent Intent) (Signature, error) {
	digest, err := NewIntentMessage(intent, value).SigningDigest()
	if err != nil {
		return nil, err
	}
	return kp.Sign(digest[:])
}

// VerifySecure checks a serialized signature over value under intent.
func VerifySecure[T bcs.Marshaler](sig Signature, value T, intent Intent) error {
	digest, err := NewIntentMessage(intent, value).SigningDigest()
	if err != nil {
		return err
	}
	return sig.Verify(digest[:])
}
