package types

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// ObjectRef pins one exact object version: identity, version and content digest.
type ObjectRef struct {
	ObjectID ObjectID       `json:"objectId"`
	Version  SequenceNumber `json:"version"`
	Digest   ObjectDigest   `json:"digest"`
}

// String returns "id@version:digest".
func (r ObjectRef) String() string {
	return fmt.Sprintf("%s@%d:%s", r.ObjectID, uint64(r.Version), r.Digest)
}

func (r ObjectRef) MarshalBCS(e *bcs.Encoder) {
	r.ObjectID.MarshalBCS(e)
	r.Version.MarshalBCS(e)
	r.Digest.MarshalBCS(e)
}

func (r *ObjectRef) UnmarshalBCS(d *bcs.Decoder) {
	r.ObjectID.UnmarshalBCS(d)
	r.Version.UnmarshalBCS(d)
	r.Digest.UnmarshalBCS(d)
}
