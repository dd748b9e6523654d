package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// OwnerKind is the variant of an Owner. The values are the BCS ordinals.
type OwnerKind uint8

const (
	OwnerAddress   OwnerKind = 0
	OwnerObject    OwnerKind = 1
	OwnerShared    OwnerKind = 2
	OwnerImmutable OwnerKind = 3
)

// Owner describes who may mutate an object.
type Owner struct {
	Kind OwnerKind
	// Addr is set for address and object owners.
	Addr AccountAddress
	// InitialSharedVersion is set for shared objects.
	InitialSharedVersion SequenceNumber
}

// AddressOwner returns an owner that is the account addr.
func AddressOwner(addr AccountAddress) Owner {
	return Owner{Kind: OwnerAddress, Addr: addr}
}

// ObjectOwner returns an owner that is the object with the given id.
func ObjectOwner(addr AccountAddress) Owner {
	return Owner{Kind: OwnerObject, Addr: addr}
}

// SharedOwner returns a shared owner first shared at version v.
func SharedOwner(v SequenceNumber) Owner {
	return Owner{Kind: OwnerShared, InitialSharedVersion: v}
}

// ImmutableOwner returns the owner of frozen objects.
func ImmutableOwner() Owner {
	return Owner{Kind: OwnerImmutable}
}

// Address returns the owning address for address and object owners.
func (o Owner) Address() (AccountAddress, bool) {
	if o.Kind == OwnerAddress || o.Kind == OwnerObject {
		return o.Addr, true
	}
	return AccountAddress{}, false
}

func (o Owner) String() string {
	switch o.Kind {
	case OwnerAddress:
		return "Account Address ( " + o.Addr.String() + " )"
	case OwnerObject:
		return "Object ID: ( " + o.Addr.String() + " )"
	case OwnerShared:
		return fmt.Sprintf("Shared( %d )", uint64(o.InitialSharedVersion))
	case OwnerImmutable:
		return "Immutable"
	}
	return "Unknown"
}

type sharedJSON struct {
	InitialSharedVersion SequenceNumber `json:"initial_shared_version"`
}

// MarshalJSON matches the node's externally tagged form.
func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OwnerAddress:
		return json.Marshal(map[string]AccountAddress{"AddressOwner": o.Addr})
	case OwnerObject:
		return json.Marshal(map[string]AccountAddress{"ObjectOwner": o.Addr})
	case OwnerShared:
		return json.Marshal(map[string]sharedJSON{"Shared": {o.InitialSharedVersion}})
	case OwnerImmutable:
		return json.Marshal("Immutable")
	}
	return nil, fmt.Errorf("unknown owner kind %d", o.Kind)
}

// UnmarshalJSON decodes the externally tagged form.
func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "Immutable" {
			return fmt.Errorf("unknown owner %q", s)
		}
		*o = ImmutableOwner()
		return nil
	}
	var raw struct {
		AddressOwner *AccountAddress `json:"AddressOwner"`
		ObjectOwner  *AccountAddress `json:"ObjectOwner"`
		Shared       *sharedJSON     `json:"Shared"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.AddressOwner != nil:
		*o = AddressOwner(*raw.AddressOwner)
	case raw.ObjectOwner != nil:
		*o = ObjectOwner(*raw.ObjectOwner)
	case raw.Shared != nil:
		*o = SharedOwner(raw.Shared.InitialSharedVersion)
	default:
		return errors.New("owner: no known variant")
	}
	return nil
}

func (o Owner) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(uint32(o.Kind))
	switch o.Kind {
	case OwnerAddress, OwnerObject:
		o.Addr.MarshalBCS(e)
	case OwnerShared:
		o.InitialSharedVersion.MarshalBCS(e)
	case OwnerImmutable:
	default:
		e.SetErr(fmt.Errorf("unknown owner kind %d", o.Kind))
	}
}

func (o *Owner) UnmarshalBCS(d *bcs.Decoder) {
	kind := OwnerKind(d.ReadVariant())
	if d.Err() != nil {
		return
	}
	*o = Owner{Kind: kind}
	switch kind {
	case OwnerAddress, OwnerObject:
		o.Addr.UnmarshalBCS(d)
	case OwnerShared:
		o.InitialSharedVersion.UnmarshalBCS(d)
	case OwnerImmutable:
	default:
		d.UnknownVariant("Owner", uint32(kind))
	}
}
