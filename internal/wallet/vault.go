package wallet

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Klingon-tech/rebased-wallet/internal/storage"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
)

// Vault errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidName    = errors.New("invalid wallet name")
)

const vaultVersion = 1

var walletName = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Key layout inside the vault keyspace:
//
//	w/<name>                      vaultRecord
//	a/<name>/<account BE32><index BE32>  AccountEntry
const (
	recordPrefix  = "w/"
	accountPrefix = "a/"
)

type vaultRecord struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Scheme    string    `json:"scheme"`
	Sealed    []byte    `json:"sealed_mnemonic"`
}

// AccountEntry records an address derived from a stored wallet.
type AccountEntry struct {
	Account uint32 `json:"account"`
	Index   uint32 `json:"index"`
	Path    string `json:"path"`
	Address string `json:"address"`
}

// WalletInfo describes a stored wallet without unsealing it.
type WalletInfo struct {
	Name      string
	Scheme    crypto.SignatureScheme
	CreatedAt time.Time
}

// Vault stores password-sealed mnemonics in a key-value store.
type Vault struct {
	db     *storage.PrefixDB
	params EncryptionParams
}

// NewVault returns a vault inside db's vault keyspace.
func NewVault(db storage.DB, params EncryptionParams) *Vault {
	return &Vault{db: storage.VaultKeyspace(db), params: params}
}

func recordKey(name string) []byte { return []byte(recordPrefix + name) }

func accountsKey(name string) []byte { return []byte(accountPrefix + name + "/") }

func accountKey(name string, account, index uint32) []byte {
	k := accountsKey(name)
	k = binary.BigEndian.AppendUint32(k, account)
	return binary.BigEndian.AppendUint32(k, index)
}

// Create seals mnemonic under password and stores it as name.
func (v *Vault) Create(name, mnemonic string, password []byte, scheme crypto.SignatureScheme) error {
	if !walletName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	mnemonic = NormalizeMnemonic(mnemonic)
	if !ValidateMnemonic(mnemonic) {
		return ErrInvalidMnemonic
	}
	if _, err := DefaultPath(scheme, 0, 0); err != nil {
		return err
	}
	exists, err := v.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	sealed, err := Encrypt([]byte(mnemonic), password, []byte(name), v.params)
	if err != nil {
		return fmt.Errorf("seal mnemonic: %w", err)
	}
	return v.putRecord(name, &vaultRecord{
		Version:   vaultVersion,
		CreatedAt: time.Now().UTC(),
		Scheme:    scheme.String(),
		Sealed:    sealed,
	})
}

// Exists reports whether name is stored.
func (v *Vault) Exists(name string) (bool, error) {
	return v.db.Has(recordKey(name))
}

// Info returns the metadata of name.
func (v *Vault) Info(name string) (*WalletInfo, error) {
	rec, err := v.getRecord(name)
	if err != nil {
		return nil, err
	}
	scheme, err := crypto.ParseScheme(rec.Scheme)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w", name, err)
	}
	return &WalletInfo{Name: name, Scheme: scheme, CreatedAt: rec.CreatedAt}, nil
}

// Load unseals and returns the mnemonic of name.
func (v *Vault) Load(name string, password []byte) (string, error) {
	rec, err := v.getRecord(name)
	if err != nil {
		return "", err
	}
	plain, err := Decrypt(rec.Sealed, password, []byte(name))
	if err != nil {
		return "", fmt.Errorf("unseal wallet %q: %w", name, err)
	}
	defer zero(plain)
	return string(plain), nil
}

// Unlock unseals name, derives the key at account/index on the wallet's
// default path and returns a registry holding it. The derived address is
// recorded with AddAccount.
func (v *Vault) Unlock(name string, password []byte, account, index uint32) (*Keystore, error) {
	info, err := v.Info(name)
	if err != nil {
		return nil, err
	}
	mnemonic, err := v.Load(name, password)
	if err != nil {
		return nil, err
	}
	path, err := DefaultPath(info.Scheme, account, index)
	if err != nil {
		return nil, err
	}
	ks := NewKeystore()
	addr, err := ks.ImportFromMnemonic(mnemonic, "", info.Scheme, path)
	if err != nil {
		return nil, err
	}
	entry := AccountEntry{Account: account, Index: index, Path: path.String(), Address: addr.String()}
	if err := v.AddAccount(name, entry); err != nil {
		ks.Clear()
		return nil, err
	}
	return ks, nil
}

// AddAccount records a derived address. Re-adding the same address is a
// no-op; a different address at a known position is an error.
func (v *Vault) AddAccount(name string, acct AccountEntry) error {
	if ok, err := v.Exists(name); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	key := accountKey(name, acct.Account, acct.Index)
	raw, err := v.db.Get(key)
	switch {
	case err == nil:
		var existing AccountEntry
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("parse account: %w", err)
		}
		if existing.Address == acct.Address {
			return nil
		}
		return fmt.Errorf("account %d index %d already holds %s", acct.Account, acct.Index, existing.Address)
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return v.db.Put(key, data)
}

// ListAccounts returns the recorded accounts of name ordered by account
// and index.
func (v *Vault) ListAccounts(name string) ([]AccountEntry, error) {
	var out []AccountEntry
	err := v.db.ForEach(accountsKey(name), func(_, value []byte) error {
		var a AccountEntry
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("parse account: %w", err)
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// List returns the stored wallet names in order.
func (v *Vault) List() ([]string, error) {
	var names []string
	err := v.db.ForEach([]byte(recordPrefix), func(key, _ []byte) error {
		names = append(names, string(key[len(recordPrefix):]))
		return nil
	})
	return names, err
}

// Delete removes name and its account records in one batch.
func (v *Vault) Delete(name string) error {
	ok, err := v.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}

	batch := v.db.NewBatch()
	err = v.db.ForEach(accountsKey(name), func(key, _ []byte) error {
		return batch.Delete(key)
	})
	if err != nil {
		return err
	}
	if err := batch.Delete(recordKey(name)); err != nil {
		return err
	}
	return batch.Commit()
}

func (v *Vault) putRecord(name string, rec *vaultRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	return v.db.Put(recordKey(name), data)
}

func (v *Vault) getRecord(name string) (*vaultRecord, error) {
	data, err := v.db.Get(recordKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var rec vaultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if rec.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", rec.Version)
	}
	return &rec, nil
}
