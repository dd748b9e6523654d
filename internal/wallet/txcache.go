package wallet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/internal/storage"
)

// TxCache keeps settled wallet transactions so repeat lookups skip the node.
// Pending transactions are never stored.
type TxCache struct {
	db *storage.PrefixDB
}

// NewTxCache returns the cache of network inside db.
func NewTxCache(db storage.DB, network string) *TxCache {
	return &TxCache{db: storage.TxCacheKeyspace(db, network)}
}

// Get returns the cached transaction for digest. A miss returns
// storage.ErrNotFound.
func (c *TxCache) Get(digest string) (*WalletTransaction, error) {
	data, err := c.db.Get([]byte(digest))
	if err != nil {
		return nil, err
	}
	var tx WalletTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("parse cached transaction %s: %w", digest, err)
	}
	return &tx, nil
}

// Put stores tx if its status is final and reports whether it did.
func (c *TxCache) Put(tx *WalletTransaction) (bool, error) {
	if !tx.Status.Final() {
		return false, nil
	}
	data, err := json.Marshal(tx)
	if err != nil {
		return false, fmt.Errorf("marshal transaction: %w", err)
	}
	if err := c.db.Put([]byte(tx.TransactionHash), data); err != nil {
		return false, err
	}
	return true, nil
}

// Digests lists the cached digests in key order.
func (c *TxCache) Digests() ([]string, error) {
	var out []string
	err := c.db.ForEach(nil, func(key, _ []byte) error {
		out = append(out, string(key))
		return nil
	})
	return out, err
}

// Clear drops every cached transaction.
func (c *TxCache) Clear() error {
	return c.db.DeleteAll()
}

func isMiss(err error) bool { return errors.Is(err, storage.ErrNotFound) }
