package storage

import "net/url"

// Keyspace roots inside the wallet store.
const (
	VaultPrefix   = "vault/"
	TxCachePrefix = "txcache/"
)

// VaultKeyspace returns the keyspace holding sealed mnemonics and account
// lists.
func VaultKeyspace(db DB) *PrefixDB {
	return NewPrefixDB(db, []byte(VaultPrefix))
}

// TxCacheKeyspace returns the transaction cache keyspace of one network.
// The network key is path-escaped so that no network's keyspace can contain
// another's ("a" versus "a/b").
func TxCacheKeyspace(db DB, network string) *PrefixDB {
	return NewPrefixDB(db, []byte(TxCachePrefix+url.PathEscape(network)+"/"))
}

// PrefixDB is a view of a DB confined to keys under a fixed prefix. Keys
// passed in and handed back are relative to that prefix.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns a view of inner under prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

// Prefix returns a copy of the view's prefix.
func (p *PrefixDB) Prefix() []byte { return append([]byte(nil), p.prefix...) }

func join(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	return append(append(out, prefix...), key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(join(p.prefix, key)) }

func (p *PrefixDB) Put(key, value []byte) error { return p.inner.Put(join(p.prefix, key), value) }

func (p *PrefixDB) Delete(key []byte) error { return p.inner.Delete(join(p.prefix, key)) }

func (p *PrefixDB) Has(key []byte) (bool, error) { return p.inner.Has(join(p.prefix, key)) }

// ForEach visits the view's keys starting with prefix. fn sees relative keys.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(join(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// DeleteAll removes every key in the view. Keys are collected before any
// delete so the inner iterator never sees its own writes.
func (p *PrefixDB) DeleteAll() error {
	var keys [][]byte
	err := p.ForEach(nil, func(key, _ []byte) error {
		keys = append(keys, append([]byte(nil), key...))
		return nil
	})
	if err != nil {
		return err
	}
	batch := p.NewBatch()
	for _, key := range keys {
		if err := batch.Delete(key); err != nil {
			return err
		}
	}
	return batch.Commit()
}

// Close does nothing; the inner DB is owned by whoever opened it.
func (p *PrefixDB) Close() error { return nil }

// NewBatch returns a batch over the view. It commits atomically when the
// inner DB is a Batcher and as individual writes otherwise.
func (p *PrefixDB) NewBatch() Batch {
	if b, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: b.NewBatch(), prefix: p.prefix}
	}
	return &writeThroughBatch{db: p}
}

type prefixBatch struct {
	inner  Batch
	prefix []byte
}

func (b *prefixBatch) Put(key, value []byte) error { return b.inner.Put(join(b.prefix, key), value) }

func (b *prefixBatch) Delete(key []byte) error { return b.inner.Delete(join(b.prefix, key)) }

func (b *prefixBatch) Commit() error { return b.inner.Commit() }

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// writeThroughBatch buffers operations and replays them one by one.
type writeThroughBatch struct {
	db  *PrefixDB
	ops []batchOp
}

func (b *writeThroughBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (b *writeThroughBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (b *writeThroughBatch) Commit() error {
	for _, op := range b.ops {
		var err error
		if op.delete {
			err = b.db.Delete(op.key)
		} else {
			err = b.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}
