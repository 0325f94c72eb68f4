package spread

import (
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucketName = []byte("spread")

type BoltOptions struct {
	IsTesting bool
	ReadOnly  bool
	MmapSize  int
	Timeout   time.Duration
}

// BoltStorage keeps the flat store in a single bucket of a Bolt database.
type BoltStorage struct {
	bdb *bbolt.DB
}

func OpenBolt(path string, opt BoltOptions) (*BoltStorage, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}
	bopt.ReadOnly = opt.ReadOnly

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("spread: %w", err)
	}
	return NewBoltStorage(bdb), nil
}

func NewBoltStorage(bdb *bbolt.DB) *BoltStorage {
	return &BoltStorage{bdb: bdb}
}

func (s *BoltStorage) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *BoltStorage) BeginTx(writable bool) (StorageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	var b *bbolt.Bucket
	if writable {
		b, err = btx.CreateBucketIfNotExists(boltBucketName)
		if err != nil {
			_ = btx.Rollback()
			return nil, err
		}
	} else {
		b = btx.Bucket(boltBucketName)
	}
	return &boltStorageTx{btx: btx, b: b}, nil
}

func (s *BoltStorage) Close() error {
	return s.bdb.Close()
}

type boltStorageTx struct {
	btx *bbolt.Tx
	b   *bbolt.Bucket // nil in a read-only tx over an empty database
}

func (tx *boltStorageTx) BoltTx() *bbolt.Tx { return tx.btx }

func (tx *boltStorageTx) Writable() bool { return tx.btx.Writable() }

func (tx *boltStorageTx) Get(key Key) ([]byte, error) {
	if tx.b == nil {
		return nil, nil
	}
	v := tx.b.Get(key[:])
	if v == nil {
		return nil, nil
	}
	// Bolt values are only valid for the life of the transaction.
	return slices.Clone(v), nil
}

func (tx *boltStorageTx) Put(key Key, value []byte) error {
	if !tx.btx.Writable() {
		return ErrNotWritable
	}
	if value == nil {
		value = []byte{}
	}
	// Bolt requires both slices to stay valid for the life of the transaction.
	return tx.b.Put(slices.Clone(key[:]), slices.Clone(value))
}

func (tx *boltStorageTx) Delete(key Key) error {
	if !tx.btx.Writable() {
		return ErrNotWritable
	}
	return tx.b.Delete(key[:])
}

func (tx *boltStorageTx) ForEach(f func(key Key, value []byte) error) error {
	if tx.b == nil {
		return nil
	}
	c := tx.b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(k) != KeySize {
			return dataErrf(k, 0, nil, "invalid key length %d in bucket %s", len(k), boltBucketName)
		}
		if err := f(Key(k), v); err != nil {
			return err
		}
	}
	return nil
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}
