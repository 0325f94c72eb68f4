package spread

import "errors"

// ErrNotWritable is returned by Put and Delete on a read-only transaction.
var ErrNotWritable = errors.New("tx not writable")

// ErrClosed is returned when using a closed storage or transaction.
var ErrClosed = errors.New("storage closed")

// Store is the flat key-addressed backing store. This is the only way the
// rest of the package touches persistent data.
type Store interface {
	// Get returns the bytes stored at key, or nil if there are none. The
	// returned slice must not be modified and is only valid until the next
	// mutation.
	Get(key Key) ([]byte, error)

	// Put stores value at key, replacing any previous value.
	Put(key Key, value []byte) error

	// Delete removes whatever is stored at key. Deleting a missing key is
	// not an error.
	Delete(key Key) error
}

// ScanStore is a Store that can enumerate its contents in key order.
type ScanStore interface {
	Store
	ForEach(f func(key Key, value []byte) error) error
}

// Storage represents a storage backend (Bolt, in-memory, etc.).
type Storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (StorageTx, error)
	// Close closes the storage.
	Close() error
}

// StorageTx is a transactional view of a Storage.
type StorageTx interface {
	ScanStore

	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error
}
