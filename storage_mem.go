package spread

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// MemStorage is a transient in-memory Storage intended for tests and
// off-chain execution.
type MemStorage struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   *memData
	closed bool
	writer bool
}

func NewMemStorage() *MemStorage {
	s := &MemStorage{data: &memData{}}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *MemStorage) BeginTx(writable bool) (StorageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, ErrClosed
		}
		s.writer = true
	}

	// Snapshot the entire store for transactional isolation (simplicity over efficiency).
	return &memTx{
		writable: writable,
		base:     s,
		data:     s.data.clone(),
	}, nil
}

// Reset drops all committed data. Open transactions keep their snapshots.
func (s *MemStorage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = &memData{}
}

// Len returns the number of committed keys.
func (s *MemStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.items)
}

func (s *MemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

type memTx struct {
	base     *MemStorage
	writable bool
	data     *memData
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Get(key Key) ([]byte, error) {
	if tx.closed {
		return nil, ErrClosed
	}
	i, ok := tx.data.find(key)
	if !ok {
		return nil, nil
	}
	return tx.data.items[i].value, nil
}

func (tx *memTx) Put(key Key, value []byte) error {
	if tx.closed {
		return ErrClosed
	}
	if !tx.writable {
		return ErrNotWritable
	}
	if value == nil {
		value = []byte{}
	} else {
		value = slices.Clone(value)
	}

	i, ok := tx.data.find(key)
	if ok {
		tx.data.items[i].value = value
		return nil
	}
	tx.data.items = slices.Insert(tx.data.items, i, memKV{key: key, value: value})
	return nil
}

func (tx *memTx) Delete(key Key) error {
	if tx.closed {
		return ErrClosed
	}
	if !tx.writable {
		return ErrNotWritable
	}
	i, ok := tx.data.find(key)
	if !ok {
		return nil
	}
	tx.data.items = slices.Delete(tx.data.items, i, i+1)
	return nil
}

func (tx *memTx) ForEach(f func(key Key, value []byte) error) error {
	if tx.closed {
		return ErrClosed
	}
	for _, kv := range tx.data.items {
		if err := f(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("commit: %w", ErrNotWritable)
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return ErrClosed
	}
	tx.base.data = tx.data
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

type memData struct {
	items []memKV // sorted by key
}

type memKV struct {
	key   Key
	value []byte
}

func (d *memData) clone() *memData {
	out := &memData{items: make([]memKV, len(d.items))}
	for i, kv := range d.items {
		out.items[i] = memKV{key: kv.key, value: slices.Clone(kv.value)}
	}
	return out
}

func (d *memData) find(key Key) (idx int, ok bool) {
	items := d.items
	i := sort.Search(len(items), func(i int) bool {
		return items[i].key.Compare(key) >= 0
	})
	if i < len(items) && items[i].key == key {
		return i, true
	}
	return i, false
}
