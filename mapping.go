package spread

import (
	"fmt"
	"iter"
)

// Mapping is a storage hash map with lazily loaded entries. It occupies a
// single key slot, which holds the length of its key index: a Vec[K] listing
// every stored key. For a Mapping at storage key m, the value for map key k
// lives at blake2b('m' || m || encode(k)), and k's position in the index at
// blake2b('p' || m || encode(k)).
//
// The index makes the mapping enumerable, so ClearSpread removes every entry,
// including those this instance never touched.
type Mapping[K comparable, V any] struct {
	env     *Env
	key     *Key
	keys    Vec[K]
	entries map[K]*mappingSlot[V]
	order   []K
}

type mappingSlot[V any] struct {
	cell    LazyCell[V]
	pos     LazyCell[uint32]
	removed bool
}

// unused reports whether the slot only caches a lookup of a missing key.
func (s *mappingSlot[V]) unused() bool {
	if s.removed || s.cell.cache == nil || s.cell.cache.Value() != nil || s.cell.cache.IsMutated() {
		return false
	}
	return s.pos.cache == nil || !s.pos.cache.IsMutated()
}

var _ Spread = (*Mapping[string, int])(nil)

// NewMapping returns an empty key-less mapping.
func NewMapping[K comparable, V any]() Mapping[K, V] {
	return Mapping[K, V]{keys: NewVec[K]()}
}

// MappingAt returns a mapping bound to key. No I/O happens here.
func MappingAt[K comparable, V any](env *Env, key Key) Mapping[K, V] {
	return Mapping[K, V]{env: nonNil(env), key: &key, keys: VecAt[K](env, key)}
}

func (m *Mapping[K, V]) entryKey(env *Env, mapKey Key, k K) Key {
	return hashedKey(mappingRegionTag, mapKey, env.encode(&k))
}

func (m *Mapping[K, V]) positionKey(env *Env, mapKey Key, k K) Key {
	return hashedKey(positionRegionTag, mapKey, env.encode(&k))
}

func (m *Mapping[K, V]) Len() uint32 {
	return m.keys.Len()
}

func (m *Mapping[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

func (m *Mapping[K, V]) slot(k K) *mappingSlot[V] {
	if s := m.entries[k]; s != nil {
		return s
	}
	s := &mappingSlot[V]{}
	if m.key != nil {
		s.cell = LazyAt[V](m.env, m.entryKey(m.env, *m.key, k))
		s.pos = LazyAt[uint32](m.env, m.positionKey(m.env, *m.key, k))
	} else {
		s.cell = absentCell[V]()
		s.pos = absentCell[uint32]()
	}
	if m.entries == nil {
		m.entries = make(map[K]*mappingSlot[V])
	}
	m.entries[k] = s
	m.order = append(m.order, k)
	return s
}

// Get returns the value stored under k, or nil.
func (m *Mapping[K, V]) Get(k K) *V {
	s := m.slot(k)
	if s.removed {
		return nil
	}
	return s.cell.Get()
}

// GetMut returns the value stored under k marked as Mutated, or nil.
func (m *Mapping[K, V]) GetMut(k K) *V {
	s := m.slot(k)
	if s.removed || s.cell.Get() == nil {
		return nil
	}
	return s.cell.GetMut()
}

func (m *Mapping[K, V]) Contains(k K) bool {
	return m.Get(k) != nil
}

// Insert stores value under k and returns the previous value, if any.
// Finding the previous value costs a read when k has not been touched yet.
func (m *Mapping[K, V]) Insert(k K, value V) *V {
	s := m.slot(k)
	var old *V
	if !s.removed {
		old = s.cell.Get()
	}
	if old != nil {
		copied := *old
		old = &copied
	} else {
		n := m.keys.Len()
		m.keys.Push(k)
		s.pos.Set(n)
	}
	s.removed = false
	s.cell.Set(value)
	return old
}

// Remove deletes the value under k and returns it, if any. The last key of
// the index takes k's position. The storage is cleared on the next push.
func (m *Mapping[K, V]) Remove(k K) *V {
	s := m.slot(k)
	if s.removed {
		return nil
	}
	old := s.cell.Get()
	if old == nil {
		return nil
	}
	copied := *old

	pos := s.pos.Get()
	if pos == nil {
		panic(fmt.Errorf("spread: Mapping entry %v has no index position", k))
	}
	last := m.keys.Len() - 1
	if *pos != last {
		lastKey := m.keys.Get(last)
		if lastKey == nil {
			panic(fmt.Errorf("spread: Mapping index is missing element %d", last))
		}
		m.keys.Set(*pos, *lastKey)
		m.slot(*lastKey).pos.Set(*pos)
	}
	m.keys.Pop()
	s.removed = true
	return &copied
}

// Keys yields the stored keys in index order. The mapping must not be
// modified during iteration.
func (m *Mapping[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		n := m.keys.Len()
		for i := uint32(0); i < n; i++ {
			if k := m.keys.Get(i); k != nil && !yield(*k) {
				return
			}
		}
	}
}

// Values yields the stored values in index order.
func (m *Mapping[K, V]) Values() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		for k := range m.Keys() {
			if !yield(m.Get(k)) {
				return
			}
		}
	}
}

// All yields key-value pairs in index order.
func (m *Mapping[K, V]) All() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for k := range m.Keys() {
			if !yield(k, m.Get(k)) {
				return
			}
		}
	}
}

func (m *Mapping[K, V]) Footprint() uint64 {
	return packedFootprint
}

func (m *Mapping[K, V]) PullSpread(env *Env, ptr *KeyPtr) {
	*m = MappingAt[K, V](env, ptr.Next(m.Footprint()))
}

func (m *Mapping[K, V]) PushSpread(env *Env, ptr *KeyPtr) {
	env.beginPass()
	defer env.endPass()
	key := ptr.Key()
	m.keys.PushSpread(env, ptr)
	kept := m.order[:0]
	for _, k := range m.order {
		s := m.entries[k]
		ek, pk := m.entryKey(env, key, k), m.positionKey(env, key, k)
		if s.removed {
			ClearRoot(env, ek, s.cell.Get())
			ClearRoot[uint32](env, pk, nil)
			delete(m.entries, k)
			continue
		}
		if s.unused() {
			delete(m.entries, k)
			continue
		}
		s.cell.PushSpread(env, ptrAt(ek))
		s.pos.PushSpread(env, ptrAt(pk))
		kept = append(kept, k)
	}
	m.order = kept
}

func (m *Mapping[K, V]) ClearSpread(env *Env, ptr *KeyPtr) {
	env.beginPass()
	defer env.endPass()
	key := ptr.Key()
	cleared := make(map[K]bool)
	for k := range m.Keys() {
		m.clearEntry(env, key, k)
		cleared[k] = true
	}
	for _, k := range m.order {
		if s := m.entries[k]; s.removed && !cleared[k] {
			m.clearEntry(env, key, k)
		}
	}
	m.keys.ClearSpread(env, ptr)
}

func (m *Mapping[K, V]) clearEntry(env *Env, key Key, k K) {
	ek, pk := m.entryKey(env, key, k), m.positionKey(env, key, k)
	if s := m.entries[k]; s != nil {
		if s.removed {
			ClearRoot(env, ek, s.cell.Get())
		} else {
			s.cell.ClearSpread(env, ptrAt(ek))
		}
		ClearRoot[uint32](env, pk, nil)
		return
	}
	ClearRoot(env, ek, pullIfSpread[V](env, ek))
	ClearRoot[uint32](env, pk, nil)
}
