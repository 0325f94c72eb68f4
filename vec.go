package spread

import (
	"fmt"
	"maps"
	"slices"

	"github.com/holiman/uint256"
)

// Vec is a storage vector with lazily loaded elements. It occupies a single
// key slot (the length). Element i of a Vec at key k lives at
// blake2b('v' || k) + i*footprint, far away from k's siblings.
type Vec[T any] struct {
	env   *Env
	key   *Key
	len   LazyCell[uint32]
	elems map[uint32]*vecSlot[T]
}

type vecSlot[T any] struct {
	cell    LazyCell[T]
	removed bool
}

var _ Spread = (*Vec[int])(nil)

// NewVec returns an empty key-less vector.
func NewVec[T any]() Vec[T] {
	return Vec[T]{len: NewCell[uint32](0)}
}

// VecAt returns a vector bound to key. No I/O happens here.
func VecAt[T any](env *Env, key Key) Vec[T] {
	return Vec[T]{env: nonNil(env), key: &key, len: LazyAt[uint32](env, key)}
}

func elementKey[T any](vecKey Key, i uint32) Key {
	off := new(uint256.Int).Mul(uint256.NewInt(uint64(i)), uint256.NewInt(FootprintFor[T]()))
	return hashedKey(vecRegionTag, vecKey, nil).AddOffset(off)
}

func (v *Vec[T]) Len() uint32 {
	if n := v.len.Get(); n != nil {
		return *n
	}
	return 0
}

func (v *Vec[T]) IsEmpty() bool {
	return v.Len() == 0
}

func (v *Vec[T]) slot(i uint32) *vecSlot[T] {
	if s := v.elems[i]; s != nil {
		return s
	}
	s := &vecSlot[T]{}
	if v.key != nil {
		s.cell = LazyAt[T](v.env, elementKey[T](*v.key, i))
	} else {
		s.cell = EmptyCell[T]()
	}
	if v.elems == nil {
		v.elems = make(map[uint32]*vecSlot[T])
	}
	v.elems[i] = s
	return s
}

// Get returns element i, or nil if i is out of bounds.
func (v *Vec[T]) Get(i uint32) *T {
	if i >= v.Len() {
		return nil
	}
	return v.slot(i).cell.Get()
}

// GetMut returns element i marked as Mutated, or nil if i is out of bounds.
func (v *Vec[T]) GetMut(i uint32) *T {
	if i >= v.Len() {
		return nil
	}
	return v.slot(i).cell.GetMut()
}

// Set replaces element i without loading it. Panics if i is out of bounds.
func (v *Vec[T]) Set(i uint32, value T) {
	if n := v.Len(); i >= n {
		panic(fmt.Errorf("spread: Vec index %d out of bounds (len %d)", i, n))
	}
	v.slot(i).cell.Set(value)
}

// Push appends value.
func (v *Vec[T]) Push(value T) {
	n := v.Len()
	if n == ^uint32(0) {
		panic("spread: Vec is full")
	}
	s := v.slot(n)
	s.removed = false
	s.cell.Set(value)
	v.len.Set(n + 1)
}

// Pop removes and returns the last element, or nil if the vector is empty.
// The element's storage is cleared on the next push.
func (v *Vec[T]) Pop() *T {
	n := v.Len()
	if n == 0 {
		return nil
	}
	s := v.slot(n - 1)
	var popped *T
	if value := s.cell.Get(); value != nil {
		copied := *value
		popped = &copied
	}
	s.removed = true
	v.len.Set(n - 1)
	return popped
}

// All returns every element, loading those not loaded yet.
func (v *Vec[T]) All() []*T {
	n := v.Len()
	result := make([]*T, 0, n)
	for i := uint32(0); i < n; i++ {
		result = append(result, v.Get(i))
	}
	return result
}

func (v *Vec[T]) Footprint() uint64 {
	return packedFootprint
}

func (v *Vec[T]) PullSpread(env *Env, ptr *KeyPtr) {
	*v = VecAt[T](env, ptr.Next(v.Footprint()))
}

func (v *Vec[T]) PushSpread(env *Env, ptr *KeyPtr) {
	env.beginPass()
	defer env.endPass()
	key := ptr.Key()
	v.len.PushSpread(env, ptr)
	n := v.Len()
	for _, i := range slices.Sorted(maps.Keys(v.elems)) {
		s := v.elems[i]
		ek := elementKey[T](key, i)
		if s.removed && i >= n {
			ClearRoot(env, ek, s.cell.Get())
			delete(v.elems, i)
			continue
		}
		s.cell.PushSpread(env, ptrAt(ek))
	}
}

func (v *Vec[T]) ClearSpread(env *Env, ptr *KeyPtr) {
	env.beginPass()
	defer env.endPass()
	key := ptr.Key()
	n := v.Len()
	for i := uint32(0); i < n; i++ {
		ek := elementKey[T](key, i)
		if s := v.elems[i]; s != nil {
			s.cell.ClearSpread(env, ptrAt(ek))
		} else {
			ClearRoot(env, ek, pullIfSpread[T](env, ek))
		}
	}
	for i, s := range v.elems {
		if s.removed && i >= n {
			ClearRoot(env, elementKey[T](key, i), s.cell.Get())
		}
	}
	v.len.ClearSpread(env, ptr)
}

func ptrAt(key Key) *KeyPtr {
	ptr := NewKeyPtr(key)
	return &ptr
}

// pullIfSpread returns what ClearRoot needs to tear down a value at key:
// nothing for packed values, the pulled value for spread ones.
func pullIfSpread[T any](env *Env, key Key) *T {
	if IsSpread[T]() {
		return PullRoot[T](env, key)
	}
	return nil
}
