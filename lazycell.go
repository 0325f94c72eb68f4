package spread

import (
	"fmt"
)

// LazyCell is a storage cell that loads its value from the store upon first
// use, and never again.
//
// Use this for fields that don't need to be loaded in some or most cases.
//
// A cell either has a key (it was pulled from storage, or created with
// LazyAt) and defers loading until the first Get, GetMut or Release; or it
// was constructed from a value and has no key until it gets pushed. Once the
// cache is populated it stays populated for the lifetime of the cell.
//
// The zero LazyCell is a key-less cell holding nothing.
type LazyCell[T any] struct {
	env     *Env
	key     *Key
	cache   *StorageEntry[T]
	loading bool
}

var _ Spread = (*LazyCell[int])(nil)

// NewCell returns an already populated cell. It will never load from the
// store, and its value is considered Mutated until pushed.
func NewCell[T any](value T) LazyCell[T] {
	return LazyCell[T]{cache: NewEntry(&value, Mutated)}
}

// EmptyCell returns a populated cell holding nothing.
func EmptyCell[T any]() LazyCell[T] {
	return LazyCell[T]{cache: NewEntry[T](nil, Mutated)}
}

// absentCell returns a populated cell that knows nothing is stored.
func absentCell[T any]() LazyCell[T] {
	return LazyCell[T]{cache: NewEntry[T](nil, Preserved)}
}

// LazyAt returns a cell that will load its value from key on first access.
// No I/O happens here.
func LazyAt[T any](env *Env, key Key) LazyCell[T] {
	return LazyCell[T]{env: nonNil(env), key: &key}
}

// Key returns the key the cell loads from, if any.
func (c *LazyCell[T]) Key() (Key, bool) {
	if c.key == nil {
		return Key{}, false
	}
	return *c.key, true
}

// IsLoaded reports whether the cache is populated.
func (c *LazyCell[T]) IsLoaded() bool {
	return c.cache != nil
}

// State returns the state of the cached entry, loading it if necessary.
func (c *LazyCell[T]) State() EntryState {
	return c.loadEntry().State()
}

// Get returns the value, or nil if there is none. The value is loaded from
// the store on the first access.
//
// The returned pointer stays valid for the lifetime of the cell. Modifying
// the value through it is not tracked; use GetMut for that.
//
// Panics with a *KeyError if the stored bytes cannot be decoded.
func (c *LazyCell[T]) Get() *T {
	return c.loadEntry().Value()
}

// GetMut is like Get, but marks the value as Mutated, assuming the caller
// is going to modify it.
func (c *LazyCell[T]) GetMut() *T {
	entry := c.loadEntry()
	entry.ReplaceState(Mutated)
	return entry.Value()
}

// Set replaces the value without reading the store.
//
// Prefer this over GetMut when the old value is of no interest.
func (c *LazyCell[T]) Set(value T) {
	if c.cache == nil {
		c.cache = NewEntry(&value, Mutated)
		return
	}
	if old := c.cache.Value(); old != nil {
		// overwrite in place so that pointers handed out earlier see the new value
		*old = value
	} else {
		c.cache.Put(&value)
	}
	c.cache.ReplaceState(Mutated)
}

// loadEntry returns the cached entry, loading it from the store if the
// cache is empty. A populated cache is never replaced, so pointers handed
// out earlier stay valid.
func (c *LazyCell[T]) loadEntry() *StorageEntry[T] {
	if c.cache != nil {
		return c.cache
	}
	if c.loading {
		panic(fmt.Errorf("spread: reentrant load of LazyCell[%T] at %v", *new(T), c.key))
	}
	var value *T
	if c.key != nil {
		c.loading = true
		defer func() { c.loading = false }()
		value = PullRoot[T](nonNil(c.env), *c.key)
	}
	if c.cache != nil {
		panic("spread: cell populated while loading")
	}
	c.cache = NewEntry(value, Preserved)
	return c.cache
}

// Release is the explicit end of the cell's life. If the cell has a key and
// its value was touched, the storage at the key is cleared, tearing down
// storage owned by nested values. Untouched cells do no I/O.
//
// Nothing calls Release implicitly. Options.KeepOnRelease disables it.
func (c *LazyCell[T]) Release() {
	if c.key == nil || c.cache == nil {
		return
	}
	env := nonNil(c.env)
	if env.keepOnRelease {
		return
	}
	ClearRoot(env, *c.key, c.cache.Value())
}

func (c *LazyCell[T]) Footprint() uint64 {
	return FootprintFor[T]()
}

func (c *LazyCell[T]) PullSpread(env *Env, ptr *KeyPtr) {
	*c = LazyAt[T](env, NextFor[T](ptr))
}

func (c *LazyCell[T]) PushSpread(env *Env, ptr *KeyPtr) {
	key := NextFor[T](ptr)
	if c.cache != nil {
		pushEntry(env, key, c.cache)
	}
}

// ClearSpread removes the storage at the cell's next key. Spread values are
// loaded first, since their nested storage can only be found through them.
func (c *LazyCell[T]) ClearSpread(env *Env, ptr *KeyPtr) {
	key := NextFor[T](ptr)
	if c.cache == nil && IsSpread[T]() {
		if c.key == nil || *c.key != key {
			ClearRoot(env, key, PullRoot[T](env, key))
			return
		}
		c.loadEntry()
	}
	if c.cache != nil {
		ClearRoot(env, key, c.cache.Value())
	} else {
		ClearRoot[T](env, key, nil)
	}
}

// pushEntry writes entry at key. Packed values are written only if Mutated
// (and non-nil); spread values always recurse, since nested cells track
// their own state. The entry becomes Preserved once the write went through;
// a failed write leaves it Mutated.
func pushEntry[T any](env *Env, key Key, entry *StorageEntry[T]) {
	if IsSpread[T]() || entry.IsMutated() {
		PushRoot(env, key, entry.Value())
	}
	entry.ReplaceState(Preserved)
}

func (c *LazyCell[T]) String() string {
	var key string
	if c.key == nil {
		key = "<none>"
	} else {
		key = c.key.String()
	}
	return fmt.Sprintf("LazyCell{key: %s, cache: %v}", key, c.cache)
}
