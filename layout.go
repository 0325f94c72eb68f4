package spread

// Spread is implemented (on pointer receivers) by types whose storage is
// spread over one or more consecutive key slots.
//
// Footprint must not depend on the receiver's contents: it is called on
// zero values to size fields before anything is loaded.
//
// Pull, push and clear must visit the same fields in the same order, each
// consuming exactly its own footprint from ptr.
type Spread interface {
	Footprint() uint64
	PullSpread(env *Env, ptr *KeyPtr)
	PushSpread(env *Env, ptr *KeyPtr)
	ClearSpread(env *Env, ptr *KeyPtr)
}

// packedFootprint is the footprint of any value stored as a single blob.
const packedFootprint = 1

func spreadOf[T any](v *T) (Spread, bool) {
	s, ok := any(v).(Spread)
	return s, ok
}

// IsSpread reports whether T decomposes into fields (true) or is stored
// packed at a single key (false).
func IsSpread[T any]() bool {
	_, ok := spreadOf(new(T))
	return ok
}

// FootprintFor returns the number of key slots a value of type T occupies.
func FootprintFor[T any]() uint64 {
	if s, ok := spreadOf(new(T)); ok {
		return s.Footprint()
	}
	return packedFootprint
}

// FootprintOf sums the footprints of the given fields. Composite types use
// it to implement Footprint.
func FootprintOf(fields ...Spread) uint64 {
	var total uint64
	for _, f := range fields {
		total += f.Footprint()
	}
	return total
}

// PullFields pulls fields in order, each from its own key allocated by ptr.
func PullFields(env *Env, ptr *KeyPtr, fields ...Spread) {
	for _, f := range fields {
		f.PullSpread(env, ptr)
	}
}

func PushFields(env *Env, ptr *KeyPtr, fields ...Spread) {
	env.beginPass()
	defer env.endPass()
	for _, f := range fields {
		f.PushSpread(env, ptr)
	}
}

func ClearFields(env *Env, ptr *KeyPtr, fields ...Spread) {
	env.beginPass()
	defer env.endPass()
	for _, f := range fields {
		f.ClearSpread(env, ptr)
	}
}

// PullRoot loads a value of type T rooted at key. Packed values that are
// absent from the store yield nil. Spread values are always present; their
// fields decide what is stored.
func PullRoot[T any](env *Env, key Key) *T {
	v := new(T)
	if s, ok := spreadOf(v); ok {
		ptr := NewKeyPtr(key)
		s.PullSpread(env, &ptr)
		return v
	}
	raw := env.ReadRaw(key)
	if raw == nil {
		return nil
	}
	env.decode(key, raw, v)
	return v
}

// PushRoot stores v rooted at key. Pushing nil writes nothing.
func PushRoot[T any](env *Env, key Key, v *T) {
	if v == nil {
		return
	}
	env.beginPass()
	defer env.endPass()
	if s, ok := spreadOf(v); ok {
		ptr := NewKeyPtr(key)
		s.PushSpread(env, &ptr)
		return
	}
	env.WriteRaw(key, env.encode(v))
}

// ClearRoot removes the storage of a value of type T rooted at key. Packed
// values are removed without looking at v. Spread values need v to know
// which nested storage to tear down; a nil v clears nothing.
func ClearRoot[T any](env *Env, key Key, v *T) {
	env.beginPass()
	defer env.endPass()
	if v == nil {
		if IsSpread[T]() {
			return
		}
		env.ClearRaw(key)
		return
	}
	if s, ok := spreadOf(v); ok {
		ptr := NewKeyPtr(key)
		s.ClearSpread(env, &ptr)
		return
	}
	env.ClearRaw(key)
}

// Read is PullRoot for packed values, with the zero value standing in for
// absence.
func Read[T any](env *Env, key Key) (T, bool) {
	if v := PullRoot[T](env, key); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Write is PushRoot for a value at hand.
func Write[T any](env *Env, key Key, v T) {
	PushRoot(env, key, &v)
}
