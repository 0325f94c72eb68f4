package spread

import (
	"fmt"
	"slices"
	"testing"
)

func TestMapping_Basics(t *testing.T) {
	m := NewMapping[string, uint32]()
	isnil(t, m.Insert("alice", 10))
	isnil(t, m.Insert("bob", 20))
	deepEqual(t, m.Len(), uint32(2))

	old := m.Insert("alice", 11)
	deepEqual(t, *old, uint32(10))
	deepEqual(t, *m.Get("alice"), uint32(11))
	deepEqual(t, m.Len(), uint32(2))

	deepEqual(t, *m.Remove("bob"), uint32(20))
	isnil(t, m.Remove("bob"))
	if m.Contains("bob") {
		t.Fatalf("removed key still present")
	}
	deepEqual(t, m.Len(), uint32(1))

	*m.GetMut("alice") = 12
	deepEqual(t, *m.Get("alice"), uint32(12))
	isnil(t, m.GetMut("carol"))

	isnil(t, m.Insert("bob", 21))
	deepEqual(t, m.Len(), uint32(2))
}

func TestMapping_RemovedValueIsDetached(t *testing.T) {
	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	removed := m.Remove("alice")
	m.Insert("alice", 11)
	deepEqual(t, *removed, uint32(10))
}

func TestMapping_Iteration(t *testing.T) {
	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	m.Insert("bob", 20)
	m.Insert("carol", 30)
	m.Remove("alice")

	// the last key takes the removed key's place
	deepEqual(t, slices.Collect(m.Keys()), []string{"carol", "bob"})

	var values []uint32
	for v := range m.Values() {
		values = append(values, *v)
	}
	deepEqual(t, values, []uint32{30, 20})

	all := make(map[string]uint32)
	for k, v := range m.All() {
		all[k] = *v
	}
	deepEqual(t, all, map[string]uint32{"bob": 20, "carol": 30})

	var n int
	for range m.Keys() {
		n++
		break
	}
	deepEqual(t, n, 1)
}

func TestMapping_RoundTrip(t *testing.T) {
	env, tx := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	m.Insert("bob", 20)
	PushRoot(env, k, &m)
	// index length, two index elements, two values, two positions
	readsWrites(t, env, 0, 7)
	deepEqual(t, keyCount(t, tx), 7)

	env.ResetCounters()
	pulled := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, *pulled.Get("alice"), uint32(10))
	deepEqual(t, *pulled.Get("alice"), uint32(10))
	isnil(t, pulled.Get("carol"))
	readsWrites(t, env, 2, 0)
	deepEqual(t, pulled.Len(), uint32(2))
	deepEqual(t, slices.Collect(pulled.Keys()), []string{"alice", "bob"})
}

func TestMapping_RemoveClearsOnPush(t *testing.T) {
	env, tx := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	m.Insert("bob", 20)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, *pulled.Remove("bob"), uint32(20))
	pulled.Get("alice")
	env.ResetCounters()
	PushRoot(env, k, pulled)
	// index length, popped index element, bob's value and position
	readsWrites(t, env, 0, 4)
	deepEqual(t, keyCount(t, tx), 4)

	again := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, again.Len(), uint32(1))
	isnil(t, again.Get("bob"))
	deepEqual(t, *again.Get("alice"), uint32(10))
}

func TestMapping_RemoveKeepsIndexConsistent(t *testing.T) {
	env, _ := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("a", 1)
	m.Insert("b", 2)
	m.Insert("c", 3)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	pulled.Remove("a")
	PushRoot(env, k, pulled)

	again := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, slices.Collect(again.Keys()), []string{"c", "b"})
	deepEqual(t, *again.Remove("c"), uint32(3))
	PushRoot(env, k, again)

	last := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, slices.Collect(last.Keys()), []string{"b"})
	deepEqual(t, *last.Remove("b"), uint32(2))
	deepEqual(t, last.Len(), uint32(0))
}

func TestMapping_InsertOverStored(t *testing.T) {
	env, _ := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, *pulled.Insert("alice", 11), uint32(10))
	deepEqual(t, pulled.Len(), uint32(1))
	PushRoot(env, k, pulled)

	again := PullRoot[Mapping[string, uint32]](env, k)
	deepEqual(t, *again.Get("alice"), uint32(11))
	deepEqual(t, again.Len(), uint32(1))
	deepEqual(t, slices.Collect(again.Keys()), []string{"alice"})
}

func TestMapping_ClearRemovesUntouchedEntries(t *testing.T) {
	env, tx := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	m.Insert("bob", 20)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	pulled.Get("alice")
	ClearRoot(env, k, pulled)
	deepEqual(t, keyCount(t, tx), 0)
}

func TestMapping_ClearRemovesPendingRemovals(t *testing.T) {
	env, tx := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	m.Insert("bob", 20)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	pulled.Remove("bob")
	ClearRoot(env, k, pulled)
	deepEqual(t, keyCount(t, tx), 0)
}

func TestMapping_ClearTearsDownSpreadValues(t *testing.T) {
	env, tx := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, pair]()
	m.Insert("x", pair{A: NewCell[uint8](1), B: NewCell[uint8](2)})
	PushRoot(env, k, &m)
	deepEqual(t, keyCount(t, tx), 5)

	ClearRoot(env, k, PullRoot[Mapping[string, pair]](env, k))
	deepEqual(t, keyCount(t, tx), 0)
}

func TestMapping_MissingLookupsAreNotRetained(t *testing.T) {
	env, _ := setup(t)
	k := RepeatKey(0x30)

	m := NewMapping[string, uint32]()
	m.Insert("alice", 10)
	PushRoot(env, k, &m)

	pulled := PullRoot[Mapping[string, uint32]](env, k)
	for i := range 100 {
		isnil(t, pulled.Get(fmt.Sprintf("nobody%d", i)))
	}
	deepEqual(t, len(pulled.entries), 100)

	env.ResetCounters()
	PushRoot(env, k, pulled)
	readsWrites(t, env, 0, 0)
	deepEqual(t, len(pulled.entries), 0)
	deepEqual(t, len(pulled.order), 0)
	deepEqual(t, *pulled.Get("alice"), uint32(10))
}

func TestMapping_EntryKeysDependOnRoot(t *testing.T) {
	env, _ := setup(t)
	var m Mapping[string, uint32]
	k1 := m.entryKey(env, RepeatKey(0x30), "alice")
	k2 := m.entryKey(env, RepeatKey(0x31), "alice")
	k3 := m.entryKey(env, RepeatKey(0x30), "bob")
	if k1 == k2 || k1 == k3 {
		t.Fatalf("entry keys collide: %v %v %v", k1, k2, k3)
	}
	deepEqual(t, k1, m.entryKey(env, RepeatKey(0x30), "alice"))
	if m.positionKey(env, RepeatKey(0x30), "alice") == k1 {
		t.Fatalf("position key collides with entry key")
	}
}
