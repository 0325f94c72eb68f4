package spread

import (
	"github.com/holiman/uint256"
)

// KeyPtr is a cursor handing out keys to the fields of a composite value.
//
// KeyPtr is a value type: copying it yields an independent cursor, which is
// how sibling branches get advanced without disturbing each other.
type KeyPtr struct {
	key Key
}

func NewKeyPtr(root Key) KeyPtr {
	return KeyPtr{key: root}
}

// Key returns the key the next field will receive.
func (p KeyPtr) Key() Key {
	return p.key
}

// Next returns the current key and moves the cursor past footprint slots.
func (p *KeyPtr) Next(footprint uint64) Key {
	k := p.key
	p.key = k.Add(footprint)
	return k
}

// NextFor allocates the key for a field of type T.
func NextFor[T any](p *KeyPtr) Key {
	return p.Next(FootprintFor[T]())
}

// Region returns a fresh cursor rooted offset slots after the current key.
// The receiver is not advanced.
func (p KeyPtr) Region(offset *uint256.Int) KeyPtr {
	return KeyPtr{key: p.key.AddOffset(offset)}
}

func (p KeyPtr) String() string {
	return "KeyPtr(" + p.key.String() + ")"
}
