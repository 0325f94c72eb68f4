package spread

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const KeySize = 32

// Key addresses a single slot of the backing store.
type Key [KeySize]byte

// KeyFromBytes copies up to 32 bytes into the low end of a key, so that
// KeyFromBytes([]byte{1}) is numerically 1.
func KeyFromBytes(b []byte) Key {
	if len(b) > KeySize {
		panic(fmt.Errorf("key too long: %d bytes", len(b)))
	}
	var k Key
	copy(k[KeySize-len(b):], b)
	return k
}

// RepeatKey returns a key made of the same byte repeated 32 times.
func RepeatKey(b byte) Key {
	var k Key
	for i := range k {
		k[i] = b
	}
	return k
}

// ParseKey accepts 64 hex digits, optionally prefixed with 0x and split by
// underscores or spaces (the format produced by String is accepted).
func ParseKey(s string) (Key, error) {
	orig := s
	s = strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(s, "Key("), ")"), "0x")
	s = strings.NewReplacer("_", "", " ", "").Replace(s)
	if len(s) != KeySize*2 {
		return Key{}, fmt.Errorf("invalid key %q: wanted %d hex digits, got %d", orig, KeySize*2, len(s))
	}
	var k Key
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", orig, err)
	}
	return k, nil
}

func (k Key) String() string {
	var buf strings.Builder
	buf.WriteString("Key(0x")
	for i := 0; i < KeySize; i += 8 {
		buf.WriteByte('_')
		buf.WriteString(hex.EncodeToString(k[i : i+8]))
	}
	buf.WriteByte(')')
	return buf.String()
}

func (k Key) Compare(another Key) int {
	return bytes.Compare(k[:], another[:])
}

func (k Key) Bytes() []byte {
	return k[:]
}

func (k Key) uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(k[:])
}

// Add returns k + n, wrapping around at 2^256.
func (k Key) Add(n uint64) Key {
	z := k.uint256()
	z.AddUint64(z, n)
	return z.Bytes32()
}

// AddOffset returns k + off, wrapping around at 2^256.
func (k Key) AddOffset(off *uint256.Int) Key {
	z := k.uint256()
	z.Add(z, off)
	return z.Bytes32()
}

// Distance returns another - k modulo 2^256.
func (k Key) Distance(another Key) *uint256.Int {
	z := another.uint256()
	return z.Sub(z, k.uint256())
}
