package spread

import (
	"golang.org/x/crypto/blake2b"
)

// Domain separators for hashed regions, so that a Vec and a Mapping rooted
// at the same key never share slots.
const (
	vecRegionTag      = 'v'
	mappingRegionTag  = 'm'
	positionRegionTag = 'p'
)

// hashedKey returns blake2b-256 of tag, the root key and the extra bytes.
func hashedKey(tag byte, root Key, extra []byte) Key {
	buf := make([]byte, 0, 1+KeySize+len(extra))
	buf = append(buf, tag)
	buf = append(buf, root[:]...)
	buf = append(buf, extra...)
	return blake2b.Sum256(buf)
}
