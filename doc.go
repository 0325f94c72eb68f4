/*
Package spread maps composite Go values onto a flat key-value store where
every read and write is expensive (think contract storage, where each access
is metered).

We implement:

1. Keys and key pointers, allocating non-overlapping storage slots to the
fields of composite values.

2. Storage entries, holding a decoded value together with its dirty state.

3. Lazy cells, loading a value from the store on first access and never again.

4. The spread protocol (pull, push, clear), which composite values implement
by delegating to their fields in a fixed order.

5. Containers (Vec and Mapping) built on top of lazy cells.

# Technical Details

**Keys.**
A key is 32 opaque bytes. For allocation purposes we treat it as an unsigned
256-bit big-endian number, so that adding to a key keeps byte order and
numeric order the same.

**Footprint.**
Every storable type occupies a fixed number of consecutive key slots called
its footprint. Packed (leaf) values occupy exactly one slot, composite values
occupy the sum of their fields. A KeyPtr hands out the first slot of each
field and moves past the whole footprint.

**Packed values.**
A value whose pointer type does not implement Spread is stored as a single
encoded blob (msgpack by default) at one key. Absence of bytes means nil.

**Entry state.**
An entry freshly pulled from the store is Preserved. Constructing a value,
calling GetMut or Set makes it Mutated. Push only writes Mutated packed
entries, so values that were merely read are never written back.

**Containers.**
Vec and Mapping occupy a single slot (holding their length) and keep their
elements in a far-away hashed region: element i of a Vec at key k lives at
blake2b-256('v' || k) + i*footprint, and Mapping entries live at
blake2b-256('m' || k || encoded map key). A Mapping's own slot is the length
of a Vec of its keys, which is what lets it iterate and clear entries it has
never loaded. Sibling containers at adjacent keys therefore never overlap.

**Concurrency.**
None. Everything here is single-threaded and synchronous. Cells detect
reentrant loads at runtime and panic.
*/
package spread
