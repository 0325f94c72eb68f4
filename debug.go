package spread

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpEntries
	DumpDecoded
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders every key of the store in key order. With DumpDecoded, values
// that decode as msgpack are shown decoded next to their raw bytes.
func Dump(store ScanStore, f DumpFlags) string {
	var buf strings.Builder
	var count, size int
	if f.Contains(DumpHeader) {
		fmt.Fprintln(&buf, dumpSep1)
	}
	err := store.ForEach(func(k Key, v []byte) error {
		count++
		size += len(v)
		if f.Contains(DumpEntries) {
			dumpEntry(&buf, f, count, k, v)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(&buf, "** ERROR: %v\n", err)
	}
	if f.Contains(DumpStats) {
		if f.Contains(DumpEntries) {
			fmt.Fprintln(&buf, dumpSep2)
		}
		fmt.Fprintf(&buf, "keys = %d, data_size = %d, state_hash = %016x\n", count, size, must(StateHash(store)))
	}
	return buf.String()
}

func dumpEntry(w *strings.Builder, f DumpFlags, pos int, k Key, v []byte) {
	if !f.Contains(DumpDecoded) {
		fmt.Fprintf(w, "%d. %v = %s\n", pos, k, hexstr(v))
		return
	}
	var decoded any
	if err := MsgPack.DecodeValue(v, &decoded); err != nil {
		fmt.Fprintf(w, "%d. %v = %s\n", pos, k, hexstr(v))
		return
	}
	fmt.Fprintf(w, "%d. %v = %s  // %v\n", pos, k, hexstr(v), decoded)
}

// StateHash returns an xxhash digest of the whole store content. Two stores
// holding the same keys and values have the same hash.
func StateHash(store ScanStore) (uint64, error) {
	h := xxhash.New()
	var buf []byte
	err := store.ForEach(func(k Key, v []byte) error {
		buf = buf[:0]
		buf = append(buf, k[:]...)
		buf = appendLenPrefixed(buf, v)
		_, err := h.Write(buf)
		return err
	})
	if err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
