package spread

import (
	"encoding/binary"
	"io"
)

// appendLenPrefixed appends the uvarint length of chunk, then chunk itself.
func appendLenPrefixed(buf []byte, chunk []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(chunk)))
	return append(buf, chunk...)
}

// bytesBuilder lets an encoder append to a caller-provided slice.
type bytesBuilder struct {
	Buf []byte
}

var (
	_ io.Writer     = (*bytesBuilder)(nil)
	_ io.ByteWriter = (*bytesBuilder)(nil)
)

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = append(bb.Buf, b...)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(bb.Buf, v)
	return nil
}
