package spread

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyCollision is reported in strict mode when a single push or clear pass
// touches the same key twice, which means two fields were allocated
// overlapping slots.
var ErrKeyCollision = errors.New("key collision")

// DataError describes stored bytes that could not be decoded. Off is the
// position of the problem within Data, when known.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Msg)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	fmt.Fprintf(&buf, " [%d bytes at offset %d: %s]", len(e.Data), e.Off, abbrevHex(e.Data))
	return buf.String()
}

// abbrevHex keeps the head and the tail of long values.
func abbrevHex(data []byte) string {
	const head, tail = 64, 32
	if len(data) <= head+tail {
		return hexstr(data)
	}
	return hexstr(data[:head]) + "..." + hexstr(data[len(data)-tail:])
}

// KeyError describes a fatal problem with the data at a particular key:
// undecodable bytes or overlapping allocation.
type KeyError struct {
	Key Key
	Msg string
	Err error
}

func keyErrf(key Key, err error, format string, args ...any) error {
	return &KeyError{key, fmt.Sprintf(format, args...), err}
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func (e *KeyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Key.String())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// StoreError carries an error returned by the backing store. It is raised
// as a panic by cell operations; Env.Try turns it back into Err.
type StoreError struct {
	Op  string
	Key Key
	Err error
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("spread: %s %v: %v", e.Op, e.Key, e.Err)
}
