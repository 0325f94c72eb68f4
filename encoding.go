package spread

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type encodingMethod int

const (
	MsgPack encodingMethod = iota
	JSON

	defaultValueEncoding = MsgPack
)

func (enc encodingMethod) String() string {
	switch enc {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("encoding(%d)", int(enc))
	}
}

func (enc encodingMethod) EncodeValue(buf []byte, v any) []byte {
	switch enc {
	case MsgPack:
		bb := bytesBuilder{buf}
		enc := msgpack.GetEncoder()
		enc.Reset(&bb)
		enc.SetSortMapKeys(true)
		err := enc.Encode(v)
		msgpack.PutEncoder(enc)
		if err != nil {
			panic(fmt.Errorf("failed to encode %T using MsgPack: %w", v, err))
		}
		return bb.Buf
	case JSON:
		raw, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Errorf("failed to encode %T to JSON: %w", v, err))
		}
		return append(buf, raw...)
	default:
		panic("unsupported encoding")
	}
}

// DecodeValue decodes buf into the value pointed to by ptr.
func (enc encodingMethod) DecodeValue(buf []byte, ptr any) error {
	switch enc {
	case MsgPack:
		var r bytes.Reader
		r.Reset(buf)
		dec := msgpack.GetDecoder()
		dec.Reset(&r)
		err := dec.Decode(ptr)
		msgpack.PutDecoder(dec)
		if err != nil {
			return dataErrf(buf, 0, err, "failed to decode msgpack into %T", ptr)
		}
		if r.Len() != 0 {
			return dataErrf(buf, len(buf)-r.Len(), nil, "%d trailing bytes after msgpack %T", r.Len(), ptr)
		}
		return nil
	case JSON:
		err := json.Unmarshal(buf, ptr)
		if err != nil {
			return dataErrf(buf, 0, err, "failed to decode JSON into %T", ptr)
		}
		return nil
	default:
		panic("unsupported encoding")
	}
}
