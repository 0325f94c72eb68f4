package spread

import (
	"errors"
	"testing"
)

type profile struct {
	Name string `msgpack:"n" json:"n"`
	Age  int    `msgpack:"a" json:"a"`
}

func TestEncoding_MsgPackString(t *testing.T) {
	s := "abc"
	deepEqual(t, MsgPack.EncodeValue(nil, &s), x("a3 616263"))
	deepEqual(t, MsgPack.EncodeValue(x("ff"), &s), x("ff a3 616263"))
}

func TestEncoding_RoundTrip(t *testing.T) {
	for _, enc := range []encodingMethod{MsgPack, JSON} {
		t.Run(enc.String(), func(t *testing.T) {
			in := profile{Name: "Alice", Age: 30}
			raw := enc.EncodeValue(nil, &in)
			var out profile
			if err := enc.DecodeValue(raw, &out); err != nil {
				t.Fatal(err)
			}
			deepEqual(t, out, in)
		})
	}
}

func TestEncoding_JSONIsText(t *testing.T) {
	in := profile{Name: "Alice", Age: 30}
	deepEqual(t, string(JSON.EncodeValue(nil, &in)), `{"n":"Alice","a":30}`)
}

func TestEncoding_TrailingBytes(t *testing.T) {
	var v string
	err := MsgPack.DecodeValue(x("a3 616263 00"), &v)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("** got %v, wanted *DataError", err)
	}
	deepEqual(t, de.Off, 4)
}

func TestEncoding_Invalid(t *testing.T) {
	var v uint8
	err := MsgPack.DecodeValue(x("a3 616263"), &v)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("** got %v, wanted *DataError", err)
	}
	if de.Err == nil {
		t.Fatalf("** DataError without cause")
	}

	err = JSON.DecodeValue([]byte("{"), &v)
	if !errors.As(err, &de) {
		t.Fatalf("** got %v, wanted *DataError", err)
	}
}

func TestEncoding_EnvUsesConfiguredMethod(t *testing.T) {
	env, _ := setupWith(t, Options{Encoding: JSON})
	k := RepeatKey(0x50)
	Write(env, k, profile{Name: "Bob", Age: 7})
	deepEqual(t, string(env.ReadRaw(k)), `{"n":"Bob","a":7}`)

	v, found := Read[profile](env, k)
	if !found {
		t.Fatalf("value not found")
	}
	deepEqual(t, v, profile{Name: "Bob", Age: 7})
}

func TestEncoding_String(t *testing.T) {
	deepEqual(t, MsgPack.String(), "msgpack")
	deepEqual(t, JSON.String(), "json")
	deepEqual(t, encodingMethod(9).String(), "encoding(9)")
}
