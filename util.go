package spread

import (
	"encoding/hex"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func nonNil[T any](v *T) *T {
	if v == nil {
		panic("nil")
	}
	return v
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}
