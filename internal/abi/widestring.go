package abi

import "unicode/utf16"

// WideString encodes s as UTF-16 code units with a terminating NUL, the
// return convention the calling terminal expects.
func WideString(s string) []uint16 {
	return append(utf16.Encode([]rune(s)), 0)
}

// GoString decodes a NUL-terminated UTF-16 sequence back into a Go string.
// Anything past the first NUL is ignored.
func GoString(w []uint16) string {
	for i, u := range w {
		if u == 0 {
			w = w[:i]
			break
		}
	}
	return string(utf16.Decode(w))
}
