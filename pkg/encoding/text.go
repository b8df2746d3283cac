// Package encoding normalises the text encodings found in hand-authored
// OBJ and MTL files before they are parsed.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText returns data as UTF-8.
//
// A UTF-8 or UTF-16 byte order mark selects the encoding and is removed.
// Without a BOM, valid UTF-8 passes through unchanged and anything else is
// decoded as Windows-1252, which is what most exporters on Windows emit.
func DecodeText(data []byte) []byte {
	bomAware := unicode.BOMOverride(transform.Nop)
	out, _, err := transform.Bytes(bomAware, data)
	if err != nil {
		out = data
	}
	if utf8.Valid(out) {
		return out
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), out)
	if err != nil {
		return out
	}
	return decoded
}

// NormalizeAssetPath converts a texture or material reference written in a
// file to a forward-slash relative path.
func NormalizeAssetPath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "./")
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
