package core

// streaming.go provides reader helpers for CSV roster files.
//
// Files saved from Excel on Windows often start with a UTF-8 BOM and may
// contain bytes from legacy code pages. The BOM would otherwise end up in the
// first header label and break alias matching.

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewCSVSource wraps r and skips a leading UTF-8 BOM if present.
func NewCSVSource(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// SanitizeUTF8 replaces invalid UTF-8 sequences with '?'.
// Valid input is returned unchanged, byte for byte.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "?")
}
