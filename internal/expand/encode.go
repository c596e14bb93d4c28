package expand

import (
	"strings"

	"github.com/roach88/beacon/internal/template"
)

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s as encodeURIComponent does: everything
// except A-Z a-z 0-9 and - _ . ! ~ * ' ( ) is written as UTF-8 %XX.
func EncodeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EncodeVar encodes a substituted variable value. A trailing argument list
// is left as is so `NAME(a,b)` survives as a macro call; only the part
// before it is encoded.
//
// The argument list may not contain `)`, so a value such as
// `AAA(BBB(1,2))` is encoded whole and its inner comma becomes %2C.
func EncodeVar(value string) string {
	name, argList := template.SplitKey(value)
	return EncodeComponent(name) + argList
}

// EncodeList encodes each element with EncodeVar and joins them with an
// unencoded comma.
func EncodeList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = EncodeVar(v)
	}
	return strings.Join(parts, ",")
}
