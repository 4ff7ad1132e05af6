package encoding

import (
	"fmt"
	"strings"
)

// The escaped-string codec embeds arbitrary one-line text as a single
// scalar field inside a larger serialized record. EscapeString and
// UnescapeString are exact inverses for every input; control characters
// and the backslash itself are backslash-escaped so the result never
// contains an unescaped structural delimiter.

// UnescapeError reports a malformed escape sequence during decoding.
type UnescapeError struct {
	Pos int
	Msg string
}

func (e *UnescapeError) Error() string {
	return fmt.Sprintf("invalid escape at offset %d: %s", e.Pos, e.Msg)
}

// EscapeString escapes s for embedding as one field of a serialized
// record.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case 0:
			b.WriteString(`\0`)
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeString is the exact inverse of EscapeString. A truncated or
// unknown escape sequence is an error, not a best-effort result.
func UnescapeString(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", &UnescapeError{Pos: i - 1, Msg: "truncated escape sequence"}
		}
		switch e := s[i]; e {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0':
			b.WriteByte(0)
		case '\'':
			b.WriteByte('\'')
		default:
			return "", &UnescapeError{Pos: i, Msg: fmt.Sprintf("unknown escape %q", e)}
		}
	}
	return b.String(), nil
}
