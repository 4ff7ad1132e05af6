package sqlparser

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOp
)

// token is one lexed unit. For tokenString and backquoted identifiers,
// Text holds the decoded value, not the source spelling.
type token struct {
	typ  tokenType
	text string
	pos  int
}

// SyntaxError reports a malformed alter-command list with the byte offset
// of the failure.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// multi-char operators, longest match first
var multiOps = []string{"<=", ">=", "!=", "<>", "||", "->"}

const singleOps = "(),=<>+-*/%.[]:?"

func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isIdentStart(c):
			start := i
			for i < len(s) && isIdentPart(s[i]) {
				i++
			}
			toks = append(toks, token{typ: tokenIdent, text: s[start:i], pos: start})

		case c >= '0' && c <= '9':
			start := i
			for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
				i++
			}
			if i < len(s) && s[i] == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				i++
				for i < len(s) && s[i] >= '0' && s[i] <= '9' {
					i++
				}
			}
			toks = append(toks, token{typ: tokenNumber, text: s[start:i], pos: start})

		case c == '\'':
			value, next, err := lexQuoted(s, i, '\'')
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokenString, text: value, pos: i})
			i = next

		case c == '`':
			value, next, err := lexQuoted(s, i, '`')
			if err != nil {
				return nil, err
			}
			if value == "" {
				return nil, &SyntaxError{Pos: i, Msg: "empty quoted identifier"}
			}
			toks = append(toks, token{typ: tokenIdent, text: value, pos: i})
			i = next

		default:
			matched := false
			for _, op := range multiOps {
				if strings.HasPrefix(s[i:], op) {
					toks = append(toks, token{typ: tokenOp, text: op, pos: i})
					i += len(op)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.IndexByte(singleOps, c) < 0 {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{typ: tokenOp, text: string(c), pos: i})
			i++
		}
	}
	toks = append(toks, token{typ: tokenEOF, pos: len(s)})
	return toks, nil
}

// lexQuoted reads a quote-delimited literal starting at s[start] and
// returns the decoded value and the index just past the closing quote.
func lexQuoted(s string, start int, quote byte) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(s) {
		c := s[i]
		if c == quote {
			// doubled quote is a literal quote character
			if i+1 < len(s) && s[i+1] == quote {
				b.WriteByte(quote)
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		if c == '\\' {
			if i+1 >= len(s) {
				return "", 0, &SyntaxError{Pos: i, Msg: "unterminated escape sequence"}
			}
			b.WriteByte(unescapeChar(s[i+1]))
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, &SyntaxError{Pos: start, Msg: "unterminated quoted literal"}
}

func unescapeChar(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case '0':
		return 0
	default:
		return c
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// quoteIdentifier renders an identifier, backquoting it only when it is
// not a plain bare word. Bare words render as-is so canonical text stays
// stable across re-parses.
func quoteIdentifier(name string) string {
	if isBareIdentifier(name) {
		return name
	}
	var b strings.Builder
	b.WriteByte('`')
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '`', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('`')
	return b.String()
}

func isBareIdentifier(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return true
}

// quoteString renders a string literal with canonical backslash escaping.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
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
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// canonicalToken renders one token back to canonical source text.
func canonicalToken(t token) string {
	switch t.typ {
	case tokenIdent:
		return quoteIdentifier(t.text)
	case tokenString:
		return quoteString(t.text)
	default:
		return t.text
	}
}

// needSpace decides token separation in canonical expression text. The
// rule only looks at the adjacent pair, so canonical text re-lexes to the
// same token sequence.
func needSpace(prev, next token) bool {
	switch prev.text {
	case "(", "[", ".":
		if prev.typ == tokenOp {
			return false
		}
	}
	switch next.text {
	case ")", "]", ",", ".":
		if next.typ == tokenOp {
			return false
		}
	case "(":
		// function call: no space between a name and its argument list
		if next.typ == tokenOp && prev.typ == tokenIdent {
			return false
		}
	}
	return true
}
