// Package types resolves textual type names to immutable type
// descriptors. Resolution is the only service the mutation core consumes
// from here: a modify-column mutation command carries the resolved
// descriptor of its target column.
package types

import (
	"fmt"
	"strings"
)

// Type is an immutable resolved type descriptor. Name is the canonical
// rendering, Family the registered base family. Args holds rendered type
// arguments for parametric families, nil otherwise.
type Type struct {
	Name   string
	Family string
	Args   []string
}

func (t *Type) String() string { return t.Name }

// Parametric reports whether the type carries arguments.
func (t *Type) Parametric() bool { return len(t.Args) > 0 }

// Resolver resolves a textual type name to a descriptor.
type Resolver interface {
	Get(name string) (*Type, error)
}

// UnknownTypeError reports a type name with no registered family.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown data type: %s", e.Name)
}

// MalformedTypeError reports a type name that does not lex as
// "Family" or "Family(arg, ...)".
type MalformedTypeError struct {
	Name string
	Msg  string
}

func (e *MalformedTypeError) Error() string {
	return fmt.Sprintf("malformed type name %q: %s", e.Name, e.Msg)
}

// family describes one registered base family.
type family struct {
	name    string // canonical spelling
	minArgs int
	maxArgs int  // -1 = unbounded
	nested  bool // arguments are themselves types
}

func (f *family) argCountValid(n int) bool {
	if n < f.minArgs {
		return false
	}
	return f.maxArgs < 0 || n <= f.maxArgs
}

// splitTypeName splits "Family(a, b)" into the family word and raw
// argument strings at top-level commas.
func splitTypeName(name string) (string, []string, error) {
	name = strings.TrimSpace(name)
	open := strings.IndexByte(name, '(')
	if open < 0 {
		if name == "" {
			return "", nil, &MalformedTypeError{Name: name, Msg: "empty name"}
		}
		return name, nil, nil
	}
	if !strings.HasSuffix(name, ")") {
		return "", nil, &MalformedTypeError{Name: name, Msg: "missing closing parenthesis"}
	}
	head := strings.TrimSpace(name[:open])
	if head == "" {
		return "", nil, &MalformedTypeError{Name: name, Msg: "missing family name"}
	}
	body := name[open+1 : len(name)-1]

	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", nil, &MalformedTypeError{Name: name, Msg: "unbalanced parentheses"}
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, &MalformedTypeError{Name: name, Msg: "unbalanced parentheses"}
	}
	last := strings.TrimSpace(body[start:])
	if last == "" && len(args) == 0 {
		return "", nil, &MalformedTypeError{Name: name, Msg: "empty argument list"}
	}
	if last == "" {
		return "", nil, &MalformedTypeError{Name: name, Msg: "trailing comma in argument list"}
	}
	args = append(args, last)
	return head, args, nil
}

// looksLikeType reports whether a raw argument is a type name rather than
// a literal such as a precision number.
func looksLikeType(arg string) bool {
	if arg == "" {
		return false
	}
	c := arg[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
