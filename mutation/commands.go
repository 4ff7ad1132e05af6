package mutation

import (
	"github.com/stratumdb/stratum/encoding"
	"github.com/stratumdb/stratum/sqlparser"
	"github.com/stratumdb/stratum/types"
)

// MutationCommands is the ordered command sequence of one mutation.
// Insertion order is execution and reconstruction order. The sequence is
// populated once and never mutated afterwards, so concurrent readers need
// no locking.
type MutationCommands []*MutationCommand

// FromAlterCommandList classifies every child of a parsed alter-command
// list. Children whose kind is not accepted even in full alter context
// fail with UnknownMutationCommandError; no partial sequence is returned.
func FromAlterCommandList(list *sqlparser.ExpressionList, resolver types.Resolver) (MutationCommands, error) {
	cmds := make(MutationCommands, 0, len(list.Children))
	for _, child := range list.Children {
		node, isAlter := child.(*sqlparser.AlterCommand)
		if !isAlter {
			return nil, &UnknownMutationCommandError{Kind: sqlparser.KindInvalid}
		}
		cmd, ok, err := FromAlterCommand(node, true, resolver)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &UnknownMutationCommandError{Kind: node.Kind}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// AST rebuilds a syntax-tree list by cloning each retained source node in
// original order. With withPureMetadataCommands unset,
// ALTER_WITHOUT_MUTATION commands are skipped, yielding only the commands
// that drive data rewriting.
func (c MutationCommands) AST(withPureMetadataCommands bool) *sqlparser.ExpressionList {
	list := &sqlparser.ExpressionList{}
	for _, cmd := range c {
		if cmd.Type != TypeAlterWithoutMutation || withPureMetadataCommands {
			list.Children = append(list.Children, cmd.AST.Clone())
		}
	}
	return list
}

// EncodeText renders the full command list (metadata-only commands
// included) as one line and escapes it for embedding as a single field of
// a larger persisted record.
func (c MutationCommands) EncodeText() []byte {
	return []byte(encoding.EscapeString(sqlparser.String(c.AST(true))))
}

// DecodeText reverses EncodeText: it unescapes the field, re-parses the
// text with the alter-command-list grammar and classifies each child in
// full alter context. This is the single validation point guaranteeing
// the persisted form only contains supported command kinds.
func DecodeText(data []byte, resolver types.Resolver) (MutationCommands, error) {
	text, err := encoding.UnescapeString(string(data))
	if err != nil {
		return nil, err
	}
	list, err := sqlparser.ParseAlterCommandList(text)
	if err != nil {
		return nil, err
	}
	return FromAlterCommandList(list, resolver)
}

// String renders the command list for logs and diagnostics. Unlike
// EncodeText the result is not escaped and must not be embedded in a
// persisted record.
func (c MutationCommands) String() string {
	return sqlparser.String(c.AST(true))
}

// HasNonEmptyMutationCommands reports whether any command actually
// rewrites data. The scheduler skips mutations where this is false.
func (c MutationCommands) HasNonEmptyMutationCommands() bool {
	for _, cmd := range c {
		if cmd.Type != TypeEmpty && cmd.Type != TypeAlterWithoutMutation {
			return true
		}
	}
	return false
}

// ContainsBarrierCommand reports whether any command is a barrier. The
// scheduler must not run a barrier concurrently with, or reordered
// against, other commands; this only exposes the fact.
func (c MutationCommands) ContainsBarrierCommand() bool {
	for _, cmd := range c {
		if cmd.IsBarrier() {
			return true
		}
	}
	return false
}
