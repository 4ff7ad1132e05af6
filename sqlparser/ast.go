// Package sqlparser implements the alter-command grammar used by table
// mutations: AST node types, a hand-written lexer/parser for the
// comma-separated alter-command list, and a canonical one-line renderer.
//
// Rendering is canonical: for any tree produced by ParseAlterCommandList,
// re-parsing the rendered text yields a structurally identical tree. The
// mutation codec relies on this.
package sqlparser

import "strings"

// Node is implemented by every syntax-tree node.
type Node interface {
	// Clone returns a deep structural copy of the node.
	Clone() Node
	format(b *strings.Builder)
}

// String renders a node as canonical one-line text.
func String(n Node) string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

// AlterKind tags an AlterCommand with its command kind.
type AlterKind int

const (
	KindInvalid AlterKind = iota
	KindDelete
	KindUpdate
	KindMaterializeIndex
	KindMaterializeStatistic
	KindMaterializeProjection
	KindMaterializeColumn
	KindMaterializeTTL
	KindModifyColumn
	KindDropColumn
	KindDropIndex
	KindDropStatistic
	KindDropProjection
	KindRenameColumn

	// Metadata-only kinds: parsed and carried through a mutation for
	// faithful reconstruction, but they rewrite no data.
	KindAddColumn
	KindCommentColumn
	KindModifyTTL
	KindModifySetting

	// Partition-manipulation kinds: valid alter commands, but they move
	// whole data parts and can never ride inside a mutation.
	KindDropPartition
	KindAttachPartition
	KindFreeze
)

var kindNames = map[AlterKind]string{
	KindInvalid:               "INVALID",
	KindDelete:                "DELETE",
	KindUpdate:                "UPDATE",
	KindMaterializeIndex:      "MATERIALIZE INDEX",
	KindMaterializeStatistic:  "MATERIALIZE STATISTIC",
	KindMaterializeProjection: "MATERIALIZE PROJECTION",
	KindMaterializeColumn:     "MATERIALIZE COLUMN",
	KindMaterializeTTL:        "MATERIALIZE TTL",
	KindModifyColumn:          "MODIFY COLUMN",
	KindDropColumn:            "DROP COLUMN",
	KindDropIndex:             "DROP INDEX",
	KindDropStatistic:         "DROP STATISTIC",
	KindDropProjection:        "DROP PROJECTION",
	KindRenameColumn:          "RENAME COLUMN",
	KindAddColumn:             "ADD COLUMN",
	KindCommentColumn:         "COMMENT COLUMN",
	KindModifyTTL:             "MODIFY TTL",
	KindModifySetting:         "MODIFY SETTING",
	KindDropPartition:         "DROP PARTITION",
	KindAttachPartition:       "ATTACH PARTITION",
	KindFreeze:                "FREEZE",
}

func (k AlterKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "INVALID"
}

// MetadataOnly reports whether the kind changes table metadata without
// rewriting or moving any data.
func (k AlterKind) MetadataOnly() bool {
	switch k {
	case KindAddColumn, KindCommentColumn, KindModifyTTL, KindModifySetting:
		return true
	}
	return false
}

// ManipulatesParts reports whether the kind attaches, drops or freezes
// whole data parts rather than rewriting rows in place.
func (k AlterKind) ManipulatesParts() bool {
	switch k {
	case KindDropPartition, KindAttachPartition, KindFreeze:
		return true
	}
	return false
}

// Identifier is a column, index or projection name.
type Identifier struct {
	Name string
}

func NewIdentifier(name string) *Identifier { return &Identifier{Name: name} }

func (i *Identifier) Clone() Node { return &Identifier{Name: i.Name} }

func (i *Identifier) format(b *strings.Builder) {
	b.WriteString(quoteIdentifier(i.Name))
}

func (i *Identifier) String() string { return String(i) }

// Expr is an opaque expression retained as a canonical token span. The
// mutation core never inspects expression structure; it only clones and
// renders it.
type Expr struct {
	Text string
}

func NewExpr(text string) *Expr { return &Expr{Text: text} }

func (e *Expr) Clone() Node { return &Expr{Text: e.Text} }

func (e *Expr) format(b *strings.Builder) { b.WriteString(e.Text) }

func (e *Expr) String() string { return e.Text }

// Assignment is one "column = expression" pair in an UPDATE command.
type Assignment struct {
	ColumnName string
	Expression *Expr
}

func (a *Assignment) Clone() Node {
	return &Assignment{
		ColumnName: a.ColumnName,
		Expression: cloneExpr(a.Expression),
	}
}

func (a *Assignment) format(b *strings.Builder) {
	b.WriteString(quoteIdentifier(a.ColumnName))
	b.WriteString(" = ")
	a.Expression.format(b)
}

// ColumnDeclaration is the "name type" pair of MODIFY COLUMN / ADD COLUMN.
// The type stays textual; resolution to a descriptor happens in the types
// registry, not here.
type ColumnDeclaration struct {
	Name string
	Type string
}

func (c *ColumnDeclaration) Clone() Node {
	return &ColumnDeclaration{Name: c.Name, Type: c.Type}
}

func (c *ColumnDeclaration) format(b *strings.Builder) {
	b.WriteString(quoteIdentifier(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)
}

// AlterCommand is one parsed alter sub-command. Only the fields relevant
// to Kind are set; everything else stays zero.
type AlterCommand struct {
	Kind AlterKind

	Predicate *Expr // DELETE / UPDATE filter
	Partition *Expr // IN PARTITION scope, or the partition operand itself

	Assignments []*Assignment // UPDATE

	Column     *Identifier // column-targeted kinds, RENAME source
	RenameTo   *Identifier // RENAME target
	Index      *Identifier
	Projection *Identifier

	StatisticColumns []*Identifier

	ColumnDecl *ColumnDeclaration // MODIFY COLUMN / ADD COLUMN

	Comment      string // COMMENT COLUMN payload
	TTL          *Expr  // MODIFY TTL
	SettingName  string // MODIFY SETTING
	SettingValue *Expr

	// Clear distinguishes CLEAR (wipe data, keep metadata) from DROP for
	// column/index/statistic/projection kinds.
	Clear bool
}

func (c *AlterCommand) Clone() Node {
	out := &AlterCommand{
		Kind:         c.Kind,
		Predicate:    cloneExpr(c.Predicate),
		Partition:    cloneExpr(c.Partition),
		Column:       cloneIdentifier(c.Column),
		RenameTo:     cloneIdentifier(c.RenameTo),
		Index:        cloneIdentifier(c.Index),
		Projection:   cloneIdentifier(c.Projection),
		Comment:      c.Comment,
		TTL:          cloneExpr(c.TTL),
		SettingName:  c.SettingName,
		SettingValue: cloneExpr(c.SettingValue),
		Clear:        c.Clear,
	}
	if c.ColumnDecl != nil {
		out.ColumnDecl = c.ColumnDecl.Clone().(*ColumnDeclaration)
	}
	for _, a := range c.Assignments {
		out.Assignments = append(out.Assignments, a.Clone().(*Assignment))
	}
	for _, id := range c.StatisticColumns {
		out.StatisticColumns = append(out.StatisticColumns, id.Clone().(*Identifier))
	}
	return out
}

func (c *AlterCommand) format(b *strings.Builder) {
	switch c.Kind {
	case KindDelete:
		b.WriteString("DELETE")
		c.formatPartition(b)
		b.WriteString(" WHERE ")
		c.Predicate.format(b)

	case KindUpdate:
		b.WriteString("UPDATE ")
		for i, a := range c.Assignments {
			if i > 0 {
				b.WriteString(", ")
			}
			a.format(b)
		}
		c.formatPartition(b)
		b.WriteString(" WHERE ")
		c.Predicate.format(b)

	case KindMaterializeIndex:
		b.WriteString("MATERIALIZE INDEX ")
		c.Index.format(b)
		c.formatPartition(b)

	case KindMaterializeStatistic:
		b.WriteString("MATERIALIZE STATISTIC ")
		c.formatStatisticColumns(b)
		c.formatPartition(b)

	case KindMaterializeProjection:
		b.WriteString("MATERIALIZE PROJECTION ")
		c.Projection.format(b)
		c.formatPartition(b)

	case KindMaterializeColumn:
		b.WriteString("MATERIALIZE COLUMN ")
		c.Column.format(b)
		c.formatPartition(b)

	case KindMaterializeTTL:
		b.WriteString("MATERIALIZE TTL")
		c.formatPartition(b)

	case KindModifyColumn:
		b.WriteString("MODIFY COLUMN ")
		c.ColumnDecl.format(b)

	case KindDropColumn:
		b.WriteString(dropOrClear(c.Clear))
		b.WriteString(" COLUMN ")
		c.Column.format(b)
		c.formatPartition(b)

	case KindDropIndex:
		b.WriteString(dropOrClear(c.Clear))
		b.WriteString(" INDEX ")
		c.Index.format(b)
		c.formatPartition(b)

	case KindDropStatistic:
		b.WriteString(dropOrClear(c.Clear))
		b.WriteString(" STATISTIC ")
		c.formatStatisticColumns(b)
		c.formatPartition(b)

	case KindDropProjection:
		b.WriteString(dropOrClear(c.Clear))
		b.WriteString(" PROJECTION ")
		c.Projection.format(b)
		c.formatPartition(b)

	case KindRenameColumn:
		b.WriteString("RENAME COLUMN ")
		c.Column.format(b)
		b.WriteString(" TO ")
		c.RenameTo.format(b)

	case KindAddColumn:
		b.WriteString("ADD COLUMN ")
		c.ColumnDecl.format(b)

	case KindCommentColumn:
		b.WriteString("COMMENT COLUMN ")
		c.Column.format(b)
		b.WriteString(" ")
		b.WriteString(quoteString(c.Comment))

	case KindModifyTTL:
		b.WriteString("MODIFY TTL ")
		c.TTL.format(b)

	case KindModifySetting:
		b.WriteString("MODIFY SETTING ")
		b.WriteString(quoteIdentifier(c.SettingName))
		b.WriteString(" = ")
		c.SettingValue.format(b)

	case KindDropPartition:
		b.WriteString("DROP PARTITION ")
		c.Partition.format(b)

	case KindAttachPartition:
		b.WriteString("ATTACH PARTITION ")
		c.Partition.format(b)

	case KindFreeze:
		b.WriteString("FREEZE")
		if c.Partition != nil {
			b.WriteString(" PARTITION ")
			c.Partition.format(b)
		}
	}
}

func (c *AlterCommand) formatPartition(b *strings.Builder) {
	if c.Partition != nil {
		b.WriteString(" IN PARTITION ")
		c.Partition.format(b)
	}
}

func (c *AlterCommand) formatStatisticColumns(b *strings.Builder) {
	for i, id := range c.StatisticColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		id.format(b)
	}
}

func (c *AlterCommand) String() string { return String(c) }

func dropOrClear(clear bool) string {
	if clear {
		return "CLEAR"
	}
	return "DROP"
}

// ExpressionList is an ordered list of nodes, rendered comma-separated on
// one line.
type ExpressionList struct {
	Children []Node
}

func (l *ExpressionList) Clone() Node {
	out := &ExpressionList{}
	for _, child := range l.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

func (l *ExpressionList) format(b *strings.Builder) {
	for i, child := range l.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		child.format(b)
	}
}

func (l *ExpressionList) String() string { return String(l) }

func cloneExpr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	return e.Clone().(*Expr)
}

func cloneIdentifier(i *Identifier) *Identifier {
	if i == nil {
		return nil
	}
	return i.Clone().(*Identifier)
}
