package sqlparser

import (
	"fmt"
	"strings"
)

// ParseAlterCommandList parses a one-line, comma-separated list of alter
// commands into an ExpressionList of *AlterCommand children.
func ParseAlterCommandList(text string) (*ExpressionList, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	list := &ExpressionList{}
	for {
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, cmd)
		if p.peek().typ == tokenEOF {
			return list, nil
		}
		if err := p.expectOp(","); err != nil {
			return nil, err
		}
	}
}

// ParseAlterCommand parses exactly one alter command.
func ParseAlterCommand(text string) (*AlterCommand, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	cmd, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokenEOF {
		return nil, p.errorf("unexpected trailing input")
	}
	return cmd, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

// matchKeyword consumes the next token if it is the given bare keyword
// (case-insensitive).
func (p *parser) matchKeyword(kw string) bool {
	t := p.peek()
	if t.typ == tokenIdent && strings.EqualFold(t.text, kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.matchKeyword(kw) {
		return p.errorf("expected %s, found %q", kw, p.peek().text)
	}
	return nil
}

func (p *parser) expectOp(op string) error {
	t := p.peek()
	if t.typ != tokenOp || t.text != op {
		return p.errorf("expected %q, found %q", op, t.text)
	}
	p.next()
	return nil
}

func (p *parser) parseIdentifier() (*Identifier, error) {
	t := p.peek()
	if t.typ != tokenIdent {
		return nil, p.errorf("expected identifier, found %q", t.text)
	}
	p.next()
	return &Identifier{Name: t.text}, nil
}

func (p *parser) parseCommand() (*AlterCommand, error) {
	switch {
	case p.matchKeyword("DELETE"):
		return p.parseDelete()
	case p.matchKeyword("UPDATE"):
		return p.parseUpdate()
	case p.matchKeyword("MATERIALIZE"):
		return p.parseMaterialize()
	case p.matchKeyword("MODIFY"):
		return p.parseModify()
	case p.matchKeyword("DROP"):
		return p.parseDropOrClear(false)
	case p.matchKeyword("CLEAR"):
		return p.parseDropOrClear(true)
	case p.matchKeyword("RENAME"):
		return p.parseRename()
	case p.matchKeyword("ADD"):
		return p.parseAddColumn()
	case p.matchKeyword("COMMENT"):
		return p.parseCommentColumn()
	case p.matchKeyword("ATTACH"):
		return p.parseAttachPartition()
	case p.matchKeyword("FREEZE"):
		return p.parseFreeze()
	}
	return nil, p.errorf("expected alter command, found %q", p.peek().text)
}

func (p *parser) parseDelete() (*AlterCommand, error) {
	cmd := &AlterCommand{Kind: KindDelete}
	if err := p.parseInPartition(cmd); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	pred, err := p.parseExprUntil()
	if err != nil {
		return nil, err
	}
	cmd.Predicate = pred
	return cmd, nil
}

func (p *parser) parseUpdate() (*AlterCommand, error) {
	cmd := &AlterCommand{Kind: KindUpdate}
	for {
		col, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		expr, err := p.parseExprUntil("WHERE", "IN")
		if err != nil {
			return nil, err
		}
		cmd.Assignments = append(cmd.Assignments, &Assignment{
			ColumnName: col.Name,
			Expression: expr,
		})
		// another assignment only if "ident =" follows the comma
		if p.peek().typ == tokenOp && p.peek().text == "," &&
			p.peekAt(1).typ == tokenIdent &&
			p.peekAt(2).typ == tokenOp && p.peekAt(2).text == "=" {
			p.next()
			continue
		}
		break
	}
	if err := p.parseInPartition(cmd); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	pred, err := p.parseExprUntil()
	if err != nil {
		return nil, err
	}
	cmd.Predicate = pred
	return cmd, nil
}

func (p *parser) parseMaterialize() (*AlterCommand, error) {
	switch {
	case p.matchKeyword("INDEX"):
		cmd := &AlterCommand{Kind: KindMaterializeIndex}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Index = name
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("STATISTIC"):
		cmd := &AlterCommand{Kind: KindMaterializeStatistic}
		cols, err := p.parseStatisticColumns()
		if err != nil {
			return nil, err
		}
		cmd.StatisticColumns = cols
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("PROJECTION"):
		cmd := &AlterCommand{Kind: KindMaterializeProjection}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Projection = name
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("COLUMN"):
		cmd := &AlterCommand{Kind: KindMaterializeColumn}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Column = name
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("TTL"):
		cmd := &AlterCommand{Kind: KindMaterializeTTL}
		return cmd, p.parseInPartition(cmd)
	}
	return nil, p.errorf("expected INDEX, STATISTIC, PROJECTION, COLUMN or TTL after MATERIALIZE")
}

func (p *parser) parseModify() (*AlterCommand, error) {
	switch {
	case p.matchKeyword("COLUMN"):
		decl, err := p.parseColumnDeclaration()
		if err != nil {
			return nil, err
		}
		return &AlterCommand{Kind: KindModifyColumn, ColumnDecl: decl}, nil

	case p.matchKeyword("TTL"):
		expr, err := p.parseExprUntil()
		if err != nil {
			return nil, err
		}
		return &AlterCommand{Kind: KindModifyTTL, TTL: expr}, nil

	case p.matchKeyword("SETTING"):
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		value, err := p.parseExprUntil()
		if err != nil {
			return nil, err
		}
		return &AlterCommand{Kind: KindModifySetting, SettingName: name.Name, SettingValue: value}, nil
	}
	return nil, p.errorf("expected COLUMN, TTL or SETTING after MODIFY")
}

func (p *parser) parseDropOrClear(clear bool) (*AlterCommand, error) {
	switch {
	case p.matchKeyword("COLUMN"):
		cmd := &AlterCommand{Kind: KindDropColumn, Clear: clear}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Column = name
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("INDEX"):
		cmd := &AlterCommand{Kind: KindDropIndex, Clear: clear}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Index = name
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("STATISTIC"):
		cmd := &AlterCommand{Kind: KindDropStatistic, Clear: clear}
		cols, err := p.parseStatisticColumns()
		if err != nil {
			return nil, err
		}
		cmd.StatisticColumns = cols
		return cmd, p.parseInPartition(cmd)

	case p.matchKeyword("PROJECTION"):
		cmd := &AlterCommand{Kind: KindDropProjection, Clear: clear}
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cmd.Projection = name
		return cmd, p.parseInPartition(cmd)

	case !clear && p.matchKeyword("PARTITION"):
		part, err := p.parseExprUntil()
		if err != nil {
			return nil, err
		}
		return &AlterCommand{Kind: KindDropPartition, Partition: part}, nil
	}
	if clear {
		return nil, p.errorf("expected COLUMN, INDEX, STATISTIC or PROJECTION after CLEAR")
	}
	return nil, p.errorf("expected COLUMN, INDEX, STATISTIC, PROJECTION or PARTITION after DROP")
}

func (p *parser) parseRename() (*AlterCommand, error) {
	if err := p.expectKeyword("COLUMN"); err != nil {
		return nil, err
	}
	from, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TO"); err != nil {
		return nil, err
	}
	to, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	return &AlterCommand{Kind: KindRenameColumn, Column: from, RenameTo: to}, nil
}

func (p *parser) parseAddColumn() (*AlterCommand, error) {
	if err := p.expectKeyword("COLUMN"); err != nil {
		return nil, err
	}
	decl, err := p.parseColumnDeclaration()
	if err != nil {
		return nil, err
	}
	return &AlterCommand{Kind: KindAddColumn, ColumnDecl: decl}, nil
}

func (p *parser) parseCommentColumn() (*AlterCommand, error) {
	if err := p.expectKeyword("COLUMN"); err != nil {
		return nil, err
	}
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.typ != tokenString {
		return nil, p.errorf("expected string literal, found %q", t.text)
	}
	p.next()
	return &AlterCommand{Kind: KindCommentColumn, Column: name, Comment: t.text}, nil
}

func (p *parser) parseAttachPartition() (*AlterCommand, error) {
	if err := p.expectKeyword("PARTITION"); err != nil {
		return nil, err
	}
	part, err := p.parseExprUntil()
	if err != nil {
		return nil, err
	}
	return &AlterCommand{Kind: KindAttachPartition, Partition: part}, nil
}

func (p *parser) parseFreeze() (*AlterCommand, error) {
	cmd := &AlterCommand{Kind: KindFreeze}
	if p.matchKeyword("PARTITION") {
		part, err := p.parseExprUntil()
		if err != nil {
			return nil, err
		}
		cmd.Partition = part
	}
	return cmd, nil
}

func (p *parser) parseInPartition(cmd *AlterCommand) error {
	if p.peek().typ == tokenIdent && strings.EqualFold(p.peek().text, "IN") {
		p.next()
		if err := p.expectKeyword("PARTITION"); err != nil {
			return err
		}
		part, err := p.parseExprUntil("WHERE")
		if err != nil {
			return err
		}
		cmd.Partition = part
	}
	return nil
}

func (p *parser) parseStatisticColumns() ([]*Identifier, error) {
	var cols []*Identifier
	for {
		col, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		// another column only if a bare identifier follows the comma and
		// is not the start of the next command
		if p.peek().typ == tokenOp && p.peek().text == "," &&
			p.peekAt(1).typ == tokenIdent && !isCommandKeyword(p.peekAt(1).text) {
			p.next()
			continue
		}
		return cols, nil
	}
}

func (p *parser) parseColumnDeclaration() (*ColumnDeclaration, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	typeExpr, err := p.parseExprUntil()
	if err != nil {
		return nil, err
	}
	return &ColumnDeclaration{Name: name.Name, Type: typeExpr.Text}, nil
}

// parseExprUntil captures an opaque expression: tokens up to a depth-zero
// comma, EOF, or one of the given stop keywords. The captured span is
// stored as canonical text.
func (p *parser) parseExprUntil(stop ...string) (*Expr, error) {
	var captured []token
	depth := 0
	for {
		t := p.peek()
		if t.typ == tokenEOF {
			break
		}
		if depth == 0 {
			if t.typ == tokenOp && t.text == "," {
				break
			}
			if t.typ == tokenIdent && matchesAny(t.text, stop) {
				break
			}
		}
		if t.typ == tokenOp {
			switch t.text {
			case "(", "[":
				depth++
			case ")", "]":
				depth--
				if depth < 0 {
					return nil, p.errorf("unbalanced %q", t.text)
				}
			}
		}
		captured = append(captured, t)
		p.next()
	}
	if len(captured) == 0 {
		return nil, p.errorf("expected expression")
	}
	if depth != 0 {
		return nil, p.errorf("unbalanced parentheses in expression")
	}
	return &Expr{Text: canonicalText(captured)}, nil
}

func canonicalText(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && needSpace(toks[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(canonicalToken(t))
	}
	return b.String()
}

func matchesAny(word string, set []string) bool {
	for _, s := range set {
		if strings.EqualFold(word, s) {
			return true
		}
	}
	return false
}

var commandKeywords = map[string]bool{
	"DELETE":      true,
	"UPDATE":      true,
	"MATERIALIZE": true,
	"MODIFY":      true,
	"DROP":        true,
	"CLEAR":       true,
	"RENAME":      true,
	"ADD":         true,
	"COMMENT":     true,
	"ATTACH":      true,
	"FREEZE":      true,
}

func isCommandKeyword(word string) bool {
	return commandKeywords[strings.ToUpper(word)]
}
