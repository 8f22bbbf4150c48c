package schema

import (
	"fmt"

	"github.com/jkminder/data2neo/internal/location"
)

// parser is a hand-rolled recursive-descent parser over the token stream
// produced by [lex], building the AST types declared in ast.go. It assumes
// a well-formed INDENT/DEDENT stream (lex's own invariant).
type parser struct {
	toks []token
	pos  int
}

// parseFile parses a complete schema text into a [File].
func parseFile(source location.SourceID, src string) (*File, error) {
	toks, err := lex(source, src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var entities []EntityBlock
	p.skipNewlines()
	for !p.at(tokEOF) {
		eb, err := p.parseEntityBlock()
		if err != nil {
			return nil, err
		}
		entities = append(entities, eb)
		p.skipNewlines()
	}
	return &File{Entities: entities}, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.at(tokNewline) {
		p.advance()
	}
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if !p.at(k) {
		return token{}, &ParseError{Span: p.cur().span,
			Message: fmt.Sprintf("expected %s, found %q", what, p.cur().text)}
	}
	return p.advance(), nil
}

// parseEntityBlock parses `entity_block := label_expr ':' NEWLINE INDENT
// sub_block+ DEDENT`.
func (p *parser) parseEntityBlock() (EntityBlock, error) {
	startSpan := p.cur().span
	entityType, err := p.parseValueExpr()
	if err != nil {
		return EntityBlock{}, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return EntityBlock{}, err
	}
	if _, err := p.expect(tokNewline, "newline"); err != nil {
		return EntityBlock{}, err
	}
	p.skipNewlines()
	if _, err := p.expect(tokIndent, "indented block"); err != nil {
		return EntityBlock{}, err
	}

	var subs []SubBlock
	for !p.at(tokDedent) && !p.at(tokEOF) {
		sb, err := p.parseSubBlock()
		if err != nil {
			return EntityBlock{}, err
		}
		subs = append(subs, sb)
		p.skipNewlines()
	}
	if p.at(tokDedent) {
		p.advance()
	}
	return EntityBlock{EntityType: entityType, SubBlocks: subs, Span: location.Merge(startSpan, p.cur().span)}, nil
}

// parseSubBlock parses `sub_block := wrapper? (node_block | relationship_block)`.
func (p *parser) parseSubBlock() (SubBlock, error) {
	var wrap *WrapperApp
	if p.at(tokIdent) && p.isWrapperLine() {
		w, err := p.parseWrapperApp()
		if err != nil {
			return SubBlock{}, err
		}
		wrap = &w
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return SubBlock{}, err
		}
		if _, err := p.expect(tokNewline, "newline"); err != nil {
			return SubBlock{}, err
		}
		p.skipNewlines()
		if _, err := p.expect(tokIndent, "indented block"); err != nil {
			return SubBlock{}, err
		}
	}

	var sb SubBlock
	switch {
	case p.at(tokIdent) && p.cur().text == "NODE":
		p.advance()
		nb, err := p.parseNodeBlock()
		if err != nil {
			return SubBlock{}, err
		}
		nb.Wrapper = wrap
		sb.Node = &nb
	case p.at(tokIdent) && (p.cur().text == "RELATIONSHIP" || p.cur().text == "RELATION"):
		p.advance()
		rb, err := p.parseRelationshipBlock()
		if err != nil {
			return SubBlock{}, err
		}
		rb.Wrapper = wrap
		sb.Relationship = &rb
	default:
		return SubBlock{}, &ParseError{Span: p.cur().span,
			Message: fmt.Sprintf("expected NODE or RELATIONSHIP, found %q", p.cur().text)}
	}

	if wrap != nil {
		if _, err := p.expect(tokDedent, "end of wrapped block"); err != nil {
			return SubBlock{}, err
		}
	}
	return sb, nil
}

// isWrapperLine distinguishes a `wrapper := IDENT '(' ... ')' ':'` line from
// a bare `NODE`/`RELATIONSHIP` keyword by checking that the identifier is
// not one of those two keywords and is followed by '('.
func (p *parser) isWrapperLine() bool {
	word := p.cur().text
	if word == "NODE" || word == "RELATIONSHIP" || word == "RELATION" {
		return false
	}
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokLParen
}

// parseWrapperApp parses `wrapper := IDENT '(' value_expr* ')'`.
func (p *parser) parseWrapperApp() (WrapperApp, error) {
	name, err := p.expect(tokIdent, "wrapper name")
	if err != nil {
		return WrapperApp{}, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return WrapperApp{}, err
	}
	return WrapperApp{Name: name.text, Args: args, Span: name.span}, nil
}

// parseArgList parses a parenthesized, comma-separated value_expr list.
func (p *parser) parseArgList() ([]ValueExpr, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []ValueExpr
	if !p.at(tokRParen) {
		for {
			v, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			if p.at(tokComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseValueExpr parses `value_expr := literal | entity_attr | call`.
func (p *parser) parseValueExpr() (ValueExpr, error) {
	t := p.cur()
	switch t.kind {
	case tokString, tokInt, tokFloat, tokBool:
		p.advance()
		return Literal{Value: t.val, span: t.span}, nil
	case tokMinus:
		p.advance()
		inner, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if lit, ok := inner.(Literal); ok {
			if neg, ok := negate(lit.Value); ok {
				return Literal{Value: neg, span: location.Merge(t.span, lit.span)}, nil
			}
		}
		return inner, nil
	case tokIdent:
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokLParen {
			return p.parseCall()
		}
		return p.parseEntityAttr()
	default:
		return nil, &ParseError{Span: t.span, Message: fmt.Sprintf("expected a value, found %q", t.text)}
	}
}

func negate(v any) (any, bool) {
	switch n := v.(type) {
	case int64:
		return -n, true
	case float64:
		return -n, true
	default:
		return nil, false
	}
}

// parseEntityAttr parses `entity_attr := IDENT '.' NAME`.
func (p *parser) parseEntityAttr() (ValueExpr, error) {
	ent, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokDot, "'.'"); err != nil {
		return nil, err
	}
	attr, err := p.expect(tokIdent, "attribute name")
	if err != nil {
		return nil, err
	}
	return EntityAttr{Entity: ent.text, Attr: attr.text, span: location.Merge(ent.span, attr.span)}, nil
}

// parseCall parses `call := IDENT '(' value_expr (',' value_expr)* ')'`.
func (p *parser) parseCall() (ValueExpr, error) {
	name, err := p.expect(tokIdent, "function name")
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return Call{Name: name.text, Args: args, span: name.span}, nil
}

// parseNodeBlock parses `node_block := 'NODE' label_list ['as' IDENT] ':'
// NEWLINE INDENT attr_line* DEDENT`.
func (p *parser) parseNodeBlock() (NodeBlock, error) {
	startSpan := p.cur().span
	labels, err := p.parseLabelList()
	if err != nil {
		return NodeBlock{}, err
	}
	ident := ""
	if p.at(tokIdent) && p.cur().text == "as" {
		p.advance()
		idTok, err := p.expect(tokIdent, "identifier")
		if err != nil {
			return NodeBlock{}, err
		}
		ident = idTok.text
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return NodeBlock{}, err
	}
	if _, err := p.expect(tokNewline, "newline"); err != nil {
		return NodeBlock{}, err
	}
	p.skipNewlines()

	var attrs []AttrLine
	if p.at(tokIndent) {
		p.advance()
		for !p.at(tokDedent) && !p.at(tokEOF) {
			al, err := p.parseAttrLine()
			if err != nil {
				return NodeBlock{}, err
			}
			attrs = append(attrs, al)
			p.skipNewlines()
		}
		if p.at(tokDedent) {
			p.advance()
		}
	}
	return NodeBlock{Labels: labels, Identifier: ident, Attrs: attrs, Span: location.Merge(startSpan, p.cur().span)}, nil
}

// parseLabelList parses one or more comma-separated label value_exprs,
// terminated by 'as', ':' or NEWLINE.
func (p *parser) parseLabelList() ([]ValueExpr, error) {
	var labels []ValueExpr
	for {
		v, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		labels = append(labels, v)
		if p.at(tokComma) {
			p.advance()
			continue
		}
		break
	}
	return labels, nil
}

// parseMatchLabelList is [parseLabelList]'s counterpart for a MATCH(...)
// endpoint, where the comma-separated label list is followed by zero or
// more `NAME '=' value_expr` conditions sharing the same comma separator.
// It stops consuming commas as soon as the lookahead shows a condition
// (IDENT '=') rather than another label.
func (p *parser) parseMatchLabelList() ([]ValueExpr, error) {
	var labels []ValueExpr
	for {
		v, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		labels = append(labels, v)
		if p.at(tokComma) && !p.nextIsCondition() {
			p.advance()
			continue
		}
		break
	}
	return labels, nil
}

// nextIsCondition reports whether the token after a comma begins a
// `NAME '=' value_expr` condition (IDENT followed by '=') rather than
// another label value_expr.
func (p *parser) nextIsCondition() bool {
	return p.pos+2 < len(p.toks) &&
		p.toks[p.pos+1].kind == tokIdent &&
		p.toks[p.pos+2].kind == tokEquals
}

// parseAttrLine parses `attr_line := ('-'|'+') NAME '=' value_expr NEWLINE`.
// '+' marks the attribute primary (merge key); '-' marks an ordinary
// attribute.
func (p *parser) parseAttrLine() (AttrLine, error) {
	isPrimary := false
	switch {
	case p.at(tokPlus):
		isPrimary = true
		p.advance()
	case p.at(tokMinus):
		p.advance()
	default:
		return AttrLine{}, &ParseError{Span: p.cur().span,
			Message: fmt.Sprintf("expected '+' or '-', found %q", p.cur().text)}
	}
	nameTok, err := p.expect(tokIdent, "attribute name")
	if err != nil {
		return AttrLine{}, err
	}
	if _, err := p.expect(tokEquals, "'='"); err != nil {
		return AttrLine{}, err
	}
	val, err := p.parseValueExpr()
	if err != nil {
		return AttrLine{}, err
	}
	span := location.Merge(nameTok.span, p.cur().span)
	if _, err := p.expect(tokNewline, "newline"); err != nil {
		return AttrLine{}, err
	}
	return AttrLine{IsPrimary: isPrimary, Name: nameTok.text, Value: val, Span: span}, nil
}

// parseRelationshipBlock parses `relationship_block := 'RELATIONSHIP'
// endpoint STRING endpoint ':' NEWLINE INDENT attr_line* DEDENT`.
func (p *parser) parseRelationshipBlock() (RelationshipBlock, error) {
	startSpan := p.cur().span
	start, err := p.parseEndpoint()
	if err != nil {
		return RelationshipBlock{}, err
	}
	typeTok, err := p.expect(tokString, "relationship type string")
	if err != nil {
		return RelationshipBlock{}, err
	}
	end, err := p.parseEndpoint()
	if err != nil {
		return RelationshipBlock{}, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return RelationshipBlock{}, err
	}
	if _, err := p.expect(tokNewline, "newline"); err != nil {
		return RelationshipBlock{}, err
	}
	p.skipNewlines()

	var attrs []AttrLine
	if p.at(tokIndent) {
		p.advance()
		for !p.at(tokDedent) && !p.at(tokEOF) {
			al, err := p.parseAttrLine()
			if err != nil {
				return RelationshipBlock{}, err
			}
			attrs = append(attrs, al)
			p.skipNewlines()
		}
		if p.at(tokDedent) {
			p.advance()
		}
	}
	return RelationshipBlock{
		Start: start, Type: typeTok.text, End: end, Attrs: attrs,
		Span: location.Merge(startSpan, p.cur().span),
	}, nil
}

// parseEndpoint parses `endpoint := IDENT | 'MATCH' '(' label_list
// (',' NAME '=' value_expr)* ')'`.
func (p *parser) parseEndpoint() (Endpoint, error) {
	if p.at(tokIdent) && p.cur().text == "MATCH" {
		start := p.cur().span
		p.advance()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return Endpoint{}, err
		}
		labels, err := p.parseMatchLabelList()
		if err != nil {
			return Endpoint{}, err
		}
		var conds []AttrLine
		for p.at(tokComma) {
			p.advance()
			nameTok, err := p.expect(tokIdent, "condition field name")
			if err != nil {
				return Endpoint{}, err
			}
			if _, err := p.expect(tokEquals, "'='"); err != nil {
				return Endpoint{}, err
			}
			val, err := p.parseValueExpr()
			if err != nil {
				return Endpoint{}, err
			}
			conds = append(conds, AttrLine{Name: nameTok.text, Value: val, Span: location.Merge(nameTok.span, val.Span())})
		}
		closeTok, err := p.expect(tokRParen, "')'")
		if err != nil {
			return Endpoint{}, err
		}
		return Endpoint{IsMatch: true, Labels: labels, Conditions: conds, Span: location.Merge(start, closeTok.span)}, nil
	}
	idTok, err := p.expect(tokIdent, "endpoint identifier or MATCH(...)")
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Identifier: idTok.text, Span: idTok.span}, nil
}
