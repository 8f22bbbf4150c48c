package schema

import "github.com/jkminder/data2neo/internal/location"

// ValueExpr is the AST form of the `value_expr` production: a literal, a
// reference to the current resource's attribute (EntityAttr), or a
// wrapper/function application (Call). Exactly one concrete type
// implements ValueExpr.
type ValueExpr interface {
	isValueExpr()
	Span() location.Span
}

// Literal is a STRING, INT, FLOAT, or BOOL token.
type Literal struct {
	Value any
	span  location.Span
}

func (Literal) isValueExpr()          {}
func (l Literal) Span() location.Span { return l.span }

// EntityAttr reads attribute Attr from the resource of type Entity, per
// the `entity_attr := IDENT '.' NAME` production (e.g. "Flower.species").
type EntityAttr struct {
	Entity string
	Attr   string
	span   location.Span
}

func (EntityAttr) isValueExpr()          {}
func (e EntityAttr) Span() location.Span { return e.span }

// Call is the `call := IDENT '(' value_expr (',' value_expr)* ')'`
// production: a wrapper/function name applied to one or more arguments.
// By convention, Args[0] is the wrapped child expression and any
// remaining entries are the wrapper's static arguments.
type Call struct {
	Name string
	Args []ValueExpr
	span location.Span
}

func (Call) isValueExpr()          {}
func (c Call) Span() location.Span { return c.span }

// AttrLine is one `attr_line := ('-' | '+') NAME '=' value_expr` entry
// inside a NODE or RELATIONSHIP block.
type AttrLine struct {
	IsPrimary bool
	Name      string
	Value     ValueExpr
	Span      location.Span
}

// Endpoint is the AST form of `endpoint := IDENT | 'MATCH' '(' label_list (',' condition)* ')'`.
type Endpoint struct {
	IsMatch    bool
	Identifier string // set when !IsMatch
	Labels     []ValueExpr
	Conditions []AttrLine // Conditions reuse AttrLine's Name/Value shape; IsPrimary is unused
	Span       location.Span
}

// WrapperApp is a `wrapper := IDENT '(' value_expr* ')'` line immediately
// preceding a NODE or RELATIONSHIP block, applying a registered wrapper
// (of any of the five families; mismatches are resolved, not rejected, at
// compile time) around that block's factory.
type WrapperApp struct {
	Name string
	Args []ValueExpr
	Span location.Span
}

// NodeBlock is the AST form of `node_block`.
type NodeBlock struct {
	Labels     []ValueExpr
	Identifier string // local identifier for relationship references; "" if absent
	Attrs      []AttrLine
	Wrapper    *WrapperApp
	Span       location.Span
}

// RelationshipBlock is the AST form of `relationship_block`. Type is
// always a STRING literal per the grammar (never a general value_expr).
type RelationshipBlock struct {
	Start   Endpoint
	Type    string
	End     Endpoint
	Attrs   []AttrLine
	Wrapper *WrapperApp
	Span    location.Span
}

// SubBlock is one `sub_block := wrapper? (node_block | relationship_block)`
// entry. Exactly one of Node/Relationship is set.
type SubBlock struct {
	Node         *NodeBlock
	Relationship *RelationshipBlock
}

// EntityBlock is the AST form of `entity_block`.
type EntityBlock struct {
	EntityType ValueExpr // usually a Literal string, per `label_expr`
	SubBlocks  []SubBlock
	Span       location.Span
}

// File is a fully parsed schema text: an ordered sequence of entity
// blocks, per `schema := entity_block+`.
type File struct {
	Entities []EntityBlock
}
