package schema

import (
	"github.com/jkminder/data2neo/internal/diag"
	"github.com/jkminder/data2neo/internal/location"
	"github.com/jkminder/data2neo/registry"
)

// Parse parses schema text named by source into a [File] AST, without
// resolving any wrapper/function symbols. Most callers want [Compile].
func Parse(source location.SourceID, src string) (*File, error) {
	return parseFile(source, src)
}

// Compile parses src and compiles it into a [Plan] against snap, resolving
// every wrapper/function identifier that appears in it and checking the
// compiler's static constraints: at most one primary attribute per
// node/relationship block, and every relationship endpoint identifier
// referring to a node identifier declared earlier in the same entity block.
//
// Compile returns a non-nil error wrapping a [diag.Result] if any
// diagnostic reached Error or Fatal severity; Warning-level issues (e.g. a
// relationship referencing an identifier not yet seen, which resolves to
// "skip silently" at construction time rather than failing the whole
// entity) are collected but do not fail compilation.
func Compile(source location.SourceID, src string, snap *registry.Snapshot) (*Plan, diag.Result, error) {
	f, err := parseFile(source, src)
	if err != nil {
		return nil, diag.Result{}, err
	}
	c := &compiler{snap: snap, coll: diag.NewCollector()}
	plan := c.compileFile(f)
	res := c.coll.Result()
	if !res.OK() {
		return nil, res, res
	}
	return plan, res, nil
}

type compiler struct {
	snap *registry.Snapshot
	coll *diag.Collector
}

func (c *compiler) compileFile(f *File) *Plan {
	plan := &Plan{Entities: make(map[string]*EntityPlan)}
	for _, eb := range f.Entities {
		name := literalString(eb.EntityType)
		ep := c.compileEntity(eb)
		plan.Entities[name] = ep
		plan.order = append(plan.order, name)
	}
	return plan
}

// literalString extracts a string from a ValueExpr expected to be a bare
// literal (entity type names and relationship types are always literals
// per the grammar).
func literalString(v ValueExpr) string {
	if lit, ok := v.(Literal); ok {
		if s, ok := lit.Value.(string); ok {
			return s
		}
	}
	return ""
}

func (c *compiler) compileEntity(eb EntityBlock) *EntityPlan {
	ep := &EntityPlan{EntityType: literalString(eb.EntityType)}
	declared := make(map[string]bool)

	for _, sb := range eb.SubBlocks {
		switch {
		case sb.Node != nil:
			np := c.compileNode(*sb.Node)
			ep.Nodes = append(ep.Nodes, np)
			if sb.Node.Identifier != "" {
				declared[sb.Node.Identifier] = true
			}
		case sb.Relationship != nil:
			rp := c.compileRelationship(*sb.Relationship, declared)
			ep.Relationships = append(ep.Relationships, rp)
		}
	}
	return ep
}

func (c *compiler) compileNode(nb NodeBlock) *NodeSubPlan {
	np := &NodeSubPlan{
		Labels:     c.compileValueList(nb.Labels),
		Identifier: nb.Identifier,
		Wrap:       c.compileWrapperApp(nb.Wrapper),
	}
	np.Attrs, np.PrimaryIndex = c.compileAttrLines(nb.Attrs)
	return np
}

func (c *compiler) compileRelationship(rb RelationshipBlock, declared map[string]bool) *RelationshipSubPlan {
	rp := &RelationshipSubPlan{
		Start: c.compileEndpoint(rb.Start, declared),
		Type:  rb.Type,
		End:   c.compileEndpoint(rb.End, declared),
		Wrap:  c.compileWrapperApp(rb.Wrapper),
	}
	rp.Attrs, rp.PrimaryIndex = c.compileAttrLines(rb.Attrs)
	return rp
}

func (c *compiler) compileEndpoint(e Endpoint, declared map[string]bool) EndpointPlan {
	if e.IsMatch {
		conds, _ := c.compileAttrLines(e.Conditions)
		return EndpointPlan{IsMatch: true, Labels: c.compileValueList(e.Labels), Conditions: conds}
	}
	if !declared[e.Identifier] {
		// An endpoint identifier not declared by an earlier NODE block in
		// the same entity resolves to "skip silently" at construction time,
		// not a compile failure, since a schema can legitimately declare
		// NODE blocks out of the order a particular resource populates them
		// in across different entity types reusing the same identifier
		// convention. We still flag it so a schema author sees the gap.
		c.coll.Collect(diag.NewIssue(diag.Warning, "schema.endpoint-not-declared",
			"endpoint identifier \""+e.Identifier+"\" is not declared by an earlier NODE block in this entity", e.Span))
	}
	return EndpointPlan{Identifier: e.Identifier}
}

// compileAttrLines compiles a block's attribute lines and determines the
// primary attribute index, flagging more than one '+' line in the same
// block as a semantic error.
func (c *compiler) compileAttrLines(lines []AttrLine) ([]AttrPlan, int) {
	attrs := make([]AttrPlan, 0, len(lines))
	primaryIdx := -1
	for i, al := range lines {
		attrs = append(attrs, AttrPlan{Name: al.Name, Value: c.compileValue(al.Value), IsPrimary: al.IsPrimary})
		if al.IsPrimary {
			if primaryIdx != -1 {
				c.coll.Collect(diag.NewIssue(diag.Error, "schema.multiple-primary-attrs",
					"block declares more than one primary ('+') attribute", al.Span))
			}
			primaryIdx = i
		}
	}
	return attrs, primaryIdx
}

func (c *compiler) compileValueList(exprs []ValueExpr) []*ValueTree {
	out := make([]*ValueTree, len(exprs))
	for i, e := range exprs {
		out[i] = c.compileValue(e)
	}
	return out
}

// compileValue compiles one ValueExpr into a ValueTree, resolving any Call
// name against the registry snapshot. An unresolved name is recorded as a
// [UnknownSymbolError]-class diagnostic at Error severity (so Compile will
// fail overall) and compiles to a pass-through child so the rest of the
// block can still be inspected by later diagnostics.
func (c *compiler) compileValue(v ValueExpr) *ValueTree {
	switch e := v.(type) {
	case Literal:
		return &ValueTree{Kind: ValueLiteral, Literal: e.Value}
	case EntityAttr:
		return &ValueTree{Kind: ValueAttr, Attr: e.Attr}
	case Call:
		cat, ok := c.snap.Resolve(e.Name)
		if !ok {
			c.coll.Collect(diag.NewIssue(diag.Error, "schema.unknown-symbol",
				"unknown wrapper or function \""+e.Name+"\"", e.span))
			if len(e.Args) > 0 {
				return c.compileValue(e.Args[0])
			}
			return &ValueTree{Kind: ValueLiteral, Literal: nil}
		}
		var child *ValueTree
		var args []*ValueTree
		if len(e.Args) > 0 {
			child = c.compileValue(e.Args[0])
			args = c.compileValueList(e.Args[1:])
		}
		return &ValueTree{Kind: ValueWrapped, WrapName: e.Name, Category: cat, Child: child, Args: args}
	default:
		return &ValueTree{Kind: ValueLiteral, Literal: nil}
	}
}

// compileWrapperApp resolves an optional full-wrapper-family line preceding
// a NODE/RELATIONSHIP block. A wrapper name resolved to a category other
// than CategoryFullWrapper here is a declared-undefined condition, not a
// compile error: the factory graph (not this package) applies a
// best-effort no-op-with-warning fallback at construction time so one
// entity's schema mistake cannot corrupt another's conversion. The
// compiler still resolves and records the category so the factory graph
// doesn't need its own registry lookup.
func (c *compiler) compileWrapperApp(w *WrapperApp) *WrapTree {
	if w == nil {
		return nil
	}
	cat, ok := c.snap.Resolve(w.Name)
	if !ok {
		c.coll.Collect(diag.NewIssue(diag.Error, "schema.unknown-symbol",
			"unknown wrapper \""+w.Name+"\"", w.Span))
		return nil
	}
	return &WrapTree{Name: w.Name, Category: cat, Args: c.compileValueList(w.Args)}
}
