package schema

import (
	"strconv"

	"github.com/jkminder/data2neo/registry"
)

// Plan is the compiled, immutable form of a schema text: a set of
// per-entity conversion plans, resolved against a [registry.Snapshot]
// frozen at compile time. A Plan is safe for concurrent read access by many
// engine workers; nothing in it is mutated after [Compile] returns.
type Plan struct {
	Entities map[string]*EntityPlan
	// order preserves the schema text's declaration order, for diagnostics
	// and for [Plan.Describe].
	order []string
}

// EntityNames returns entity type names in schema declaration order.
func (p *Plan) EntityNames() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// EntityPlan is the compiled conversion plan for one entity_block: an
// ordered list of node sub-plans (each producing zero or one merge-keyed or
// ephemeral node per resource) followed by an ordered list of relationship sub-plans,
// mirroring the schema text's NODE-then-RELATIONSHIP block ordering within
// an entity.
type EntityPlan struct {
	EntityType    string
	Nodes         []*NodeSubPlan
	Relationships []*RelationshipSubPlan
}

// ValueTree is the compiled form of a ValueExpr: a tree of wrapper
// applications around a leaf literal or entity-attribute read, ready to
// evaluate against one Resource. It is built by [compileValue].
type ValueTree struct {
	// Kind distinguishes the three leaf/branch forms.
	Kind ValueKind

	// Literal is set when Kind == ValueLiteral.
	Literal any

	// Attr is set when Kind == ValueAttr: the resource field to read.
	Attr string

	// WrapName/Category/Args/Child are set when Kind == ValueWrapped: the
	// resolved registry category for WrapName, its static arguments (each
	// itself a compiled ValueTree, evaluated against the current resource
	// every time the wrapper runs), and the wrapped child expression.
	WrapName string
	Category registry.Category
	Args     []*ValueTree
	Child    *ValueTree
}

// ValueKind discriminates ValueTree's three shapes.
type ValueKind uint8

const (
	ValueLiteral ValueKind = iota
	ValueAttr
	ValueWrapped
)

// WrapTree is the compiled form of an optional WrapperApp line preceding a
// NODE or RELATIONSHIP block: a resolved wrapper name/category plus its
// compiled arguments (evaluated per resource when the wrapper is applied),
// or nil if the block carried no wrapper.
type WrapTree struct {
	Name     string
	Category registry.Category
	Args     []*ValueTree
}

// AttrPlan is one compiled attribute assignment within a node or
// relationship sub-plan.
type AttrPlan struct {
	Name      string
	Value     *ValueTree
	IsPrimary bool
}

// NodeSubPlan is the compiled form of a node_block: labels, an optional
// local identifier (for relationship endpoint references within the same
// entity), its attribute assignments, and an optional wrapper.
type NodeSubPlan struct {
	Labels       []*ValueTree
	Identifier   string
	Attrs        []AttrPlan
	PrimaryIndex int // index into Attrs of the primary key attr, or -1
	Wrap         *WrapTree
}

// EndpointPlan is the compiled form of an endpoint: either a reference to a
// local node identifier declared earlier in the same entity (IsMatch
// false), or an inline MATCH(...) pattern against already-written nodes
// (IsMatch true).
type EndpointPlan struct {
	IsMatch    bool
	Identifier string
	Labels     []*ValueTree
	Conditions []AttrPlan
}

// RelationshipSubPlan is the compiled form of a relationship_block.
type RelationshipSubPlan struct {
	Start        EndpointPlan
	Type         string
	End          EndpointPlan
	Attrs        []AttrPlan
	PrimaryIndex int
	Wrap         *WrapTree
}

// Describe renders a human-readable, deterministic summary of the plan:
// one line per entity naming its node and relationship sub-plan counts.
// This supports a schema-authoring dry run/plan-inspection workflow without
// touching a database (SPEC_FULL.md Section C).
func (p *Plan) Describe() string {
	out := ""
	for _, name := range p.order {
		ep := p.Entities[name]
		out += name + ": " + strconv.Itoa(len(ep.Nodes)) + " node plan(s), " +
			strconv.Itoa(len(ep.Relationships)) + " relationship plan(s)\n"
	}
	return out
}
