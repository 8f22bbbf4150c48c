package subgraph

import "fmt"

// NodeMatch selects zero or more existing graph nodes by label and
// property-equality pattern. It never produces new nodes; the Graph Writer
// (writer package) resolves it against the live graph during a batch
// commit.
type NodeMatch struct {
	Labels     []string
	Conditions map[string]Scalar
}

// Key returns a canonical string identifying this match pattern, used by
// the writer to group identical MATCH patterns occurring in one batch so
// each distinct pattern is only resolved once, via a single bulk MATCH.
func (m NodeMatch) Key() string {
	return fmt.Sprintf("%v|%v", m.Labels, m.Conditions)
}

// Endpoint is either a concrete [Node] produced earlier in the same
// resource's plan, or a [NodeMatch] against the existing graph. Exactly
// one of Node/Match is set; IsMatch reports which.
type Endpoint struct {
	node  *Node
	match *NodeMatch
}

// NodeEndpoint wraps a produced Node as a relationship endpoint.
func NodeEndpoint(n *Node) Endpoint { return Endpoint{node: n} }

// MatchEndpoint wraps a NodeMatch as a relationship endpoint.
func MatchEndpoint(m *NodeMatch) Endpoint { return Endpoint{match: m} }

// IsMatch reports whether the endpoint is a NodeMatch rather than a
// concrete produced Node.
func (e Endpoint) IsMatch() bool { return e.match != nil }

// Node returns the endpoint's concrete Node and true, or (nil, false) if
// the endpoint is a NodeMatch.
func (e Endpoint) Node() (*Node, bool) {
	if e.match != nil {
		return nil, false
	}
	return e.node, true
}

// Match returns the endpoint's NodeMatch and true, or (nil, false) if the
// endpoint is a concrete Node.
func (e Endpoint) Match() (*NodeMatch, bool) {
	if e.match == nil {
		return nil, false
	}
	return e.match, true
}

// Relationship is a produced graph relationship between two endpoints.
// When an endpoint is a NodeMatch, the relationship conceptually expands to
// one instance per matched node at write time — a cartesian product across
// both endpoints' match sets; the Relationship value itself always names
// one abstract edge with its (possibly matched) endpoints.
type Relationship struct {
	Start Endpoint
	End   Endpoint
	Type  string

	Properties map[string]Scalar

	Merge           bool
	PrimaryKeyName  string
	PrimaryKeyValue Scalar
}

// NewRelationship builds a non-merging ("create") Relationship.
func NewRelationship(start, end Endpoint, relType string, properties map[string]Scalar) Relationship {
	return Relationship{Start: start, End: end, Type: relType, Properties: properties}
}

// NewMergeRelationship builds a merging Relationship.
func NewMergeRelationship(start, end Endpoint, relType string, properties map[string]Scalar, primaryKeyName string, primaryKeyValue Scalar) Relationship {
	return Relationship{
		Start: start, End: end, Type: relType, Properties: properties,
		Merge: true, PrimaryKeyName: primaryKeyName, PrimaryKeyValue: primaryKeyValue,
	}
}

// RelationshipIdentity is a relationship's merge-identity: (start
// merge-id, end merge-id, type, primary key) when Merge is true; else
// whole-object identity. Endpoints that are NodeMatch patterns contribute
// their pattern key rather than a node identity, since they have no single
// produced Node to key on.
type RelationshipIdentity struct {
	merging  bool
	start    string
	end      string
	relType  string
	keyName  string
	keyValue string
	object   *Relationship // non-nil whole-object identity for merge=false
}

func endpointKey(e Endpoint) string {
	if n, ok := e.Node(); ok {
		return n.Identity().String()
	}
	m, _ := e.Match()
	return "match:" + m.Key()
}

// Identity computes r's merge-identity.
func (r *Relationship) Identity() RelationshipIdentity {
	if r.Merge {
		return RelationshipIdentity{
			merging: true,
			start:   endpointKey(r.Start),
			end:     endpointKey(r.End),
			relType: r.Type,
			keyName: r.PrimaryKeyName,
			keyValue: fmt.Sprint(r.PrimaryKeyValue),
		}
	}
	return RelationshipIdentity{object: r}
}

// String renders a RelationshipIdentity for diagnostics.
func (id RelationshipIdentity) String() string {
	if id.merging {
		return fmt.Sprintf("(%s)-[%s{%s=%s}]->(%s)", id.start, id.relType, id.keyName, id.keyValue, id.end)
	}
	return fmt.Sprintf("object:%p", id.object)
}
