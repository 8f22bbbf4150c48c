package subgraph

import "maps"

// Subgraph is the product of evaluating one resource's node and/or
// relationship sub-plans: a set of Nodes deduplicated by merge-identity,
// and a list of Relationships kept in append order without deduplication.
type Subgraph struct {
	nodes    map[MergeIdentity]Node
	nodeOrd  []MergeIdentity
	rels     []Relationship
}

// New returns an empty Subgraph.
func New() *Subgraph {
	return &Subgraph{nodes: make(map[MergeIdentity]Node)}
}

// AddNode merges n into the subgraph by merge-identity. If a Node with the
// same identity already exists, their property maps are folded with
// last-writer-wins: conflicting non-primary properties on two
// merge-identical Nodes resolve to whichever was added last, within a
// single commit batch. A Subgraph is exactly the unit folded within one
// resource, and later within one batch by [Union].
func (s *Subgraph) AddNode(n Node) {
	id := n.Identity()
	if existing, ok := s.nodes[id]; ok {
		s.nodes[id] = foldNode(existing, n)
		return
	}
	s.nodes[id] = n
	s.nodeOrd = append(s.nodeOrd, id)
}

// AddRelationship appends r. Relationship deduplication happens at batch
// scope (see writer package), not within a single resource's Subgraph,
// since two resources may each contribute half of what becomes one merged
// relationship only once their Subgraphs are unioned into a batch.
func (s *Subgraph) AddRelationship(r Relationship) {
	s.rels = append(s.rels, r)
}

// Nodes returns the subgraph's nodes in the order first added.
func (s *Subgraph) Nodes() []Node {
	out := make([]Node, 0, len(s.nodeOrd))
	for _, id := range s.nodeOrd {
		out = append(out, s.nodes[id])
	}
	return out
}

// Relationships returns the subgraph's relationships in append order.
func (s *Subgraph) Relationships() []Relationship {
	return append([]Relationship(nil), s.rels...)
}

// NodeCount returns the number of distinct (by merge-identity) nodes.
func (s *Subgraph) NodeCount() int { return len(s.nodeOrd) }

// RelationshipCount returns the number of relationships.
func (s *Subgraph) RelationshipCount() int { return len(s.rels) }

// Union folds other into s in place, by merge-identity for nodes
// (last-writer-wins on conflicting properties, same rule as AddNode) and
// by append for relationships. This is how the engine accumulates many
// resources' per-resource Subgraphs into one per-batch Subgraph before
// handing it to the writer.
func (s *Subgraph) Union(other *Subgraph) {
	if other == nil {
		return
	}
	for _, id := range other.nodeOrd {
		s.AddNode(other.nodes[id])
	}
	s.rels = append(s.rels, other.rels...)
}

func foldNode(existing, incoming Node) Node {
	merged := existing
	if merged.Properties == nil {
		merged.Properties = make(map[string]Scalar, len(incoming.Properties))
	} else {
		merged.Properties = maps.Clone(merged.Properties)
	}
	maps.Copy(merged.Properties, incoming.Properties) // last-writer-wins: incoming overwrites
	return merged
}
