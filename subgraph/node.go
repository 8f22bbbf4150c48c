package subgraph

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is a produced graph node: an ordered, non-empty list of labels, a
// property map, and — when Merge is true — a primary (merge) key.
//
// Every Node carries a Tag, an ephemeral UUID stamped at construction time
// that serves as its internal identity inside a single resource's compiled
// plan. Tag is also the sole identity for non-merging nodes across an
// entire batch — an "ephemeral intra-batch tag" — since a merge=false Node
// otherwise has no stable identity to resolve relationship endpoints
// against within the same batch.
type Node struct {
	Tag        uuid.UUID
	Labels     []string
	Properties map[string]Scalar

	Merge           bool
	PrimaryLabel    string
	PrimaryKeyName  string
	PrimaryKeyValue Scalar
}

// NewNode builds a non-merging ("create") Node.
func NewNode(labels []string, properties map[string]Scalar) Node {
	return Node{
		Tag:        uuid.New(),
		Labels:     append([]string(nil), labels...),
		Properties: properties,
	}
}

// NewMergeNode builds a merging Node. primaryKeyValue must be non-null;
// callers that determine a null merge-key value must instead downgrade to
// [NewNode] and log a warning — NewMergeNode does not perform that
// downgrade itself, since it has no logger to report through (see
// factory.NodeFactory.Construct, which owns that decision).
func NewMergeNode(labels []string, properties map[string]Scalar, primaryKeyName string, primaryKeyValue Scalar) Node {
	if len(labels) == 0 {
		panic("subgraph: merge node requires at least one label")
	}
	return Node{
		Tag:             uuid.New(),
		Labels:          append([]string(nil), labels...),
		Properties:      properties,
		Merge:           true,
		PrimaryLabel:    labels[0],
		PrimaryKeyName:  primaryKeyName,
		PrimaryKeyValue: primaryKeyValue,
	}
}

// MergeIdentity is a Node's equality key: (PrimaryLabel, PrimaryKeyName,
// PrimaryKeyValue) when Merge is true, else the Node's own Tag
// (whole-object identity for non-merging nodes).
type MergeIdentity struct {
	merging  bool
	label    string
	keyName  string
	keyValue string // formatted for comparability across dynamic scalar types
	tag      uuid.UUID
}

// Identity computes n's merge-identity.
func (n Node) Identity() MergeIdentity {
	if n.Merge {
		return MergeIdentity{
			merging: true,
			label:   n.PrimaryLabel,
			keyName: n.PrimaryKeyName,
			keyValue: fmt.Sprint(n.PrimaryKeyValue),
		}
	}
	return MergeIdentity{tag: n.Tag}
}

// String renders a MergeIdentity for diagnostics and map-key debugging.
func (id MergeIdentity) String() string {
	if id.merging {
		return fmt.Sprintf("%s{%s=%s}", id.label, id.keyName, id.keyValue)
	}
	return "tag:" + id.tag.String()
}

// Validate checks that a merging Node carries a non-empty PrimaryLabel,
// PrimaryKeyName, and a non-null PrimaryKeyValue.
func (n Node) Validate() error {
	if !n.Merge {
		if len(n.Labels) == 0 {
			return fmt.Errorf("subgraph: node has no labels")
		}
		return nil
	}
	if n.PrimaryLabel == "" || n.PrimaryKeyName == "" || n.PrimaryKeyValue == nil {
		return fmt.Errorf("subgraph: merging node missing primary label/key/value")
	}
	return nil
}
