package subgraph_test

import (
	"testing"

	"github.com/jkminder/data2neo/subgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_MergeFoldsLastWriterWins(t *testing.T) {
	g := subgraph.New()
	g.AddNode(subgraph.NewMergeNode([]string{"Species"}, map[string]subgraph.Scalar{
		"Name": "setosa", "count": 1,
	}, "Name", "setosa"))
	g.AddNode(subgraph.NewMergeNode([]string{"Species"}, map[string]subgraph.Scalar{
		"Name": "setosa", "count": 2, "extra": "x",
	}, "Name", "setosa"))

	require.Equal(t, 1, g.NodeCount())
	nodes := g.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, 2, nodes[0].Properties["count"])
	assert.Equal(t, "x", nodes[0].Properties["extra"])
}

func TestAddNode_NonMergingNodesNeverCollapse(t *testing.T) {
	g := subgraph.New()
	g.AddNode(subgraph.NewNode([]string{"Flower"}, map[string]subgraph.Scalar{"species": "setosa"}))
	g.AddNode(subgraph.NewNode([]string{"Flower"}, map[string]subgraph.Scalar{"species": "setosa"}))

	assert.Equal(t, 2, g.NodeCount())
}

func TestUnion_FoldsAcrossSubgraphs(t *testing.T) {
	a := subgraph.New()
	a.AddNode(subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"ID": 1}, "ID", 1))
	b := subgraph.New()
	b.AddNode(subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"ID": 1, "name": "Ada"}, "ID", 1))

	a.Union(b)
	require.Equal(t, 1, a.NodeCount())
	assert.Equal(t, "Ada", a.Nodes()[0].Properties["name"])
}

func TestNodeValidate(t *testing.T) {
	n := subgraph.NewMergeNode([]string{"Species"}, map[string]subgraph.Scalar{"Name": "setosa"}, "Name", "setosa")
	assert.NoError(t, n.Validate())

	bad := subgraph.Node{Merge: true, PrimaryLabel: "Species"}
	assert.Error(t, bad.Validate())
}

func TestRelationshipIdentity_NonMergingWithMatchEndpointNeverCollapse(t *testing.T) {
	n := subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"ID": 1}, "ID", 1)
	m := &subgraph.NodeMatch{Labels: []string{"Species"}, Conditions: map[string]subgraph.Scalar{"Name": "setosa"}}

	r1 := subgraph.NewRelationship(subgraph.NodeEndpoint(&n), subgraph.MatchEndpoint(m), "likes", nil)
	r2 := subgraph.NewRelationship(subgraph.NodeEndpoint(&n), subgraph.MatchEndpoint(m), "likes", nil)

	// Non-merging relationships never collapse (whole-object identity), even
	// with identical endpoints/type: two otherwise-identical ones are two
	// parallel edges.
	assert.NotEqual(t, r1.Identity().String(), r2.Identity().String())
}
