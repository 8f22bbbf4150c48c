package schema_test

import (
	"testing"

	"github.com/jkminder/data2neo/internal/location"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowerSchema = `"Flower":
  NODE "Flower", Flower.genus as flower:
    +species = Flower.species
    -color = UPPER(Flower.color)
  NODE "Genus" as genus:
    +name = Flower.genus
  RELATIONSHIP flower "OF_GENUS" genus:
`

func newTestSnapshot() *registry.Snapshot {
	r := registry.New(nil)
	r.RegisterAttrPost("UPPER", func(attr subgraph.Attribute, _ []any) subgraph.Attribute {
		return attr
	})
	r.RegisterSubgraphPre("IF_PRESENT", func(res resource.Resource, args []any) (resource.Resource, bool) {
		return res, true
	})
	return r.Snapshot()
}

func TestCompileFlowerSchema(t *testing.T) {
	plan, res, err := schema.Compile(location.SourceID("flower.schema"), flowerSchema, newTestSnapshot())
	require.NoError(t, err)
	assert.True(t, res.OK())
	require.NotNil(t, plan)

	ep, ok := plan.Entities["Flower"]
	require.True(t, ok)
	require.Len(t, ep.Nodes, 2)
	require.Len(t, ep.Relationships, 1)

	flowerNode := ep.Nodes[0]
	assert.Equal(t, "flower", flowerNode.Identifier)
	assert.Equal(t, 0, flowerNode.PrimaryIndex)

	rel := ep.Relationships[0]
	assert.Equal(t, "flower", rel.Start.Identifier)
	assert.Equal(t, "genus", rel.End.Identifier)
	assert.Equal(t, "OF_GENUS", rel.Type)
}

func TestCompileRejectsUnknownSymbol(t *testing.T) {
	src := `"Flower":
  NODE "Flower":
    +species = MYSTERY(Flower.species)
`
	_, _, err := schema.Compile(location.SourceID("bad.schema"), src, newTestSnapshot())
	require.Error(t, err)
}

func TestCompileRejectsMultiplePrimaryAttrs(t *testing.T) {
	src := `"Flower":
  NODE "Flower":
    +species = Flower.species
    +genus = Flower.genus
`
	_, _, err := schema.Compile(location.SourceID("bad.schema"), src, newTestSnapshot())
	require.Error(t, err)
}

func TestCompileWarnsOnUndeclaredEndpoint(t *testing.T) {
	src := `"Flower":
  RELATIONSHIP ghost "OF_GENUS" alsoGhost:
`
	plan, res, err := schema.Compile(location.SourceID("warn.schema"), src, newTestSnapshot())
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.True(t, res.OK())
	found := false
	for _, iss := range res.Issues() {
		if iss.Code() == "schema.endpoint-not-declared" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseMatchEndpoint(t *testing.T) {
	src := `"Flower":
  RELATIONSHIP flower "OF_GENUS" MATCH("Genus", name = Flower.genus):
`
	f, err := schema.Parse(location.SourceID("match.schema"), src)
	require.NoError(t, err)
	require.Len(t, f.Entities, 1)
	rb := f.Entities[0].SubBlocks[0].Relationship
	require.NotNil(t, rb)
	assert.True(t, rb.End.IsMatch)
	assert.Len(t, rb.End.Conditions, 1)
	assert.Equal(t, "name", rb.End.Conditions[0].Name)
}
