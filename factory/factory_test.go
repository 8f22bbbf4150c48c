package factory_test

import (
	"context"
	"testing"

	"github.com/jkminder/data2neo/factory"
	"github.com/jkminder/data2neo/internal/location"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeeSchema = `"Employee":
  NODE "Person", Employee.role as person:
    +name = Employee.name
  NODE "Person" as boss:
    +name = Employee.boss_name
  IF_PRESENT(Employee.boss_name):
    RELATIONSHIP person "REPORTS_TO" boss:
`

func newSnapshot() *registry.Snapshot {
	r := registry.New(nil)
	r.RegisterSubgraphPre("IF_PRESENT", func(res resource.Resource, args []any) (resource.Resource, bool) {
		if len(args) == 0 || args[0] == nil || args[0] == "" {
			return nil, false
		}
		return res, true
	})
	return r.Snapshot()
}

type stubResource struct {
	typ    string
	values map[string]any
}

func (r stubResource) Type() string               { return r.typ }
func (r stubResource) Get(key string) (any, bool) { v, ok := r.values[key]; return v, ok }
func (r stubResource) Set(key string, val any)    { r.values[key] = val }
func (r stubResource) Keys() []string             { return nil }
func (r stubResource) Supplies() map[string]any    { return nil }

func buildGraph(t *testing.T) *factory.Graph {
	t.Helper()
	snap := newSnapshot()
	plan, res, err := schema.Compile(location.SourceID("employee.schema"), employeeSchema, snap)
	require.NoError(t, err)
	require.True(t, res.OK())
	return factory.Build(plan, snap, nil)
}

func TestConvertWithBoss(t *testing.T) {
	g := buildGraph(t)
	sg, err := g.Convert(context.Background(), stubResource{typ: "Employee",
		values: map[string]any{"name": "Ada", "boss_name": "Grace"}}, factory.Full)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, 2, sg.NodeCount())
	assert.Equal(t, 1, sg.RelationshipCount())
}

func TestConvertSkipsRelationshipWithoutBoss(t *testing.T) {
	g := buildGraph(t)
	sg, err := g.Convert(context.Background(), stubResource{typ: "Employee",
		values: map[string]any{"name": "Ada"}}, factory.Full)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, 2, sg.NodeCount())
	assert.Equal(t, 0, sg.RelationshipCount())
}

func TestConvertNodesOnlySkipsRelationshipEntirely(t *testing.T) {
	g := buildGraph(t)
	sg, err := g.Convert(context.Background(), stubResource{typ: "Employee",
		values: map[string]any{"name": "Ada", "boss_name": "Grace"}}, factory.NodesOnly)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, 2, sg.NodeCount())
	assert.Equal(t, 0, sg.RelationshipCount(), "NodesOnly must not evaluate relationship sub-plans at all")
}
