package registry_test

import (
	"testing"

	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/subgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwiceReplacesBinding(t *testing.T) {
	r := registry.New(nil)
	r.RegisterAttrPost("TAG", func(a subgraph.Attribute, args []any) subgraph.Attribute {
		return subgraph.NewAttribute(a.Key, "first")
	})
	r.RegisterAttrPost("TAG", func(a subgraph.Attribute, args []any) subgraph.Attribute {
		return subgraph.NewAttribute(a.Key, "second")
	})

	snap := r.Snapshot()
	fn, ok := snap.AttrPost("TAG")
	require.True(t, ok)
	assert.Equal(t, "second", fn(subgraph.NewAttribute("k", nil), nil).Value)
}

func TestResolveAcrossFamilies(t *testing.T) {
	r := registry.New(nil)
	r.RegisterSubgraphPre("SKIP_EMPTY", func(res resource.Resource, args []any) (resource.Resource, bool) {
		return res, true
	})
	snap := r.Snapshot()

	cat, ok := snap.Resolve("SKIP_EMPTY")
	require.True(t, ok)
	assert.Equal(t, registry.CategorySubgraphPre, cat)

	_, ok = snap.Resolve("DOES_NOT_EXIST")
	assert.False(t, ok)
}

func TestSnapshotIsFrozen(t *testing.T) {
	r := registry.New(nil)
	r.RegisterSubgraphPre("A", func(res resource.Resource, args []any) (resource.Resource, bool) {
		return res, true
	})
	snap := r.Snapshot()

	// Registering after the snapshot was taken must not be visible through it.
	r.RegisterSubgraphPre("B", func(res resource.Resource, args []any) (resource.Resource, bool) {
		return res, true
	})
	_, ok := snap.Resolve("B")
	assert.False(t, ok)
}

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	snap := registry.Default().Snapshot()
	cat, ok := snap.Resolve("IF_PRESENT")
	require.True(t, ok)
	assert.Equal(t, registry.CategorySubgraphPre, cat)

	fn, ok := snap.SubgraphPre("IF_PRESENT")
	require.True(t, ok)

	present := resourceStub{values: map[string]any{"ReportsTo": "mgr-1"}}
	out, ok := fn(present, []any{"ReportsTo"})
	assert.True(t, ok)
	assert.Equal(t, present, out)

	missing := resourceStub{values: map[string]any{}}
	_, ok = fn(missing, []any{"ReportsTo"})
	assert.False(t, ok)
}

type resourceStub struct {
	values map[string]any
}

func (r resourceStub) Type() string               { return "Stub" }
func (r resourceStub) Get(key string) (any, bool) { v, ok := r.values[key]; return v, ok }
func (r resourceStub) Set(key string, val any)    { r.values[key] = val }
func (r resourceStub) Keys() []string             { return nil }
func (r resourceStub) Supplies() map[string]any    { return nil }
