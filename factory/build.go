package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
)

// Phase selects how much of an entity's plan Convert evaluates for one
// resource. The engine drives a resource through NodesOnly on its first
// pass over the iterator and through Full on its second, so that a
// relationship referencing a node built by a different entity type can
// always find it already written.
type Phase uint8

const (
	// Full evaluates every node sub-plan followed by every relationship
	// sub-plan, producing both in the returned Subgraph.
	Full Phase = iota
	// NodesOnly evaluates node sub-plans and skips relationship sub-plans
	// entirely — including their MATCH conditions and any wrapper calls
	// they carry, which never run during this phase.
	NodesOnly
)

// Graph is the built factory tree for a compiled [schema.Plan]: one
// [EntityFactory] per entity type, keyed by the same dispatch string a
// [resource.Resource.Type] returns.
type Graph struct {
	entities map[string]*EntityFactory
}

// Build instantiates a Graph from plan, resolving every wrapper reference
// in it against snap (the same snapshot the plan itself was compiled
// against). logger may be nil.
func Build(plan *schema.Plan, snap *registry.Snapshot, logger *slog.Logger) *Graph {
	g := &Graph{entities: make(map[string]*EntityFactory, len(plan.Entities))}
	for name, ep := range plan.Entities {
		g.entities[name] = newEntityFactory(ep, snap, logger)
	}
	return g
}

// Convert dispatches res to the EntityFactory matching res.Type() and
// returns the resulting Subgraph, evaluating as much of the entity's plan
// as phase calls for. Returns an error if no entity plan matches res's
// type; the engine treats this as a per-resource failure, not a fatal one.
func (g *Graph) Convert(ctx context.Context, res resource.Resource, phase Phase) (*subgraph.Subgraph, error) {
	ef, ok := g.entities[res.Type()]
	if !ok {
		return nil, fmt.Errorf("factory: no entity plan for resource type %q", res.Type())
	}
	product, err := ef.Construct(ctx, res, phase)
	if err != nil {
		return nil, err
	}
	sg, _ := product.(*subgraph.Subgraph)
	return sg, nil
}
