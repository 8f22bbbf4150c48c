package factory

import (
	"context"
	"log/slog"

	"github.com/jkminder/data2neo/internal/trace"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
)

// nodeSlot pairs a compiled NodeFactory (possibly wrapped by a full
// wrapper) with its schema identifier, so [EntityFactory.Construct] can
// populate the identifier map relationship endpoints resolve against.
type nodeSlot struct {
	identifier string
	factory    Factory
}

// EntityFactory converts one Resource of a given entity type into a
// [subgraph.Subgraph], by running its NODE sub-plans (in schema order, so
// later blocks can reference earlier ones by identifier) and then its
// RELATIONSHIP sub-plans, so a relationship can always resolve an
// identifier declared by a node earlier in the same entity block.
type EntityFactory struct {
	entityType string
	nodes      []nodeSlot
	rels       []*RelationshipFactory
	snap       *registry.Snapshot
	logger     *slog.Logger
}

func newEntityFactory(ep *schema.EntityPlan, snap *registry.Snapshot, logger *slog.Logger) *EntityFactory {
	ef := &EntityFactory{entityType: ep.EntityType, snap: snap, logger: logger}
	for _, np := range ep.Nodes {
		nf := newNodeFactory(np, snap, logger)
		ef.nodes = append(ef.nodes, nodeSlot{identifier: np.Identifier, factory: wrapFull(np.Wrap, nf, snap)})
	}
	for _, rp := range ep.Relationships {
		ef.rels = append(ef.rels, newRelationshipFactory(rp, snap, logger))
	}
	return ef
}

// Construct runs every node sub-plan against res, then — unless phase is
// [NodesOnly] — every relationship sub-plan, folding their products into
// one Subgraph. A node or relationship that short-circuits to null (a
// skipped SubgraphPre, an unresolved endpoint, a node whose labels all
// evaluate to null) simply contributes nothing; it never aborts the rest of the entity's
// conversion.
//
// During [NodesOnly], relationship sub-plans are skipped outright rather
// than evaluated and discarded: their MATCH conditions and any wrapper
// calls they carry never run, since the nodes a MATCH depends on may not
// exist yet this early in a run, and a relationship's pre/post-processor
// wrappers should fire exactly once per resource, not once per phase.
func (ef *EntityFactory) Construct(ctx context.Context, res resource.Resource, phase Phase) (any, error) {
	op := trace.Begin(ctx, ef.logger, "factory.EntityFactory.Construct", slog.String("entity", ef.entityType))
	defer func() { op.End(nil) }()

	sg := subgraph.New()
	identifiers := make(map[string]*subgraph.Node, len(ef.nodes))

	for _, slot := range ef.nodes {
		product, err := slot.factory.Construct(ctx, res)
		if err != nil {
			trace.Warn(ctx, ef.logger, "factory: node construction failed, skipping",
				slog.String("entity", ef.entityType), slog.String("error", err.Error()))
			continue
		}
		n, ok := product.(*subgraph.Node)
		if !ok || n == nil {
			continue
		}
		sg.AddNode(*n)
		if slot.identifier != "" {
			identifiers[slot.identifier] = n
		}
	}

	if phase == NodesOnly {
		return sg, nil
	}

	for _, rf := range ef.rels {
		r, err := rf.construct(ctx, res, identifiers)
		if err != nil {
			trace.Warn(ctx, ef.logger, "factory: relationship construction failed, skipping",
				slog.String("entity", ef.entityType), slog.String("error", err.Error()))
			continue
		}
		if r == nil {
			continue
		}
		sg.AddRelationship(*r)
	}
	return sg, nil
}
