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

// NodeFactory constructs zero or one [subgraph.Node] from a Resource,
// compiled from one [schema.NodeSubPlan]. It satisfies [Factory] so a full
// wrapper can wrap it directly.
type NodeFactory struct {
	labels     []*schema.ValueTree
	identifier string
	attrs      []compiledAttr
	primary    int
	wrap       *schema.WrapTree
	snap       *registry.Snapshot
	logger     *slog.Logger
}

type compiledAttr struct {
	name      string
	value     *schema.ValueTree
	isPrimary bool
}

// newNodeFactory builds a NodeFactory from a compiled sub-plan.
func newNodeFactory(np *schema.NodeSubPlan, snap *registry.Snapshot, logger *slog.Logger) *NodeFactory {
	f := &NodeFactory{
		labels:     np.Labels,
		identifier: np.Identifier,
		primary:    np.PrimaryIndex,
		wrap:       np.Wrap,
		snap:       snap,
		logger:     logger,
	}
	for _, a := range np.Attrs {
		f.attrs = append(f.attrs, compiledAttr{name: a.Name, value: a.Value, isPrimary: a.IsPrimary})
	}
	return f
}

// Construct evaluates the node's labels and attributes against res. It
// returns (nil, nil) when a SubgraphPre wrapper skips the resource, or when
// every label evaluates to null (a Node with no labels cannot be written).
func (f *NodeFactory) Construct(ctx context.Context, res resource.Resource) (any, error) {
	op := trace.Begin(ctx, f.logger, "factory.NodeFactory.Construct")
	defer func() { op.End(nil) }()

	res, ok := applySubgraphPre(ctx, f.wrap, res, f.snap, f.logger)
	if !ok {
		return nil, nil
	}

	labels := evalLabels(ctx, f.labels, res, f.snap, f.logger)
	if len(labels) == 0 {
		return nil, nil
	}

	props := make(map[string]subgraph.Scalar, len(f.attrs))
	var primaryName string
	var primaryVal subgraph.Scalar
	havePrimary := false
	for i, a := range f.attrs {
		val, ok := evalTree(ctx, a.value, res, f.snap, f.logger)
		if !ok {
			continue
		}
		props[a.name] = val
		if i == f.primary {
			primaryName, primaryVal, havePrimary = a.name, val, true
		}
	}

	var n subgraph.Node
	if havePrimary && primaryVal != nil {
		n = subgraph.NewMergeNode(labels, props, primaryName, primaryVal)
	} else {
		if havePrimary {
			// Primary key evaluated to null: downgrade to a non-merging
			// node rather than failing the resource.
			trace.Warn(ctx, f.logger, "factory: primary key is null, downgrading node to non-merging",
				slog.String("label", labels[0]))
		}
		n = subgraph.NewNode(labels, props)
	}
	return &n, nil
}

// applySubgraphPre applies wrap if it resolves to a SubgraphPre function,
// returning (res, false) to signal "skip". A FullWrapper passes through
// here unchanged (see [wrapFull]). Every other category, SubgraphPost
// included, is handled as a warn-and-continue no-op: no SubgraphPost
// function is ever called on a node or relationship block's product.
func applySubgraphPre(ctx context.Context, wrap *schema.WrapTree, res resource.Resource, snap *registry.Snapshot, logger *slog.Logger) (resource.Resource, bool) {
	if wrap == nil {
		return res, true
	}
	switch wrap.Category {
	case registry.CategorySubgraphPre:
		fn, ok := snap.SubgraphPre(wrap.Name)
		if !ok {
			return res, true
		}
		args := evalArgs(ctx, wrap.Args, res, snap, logger)
		return fn(res, args)
	case registry.CategoryFullWrapper:
		// FullWrapper is applied around the whole Construct call, not here;
		// see [wrapFull].
		return res, true
	default:
		trace.Warn(ctx, logger, "factory: wrapper category mismatch on node/relationship block",
			slog.String("wrapper", wrap.Name))
		return res, true
	}
}

// wrapFull wraps child with wrap's FullWrapper function, if that is what it
// resolves to; otherwise child is returned unwrapped (the mismatch is
// already warned about by [applySubgraphPre]). The wrapper function is
// called with nil args: the schema's wrapper arguments are not passed to a
// full wrapper.
func wrapFull(wrap *schema.WrapTree, child Factory, snap *registry.Snapshot) Factory {
	if wrap == nil || wrap.Category != registry.CategoryFullWrapper {
		return child
	}
	fn, ok := snap.FullWrapper(wrap.Name)
	if !ok {
		return child
	}
	wrapped := fn(registryChildAdapter{child}, nil)
	return factoryAdapter{wrapped}
}

// registryChildAdapter adapts a Factory to registry.ChildFactory (an
// identical shape; this exists only so the two packages' interfaces never
// need to literally be the same named type).
type registryChildAdapter struct{ Factory }

// factoryAdapter adapts a registry.ChildFactory back to Factory.
type factoryAdapter struct{ child registry.ChildFactory }

func (a factoryAdapter) Construct(ctx context.Context, res resource.Resource) (any, error) {
	return a.child.Construct(ctx, res)
}
