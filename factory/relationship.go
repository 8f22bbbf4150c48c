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

// RelationshipFactory constructs zero or one [subgraph.Relationship] from a
// Resource, compiled from one [schema.RelationshipSubPlan]. Endpoint
// resolution against nodes produced earlier in the same resource's
// conversion is the caller's job (see [EntityFactory.Construct]); this type
// only evaluates MATCH endpoints itself, since those never depend on
// sibling NodeFactory output.
type RelationshipFactory struct {
	start   schema.EndpointPlan
	relType string
	end     schema.EndpointPlan
	attrs   []compiledAttr
	primary int
	wrap    *schema.WrapTree
	snap    *registry.Snapshot
	logger  *slog.Logger
}

func newRelationshipFactory(rp *schema.RelationshipSubPlan, snap *registry.Snapshot, logger *slog.Logger) *RelationshipFactory {
	f := &RelationshipFactory{
		start: rp.Start, relType: rp.Type, end: rp.End,
		primary: rp.PrimaryIndex, wrap: rp.Wrap, snap: snap, logger: logger,
	}
	for _, a := range rp.Attrs {
		f.attrs = append(f.attrs, compiledAttr{name: a.Name, value: a.Value, isPrimary: a.IsPrimary})
	}
	return f
}

// resolveEndpoint turns an EndpointPlan into a concrete subgraph.Endpoint.
// identifiers maps a local node identifier (declared by an earlier NODE
// block in the same entity) to the *subgraph.Node that resource produced,
// if any. A reference to an identifier with no entry — because the
// upstream NodeFactory skipped it, or the schema never actually populated
// it for this resource — resolves to (zero Endpoint, false): the caller
// skips the relationship silently.
func (f *RelationshipFactory) resolveEndpoint(ctx context.Context, ep schema.EndpointPlan, res resource.Resource, identifiers map[string]*subgraph.Node) (subgraph.Endpoint, bool) {
	if ep.IsMatch {
		labels := evalLabels(ctx, ep.Labels, res, f.snap, f.logger)
		conds := make(map[string]subgraph.Scalar, len(ep.Conditions))
		for _, c := range ep.Conditions {
			val, ok := evalTree(ctx, c.Value, res, f.snap, f.logger)
			if !ok {
				continue
			}
			conds[c.Name] = val
		}
		m := &subgraph.NodeMatch{Labels: labels, Conditions: conds}
		return subgraph.MatchEndpoint(m), true
	}
	n, ok := identifiers[ep.Identifier]
	if !ok || n == nil {
		return subgraph.Endpoint{}, false
	}
	return subgraph.NodeEndpoint(n), true
}

// construct builds the relationship, given endpoint nodes already resolved
// by the entity factory's identifier map.
func (f *RelationshipFactory) construct(ctx context.Context, res resource.Resource, identifiers map[string]*subgraph.Node) (*subgraph.Relationship, error) {
	op := trace.Begin(ctx, f.logger, "factory.RelationshipFactory.construct")
	defer func() { op.End(nil) }()

	res, ok := applySubgraphPre(ctx, f.wrap, res, f.snap, f.logger)
	if !ok {
		return nil, nil
	}

	start, ok := f.resolveEndpoint(ctx, f.start, res, identifiers)
	if !ok {
		return nil, nil
	}
	end, ok := f.resolveEndpoint(ctx, f.end, res, identifiers)
	if !ok {
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

	var r subgraph.Relationship
	if havePrimary && primaryVal != nil {
		r = subgraph.NewMergeRelationship(start, end, f.relType, props, primaryName, primaryVal)
	} else {
		if havePrimary {
			trace.Warn(ctx, f.logger, "factory: relationship primary key is null, downgrading to non-merging",
				slog.String("type", f.relType))
		}
		r = subgraph.NewRelationship(start, end, f.relType, props)
	}
	return &r, nil
}
