// Package factory is a tree of small, composable factories built from a
// compiled [schema.Plan] that turn one [resource.Resource] into a
// [subgraph.Subgraph].
//
// The tree mirrors the schema text's own nesting: an [EntityFactory] per
// entity type holds a [NodeFactory] per NODE block and a
// [RelationshipFactory] per RELATIONSHIP block, each wrapping a chain of
// value evaluators built from the plan's ValueTrees. Wrapping uses the
// registry's five function families; a wrapper resolved to a category the
// surrounding syntax didn't expect is applied on a best-effort,
// warn-and-continue basis rather than failing the whole plan, so one
// entity's schema mistake can never corrupt another entity's conversion.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jkminder/data2neo/internal/trace"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
)

// Factory is the shape every node in the factory tree implements. It
// satisfies [registry.ChildFactory] so full wrappers registered against
// the registry can wrap any Factory without this package needing to expose
// anything beyond Construct.
type Factory interface {
	Construct(ctx context.Context, res resource.Resource) (any, error)
}

// valueEvaluator evaluates one compiled [schema.ValueTree] against a
// Resource, applying any AttrPre/AttrPost wrapping along the way.
type valueEvaluator struct {
	tree   *schema.ValueTree
	snap   *registry.Snapshot
	logger *slog.Logger
}

func newValueEvaluator(tree *schema.ValueTree, snap *registry.Snapshot, logger *slog.Logger) *valueEvaluator {
	return &valueEvaluator{tree: tree, snap: snap, logger: logger}
}

// eval returns the tree's value for res, or (nil, false) if an AttrPre
// wrapper in the chain short-circuited to null.
func (v *valueEvaluator) eval(ctx context.Context, res resource.Resource) (subgraph.Scalar, bool) {
	return evalTree(ctx, v.tree, res, v.snap, v.logger)
}

func evalTree(ctx context.Context, t *schema.ValueTree, res resource.Resource, snap *registry.Snapshot, logger *slog.Logger) (subgraph.Scalar, bool) {
	if t == nil {
		return nil, false
	}
	switch t.Kind {
	case schema.ValueLiteral:
		return subgraph.Coerce(t.Literal), true
	case schema.ValueAttr:
		val, ok := res.Get(t.Attr)
		if !ok {
			return nil, false
		}
		return subgraph.Coerce(val), true
	case schema.ValueWrapped:
		return evalWrapped(ctx, t, res, snap, logger)
	default:
		return nil, false
	}
}

func evalWrapped(ctx context.Context, t *schema.ValueTree, res resource.Resource, snap *registry.Snapshot, logger *slog.Logger) (subgraph.Scalar, bool) {
	args := evalArgs(ctx, t.Args, res, snap, logger)
	switch t.Category {
	case registry.CategoryAttrPre:
		fn, ok := snap.AttrPre(t.WrapName)
		if !ok {
			return evalTree(ctx, t.Child, res, snap, logger)
		}
		newRes, ok := fn(res, args)
		if !ok {
			return nil, false
		}
		return evalTree(ctx, t.Child, newRes, snap, logger)
	case registry.CategoryAttrPost:
		fn, ok := snap.AttrPost(t.WrapName)
		if !ok {
			return evalTree(ctx, t.Child, res, snap, logger)
		}
		val, ok := evalTree(ctx, t.Child, res, snap, logger)
		if !ok {
			return nil, false
		}
		out := fn(subgraph.NewAttribute("", val), args)
		return out.Value, true
	default:
		// Declared-undefined: a subgraph-level or full-wrapper family name
		// used in value position. Pass the child value through unchanged
		// rather than failing this resource's conversion.
		trace.Warn(ctx, logger, "factory: wrapper category mismatch in value expression",
			slog.String("wrapper", t.WrapName))
		return evalTree(ctx, t.Child, res, snap, logger)
	}
}

func evalArgs(ctx context.Context, args []*schema.ValueTree, res resource.Resource, snap *registry.Snapshot, logger *slog.Logger) []any {
	out := make([]any, len(args))
	for i, a := range args {
		v, _ := evalTree(ctx, a, res, snap, logger)
		out[i] = v
	}
	return out
}

// evalLabels evaluates a label list, skipping any entry that evaluates to
// null and coercing the rest to strings.
func evalLabels(ctx context.Context, trees []*schema.ValueTree, res resource.Resource, snap *registry.Snapshot, logger *slog.Logger) []string {
	var labels []string
	for _, t := range trees {
		v, ok := evalTree(ctx, t, res, snap, logger)
		if !ok || v == nil {
			continue
		}
		labels = append(labels, stringify(v))
	}
	return labels
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	coerced := subgraph.Coerce(v)
	if s, ok := coerced.(string); ok {
		return s
	}
	return fmt.Sprint(coerced)
}
