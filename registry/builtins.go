package registry

import (
	"strings"

	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/subgraph"
)

// defaultRegistry is the process-wide registry most callers use. Tests and
// embedders that need an isolated catalog should construct their own with
// [New] instead.
var defaultRegistry = New(nil)

// Default returns the process-wide Registry, pre-populated with the
// built-in wrappers registered by this package's init().
func Default() *Registry { return defaultRegistry }

func init() {
	registerBuiltins(defaultRegistry)
}

// registerBuiltins installs a small set of generally useful wrappers. They
// are ordinary Register* calls — nothing here is special-cased by the
// compiler or factory graph.
func registerBuiltins(r *Registry) {
	// IF_PRESENT(fieldName) skips the wrapped node/relationship/subgraph
	// factory unless the resource has a non-empty value under fieldName —
	// e.g. IF_PRESENT("ReportsTo") skips an employee's REPORTS_TO
	// relationship when ReportsTo is absent or empty.
	r.RegisterSubgraphPre("IF_PRESENT", func(res resource.Resource, args []any) (resource.Resource, bool) {
		if len(args) == 0 {
			return res, true
		}
		field, ok := args[0].(string)
		if !ok {
			return res, true
		}
		val, present := res.Get(field)
		if !present || val == nil || val == "" {
			return nil, false
		}
		return res, true
	})

	// DEFAULT(value) replaces a null computed attribute with value.
	r.RegisterAttrPost("DEFAULT", func(attr subgraph.Attribute, args []any) subgraph.Attribute {
		if attr.IsNull() && len(args) > 0 {
			return subgraph.NewAttribute(attr.Key, args[0])
		}
		return attr
	})

	// UPPER / LOWER normalize a computed string attribute's casing.
	r.RegisterAttrPost("UPPER", func(attr subgraph.Attribute, _ []any) subgraph.Attribute {
		if s, ok := attr.Value.(string); ok {
			return subgraph.NewAttribute(attr.Key, strings.ToUpper(s))
		}
		return attr
	})
	r.RegisterAttrPost("LOWER", func(attr subgraph.Attribute, _ []any) subgraph.Attribute {
		if s, ok := attr.Value.(string); ok {
			return subgraph.NewAttribute(attr.Key, strings.ToLower(s))
		}
		return attr
	})
}
