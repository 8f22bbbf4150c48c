// Package registry is a process-wide, name-keyed catalog of pre/post-
// processors and full wrapper constructors that the schema compiler
// resolves symbols against.
//
// Registration happens during process initialization, before any engine is
// constructed. A [Snapshot] taken at compile time is frozen into the
// resulting plan so that later re-registration never perturbs an in-flight
// conversion.
package registry

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/jkminder/data2neo/internal/trace"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/subgraph"
)

// AttrPreFunc preprocesses a Resource before an attribute is computed from
// it. Returning ok=false means "return null": the enclosing attribute
// factory short-circuits to no product.
type AttrPreFunc func(res resource.Resource, args []any) (out resource.Resource, ok bool)

// AttrPostFunc postprocesses a computed Attribute.
type AttrPostFunc func(attr subgraph.Attribute, args []any) subgraph.Attribute

// SubgraphPreFunc preprocesses a Resource before a node/relationship/
// subgraph factory runs. Returning ok=false skips the wrapped factory
// entirely: a null resource passed to a child short-circuits to a null
// product.
type SubgraphPreFunc func(res resource.Resource, args []any) (out resource.Resource, ok bool)

// SubgraphPostFunc postprocesses a computed Subgraph.
type SubgraphPostFunc func(sg *subgraph.Subgraph, args []any) *subgraph.Subgraph

// ChildFactory is the minimal shape a full wrapper wraps: anything that
// can construct a product from a Resource. factory.Factory satisfies this
// interface; registry does not import package factory to avoid a import
// cycle (factory imports registry to resolve wrapper names during build).
type ChildFactory interface {
	Construct(ctx context.Context, res resource.Resource) (any, error)
}

// FullWrapperFunc builds a new ChildFactory wrapping child. The factory
// graph calls it with nil args; the wrapper's arguments in the schema text
// are not passed through.
type FullWrapperFunc func(child ChildFactory, args []any) ChildFactory

// Registry is the process-wide wrapper catalog. The zero value is not
// usable; construct with [New].
type Registry struct {
	mu sync.RWMutex

	attrPre      map[string]AttrPreFunc
	attrPost     map[string]AttrPostFunc
	subgraphPre  map[string]SubgraphPreFunc
	subgraphPost map[string]SubgraphPostFunc
	fullWrapper  map[string]FullWrapperFunc

	logger *slog.Logger
}

// New creates an empty Registry. If logger is nil, re-registration
// warnings are silently dropped.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		attrPre:      make(map[string]AttrPreFunc),
		attrPost:     make(map[string]AttrPostFunc),
		subgraphPre:  make(map[string]SubgraphPreFunc),
		subgraphPost: make(map[string]SubgraphPostFunc),
		fullWrapper:  make(map[string]FullWrapperFunc),
		logger:       logger,
	}
}

// RegisterAttrPre registers name as an attribute pre-processor. Idempotent:
// re-registering the same name replaces the previous binding and logs a
// warning.
func (r *Registry) RegisterAttrPre(name string, fn AttrPreFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnIfReplacing(name, registered(r.attrPre, name) || r.hasAny(name))
	r.unbind(name)
	r.attrPre[name] = fn
}

// RegisterAttrPost registers name as an attribute post-processor.
func (r *Registry) RegisterAttrPost(name string, fn AttrPostFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnIfReplacing(name, registered(r.attrPost, name) || r.hasAny(name))
	r.unbind(name)
	r.attrPost[name] = fn
}

// RegisterSubgraphPre registers name as a subgraph pre-processor.
func (r *Registry) RegisterSubgraphPre(name string, fn SubgraphPreFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnIfReplacing(name, registered(r.subgraphPre, name) || r.hasAny(name))
	r.unbind(name)
	r.subgraphPre[name] = fn
}

// RegisterSubgraphPost registers name as a subgraph post-processor.
func (r *Registry) RegisterSubgraphPost(name string, fn SubgraphPostFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnIfReplacing(name, registered(r.subgraphPost, name) || r.hasAny(name))
	r.unbind(name)
	r.subgraphPost[name] = fn
}

// RegisterFullWrapper registers name as a full wrapper class.
func (r *Registry) RegisterFullWrapper(name string, fn FullWrapperFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnIfReplacing(name, registered(r.fullWrapper, name) || r.hasAny(name))
	r.unbind(name)
	r.fullWrapper[name] = fn
}

// hasAny reports whether name is already bound in any of the other four
// families. Registration is name-keyed across the whole registry, not
// per-family: a schema author writes a single bare identifier and the
// compiler must resolve it unambiguously against whichever family the
// surrounding syntax expects — mismatches between a name's registered
// family and how the schema uses it are resolved at construction time, not
// checked here.
func (r *Registry) hasAny(name string) bool {
	return registered(r.attrPre, name) || registered(r.attrPost, name) ||
		registered(r.subgraphPre, name) || registered(r.subgraphPost, name) ||
		registered(r.fullWrapper, name)
}

// unbind removes name from all five families, so the binding a Register*
// call installs next is the only one left under that name.
func (r *Registry) unbind(name string) {
	delete(r.attrPre, name)
	delete(r.attrPost, name)
	delete(r.subgraphPre, name)
	delete(r.subgraphPost, name)
	delete(r.fullWrapper, name)
}

func registered[V any](m map[string]V, name string) bool {
	_, ok := m[name]
	return ok
}

func (r *Registry) warnIfReplacing(name string, already bool) {
	if already {
		trace.Warn(context.Background(), r.logger, "registry: replacing existing wrapper binding",
			slog.String("name", name))
	}
}

// Snapshot is an immutable, point-in-time copy of the registry, frozen into
// a compiled schema.Plan so that later calls to Register* never affect an
// in-flight conversion.
type Snapshot struct {
	attrPre      map[string]AttrPreFunc
	attrPost     map[string]AttrPostFunc
	subgraphPre  map[string]SubgraphPreFunc
	subgraphPost map[string]SubgraphPostFunc
	fullWrapper  map[string]FullWrapperFunc
}

// Snapshot copies the registry's current bindings.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Snapshot{
		attrPre:      maps.Clone(r.attrPre),
		attrPost:     maps.Clone(r.attrPost),
		subgraphPre:  maps.Clone(r.subgraphPre),
		subgraphPost: maps.Clone(r.subgraphPost),
		fullWrapper:  maps.Clone(r.fullWrapper),
	}
}

// Category identifies which of the five families a resolved symbol belongs
// to, so the compiler can record which shape of wrapper node to build.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryAttrPre
	CategoryAttrPost
	CategorySubgraphPre
	CategorySubgraphPost
	CategoryFullWrapper
)

// Resolve looks up name across all five families. If name is bound in more
// than one family (only possible if callers bypass Register* and mutate
// the maps directly, which the package does not expose), the first match
// in family-declaration order wins. Returns CategoryUnknown, false if name
// is not bound anywhere — the compiler surfaces this as a diagnostic with
// code "schema.unknown-symbol".
func (s *Snapshot) Resolve(name string) (Category, bool) {
	if _, ok := s.attrPre[name]; ok {
		return CategoryAttrPre, true
	}
	if _, ok := s.attrPost[name]; ok {
		return CategoryAttrPost, true
	}
	if _, ok := s.subgraphPre[name]; ok {
		return CategorySubgraphPre, true
	}
	if _, ok := s.subgraphPost[name]; ok {
		return CategorySubgraphPost, true
	}
	if _, ok := s.fullWrapper[name]; ok {
		return CategoryFullWrapper, true
	}
	return CategoryUnknown, false
}

func (s *Snapshot) AttrPre(name string) (AttrPreFunc, bool)           { v, ok := s.attrPre[name]; return v, ok }
func (s *Snapshot) AttrPost(name string) (AttrPostFunc, bool)         { v, ok := s.attrPost[name]; return v, ok }
func (s *Snapshot) SubgraphPre(name string) (SubgraphPreFunc, bool)   { v, ok := s.subgraphPre[name]; return v, ok }
func (s *Snapshot) SubgraphPost(name string) (SubgraphPostFunc, bool) { v, ok := s.subgraphPost[name]; return v, ok }
func (s *Snapshot) FullWrapper(name string) (FullWrapperFunc, bool)   { v, ok := s.fullWrapper[name]; return v, ok }
