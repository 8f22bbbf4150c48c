// Package resource defines the contracts external adapters implement to
// feed the engine: [Resource] (one typed record) and [Iterator] (a
// restartable, finite stream of them). Concrete iterators over specific
// storage backends (tabular files, SQL result sets, data frames) are
// external collaborators and are not implemented here.
package resource

import "context"

// Resource is one typed record from the input stream.
//
// Implementations are supplied by adapters; the engine and factory graph
// only depend on this interface. A Resource's Type dispatches it to an
// entity plan; Get/Set read and write named attribute values; Supplies is
// a per-resource scratchpad a wrapper's pre-processor can use to pass data
// to its own post-processor within the same resource.
type Resource interface {
	// Type returns the dispatch key naming which entity plan applies.
	Type() string

	// Get returns the value stored under key, and whether it was present.
	// Values are integer, float, string, boolean, temporal, or nil.
	Get(key string) (any, bool)

	// Set stores val under key. Implementations backed by read-only source
	// data (e.g. a query result row) may choose to only support Set for
	// keys introduced by wrappers, not for source columns.
	Set(key string, val any)

	// Keys returns all keys currently held, for debugging and for
	// wrapper bodies that need to enumerate a resource's shape.
	Keys() []string

	// Supplies returns the per-resource scratchpad map, creating it lazily.
	// The same map instance is returned by repeated calls within one
	// resource's lifetime, and is never shared across resources.
	Supplies() map[string]any
}

// Iterator is a restartable, finite sequence of Resources. The engine calls
// Reset between the Nodes phase and the Relationships phase; Next must be
// safe to call after a prior exhaustion-then-Reset cycle.
//
// Iterator is consumed by exactly one goroutine at a time — the engine's
// phase coordinator always calls Next serially, never from its worker
// pool.
type Iterator interface {
	// Next advances to, and returns, the next Resource. Returns
	// (nil, false) when the sequence is exhausted; ctx cancellation
	// during a blocking fetch should return (nil, false) with ctx.Err()
	// observable by the caller through its own context.
	Next(ctx context.Context) (Resource, bool)

	// Reset rewinds the iterator to before its first element. Idempotent:
	// calling Reset when already at the start is a no-op.
	Reset(ctx context.Context) error

	// Len returns an approximate element count, or -1 if unknown. Used
	// only for progress reporting; never relied on for correctness.
	Len() int
}
