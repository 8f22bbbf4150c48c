// Package subgraph holds the in-memory value types produced by the factory
// graph for a single resource: [Attribute], [Node], [Relationship],
// [NodeMatch] and their container, [Subgraph].
package subgraph

import (
	"fmt"
	"time"
)

// Scalar is the set of value kinds a property may hold: integer, float,
// string, boolean, date, datetime, or nil.
type Scalar = any

// Attribute is an immutable (key, value) pair. The value is either a
// [Scalar] or nil; any other runtime type is coerced to its string form by
// [Coerce] before an Attribute is constructed, so downstream code never
// has to special-case non-scalar values.
type Attribute struct {
	Key   string
	Value Scalar
}

// NewAttribute builds an Attribute, coercing val per [Coerce].
func NewAttribute(key string, val any) Attribute {
	return Attribute{Key: key, Value: Coerce(val)}
}

// IsNull reports whether the attribute's value is nil.
func (a Attribute) IsNull() bool { return a.Value == nil }

// Coerce renders val to a [Scalar]. Values that are already one of the
// scalar kinds pass through unchanged; everything else is rendered to its
// string form via fmt.Sprint before write.
func Coerce(val any) Scalar {
	switch v := val.(type) {
	case nil:
		return nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool,
		time.Time:
		return v
	default:
		return fmt.Sprint(v)
	}
}
