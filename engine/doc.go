// Package engine drives a full conversion run by pulling resources from a
// resource.Iterator, converting them through a factory.Graph, and
// committing the results through a writer.Writer in bounded, checkpointed
// batches.
//
// A run makes two passes over the iterator: the Nodes phase writes every
// resource's nodes, then the iterator is reset and the Relationships phase
// writes every resource's relationships. Splitting the passes this way
// means a relationship can reference a node produced by any resource, not
// just ones already seen earlier in a single traversal, at the cost of the
// endpoint-resolution restriction documented on relationshipsOnly in
// engine.go.
package engine
