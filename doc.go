// Package data2neo converts tabular and columnar data into a property
// graph and writes it into Neo4j.
//
// A caller describes the target graph shape in a small schema DSL (one
// ENTITY block per source record type, with NODE and RELATIONSHIP
// sub-blocks), compiles it against a registry of named wrapper functions,
// and runs the result over a stream of resources.
//
// # Architecture Overview
//
// The module is organized into layers with strict dependency ordering:
//
//	Foundation tier (no internal dependencies):
//	  - internal/location: source positions and spans
//	  - internal/diag: structured compile diagnostics with stable codes
//	  - internal/trace: nil-safe operation-boundary logging
//
//	Core library tier:
//	  - resource: the Resource/Iterator contract external adapters implement
//	  - subgraph: Node/Relationship/Subgraph value types and merge identity
//	  - registry: the named-wrapper catalog (AttrPre/AttrPost/SubgraphPre/
//	    SubgraphPost/FullWrapper) and its point-in-time Snapshot
//	  - schema: the DSL lexer, parser, and compiler producing a Plan
//	  - factory: compiled Plan -> Subgraph conversion for one resource
//	  - sharedstate: the process-wide named-slot facility wrappers use
//	    to reach shared collaborators (e.g. a graph driver) outside the
//	    per-resource data flow
//
//	Driver tier:
//	  - writer: batched Cypher commit against a graph database
//	  - engine: the two-phase (Nodes, then Relationships) run loop tying
//	    schema, factory, and writer together with checkpointing
//
// # Entry Points
//
// Compile a schema and run a conversion:
//
//	snap := registry.Default().Snapshot()
//	plan, result, err := schema.Compile(location.SourceID("orders.schema"), schemaText, snap)
//	if err != nil {
//	    // parse error, or failed compile diagnostics (listed in result)
//	}
//
//	cfg, err := engine.NewConfig(engine.WithBatchSize(2000))
//	driver := writer.NewNeo4jDriver(neo4jDriver, "neo4j")
//	w := writer.New(driver, writer.DefaultRetryPolicy, logger)
//	eng, err := engine.New(plan, snap, w, cfg, logger)
//	err = eng.Run(ctx, myIterator)
package data2neo
