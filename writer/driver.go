package writer

import (
	"context"
)

// Transaction is the minimal surface the writer needs from a graph
// database transaction: run one parameterized Cypher statement and get
// back its rows. It is deliberately narrower than the neo4j driver's own
// transaction type so the writer's batch-commit logic (writer.go) can be
// exercised against a fake in tests without a live database.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
}

// Record is one returned row, keyed by the Cypher RETURN aliases.
type Record map[string]any

// Driver abstracts the graph database connection the engine writes
// through. [Neo4jDriver] is the concrete, production implementation over
// github.com/neo4j/neo4j-go-driver/v5; tests use a fake.
type Driver interface {
	// ExecuteWrite runs work inside a single write transaction, retrying
	// per the underlying driver's own transient-error policy. The whole
	// batch — every node write, match, and relationship write — happens
	// inside this one transaction, so a batch either commits in full or
	// not at all.
	ExecuteWrite(ctx context.Context, work func(tx Transaction) (any, error)) (any, error)

	// Close releases the driver's connection pool.
	Close(ctx context.Context) error
}
