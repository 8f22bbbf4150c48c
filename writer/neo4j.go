package writer

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jDriver adapts a neo4j-go-driver/v5 [neo4j.DriverWithContext] to
// [Driver], scoping every write to a single database.
type Neo4jDriver struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver wraps driver, directing all sessions at database (use ""
// for the server's default database).
func NewNeo4jDriver(driver neo4j.DriverWithContext, database string) *Neo4jDriver {
	return &Neo4jDriver{driver: driver, database: database}
}

// ExecuteWrite opens one session and runs work inside neo4j's managed
// write transaction, which retries transient errors (deadlocks, leader
// switches) per the driver's own backoff policy before the writer's own
// [TransientGraphError] handling ever sees them.
func (d *Neo4jDriver) ExecuteWrite(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(neo4jTx{tx})
	})
}

// Close shuts down the underlying driver's connection pool.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t neo4jTx) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	result, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, rec := range records {
		m := make(Record, len(rec.Keys))
		for _, k := range rec.Keys {
			v, _ := rec.Get(k)
			m[k] = v
		}
		out[i] = m
	}
	return out, nil
}
