package engine_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jkminder/data2neo/engine"
	"github.com/jkminder/data2neo/internal/location"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
	"github.com/jkminder/data2neo/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `"Person":
  NODE "Person" as person:
    +name = Person.name
  NODE "Company" as employer:
    +name = Person.employer
  RELATIONSHIP person "WORKS_AT" employer:
`

// fakeTx counts MERGE/CREATE vs MATCH statements and hands back
// incrementing ids, mirroring writer package's own test fake.
type fakeTx struct {
	nextID int64
	runs   []string
	params []map[string]any
}

func (f *fakeTx) Run(_ context.Context, cypher string, params map[string]any) ([]writer.Record, error) {
	f.runs = append(f.runs, cypher)
	f.params = append(f.params, params)
	if strings.HasPrefix(cypher, "MATCH (n:") {
		return nil, nil
	}
	n := 1
	if strings.HasPrefix(cypher, "UNWIND") {
		rows, _ := params["rows"].([]any)
		n = len(rows)
	}
	records := make([]writer.Record, n)
	for i := range records {
		records[i] = writer.Record{"id": f.nextID}
		f.nextID++
	}
	return records, nil
}

// nodeNamesWritten walks tx's recorded node-bulk writes (UNWIND ... MERGE/
// CREATE, never relationship writes, which carry "startId"/"endId" rather
// than "props") and returns every written node's "name" property, in the
// order the writes actually happened.
func nodeNamesWritten(tx *fakeTx) []string {
	var names []string
	for i, cypher := range tx.runs {
		if !strings.HasPrefix(cypher, "UNWIND") || strings.Contains(cypher, "startId") {
			continue
		}
		rows, _ := tx.params[i]["rows"].([]any)
		for _, row := range rows {
			m, ok := row.(map[string]any)
			if !ok {
				continue
			}
			props, ok := m["props"].(map[string]subgraph.Scalar)
			if !ok {
				continue
			}
			if name, ok := props["name"]; ok {
				names = append(names, fmt.Sprint(name))
			}
		}
	}
	return names
}

type fakeDriver struct {
	tx *fakeTx
}

func (d *fakeDriver) ExecuteWrite(ctx context.Context, work func(writer.Transaction) (any, error)) (any, error) {
	return work(d.tx)
}

func (d *fakeDriver) Close(context.Context) error { return nil }

func buildTestEngine(t *testing.T, cfg engine.Config) (*engine.Engine, *fakeTx) {
	t.Helper()
	snap := registry.New(nil).Snapshot()
	plan, res, err := schema.Compile(location.SourceID("test.schema"), personSchema, snap)
	require.NoError(t, err)
	require.True(t, res.OK(), "compile diagnostics: %v", res)

	tx := &fakeTx{}
	drv := &fakeDriver{tx: tx}
	w := writer.New(drv, writer.RetryPolicy{MaxAttempts: 1}, nil)

	e, err := engine.New(plan, snap, w, cfg, nil)
	require.NoError(t, err)
	return e, tx
}

func peopleResources() []resource.Resource {
	return []resource.Resource{
		resource.NewMapResource("Person", map[string]any{"name": "Ada", "employer": "Acme"}),
		resource.NewMapResource("Person", map[string]any{"name": "Grace", "employer": "Acme"}),
		resource.NewMapResource("Person", map[string]any{"name": "Margaret", "employer": "Acme"}),
	}
}

func TestRunWritesNodesPhaseBeforeRelationshipsPhase(t *testing.T) {
	cfg, err := engine.NewConfig(engine.WithBatchSize(10), engine.WithParallel(false))
	require.NoError(t, err)
	e, tx := buildTestEngine(t, cfg)

	iter := resource.NewSliceIterator(peopleResources())
	err = e.Run(context.Background(), iter)
	require.NoError(t, err)

	// Every write before the first WORKS_AT relationship write must be a
	// node MERGE: the Nodes phase commits in full before the Relationships
	// phase starts.
	firstRelIdx := -1
	for i, cypher := range tx.runs {
		if strings.Contains(cypher, "WORKS_AT") {
			firstRelIdx = i
			break
		}
	}
	require.Greater(t, firstRelIdx, 0, "expected at least one node write before the first relationship write")
	for _, cypher := range tx.runs[:firstRelIdx] {
		assert.Contains(t, cypher, "MERGE")
	}
}

func TestRunSerializedModeProcessesBatchesInOrder(t *testing.T) {
	// WithBatchSize intentionally requests something other than 1 here: a
	// serialized run must force its own batch size regardless of what a
	// caller asks for.
	cfg, err := engine.NewConfig(engine.WithBatchSize(10), engine.WithParallel(false))
	require.NoError(t, err)
	require.Equal(t, 1, cfg.BatchSize, "serialized mode must force batch size to 1")
	e, tx := buildTestEngine(t, cfg)

	iter := resource.NewSliceIterator(peopleResources())
	err = e.Run(context.Background(), iter)
	require.NoError(t, err)
	require.NotEmpty(t, tx.runs)

	names := nodeNamesWritten(tx)
	var gotPersonOrder []string
	for _, n := range names {
		if n == "Ada" || n == "Grace" || n == "Margaret" {
			gotPersonOrder = append(gotPersonOrder, n)
		}
	}
	assert.Equal(t, []string{"Ada", "Grace", "Margaret"}, gotPersonOrder,
		"serialized mode must commit each resource's writes in iterator order")
}
