package writer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jkminder/data2neo/subgraph"
	"github.com/jkminder/data2neo/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx is an in-memory stand-in for a graph transaction: it just counts
// statement kinds and hands back incrementing fake ids, enough to exercise
// writer.go's control flow without a live database.
type fakeTx struct {
	nextID int64
	runs   []string
}

func (f *fakeTx) Run(_ context.Context, cypher string, params map[string]any) ([]writer.Record, error) {
	f.runs = append(f.runs, cypher)
	if strings.HasPrefix(cypher, "MATCH (n:") {
		// A bare MATCH read (no MERGE/CREATE) simulates an unresolved
		// pattern against an empty graph.
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

type fakeDriver struct {
	tx *fakeTx
}

func (d *fakeDriver) ExecuteWrite(ctx context.Context, work func(writer.Transaction) (any, error)) (any, error) {
	return work(d.tx)
}

func (d *fakeDriver) Close(context.Context) error { return nil }

func TestCommitBatchWritesNodesBeforeRelationships(t *testing.T) {
	sg := subgraph.New()
	a := subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"name": "Ada"}, "name", "Ada")
	b := subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"name": "Grace"}, "name", "Grace")
	sg.AddNode(a)
	sg.AddNode(b)
	sg.AddRelationship(subgraph.NewRelationship(
		subgraph.NodeEndpoint(&a), subgraph.NodeEndpoint(&b), "KNOWS", nil))

	tx := &fakeTx{}
	drv := &fakeDriver{tx: tx}
	w := writer.New(drv, writer.RetryPolicy{MaxAttempts: 1}, nil)

	err := w.CommitBatch(context.Background(), sg)
	require.NoError(t, err)

	// Both Person nodes share one bulk MERGE group; the relationship write
	// (CREATE, since it carries no primary attribute) must come after it.
	require.Len(t, tx.runs, 2)
	assert.Contains(t, tx.runs[0], "MERGE")
	assert.Contains(t, tx.runs[0], "UNWIND")
	assert.Contains(t, tx.runs[1], "KNOWS")
}

func TestCommitBatchSkipsRelationshipWithUnresolvedMatch(t *testing.T) {
	sg := subgraph.New()
	a := subgraph.NewMergeNode([]string{"Person"}, map[string]subgraph.Scalar{"name": "Ada"}, "name", "Ada")
	sg.AddNode(a)
	match := &subgraph.NodeMatch{Labels: []string{"Genus"}, Conditions: map[string]subgraph.Scalar{"name": "rosa"}}
	sg.AddRelationship(subgraph.NewRelationship(
		subgraph.NodeEndpoint(&a), subgraph.MatchEndpoint(match), "OF_GENUS", nil))

	tx := &fakeTx{}
	drv := &fakeDriver{tx: tx}
	w := writer.New(drv, writer.RetryPolicy{MaxAttempts: 1}, nil)

	err := w.CommitBatch(context.Background(), sg)
	require.NoError(t, err)

	// The MATCH resolves to no nodes, so no OF_GENUS write is issued.
	for _, cypher := range tx.runs {
		assert.NotContains(t, cypher, "OF_GENUS")
	}
}
