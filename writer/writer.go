// Package writer commits one batch's [subgraph.Subgraph] to the graph
// database inside a single transaction, always writing every node before
// any relationship so a relationship never references a node the same
// batch hasn't written yet.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jkminder/data2neo/internal/trace"
	"github.com/jkminder/data2neo/subgraph"
)

// Writer commits Subgraphs through a [Driver].
type Writer struct {
	driver Driver
	policy RetryPolicy
	logger *slog.Logger
}

// New builds a Writer. If policy is the zero value, [DefaultRetryPolicy] is
// used.
func New(driver Driver, policy RetryPolicy, logger *slog.Logger) *Writer {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy
	}
	return &Writer{driver: driver, policy: policy, logger: logger}
}

// CommitBatch writes every node in sg, then every relationship, inside one
// transaction, retrying the whole batch per w's [RetryPolicy]. Every error
// returned by the driver's ExecuteWrite is wrapped as a
// [TransientGraphError], so any failed attempt is retried until the policy
// is exhausted; no error is classified as non-transient here.
func (w *Writer) CommitBatch(ctx context.Context, sg *subgraph.Subgraph) error {
	op := trace.Begin(ctx, w.logger, "writer.Writer.CommitBatch",
		slog.Int("nodes", sg.NodeCount()), slog.Int("relationships", sg.RelationshipCount()))
	var outErr error
	defer func() { op.End(outErr) }()

	outErr = Retry(ctx, w.policy, func(ctx context.Context) error {
		_, err := w.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
			return nil, w.commitOnce(ctx, tx, sg)
		})
		if err != nil {
			return &TransientGraphError{Cause: err}
		}
		return nil
	})
	return outErr
}

// commitOnce runs a five-pass protocol within one transaction attempt:
// bulk-MERGE/CREATE every node grouped by (primary_label, merge),
// bulk-resolve every distinct MATCH pattern once, then bulk-MERGE/CREATE
// every relationship grouped by (type, merge).
func (w *Writer) commitOnce(ctx context.Context, tx Transaction, sg *subgraph.Subgraph) error {
	ids := make(map[subgraph.MergeIdentity]int64, sg.NodeCount())

	// Pass 1: partition nodes by merge-ness, exact label set (whose first
	// label is the primary label of a merging node) and primary key name, and
	// write each partition in one bulk statement.
	for _, group := range groupNodes(sg.Nodes()) {
		valid := group.nodes[:0]
		for _, n := range group.nodes {
			if err := n.Validate(); err != nil {
				trace.Warn(ctx, w.logger, "writer: skipping invalid node", slog.String("error", err.Error()))
				continue
			}
			valid = append(valid, n)
		}
		if len(valid) == 0 {
			continue
		}
		gotIDs, err := writeNodesBulk(ctx, tx, group.merge, group.labels, group.primaryKey, valid)
		if err != nil {
			return err
		}
		for i, n := range valid {
			ids[n.Identity()] = gotIDs[i]
		}
	}

	// Pass 2: resolve every MATCH endpoint pattern exactly once, even if
	// several relationships share it.
	matches := make(map[string][]int64)
	for _, r := range sg.Relationships() {
		for _, ep := range []subgraph.Endpoint{r.Start, r.End} {
			m, ok := ep.Match()
			if !ok {
				continue
			}
			if _, done := matches[m.Key()]; done {
				continue
			}
			found, err := resolveMatch(ctx, tx, *m)
			if err != nil {
				return err
			}
			matches[m.Key()] = found
		}
	}

	// Pass 3: resolve each relationship's endpoint id set (a produced Node
	// resolves to exactly one id; a NodeMatch resolves to zero or more),
	// expanding the cartesian product into one concrete (start id, end id)
	// row per combination. A merge-keyed Node endpoint not already written
	// by this batch's Pass 1 (the common case when a later
	// "relationships" batch re-traverses resources after an earlier
	// "nodes" batch already committed them) is resolved by re-issuing its
	// idempotent MERGE here — cheap, and safe because merge identity is a
	// stable property key, not a batch-local handle. A non-merging
	// ("ephemeral") Node endpoint has no such stable key, so it can only be
	// resolved when its owning Node was written within this same
	// transaction; its intra-batch tag identity is inherently
	// single-transaction-scoped (see subgraph.Node's own doc comment).
	type resolved struct {
		r       subgraph.Relationship
		startID int64
		endID   int64
	}
	var rows []resolved
	for _, r := range sg.Relationships() {
		startIDs, ok := w.resolveEndpoint(ctx, tx, r.Start, ids, matches)
		if !ok {
			trace.Warn(ctx, w.logger, "writer: skipping relationship with unresolved start endpoint")
			continue
		}
		endIDs, ok := w.resolveEndpoint(ctx, tx, r.End, ids, matches)
		if !ok {
			trace.Warn(ctx, w.logger, "writer: skipping relationship with unresolved end endpoint")
			continue
		}
		for _, s := range startIDs {
			for _, e := range endIDs {
				rows = append(rows, resolved{r: r, startID: s, endID: e})
			}
		}
	}

	// Pass 4: partition resolved relationships by (type, merge[, primary key
	// name]) and, for merge=true groups, dedupe by relationship merge-identity
	// (last-writer-wins on properties) before writing each partition in one
	// bulk statement. merge=false relationships are never deduped — two
	// otherwise-identical ones are two parallel edges.
	groups := make(map[relGroupKey]*relGroup)
	var order []relGroupKey
	for _, row := range rows {
		key := relGroupKey{relType: row.r.Type, merge: row.r.Merge, primaryKey: row.r.PrimaryKeyName}
		g, ok := groups[key]
		if !ok {
			g = &relGroup{key: key}
			groups[key] = g
			order = append(order, key)
		}
		if !row.r.Merge {
			g.rows = append(g.rows, relRow{startID: row.startID, endID: row.endID, props: row.r.Properties, key: row.r.PrimaryKeyValue})
			continue
		}
		id := relMergeIdentity{start: row.startID, end: row.endID, key: fmt.Sprint(row.r.PrimaryKeyValue)}
		if i, dup := g.index[id]; dup {
			g.rows[i].props = foldProps(g.rows[i].props, row.r.Properties)
			continue
		}
		if g.index == nil {
			g.index = make(map[relMergeIdentity]int)
		}
		g.index[id] = len(g.rows)
		g.rows = append(g.rows, relRow{startID: row.startID, endID: row.endID, props: row.r.Properties, key: row.r.PrimaryKeyValue})
	}
	for _, key := range order {
		g := groups[key]
		if err := writeRelationshipsBulk(ctx, tx, key, g.rows); err != nil {
			return err
		}
	}
	return nil
}

type relMergeIdentity struct {
	start, end int64
	key        string
}

type relGroupKey struct {
	relType    string
	merge      bool
	primaryKey string
}

type relRow struct {
	startID, endID int64
	props          map[string]subgraph.Scalar
	key            subgraph.Scalar
}

type relGroup struct {
	key   relGroupKey
	rows  []relRow
	index map[relMergeIdentity]int
}

func foldProps(existing, incoming map[string]subgraph.Scalar) map[string]subgraph.Scalar {
	merged := make(map[string]subgraph.Scalar, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

// resolveEndpoint resolves one relationship endpoint to its internal graph
// id(s), lazily MERGE-ing a merge-keyed Node that Pass 1 didn't already
// write in this transaction.
func (w *Writer) resolveEndpoint(ctx context.Context, tx Transaction, ep subgraph.Endpoint, ids map[subgraph.MergeIdentity]int64, matches map[string][]int64) ([]int64, bool) {
	if n, ok := ep.Node(); ok {
		identity := n.Identity()
		if id, ok := ids[identity]; ok {
			return []int64{id}, true
		}
		if !n.Merge {
			return nil, false
		}
		id, err := writeNode(ctx, tx, *n)
		if err != nil {
			trace.Warn(ctx, w.logger, "writer: failed to resolve merge node endpoint", slog.String("error", err.Error()))
			return nil, false
		}
		ids[identity] = id
		return []int64{id}, true
	}
	m, _ := ep.Match()
	found, ok := matches[m.Key()]
	return found, ok
}

// writeNode writes n (MERGE if n.Merge, else CREATE) and returns its
// internal graph id for later relationship resolution.
func writeNode(ctx context.Context, tx Transaction, n subgraph.Node) (int64, error) {
	labels := quoteLabels(n.Labels)
	var cypher string
	params := map[string]any{"props": n.Properties}

	if n.Merge {
		params["key"] = n.PrimaryKeyValue
		cypher = fmt.Sprintf(
			"MERGE (n:%s {%s: $key}) SET n += $props RETURN id(n) AS id",
			quoteLabel(n.PrimaryLabel), quoteIdent(n.PrimaryKeyName))
	} else {
		cypher = fmt.Sprintf("CREATE (n:%s) SET n += $props RETURN id(n) AS id", labels)
	}

	records, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	return firstID(records)
}

// resolveMatch runs m's pattern and returns every matched node's id, in
// whatever order the database returns them.
func resolveMatch(ctx context.Context, tx Transaction, m subgraph.NodeMatch) ([]int64, error) {
	labels := quoteLabels(m.Labels)
	var conds []string
	for k := range m.Conditions {
		conds = append(conds, fmt.Sprintf("n.%s = $%s", quoteIdent(k), k))
	}
	cypher := fmt.Sprintf("MATCH (n:%s)", labels)
	if len(conds) > 0 {
		cypher += " WHERE " + strings.Join(conds, " AND ")
	}
	cypher += " RETURN id(n) AS id"

	params := make(map[string]any, len(m.Conditions))
	for k, v := range m.Conditions {
		params[k] = v
	}
	records, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		if id, ok := toInt64(rec["id"]); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// nodeGroupKey partitions nodes by (exact ordered label set,
// primary_key_name) for merge=true nodes — a group shares one MERGE template
// on its first (primary) label plus one SET of the remaining labels — or by
// the exact ordered label set for merge=false nodes, which need their labels
// spelled into the CREATE template.
type nodeGroupKey struct {
	merge      bool
	labelsKey  string
	primaryKey string
}

type nodeGroup struct {
	merge      bool
	labels     []string
	primaryKey string
	nodes      []subgraph.Node
}

// groupNodes partitions nodes into bulk-writable groups, preserving each
// group's first-seen order so generated Cypher is stable across otherwise
// identical batches.
func groupNodes(nodes []subgraph.Node) []*nodeGroup {
	groups := make(map[nodeGroupKey]*nodeGroup)
	var order []nodeGroupKey
	for _, n := range nodes {
		var key nodeGroupKey
		if n.Merge {
			key = nodeGroupKey{merge: true, labelsKey: strings.Join(n.Labels, ":"), primaryKey: n.PrimaryKeyName}
		} else {
			key = nodeGroupKey{labelsKey: strings.Join(n.Labels, ":")}
		}
		g, ok := groups[key]
		if !ok {
			g = &nodeGroup{merge: n.Merge, labels: n.Labels, primaryKey: n.PrimaryKeyName}
			groups[key] = g
			order = append(order, key)
		}
		g.nodes = append(g.nodes, n)
	}
	out := make([]*nodeGroup, len(order))
	for i, key := range order {
		out[i] = groups[key]
	}
	return out
}

// writeNodesBulk writes one partition of nodes in a single UNWIND-driven
// statement: MERGE-on-primary-key then SET properties (and any additional
// labels beyond the primary one) for a merge group, or CREATE with the
// group's fixed label set for a non-merge group. Returned ids are in the
// same order as nodes.
func writeNodesBulk(ctx context.Context, tx Transaction, merge bool, labels []string, primaryKey string, nodes []subgraph.Node) ([]int64, error) {
	rows := make([]any, len(nodes))
	var cypher string

	if merge {
		extraLabels := labels[1:]
		for i, n := range nodes {
			rows[i] = map[string]any{"key": n.PrimaryKeyValue, "props": n.Properties}
		}
		cypher = fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {%s: row.key}) SET n += row.props",
			quoteLabel(labels[0]), quoteIdent(primaryKey))
		if len(extraLabels) > 0 {
			cypher += fmt.Sprintf(" SET n:%s", quoteLabels(extraLabels))
		}
		cypher += " RETURN id(n) AS id"
	} else {
		for i, n := range nodes {
			rows[i] = map[string]any{"props": n.Properties}
		}
		cypher = fmt.Sprintf("UNWIND $rows AS row CREATE (n:%s) SET n += row.props RETURN id(n) AS id", quoteLabels(labels))
	}

	records, err := tx.Run(ctx, cypher, map[string]any{"rows": rows})
	if err != nil {
		return nil, err
	}
	return idsInOrder(records, len(nodes))
}

// writeRelationshipsBulk writes one partition of resolved relationships
// (same type, same merge-ness, same primary key name) in a single
// UNWIND-driven MERGE or CREATE statement.
func writeRelationshipsBulk(ctx context.Context, tx Transaction, key relGroupKey, rows []relRow) error {
	if len(rows) == 0 {
		return nil
	}
	params := make([]any, len(rows))
	var cypher string

	if key.merge {
		for i, row := range rows {
			params[i] = map[string]any{"startId": row.startID, "endId": row.endID, "key": row.key, "props": row.props}
		}
		cypher = fmt.Sprintf(
			`UNWIND $rows AS row
MATCH (a), (b) WHERE id(a) = row.startId AND id(b) = row.endId
MERGE (a)-[r:%s {%s: row.key}]->(b) SET r += row.props`,
			quoteIdent(key.relType), quoteIdent(key.primaryKey))
	} else {
		for i, row := range rows {
			params[i] = map[string]any{"startId": row.startID, "endId": row.endID, "props": row.props}
		}
		cypher = fmt.Sprintf(
			`UNWIND $rows AS row
MATCH (a), (b) WHERE id(a) = row.startId AND id(b) = row.endId
CREATE (a)-[r:%s]->(b) SET r += row.props`,
			quoteIdent(key.relType))
	}

	_, err := tx.Run(ctx, cypher, map[string]any{"rows": params})
	return err
}

// idsInOrder extracts n "id" columns from records, in return order. Neo4j
// preserves UNWIND's row order for simple per-row MERGE/CREATE + RETURN
// statements like the ones this package generates.
func idsInOrder(records []Record, n int) ([]int64, error) {
	if len(records) != n {
		return nil, fmt.Errorf("writer: expected %d returned ids, got %d", n, len(records))
	}
	ids := make([]int64, n)
	for i, rec := range records {
		id, ok := toInt64(rec["id"])
		if !ok {
			return nil, fmt.Errorf("writer: returned id column was not an integer")
		}
		ids[i] = id
	}
	return ids, nil
}

func firstID(records []Record) (int64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("writer: expected a returned id, got no rows")
	}
	id, ok := toInt64(records[0]["id"])
	if !ok {
		return 0, fmt.Errorf("writer: returned id column was not an integer")
	}
	return id, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func quoteLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = quoteLabel(l)
	}
	return strings.Join(quoted, ":")
}

// quoteLabel and quoteIdent backtick-escape a schema-supplied label or
// property name so it can be interpolated into Cypher text (labels and
// property keys cannot be bound as query parameters in Cypher).
func quoteLabel(label string) string { return "`" + strings.ReplaceAll(label, "`", "``") + "`" }
func quoteIdent(name string) string  { return "`" + strings.ReplaceAll(name, "`", "``") + "`" }
