package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jkminder/data2neo/factory"
	"github.com/jkminder/data2neo/internal/trace"
	"github.com/jkminder/data2neo/registry"
	"github.com/jkminder/data2neo/resource"
	"github.com/jkminder/data2neo/schema"
	"github.com/jkminder/data2neo/subgraph"
	"github.com/jkminder/data2neo/writer"
)

// Engine ties a compiled schema plan, its factory graph, and a graph
// writer together into a runnable conversion.
type Engine struct {
	mu     sync.RWMutex
	plan   *schema.Plan
	snap   *registry.Snapshot
	graph  *factory.Graph
	writer *writer.Writer
	cfg    Config
	logger *slog.Logger
	ckpt   *checkpoint
	mtr    *metrics
}

// New builds an Engine. cfg should come from [NewConfig] or
// [LoadConfigFile] so its defaults and validation have already run.
func New(plan *schema.Plan, snap *registry.Snapshot, w *writer.Writer, cfg Config, logger *slog.Logger) (*Engine, error) {
	mtr, err := newMetrics(cfg.ProgressSink)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to initialize metrics: %w", err)
	}
	return &Engine{
		plan:   plan,
		snap:   snap,
		graph:  factory.Build(plan, snap, logger),
		writer: w,
		cfg:    cfg,
		logger: logger,
		ckpt:   newCheckpoint(),
		mtr:    mtr,
	}, nil
}

// ReloadSchema recompiles the engine against a new plan/snapshot pair,
// rebuilding the factory graph and clearing checkpoint progress — the
// batch numbering a checkpoint was recorded against is meaningless once the
// conversion logic producing those batches changes (SPEC_FULL.md's
// recovered reload_schema operation).
func (e *Engine) ReloadSchema(plan *schema.Plan, snap *registry.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plan = plan
	e.snap = snap
	e.graph = factory.Build(plan, snap, e.logger)
	e.ckpt.Reset()
}

// Run drives a full two-phase conversion of iter: first every resource's
// nodes, then — after iter.Reset — every resource's relationships. Both
// phases batch resources per [Config.BatchSize] and, when
// [Config.Parallel] is true, process up to [Config.Workers] batches
// concurrently; when false, batches run one at a time in iterator order.
//
// Committed batch indices are kept across calls, so a later Run skips the
// batches an earlier one committed. Only [Engine.ReloadSchema] clears them;
// passing a different iterator to Run does not.
func (e *Engine) Run(ctx context.Context, iter resource.Iterator) error {
	op := trace.Begin(ctx, e.logger, "engine.Engine.Run")
	var err error
	defer func() { op.End(err) }()

	if err = e.runPhase(ctx, iter, phaseNodes); err != nil {
		return fmt.Errorf("engine: nodes phase failed: %w", err)
	}
	if err = e.runPhase(ctx, iter, phaseRelationships); err != nil {
		return fmt.Errorf("engine: relationships phase failed: %w", err)
	}
	return nil
}

// convertPhase reports how much of an entity's plan Convert should
// evaluate for p: the Nodes phase evaluates node sub-plans only (its
// relationship sub-plans, and any matchers or wrapper calls they carry,
// never run); the Relationships phase evaluates everything, since it needs
// the rebuilt node identifiers to resolve relationship endpoints even
// though those nodes are not recommitted.
func (p phase) convertPhase() factory.Phase {
	if p == phaseNodes {
		return factory.NodesOnly
	}
	return factory.Full
}

// commitView returns the part of sg that p's batch should actually commit:
// the whole (nodes-only) Subgraph for the Nodes phase, or just the
// relationships for the Relationships phase, whose re-evaluated nodes exist
// only to resolve local identifiers and are not written again.
func (p phase) commitView(sg *subgraph.Subgraph) *subgraph.Subgraph {
	if p == phaseNodes {
		return sg
	}
	return relationshipsOnly(sg)
}

func (e *Engine) runPhase(ctx context.Context, iter resource.Iterator, p phase) error {
	if err := iter.Reset(ctx); err != nil {
		return err
	}

	workers := e.cfg.Workers
	if !e.cfg.Parallel {
		workers = 1
	}
	pool := newWorkerPool(ctx, workers)

	idx := 0
	for {
		resources, exhausted, err := collectBatch(ctx, iter, e.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(resources) == 0 {
			break
		}

		batchIdx := idx
		idx++
		if e.ckpt.Committed(p, batchIdx) {
			if exhausted {
				break
			}
			continue
		}

		toProcess := resources
		pool.Go(func(ctx context.Context) error {
			return e.processBatch(ctx, toProcess, p, batchIdx)
		})

		if exhausted {
			break
		}
	}
	return pool.Wait()
}

// collectBatch pulls up to n resources from iter, which Run's caller must
// ensure is only ever driven by one goroutine at a time (the phase
// coordinator, never the worker pool itself — resource.Iterator is not
// safe for concurrent Next calls).
func collectBatch(ctx context.Context, iter resource.Iterator, n int) ([]resource.Resource, bool, error) {
	resources := make([]resource.Resource, 0, n)
	for len(resources) < n {
		res, ok := iter.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return resources, true, err
			}
			return resources, true, nil
		}
		resources = append(resources, res)
	}
	return resources, false, nil
}

func (e *Engine) processBatch(ctx context.Context, resources []resource.Resource, p phase, idx int) error {
	start := time.Now()
	b := newBatch(idx)
	b.state = batchClaimed

	b.state = batchBuilding
	for _, res := range resources {
		sg, err := e.currentGraph().Convert(ctx, res, p.convertPhase())
		if err != nil {
			trace.Warn(ctx, e.logger, "engine: skipping resource that failed conversion",
				slog.String("error", err.Error()))
			continue
		}
		b.sg.Union(sg)
	}

	b.state = batchWriting
	if err := e.writer.CommitBatch(ctx, p.commitView(b.sg)); err != nil {
		b.state = batchFailed
		b.err = err
		e.mtr.recordFailed(ctx)
		return fmt.Errorf("engine: phase %s batch %d: %w", p, idx, err)
	}

	b.state = batchCommitted
	e.ckpt.Advance(p, idx)
	e.mtr.recordCommitted(ctx, len(resources), time.Since(start).Seconds())
	return nil
}

func (e *Engine) currentGraph() *factory.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// relationshipsOnly returns a Subgraph containing only sg's relationships.
// Merge-keyed endpoints resolve against the live graph at commit time
// (writer.Writer.resolveEndpoint); non-merging ("ephemeral") endpoints only
// resolve when written in the very same batch as their relationship, which
// the Relationships phase — running after every Nodes-phase batch has
// already committed — cannot guarantee, a documented limitation of the
// two-phase split.
func relationshipsOnly(sg *subgraph.Subgraph) *subgraph.Subgraph {
	out := subgraph.New()
	for _, r := range sg.Relationships() {
		out.AddRelationship(r)
	}
	return out
}
