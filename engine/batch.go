package engine

import "github.com/jkminder/data2neo/subgraph"

// batchState is the state machine a batch moves through during a phase:
// PENDING → CLAIMED → BUILDING → WRITING → COMMITTED, or WRITING → FAILED
// when the writer's CommitBatch returns an error. Retries happen inside
// CommitBatch, so processBatch never enters RETRY; a FAILED batch returns
// its error, which ends the phase and the run.
type batchState uint8

const (
	batchPending batchState = iota
	batchClaimed
	batchBuilding
	batchWriting
	batchCommitted
	batchRetry
	batchFailed
)

func (s batchState) String() string {
	switch s {
	case batchPending:
		return "PENDING"
	case batchClaimed:
		return "CLAIMED"
	case batchBuilding:
		return "BUILDING"
	case batchWriting:
		return "WRITING"
	case batchCommitted:
		return "COMMITTED"
	case batchRetry:
		return "RETRY"
	case batchFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// batch is one unit of work: a contiguous run of resources pulled from the
// iterator, converted into a single accumulated [subgraph.Subgraph], and
// committed as one transaction.
type batch struct {
	index int
	state batchState
	sg    *subgraph.Subgraph
	err   error
}

func newBatch(index int) *batch {
	return &batch{index: index, state: batchPending, sg: subgraph.New()}
}
