/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/inventorystore/datastore"
	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

// Options configures a batch Engine.
type Options struct {
	// MaxBatchSize caps the number of operations per transactional batch
	// submission. Defaults to 100, the store's limit.
	MaxBatchSize int

	// MaxConcurrency bounds the number of chunk submissions in flight at
	// once, protecting the store's provisioned throughput.
	// Defaults to 4.
	MaxConcurrency int

	// SequentialPartitions forces the chunks of one partition to run in
	// input order, one at a time. When false (the default), chunks of the
	// same partition may race; two chunks touching the same id is then a
	// caller error, not something the engine detects.
	SequentialPartitions bool

	// RetryAttempts caps submission attempts per chunk for throttled or
	// transiently failing submissions. Defaults to 5.
	RetryAttempts uint

	// RetryBaseDelay is the backoff base; attempt n waits roughly
	// base * 2^n plus jitter. Defaults to 100ms.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps a single backoff sleep. Defaults to 2s.
	RetryMaxDelay time.Duration

	// Logger receives engine diagnostics. Defaults to a disabled logger.
	Logger zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = 100
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 4
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 5
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 100 * time.Millisecond
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = 2 * time.Second
	}
	return o
}

// Engine executes ordered batches of create, update or delete operations
// against a partitioned store. It groups operations by partition, bounds
// each partition's sub-list to the store's transactional batch size, submits
// chunks concurrently, and reassembles per-item outcomes in input order.
//
// The engine holds no mutable state across calls; one Engine is safe for
// concurrent use by multiple callers sharing one store client.
type Engine struct {
	store datastore.BatchSubmitter
	opts  Options
	log   zerolog.Logger
}

// New constructs an Engine on top of the given store handle.
func New(store datastore.BatchSubmitter, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{store: store, opts: opts, log: opts.Logger}
}

// ExecuteBatch runs an ordered batch of operations of one kind and returns
// one result per input operation, in input order, plus summary counts.
//
// Per-item failures never abort sibling chunks or partitions; the returned
// Result is always complete. The error return is reserved for misuse of the
// API itself (an unknown batch kind); store-level failures are reported in
// the per-item results.
//
// Cancellation of ctx lets in-flight chunk submissions finish, to avoid
// ambiguous partial commits, but starts no new submissions or retries.
// Items of chunks that never ran are reported as cancelled.
func (e *Engine) ExecuteBatch(ctx context.Context, kind Kind, ops []Operation) (*Result, error) {
	switch kind {
	case KindCreate, KindUpdate, KindDelete:
	default:
		return nil, fmt.Errorf("%w: unknown batch kind %q", errors.ErrInvalidInput, kind)
	}
	if len(ops) == 0 {
		return newResult(nil), nil
	}

	results := make([]OperationResult, len(ops))

	groups, invalid := groupByPartition(kind, ops)
	for _, f := range invalid {
		results[f.InputIndex] = f
	}

	chunkCount := 0
	var g errgroup.Group
	g.SetLimit(e.opts.MaxConcurrency)

	for _, grp := range groups {
		chunks := chunkOps(grp.ops, e.opts.MaxBatchSize)
		chunkCount += len(chunks)
		pk := grp.key

		if e.opts.SequentialPartitions {
			g.Go(func() error {
				for _, chunk := range chunks {
					e.runChunk(ctx, kind, pk, chunk, results)
				}
				return nil
			})
			continue
		}
		for _, chunk := range chunks {
			chunk := chunk
			g.Go(func() error {
				e.runChunk(ctx, kind, pk, chunk, results)
				return nil
			})
		}
	}

	e.log.Debug().
		Str("kind", string(kind)).
		Int("operations", len(ops)).
		Int("partitions", len(groups)).
		Int("chunks", chunkCount).
		Msg("dispatching batch")

	// Tasks record their outcomes and never return errors, so Wait only
	// joins the pool.
	_ = g.Wait()

	res := newResult(results)
	e.log.Info().
		Str("kind", string(kind)).
		Int("requested", res.Summary.Requested).
		Int("succeeded", res.Summary.Succeeded).
		Int("failed", res.Summary.Failed).
		Msg("batch complete")
	return res, nil
}

// runChunk submits one (partition, chunk) pair and records its per-item
// outcomes. Each chunk owns a disjoint set of input indices, so concurrent
// runChunk calls write disjoint slots of results and need no lock.
func (e *Engine) runChunk(ctx context.Context, kind Kind, partitionKey string, chunk []indexedOp, results []OperationResult) {
	if err := ctx.Err(); err != nil {
		e.failChunk(results, chunk, errors.KindCancelled, "batch cancelled before chunk submission")
		return
	}

	storeOps := toStoreOps(kind, partitionKey, chunk)
	outcome, err := e.submitWithRetry(ctx, partitionKey, storeOps)
	if err != nil {
		knd := errors.KindOf(err)
		if knd == errors.KindInternal {
			e.log.Error().Err(err).Str("partition", partitionKey).Msg("chunk submission failed unexpectedly")
		}
		e.failChunk(results, chunk, knd, err.Error())
		return
	}

	if !outcome.Committed {
		e.recordAbort(results, partitionKey, chunk, outcome)
		return
	}

	if len(outcome.Results) != len(chunk) {
		e.log.Error().
			Str("partition", partitionKey).
			Int("expected", len(chunk)).
			Int("got", len(outcome.Results)).
			Msg("store returned wrong result count for committed chunk")
		e.failChunk(results, chunk, errors.KindInternal,
			fmt.Sprintf("store returned %d results for %d operations", len(outcome.Results), len(chunk)))
		return
	}

	for i, item := range outcome.Results {
		idx := chunk[i].inputIndex
		if item.Err != nil {
			results[idx] = failure(idx, errors.KindOf(item.Err), item.Err.Error())
			continue
		}
		results[idx] = OperationResult{
			InputIndex: idx,
			Record:     item.Record,
			ID:         item.ID,
			VersionTag: item.VersionTag,
		}
	}
}

// recordAbort marks every item of an aborted chunk as failed with the abort
// cause, attributing the cause message to the offending operation when the
// store identified one.
func (e *Engine) recordAbort(results []OperationResult, partitionKey string, chunk []indexedOp, outcome *datastore.ChunkOutcome) {
	kind := errors.KindOf(outcome.Cause)
	causeMsg := "chunk aborted"
	if outcome.Cause != nil {
		causeMsg = outcome.Cause.Error()
	}
	e.log.Debug().
		Str("partition", partitionKey).
		Str("kind", string(kind)).
		Int("offendingIndex", outcome.OffendingIndex).
		Msg("chunk aborted")

	for i, iop := range chunk {
		msg := causeMsg
		if outcome.OffendingIndex >= 0 && i != outcome.OffendingIndex {
			msg = fmt.Sprintf("chunk aborted by sibling operation: %s", causeMsg)
		}
		results[iop.inputIndex] = failure(iop.inputIndex, kind, msg)
	}
}

func (e *Engine) failChunk(results []OperationResult, chunk []indexedOp, kind errors.Kind, message string) {
	for _, iop := range chunk {
		results[iop.inputIndex] = failure(iop.inputIndex, kind, message)
	}
}

// toStoreOps lowers a chunk into the store's batch entry format.
func toStoreOps(kind Kind, partitionKey string, chunk []indexedOp) []datastore.StoreOp {
	ops := make([]datastore.StoreOp, len(chunk))
	for i, iop := range chunk {
		switch kind {
		case KindCreate:
			// Materialize the record here so the committed result can carry
			// it; the store has no way to echo transactional writes back.
			in := *iop.op.input
			in.PartitionKey = partitionKey
			ops[i] = datastore.StoreOp{
				Kind:         datastore.OpCreate,
				PartitionKey: partitionKey,
				Record:       storagemodels.NewRecord(&in),
			}
		case KindUpdate:
			ops[i] = datastore.StoreOp{
				Kind:            datastore.OpUpdate,
				PartitionKey:    partitionKey,
				ID:              iop.op.id,
				ExpectedVersion: iop.op.expectedVersion,
				Patch:           iop.op.patch,
			}
		case KindDelete:
			ops[i] = datastore.StoreOp{
				Kind:         datastore.OpDelete,
				PartitionKey: partitionKey,
				ID:           iop.op.id,
			}
		}
	}
	return ops
}
