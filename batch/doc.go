/*
Package batch implements the partition-batched mutation engine at the heart
of InventoryStore.

The engine accepts an ordered list of operations of one kind (all-create,
all-update or all-delete), buckets them by partition key, bounds each bucket
to the store's transactional batch size, and submits one atomic batch per
(partition, chunk) pair on a bounded worker pool. Outcomes are reassembled
into a result array aligned with the input: Items[i] is always the fate of
the i-th submitted operation.

Atomicity follows the store's contract. One chunk commits or aborts as a
whole; an update with a stale version tag aborts its entire chunk, with the
cause attributed to the offending item. Chunks are independent of each
other, including chunks of the same partition, so a batch larger than the
chunk size is only atomic per chunk. One partition's abort never affects
another partition.

Throttled and transiently failing chunk submissions are retried whole with
exponential backoff and jitter up to an attempt cap; all other failures are
terminal. Cancelling the context lets in-flight submissions finish but
starts nothing new; unrun chunks report every item as cancelled.

Usage:

	engine := batch.New(store, batch.Options{MaxConcurrency: 8})

	ops := make([]batch.Operation, 0, len(inputs))
	for _, in := range inputs {
	    op, err := batch.NewCreate(in)
	    if err != nil { ... }
	    ops = append(ops, op)
	}

	res, err := engine.ExecuteBatch(ctx, batch.KindCreate, ops)
	for _, item := range res.Items {
	    if !item.Succeeded() {
	        log.Printf("op %d failed: %s (%s)", item.InputIndex, item.Message, item.ErrorKind)
	    }
	}
*/
package batch
