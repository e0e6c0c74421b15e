/*
Package datastore defines the core interfaces for InventoryStore's persistence layer.

The central contract is BatchSubmitter, the seam between the batch mutation
engine and the backing store:

	type BatchSubmitter interface {
	    SubmitBatch(ctx context.Context, partitionKey string, ops []StoreOp) (*ChunkOutcome, error)
	}

A submitted chunk is an all-or-nothing transactional batch confined to one
partition. Terminal rejections come back as an aborted ChunkOutcome carrying
the cause and, when the store reports it, the index of the offending
operation. Transient conditions (throttling, infrastructure faults) come
back as Go errors and are safe to retry with the identical chunk.

RecordStore extends BatchSubmitter with the single-item CRUD and partition
listing surface.

Implementations:
  - ddb: DynamoDB implementation using TransactWriteItems
  - mock: In-memory implementation for testing
*/
package datastore
