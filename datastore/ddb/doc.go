/*
Package ddb provides the DynamoDB implementation of the RecordStore interface.

The RecordStore supports:
  - Single-table design patterns with macro-based key expansion
    (e.g. "INV#{PartitionKey}")
  - Conditional writes carrying the version tag precondition for
    optimistic locking
  - Transactional batch submission via TransactWriteItems, the atomic
    unit the batch engine builds on
  - Partition listing with opaque continuation tokens

Batch semantics:

SubmitBatch turns one chunk into a single TransactWriteItems call, so the
chunk commits or aborts as a whole. Cancellation reasons from a rejected
transaction are mapped back onto the offending operation: a failed condition
on a create means the id already exists, on an update it means the stored
version tag moved (or the record vanished), on a delete it means the record
was never there. Deletes of missing records are the one per-item case: the
op is dropped, recorded as not found, and the rest of the chunk is
resubmitted so siblings still commit.

Throttling codes and transaction conflicts surface as retryable errors; the
engine resubmits the identical chunk since nothing persists on abort.

The DynamoClient interface decouples the store from the concrete AWS client
so tests can substitute a double.
*/
package ddb
