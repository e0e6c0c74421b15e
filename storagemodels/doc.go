/*
Package storagemodels defines the data structures used throughout InventoryStore.

Key Types:

Record:
The managed inventory entity. ID and PartitionKey are immutable after
creation; VersionTag is the opaque optimistic-concurrency token the store
rewrites on every mutation.

RecordInput:
Caller-supplied fields for a create. The store assigns ID, VersionTag,
Status and timestamps:

	in := RecordInput{
	    PartitionKey: "electronics",
	    Name:         "Mechanical Keyboard",
	    SKU:          "KB-0042",
	    Price:        89.99,
	    Quantity:     12,
	}
	if err := in.Validate(); err != nil { ... }

RecordPatch:
A partial update; nil fields are left untouched. A patch must set at least
one field and can never move a record between partitions:

	price := 79.99
	patch := RecordPatch{Price: &price}

ListParams / RecordPage:
Pagination over one partition with an opaque continuation token.

These types provide a consistent surface across the batch engine and the
storage implementations.
*/
package storagemodels
