/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/inventorystore/storagemodels"
)

// OpKind identifies the store-level action of a single batch entry.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// StoreOp is one entry of a transactional batch submission. Exactly the
// fields relevant to its Kind are set: Record for creates; ID, ExpectedVersion
// and Patch for updates; ID for deletes. PartitionKey is always set and must
// match the partition of the batch it is submitted in.
type StoreOp struct {
	Kind            OpKind
	PartitionKey    string
	ID              string
	ExpectedVersion string
	Record          *storagemodels.Record
	Patch           *storagemodels.RecordPatch
}

// ItemResult is the per-item outcome of a committed batch. Creates carry the
// full stored record; updates and deletes carry the record's ID and, for
// updates, the new version tag. Err is set on the one per-item failure a
// committed batch can contain: a delete whose target never existed, which
// does not abort its siblings.
type ItemResult struct {
	ID         string
	VersionTag string
	Record     *storagemodels.Record
	Err        error
}

// ChunkOutcome reports the fate of one transactional batch. The batch either
// committed as a whole (Committed true, one ItemResult per submitted op, in
// submission order) or aborted as a whole (Cause set, OffendingIndex pointing
// at the op that triggered the abort, or -1 when the store did not say).
type ChunkOutcome struct {
	Committed      bool
	Results        []ItemResult
	Cause          error
	OffendingIndex int
}

// BatchSubmitter submits one ordered chunk of operations as a single
// transactional batch confined to one partition.
//
// Terminal rejections (precondition failure, duplicate id, missing record,
// malformed op) are reported as an aborted ChunkOutcome. Transient conditions
// (throttling, infrastructure faults) and context errors are returned as Go
// errors so callers can retry the whole chunk; no partial chunk state
// persists in either case.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, partitionKey string, ops []StoreOp) (*ChunkOutcome, error)
}

// RecordStore is the full store surface: single-item CRUD, partition
// listing, and the transactional batch entry point used by the batch engine.
type RecordStore interface {
	BatchSubmitter

	CreateRecord(ctx context.Context, in *storagemodels.RecordInput) (*storagemodels.Record, error)

	GetRecord(ctx context.Context, partitionKey, id string) (*storagemodels.Record, error)

	PatchRecord(ctx context.Context, partitionKey, id, expectedVersion string, patch *storagemodels.RecordPatch) (*storagemodels.Record, error)

	DeleteRecord(ctx context.Context, partitionKey, id string) error

	ListByPartition(ctx context.Context, params *storagemodels.ListParams) (*storagemodels.RecordPage, error)
}
