/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the RecordStore
// interface for testing. It mirrors the backing store's semantics: one
// SubmitBatch call is atomic per partition chunk, version tags guard
// updates, and deletes of missing records fail per item rather than
// aborting their siblings.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/inventorystore/datastore"
	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"

	"github.com/google/uuid"
)

// RecordStore is an in-memory mock implementation of datastore.RecordStore.
type RecordStore struct {
	mu         sync.Mutex
	partitions map[string]map[string]storagemodels.Record
	submitHook func(partitionKey string, ops []datastore.StoreOp) error
}

// New creates a new mock RecordStore.
func New() *RecordStore {
	return &RecordStore{
		partitions: make(map[string]map[string]storagemodels.Record),
	}
}

// WithSubmitHook installs a function called before every SubmitBatch
// attempt. Returning a non-nil error fails the attempt with that error,
// letting tests script throttling and outages.
func (m *RecordStore) WithSubmitHook(f func(partitionKey string, ops []datastore.StoreOp) error) *RecordStore {
	m.submitHook = f
	return m
}

// Seed inserts a record directly, bypassing validation.
func (m *RecordStore) Seed(rec storagemodels.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLocked(rec)
}

func (m *RecordStore) upsertLocked(rec storagemodels.Record) {
	pk := storagemodels.NormalizePartitionKey(rec.PartitionKey)
	part, ok := m.partitions[pk]
	if !ok {
		part = make(map[string]storagemodels.Record)
		m.partitions[pk] = part
	}
	part[rec.ID] = rec
}

// Len reports the number of stored records.
func (m *RecordStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, part := range m.partitions {
		n += len(part)
	}
	return n
}

// SubmitBatch applies one chunk atomically: every op is checked before any
// is applied, and any terminal check failure aborts the whole chunk with the
// offending index. Deletes of missing records are recorded per item and do
// not abort siblings.
func (m *RecordStore) SubmitBatch(ctx context.Context, partitionKey string, ops []datastore.StoreOp) (*datastore.ChunkOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.submitHook != nil {
		if err := m.submitHook(partitionKey, ops); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pk := storagemodels.NormalizePartitionKey(partitionKey)
	part := m.partitions[pk]

	results := make([]datastore.ItemResult, len(ops))
	newVersions := make([]string, len(ops))

	// Check phase: abort before touching anything.
	for i, op := range ops {
		switch op.Kind {
		case datastore.OpCreate:
			if _, exists := part[op.Record.ID]; exists {
				return &datastore.ChunkOutcome{
					Cause:          errors.NewAlreadyExistsError(op.Record.ID, pk),
					OffendingIndex: i,
				}, nil
			}
		case datastore.OpUpdate:
			cur, exists := part[op.ID]
			if !exists {
				return &datastore.ChunkOutcome{
					Cause:          errors.NewNotFoundError(op.ID, pk),
					OffendingIndex: i,
				}, nil
			}
			if cur.VersionTag != op.ExpectedVersion {
				return &datastore.ChunkOutcome{
					Cause:          errors.NewPreconditionFailedError(op.ID, op.ExpectedVersion),
					OffendingIndex: i,
				}, nil
			}
			newVersions[i] = uuid.NewString()
		case datastore.OpDelete:
			if _, exists := part[op.ID]; !exists {
				results[i] = datastore.ItemResult{ID: op.ID, Err: errors.NewNotFoundError(op.ID, pk)}
			}
		default:
			return &datastore.ChunkOutcome{
				Cause:          errors.NewValidationError("", "unknown store op kind"),
				OffendingIndex: i,
			}, nil
		}
	}

	// Apply phase.
	for i, op := range ops {
		switch op.Kind {
		case datastore.OpCreate:
			m.upsertLocked(*op.Record)
			results[i] = datastore.ItemResult{ID: op.Record.ID, VersionTag: op.Record.VersionTag, Record: op.Record}
		case datastore.OpUpdate:
			cur := part[op.ID]
			applyPatch(&cur, op.Patch)
			cur.VersionTag = newVersions[i]
			part[op.ID] = cur
			results[i] = datastore.ItemResult{ID: op.ID, VersionTag: newVersions[i]}
		case datastore.OpDelete:
			if results[i].Err != nil {
				continue
			}
			delete(part, op.ID)
			results[i] = datastore.ItemResult{ID: op.ID}
		}
	}

	return &datastore.ChunkOutcome{Committed: true, Results: results, OffendingIndex: -1}, nil
}

func applyPatch(rec *storagemodels.Record, patch *storagemodels.RecordPatch) {
	if patch == nil {
		return
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Price != nil {
		rec.Price = *patch.Price
	}
	if patch.Quantity != nil {
		rec.Quantity = *patch.Quantity
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
}

// CreateRecord validates and stores a new record.
func (m *RecordStore) CreateRecord(ctx context.Context, in *storagemodels.RecordInput) (*storagemodels.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec := storagemodels.NewRecord(in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if part := m.partitions[rec.PartitionKey]; part != nil {
		if _, exists := part[rec.ID]; exists {
			return nil, errors.NewAlreadyExistsError(rec.ID, rec.PartitionKey)
		}
	}
	m.upsertLocked(*rec)
	return rec, nil
}

// GetRecord retrieves a record by partition key and id.
func (m *RecordStore) GetRecord(ctx context.Context, partitionKey, id string) (*storagemodels.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := storagemodels.NormalizePartitionKey(partitionKey)
	if part := m.partitions[pk]; part != nil {
		if rec, ok := part[id]; ok {
			return &rec, nil
		}
	}
	return nil, errors.NewNotFoundError(id, pk)
}

// PatchRecord applies a partial update under the version tag precondition.
func (m *RecordStore) PatchRecord(ctx context.Context, partitionKey, id, expectedVersion string, patch *storagemodels.RecordPatch) (*storagemodels.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	pk := storagemodels.NormalizePartitionKey(partitionKey)
	part := m.partitions[pk]
	cur, ok := part[id]
	if !ok {
		return nil, errors.NewNotFoundError(id, pk)
	}
	if cur.VersionTag != expectedVersion {
		return nil, errors.NewPreconditionFailedError(id, expectedVersion)
	}
	applyPatch(&cur, patch)
	cur.VersionTag = uuid.NewString()
	part[id] = cur
	return &cur, nil
}

// DeleteRecord removes a record.
func (m *RecordStore) DeleteRecord(ctx context.Context, partitionKey, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := storagemodels.NormalizePartitionKey(partitionKey)
	part := m.partitions[pk]
	if _, ok := part[id]; !ok {
		return errors.NewNotFoundError(id, pk)
	}
	delete(part, id)
	return nil
}

// ListByPartition returns the partition's records ordered by id. Pagination
// tokens are the id to resume after.
func (m *RecordStore) ListByPartition(ctx context.Context, params *storagemodels.ListParams) (*storagemodels.RecordPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := storagemodels.NormalizePartitionKey(params.PartitionKey)
	part := m.partitions[pk]

	ids := make([]string, 0, len(part))
	for id := range part {
		if params.StartToken != "" && id <= params.StartToken {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	limit := int(params.Limit)
	page := &storagemodels.RecordPage{}
	for _, id := range ids {
		if limit > 0 && len(page.Items) == limit {
			page.NextToken = page.Items[len(page.Items)-1].ID
			break
		}
		page.Items = append(page.Items, part[id])
	}
	return page, nil
}
