/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

// Kind identifies the mutation kind of a batch. All operations in one
// ExecuteBatch call must share the batch's kind.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Operation is one entry of a batch request. Operations are immutable once
// constructed; the constructors validate their input and refuse to build a
// malformed operation, so an Operation that exists is well-formed.
type Operation struct {
	kind            Kind
	partitionKey    string
	id              string
	expectedVersion string
	input           *storagemodels.RecordInput
	patch           *storagemodels.RecordPatch
}

// Kind returns the operation's mutation kind.
func (o Operation) Kind() Kind { return o.kind }

// PartitionKey returns the partition the operation routes to, as supplied
// by the caller (normalization happens at grouping time).
func (o Operation) PartitionKey() string { return o.partitionKey }

// ID returns the target record id; empty for creates.
func (o Operation) ID() string { return o.id }

// NewCreate builds a create operation from caller-supplied record fields.
// The store assigns the id, version tag, status and timestamps.
func NewCreate(in storagemodels.RecordInput) (Operation, error) {
	if err := in.Validate(); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:         KindCreate,
		partitionKey: in.PartitionKey,
		input:        &in,
	}, nil
}

// NewUpdate builds a partial-update operation. The expected version tag is
// the optimistic-concurrency precondition; the store rejects the chunk if it
// no longer matches.
func NewUpdate(partitionKey, id, expectedVersion string, patch storagemodels.RecordPatch) (Operation, error) {
	if partitionKey == "" {
		return Operation{}, errors.NewValidationError("partitionKey", "must not be empty")
	}
	if id == "" {
		return Operation{}, errors.NewValidationError("id", "must not be empty")
	}
	if expectedVersion == "" {
		return Operation{}, errors.NewValidationError("expectedVersion", "must not be empty")
	}
	if err := patch.Validate(); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:            KindUpdate,
		partitionKey:    partitionKey,
		id:              id,
		expectedVersion: expectedVersion,
		patch:           &patch,
	}, nil
}

// NewDelete builds a delete operation.
func NewDelete(partitionKey, id string) (Operation, error) {
	if partitionKey == "" {
		return Operation{}, errors.NewValidationError("partitionKey", "must not be empty")
	}
	if id == "" {
		return Operation{}, errors.NewValidationError("id", "must not be empty")
	}
	return Operation{
		kind:         KindDelete,
		partitionKey: partitionKey,
		id:           id,
	}, nil
}

// OperationResult is the outcome of one input operation. Exactly one result
// exists per input, at the same index the operation held in the request.
type OperationResult struct {
	// InputIndex is the operation's position in the original request.
	InputIndex int `json:"inputIndex"`
	// Record is the resulting record for successful creates.
	Record *storagemodels.Record `json:"record,omitempty"`
	// ID is the target record id for successful updates and deletes.
	ID string `json:"id,omitempty"`
	// VersionTag is the record's new version after a successful update.
	VersionTag string `json:"versionTag,omitempty"`
	// ErrorKind classifies the failure; empty on success.
	ErrorKind errors.Kind `json:"errorKind,omitempty"`
	// Message describes the failure; empty on success.
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the operation committed.
func (r OperationResult) Succeeded() bool { return r.ErrorKind == errors.KindNone }

func failure(inputIndex int, kind errors.Kind, message string) OperationResult {
	return OperationResult{InputIndex: inputIndex, ErrorKind: kind, Message: message}
}
