/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/suparena/inventorystore/datastore"
	"github.com/suparena/inventorystore/errors"
)

// maxTransactOps is DynamoDB's limit on operations per TransactWriteItems call.
const maxTransactOps = 100

// txEntry pairs a store op with its position in the submitted chunk and the
// version tag minted for it when it is an update.
type txEntry struct {
	op         datastore.StoreOp
	chunkIndex int
	newVersion string
}

// SubmitBatch submits one ordered chunk as a single TransactWriteItems call.
// The transaction commits or aborts as a whole; on abort the outcome carries
// the cause and the offending operation's index when DynamoDB reported one.
//
// One exception to whole-chunk failure: a delete whose target does not exist
// is recorded as a per-item not-found result, the op is dropped from the
// transaction, and the remainder is resubmitted, so missing deletes never
// take down their siblings. Updates keep strict abort semantics: any stale
// version tag aborts the chunk.
//
// Throttling and transient faults come back as Go errors; the caller may
// retry with the identical chunk since nothing persists on abort.
func (s *RecordStore) SubmitBatch(ctx context.Context, partitionKey string, ops []datastore.StoreOp) (*datastore.ChunkOutcome, error) {
	if len(ops) == 0 {
		return &datastore.ChunkOutcome{Committed: true, OffendingIndex: -1}, nil
	}
	if len(ops) > maxTransactOps {
		return nil, fmt.Errorf("%w: chunk of %d operations exceeds the %d-operation transactional batch limit",
			errors.ErrInvalidInput, len(ops), maxTransactOps)
	}

	results := make([]datastore.ItemResult, len(ops))
	pending := make([]txEntry, 0, len(ops))
	for i, op := range ops {
		e := txEntry{op: op, chunkIndex: i}
		if op.Kind == datastore.OpUpdate {
			e.newVersion = uuid.NewString()
		}
		pending = append(pending, e)
	}

	for {
		items, err := s.buildTransactItems(pending)
		if err != nil {
			return &datastore.ChunkOutcome{Cause: err, OffendingIndex: -1}, nil
		}

		_, err = s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err == nil {
			for _, e := range pending {
				results[e.chunkIndex] = committedItemResult(e)
			}
			return &datastore.ChunkOutcome{Committed: true, Results: results, OffendingIndex: -1}, nil
		}

		abortCause, pendingIdx, classifyErr := s.classifyTransactCancel(partitionKey, pending, err)
		if classifyErr != nil {
			// Transient or transport-level: the whole chunk is retryable.
			return nil, classifyErr
		}

		// A delete that found nothing is per-item: record it, drop the op,
		// resubmit the rest of the chunk.
		if pendingIdx >= 0 && pending[pendingIdx].op.Kind == datastore.OpDelete && errors.IsNotFound(abortCause) {
			missing := pending[pendingIdx]
			results[missing.chunkIndex] = datastore.ItemResult{ID: missing.op.ID, Err: abortCause}
			pending = append(pending[:pendingIdx], pending[pendingIdx+1:]...)
			if len(pending) == 0 {
				return &datastore.ChunkOutcome{Committed: true, Results: results, OffendingIndex: -1}, nil
			}
			continue
		}

		offending := -1
		if pendingIdx >= 0 {
			offending = pending[pendingIdx].chunkIndex
		}
		return &datastore.ChunkOutcome{Cause: abortCause, OffendingIndex: offending}, nil
	}
}

func committedItemResult(e txEntry) datastore.ItemResult {
	switch e.op.Kind {
	case datastore.OpCreate:
		return datastore.ItemResult{ID: e.op.Record.ID, VersionTag: e.op.Record.VersionTag, Record: e.op.Record}
	case datastore.OpUpdate:
		return datastore.ItemResult{ID: e.op.ID, VersionTag: e.newVersion}
	default:
		return datastore.ItemResult{ID: e.op.ID}
	}
}

// buildTransactItems lowers pending ops into TransactWriteItems entries.
// Creates refuse to overwrite an existing key, updates require the expected
// version tag, deletes require the item to exist.
func (s *RecordStore) buildTransactItems(pending []txEntry) ([]types.TransactWriteItem, error) {
	items := make([]types.TransactWriteItem, 0, len(pending))
	for _, e := range pending {
		switch e.op.Kind {
		case datastore.OpCreate:
			av, err := recordItem(e.op.Record)
			if err != nil {
				return nil, err
			}
			condition := "attribute_not_exists(PK) AND attribute_not_exists(SK)"
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                av,
					ConditionExpression: &condition,
				},
			})

		case datastore.OpUpdate:
			key, err := recordKey(e.op.PartitionKey, e.op.ID)
			if err != nil {
				return nil, err
			}
			updateExpr, exprNames, exprValues, err := buildPatchExpression(e.op.Patch, e.newVersion)
			if err != nil {
				return nil, err
			}
			exprValues[":expectedVersion"] = &types.AttributeValueMemberS{Value: e.op.ExpectedVersion}
			condition := "attribute_exists(PK) AND VersionTag = :expectedVersion"
			items = append(items, types.TransactWriteItem{
				Update: &types.Update{
					TableName:                           &s.tableName,
					Key:                                 key,
					UpdateExpression:                    &updateExpr,
					ExpressionAttributeNames:            exprNames,
					ExpressionAttributeValues:           exprValues,
					ConditionExpression:                 &condition,
					ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
				},
			})

		case datastore.OpDelete:
			key, err := recordKey(e.op.PartitionKey, e.op.ID)
			if err != nil {
				return nil, err
			}
			condition := "attribute_exists(PK)"
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName:           &s.tableName,
					Key:                 key,
					ConditionExpression: &condition,
				},
			})

		default:
			return nil, fmt.Errorf("%w: unknown store op kind %q", errors.ErrInvalidInput, e.op.Kind)
		}
	}
	return items, nil
}

// classifyTransactCancel translates a TransactWriteItems failure.
//
// Returns either an abort cause plus the pending index of the offending op
// (terminal: the outcome is an aborted chunk), or a retryable Go error
// (throttled / transient). Exactly one of the two is set.
func (s *RecordStore) classifyTransactCancel(partitionKey string, pending []txEntry, err error) (cause error, pendingIdx int, retryable error) {
	var tce *types.TransactionCanceledException
	if !goerrors.As(err, &tce) {
		return nil, -1, classifyAPIError("batch", partitionKey, err)
	}

	for i, reason := range tce.CancellationReasons {
		if reason.Code == nil || *reason.Code == "None" {
			continue
		}
		if i >= len(pending) {
			break
		}
		op := pending[i].op

		switch *reason.Code {
		case "ConditionalCheckFailed":
			switch op.Kind {
			case datastore.OpCreate:
				return errors.NewAlreadyExistsError(op.Record.ID, partitionKey), i, nil
			case datastore.OpUpdate:
				// A failed check with no old item means the record itself is
				// gone, not that a concurrent writer won.
				if reason.Item == nil {
					return errors.NewNotFoundError(op.ID, partitionKey), i, nil
				}
				return errors.NewPreconditionFailedError(op.ID, op.ExpectedVersion), i, nil
			default:
				return errors.NewNotFoundError(op.ID, partitionKey), i, nil
			}
		case "ThrottlingError", "ProvisionedThroughputExceeded":
			return nil, -1, errors.NewThrottledError(partitionKey, err)
		case "TransactionConflict":
			return nil, -1, errors.NewUnavailableError("batch", err)
		case "ValidationError":
			return errors.NewValidationError("", fmt.Sprintf("store rejected operation %d: %s", i, aws.ToString(reason.Message))), i, nil
		default:
			return fmt.Errorf("%w: transaction cancelled with code %q", errors.ErrInternal, *reason.Code), i, nil
		}
	}

	// Cancelled without a per-item reason; treat as transient.
	return nil, -1, errors.NewUnavailableError("batch", err)
}

// classifyAPIError maps a non-transactional DynamoDB failure to the domain
// taxonomy: known throttle codes map to throttled, everything else to a
// transient store fault. Context errors pass through for cancellation
// reporting.
func classifyAPIError(operation, partitionKey string, err error) error {
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException",
			"ThrottlingException",
			"RequestLimitExceeded",
			"LimitExceededException":
			return errors.NewThrottledError(partitionKey, err)
		}
	}
	return errors.NewUnavailableError(operation, err)
}
