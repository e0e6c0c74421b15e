/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"fmt"

	"github.com/suparena/inventorystore/errors"
	"github.com/suparena/inventorystore/storagemodels"
)

// indexedOp pairs an operation with its position in the original request so
// results can be put back in input order after concurrent execution.
type indexedOp struct {
	op         Operation
	inputIndex int
}

// partitionGroup is the ordered sub-list of operations routed to one
// partition. Relative order within the group mirrors the original request.
type partitionGroup struct {
	key string
	ops []indexedOp
}

// groupByPartition buckets operations by normalized partition key, preserving
// relative order within each bucket. Groups come back in first-seen order.
//
// Items that cannot be grouped (zero-value operations that bypassed the
// constructors, or a kind that does not match the batch kind) are reported as
// per-item failures without halting grouping of the rest; the returned
// groups and failures together cover every input index exactly once.
func groupByPartition(kind Kind, ops []Operation) ([]partitionGroup, []OperationResult) {
	var failures []OperationResult
	byKey := make(map[string]int)
	var groups []partitionGroup

	for i, op := range ops {
		if op.kind == "" {
			failures = append(failures, failure(i, errors.KindInvalid, "operation was not built by a constructor"))
			continue
		}
		if op.kind != kind {
			failures = append(failures, failure(i, errors.KindInvalid,
				fmt.Sprintf("operation kind %q does not match batch kind %q", op.kind, kind)))
			continue
		}
		pk := storagemodels.NormalizePartitionKey(op.partitionKey)
		if pk == "" {
			failures = append(failures, failure(i, errors.KindInvalid, "operation has no partition key"))
			continue
		}

		gi, ok := byKey[pk]
		if !ok {
			gi = len(groups)
			byKey[pk] = gi
			groups = append(groups, partitionGroup{key: pk})
		}
		groups[gi].ops = append(groups[gi].ops, indexedOp{op: op, inputIndex: i})
	}

	return groups, failures
}
