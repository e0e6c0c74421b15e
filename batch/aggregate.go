/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"github.com/suparena/inventorystore/errors"
)

// Summary holds batch-level counters derived from the per-item results.
type Summary struct {
	Requested      int                 `json:"requested"`
	Succeeded      int                 `json:"succeeded"`
	Failed         int                 `json:"failed"`
	FailuresByKind map[errors.Kind]int `json:"failuresByKind,omitempty"`
}

// Result is the complete outcome of one batch execution.
//
// Items[i] always corresponds to the i-th input operation, regardless of how
// operations were distributed across partitions or in which order the
// concurrent executors finished. The caller is never left to infer which
// items succeeded.
type Result struct {
	Items   []OperationResult `json:"items"`
	Summary Summary           `json:"summary"`
}

// newResult stamps input indices and computes the summary. Executors write
// each slot exactly once at the slot's input index, so after the pool joins
// the slice is already in input order; this pass only fills the index field
// of failure slots created by bulk helpers and tallies the counters.
func newResult(items []OperationResult) *Result {
	summary := Summary{Requested: len(items)}
	for i := range items {
		items[i].InputIndex = i
		if items[i].Succeeded() {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		if summary.FailuresByKind == nil {
			summary.FailuresByKind = make(map[errors.Kind]int)
		}
		summary.FailuresByKind[items[i].ErrorKind]++
	}
	if items == nil {
		items = []OperationResult{}
	}
	return &Result{Items: items, Summary: summary}
}
