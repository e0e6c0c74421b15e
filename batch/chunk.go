/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

// chunkOps splits a partition's operation list into ordered chunks of at
// most maxSize entries, the store's limit for one transactional batch.
//
// Chunk boundaries are purely a size cut and carry no semantic meaning. Two
// chunks of the same partition are independent atomic units: a failure in
// the second chunk never rolls back a first chunk that already committed.
// Callers submitting more than maxSize operations to one partition accept
// this partial-atomicity limitation.
func chunkOps(ops []indexedOp, maxSize int) [][]indexedOp {
	if len(ops) == 0 {
		return nil
	}
	chunks := make([][]indexedOp, 0, (len(ops)+maxSize-1)/maxSize)
	for start := 0; start < len(ops); start += maxSize {
		end := start + maxSize
		if end > len(ops) {
			end = len(ops)
		}
		chunks = append(chunks, ops[start:end])
	}
	return chunks
}
