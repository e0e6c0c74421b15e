/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"

	"github.com/avast/retry-go/v4"

	"github.com/suparena/inventorystore/datastore"
	"github.com/suparena/inventorystore/errors"
)

// submitWithRetry submits a chunk, re-submitting the whole chunk on
// throttled or transient failures with exponential backoff and jitter, up to
// the configured attempt cap. Chunk atomicity means no partial state
// persists on failure, so resubmitting the identical chunk is safe.
//
// Each attempt runs on a cancellation-shielded context: aborting a store
// call mid-request would leave the commit ambiguous server-side, so an
// attempt already in flight always runs to completion. Cancellation of ctx
// still stops backoff waits and further attempts via retry.Context.
//
// Terminal errors and aborted outcomes pass through on the first attempt;
// once attempts are exhausted the last transient error is returned and the
// caller surfaces it for every item in the chunk.
func (e *Engine) submitWithRetry(ctx context.Context, partitionKey string, ops []datastore.StoreOp) (*datastore.ChunkOutcome, error) {
	submitCtx := context.WithoutCancel(ctx)
	return retry.DoWithData(
		func() (*datastore.ChunkOutcome, error) {
			return e.store.SubmitBatch(submitCtx, partitionKey, ops)
		},
		retry.Context(ctx),
		retry.Attempts(e.opts.RetryAttempts),
		retry.Delay(e.opts.RetryBaseDelay),
		retry.MaxDelay(e.opts.RetryMaxDelay),
		retry.MaxJitter(e.opts.RetryBaseDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(errors.IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			e.log.Debug().
				Uint("attempt", attempt).
				Str("partition", partitionKey).
				Err(err).
				Msg("retrying chunk submission")
		}),
	)
}
