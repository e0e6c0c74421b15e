/*
Package errors provides semantic error types for the InventoryStore library.

The package defines the failure taxonomy used by the batch mutation engine
and the single-item store operations. Errors can be checked with the standard
errors.Is() function or the provided helper functions, and classified into a
Kind for per-item result reporting.

Common Errors:

	var (
	    ErrNotFound           = errors.New("record not found")
	    ErrAlreadyExists      = errors.New("record already exists")
	    ErrInvalidInput       = errors.New("invalid input")
	    ErrPreconditionFailed = errors.New("precondition failed")
	    ErrThrottled          = errors.New("request throttled")
	    ErrUnavailable        = errors.New("store unavailable")
	    ErrCancelled          = errors.New("operation cancelled")
	    ErrInternal           = errors.New("internal error")
	)

Usage:

	rec, err := store.GetRecord(ctx, "electronics", "123")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("record %s does not exist", "123")
	    }
	    return nil, err
	}

	// Classify for result reporting
	kind := errors.KindOf(err) // e.g. errors.KindPreconditionFailed

	// Create typed errors
	err := errors.NewNotFoundError("123", "electronics")
	err := errors.NewValidationError("price", "must be greater than zero")
	err := errors.NewPreconditionFailedError("123", "v-abc")

Only ErrThrottled and ErrUnavailable are retryable (see IsRetryable); every
other kind is terminal for the chunk that produced it.
*/
package errors
