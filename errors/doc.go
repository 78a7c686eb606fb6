/*
Package errors provides semantic error types for the entityrecord library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Store Errors:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrAlreadyExists   = errors.New("entity already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrNoSchema        = errors.New("no schema registered for entity type")
	    ErrStoreFailure    = errors.New("store failure")
	)

Query Errors:

	var (
	    ErrUnknownField   = errors.New("unknown field")
	    ErrAmbiguousPath  = errors.New("ambiguous field path")
	    ErrTypeMismatch   = errors.New("type mismatch")
	    ErrEmptyAggregate = errors.New("aggregate over empty selection")
	)

Usage:

	avg, err := records.Avg(ctx, "Pokemon", "level", where)
	if err != nil {
	    if errors.IsEmptyAggregate(err) {
	        // nothing matched
	        return 0, nil
	    }
	    return 0, err
	}

	// Create typed errors
	err := errors.NewUnknownFieldError("Pokemon", "weight")
	err := errors.NewTypeMismatchError("compare", "string", "integer")
	err := errors.NewStoreFailureError("scan", cause)

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
