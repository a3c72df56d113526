package cryptofolio

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced transaction, holding or watchlist
// entry does not exist for the given user. It is always wrapped with context.
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed transaction. It is raised before the
// ledger is touched, so a rejected transaction has no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ExternalServiceError wraps a market data provider failure: network error,
// non-success HTTP status, or an unparsable response. It is absorbed at the
// resolver boundary and never escapes it as a hard failure.
type ExternalServiceError struct {
	Op  string // provider operation, e.g. "simple/price"
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("market data %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
