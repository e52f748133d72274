package ledger

import (
	"errors"
	"fmt"
)

// Application-level outcomes. Storage failures are surfaced unwrapped.
var (
	// ErrValidation marks bad input shape or range; nothing was stored.
	ErrValidation = errors.New("validation error")

	// ErrNoHoldings is returned for a sell against a symbol with no holding row.
	ErrNoHoldings = errors.New("no existing holdings found")

	// ErrNotFound is returned when a referenced transaction id is absent or
	// not owned by the caller.
	ErrNotFound = errors.New("transaction not found")
)

// InsufficientSharesError rejects a sell (direct or via edit) that exceeds the
// currently held shares. Held reports the position at the time of the attempt.
type InsufficientSharesError struct {
	Held      float64
	Requested float64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares: requested %.4f, holding %.4f", e.Requested, e.Held)
}

// IsInsufficientShares reports whether err is an InsufficientSharesError.
func IsInsufficientShares(err error) bool {
	var target *InsufficientSharesError
	return errors.As(err, &target)
}
