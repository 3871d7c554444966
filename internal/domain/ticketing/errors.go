package ticketing

import (
	"errors"
	"fmt"
)

// Supplier failures come in two kinds. Retryable ones (timeouts, 5xx, 429,
// connection errors) go back on the schedule; rejections fail the quote.
var ErrSupplierRetryable = errors.New("supplier temporarily unavailable")

type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("supplier rejected issuance: %s", e.Reason)
	}
	return fmt.Sprintf("supplier rejected issuance (%s): %s", e.Code, e.Reason)
}

func Retryable(reason string) error {
	return fmt.Errorf("%w: %s", ErrSupplierRetryable, reason)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrSupplierRetryable)
}

func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}
