package commands

import (
	"fmt"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"
)

var (
	ErrValidation              = errs.New("validation failed")
	ErrInvalidSignature        = errs.New("invalid webhook signature")
	ErrOfferExpired            = errs.New("offer has expired")
	ErrIdempotencyInProgress   = errs.New("idempotency in progress")
	ErrIdempotencyKeyReuse     = errs.New("idempotency key reused with a different request")
	ErrTicketingInProgress     = errs.New("ticketing already in progress")
	ErrQuoteNotPaid            = errs.New("quote is not paid")
	ErrQuoteNotFound           = errs.New("quote not found")
	ErrQuoteNotCancellable     = errs.New("quote cannot be cancelled")
	ErrDatabaseOperationFailed = errs.New("database operation failed")

	ErrContentUnavailable = shared.ErrContentUnavailable
	ErrOfferNotFound      = shared.ErrOfferNotFound
	ErrPaymentUnavailable = shared.ErrPaymentUnavailable
	ErrSupplierRetryable  = ticketing.ErrSupplierRetryable
)

type SupplierRejectedError = ticketing.RejectedError

// PriceChangedError carries the fresh price the customer has to accept.
type PriceChangedError struct {
	NewPrice money.Money
	OldPrice money.Money
}

func (e *PriceChangedError) Error() string {
	return fmt.Sprintf("price changed from %s to %s", e.OldPrice, e.NewPrice)
}

func validationError(err error) error {
	return errs.Mark(err, ErrValidation)
}
