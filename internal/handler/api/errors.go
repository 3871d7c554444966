package api

import (
	"net/http"

	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target error
	status int
	code   string
	msg    string
	// seconds; set for conditions a client should simply retry
	retryAfter string
}

// first match wins
var errorMappings = []errorMapping{
	{commands.ErrValidation, http.StatusBadRequest, "validation_failed", "Invalid request", ""},
	{commands.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature", "Invalid signature", ""},
	{commands.ErrOfferNotFound, http.StatusNotFound, "offer_not_found", "Offer not found", ""},
	{commands.ErrOfferExpired, http.StatusUnprocessableEntity, "offer_expired", "Offer has expired", ""},
	{commands.ErrIdempotencyKeyReuse, http.StatusUnprocessableEntity, "idempotency_key_reuse", "Idempotency key was used with a different request", ""},
	{commands.ErrIdempotencyInProgress, http.StatusConflict, "idempotency_in_progress", "A request with this key is still being processed", "1"},
	{commands.ErrTicketingInProgress, http.StatusConflict, "ticketing_in_progress", "Ticketing is in progress for this quote", "5"},
	{commands.ErrQuoteNotFound, http.StatusNotFound, "quote_not_found", "Quote not found", ""},
	{commands.ErrQuoteNotPaid, http.StatusConflict, "quote_not_paid", "Quote is not paid", ""},
	{commands.ErrQuoteNotCancellable, http.StatusConflict, "quote_not_cancellable", "Quote can no longer be cancelled", ""},
	{queries.ErrTripNotFound, http.StatusNotFound, "trip_not_found", "Trip not found", ""},
	{queries.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found", "Payment not found", ""},
	{commands.ErrContentUnavailable, http.StatusServiceUnavailable, "content_unavailable", "Pricing is temporarily unavailable", "2"},
	{commands.ErrPaymentUnavailable, http.StatusBadGateway, "payment_unavailable", "Payment provider is unavailable", ""},
}

// abortWithUseCaseError translates use case errors into the JSON error body.
func abortWithUseCaseError(c *gin.Context, err error) {
	var priceErr *commands.PriceChangedError
	if errs.As(err, &priceErr) {
		httperr.AbortWithCode(c, http.StatusConflict, "price_changed", err, "Price has changed", resdto.FromPriceChanged(priceErr))
		return
	}

	for _, m := range errorMappings {
		if errs.Is(err, m.target) {
			if m.retryAfter != "" {
				c.Header("Retry-After", m.retryAfter)
			}
			httperr.AbortWithCode(c, m.status, m.code, err, m.msg, nil)
			return
		}
	}

	httperr.AbortWithCode(c, http.StatusInternalServerError, "internal", err, "Internal server error", nil)
}
