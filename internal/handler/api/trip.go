package api

import (
	"net/http"

	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TripHandler struct {
	trips    queries.TripQueries
	payments queries.PaymentQueries
}

func NewTripHandler(trips queries.TripQueries, payments queries.PaymentQueries) *TripHandler {
	return &TripHandler{trips: trips, payments: payments}
}

// @Summary Get trip
// @Description Look up a booking by trip id or quote id
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID or quote ID"
// @Success 200 {object} resdto.TripResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /v1/trips/{id} [get]
func (h *TripHandler) GetTrip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", err, "Invalid id", nil)
		return
	}
	view, err := h.trips.GetTrip(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromTripView(view))
}

// @Summary Get payment
// @Description Payment status by gateway reference
// @Tags payments
// @Produce json
// @Param reference path string true "Gateway reference"
// @Success 200 {object} resdto.PaymentResponse
// @Failure 404 {object} httperr.Response
// @Router /v1/payments/{reference} [get]
func (h *TripHandler) GetPayment(c *gin.Context) {
	view, err := h.payments.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPaymentView(view))
}
