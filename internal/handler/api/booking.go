package api

import (
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type BookingHandler struct {
	cmds commands.BookingCommands
}

func NewBookingHandler(cmds commands.BookingCommands) *BookingHandler {
	return &BookingHandler{cmds: cmds}
}

// @Summary Book an offer
// @Description Reconfirms the offer price, records a quote and returns the payment link.
// @Description A repeated request with the same Idempotency-Key replays the original result.
// @Tags booking
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client generated key for safe retries"
// @Param request body reqdto.BookRequest true "Book request"
// @Success 201 {object} resdto.BookResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response "price changed or key in progress"
// @Failure 422 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /v1/book [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req reqdto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", err, "Invalid request", nil)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		abortWithUseCaseError(c, errs.Mark(err, commands.ErrValidation))
		return
	}

	result, err := h.cmds.Book(c.Request.Context(), input, c.GetHeader(HeaderIdempotencyKey))
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	if result.IsReplayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(http.StatusCreated, resdto.FromBookResult(result))
}
