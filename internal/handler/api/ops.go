package api

import (
	"log/slog"
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OpsHandler serves the endpoints internal services call with a service token.
type OpsHandler struct {
	ticketing commands.TicketingCommands
	quotes    commands.QuoteCommands
	reconcile commands.ReconcileCommands
	logger    *slog.Logger
}

func NewOpsHandler(ticketing commands.TicketingCommands, quotes commands.QuoteCommands, reconcile commands.ReconcileCommands, logger *slog.Logger) *OpsHandler {
	return &OpsHandler{ticketing: ticketing, quotes: quotes, reconcile: reconcile, logger: logger}
}

// @Summary Issue tickets
// @Description Runs one ticketing attempt for a paid quote, skipping the retry backoff
// @Tags ops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.IssueRequest true "Issue request"
// @Success 200 {object} resdto.IssueResponse
// @Success 202 {object} httperr.Response "another worker holds the lease"
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /v1/orders/issue [post]
func (h *OpsHandler) Issue(c *gin.Context) {
	var req reqdto.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", err, "Invalid request", nil)
		return
	}

	result, err := h.ticketing.Issue(c.Request.Context(), req.QuoteID, commands.TriggerManual)
	if err != nil {
		if errs.Is(err, commands.ErrTicketingInProgress) {
			httperr.AbortWithCode(c, http.StatusAccepted, "ticketing_in_progress", err, "Ticketing is in progress for this quote", nil)
			return
		}
		abortWithUseCaseError(c, err)
		return
	}

	if principal, ok := middleware.GetPrincipal(c); ok {
		h.logger.Info("manual ticketing",
			slog.String("service", principal.Service),
			slog.String("quote_id", req.QuoteID.String()),
			slog.String("outcome", string(result.Outcome)))
	}
	c.JSON(http.StatusOK, resdto.FromIssueResult(result))
}

// @Summary Cancel quote
// @Description Cancels an unticketed quote and closes its ticketing task
// @Tags ops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Param request body reqdto.CancelRequest false "Cancel reason"
// @Success 200 {object} resdto.CancelResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /v1/quotes/{id}/cancel [post]
func (h *OpsHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", err, "Invalid id", nil)
		return
	}

	var req reqdto.CancelRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", bindErr, "Invalid request", nil)
			return
		}
	}

	result, err := h.quotes.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

// @Summary Run reconciliation sweep
// @Description Runs one sweep pass on demand and reports the repairs made
// @Tags ops
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.SweepResponse
// @Failure 500 {object} httperr.Response
// @Router /v1/ops/sweep [post]
func (h *OpsHandler) Sweep(c *gin.Context) {
	report, err := h.reconcile.Sweep(c.Request.Context())
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSweepReport(report))
}
