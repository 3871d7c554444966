//go:build unit

package api_test

import (
	"context"
	"net/http"
	"testing"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/tests/common/httptest"
	commandsmock "booking-engine/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type WebhookHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockWebhookCommands
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockWebhookCommands(s.mockCtrl)
	h := api.NewWebhookHandler(s.mockCommands)

	s.router.POST("/webhooks/payment", h.Payment)
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

// key order and spacing differ from what encoding/json would emit
const rawChargeBody = `{"event":"charge.success", "data":{"reference":"BKG_1","amount":15000000,"currency":"NGN"}}`

func (s *WebhookHandlerTestSuite) TestPayment() {
	url := "/webhooks/payment"
	headers := map[string]string{
		api.HeaderPaystackSignature: "abc123",
		api.HeaderPaystackEventID:   "evt_42",
	}

	s.Run("success: raw body and headers reach the use case", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in commands.WebhookInput) (*commands.WebhookResult, error) {
				s.Equal(rawChargeBody, string(in.Body))
				s.Equal("abc123", in.Signature)
				s.Equal("evt_42", in.EventID)
				return &commands.WebhookResult{Status: "ok", Outcome: payment.OutcomeApplied}, nil
			})

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), headers)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"ok","outcome":"applied"}`, rec.Body.String())
	})

	s.Run("success: replays answer with the same body", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).
			Return(&commands.WebhookResult{Status: "ok", Outcome: payment.OutcomeApplied, Replayed: true}, nil)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), headers)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"ok","outcome":"applied"}`, rec.Body.String())
	})

	s.Run("success: anomalies are still acknowledged", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).
			Return(&commands.WebhookResult{Status: "ok", Outcome: payment.OutcomeUnknownReference}, nil)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), headers)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"ok","outcome":"unknown_reference"}`, rec.Body.String())
	})

	s.Run("error: 401 on bad signature", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil, commands.ErrInvalidSignature)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), nil)

		httptest.AssertErrorCode(s.T(), rec, http.StatusUnauthorized, "invalid_signature")
	})

	s.Run("error: 409 while a duplicate is still being applied", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil, commands.ErrIdempotencyInProgress)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), headers)

		httptest.AssertErrorCode(s.T(), rec, http.StatusConflict, "idempotency_in_progress")
	})

	s.Run("error: 500 so the provider redelivers after a rollback", func() {
		s.mockCommands.EXPECT().Handle(gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("commit failed"), commands.ErrDatabaseOperationFailed))

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, []byte(rawChargeBody), headers)

		httptest.AssertErrorCode(s.T(), rec, http.StatusInternalServerError, "internal")
	})
}
