//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/handler/api"
	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/common/testutil"
	commandsmock "booking-engine/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	h := api.NewBookingHandler(s.mockCommands)

	s.router.POST("/v1/book", h.Book)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func validBookRequest() reqdto.BookRequest {
	return reqdto.BookRequest{
		OfferID:     "off_123",
		SearchPrice: reqdto.MoneyRequest{AmountMinor: 15000000, Currency: "NGN"},
		Passengers: []reqdto.PassengerRequest{
			{Type: "adult", Title: "Ms", FirstName: "Ada", LastName: "Obi", DateOfBirth: "1990-04-02"},
		},
		Contacts: reqdto.ContactRequest{Email: "ada@example.com", Phone: "+2348030000000"},
		Channel:  "whatsapp",
	}
}

func (s *BookingHandlerTestSuite) bookResult() *commands.BookResult {
	return &commands.BookResult{
		QuoteID:     uuid.New(),
		Reference:   "BKG_ref_1",
		PaymentURL:  "https://checkout.example/abc",
		AmountMinor: 15000000,
		Currency:    "NGN",
	}
}

func (s *BookingHandlerTestSuite) TestBook() {
	url := "/v1/book"
	headers := map[string]string{api.HeaderIdempotencyKey: "key-1"}

	s.Run("success: 201 with payment link", func() {
		result := s.bookResult()
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), "key-1").
			DoAndReturn(func(_ context.Context, in commands.BookInput, _ string) (*commands.BookResult, error) {
				s.Equal("off_123", in.OfferID)
				s.Equal(int64(15000000), in.SearchPrice.AmountMinor())
				s.Nil(in.AcceptedPrice)
				s.Equal("whatsapp", in.Channel)
				s.Len(in.Passengers, 1)
				s.Equal("Ada", in.Passengers[0].FirstName)
				return result, nil
			})

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, validBookRequest(), headers)

		var body resdto.BookResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(result.QuoteID, body.QuoteID)
		s.Equal("https://checkout.example/abc", body.PaymentURL)
		s.Empty(rec.Header().Get("Idempotent-Replayed"))
	})

	s.Run("success: replay keeps 201 and flags the header", func() {
		result := s.bookResult()
		result.IsReplayed = true
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), "key-1").Return(result, nil)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, validBookRequest(), headers)

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Idempotent-Replayed": "true"})
	})

	s.Run("success: accepted price is forwarded", func() {
		req := validBookRequest()
		req.AcceptedPrice = &reqdto.MoneyRequest{AmountMinor: 19500000, Currency: "ngn"}
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), "").
			DoAndReturn(func(_ context.Context, in commands.BookInput, _ string) (*commands.BookResult, error) {
				s.Require().NotNil(in.AcceptedPrice)
				s.Equal("NGN", in.AcceptedPrice.Currency())
				return s.bookResult(), nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, req, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 on malformed requests", func() {
		cases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing offer_id", mutate: testutil.Field("offer_id", nil)},
			{name: "missing passengers", mutate: testutil.Field("passengers", nil)},
			{name: "empty passengers", mutate: testutil.Field("passengers", []any{})},
			{name: "unknown passenger type", mutate: testutil.Field("passengers", []any{
				map[string]any{"type": "pet", "first": "Rex", "last": "Obi"},
			})},
			{name: "passenger without last name", mutate: testutil.Field("passengers", []any{
				map[string]any{"type": "adult", "first": "Ada"},
			})},
			{name: "zero search price", mutate: testutil.Field("search_price", map[string]any{"amount_minor": 0, "currency": "NGN"})},
			{name: "short currency", mutate: testutil.Field("search_price", map[string]any{"amount_minor": 100, "currency": "NG"})},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), validBookRequest(), tc.mutate)
				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, body, headers)
				httptest.AssertErrorCode(s.T(), rec, http.StatusBadRequest, "validation_failed")
			})
		}
	})

	s.Run("error: price change returns the new price", func() {
		newPrice, err := money.New(19500000, "NGN")
		s.Require().NoError(err)
		oldPrice, err := money.New(15000000, "NGN")
		s.Require().NoError(err)
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &commands.PriceChangedError{NewPrice: newPrice, OldPrice: oldPrice})

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, validBookRequest(), headers)

		httptest.AssertErrorCode(s.T(), rec, http.StatusConflict, "price_changed")
		var body struct {
			Detail resdto.PriceChangedDetail `json:"detail"`
		}
		s.Require().NoError(testutil.DecodeJSON(rec.Body.Bytes(), &body))
		s.Equal(int64(19500000), body.Detail.NewPrice.AmountMinor)
		s.Equal(int64(15000000), body.Detail.OldPrice.AmountMinor)
	})

	s.Run("error: use case failures map to statuses", func() {
		cases := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"validation", errs.Mark(errors.New("unsupported currency"), commands.ErrValidation), http.StatusBadRequest, "validation_failed"},
			{"offer not found", errs.Wrap(commands.ErrOfferNotFound, "reprice"), http.StatusNotFound, "offer_not_found"},
			{"offer expired", commands.ErrOfferExpired, http.StatusUnprocessableEntity, "offer_expired"},
			{"key reuse", commands.ErrIdempotencyKeyReuse, http.StatusUnprocessableEntity, "idempotency_key_reuse"},
			{"key in progress", commands.ErrIdempotencyInProgress, http.StatusConflict, "idempotency_in_progress"},
			{"content down", commands.ErrContentUnavailable, http.StatusServiceUnavailable, "content_unavailable"},
			{"gateway down", commands.ErrPaymentUnavailable, http.StatusBadGateway, "payment_unavailable"},
			{"database", errs.Mark(errors.New("conn reset"), commands.ErrDatabaseOperationFailed), http.StatusInternalServerError, "internal"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)
				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, validBookRequest(), headers)
				httptest.AssertErrorCode(s.T(), rec, tc.status, tc.code)
			})
		}
	})
}

func (s *BookingHandlerTestSuite) TestRetryAfterHint() {
	headers := map[string]string{api.HeaderIdempotencyKey: "key-1"}

	s.Run("in-flight key tells the client when to retry", func() {
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), "key-1").Return(nil, commands.ErrIdempotencyInProgress)
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, "/v1/book", validBookRequest(), headers)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("1", rec.Header().Get("Retry-After"))
	})

	s.Run("terminal errors carry no hint", func() {
		s.mockCommands.EXPECT().Book(gomock.Any(), gomock.Any(), "key-1").Return(nil, commands.ErrOfferExpired)
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, "/v1/book", validBookRequest(), headers)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Empty(rec.Header().Get("Retry-After"))
	})
}
