//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/memdb"
	sharedmock "booking-engine/tests/mock/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	content *sharedmock.MockContentClient
	gateway *sharedmock.MockPaymentGateway
	store   *memdb.Store
	clock   *clock.MockClock
	uc      commands.BookingCommands
}

func (s *BookingTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.content = sharedmock.NewMockContentClient(s.ctrl)
	s.gateway = sharedmock.NewMockPaymentGateway(s.ctrl)
	s.store = memdb.New()
	s.clock = clock.NewMockClock(t0)

	gate := commands.NewPriceGate(s.content, commands.GateConfig{
		Tolerance: pricing.Tolerance{Percent: 2},
		Attempts:  2,
		RetryBase: time.Millisecond,
	}, s.clock, discardLogger())
	s.uc = commands.NewBookingUseCase(s.store, gate, s.gateway, commands.BookingConfig{
		SupportedCurrencies: []string{"NGN", "USD"},
		GatewayTimeout:      time.Second,
		IdempotencyTTL:      24 * time.Hour,
	}, s.clock, discardLogger())
}

func (s *BookingTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestBookingTestSuite(t *testing.T) {
	suite.Run(t, new(BookingTestSuite))
}

func (s *BookingTestSuite) input() commands.BookInput {
	return commands.BookInput{
		OfferID:     "off_123",
		SearchPrice: mustMoney(s.T(), 15000, "USD"),
		Passengers: []quote.Passenger{
			{Type: quote.PassengerAdult, Title: "mr", FirstName: "Tunde", LastName: "Bello", DateOfBirth: "1988-01-12"},
		},
		Email:         "tunde@example.com",
		Phone:         "+2348000000001",
		Channel:       "web",
		PaymentMethod: "card",
	}
}

func (s *BookingTestSuite) offer(minor int64) *shared.PricedOffer {
	valid := t0.Add(30 * time.Minute)
	return &shared.PricedOffer{
		ID:         "off_123",
		Total:      mustMoney(s.T(), minor, "USD"),
		ValidUntil: &valid,
		Raw:        json.RawMessage(`{"id":"off_123","total_amount":"150.00"}`),
	}
}

func (s *BookingTestSuite) expectInitialize() {
	s.gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req shared.InitializeRequest) (*shared.InitializeResult, error) {
			return &shared.InitializeResult{
				AuthorizationURL: "https://checkout.example/" + req.Reference,
				Reference:        req.Reference,
			}, nil
		})
}

func (s *BookingTestSuite) TestBook_Success() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(15100), nil)
	s.gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req shared.InitializeRequest) (*shared.InitializeResult, error) {
			s.Equal(int64(15100), req.Amount.AmountMinor())
			s.Equal("tunde@example.com", req.Email)
			s.Equal([]string{"card"}, req.Channels)
			s.Equal("web", req.Metadata["booking_channel"])
			return &shared.InitializeResult{AuthorizationURL: "https://checkout.example/x", Reference: req.Reference}, nil
		})

	res, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)

	s.False(res.IsReplayed)
	s.Equal("https://checkout.example/x", res.PaymentURL)
	s.Equal(int64(15100), res.AmountMinor)
	s.Equal("USD", res.Currency)
	s.Regexp(`^REF_[0-9a-f]{24}$`, res.Reference)

	q := s.store.Quote(res.QuoteID)
	s.Require().NotNil(q)
	s.Equal(quote.StatusAwaitingPayment, q.Status())
	s.Equal(res.Reference, q.GatewayReference())

	p := s.store.Payment(res.Reference)
	s.Require().NotNil(p)
	s.Equal(payment.StatusInitialized, p.Status())
	s.Equal("https://checkout.example/x", p.AuthorizationURL())

	entry := s.store.Entry(shared.OperationBook, "key-1")
	s.Require().NotNil(entry)
	s.True(entry.IsCompleted())
}

func (s *BookingTestSuite) TestBook_ReplaysSameKey() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(15000), nil).Times(1)
	s.expectInitialize()

	first, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)

	second, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)

	s.True(second.IsReplayed)
	s.Equal(first.QuoteID, second.QuoteID)
	s.Equal(first.Reference, second.Reference)
	s.Equal(first.PaymentURL, second.PaymentURL)
	s.Equal(1, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_KeyReuseWithDifferentRequest() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(15000), nil)
	s.expectInitialize()

	_, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)

	other := s.input()
	other.Email = "someone.else@example.com"
	_, err = s.uc.Book(context.Background(), other, "key-1")
	s.ErrorIs(err, commands.ErrIdempotencyKeyReuse)
	s.Equal(1, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_KeyInProgress() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(15000), nil)

	var inFlightErr error
	s.gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req shared.InitializeRequest) (*shared.InitializeResult, error) {
			// a retry arrives while the first request is still talking to the gateway
			_, inFlightErr = s.uc.Book(ctx, s.input(), "key-1")
			return &shared.InitializeResult{AuthorizationURL: "https://checkout.example/x", Reference: req.Reference}, nil
		})

	_, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)
	s.ErrorIs(inFlightErr, commands.ErrIdempotencyInProgress)
	s.Equal(1, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_PriceChanged() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(18000), nil)

	_, err := s.uc.Book(context.Background(), s.input(), "key-1")

	var priceErr *commands.PriceChangedError
	s.Require().True(errs.As(err, &priceErr))
	s.Equal(int64(18000), priceErr.NewPrice.AmountMinor())
	s.Equal(int64(15000), priceErr.OldPrice.AmountMinor())
	s.Equal(0, s.store.QuoteCount())
	s.Nil(s.store.Entry(shared.OperationBook, "key-1"), "a failed booking must release its key")
}

func (s *BookingTestSuite) TestBook_AcceptedPriceProceeds() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(18000), nil)
	s.expectInitialize()

	in := s.input()
	accepted := mustMoney(s.T(), 18000, "USD")
	in.AcceptedPrice = &accepted

	res, err := s.uc.Book(context.Background(), in, "")
	s.Require().NoError(err)
	s.Equal(int64(18000), res.AmountMinor)
	s.Equal(int64(18000), s.store.Quote(res.QuoteID).Price().AmountMinor())
}

func (s *BookingTestSuite) TestBook_GatewayFailureLeavesAwaitingQuote() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(s.offer(15000), nil).Times(2)
	s.gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.True(errs.Is(err, commands.ErrPaymentUnavailable))
	s.Equal(1, s.store.QuoteCount())
	s.Nil(s.store.Entry(shared.OperationBook, "key-1"))

	// the released key can be used again
	s.expectInitialize()
	res, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.Require().NoError(err)
	s.False(res.IsReplayed)
	s.Equal(2, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_ContentUnavailable() {
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(nil, errors.New("timeout")).Times(2)

	_, err := s.uc.Book(context.Background(), s.input(), "key-1")
	s.True(errs.Is(err, commands.ErrContentUnavailable))
	s.Equal(0, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_Validation() {
	tests := []struct {
		name   string
		mutate func(*commands.BookInput)
	}{
		{"missing offer", func(in *commands.BookInput) { in.OfferID = " " }},
		{"no passengers", func(in *commands.BookInput) { in.Passengers = nil }},
		{"passenger without name", func(in *commands.BookInput) { in.Passengers[0].LastName = "" }},
		{"no contact", func(in *commands.BookInput) { in.Email, in.Phone = "", "" }},
		{"bad email", func(in *commands.BookInput) { in.Email = "not-an-email" }},
		{"unknown channel", func(in *commands.BookInput) { in.Channel = "fax" }},
		{"unknown payment method", func(in *commands.BookInput) { in.PaymentMethod = "crypto" }},
		{"unsupported currency", func(in *commands.BookInput) { in.SearchPrice = mustMoney(s.T(), 100, "EUR") }},
		{"zero price", func(in *commands.BookInput) { in.SearchPrice = money.Money{} }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.input()
			tt.mutate(&in)
			_, err := s.uc.Book(context.Background(), in, "key-v")
			s.Require().Error(err)
			s.True(errs.Is(err, commands.ErrValidation), err.Error())
		})
	}
	s.Equal(0, s.store.QuoteCount())
}

func (s *BookingTestSuite) TestBook_ExpiredOffer() {
	offer := s.offer(15000)
	past := t0.Add(-time.Minute)
	offer.ValidUntil = &past
	s.content.EXPECT().Reprice(gomock.Any(), "off_123").Return(offer, nil)

	_, err := s.uc.Book(context.Background(), s.input(), "")
	s.True(errs.Is(err, commands.ErrOfferExpired))
	s.True(errs.Is(err, commands.ErrValidation))
}

func TestPriceGate(t *testing.T) {
	clk := clock.NewMockClock(t0)
	search := mustMoney(t, 10000, "NGN")
	cfg := commands.GateConfig{Tolerance: pricing.Tolerance{Percent: 2}, Attempts: 3, RetryBase: time.Millisecond}

	t.Run("retries transient failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		content := sharedmock.NewMockContentClient(ctrl)
		gomock.InOrder(
			content.EXPECT().Reprice(gomock.Any(), "off").Return(nil, errors.New("503")),
			content.EXPECT().Reprice(gomock.Any(), "off").Return(&shared.PricedOffer{ID: "off", Total: mustMoney(t, 10100, "NGN")}, nil),
		)
		gate := commands.NewPriceGate(content, cfg, clk, discardLogger())

		offer, err := gate.Reconfirm(context.Background(), "off", search, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(10100), offer.Total.AmountMinor())
	})

	t.Run("offer not found is not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		content := sharedmock.NewMockContentClient(ctrl)
		content.EXPECT().Reprice(gomock.Any(), "off").Return(nil, shared.ErrOfferNotFound).Times(1)
		gate := commands.NewPriceGate(content, cfg, clk, discardLogger())

		_, err := gate.Reconfirm(context.Background(), "off", search, nil)
		assert.True(t, errs.Is(err, commands.ErrOfferNotFound))
	})

	t.Run("zero price counts as unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		content := sharedmock.NewMockContentClient(ctrl)
		content.EXPECT().Reprice(gomock.Any(), "off").Return(&shared.PricedOffer{ID: "off"}, nil).Times(3)
		gate := commands.NewPriceGate(content, cfg, clk, discardLogger())

		_, err := gate.Reconfirm(context.Background(), "off", search, nil)
		assert.True(t, errs.Is(err, commands.ErrContentUnavailable))
	})

	t.Run("currency change needs reconfirmation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		content := sharedmock.NewMockContentClient(ctrl)
		content.EXPECT().Reprice(gomock.Any(), "off").Return(&shared.PricedOffer{ID: "off", Total: mustMoney(t, 10000, "USD")}, nil)
		gate := commands.NewPriceGate(content, cfg, clk, discardLogger())

		_, err := gate.Reconfirm(context.Background(), "off", search, nil)
		var priceErr *commands.PriceChangedError
		require.True(t, errs.As(err, &priceErr))
		assert.Equal(t, "USD", priceErr.NewPrice.Currency())
	})
}
