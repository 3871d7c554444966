//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/payment"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/memdb"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

const webhookSecret = "sk_test_webhook"

type WebhookTestSuite struct {
	suite.Suite
	store *memdb.Store
	clock *clock.MockClock
	out   *recorder
	uc    commands.WebhookCommands
}

func (s *WebhookTestSuite) SetupTest() {
	s.store = memdb.New()
	s.clock = clock.NewMockClock(t0.Add(5 * time.Minute))
	s.out = &recorder{}
	s.uc = commands.NewWebhookUseCase(s.store, s.out, s.out, commands.WebhookConfig{
		Secret:                 webhookSecret,
		AmountTolerancePercent: 2,
		QuoteExpiry:            30 * time.Minute,
		TicketingHorizon:       3 * time.Hour,
		DedupTTL:               720 * time.Hour,
	}, s.clock, discardLogger())
}

func TestWebhookTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookTestSuite))
}

func chargeBody(event, reference string, amount int64, currency string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"data":{"reference":%q,"status":"success","amount":%d,"currency":%q,"gateway_response":"Approved"}}`,
		event, reference, amount, currency,
	))
}

func signed(body []byte, eventID string) commands.WebhookInput {
	return commands.WebhookInput{Body: body, Signature: payment.Sign(webhookSecret, body), EventID: eventID}
}

func (s *WebhookTestSuite) seedAwaiting() *quote.Quote {
	return seedQuote(s.T(), s.store, builder.NewQuoteBuilder())
}

func (s *WebhookTestSuite) TestHandle_RejectsBadSignature() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	tests := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"not hex", "zz"},
		{"wrong secret", payment.Sign("other", body)},
	}
	before := testutil.ToFloat64(metrics.WebhookSignatureFailuresTotal)
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.uc.Handle(context.Background(), commands.WebhookInput{Body: body, Signature: tt.signature, EventID: "evt_1"})
			s.ErrorIs(err, commands.ErrInvalidSignature)
		})
	}

	s.Equal(before+float64(len(tests)), testutil.ToFloat64(metrics.WebhookSignatureFailuresTotal))
	s.Empty(s.store.Events())
	s.Equal(quote.StatusAwaitingPayment, s.store.Quote(q.ID()).Status())
}

func (s *WebhookTestSuite) TestHandle_RecordsConfirmedAmountWithinTolerance() {
	q := s.seedAwaiting()
	short := q.Price().AmountMinor() - q.Price().AmountMinor()/100
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), short, "NGN")

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_short"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomeApplied, res.Outcome)

	p := s.store.Payment(q.GatewayReference())
	s.Equal(payment.StatusSucceeded, p.Status())
	s.Equal(mustMoney(s.T(), short, "NGN"), p.PaidAmount())
	s.Equal(q.Price(), p.Amount())
}

func (s *WebhookTestSuite) TestHandle_AppliesSuccess() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_1"))
	s.Require().NoError(err)
	s.Equal("ok", res.Status)
	s.Equal(payment.OutcomeApplied, res.Outcome)
	s.False(res.Replayed)

	stored := s.store.Quote(q.ID())
	s.Equal(quote.StatusPaid, stored.Status())
	s.Equal(s.clock.Now(), stored.StatusChangedAt())
	s.Equal(payment.StatusSucceeded, s.store.Payment(q.GatewayReference()).Status())
	s.Equal(q.Price(), s.store.Payment(q.GatewayReference()).PaidAmount())

	task := s.store.Task(q.ID())
	s.Require().NotNil(task)
	s.Equal(ticketing.TaskPending, task.Status())
	s.True(task.IsDue(s.clock.Now()))
	s.Equal(s.clock.Now().Add(3*time.Hour), task.Deadline())

	events := s.store.Events()
	s.Require().Len(events, 1)
	s.Equal("evt:evt_1", events[0].DedupKey)
	s.Equal(payment.OutcomeApplied, events[0].Outcome)
	s.Equal(q.ID(), *events[0].QuoteID)

	signals := s.out.Signals()
	s.Require().Len(signals, 1)
	s.Equal(q.ID(), signals[0].QuoteID)
	s.Empty(s.out.Escalations())
}

func (s *WebhookTestSuite) TestHandle_ConcurrentDuplicateDeliveries() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	const deliveries = 8
	results := make([]*commands.WebhookResult, deliveries)
	errList := make([]error, deliveries)
	var wg sync.WaitGroup
	for i := range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errList[i] = s.uc.Handle(context.Background(), signed(body, "evt_dup"))
		}()
	}
	wg.Wait()

	applied := 0
	var bodies []string
	for i := range deliveries {
		s.Require().NoError(errList[i])
		if !results[i].Replayed {
			applied++
		}
		encoded, err := json.Marshal(results[i])
		s.Require().NoError(err)
		bodies = append(bodies, string(encoded))
	}
	s.Equal(1, applied)
	for _, b := range bodies {
		s.JSONEq(`{"status":"ok","outcome":"applied"}`, b)
	}

	s.Equal(quote.StatusPaid, s.store.Quote(q.ID()).Status())
	s.Len(s.store.Events(), 1)
	s.Len(s.out.Signals(), 1)
}

func (s *WebhookTestSuite) TestHandle_SameChargeUnderNewEventID() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	_, err := s.uc.Handle(context.Background(), signed(body, "evt_a"))
	s.Require().NoError(err)
	res, err := s.uc.Handle(context.Background(), signed(body, "evt_b"))
	s.Require().NoError(err)

	s.Equal(payment.OutcomeAlreadyApplied, res.Outcome)
	s.False(res.Replayed)
	s.Len(s.store.Events(), 2)
	s.Len(s.out.Signals(), 1)
	s.Empty(s.out.Escalations())
}

func (s *WebhookTestSuite) TestHandle_DedupWithoutEventID() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	first, err := s.uc.Handle(context.Background(), signed(body, ""))
	s.Require().NoError(err)
	second, err := s.uc.Handle(context.Background(), signed(body, ""))
	s.Require().NoError(err)

	s.False(first.Replayed)
	s.True(second.Replayed)
	s.Equal(first.Outcome, second.Outcome)
	s.Len(s.store.Events(), 1)
}

func (s *WebhookTestSuite) TestHandle_Anomalies() {
	tests := []struct {
		name        string
		arrange     func() (reference string, amount int64, quoteID *quote.Quote)
		wantOutcome payment.Outcome
		wantKind    string
		wantStatus  quote.Status
	}{
		{
			name: "unknown reference",
			arrange: func() (string, int64, *quote.Quote) {
				return "REF_doesnotexist", 15000000, nil
			},
			wantOutcome: payment.OutcomeUnknownReference,
			wantKind:    shared.EscalationUnknownReference,
		},
		{
			name: "amount below tolerance",
			arrange: func() (string, int64, *quote.Quote) {
				q := s.seedAwaiting()
				return q.GatewayReference(), q.Price().AmountMinor() / 2, q
			},
			wantOutcome: payment.OutcomeAmountMismatch,
			wantKind:    shared.EscalationAmountMismatch,
			wantStatus:  quote.StatusAwaitingPayment,
		},
		{
			name: "quote already expired",
			arrange: func() (string, int64, *quote.Quote) {
				q := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithStatus(quote.StatusExpired))
				return q.GatewayReference(), q.Price().AmountMinor(), q
			},
			wantOutcome: payment.OutcomeExpiredQuote,
			wantKind:    shared.EscalationExpiredQuote,
			wantStatus:  quote.StatusExpired,
		},
		{
			name: "payment after expiry horizon",
			arrange: func() (string, int64, *quote.Quote) {
				q := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithCreatedAt(s.clock.Now().Add(-31*time.Minute)))
				return q.GatewayReference(), q.Price().AmountMinor(), q
			},
			wantOutcome: payment.OutcomePaymentAfterExpiry,
			wantKind:    shared.EscalationPaymentAfterExpiry,
			wantStatus:  quote.StatusAwaitingPayment,
		},
		{
			name: "cancelled quote",
			arrange: func() (string, int64, *quote.Quote) {
				q := seedQuote(s.T(), s.store, builder.NewQuoteBuilder().WithStatus(quote.StatusCancelled))
				return q.GatewayReference(), q.Price().AmountMinor(), q
			},
			wantOutcome: payment.OutcomeInvalidState,
			wantKind:    shared.EscalationInvalidState,
			wantStatus:  quote.StatusCancelled,
		},
	}
	for i, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			ref, amount, q := tt.arrange()
			body := chargeBody(payment.EventChargeSuccess, ref, amount, "NGN")

			res, err := s.uc.Handle(context.Background(), signed(body, fmt.Sprintf("evt_%d", i)))
			s.Require().NoError(err)
			s.Equal(tt.wantOutcome, res.Outcome)

			escalations := s.out.Escalations()
			s.Require().Len(escalations, 1)
			s.Equal(tt.wantKind, escalations[0].Kind)
			s.Equal(ref, escalations[0].Reference)
			s.Empty(s.out.Signals())

			if q != nil {
				s.Equal(tt.wantStatus, s.store.Quote(q.ID()).Status())
				s.Nil(s.store.Task(q.ID()))
			}
			s.Len(s.store.Events(), 1)
		})
	}
}

func (s *WebhookTestSuite) TestHandle_MalformedBodyIsRecorded() {
	body := []byte(`{"event":"charge.success","data":`)

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_bad"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomeMalformed, res.Outcome)

	events := s.store.Events()
	s.Require().Len(events, 1)
	s.Equal("malformed", events[0].EventType)
	s.True(json.Valid(events[0].Payload))
	s.Empty(s.out.Escalations())
}

func (s *WebhookTestSuite) TestHandle_ChargeFailed() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeFailed, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_failed"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomePaymentFailed, res.Outcome)

	s.Equal(quote.StatusAwaitingPayment, s.store.Quote(q.ID()).Status())
	s.Equal(payment.StatusFailed, s.store.Payment(q.GatewayReference()).Status())
	s.Empty(s.out.Escalations())
	s.Empty(s.out.Signals())
}

func (s *WebhookTestSuite) TestHandle_UnhandledEventIgnored() {
	body := []byte(`{"event":"transfer.success","data":{"reference":"TRF_1"}}`)

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_trf"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomeIgnored, res.Outcome)
	s.Empty(s.out.Escalations())
}

func (s *WebhookTestSuite) TestHandle_RollbackAllowsRedelivery() {
	q := s.seedAwaiting()
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")
	s.store.FailCommits(1, errors.New("connection lost"))

	_, err := s.uc.Handle(context.Background(), signed(body, "evt_1"))
	s.True(errs.Is(err, commands.ErrDatabaseOperationFailed))
	s.Equal(quote.StatusAwaitingPayment, s.store.Quote(q.ID()).Status())
	s.Nil(s.store.Entry(shared.OperationPaymentWebhook, "evt:evt_1"))
	s.Empty(s.store.Events())
	s.Empty(s.out.Signals())

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_1"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomeApplied, res.Outcome)
	s.False(res.Replayed)
	s.Equal(quote.StatusPaid, s.store.Quote(q.ID()).Status())
}

func (s *WebhookTestSuite) TestHandle_PublishFailureDoesNotFailDelivery() {
	q := s.seedAwaiting()
	s.out.err = errors.New("broker down")
	body := chargeBody(payment.EventChargeSuccess, q.GatewayReference(), q.Price().AmountMinor(), "NGN")

	res, err := s.uc.Handle(context.Background(), signed(body, "evt_1"))
	s.Require().NoError(err)
	s.Equal(payment.OutcomeApplied, res.Outcome)
	s.NotNil(s.store.Task(q.ID()), "the durable task still drives ticketing")
}
