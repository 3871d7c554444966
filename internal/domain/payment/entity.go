package payment

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"booking-engine/internal/domain/money"

	"github.com/google/uuid"
)

const ProviderPaystack = "paystack"

var (
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrMissingReference    = errors.New("payment reference is required")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrAlreadyFinalized    = errors.New("payment already finalized")
	ErrMissingDedupKey     = errors.New("dedup key is required")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// NewReference returns an opaque gateway reference, REF_ followed by 24 hex chars.
func NewReference() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "REF_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}
	return "REF_" + hex.EncodeToString(b)
}

type Payment struct {
	id               uuid.UUID
	quoteID          uuid.UUID
	provider         string
	reference        string
	amount           money.Money
	paidAmount       money.Money
	method           Method
	status           Status
	authorizationURL string
	createdAt        time.Time
	updatedAt        time.Time
}

func NewPayment(quoteID uuid.UUID, reference string, amount money.Money, method Method, now time.Time) (*Payment, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, ErrMissingReference
	}
	if method == "" {
		method = MethodCard
	}
	return &Payment{
		id:        uuid.New(),
		quoteID:   quoteID,
		provider:  ProviderPaystack,
		reference: reference,
		amount:    amount,
		method:    method,
		status:    StatusInitialized,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructPayment(
	id, quoteID uuid.UUID,
	provider, reference string,
	amount, paidAmount money.Money,
	method Method,
	status Status,
	authorizationURL string,
	createdAt, updatedAt time.Time,
) (*Payment, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return &Payment{
		id:               id,
		quoteID:          quoteID,
		provider:         provider,
		reference:        reference,
		amount:           amount,
		paidAmount:       paidAmount,
		method:           method,
		status:           status,
		authorizationURL: authorizationURL,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (p *Payment) AttachAuthorizationURL(url string, now time.Time) {
	p.authorizationURL = url
	p.updatedAt = now
}

// MarkSucceeded records the amount the gateway confirmed, which may differ
// from the initialized amount within the reconciliation tolerance.
func (p *Payment) MarkSucceeded(paid money.Money, now time.Time) error {
	if p.status == StatusSucceeded {
		return nil
	}
	if p.status != StatusInitialized {
		return ErrAlreadyFinalized
	}
	p.status = StatusSucceeded
	p.paidAmount = paid
	p.updatedAt = now
	return nil
}

func (p *Payment) MarkFailed(now time.Time) error {
	if p.status == StatusFailed {
		return nil
	}
	if p.status != StatusInitialized {
		return ErrAlreadyFinalized
	}
	p.status = StatusFailed
	p.updatedAt = now
	return nil
}

func (p *Payment) ID() uuid.UUID            { return p.id }
func (p *Payment) QuoteID() uuid.UUID       { return p.quoteID }
func (p *Payment) Provider() string         { return p.provider }
func (p *Payment) Reference() string        { return p.reference }
func (p *Payment) Amount() money.Money      { return p.amount }
func (p *Payment) PaidAmount() money.Money  { return p.paidAmount }
func (p *Payment) Method() Method           { return p.method }
func (p *Payment) Status() Status           { return p.status }
func (p *Payment) AuthorizationURL() string { return p.authorizationURL }
func (p *Payment) CreatedAt() time.Time     { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time     { return p.updatedAt }

// EventRecord is the durable trace of one delivered webhook.
type EventRecord struct {
	ID        uuid.UUID
	DedupKey  string
	EventType string
	Reference string
	QuoteID   *uuid.UUID
	Outcome   Outcome
	Detail    string
	Payload   json.RawMessage
	CreatedAt time.Time
}

func NewEventRecord(dedupKey, eventType, reference string, quoteID *uuid.UUID, outcome Outcome, detail string, payload []byte, now time.Time) (*EventRecord, error) {
	if dedupKey == "" {
		return nil, ErrMissingDedupKey
	}
	raw := json.RawMessage(payload)
	if !json.Valid(payload) {
		// keep malformed bodies inspectable without breaking the jsonb column
		quoted, _ := json.Marshal(string(payload))
		raw = quoted
	}
	return &EventRecord{
		ID:        uuid.New(),
		DedupKey:  dedupKey,
		EventType: eventType,
		Reference: reference,
		QuoteID:   quoteID,
		Outcome:   outcome,
		Detail:    detail,
		Payload:   raw,
		CreatedAt: now,
	}, nil
}

// CheckCurrency reports whether currency is one the gateway accepts.
func CheckCurrency(currency string, supported []string) error {
	for _, c := range supported {
		if strings.EqualFold(c, currency) {
			return nil
		}
	}
	return ErrUnsupportedCurrency
}
