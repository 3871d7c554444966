package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-engine/internal/domain/money"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// Gateway event names.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

type Kind string

const (
	KindChargeSuccess Kind = "charge_success"
	KindChargeFailed  Kind = "charge_failed"
	KindUnrecognized  Kind = "unrecognized"
)

// Event is one of ChargeSuccess, ChargeFailed or Unrecognized.
type Event interface {
	Kind() Kind
	Type() string
	Reference() string
	isEvent()
}

type ChargeSuccess struct {
	reference string
	amount    money.Money
	paidAt    *time.Time
}

func (e ChargeSuccess) Kind() Kind          { return KindChargeSuccess }
func (e ChargeSuccess) Type() string        { return EventChargeSuccess }
func (e ChargeSuccess) Reference() string   { return e.reference }
func (e ChargeSuccess) Amount() money.Money { return e.amount }
func (e ChargeSuccess) PaidAt() *time.Time  { return e.paidAt }
func (ChargeSuccess) isEvent()              {}

type ChargeFailed struct {
	reference string
	amount    money.Money
	reason    string
}

func (e ChargeFailed) Kind() Kind          { return KindChargeFailed }
func (e ChargeFailed) Type() string        { return EventChargeFailed }
func (e ChargeFailed) Reference() string   { return e.reference }
func (e ChargeFailed) Amount() money.Money { return e.amount }
func (e ChargeFailed) Reason() string      { return e.reason }
func (ChargeFailed) isEvent()              {}

// Unrecognized keeps whatever could be read so the anomaly is still traceable.
type Unrecognized struct {
	eventType string
	reference string
	status    string
}

func (e Unrecognized) Kind() Kind        { return KindUnrecognized }
func (e Unrecognized) Type() string      { return e.eventType }
func (e Unrecognized) Reference() string { return e.reference }
func (e Unrecognized) Status() string    { return e.status }
func (Unrecognized) isEvent()            {}

type wirePayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference       string     `json:"reference"`
		Status          string     `json:"status"`
		Amount          int64      `json:"amount"`
		Currency        string     `json:"currency"`
		PaidAt          *time.Time `json:"paid_at"`
		GatewayResponse string     `json:"gateway_response"`
	} `json:"data"`
}

// ParseEvent decodes a gateway payload. Unknown event types and success events
// whose data is unusable come back as Unrecognized, never as an error.
func ParseEvent(body []byte) (Event, error) {
	var p wirePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	ref := strings.TrimSpace(p.Data.Reference)
	status := strings.ToLower(p.Data.Status)

	switch p.Event {
	case EventChargeSuccess:
		amount, err := money.New(p.Data.Amount, p.Data.Currency)
		if ref == "" || err != nil || (status != "" && status != "success") {
			return Unrecognized{eventType: p.Event, reference: ref, status: status}, nil
		}
		return ChargeSuccess{reference: ref, amount: amount, paidAt: p.Data.PaidAt}, nil
	case EventChargeFailed:
		amount, _ := money.New(p.Data.Amount, p.Data.Currency)
		if ref == "" {
			return Unrecognized{eventType: p.Event, status: status}, nil
		}
		return ChargeFailed{reference: ref, amount: amount, reason: p.Data.GatewayResponse}, nil
	default:
		return Unrecognized{eventType: p.Event, reference: ref, status: status}, nil
	}
}

// DedupKey prefers the gateway event id. Without one it hashes event type,
// reference and amount so redeliveries collapse while distinct events do not.
func DedupKey(eventID string, body []byte) string {
	if id := strings.TrimSpace(eventID); id != "" {
		return "evt:" + id
	}

	var p wirePayload
	if err := json.Unmarshal(body, &p); err != nil {
		sum := sha256.Sum256(body)
		return "raw:" + hex.EncodeToString(sum[:])
	}
	material := fmt.Sprintf("%s|%s|%d|%s", p.Event, p.Data.Reference, p.Data.Amount, strings.ToUpper(p.Data.Currency))
	sum := sha256.Sum256([]byte(material))
	return "sha:" + hex.EncodeToString(sum[:])
}
