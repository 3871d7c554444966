//go:build unit

package payment_test

import (
	"testing"

	"booking-engine/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successBody = `{"event":"charge.success","data":{"reference":"REF_abc","status":"success","amount":15000000,"currency":"NGN","paid_at":"2026-03-01T10:05:00Z"}}`

func TestParseEvent(t *testing.T) {
	t.Run("charge success", func(t *testing.T) {
		ev, err := payment.ParseEvent([]byte(successBody))
		require.NoError(t, err)

		cs, ok := ev.(payment.ChargeSuccess)
		require.True(t, ok)
		assert.Equal(t, "REF_abc", cs.Reference())
		assert.Equal(t, int64(15000000), cs.Amount().AmountMinor())
		assert.Equal(t, "NGN", cs.Amount().Currency())
		require.NotNil(t, cs.PaidAt())
	})

	t.Run("charge failed", func(t *testing.T) {
		ev, err := payment.ParseEvent([]byte(`{"event":"charge.failed","data":{"reference":"REF_abc","amount":100,"currency":"NGN","gateway_response":"Declined"}}`))
		require.NoError(t, err)

		cf, ok := ev.(payment.ChargeFailed)
		require.True(t, ok)
		assert.Equal(t, "Declined", cf.Reason())
	})

	t.Run("unknown event type", func(t *testing.T) {
		ev, err := payment.ParseEvent([]byte(`{"event":"transfer.success","data":{"reference":"REF_abc"}}`))
		require.NoError(t, err)
		assert.Equal(t, payment.KindUnrecognized, ev.Kind())
		assert.Equal(t, "transfer.success", ev.Type())
	})

	t.Run("success without reference", func(t *testing.T) {
		ev, err := payment.ParseEvent([]byte(`{"event":"charge.success","data":{"amount":100,"currency":"NGN"}}`))
		require.NoError(t, err)
		assert.Equal(t, payment.KindUnrecognized, ev.Kind())
	})

	t.Run("success with bad currency", func(t *testing.T) {
		ev, err := payment.ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"REF_abc","amount":100,"currency":"NAIRA"}}`))
		require.NoError(t, err)
		assert.Equal(t, payment.KindUnrecognized, ev.Kind())
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := payment.ParseEvent([]byte(`{"event":`))
		require.ErrorIs(t, err, payment.ErrMalformedPayload)
	})
}

func TestDedupKey(t *testing.T) {
	t.Run("event id wins", func(t *testing.T) {
		assert.Equal(t, "evt:123", payment.DedupKey(" 123 ", []byte(successBody)))
	})

	t.Run("content hash is stable across redeliveries", func(t *testing.T) {
		reordered := `{"data":{"currency":"ngn","amount":15000000,"reference":"REF_abc","status":"success"},"event":"charge.success"}`
		a := payment.DedupKey("", []byte(successBody))
		b := payment.DedupKey("", []byte(reordered))
		assert.Equal(t, a, b)
		assert.Contains(t, a, "sha:")
	})

	t.Run("different amount gives different key", func(t *testing.T) {
		other := `{"event":"charge.success","data":{"reference":"REF_abc","amount":15000001,"currency":"NGN"}}`
		assert.NotEqual(t, payment.DedupKey("", []byte(successBody)), payment.DedupKey("", []byte(other)))
	})

	t.Run("malformed body hashes raw bytes", func(t *testing.T) {
		assert.Contains(t, payment.DedupKey("", []byte("not json")), "raw:")
	})
}

func TestVerifySignature(t *testing.T) {
	body := []byte(successBody)
	secret := "sk_test_secret"
	sig := payment.Sign(secret, body)

	tests := []struct {
		name   string
		secret string
		body   []byte
		sig    string
		want   bool
	}{
		{name: "valid", secret: secret, body: body, sig: sig, want: true},
		{name: "tampered body", secret: secret, body: append([]byte(successBody), ' '), sig: sig},
		{name: "wrong secret", secret: "other", body: body, sig: sig},
		{name: "missing signature", secret: secret, body: body, sig: ""},
		{name: "not hex", secret: secret, body: body, sig: "zz"},
		{name: "empty secret", secret: "", body: body, sig: sig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payment.VerifySignature(tt.secret, tt.body, tt.sig))
		})
	}
}
