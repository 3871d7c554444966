//go:build unit

package payment_test

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReference(t *testing.T) {
	ref := payment.NewReference()
	assert.Regexp(t, regexp.MustCompile(`^REF_[0-9a-f]{24}$`), ref)
	assert.NotEqual(t, ref, payment.NewReference())
}

func TestPaymentLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	amount, err := money.New(5000, "NGN")
	require.NoError(t, err)

	t.Run("requires reference", func(t *testing.T) {
		_, err := payment.NewPayment(uuid.New(), " ", amount, payment.MethodCard, now)
		require.ErrorIs(t, err, payment.ErrMissingReference)
	})

	t.Run("succeeds once", func(t *testing.T) {
		p, err := payment.NewPayment(uuid.New(), "REF_x", amount, "", now)
		require.NoError(t, err)
		assert.Equal(t, payment.MethodCard, p.Method())
		assert.Equal(t, payment.StatusInitialized, p.Status())
		assert.Equal(t, payment.ProviderPaystack, p.Provider())

		assert.True(t, p.PaidAmount().IsZero())

		paid, err := money.New(amount.AmountMinor()-50, amount.Currency())
		require.NoError(t, err)
		require.NoError(t, p.MarkSucceeded(paid, now.Add(time.Minute)))
		require.NoError(t, p.MarkSucceeded(amount, now.Add(2*time.Minute)))
		assert.Equal(t, now.Add(time.Minute), p.UpdatedAt())
		assert.Equal(t, paid, p.PaidAmount())
		require.ErrorIs(t, p.MarkFailed(now), payment.ErrAlreadyFinalized)
	})
}

func TestNewMethod(t *testing.T) {
	m, err := payment.NewMethod("ussd")
	require.NoError(t, err)
	assert.Equal(t, payment.MethodUSSD, m)

	_, err = payment.NewMethod("crypto")
	require.ErrorIs(t, err, payment.ErrUnsupportedMethod)
}

func TestNewEventRecord(t *testing.T) {
	now := time.Now()
	rec, err := payment.NewEventRecord("evt:1", "charge.success", "REF_x", nil, payment.OutcomeMalformed, "", []byte("{broken"), now)
	require.NoError(t, err)
	assert.True(t, json.Valid(rec.Payload))

	_, err = payment.NewEventRecord("", "charge.success", "", nil, payment.OutcomeApplied, "", nil, now)
	require.ErrorIs(t, err, payment.ErrMissingDedupKey)
}

func TestOutcomeIsAnomaly(t *testing.T) {
	assert.False(t, payment.OutcomeApplied.IsAnomaly())
	assert.False(t, payment.OutcomeAlreadyApplied.IsAnomaly())
	assert.True(t, payment.OutcomeAmountMismatch.IsAnomaly())
	assert.True(t, payment.OutcomeUnknownReference.IsAnomaly())
	assert.True(t, payment.OutcomePaymentAfterExpiry.IsAnomaly())
}

func TestCheckCurrency(t *testing.T) {
	require.NoError(t, payment.CheckCurrency("ngn", []string{"NGN", "USD"}))
	require.ErrorIs(t, payment.CheckCurrency("EUR", []string{"NGN"}), payment.ErrUnsupportedCurrency)
}
