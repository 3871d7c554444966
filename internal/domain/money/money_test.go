//go:build unit

package money_test

import (
	"testing"

	"booking-engine/internal/domain/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		errIs    error
		wantCur  string
	}{
		{name: "normalizes currency", amount: 100, currency: " ngn ", wantCur: "NGN"},
		{name: "zero amount allowed", amount: 0, currency: "USD", wantCur: "USD"},
		{name: "negative amount", amount: -1, currency: "USD", errIs: money.ErrNegativeAmount},
		{name: "short currency", amount: 1, currency: "US", errIs: money.ErrInvalidCurrency},
		{name: "non letter currency", amount: 1, currency: "U5D", errIs: money.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.New(tt.amount, tt.currency)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, m.AmountMinor())
			assert.Equal(t, tt.wantCur, m.Currency())
		})
	}
}

func TestWithinPercent(t *testing.T) {
	base, _ := money.New(10000, "NGN")
	up2, _ := money.New(10200, "NGN")
	up3, _ := money.New(10300, "NGN")
	down2, _ := money.New(9800, "NGN")
	usd, _ := money.New(10000, "USD")

	assert.True(t, base.WithinPercent(base, 0))
	assert.True(t, base.WithinPercent(up2, 2))
	assert.True(t, base.WithinPercent(down2, 2))
	assert.False(t, base.WithinPercent(up3, 2))
	assert.False(t, base.WithinPercent(usd, 50), "currency mismatch is never within tolerance")
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		wantMinor int64
		errIs     error
	}{
		{name: "two fraction digits", amount: "150.00", wantMinor: 15000},
		{name: "one fraction digit", amount: "99.5", wantMinor: 9950},
		{name: "whole number", amount: "42", wantMinor: 4200},
		{name: "three fraction digits", amount: "1.005", errIs: money.ErrInvalidAmount},
		{name: "trailing dot", amount: "12.", errIs: money.ErrInvalidAmount},
		{name: "not a number", amount: "abc", errIs: money.ErrInvalidAmount},
		{name: "negative", amount: "-0.50", errIs: money.ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.ParseMajor(tt.amount, "USD")
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMinor, m.AmountMinor())
			assert.Equal(t, "USD", m.Currency())
		})
	}
}
