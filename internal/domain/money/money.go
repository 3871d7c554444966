package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidAmount   = errors.New("amount must be a decimal with at most two fraction digits")
)

// Money is an amount in the currency's minor unit (kobo, cents, pesewas).
type Money struct {
	amountMinor int64
	currency    string
}

func New(amountMinor int64, currency string) (Money, error) {
	if amountMinor < 0 {
		return Money{}, ErrNegativeAmount
	}
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return Money{}, ErrInvalidCurrency
		}
	}
	return Money{amountMinor: amountMinor, currency: cur}, nil
}

// ParseMajor reads a decimal major-unit amount such as "150.00" or "99.5".
func ParseMajor(amount, currency string) (Money, error) {
	whole, frac, hasFrac := strings.Cut(strings.TrimSpace(amount), ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return Money{}, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || minor < 0 {
		return Money{}, ErrInvalidAmount
	}
	if major < 0 || strings.HasPrefix(whole, "-") {
		return Money{}, ErrNegativeAmount
	}
	return New(major*100+minor, currency)
}

func (m Money) AmountMinor() int64 { return m.amountMinor }
func (m Money) Currency() string   { return m.currency }
func (m Money) IsZero() bool       { return m.amountMinor == 0 && m.currency == "" }

func (m Money) Equal(other Money) bool {
	return m.amountMinor == other.amountMinor && m.currency == other.currency
}

func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// AbsDelta is |m - other| in minor units. Callers check SameCurrency first.
func (m Money) AbsDelta(other Money) int64 {
	d := m.amountMinor - other.amountMinor
	if d < 0 {
		return -d
	}
	return d
}

// WithinPercent reports whether other is within percent of m, measured against m.
func (m Money) WithinPercent(other Money, percent float64) bool {
	if !m.SameCurrency(other) {
		return false
	}
	delta := float64(m.AbsDelta(other))
	return delta*100 <= float64(m.amountMinor)*percent
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.amountMinor, m.currency)
}
