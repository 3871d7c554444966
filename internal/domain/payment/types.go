package payment

type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeAlreadyApplied     Outcome = "already_applied"
	OutcomeAmountMismatch     Outcome = "amount_mismatch"
	OutcomeUnknownReference   Outcome = "unknown_reference"
	OutcomeExpiredQuote       Outcome = "expired_quote"
	OutcomePaymentAfterExpiry Outcome = "payment_after_expiry"
	OutcomeInvalidState       Outcome = "invalid_state"
	OutcomePaymentFailed      Outcome = "payment_failed"
	OutcomeIgnored            Outcome = "ignored"
	OutcomeMalformed          Outcome = "malformed"
)

// IsAnomaly marks outcomes that need an operator to look at them.
func (o Outcome) IsAnomaly() bool {
	switch o {
	case OutcomeAmountMismatch, OutcomeUnknownReference, OutcomeExpiredQuote,
		OutcomePaymentAfterExpiry, OutcomeInvalidState, OutcomeMalformed:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusInitialized Status = "initialized"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusInitialized, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

type Method string

const (
	MethodCard Method = "card"
	MethodBank Method = "bank"
	MethodUSSD Method = "ussd"
)

func NewMethod(s string) (Method, error) {
	if s == "" {
		return MethodCard, nil
	}
	m := Method(s)
	switch m {
	case MethodCard, MethodBank, MethodUSSD:
		return m, nil
	default:
		return "", ErrUnsupportedMethod
	}
}
