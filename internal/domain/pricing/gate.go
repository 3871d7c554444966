// Package pricing decides whether a fresh supplier price still matches the
// price the customer saw.
package pricing

import (
	"booking-engine/internal/domain/money"
)

type Tolerance struct {
	Percent       float64
	AbsoluteMinor int64
}

type Verdict int

const (
	VerdictAccepted Verdict = iota + 1
	VerdictReconfirm
)

type Result struct {
	Verdict Verdict
	Price   money.Money
	Delta   int64
}

func (r Result) Accepted() bool { return r.Verdict == VerdictAccepted }

// Evaluate compares the current price against the reference price. The
// reference is the price the customer explicitly accepted when given, else the
// search price. Drift is measured in both directions and a currency change
// always needs reconfirmation.
func Evaluate(search money.Money, accepted *money.Money, current money.Money, tol Tolerance) Result {
	reference := search
	if accepted != nil {
		reference = *accepted
	}

	if !reference.SameCurrency(current) {
		return Result{Verdict: VerdictReconfirm, Price: current}
	}

	delta := reference.AbsDelta(current)
	if within(reference, current, delta, tol) {
		return Result{Verdict: VerdictAccepted, Price: current, Delta: delta}
	}
	return Result{Verdict: VerdictReconfirm, Price: current, Delta: delta}
}

func within(reference, current money.Money, delta int64, tol Tolerance) bool {
	if tol.AbsoluteMinor > 0 && delta <= tol.AbsoluteMinor {
		return true
	}
	return reference.WithinPercent(current, tol.Percent)
}
