// Package core holds the domain model of the shared household ledger.
//
// This file defines the process-wide rate constants and every money
// computation the ledger performs. All deduction amounts round to the
// nearest whole currency unit at the point of computation; a later
// recomputation rounds again independently.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hourly rates in CZK per person.
var hourlyRates = map[Person]decimal.Decimal{
	PersonMaru:  decimal.NewFromInt(275),
	PersonMarty: decimal.NewFromInt(400),
}

// Fraction of gross work earnings owed into the shared budget.
var deductionRates = map[Person]decimal.Decimal{
	PersonMaru:  decimal.RequireFromString("0.3333"), // 1/3
	PersonMarty: decimal.RequireFromString("0.5"),    // 1/2
}

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// HourlyRate returns the fixed hourly rate for a person.
func HourlyRate(p Person) (decimal.Decimal, bool) {
	r, ok := hourlyRates[p]
	return r, ok
}

// DeductionRate returns the fixed deduction fraction for a person.
func DeductionRate(p Person) (decimal.Decimal, bool) {
	r, ok := deductionRates[p]
	return r, ok
}

// WorkDuration computes the billable duration in milliseconds:
// end - start - break. The result must be positive.
func WorkDuration(start, end time.Time, breakMinutes int64) (int64, error) {
	if !end.After(start) {
		return 0, ErrEndBeforeStart
	}
	if breakMinutes < 0 {
		return 0, ErrNegativeBreak
	}
	ms := end.Sub(start).Milliseconds() - breakMinutes*time.Minute.Milliseconds()
	if ms <= 0 {
		return 0, ErrNonPositiveDuration
	}
	return ms, nil
}

// EarningsFor converts a billable duration to whole-unit gross earnings:
// round(duration in hours x hourly rate).
func EarningsFor(p Person, durationMS int64) (decimal.Decimal, error) {
	rate, ok := hourlyRates[p]
	if !ok {
		return decimal.Zero, ErrUnknownPerson
	}
	hours := decimal.NewFromInt(durationMS).Div(msPerHour)
	return hours.Mul(rate).Round(0), nil
}

// DeductionFor returns the shared-budget deduction for gross earnings:
// round(earnings x deduction rate). Each call rounds independently.
func DeductionFor(p Person, earnings decimal.Decimal) (decimal.Decimal, error) {
	rate, ok := deductionRates[p]
	if !ok {
		return decimal.Zero, ErrUnknownPerson
	}
	return earnings.Mul(rate).Round(0), nil
}

// FinanceDelta returns the budget effect of a finance record: +amount for
// shared-currency income, -amount for shared-currency expense, zero for any
// other currency.
func (r FinanceRecord) FinanceDelta() decimal.Decimal {
	if r.Currency != SharedCurrency {
		return decimal.Zero
	}
	if r.Type == Expense {
		return r.Amount.Neg()
	}
	return r.Amount
}
