package core

import "github.com/shopspring/decimal"

// MonthlyDeduction aggregates a person's work in one calendar month.
// Deduction is the sum of the per-log rounded deductions, so it always
// matches what the ledger actually credited to the budget.
type MonthlyDeduction struct {
	Person        Person
	Year          int
	Month         int // 1-12
	DurationMS    int64
	TotalEarnings decimal.Decimal
	Deduction     decimal.Decimal
}

// FinanceSummary holds shared-currency income and expense totals.
type FinanceSummary struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// DebtStatus pairs a debt with its derived payment state.
type DebtStatus struct {
	Debt      Debt
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Active    bool
}
