package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

// Summary serves the read-only aggregates consumed by the UI layer. It never
// writes anything; every value is derived from the source records.
type Summary struct {
	store storage.Store
}

func NewSummary(store storage.Store) *Summary {
	return &Summary{store: store}
}

func (s *Summary) WorkLogs(ctx context.Context, f storage.WorkLogFilter) ([]core.WorkLog, error) {
	logs, err := s.store.ListWorkLogs(ctx, f)
	if err != nil {
		return nil, core.Storef("read work logs", err)
	}
	return logs, nil
}

func (s *Summary) FinanceRecords(ctx context.Context) ([]core.FinanceRecord, error) {
	records, err := s.store.ListFinanceRecords(ctx)
	if err != nil {
		return nil, core.Storef("read finance records", err)
	}
	return records, nil
}

func (s *Summary) Payments(ctx context.Context, debtID string) ([]core.DebtPayment, error) {
	var (
		payments []core.DebtPayment
		err      error
	)
	if debtID == "" {
		payments, err = s.store.ListPayments(ctx)
	} else {
		payments, err = s.store.ListPaymentsForDebt(ctx, debtID)
	}
	if err != nil {
		return nil, core.Storef("read payments", err)
	}
	return payments, nil
}

// MonthlyDeductions groups work logs by calendar month and person. The
// deduction column sums the per-log rounded deductions, so it matches the
// amounts the ledger actually applied. Sorted newest month first, then by
// person.
func (s *Summary) MonthlyDeductions(ctx context.Context) ([]core.MonthlyDeduction, error) {
	logs, err := s.store.ListWorkLogs(ctx, storage.WorkLogFilter{})
	if err != nil {
		return nil, core.Storef("read work logs", err)
	}

	type key struct {
		year   int
		month  int
		person core.Person
	}
	groups := make(map[key]*core.MonthlyDeduction)

	for _, log := range logs {
		deduction, err := core.DeductionFor(log.Person, log.Earnings)
		if err != nil {
			return nil, core.Invalid(err)
		}

		k := key{log.StartTime.Year(), int(log.StartTime.Month()), log.Person}
		g, ok := groups[k]
		if !ok {
			g = &core.MonthlyDeduction{Person: k.person, Year: k.year, Month: k.month}
			groups[k] = g
		}
		g.DurationMS += log.DurationMS
		g.TotalEarnings = g.TotalEarnings.Add(log.Earnings)
		g.Deduction = g.Deduction.Add(deduction)
	}

	summaries := make([]core.MonthlyDeduction, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, *g)
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Person < b.Person
	})
	return summaries, nil
}

// FinanceSummary totals shared-currency income and expenses.
func (s *Summary) FinanceSummary(ctx context.Context) (core.FinanceSummary, error) {
	records, err := s.store.ListFinanceRecords(ctx)
	if err != nil {
		return core.FinanceSummary{}, core.Storef("read finance records", err)
	}

	var sum core.FinanceSummary
	for _, r := range records {
		if r.Currency != core.SharedCurrency {
			continue
		}
		switch r.Type {
		case core.Income:
			sum.Income = sum.Income.Add(r.Amount)
		case core.Expense:
			sum.Expenses = sum.Expenses.Add(r.Amount)
		}
	}
	return sum, nil
}

// DebtStatuses returns every debt with its derived paid/remaining state,
// ordered by origination date.
func (s *Summary) DebtStatuses(ctx context.Context) ([]core.DebtStatus, error) {
	debts, err := s.store.ListDebts(ctx)
	if err != nil {
		return nil, core.Storef("read debts", err)
	}
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, core.Storef("read payments", err)
	}

	statuses := make([]core.DebtStatus, 0, len(debts))
	for _, d := range debts {
		remaining := d.Remaining(payments)
		statuses = append(statuses, core.DebtStatus{
			Debt:      d,
			Paid:      d.Amount.Sub(remaining),
			Remaining: remaining,
			Active:    remaining.IsPositive(),
		})
	}
	return statuses, nil
}

// RemainingByCurrency totals the remaining debt per currency.
func (s *Summary) RemainingByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	statuses, err := s.DebtStatuses(ctx)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal)
	for _, st := range statuses {
		if !st.Active {
			continue
		}
		totals[st.Debt.Currency] = totals[st.Debt.Currency].Add(st.Remaining)
	}
	return totals, nil
}
