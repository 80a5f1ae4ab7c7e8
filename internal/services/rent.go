package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

const (
	RentStatusPaid    RentStatus = "paid"
	RentStatusPending RentStatus = "pending"
	RentStatusUnpaid  RentStatus = "unpaid"
)

// rentMarker identifies rent expenses by substring match on the lowercased
// description; rent records created here always contain it.
const (
	rentMarker   = "nájem"
	rentCategory = "Nájem"
)

// Rent debts fall on the default person when the budget cannot cover rent.
const rentDebtor = core.PersonMaru

var czechMonths = [...]string{
	"leden", "únor", "březen", "duben", "květen", "červen",
	"červenec", "srpen", "září", "říjen", "listopad", "prosinec",
}

type (
	RentStatus string

	// RentCheck is the outcome of one scheduler run.
	RentCheck struct {
		Configured     bool
		Status         RentStatus
		NextDue        core.Date
		Amount         decimal.Decimal
		PaidFromBudget bool
		DebtCreated    bool
	}

	// RentScheduler checks the monthly rent obligation. It acts only on the
	// exact due day: a month whose due day passes without the process
	// running is reported as unpaid but never back-filled.
	//
	// The paid-this-month check makes the due-day action idempotent once a
	// rent expense exists; before one exists, a second run on the due day
	// would act again, so callers run the check once per day per process.
	RentScheduler struct {
		store    storage.Store
		ledger   *Ledger
		settings *Settings
		now      func() time.Time
	}
)

func NewRentScheduler(store storage.Store, ledger *Ledger, settings *Settings) *RentScheduler {
	return &RentScheduler{
		store:    store,
		ledger:   ledger,
		settings: settings,
		now:      time.Now,
	}
}

// Check evaluates the rent obligation for the current month and, exactly on
// the due day, pays it from the budget or records it as a debt.
func (s *RentScheduler) Check(ctx context.Context) (RentCheck, error) {
	amount, okAmount, err := s.settings.RentAmount(ctx)
	if err != nil {
		return RentCheck{}, err
	}
	day, okDay, err := s.settings.RentDay(ctx)
	if err != nil {
		return RentCheck{}, err
	}
	if !okAmount || !okDay {
		// Rent not configured; nothing to check.
		return RentCheck{}, nil
	}

	now := s.now()
	check := RentCheck{Configured: true, Amount: amount}

	// Informational next due date: this month's due day, rolled to next
	// month once passed.
	due := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if due.Before(now) {
		due = due.AddDate(0, 1, 0)
	}
	check.NextDue = core.DateOf(due)

	paid, err := s.paidThisMonth(ctx, now)
	if err != nil {
		return RentCheck{}, err
	}
	if paid {
		check.Status = RentStatusPaid
		return check, nil
	}

	if now.Day() < day {
		check.Status = RentStatusPending
		return check, nil
	}

	check.Status = RentStatusUnpaid
	if now.Day() != day {
		// Past the due day: overdue is display-only, no catch-up.
		return check, nil
	}

	budget, err := s.ledger.Budget(ctx)
	if err != nil {
		return RentCheck{}, err
	}

	description := fmt.Sprintf("Nájem za %s %d", czechMonths[now.Month()-1], now.Year())

	if budget.Balance.GreaterThanOrEqual(amount) {
		record := core.FinanceRecord{
			Type:        core.Expense,
			Date:        core.DateOf(now),
			Description: description,
			Category:    rentCategory,
			Amount:      amount,
			Currency:    core.SharedCurrency,
		}
		if _, err := s.ledger.CreateFinanceRecord(ctx, record); err != nil {
			return RentCheck{}, err
		}
		check.PaidFromBudget = true

		slog.InfoContext(ctx, "Rent paid from shared budget",
			"amount", amount.String(),
			"month", description)
		s.ledger.notify(ctx, LevelSuccess,
			"Automaticky zaplacen nájem ve výši "+formatCZK(amount)+" ze společného rozpočtu.")
	} else {
		debt := core.Debt{
			Person:      rentDebtor,
			Description: description,
			Amount:      amount,
			Currency:    core.SharedCurrency,
			Date:        core.DateOf(now),
		}
		if _, err := s.ledger.CreateDebt(ctx, debt); err != nil {
			return RentCheck{}, err
		}
		check.DebtCreated = true

		slog.WarnContext(ctx, "Rent recorded as debt, insufficient budget",
			"amount", amount.String(),
			"balance", budget.Balance.String())
		s.ledger.notify(ctx, LevelWarning,
			"Vytvořen dluh za nájem ve výši "+formatCZK(amount)+", protože ve společném rozpočtu není dostatek prostředků.")
	}

	return check, nil
}

func (s *RentScheduler) paidThisMonth(ctx context.Context, now time.Time) (bool, error) {
	records, err := s.store.ListFinanceRecords(ctx)
	if err != nil {
		return false, core.Storef("read finance records", err)
	}
	for _, r := range records {
		if r.Type != core.Expense {
			continue
		}
		if !strings.Contains(strings.ToLower(r.Description), rentMarker) {
			continue
		}
		if r.Date.SameMonth(now.Year(), now.Month()) {
			return true, nil
		}
	}
	return false, nil
}
