package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vykazy/internal/core"
)

// Note attached to every payment created by the settlement sweep.
const autoPaymentNote = "Automatická splátka ze společného rozpočtu"

// settle runs one bounded settlement sweep: it walks the active
// shared-currency debts oldest first and pays each one min(remaining, funds
// left) until the funds snapshot taken at sweep start is exhausted. Each
// debt receives at most one payment per sweep and the total paid never
// exceeds the starting funds.
//
// Budget debits inside the sweep use applyDelta with settle=false; the sweep
// tracks funds locally instead of re-reading the balance, which is what
// keeps a still-positive balance from triggering another sweep recursively.
func (l *Ledger) settle(ctx context.Context, funds decimal.Decimal) error {
	debts, err := l.store.ListDebts(ctx)
	if err != nil {
		return core.Storef("read debts", err)
	}
	payments, err := l.store.ListPayments(ctx)
	if err != nil {
		return core.Storef("read payments", err)
	}

	active := make([]core.Debt, 0, len(debts))
	for _, d := range debts {
		if d.Currency != core.SharedCurrency {
			continue
		}
		if d.Remaining(payments).IsPositive() {
			active = append(active, d)
		}
	}
	// Oldest origination first; ties keep store order.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Date.Before(active[j].Date.Time)
	})

	for _, debt := range active {
		remaining := debt.Remaining(payments)
		pay := decimal.Min(remaining, funds)
		if !pay.IsPositive() {
			continue
		}

		now := l.now()
		payment := core.DebtPayment{
			ID:        uuid.NewString(),
			DebtID:    debt.ID,
			Amount:    pay,
			Date:      core.DateOf(now),
			Note:      autoPaymentNote,
			CreatedAt: now,
		}
		if err := l.store.PutPayment(ctx, payment); err != nil {
			return core.Storef("save automatic payment", err)
		}

		funds = funds.Sub(pay)
		if err := l.applyDelta(ctx, pay.Neg(), false); err != nil {
			return err
		}

		slog.InfoContext(ctx, "Debt settled automatically",
			"debt_id", debt.ID,
			"description", debt.Description,
			"paid", pay.String(),
			"funds_left", funds.String())
		l.notify(ctx, LevelSuccess,
			"Automaticky splaceno "+formatCZK(pay)+" z dluhu: "+debt.Description)

		if !funds.IsPositive() {
			break
		}
	}
	return nil
}
