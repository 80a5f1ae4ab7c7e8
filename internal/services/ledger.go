package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

// Ledger keeps the shared budget balance equal to the sum of all currently
// applicable work-log deductions, shared-currency finance deltas and debt
// payments. It is the only component that writes the budget record; every
// mutation computes a delta and funnels it through applyDelta.
//
// A mutex serializes all budget-touching operations: the multi-step
// read-entity/write-entity/read-budget/write-budget sequence is not covered
// by a store transaction, so concurrent callers would lose updates.
type Ledger struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
	mu       sync.Mutex
}

func NewLedger(store storage.Store, notifier Notifier) *Ledger {
	return &Ledger{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Budget returns the current shared budget. A missing record reads as zero.
func (l *Ledger) Budget(ctx context.Context) (core.SharedBudget, error) {
	b, err := l.store.GetBudget(ctx)
	if err != nil {
		return core.SharedBudget{}, core.Storef("read budget", err)
	}
	return b, nil
}

// ApplyDelta adds delta to the budget balance and, when the resulting
// balance is positive, runs one settlement sweep.
func (l *Ledger) ApplyDelta(ctx context.Context, delta decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyDelta(ctx, delta, true)
}

// applyDelta is the single budget write path. Settlement payments go through
// it with settle=false: the sweep works off a local funds snapshot, so its
// own budget writes must not re-trigger another sweep.
func (l *Ledger) applyDelta(ctx context.Context, delta decimal.Decimal, settle bool) error {
	budget, err := l.store.GetBudget(ctx)
	if err != nil {
		return core.Storef("read budget", err)
	}

	budget.Balance = budget.Balance.Add(delta)
	budget.LastUpdated = l.now()

	if err := l.store.PutBudget(ctx, budget); err != nil {
		return core.Storef("write budget", err)
	}

	slog.DebugContext(ctx, "Budget updated",
		"delta", delta.String(),
		"balance", budget.Balance.String())
	l.notifyBudget(ctx, budget.Balance, delta)

	if settle && budget.Balance.IsPositive() {
		return l.settle(ctx, budget.Balance)
	}
	return nil
}

// prepareWorkLog validates a log and derives its id, duration and earnings.
func (l *Ledger) prepareWorkLog(w core.WorkLog) (core.WorkLog, error) {
	if err := w.Validate(); err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}

	ms, err := core.WorkDuration(w.StartTime, w.EndTime, w.BreakMinutes)
	if err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}
	w.DurationMS = ms

	if w.Earnings, err = core.EarningsFor(w.Person, ms); err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return w, nil
}

// CreateWorkLog stores a new work log and credits its deduction to the
// shared budget.
func (l *Ledger) CreateWorkLog(ctx context.Context, w core.WorkLog) (core.WorkLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, err := l.prepareWorkLog(w)
	if err != nil {
		return core.WorkLog{}, err
	}

	if err := l.store.PutWorkLog(ctx, w); err != nil {
		return core.WorkLog{}, core.Storef("save work log", err)
	}

	deduction, err := core.DeductionFor(w.Person, w.Earnings)
	if err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}

	slog.InfoContext(ctx, "Work log saved",
		"id", w.ID,
		"person", w.Person,
		"earnings", w.Earnings.String(),
		"deduction", deduction.String())

	return w, l.applyDelta(ctx, deduction, true)
}

// UpdateWorkLog replaces an existing work log and applies the difference
// between the new and the old deduction. Both terms round independently;
// changing the person changes the rate used for its own term only.
func (l *Ledger) UpdateWorkLog(ctx context.Context, w core.WorkLog) (core.WorkLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.store.GetWorkLog(ctx, w.ID)
	if err != nil {
		return core.WorkLog{}, err
	}

	w, err = l.prepareWorkLog(w)
	if err != nil {
		return core.WorkLog{}, err
	}

	if err := l.store.PutWorkLog(ctx, w); err != nil {
		return core.WorkLog{}, core.Storef("save work log", err)
	}

	oldDeduction, err := core.DeductionFor(old.Person, old.Earnings)
	if err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}
	newDeduction, err := core.DeductionFor(w.Person, w.Earnings)
	if err != nil {
		return core.WorkLog{}, core.Invalid(err)
	}

	delta := newDeduction.Sub(oldDeduction)
	if delta.IsZero() {
		return w, nil
	}
	return w, l.applyDelta(ctx, delta, true)
}

// DeleteWorkLog removes a work log and takes its deduction back out of the
// budget.
func (l *Ledger) DeleteWorkLog(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.store.GetWorkLog(ctx, id)
	if err != nil {
		return err
	}

	if err := l.store.DeleteWorkLog(ctx, id); err != nil {
		return core.Storef("delete work log", err)
	}

	deduction, err := core.DeductionFor(old.Person, old.Earnings)
	if err != nil {
		return core.Invalid(err)
	}
	return l.applyDelta(ctx, deduction.Neg(), true)
}

func (l *Ledger) prepareFinanceRecord(r core.FinanceRecord) (core.FinanceRecord, error) {
	if err := r.Validate(); err != nil {
		return core.FinanceRecord{}, core.Invalid(err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.now()
	}
	return r, nil
}

// CreateFinanceRecord stores a record and applies its budget effect.
// Records outside the shared currency never touch the budget.
func (l *Ledger) CreateFinanceRecord(ctx context.Context, r core.FinanceRecord) (core.FinanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createFinanceRecord(ctx, r)
}

func (l *Ledger) createFinanceRecord(ctx context.Context, r core.FinanceRecord) (core.FinanceRecord, error) {
	r, err := l.prepareFinanceRecord(r)
	if err != nil {
		return core.FinanceRecord{}, err
	}

	if err := l.store.PutFinanceRecord(ctx, r); err != nil {
		return core.FinanceRecord{}, core.Storef("save finance record", err)
	}

	slog.InfoContext(ctx, "Finance record saved",
		"id", r.ID,
		"type", r.Type,
		"amount", r.Amount.String(),
		"currency", r.Currency)

	delta := r.FinanceDelta()
	if delta.IsZero() {
		return r, nil
	}
	return r, l.applyDelta(ctx, delta, true)
}

// UpdateFinanceRecord replaces a record. The delta is the difference of the
// two records' budget effects, which covers every combination of type change
// and currency-match change: undoing the old effect plus adding the new one.
func (l *Ledger) UpdateFinanceRecord(ctx context.Context, r core.FinanceRecord) (core.FinanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.store.GetFinanceRecord(ctx, r.ID)
	if err != nil {
		return core.FinanceRecord{}, err
	}

	r, err = l.prepareFinanceRecord(r)
	if err != nil {
		return core.FinanceRecord{}, err
	}

	if err := l.store.PutFinanceRecord(ctx, r); err != nil {
		return core.FinanceRecord{}, core.Storef("save finance record", err)
	}

	delta := r.FinanceDelta().Sub(old.FinanceDelta())
	if delta.IsZero() {
		return r, nil
	}
	return r, l.applyDelta(ctx, delta, true)
}

// DeleteFinanceRecord removes a record and reverts its budget effect.
func (l *Ledger) DeleteFinanceRecord(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.store.GetFinanceRecord(ctx, id)
	if err != nil {
		return err
	}

	if err := l.store.DeleteFinanceRecord(ctx, id); err != nil {
		return core.Storef("delete finance record", err)
	}

	delta := old.FinanceDelta().Neg()
	if delta.IsZero() {
		return nil
	}
	return l.applyDelta(ctx, delta, true)
}

func (l *Ledger) prepareDebt(d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, core.Invalid(err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = l.now()
	}
	return d, nil
}

// CreateDebt stores a debt. Debts have no budget effect of their own; only
// their payments do.
func (l *Ledger) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createDebt(ctx, d)
}

func (l *Ledger) createDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	d, err := l.prepareDebt(d)
	if err != nil {
		return core.Debt{}, err
	}
	if err := l.store.PutDebt(ctx, d); err != nil {
		return core.Debt{}, core.Storef("save debt", err)
	}
	slog.InfoContext(ctx, "Debt saved",
		"id", d.ID,
		"person", d.Person,
		"amount", d.Amount.String(),
		"currency", d.Currency)
	return d, nil
}

// UpdateDebt replaces an existing debt.
func (l *Ledger) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.GetDebt(ctx, d.ID); err != nil {
		return core.Debt{}, err
	}
	return l.createDebt(ctx, d)
}

// DeleteDebt removes a debt together with all payments referencing it.
func (l *Ledger) DeleteDebt(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.store.GetDebt(ctx, id); err != nil {
		return err
	}
	if err := l.store.DeleteDebt(ctx, id); err != nil {
		return core.Storef("delete debt", err)
	}
	return nil
}

// CreatePayment records a manual payment against a debt and debits the
// budget. A payment may settle the debt exactly; anything beyond the
// remaining amount is rejected before any write.
func (l *Ledger) CreatePayment(ctx context.Context, p core.DebtPayment) (core.DebtPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := p.Validate(); err != nil {
		return core.DebtPayment{}, core.Invalid(err)
	}

	debt, err := l.store.GetDebt(ctx, p.DebtID)
	if err != nil {
		return core.DebtPayment{}, err
	}

	payments, err := l.store.ListPaymentsForDebt(ctx, p.DebtID)
	if err != nil {
		return core.DebtPayment{}, core.Storef("read payments", err)
	}
	remaining := debt.Remaining(payments)
	if p.Amount.GreaterThan(remaining) {
		return core.DebtPayment{}, core.Invalid(fmt.Errorf("%w: remaining %s %s",
			core.ErrPaymentExceedsRemaining, remaining.String(), debt.Currency))
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = l.now()
	}

	if err := l.store.PutPayment(ctx, p); err != nil {
		return core.DebtPayment{}, core.Storef("save payment", err)
	}

	slog.InfoContext(ctx, "Debt payment saved",
		"id", p.ID,
		"debt_id", p.DebtID,
		"amount", p.Amount.String())

	return p, l.applyDelta(ctx, p.Amount.Neg(), true)
}

func (l *Ledger) notifyBudget(ctx context.Context, balance, delta decimal.Decimal) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.PublishBudgetChanged(ctx, balance, delta); err != nil {
		slog.WarnContext(ctx, "Failed to publish budget event", "error", err)
	}
}

func (l *Ledger) notify(ctx context.Context, level, text string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.PublishNotification(ctx, level, text); err != nil {
		slog.WarnContext(ctx, "Failed to publish notification", "error", err)
	}
}
