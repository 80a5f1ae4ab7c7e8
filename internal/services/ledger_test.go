package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"vykazy/internal/core"
	"vykazy/internal/storage/memory"
)

func newTestLedger() (*Ledger, *memory.Store) {
	store := memory.New()
	return NewLedger(store, nil), store
}

func maruShift(day, hours int) core.WorkLog {
	start := time.Date(2024, 2, day, 9, 0, 0, 0, time.UTC)
	return core.WorkLog{
		Person:    core.PersonMaru,
		Activity:  "úklid",
		StartTime: start,
		EndTime:   start.Add(time.Duration(hours) * time.Hour),
	}
}

func czk(t *testing.T, rt core.RecordType, amount int64) core.FinanceRecord {
	t.Helper()
	return core.FinanceRecord{
		Type:        rt,
		Date:        core.NewDate(2024, 2, 10),
		Description: "test record",
		Category:    "Ostatní",
		Amount:      decimal.NewFromInt(amount),
		Currency:    core.SharedCurrency,
	}
}

func czkDebt(person core.Person, amount int64, day int) core.Debt {
	return core.Debt{
		Person:      person,
		Description: "test debt",
		Amount:      decimal.NewFromInt(amount),
		Currency:    core.SharedCurrency,
		Date:        core.NewDate(2024, 1, day),
	}
}

func requireBalance(t *testing.T, l *Ledger, want string) {
	t.Helper()
	b, err := l.Budget(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, b.Balance.String())
}

func TestLedger_WorkLogCreditsDeduction(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	saved, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, int64(2*60*60*1000), saved.DurationMS)
	require.Equal(t, "550", saved.Earnings.String())

	requireBalance(t, ledger, "183")
}

func TestLedger_ExpenseDebitsBudget(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)

	_, err = ledger.CreateFinanceRecord(ctx, czk(t, core.Expense, 200))
	require.NoError(t, err)

	requireBalance(t, ledger, "-17")
}

func TestLedger_IncomeTriggersSettlement(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()

	_, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)
	_, err = ledger.CreateFinanceRecord(ctx, czk(t, core.Expense, 200))
	require.NoError(t, err)

	debt, err := ledger.CreateDebt(ctx, czkDebt(core.PersonMarty, 500, 5))
	require.NoError(t, err)
	requireBalance(t, ledger, "-17")

	_, err = ledger.CreateFinanceRecord(ctx, czk(t, core.Income, 600))
	require.NoError(t, err)

	requireBalance(t, ledger, "83")

	payments, err := store.ListPaymentsForDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, "500", payments[0].Amount.String())
	require.Equal(t, autoPaymentNote, payments[0].Note)
}

func TestLedger_UpdateWorkLogAppliesDeductionDelta(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	saved, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)
	requireBalance(t, ledger, "183")

	longer := saved
	longer.EndTime = saved.StartTime.Add(4 * time.Hour)
	updated, err := ledger.UpdateWorkLog(ctx, longer)
	require.NoError(t, err)
	require.Equal(t, "1100", updated.Earnings.String())

	// round(1100 * 0.3333) = 367, replacing the old 183
	requireBalance(t, ledger, "367")
}

func TestLedger_UpdateWorkLogPersonChange(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	saved, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)

	swapped := saved
	swapped.Person = core.PersonMarty
	updated, err := ledger.UpdateWorkLog(ctx, swapped)
	require.NoError(t, err)
	require.Equal(t, "800", updated.Earnings.String())

	requireBalance(t, ledger, "400")
}

func TestLedger_DeleteWorkLogRevertsDeduction(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	saved, err := ledger.CreateWorkLog(ctx, maruShift(1, 2))
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteWorkLog(ctx, saved.ID))
	requireBalance(t, ledger, "0")
}

func TestLedger_DeleteWorkLogMissing(t *testing.T) {
	ledger, _ := newTestLedger()

	err := ledger.DeleteWorkLog(context.Background(), "no-such-id")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_UpdateFinanceRecordDeltas(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		change      func(r core.FinanceRecord) core.FinanceRecord
		wantBalance string
	}{
		{
			name:   "amount change",
			amount: 200,
			change: func(r core.FinanceRecord) core.FinanceRecord {
				r.Amount = decimal.NewFromInt(350)
				return r
			},
			wantBalance: "-350",
		},
		{
			name:   "type flip expense to income",
			amount: 200,
			change: func(r core.FinanceRecord) core.FinanceRecord {
				r.Type = core.Income
				return r
			},
			wantBalance: "200",
		},
		{
			name:   "currency leaves shared budget",
			amount: 200,
			change: func(r core.FinanceRecord) core.FinanceRecord {
				r.Currency = "EUR"
				return r
			},
			wantBalance: "0",
		},
		{
			name:   "no effective change",
			amount: 200,
			change: func(r core.FinanceRecord) core.FinanceRecord {
				r.Description = "renamed"
				return r
			},
			wantBalance: "-200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, _ := newTestLedger()
			ctx := context.Background()

			saved, err := ledger.CreateFinanceRecord(ctx, czk(t, core.Expense, tt.amount))
			require.NoError(t, err)
			requireBalance(t, ledger, "-200")

			_, err = ledger.UpdateFinanceRecord(ctx, tt.change(saved))
			require.NoError(t, err)
			requireBalance(t, ledger, tt.wantBalance)
		})
	}
}

func TestLedger_DeleteFinanceRecordReverts(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	saved, err := ledger.CreateFinanceRecord(ctx, czk(t, core.Expense, 200))
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteFinanceRecord(ctx, saved.ID))
	requireBalance(t, ledger, "0")
}

func TestLedger_ForeignCurrencyHasNoBudgetEffect(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	record := czk(t, core.Income, 1000)
	record.Currency = "EUR"
	_, err := ledger.CreateFinanceRecord(ctx, record)
	require.NoError(t, err)

	requireBalance(t, ledger, "0")
}

func TestLedger_ManualPaymentDebitsBudget(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	debt, err := ledger.CreateDebt(ctx, czkDebt(core.PersonMarty, 500, 5))
	require.NoError(t, err)

	_, err = ledger.CreatePayment(ctx, core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(200),
		Date:   core.NewDate(2024, 2, 1),
	})
	require.NoError(t, err)

	// Manual payments debit the budget even when it goes negative.
	requireBalance(t, ledger, "-200")
}

func TestLedger_PaymentBoundaries(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	debt, err := ledger.CreateDebt(ctx, czkDebt(core.PersonMarty, 500, 5))
	require.NoError(t, err)

	// Exactly the remaining amount settles the debt.
	_, err = ledger.CreatePayment(ctx, core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(500),
		Date:   core.NewDate(2024, 2, 1),
	})
	require.NoError(t, err)

	// A settled debt accepts no further payments.
	_, err = ledger.CreatePayment(ctx, core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(1),
		Date:   core.NewDate(2024, 2, 2),
	})
	require.ErrorIs(t, err, core.ErrPaymentExceedsRemaining)
}

func TestLedger_PaymentOverRemainingRejected(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()

	debt, err := ledger.CreateDebt(ctx, czkDebt(core.PersonMarty, 500, 5))
	require.NoError(t, err)

	over := decimal.NewFromInt(500).Add(decimal.NewFromFloat(0.01))
	_, err = ledger.CreatePayment(ctx, core.DebtPayment{
		DebtID: debt.ID,
		Amount: over,
		Date:   core.NewDate(2024, 2, 1),
	})
	require.ErrorIs(t, err, core.ErrPaymentExceedsRemaining)

	// Rejected before any write: no payment stored, budget untouched.
	payments, err := store.ListPaymentsForDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.Empty(t, payments)
	requireBalance(t, ledger, "0")
}

func TestLedger_PaymentForMissingDebt(t *testing.T) {
	ledger, _ := newTestLedger()

	_, err := ledger.CreatePayment(context.Background(), core.DebtPayment{
		DebtID: "no-such-debt",
		Amount: decimal.NewFromInt(100),
		Date:   core.NewDate(2024, 2, 1),
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_DeleteDebtCascadesPayments(t *testing.T) {
	ledger, store := newTestLedger()
	ctx := context.Background()

	debt, err := ledger.CreateDebt(ctx, czkDebt(core.PersonMarty, 500, 5))
	require.NoError(t, err)
	_, err = ledger.CreatePayment(ctx, core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(100),
		Date:   core.NewDate(2024, 2, 1),
	})
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteDebt(ctx, debt.ID))

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	require.Empty(t, payments)

	// Deleting a debt does not re-credit past payments.
	requireBalance(t, ledger, "-100")
}

func TestLedger_InvalidWorkLogRejected(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	bad := maruShift(1, 2)
	bad.Person = "someone"
	_, err := ledger.CreateWorkLog(ctx, bad)
	require.ErrorIs(t, err, core.ErrUnknownPerson)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	requireBalance(t, ledger, "0")
}

func TestLedger_BreakConsumesWholeShift(t *testing.T) {
	ledger, _ := newTestLedger()

	log := maruShift(1, 1)
	log.BreakMinutes = 60
	_, err := ledger.CreateWorkLog(context.Background(), log)
	require.ErrorIs(t, err, core.ErrNonPositiveDuration)
}

func TestLedger_BalanceEqualsSumOfDeltas(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.CreateWorkLog(ctx, maruShift(1, 2)) // +183
	require.NoError(t, err)
	_, err = ledger.CreateWorkLog(ctx, maruShift(2, 4)) // +367
	require.NoError(t, err)
	_, err = ledger.CreateFinanceRecord(ctx, czk(t, core.Expense, 200)) // -200
	require.NoError(t, err)
	_, err = ledger.CreateFinanceRecord(ctx, czk(t, core.Income, 50)) // +50
	require.NoError(t, err)

	requireBalance(t, ledger, "400")
}
