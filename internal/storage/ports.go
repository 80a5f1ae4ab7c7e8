package storage

import (
	"context"
	"time"

	"vykazy/internal/core"
)

// WorkLogFilter narrows ListWorkLogs. Zero fields are ignored; the date range
// matches on the log's start time.
type WorkLogFilter struct {
	Person   core.Person
	Activity string
	From     time.Time
	To       time.Time
}

// Ports for the persistence layer. The ledger and the query services only
// ever talk to these interfaces; the SQLite repository and the in-memory
// store both implement Store.
type (
	WorkLogStore interface {
		PutWorkLog(ctx context.Context, w core.WorkLog) error
		GetWorkLog(ctx context.Context, id string) (core.WorkLog, error)
		DeleteWorkLog(ctx context.Context, id string) error
		ListWorkLogs(ctx context.Context, f WorkLogFilter) ([]core.WorkLog, error)
	}

	FinanceStore interface {
		PutFinanceRecord(ctx context.Context, r core.FinanceRecord) error
		GetFinanceRecord(ctx context.Context, id string) (core.FinanceRecord, error)
		DeleteFinanceRecord(ctx context.Context, id string) error
		ListFinanceRecords(ctx context.Context) ([]core.FinanceRecord, error)
	}

	// DebtStore owns both debts and their payments. DeleteDebt cascades
	// over the payment set atomically: a partial failure never leaves a
	// payment referencing a missing debt.
	DebtStore interface {
		PutDebt(ctx context.Context, d core.Debt) error
		GetDebt(ctx context.Context, id string) (core.Debt, error)
		DeleteDebt(ctx context.Context, id string) error
		ListDebts(ctx context.Context) ([]core.Debt, error)

		PutPayment(ctx context.Context, p core.DebtPayment) error
		ListPayments(ctx context.Context) ([]core.DebtPayment, error)
		ListPaymentsForDebt(ctx context.Context, debtID string) ([]core.DebtPayment, error)
	}

	// BudgetStore holds the singleton budget record. GetBudget returns a
	// zero balance when no record exists yet.
	BudgetStore interface {
		GetBudget(ctx context.Context) (core.SharedBudget, error)
		PutBudget(ctx context.Context, b core.SharedBudget) error
	}

	SettingsStore interface {
		GetSetting(ctx context.Context, key string) (string, bool, error)
		SetSetting(ctx context.Context, key, value string) error
		ListSettings(ctx context.Context) (map[string]string, error)
	}

	Store interface {
		WorkLogStore
		FinanceStore
		DebtStore
		BudgetStore
		SettingsStore

		// ClearAll wipes every collection, the settings and the budget in
		// one atomic operation. Used by snapshot import.
		ClearAll(ctx context.Context) error
	}
)
