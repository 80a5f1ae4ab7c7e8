package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

// Snapshot is the full export format: all five collections plus settings and
// the budget record. Field names follow the persisted JSON layout.
type Snapshot struct {
	WorkLogs       []core.WorkLog       `json:"workLogs"`
	FinanceRecords []core.FinanceRecord `json:"financeRecords"`
	Debts          []core.Debt          `json:"debts"`
	DebtPayments   []core.DebtPayment   `json:"debtPayments"`
	Settings       map[string]string    `json:"settings"`
	SharedBudget   core.SharedBudget    `json:"sharedBudget"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Backup exports and restores full snapshots of the data set.
type Backup struct {
	store  storage.Store
	ledger *Ledger
}

func NewBackup(store storage.Store, ledger *Ledger) *Backup {
	return &Backup{store: store, ledger: ledger}
}

// Export reads all collections concurrently and assembles a snapshot.
func (b *Backup) Export(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.WorkLogs, err = b.store.ListWorkLogs(gctx, storage.WorkLogFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.FinanceRecords, err = b.store.ListFinanceRecords(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Debts, err = b.store.ListDebts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.DebtPayments, err = b.store.ListPayments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Settings, err = b.store.ListSettings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.SharedBudget, err = b.store.GetBudget(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, core.Storef("export snapshot", err)
	}

	// Empty collections export as [], so a round trip through Import always
	// passes its completeness check.
	if snap.WorkLogs == nil {
		snap.WorkLogs = []core.WorkLog{}
	}
	if snap.FinanceRecords == nil {
		snap.FinanceRecords = []core.FinanceRecord{}
	}
	if snap.Debts == nil {
		snap.Debts = []core.Debt{}
	}
	if snap.DebtPayments == nil {
		snap.DebtPayments = []core.DebtPayment{}
	}
	if snap.Settings == nil {
		snap.Settings = map[string]string{}
	}

	snap.CreatedAt = time.Now()
	return snap, nil
}

// Import atomically replaces the whole data set with the snapshot. Entities
// are replayed through the normal creation arithmetic so the budget balance
// is recomputed from scratch rather than trusted from the snapshot; the
// snapshot's payments already encode past settlements, so no sweep runs
// during replay.
//
// The snapshot is validated up front and the import aborts before clearing
// anything when it is incomplete or contains invalid records.
func (b *Backup) Import(ctx context.Context, snap Snapshot) error {
	if snap.WorkLogs == nil || snap.FinanceRecords == nil || snap.Debts == nil || snap.DebtPayments == nil {
		return &core.ConsistencyError{Reason: "snapshot is missing required collections"}
	}

	l := b.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate everything before the destructive clear.
	logs := make([]core.WorkLog, 0, len(snap.WorkLogs))
	for _, w := range snap.WorkLogs {
		prepared, err := l.prepareWorkLog(w)
		if err != nil {
			return &core.ConsistencyError{Reason: "invalid work log in snapshot: " + err.Error()}
		}
		logs = append(logs, prepared)
	}
	records := make([]core.FinanceRecord, 0, len(snap.FinanceRecords))
	for _, r := range snap.FinanceRecords {
		prepared, err := l.prepareFinanceRecord(r)
		if err != nil {
			return &core.ConsistencyError{Reason: "invalid finance record in snapshot: " + err.Error()}
		}
		records = append(records, prepared)
	}
	debts := make([]core.Debt, 0, len(snap.Debts))
	for _, d := range snap.Debts {
		prepared, err := l.prepareDebt(d)
		if err != nil {
			return &core.ConsistencyError{Reason: "invalid debt in snapshot: " + err.Error()}
		}
		debts = append(debts, prepared)
	}
	for _, p := range snap.DebtPayments {
		if err := p.Validate(); err != nil {
			return &core.ConsistencyError{Reason: "invalid debt payment in snapshot: " + err.Error()}
		}
	}

	if err := b.store.ClearAll(ctx); err != nil {
		return core.Storef("clear collections", err)
	}

	for _, w := range logs {
		if err := b.store.PutWorkLog(ctx, w); err != nil {
			return core.Storef("restore work log", err)
		}
		deduction, err := core.DeductionFor(w.Person, w.Earnings)
		if err != nil {
			return core.Invalid(err)
		}
		if err := l.applyDelta(ctx, deduction, false); err != nil {
			return err
		}
	}

	for _, r := range records {
		if err := b.store.PutFinanceRecord(ctx, r); err != nil {
			return core.Storef("restore finance record", err)
		}
		if delta := r.FinanceDelta(); !delta.IsZero() {
			if err := l.applyDelta(ctx, delta, false); err != nil {
				return err
			}
		}
	}

	for _, d := range debts {
		if err := b.store.PutDebt(ctx, d); err != nil {
			return core.Storef("restore debt", err)
		}
	}

	for _, p := range snap.DebtPayments {
		if err := b.store.PutPayment(ctx, p); err != nil {
			return core.Storef("restore payment", err)
		}
		if err := l.applyDelta(ctx, p.Amount.Neg(), false); err != nil {
			return err
		}
	}

	for key, value := range snap.Settings {
		if err := b.store.SetSetting(ctx, key, value); err != nil {
			return core.Storef("restore setting", err)
		}
	}
	if err := b.store.SetSetting(ctx, core.SettingInitialized, "true"); err != nil {
		return core.Storef("restore setting", err)
	}

	budget, err := b.store.GetBudget(ctx)
	if err != nil {
		return core.Storef("read budget", err)
	}
	if !budget.Balance.Equal(snap.SharedBudget.Balance) {
		slog.WarnContext(ctx, "Snapshot budget differs from recomputed balance, keeping recomputed value",
			"snapshot", snap.SharedBudget.Balance.String(),
			"recomputed", budget.Balance.String())
	}

	slog.InfoContext(ctx, "Snapshot imported",
		"work_logs", len(logs),
		"finance_records", len(records),
		"debts", len(debts),
		"payments", len(snap.DebtPayments),
		"balance", budget.Balance.String())
	return nil
}
