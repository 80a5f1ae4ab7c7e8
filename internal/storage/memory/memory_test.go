package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

// The memory store must behave like the SQLite repository; these tests cover
// the semantics the services depend on.

func TestStore_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetWorkLog(ctx, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetWorkLog() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetFinanceRecord(ctx, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetFinanceRecord() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetDebt(ctx, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetDebt() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListWorkLogsSortedAndFiltered(t *testing.T) {
	s := New()
	ctx := context.Background()

	put := func(id string, person core.Person, day int) {
		start := time.Date(2024, 2, day, 9, 0, 0, 0, time.UTC)
		if err := s.PutWorkLog(ctx, core.WorkLog{
			ID: id, Person: person, Activity: "práce",
			StartTime: start, EndTime: start.Add(time.Hour),
		}); err != nil {
			t.Fatalf("PutWorkLog(%s) error = %v", id, err)
		}
	}
	put("late", core.PersonMaru, 20)
	put("early", core.PersonMaru, 1)
	put("other", core.PersonMarty, 10)

	logs, err := s.ListWorkLogs(ctx, storage.WorkLogFilter{Person: core.PersonMaru})
	if err != nil {
		t.Fatalf("ListWorkLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].ID != "early" || logs[1].ID != "late" {
		t.Errorf("ListWorkLogs() = %+v, want early then late", logs)
	}
}

func TestStore_DebtCascadeDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PutDebt(ctx, core.Debt{ID: "d-1", Amount: decimal.NewFromInt(500)}); err != nil {
		t.Fatalf("PutDebt() error = %v", err)
	}
	if err := s.PutDebt(ctx, core.Debt{ID: "d-2", Amount: decimal.NewFromInt(300)}); err != nil {
		t.Fatalf("PutDebt() error = %v", err)
	}
	for id, debtID := range map[string]string{"p-1": "d-1", "p-2": "d-1", "p-3": "d-2"} {
		if err := s.PutPayment(ctx, core.DebtPayment{
			ID: id, DebtID: debtID,
			Amount: decimal.NewFromInt(50),
			Date:   core.NewDate(2024, 2, 1),
		}); err != nil {
			t.Fatalf("PutPayment(%s) error = %v", id, err)
		}
	}

	if err := s.DeleteDebt(ctx, "d-1"); err != nil {
		t.Fatalf("DeleteDebt() error = %v", err)
	}

	payments, err := s.ListPayments(ctx)
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(payments) != 1 || payments[0].DebtID != "d-2" {
		t.Errorf("ListPayments() after cascade = %+v, want only d-2's payment", payments)
	}
}

func TestStore_BudgetDefaultsToZero(t *testing.T) {
	s := New()
	ctx := context.Background()

	budget, err := s.GetBudget(ctx)
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if !budget.Balance.IsZero() {
		t.Errorf("GetBudget() = %s, want 0", budget.Balance)
	}

	if err := s.PutBudget(ctx, core.SharedBudget{Balance: decimal.NewFromInt(83)}); err != nil {
		t.Fatalf("PutBudget() error = %v", err)
	}
	budget, err = s.GetBudget(ctx)
	if err != nil || budget.Balance.String() != "83" {
		t.Errorf("GetBudget() = %s, %v, want 83", budget.Balance, err)
	}
}

func TestStore_ListSettingsReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	settings, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings() error = %v", err)
	}
	settings["theme"] = "light"

	value, ok, err := s.GetSetting(ctx, "theme")
	if err != nil || !ok || value != "dark" {
		t.Errorf("GetSetting() = (%q, %v, %v), mutation through ListSettings leaked", value, ok, err)
	}
}

func TestStore_ClearAll(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PutWorkLog(ctx, core.WorkLog{ID: "w-1", Person: core.PersonMaru}); err != nil {
		t.Fatalf("PutWorkLog() error = %v", err)
	}
	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if err := s.PutBudget(ctx, core.SharedBudget{Balance: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("PutBudget() error = %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	logs, err := s.ListWorkLogs(ctx, storage.WorkLogFilter{})
	if err != nil || len(logs) != 0 {
		t.Errorf("ListWorkLogs() after clear = %v, %v", logs, err)
	}
	budget, err := s.GetBudget(ctx)
	if err != nil || !budget.Balance.IsZero() {
		t.Errorf("GetBudget() after clear = %s, %v", budget.Balance, err)
	}
}
