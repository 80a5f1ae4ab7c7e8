// Package memory provides an in-process Store implementation. It backs the
// "memory" data backend and the service tests; semantics mirror the SQLite
// repository, including the atomic debt+payments cascade delete.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	workLogs map[string]core.WorkLog
	finances map[string]core.FinanceRecord
	debts    map[string]core.Debt
	payments map[string]core.DebtPayment
	settings map[string]string
	budget   *core.SharedBudget
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.workLogs = make(map[string]core.WorkLog)
	s.finances = make(map[string]core.FinanceRecord)
	s.debts = make(map[string]core.Debt)
	s.payments = make(map[string]core.DebtPayment)
	s.settings = make(map[string]string)
	s.budget = nil
}

func (s *Store) PutWorkLog(_ context.Context, w core.WorkLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workLogs[w.ID] = w
	return nil
}

func (s *Store) GetWorkLog(_ context.Context, id string) (core.WorkLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workLogs[id]
	if !ok {
		return core.WorkLog{}, fmt.Errorf("work log %s: %w", id, core.ErrNotFound)
	}
	return w, nil
}

func (s *Store) DeleteWorkLog(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workLogs, id)
	return nil
}

func (s *Store) ListWorkLogs(_ context.Context, f storage.WorkLogFilter) ([]core.WorkLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []core.WorkLog
	for _, w := range s.workLogs {
		if f.Person != "" && w.Person != f.Person {
			continue
		}
		if f.Activity != "" && w.Activity != f.Activity {
			continue
		}
		if !f.From.IsZero() && w.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && w.StartTime.After(f.To) {
			continue
		}
		logs = append(logs, w)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartTime.Before(logs[j].StartTime) })
	return logs, nil
}

func (s *Store) PutFinanceRecord(_ context.Context, r core.FinanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finances[r.ID] = r
	return nil
}

func (s *Store) GetFinanceRecord(_ context.Context, id string) (core.FinanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.finances[id]
	if !ok {
		return core.FinanceRecord{}, fmt.Errorf("finance record %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) DeleteFinanceRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.finances, id)
	return nil
}

func (s *Store) ListFinanceRecords(_ context.Context) ([]core.FinanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []core.FinanceRecord
	for _, r := range s.finances {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date.Time) {
			return records[i].Date.Before(records[j].Date.Time)
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Store) PutDebt(_ context.Context, d core.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debts[d.ID] = d
	return nil
}

func (s *Store) GetDebt(_ context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	return d, nil
}

// DeleteDebt removes the debt and every payment referencing it under one
// lock, so no reader ever observes an orphaned payment.
func (s *Store) DeleteDebt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.debts, id)
	for pid, p := range s.payments {
		if p.DebtID == id {
			delete(s.payments, pid)
		}
	}
	return nil
}

func (s *Store) ListDebts(_ context.Context) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var debts []core.Debt
	for _, d := range s.debts {
		debts = append(debts, d)
	}
	sort.Slice(debts, func(i, j int) bool {
		if !debts[i].Date.Equal(debts[j].Date.Time) {
			return debts[i].Date.Before(debts[j].Date.Time)
		}
		return debts[i].CreatedAt.Before(debts[j].CreatedAt)
	})
	return debts, nil
}

func (s *Store) PutPayment(_ context.Context, p core.DebtPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *Store) listPayments(filter func(core.DebtPayment) bool) []core.DebtPayment {
	var payments []core.DebtPayment
	for _, p := range s.payments {
		if filter == nil || filter(p) {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].Date.Equal(payments[j].Date.Time) {
			return payments[i].Date.Before(payments[j].Date.Time)
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments
}

func (s *Store) ListPayments(_ context.Context) ([]core.DebtPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPayments(nil), nil
}

func (s *Store) ListPaymentsForDebt(_ context.Context, debtID string) ([]core.DebtPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPayments(func(p core.DebtPayment) bool { return p.DebtID == debtID }), nil
}

func (s *Store) GetBudget(_ context.Context) (core.SharedBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		return core.SharedBudget{Balance: decimal.Zero}, nil
	}
	return *s.budget, nil
}

func (s *Store) PutBudget(_ context.Context, b core.SharedBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = &b
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) ListSettings(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		settings[k] = v
	}
	return settings, nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
