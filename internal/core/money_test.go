package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWorkDuration(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		end  time.Time
		brk  int64
		out  int64
		ok   bool
	}{
		{"two hours", start.Add(2 * time.Hour), 0, 7200000, true},
		{"with break", start.Add(2 * time.Hour), 30, 5400000, true},
		{"break eats everything", start.Add(30 * time.Minute), 30, 0, false},
		{"end before start", start.Add(-time.Hour), 0, 0, false},
		{"negative break", start.Add(time.Hour), -5, 0, false},
	}
	for _, tc := range cases {
		got, err := WorkDuration(start, tc.end, tc.brk)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%s: expected %d, got %d (err=%v)", tc.name, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestEarningsFor(t *testing.T) {
	cases := []struct {
		person Person
		ms     int64
		out    string
	}{
		{PersonMaru, 7200000, "550"},  // 2h at 275
		{PersonMarty, 5400000, "600"}, // 1.5h at 400
		{PersonMaru, 3300000, "252"},  // 55min at 275 = 252.08 rounded
	}
	for _, tc := range cases {
		got, err := EarningsFor(tc.person, tc.ms)
		if err != nil {
			t.Fatalf("%s/%d: %v", tc.person, tc.ms, err)
		}
		if got.String() != tc.out {
			t.Fatalf("%s/%d: expected %s, got %s", tc.person, tc.ms, tc.out, got)
		}
	}
	if _, err := EarningsFor(Person("nobody"), 1000); err == nil {
		t.Fatal("expected error for unknown person")
	}
}

func TestDeductionFor(t *testing.T) {
	cases := []struct {
		person   Person
		earnings int64
		out      string
	}{
		{PersonMaru, 550, "183"}, // round(550 x 0.3333)
		{PersonMaru, 900, "300"},
		{PersonMarty, 550, "275"},
		{PersonMarty, 401, "201"}, // round(200.5) away from zero
	}
	for _, tc := range cases {
		got, err := DeductionFor(tc.person, decimal.NewFromInt(tc.earnings))
		if err != nil {
			t.Fatalf("%s/%d: %v", tc.person, tc.earnings, err)
		}
		if got.String() != tc.out {
			t.Fatalf("%s/%d: expected %s, got %s", tc.person, tc.earnings, tc.out, got)
		}
	}
}

func TestFinanceDelta(t *testing.T) {
	cases := []struct {
		typ      RecordType
		currency string
		out      string
	}{
		{Income, "CZK", "200"},
		{Expense, "CZK", "-200"},
		{Income, "EUR", "0"},
		{Expense, "EUR", "0"},
	}
	for i, tc := range cases {
		r := FinanceRecord{Type: tc.typ, Currency: tc.currency, Amount: decimal.NewFromInt(200)}
		if got := r.FinanceDelta(); got.String() != tc.out {
			t.Fatalf("case %d: expected %s, got %s", i, tc.out, got)
		}
	}
}
