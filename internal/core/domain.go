package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SharedCurrency is the only currency that affects the shared budget.
// Records in other currencies are tracked but never produce a budget delta.
const SharedCurrency = "CZK"

const (
	Income  RecordType = "income"
	Expense RecordType = "expense"
)

const (
	PersonMaru  Person = "maru"
	PersonMarty Person = "marty"
)

// Settings keys understood by the application.
const (
	SettingRentAmount  = "rentAmount"
	SettingRentDay     = "rentDay"
	SettingTheme       = "theme"
	SettingColorTheme  = "colorTheme"
	SettingInitialized = "initialized"
)

type (
	Person string

	RecordType string

	Date struct {
		time.Time
	}

	// WorkLog is one billed block of work for a person. Duration and
	// earnings are derived: duration = end - start - break, earnings =
	// round(duration in hours x hourly rate).
	WorkLog struct {
		ID           string          `json:"id"`
		Person       Person          `json:"person"`
		Activity     string          `json:"activity"`
		Subcategory  string          `json:"subcategory,omitempty"`
		Note         string          `json:"note,omitempty"`
		StartTime    time.Time       `json:"startTime"`
		EndTime      time.Time       `json:"endTime"`
		BreakMinutes int64           `json:"breakTime"`
		DurationMS   int64           `json:"duration"`
		Earnings     decimal.Decimal `json:"earnings"`
	}

	FinanceRecord struct {
		ID          string          `json:"id"`
		Type        RecordType      `json:"type"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// Debt is the owning aggregate of its payment set. Settlement never
	// mutates a debt; payments accrue against it and the remaining amount
	// is always recomputed from them.
	Debt struct {
		ID          string          `json:"id"`
		Person      Person          `json:"person"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Date        Date            `json:"date"`
		DueDate     Date            `json:"dueDate,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// DebtPayment references its debt by id only; deleting a debt cascades
	// over its payments.
	DebtPayment struct {
		ID        string          `json:"id"`
		DebtID    string          `json:"debtId"`
		Amount    decimal.Decimal `json:"amount"`
		Date      Date            `json:"date"`
		Note      string          `json:"note,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// SharedBudget is a singleton. A missing record reads as a zero balance.
	SharedBudget struct {
		Balance     decimal.Decimal `json:"balance"`
		LastUpdated time.Time       `json:"lastUpdated"`
	}
)

var (
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrInvalidDate             = errors.New("invalid date")
	ErrEmptyDescription        = errors.New("empty description")
	ErrUnknownPerson           = errors.New("unknown person")
	ErrInvalidRecordType       = errors.New("record type must be income or expense")
	ErrEmptyCurrency           = errors.New("empty currency")
	ErrEndBeforeStart          = errors.New("end time must be after start time")
	ErrNegativeBreak           = errors.New("break time cannot be negative")
	ErrNonPositiveDuration     = errors.New("duration must be positive")
	ErrMissingSelection        = errors.New("missing required selection")
	ErrPaymentExceedsRemaining = errors.New("payment exceeds remaining debt")
	ErrNotFound                = errors.New("record not found")
)

func (p Person) Valid() bool {
	switch p {
	case PersonMaru, PersonMarty:
		return true
	default:
		return false
	}
}

func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a calendar date (midnight UTC).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// IsEmpty reports whether the date is unset (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// SameMonth reports whether the date falls in the given calendar month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

// MarshalJSON encodes the date as "2006-01-02", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts "2006-01-02", null and the empty string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

func (w WorkLog) Validate() error {
	if !w.Person.Valid() {
		return ErrUnknownPerson
	}
	if strings.TrimSpace(w.Activity) == "" {
		return ErrMissingSelection
	}
	if w.StartTime.IsZero() || w.EndTime.IsZero() {
		return ErrInvalidDate
	}
	if !w.EndTime.After(w.StartTime) {
		return ErrEndBeforeStart
	}
	if w.BreakMinutes < 0 {
		return ErrNegativeBreak
	}
	if _, err := WorkDuration(w.StartTime, w.EndTime, w.BreakMinutes); err != nil {
		return err
	}
	return nil
}

func (r FinanceRecord) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidRecordType
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (d Debt) Validate() error {
	if !d.Person.Valid() {
		return ErrUnknownPerson
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Currency) == "" {
		return ErrEmptyCurrency
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (p DebtPayment) Validate() error {
	if strings.TrimSpace(p.DebtID) == "" {
		return ErrMissingSelection
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Remaining returns the debt principal minus the sum of the given payments.
// Payments recorded against other debts are ignored.
func (d Debt) Remaining(payments []DebtPayment) decimal.Decimal {
	remaining := d.Amount
	for _, p := range payments {
		if p.DebtID == d.ID {
			remaining = remaining.Sub(p.Amount)
		}
	}
	return remaining
}
