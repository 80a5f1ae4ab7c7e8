package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"

	_ "modernc.org/sqlite"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// SQLiteRepository is the durable Store implementation. One repository owns
// one database file; per-statement writes are atomic, cascading deletes and
// ClearAll run inside explicit transactions.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func encodeDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}

func decodeDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func decodeAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// PutWorkLog creates or replaces a work log by id.
func (r *SQLiteRepository) PutWorkLog(ctx context.Context, w core.WorkLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO work_logs (id, person, activity, subcategory, note, start_time, end_time, break_minutes, duration_ms, earnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person = excluded.person,
			activity = excluded.activity,
			subcategory = excluded.subcategory,
			note = excluded.note,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_minutes = excluded.break_minutes,
			duration_ms = excluded.duration_ms,
			earnings = excluded.earnings`,
		w.ID, string(w.Person), w.Activity, w.Subcategory, w.Note,
		encodeTime(w.StartTime), encodeTime(w.EndTime),
		w.BreakMinutes, w.DurationMS, w.Earnings.String())
	if err != nil {
		return fmt.Errorf("put work log: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanWorkLog(row interface{ Scan(...any) error }) (core.WorkLog, error) {
	var (
		w                core.WorkLog
		person           string
		startRaw, endRaw string
		earningsRaw      string
	)
	if err := row.Scan(&w.ID, &person, &w.Activity, &w.Subcategory, &w.Note,
		&startRaw, &endRaw, &w.BreakMinutes, &w.DurationMS, &earningsRaw); err != nil {
		return core.WorkLog{}, err
	}
	w.Person = core.Person(person)

	var err error
	if w.StartTime, err = decodeTime(startRaw); err != nil {
		return core.WorkLog{}, fmt.Errorf("decode start time: %w", err)
	}
	if w.EndTime, err = decodeTime(endRaw); err != nil {
		return core.WorkLog{}, fmt.Errorf("decode end time: %w", err)
	}
	if w.Earnings, err = decodeAmount(earningsRaw); err != nil {
		return core.WorkLog{}, fmt.Errorf("decode earnings: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) GetWorkLog(ctx context.Context, id string) (core.WorkLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, person, activity, subcategory, note, start_time, end_time, break_minutes, duration_ms, earnings
		FROM work_logs WHERE id = ?`, id)
	w, err := r.scanWorkLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.WorkLog{}, fmt.Errorf("work log %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.WorkLog{}, fmt.Errorf("get work log: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) DeleteWorkLog(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM work_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete work log: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListWorkLogs(ctx context.Context, f WorkLogFilter) ([]core.WorkLog, error) {
	query := `
		SELECT id, person, activity, subcategory, note, start_time, end_time, break_minutes, duration_ms, earnings
		FROM work_logs WHERE 1=1`
	args := []any{}
	if f.Person != "" {
		query += ` AND person = ?`
		args = append(args, string(f.Person))
	}
	if f.Activity != "" {
		query += ` AND activity = ?`
		args = append(args, f.Activity)
	}
	if !f.From.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, encodeTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND start_time <= ?`
		args = append(args, encodeTime(f.To))
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work logs: %w", err)
	}
	defer rows.Close()

	var logs []core.WorkLog
	for rows.Next() {
		w, err := r.scanWorkLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work log: %w", err)
		}
		logs = append(logs, w)
	}
	return logs, rows.Err()
}

// PutFinanceRecord creates or replaces a finance record by id.
func (r *SQLiteRepository) PutFinanceRecord(ctx context.Context, rec core.FinanceRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO finance_records (id, type, date, description, category, amount, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			date = excluded.date,
			description = excluded.description,
			category = excluded.category,
			amount = excluded.amount,
			currency = excluded.currency,
			created_at = excluded.created_at`,
		rec.ID, string(rec.Type), encodeDate(rec.Date), rec.Description,
		rec.Category, rec.Amount.String(), rec.Currency, encodeTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("put finance record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanFinanceRecord(row interface{ Scan(...any) error }) (core.FinanceRecord, error) {
	var (
		rec                            core.FinanceRecord
		typ, dateRaw, amountRaw, atRaw string
	)
	if err := row.Scan(&rec.ID, &typ, &dateRaw, &rec.Description, &rec.Category,
		&amountRaw, &rec.Currency, &atRaw); err != nil {
		return core.FinanceRecord{}, err
	}
	rec.Type = core.RecordType(typ)

	var err error
	if rec.Date, err = decodeDate(dateRaw); err != nil {
		return core.FinanceRecord{}, fmt.Errorf("decode date: %w", err)
	}
	if rec.Amount, err = decodeAmount(amountRaw); err != nil {
		return core.FinanceRecord{}, fmt.Errorf("decode amount: %w", err)
	}
	if rec.CreatedAt, err = decodeTime(atRaw); err != nil {
		return core.FinanceRecord{}, fmt.Errorf("decode created at: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetFinanceRecord(ctx context.Context, id string) (core.FinanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, date, description, category, amount, currency, created_at
		FROM finance_records WHERE id = ?`, id)
	rec, err := r.scanFinanceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FinanceRecord{}, fmt.Errorf("finance record %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.FinanceRecord{}, fmt.Errorf("get finance record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) DeleteFinanceRecord(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM finance_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete finance record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListFinanceRecords(ctx context.Context) ([]core.FinanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, date, description, category, amount, currency, created_at
		FROM finance_records ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list finance records: %w", err)
	}
	defer rows.Close()

	var records []core.FinanceRecord
	for rows.Next() {
		rec, err := r.scanFinanceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PutDebt creates or replaces a debt by id.
func (r *SQLiteRepository) PutDebt(ctx context.Context, d core.Debt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debts (id, person, description, amount, currency, date, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person = excluded.person,
			description = excluded.description,
			amount = excluded.amount,
			currency = excluded.currency,
			date = excluded.date,
			due_date = excluded.due_date,
			created_at = excluded.created_at`,
		d.ID, string(d.Person), d.Description, d.Amount.String(), d.Currency,
		encodeDate(d.Date), encodeDate(d.DueDate), encodeTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("put debt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanDebt(row interface{ Scan(...any) error }) (core.Debt, error) {
	var (
		d                                  core.Debt
		person, amountRaw, dateRaw, dueRaw string
		atRaw                              string
	)
	if err := row.Scan(&d.ID, &person, &d.Description, &amountRaw, &d.Currency,
		&dateRaw, &dueRaw, &atRaw); err != nil {
		return core.Debt{}, err
	}
	d.Person = core.Person(person)

	var err error
	if d.Amount, err = decodeAmount(amountRaw); err != nil {
		return core.Debt{}, fmt.Errorf("decode amount: %w", err)
	}
	if d.Date, err = decodeDate(dateRaw); err != nil {
		return core.Debt{}, fmt.Errorf("decode date: %w", err)
	}
	if d.DueDate, err = decodeDate(dueRaw); err != nil {
		return core.Debt{}, fmt.Errorf("decode due date: %w", err)
	}
	if d.CreatedAt, err = decodeTime(atRaw); err != nil {
		return core.Debt{}, fmt.Errorf("decode created at: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, person, description, amount, currency, date, due_date, created_at
		FROM debts WHERE id = ?`, id)
	d, err := r.scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

// DeleteDebt removes the debt and all payments referencing it in one
// transaction.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete debt: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM debt_payments WHERE debt_id = ?`, id); err != nil {
		return fmt.Errorf("delete debt payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt deleted with its payments", "debt_id", id)
	return nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person, description, amount, currency, date, due_date, created_at
		FROM debts ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := r.scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// PutPayment creates or replaces a debt payment by id.
func (r *SQLiteRepository) PutPayment(ctx context.Context, p core.DebtPayment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debt_payments (id, debt_id, amount, date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			debt_id = excluded.debt_id,
			amount = excluded.amount,
			date = excluded.date,
			note = excluded.note,
			created_at = excluded.created_at`,
		p.ID, p.DebtID, p.Amount.String(), encodeDate(p.Date), p.Note, encodeTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("put payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) listPayments(ctx context.Context, query string, args ...any) ([]core.DebtPayment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.DebtPayment
	for rows.Next() {
		var (
			p                         core.DebtPayment
			amountRaw, dateRaw, atRaw string
		)
		if err := rows.Scan(&p.ID, &p.DebtID, &amountRaw, &dateRaw, &p.Note, &atRaw); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = decodeAmount(amountRaw); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		if p.Date, err = decodeDate(dateRaw); err != nil {
			return nil, fmt.Errorf("decode date: %w", err)
		}
		if p.CreatedAt, err = decodeTime(atRaw); err != nil {
			return nil, fmt.Errorf("decode created at: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.DebtPayment, error) {
	return r.listPayments(ctx, `
		SELECT id, debt_id, amount, date, note, created_at
		FROM debt_payments ORDER BY date, created_at`)
}

func (r *SQLiteRepository) ListPaymentsForDebt(ctx context.Context, debtID string) ([]core.DebtPayment, error) {
	return r.listPayments(ctx, `
		SELECT id, debt_id, amount, date, note, created_at
		FROM debt_payments WHERE debt_id = ? ORDER BY date, created_at`, debtID)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context) (core.SharedBudget, error) {
	var balanceRaw, updatedRaw string
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, last_updated FROM shared_budget WHERE id = 1`).
		Scan(&balanceRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent budget reads as zero balance.
		return core.SharedBudget{Balance: decimal.Zero}, nil
	}
	if err != nil {
		return core.SharedBudget{}, fmt.Errorf("get budget: %w", err)
	}

	var b core.SharedBudget
	if b.Balance, err = decodeAmount(balanceRaw); err != nil {
		return core.SharedBudget{}, fmt.Errorf("decode balance: %w", err)
	}
	if b.LastUpdated, err = decodeTime(updatedRaw); err != nil {
		return core.SharedBudget{}, fmt.Errorf("decode last updated: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) PutBudget(ctx context.Context, b core.SharedBudget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shared_budget (id, balance, last_updated) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			balance = excluded.balance,
			last_updated = excluded.last_updated`,
		b.Balance.String(), encodeTime(b.LastUpdated))
	if err != nil {
		return fmt.Errorf("put budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// ClearAll wipes every collection in one transaction. Used by snapshot
// import before replay.
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"work_logs", "finance_records", "debts", "debt_payments", "settings", "shared_budget"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	slog.InfoContext(ctx, "All collections cleared")
	return nil
}
