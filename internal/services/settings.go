package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"vykazy/internal/core"
	"vykazy/internal/storage"
)

// First-run defaults, applied once by EnsureDefaults.
const (
	DefaultRentAmount = 24500
	DefaultRentDay    = 1
)

// Settings wraps the key-value settings store with typed accessors for the
// values the rent scheduler depends on.
type Settings struct {
	store storage.SettingsStore
}

func NewSettings(store storage.SettingsStore) *Settings {
	return &Settings{store: store}
}

func (s *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", false, core.Storef("read setting", err)
	}
	return value, ok, nil
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return core.Storef("write setting", err)
	}
	return nil
}

// RentAmount returns the configured monthly rent, or ok=false when unset or
// unparseable.
func (s *Settings) RentAmount(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, ok, err := s.Get(ctx, core.SettingRentAmount)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	amount, perr := decimal.NewFromString(raw)
	if perr != nil || !amount.IsPositive() {
		slog.Warn("Ignoring invalid rentAmount setting", "value", raw)
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}

// RentDay returns the configured due day of month (1-31), or ok=false when
// unset or out of range.
func (s *Settings) RentDay(ctx context.Context) (int, bool, error) {
	raw, ok, err := s.Get(ctx, core.SettingRentDay)
	if err != nil || !ok {
		return 0, false, err
	}
	day, perr := strconv.Atoi(raw)
	if perr != nil || day < 1 || day > 31 {
		slog.Warn("Ignoring invalid rentDay setting", "value", raw)
		return 0, false, nil
	}
	return day, true, nil
}

// EnsureDefaults seeds the first-run settings exactly once, guarded by the
// initialized flag.
func (s *Settings) EnsureDefaults(ctx context.Context) error {
	_, ok, err := s.Get(ctx, core.SettingInitialized)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	if err := s.Set(ctx, core.SettingRentAmount, strconv.Itoa(DefaultRentAmount)); err != nil {
		return err
	}
	if err := s.Set(ctx, core.SettingRentDay, strconv.Itoa(DefaultRentDay)); err != nil {
		return err
	}
	if err := s.Set(ctx, core.SettingInitialized, "true"); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Default settings initialized",
		"rent_amount", DefaultRentAmount,
		"rent_day", DefaultRentDay)
	return nil
}
