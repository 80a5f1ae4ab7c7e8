package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vykazy/internal/core"
	"vykazy/internal/storage/memory"
)

func TestSettings_EnsureDefaults(t *testing.T) {
	settings := NewSettings(memory.New())
	ctx := context.Background()

	require.NoError(t, settings.EnsureDefaults(ctx))

	amount, ok, err := settings.RentAmount(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "24500", amount.String())

	day, ok, err := settings.RentDay(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, day)
}

func TestSettings_EnsureDefaultsRunsOnce(t *testing.T) {
	settings := NewSettings(memory.New())
	ctx := context.Background()

	require.NoError(t, settings.EnsureDefaults(ctx))
	require.NoError(t, settings.Set(ctx, core.SettingRentAmount, "30000"))

	// A second run must not reset user-changed values.
	require.NoError(t, settings.EnsureDefaults(ctx))

	amount, ok, err := settings.RentAmount(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "30000", amount.String())
}

func TestSettings_InvalidValuesReadAsUnset(t *testing.T) {
	settings := NewSettings(memory.New())
	ctx := context.Background()

	require.NoError(t, settings.Set(ctx, core.SettingRentAmount, "not-a-number"))
	require.NoError(t, settings.Set(ctx, core.SettingRentDay, "42"))

	_, ok, err := settings.RentAmount(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = settings.RentDay(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSettings_MissingKey(t *testing.T) {
	settings := NewSettings(memory.New())

	_, ok, err := settings.Get(context.Background(), core.SettingTheme)
	require.NoError(t, err)
	require.False(t, ok)
}
