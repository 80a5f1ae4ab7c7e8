package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// Severity levels for operator-facing notifications. Errors are meant to stay
// on screen until dismissed; the other levels auto-dismiss in the UI.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// Notifier publishes events for the UI collaborator. The AMQP client
// implements it; a nil Notifier disables publishing.
type Notifier interface {
	PublishBudgetChanged(ctx context.Context, balance, delta decimal.Decimal) error
	PublishNotification(ctx context.Context, level, text string) error
}

func formatCZK(d decimal.Decimal) string {
	return d.String() + " Kč"
}
