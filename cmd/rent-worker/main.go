package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"vykazy/internal/amqp"
	"vykazy/internal/cli"
	"vykazy/internal/services"
)

// Interval between rent checks. The scheduler only acts on the configured
// due day and the paid-this-month guard makes repeated due-day runs after a
// successful payment no-ops, so a daily cadence is enough.
const checkInterval = 24 * time.Hour

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.LogLevel != "info" {
		logger = cli.SetupLogger(cfg.LogLevel)
	}

	logger.Info("Starting rent-worker")

	store, cleanup := cli.InitStore(logger, cfg)

	var notifier services.Notifier
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			amqpClient = client
			notifier = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	settings := services.NewSettings(store)
	ledger := services.NewLedger(store, notifier)
	scheduler := services.NewRentScheduler(store, ledger, settings)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			amqpClient.Close()
		}
		cleanup()
	})

	if err := settings.EnsureDefaults(ctx); err != nil {
		logger.Error("Failed to apply default settings", "error", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	// Run initial check on startup
	runCheck(ctx, logger, scheduler)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCheck(ctx, logger, scheduler)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

func runCheck(ctx context.Context, logger *slog.Logger, scheduler *services.RentScheduler) {
	check, err := scheduler.Check(ctx)
	if err != nil {
		logger.Error("Rent check failed", "error", err)
		return
	}
	if !check.Configured {
		logger.Info("Rent not configured, skipping check")
		return
	}
	logger.Info("Rent check complete",
		"status", string(check.Status),
		"next_due", check.NextDue.Format("2006-01-02"),
		"paid_from_budget", check.PaidFromBudget,
		"debt_created", check.DebtCreated)
}
