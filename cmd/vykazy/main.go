package main

import (
	"context"
	"fmt"
	"os"

	"vykazy/internal/amqp"
	"vykazy/internal/cli"
	"vykazy/internal/services"
	"vykazy/internal/storage"
)

// One-shot run: initialize the backend, apply defaults, run the rent check
// for today and print the current ledger state. Meant to be invoked from
// cron or by the UI shell on startup.
func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.LogLevel != "info" {
		logger = cli.SetupLogger(cfg.LogLevel)
	}

	store, cleanup := cli.InitStore(logger, cfg)
	defer cleanup()

	ctx := context.Background()

	var notifier services.Notifier
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			notifier = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	settings := services.NewSettings(store)
	if err := settings.EnsureDefaults(ctx); err != nil {
		logger.Error("Failed to apply default settings", "error", err)
		os.Exit(1)
	}

	ledger := services.NewLedger(store, notifier)
	scheduler := services.NewRentScheduler(store, ledger, settings)

	check, err := scheduler.Check(ctx)
	if err != nil {
		logger.Error("Rent check failed", "error", err)
		os.Exit(1)
	}
	if check.Configured {
		logger.Info("Rent check complete",
			"status", string(check.Status),
			"next_due", check.NextDue.Format("2006-01-02"),
			"paid_from_budget", check.PaidFromBudget,
			"debt_created", check.DebtCreated)
	}

	if err := printStatus(ctx, store, ledger); err != nil {
		logger.Error("Failed to read ledger state", "error", err)
		os.Exit(1)
	}
}

func printStatus(ctx context.Context, store storage.Store, ledger *services.Ledger) error {
	budget, err := ledger.Budget(ctx)
	if err != nil {
		return err
	}

	summary := services.NewSummary(store)
	finances, err := summary.FinanceSummary(ctx)
	if err != nil {
		return err
	}
	remaining, err := summary.RemainingByCurrency(ctx)
	if err != nil {
		return err
	}
	deductions, err := summary.MonthlyDeductions(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Shared budget: %s Kč\n", budget.Balance.String())
	fmt.Printf("Income: %s Kč, expenses: %s Kč\n", finances.Income.String(), finances.Expenses.String())
	for currency, total := range remaining {
		fmt.Printf("Outstanding debt: %s %s\n", total.String(), currency)
	}
	for _, d := range deductions {
		fmt.Printf("%d-%02d %s: earned %s, deducted %s\n",
			d.Year, d.Month, d.Person, d.TotalEarnings.String(), d.Deduction.String())
	}
	return nil
}
