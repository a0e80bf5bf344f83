package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"moni/internal/auth"
	"moni/internal/backend"
	"moni/internal/config"
	applog "moni/internal/log"
	"moni/internal/stores"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
		Handler:   newHandler(),
	})
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	be, err := factory.Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer be.Close()

	set := stores.NewSet(be.Auth, be.Docs, be.Events)
	defer set.Close()

	// Log auth transitions for the lifetime of the process.
	unsubscribe := be.Auth.Subscribe(func(id *auth.Identity) {
		if id == nil {
			logger.Info("Signed out")
			return
		}
		logger.Info("Signed in", "uid", id.UID, "email", id.Email)
	})
	defer unsubscribe()

	if email := os.Getenv("MONI_EMAIL"); email != "" {
		bootstrap(ctx, logger, set, email, os.Getenv("MONI_PASSWORD"))
	}

	logger.Info("Store layer running", "backend", cfg.DataBackend, "events", be.Events != nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
}

// bootstrap signs in with the configured credentials and performs the initial
// full fetch of every collection, logging a small summary.
func bootstrap(ctx context.Context, logger *applog.Logger, set *stores.Set, email, password string) {
	if err := set.Session.SignIn(ctx, email, password); err != nil {
		logger.Error("Bootstrap sign-in failed", "email", email, "error", err)
		return
	}

	if err := set.Budgets.FetchBudgets(ctx); err != nil {
		logger.Error("Initial budget fetch failed", "error", err)
		return
	}
	// Expenses refresh the group cache themselves before querying.
	if err := set.Expenses.FetchExpenses(ctx); err != nil {
		logger.Error("Initial expense fetch failed", "error", err)
		return
	}
	if err := set.Incomes.FetchIncomes(ctx); err != nil {
		logger.Error("Initial income fetch failed", "error", err)
		return
	}

	logger.Info("Initial fetch complete",
		"groups", len(set.Groups.Groups()),
		"budgets", len(set.Budgets.Budgets()),
		"expenses", len(set.Expenses.Expenses()),
		"incomes", len(set.Incomes.Incomes()),
		"pending_shared", len(set.Expenses.PendingSharedExpenses()),
	)
	for _, bucket := range set.Incomes.MonthlyTotals() {
		logger.Info("Monthly income", "month", bucket.Label, "total", bucket.Total)
	}
}

func newHandler() slog.Handler {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
}
