// Command reconcile inspects and repairs the links between invoices and inspection reports.
//
//	reconcile analyze
//	reconcile fix -dry-run
//	reconcile fix
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/repairshop/backend/internal/infrastructure/cache"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	os.Exit(reconcile(os.Args[1:]))
}

// reconcile runs the CLI and returns the process exit code. Deferred cleanup runs before
// main exits.
func reconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Report what fix would link without writing (fix only)")
	window := fs.Int("window", 0, "Client/date proximity window in days (default from config)")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	fs.Usage = usage

	if len(args) < 1 {
		usage()
		return 2
	}
	command := args[0]
	_ = fs.Parse(args[1:])

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, log, command, *dryRun, *window)
	switch code := exitCode(err); code {
	case 0:
	case 3:
		fmt.Fprintln(os.Stderr, errStyle.Render("Another linking run is in progress; try again later."))
		return code
	default:
		log.Error("reconcile failed", zap.String("command", command), zap.Error(err))
		return code
	}
	return 0
}

// exitCode is 0 on success, 3 when another run holds the lock and 1 otherwise
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, reconciliation.ErrReconciliationLocked):
		return 3
	}
	return 1
}

func run(ctx context.Context, log *zap.Logger, command string, dryRun bool, window int) error {
	if command != "analyze" && command != "fix" {
		usage()
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormlogger.Warn)
	if err != nil {
		return err
	}
	defer db.Close()

	if window <= 0 {
		window = cfg.Reconciliation.DateWindowDays
	}
	opts := []reconciliation.Option{reconciliation.WithDateWindow(window)}

	// The lock keeps this run and the API's fix endpoint from linking at the same time, so it
	// has to be Redis; an in-memory lock would only guard this process.
	if command == "fix" && !dryRun && cfg.Reconciliation.LockEnabled {
		backend, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(false)).Create(ctx)
		if err != nil {
			return fmt.Errorf("run lock unavailable: %w", err)
		}
		defer backend.Close()
		opts = append(opts, reconciliation.WithLocker(backend.Locker, cfg.Reconciliation.LockTTL))
	}

	engine := reconciliation.NewEngine(persistence.NewGormReconciliationStore(db.DB), log, opts...)

	switch command {
	case "analyze":
		analysis, err := engine.Analyze(ctx)
		if err != nil {
			return err
		}
		renderAnalysis(os.Stdout, analysis)
	case "fix":
		start := time.Now()
		result, err := engine.FixLinking(ctx, dryRun)
		if err != nil {
			return err
		}
		renderFix(os.Stdout, result)
		log.Info("linking run finished", zap.Bool("dry_run", dryRun), zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  reconcile analyze              Count links and list unlinked invoices, reports and items
  reconcile fix [-dry-run]       Run the linking strategies

Flags:
  -dry-run            Preview fix without writing
  -window int         Client/date proximity window in days (default from config)
  -log-level string   debug, info, warn, error (default: warn)`)
}
