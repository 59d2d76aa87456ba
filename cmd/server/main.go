package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	appevent "github.com/repairshop/backend/internal/application/event"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	appnotification "github.com/repairshop/backend/internal/application/notification"
	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/repairshop/backend/internal/infrastructure/cache"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"github.com/repairshop/backend/internal/infrastructure/event"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/notification"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/repairshop/backend/internal/infrastructure/scheduler"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"github.com/repairshop/backend/internal/interfaces/http/handler"
	"github.com/repairshop/backend/internal/interfaces/http/middleware"
	"github.com/repairshop/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/repairshop/backend"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so the bridged logger and the gorm plugin see the providers
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.BridgeLogger(log, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting repair shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", providers.Enabled()),
	)

	// Initialize database connection with a zap-backed gorm logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterGormTracing(db.DB, telemetry.GormTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:     cfg.Database.DBName,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	ledgerMetrics, err := telemetry.NewLedgerMetrics(providers.Meter(instrumentationName))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Idempotency store and run lock; in-memory when Redis is down
	backend, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(true)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create cache backend", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("Error closing cache backend", zap.Error(err))
		}
	}()

	// Ledger events are written to the outbox in the same transaction as the movement
	eventSerializer := event.NewEventSerializer()
	event.RegisterDomainEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, cfg.Event.MaxRetries)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	// Initialize application services
	locationStore := appfinance.NewLocationStore(log)
	recorder := appfinance.NewMovementRecorder(log)
	recorder.SetLedgerMetrics(ledgerMetrics)
	payments := appfinance.NewPaymentLifecycle(locationStore, recorder, log,
		appfinance.WithDefaultMethod(cfg.Ledger.DefaultLocationMethod),
	)
	payments.SetLedgerMetrics(ledgerMetrics)
	synchronizer := appfinance.NewStatusSynchronizer(payments, log)
	synchronizer.SetLedgerMetrics(ledgerMetrics)

	ledgerService := appfinance.NewLedgerService(scope, recorder, log)
	auditService := appfinance.NewLedgerAuditService(scope, log)
	reportStatusService := appfinance.NewReportStatusService(scope, synchronizer, log)
	invoicePaymentService := appfinance.NewInvoicePaymentService(scope, payments, log)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	engineOpts := []reconciliation.Option{
		reconciliation.WithDateWindow(cfg.Reconciliation.DateWindowDays),
		reconciliation.WithLedgerMetrics(ledgerMetrics),
	}
	if cfg.Reconciliation.LockEnabled {
		engineOpts = append(engineOpts, reconciliation.WithLocker(backend.Locker, cfg.Reconciliation.LockTTL))
	}
	reconciler := reconciliation.NewEngine(persistence.NewGormReconciliationStore(db.DB), log, engineOpts...)

	// Payment notifications: outbox -> bus -> idempotent handler -> queue
	dispatcher, closeDispatcher := newDispatcher(cfg, log)
	defer closeDispatcher()

	eventBus := event.NewInMemoryEventBus(log)
	paymentHandler := appnotification.NewPaymentNotificationHandler(dispatcher, log)
	eventBus.Subscribe(event.NewIdempotentHandler(paymentHandler, backend.Idempotency, log), paymentHandler.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("payment_notification_events", paymentHandler.EventTypes()),
		zap.Bool("distributed_idempotency", backend.Distributed()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", cfg.Event.BatchSize),
			zap.Duration("poll_interval", cfg.Event.PollInterval),
		)
	}

	if cfg.Reconciliation.ScheduleEnabled {
		at := scheduler.At{Hour: cfg.Reconciliation.ScheduleHour, Minute: cfg.Reconciliation.ScheduleMinute}
		nightly := scheduler.NewDaily("invoice_report_linking", at, scheduler.JobFunc(func(ctx context.Context) error {
			result, err := reconciler.FixLinking(ctx, false)
			if errors.Is(err, reconciliation.ErrReconciliationLocked) {
				log.Info("Skipping scheduled linking run, another run holds the lock")
				return nil
			}
			if err != nil {
				return err
			}
			log.Info("Scheduled linking run complete",
				zap.Int("linked", result.TotalLinked()),
				zap.Int64("reports_flagged", result.ReportsFlagged),
			)
			return nil
		}), log)
		if err := nightly.Start(ctx); err != nil {
			log.Fatal("Failed to start linking schedule", zap.Error(err))
		}
		defer func() {
			if err := nightly.Stop(context.Background()); err != nil {
				log.Error("Error stopping linking schedule", zap.Error(err))
			}
		}()
	}

	// Initialize router with middleware
	engine, err := router.NewEngine(router.EngineConfig{
		Env:  cfg.App.Env,
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.Enabled(),
		},
		Meter:  providers.Meter(instrumentationName),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}
	routes := router.Mount(engine, router.Handlers{
		Ledger:         handler.NewLedgerHandler(ledgerService, auditService),
		Workflow:       handler.NewWorkflowHandler(reportStatusService, invoicePaymentService),
		Reconciliation: handler.NewReconciliationHandler(reconciler),
		Outbox:         handler.NewOutboxHandler(outboxService),
		System:         handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db),
	})
	log.Debug("API routes mounted", zap.Int("routes", routes))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Notification.Enabled {
		worker := notification.NewWorker(notification.RedisOpt(cfg.Redis), cfg.Notification.Queue, notification.LogSender{Logger: log}, log)
		g.Go(func() error { return worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// newDispatcher enqueues notifications through asynq when enabled, and only logs them otherwise
func newDispatcher(cfg *config.Config, log *zap.Logger) (appnotification.Dispatcher, func()) {
	if !cfg.Notification.Enabled {
		return notification.NewLogDispatcher(log), func() {}
	}
	client := asynq.NewClient(notification.RedisOpt(cfg.Redis))
	return notification.NewAsynqDispatcher(client, cfg.Notification, log), func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing notification client", zap.Error(err))
		}
	}
}
