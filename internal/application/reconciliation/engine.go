package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/domain/shared/strategy"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// LockKey is the lease key held by a linking run
	LockKey = "reconciliation:fix-linking"
	// DefaultLockTTL bounds how long a crashed run keeps others out
	DefaultLockTTL = 10 * time.Minute
	// DefaultDateWindowDays is the proximity strategy window
	DefaultDateWindowDays = 30
)

// Analysis is a read-only snapshot of link health
type Analysis struct {
	Counts           Counts
	InvoicesUnlinked []InvoiceRef
	ReportsUnlinked  []ReportRef
	ItemsUnlinked    []ItemRef
}

// StrategyResult counts what one strategy did
type StrategyResult struct {
	Strategy      string
	Evidence      strategy.Evidence
	Candidates    int
	Linked        int // links created, or that would be created in a dry run
	AlreadyLinked int
	Skipped       int // records given up on, e.g. ambiguous or dangling
	Errors        []string
}

// FixResult is the outcome of FixLinking
type FixResult struct {
	DryRun         bool
	Strategies     []StrategyResult
	ReportsFlagged int64
	Duration       time.Duration
}

// TotalLinked sums links over all strategies
func (r *FixResult) TotalLinked() int {
	total := 0
	for _, s := range r.Strategies {
		total += s.Linked
	}
	return total
}

// RunState tracks what one run has linked so far, so later strategies and dry runs
// see the effect of earlier ones.
type RunState struct {
	dryRun   bool
	seen     map[invoicing.LinkKey]struct{}
	invoices map[uuid.UUID]struct{}
	reports  map[uuid.UUID]struct{}
}

func newRunState(dryRun bool) *RunState {
	return &RunState{
		dryRun:   dryRun,
		seen:     make(map[invoicing.LinkKey]struct{}),
		invoices: make(map[uuid.UUID]struct{}),
		reports:  make(map[uuid.UUID]struct{}),
	}
}

// DryRun reports whether the run writes nothing
func (r *RunState) DryRun() bool { return r.dryRun }

// InvoiceLinked reports whether this run linked the invoice
func (r *RunState) InvoiceLinked(id uuid.UUID) bool {
	_, ok := r.invoices[id]
	return ok
}

// ReportLinked reports whether this run linked the report
func (r *RunState) ReportLinked(id uuid.UUID) bool {
	_, ok := r.reports[id]
	return ok
}

func (r *RunState) plannedReports() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.reports))
	for id := range r.reports {
		ids = append(ids, id)
	}
	return ids
}

func (r *RunState) mark(key invoicing.LinkKey) {
	r.seen[key] = struct{}{}
	r.invoices[key.InvoiceID] = struct{}{}
	r.reports[key.ReportID] = struct{}{}
}

// Engine repairs missing invoice/report links
type Engine struct {
	store      Store
	strategies []LinkStrategy
	locker     shared.Locker
	lockTTL    time.Duration
	metrics    *telemetry.LedgerMetrics
	logger     *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithDateWindow sets the proximity strategy window in days
func WithDateWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.strategies = DefaultStrategies(days)
		}
	}
}

// WithStrategies replaces the strategy list
func WithStrategies(strategies ...LinkStrategy) Option {
	return func(e *Engine) { e.strategies = strategies }
}

// WithLocker makes non-dry runs exclusive across processes
func WithLocker(locker shared.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithLedgerMetrics records link counts and run durations
func WithLedgerMetrics(m *telemetry.LedgerMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine running the default strategies
func NewEngine(store Store, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		strategies: DefaultStrategies(DefaultDateWindowDays),
		lockTTL:    DefaultLockTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategies returns the strategies in run order
func (e *Engine) Strategies() []LinkStrategy {
	return e.strategies
}

// Analyze reports counts and unlinked records without writing anything
func (e *Engine) Analyze(ctx context.Context) (*Analysis, error) {
	ctx, end := telemetry.Span(ctx, "reconciliation.analyze")
	var err error
	defer func() { end(err) }()

	a := &Analysis{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.store.Counts(gctx)
		a.Counts = c
		return err
	})
	g.Go(func() error {
		rows, err := e.store.UnlinkedInvoices(gctx)
		a.InvoicesUnlinked = rows
		return err
	})
	g.Go(func() error {
		rows, err := e.store.UnlinkedReports(gctx)
		a.ReportsUnlinked = rows
		return err
	})
	g.Go(func() error {
		rows, err := e.store.UnlinkedItems(gctx)
		a.ItemsUnlinked = rows
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return a, nil
}

// FixLinking runs every strategy in order and then flags linked reports as invoiced.
// A dry run computes the same counts and writes nothing. Running it twice in a row
// creates nothing the second time.
func (e *Engine) FixLinking(ctx context.Context, dryRun bool) (*FixResult, error) {
	start := time.Now()
	ctx, end := telemetry.Span(ctx, "reconciliation.fix_linking", attribute.Bool("dry_run", dryRun))
	var err error
	defer func() { end(err) }()

	if !dryRun && e.locker != nil {
		lock, acquired, lerr := e.locker.TryLock(ctx, LockKey, e.lockTTL)
		if lerr != nil {
			err = lerr
			return nil, err
		}
		if !acquired {
			err = ErrReconciliationLocked
			return nil, err
		}
		defer func() {
			if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
				logger.Ctx(ctx, e.logger).Warn("failed to release reconciliation lock", zap.Error(rerr))
			}
		}()
	}

	run := newRunState(dryRun)
	result := &FixResult{DryRun: dryRun, Strategies: make([]StrategyResult, 0, len(e.strategies))}
	for _, s := range e.strategies {
		var sr StrategyResult
		sr, err = e.runStrategy(ctx, s, run)
		if err != nil {
			return nil, err
		}
		result.Strategies = append(result.Strategies, sr)
		e.metrics.RecordLinks(ctx, s.Name(), sr.Linked, dryRun)
	}

	if dryRun {
		result.ReportsFlagged, err = e.store.CountReportsToFlag(ctx, run.plannedReports())
	} else {
		result.ReportsFlagged, err = e.store.FlagLinkedReports(ctx)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	e.metrics.RecordReconciliationRun(ctx, result.Duration, dryRun)
	logger.Ctx(ctx, e.logger).Info("reconciliation finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("linked", result.TotalLinked()),
		zap.Int64("reports_flagged", result.ReportsFlagged),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (e *Engine) runStrategy(ctx context.Context, s LinkStrategy, run *RunState) (StrategyResult, error) {
	ctx, end := telemetry.Span(ctx, "reconciliation.strategy",
		attribute.String("strategy", s.Name()), attribute.Bool("dry_run", run.dryRun))
	var err error
	defer func() { end(err) }()

	sr := StrategyResult{Strategy: s.Name(), Evidence: s.Evidence()}
	proposals, err := s.Propose(ctx, e.store, run)
	if err != nil {
		return sr, err
	}
	sr.Candidates = len(proposals)

	for _, p := range proposals {
		if p.Err != nil {
			e.skip(ctx, &sr, p, p.Err)
			continue
		}
		key := p.Key()
		if _, ok := run.seen[key]; ok {
			sr.AlreadyLinked++
			continue
		}

		created, lerr := e.apply(ctx, p, run.dryRun)
		if lerr != nil {
			if errors.Is(lerr, context.Canceled) || errors.Is(lerr, context.DeadlineExceeded) {
				err = lerr
				return sr, err
			}
			e.skip(ctx, &sr, p, lerr)
			continue
		}
		run.mark(key)
		if created {
			sr.Linked++
		} else {
			sr.AlreadyLinked++
		}
	}
	return sr, nil
}

// apply creates the link, or in a dry run reports whether it would be created
func (e *Engine) apply(ctx context.Context, p Proposal, dryRun bool) (bool, error) {
	if dryRun {
		exists, err := e.store.LinkExists(ctx, p.Key())
		return !exists, err
	}
	return e.store.Link(ctx, invoicing.NewInvoiceReport(p.InvoiceID, p.ReportID, invoicing.LinkSourceReconciliation))
}

func (e *Engine) skip(ctx context.Context, sr *StrategyResult, p Proposal, err error) {
	sr.Skipped++
	sr.Errors = append(sr.Errors, err.Error())
	logger.Ctx(ctx, e.logger).Warn("reconciliation skipped record",
		zap.String("strategy", sr.Strategy),
		zap.String("invoice_id", p.InvoiceID.String()),
		zap.String("report_id", p.ReportID.String()),
		zap.Error(err),
	)
}
