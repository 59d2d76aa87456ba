package persistence

import (
	"context"

	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Events recorded through the repositories go to the outbox in the same transaction.
type GormTransactionScope struct {
	db     *gorm.DB
	events shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// A nil saver discards recorded events.
func NewGormTransactionScope(db *gorm.DB, events shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, events: events}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, events: s.events})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	events shared.OutboxEventSaver
}

// Locations returns the location repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Locations() finance.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

// Movements returns the movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Movements() finance.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Links returns the invoice/report link repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Links() invoicing.LinkRepository {
	return NewGormLinkRepository(r.tx)
}

// Reports returns the report repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Reports() inspection.ReportRepository {
	return NewGormReportRepository(r.tx)
}

// Events returns a recorder writing to the outbox through the current transaction.
func (r *gormTransactionalRepositories) Events() appfinance.EventRecorder {
	return outboxRecorder{tx: r.tx, saver: r.events}
}

// Savepoint runs fn inside a nested GORM transaction, which GORM implements with
// SAVEPOINT / ROLLBACK TO SAVEPOINT. A failure undoes only fn's writes.
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, events: r.events})
	})
}

type outboxRecorder struct {
	tx    *gorm.DB
	saver shared.OutboxEventSaver
}

func (o outboxRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if o.saver == nil || len(events) == 0 {
		return nil
	}
	return o.saver.SaveEvents(ctx, o.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
