package finance

import (
	"context"

	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the ledger repositories.
// Everything done through the TransactionalRepositories handed to fn is committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories within one transaction.
//
// Movements is the only repository able to change a location balance; Locations can read and
// maintain location metadata but never writes the balance column.
type TransactionalRepositories interface {
	Locations() finance.LocationRepository
	Movements() finance.MovementRepository
	Invoices() invoicing.InvoiceRepository
	Links() invoicing.LinkRepository
	Reports() inspection.ReportRepository
	// Events records domain events in the outbox; they are delivered after commit.
	Events() EventRecorder
	// Savepoint runs fn in a nested unit of work. If fn fails only its own writes are undone
	// and the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// EventRecorder stores domain events as part of the current transaction
type EventRecorder interface {
	Record(ctx context.Context, events ...shared.DomainEvent) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Savepoint simply runs the function. It is meant for unit tests with in-memory or mocked repositories.
type NoOpTransactionScope struct {
	locations finance.LocationRepository
	movements finance.MovementRepository
	invoices  invoicing.InvoiceRepository
	links     invoicing.LinkRepository
	reports   inspection.ReportRepository
	events    EventRecorder
}

// NoOpRepositories groups the repositories for NewNoOpTransactionScope
type NoOpRepositories struct {
	Locations finance.LocationRepository
	Movements finance.MovementRepository
	Invoices  invoicing.InvoiceRepository
	Links     invoicing.LinkRepository
	Reports   inspection.ReportRepository
	Events    EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(r NoOpRepositories) *NoOpTransactionScope {
	events := r.Events
	if events == nil {
		events = discardEvents{}
	}
	return &NoOpTransactionScope{
		locations: r.Locations,
		movements: r.Movements,
		invoices:  r.Invoices,
		links:     r.Links,
		reports:   r.Reports,
		events:    events,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Locations() finance.LocationRepository { return s.locations }
func (s *NoOpTransactionScope) Movements() finance.MovementRepository { return s.movements }
func (s *NoOpTransactionScope) Invoices() invoicing.InvoiceRepository { return s.invoices }
func (s *NoOpTransactionScope) Links() invoicing.LinkRepository       { return s.links }
func (s *NoOpTransactionScope) Reports() inspection.ReportRepository  { return s.reports }
func (s *NoOpTransactionScope) Events() EventRecorder                 { return s.events }

// Savepoint runs fn directly.
func (s *NoOpTransactionScope) Savepoint(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

type discardEvents struct{}

func (discardEvents) Record(context.Context, ...shared.DomainEvent) error { return nil }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
