package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/invoicing"
)

// InvoiceRef is the part of an invoice the engine reasons about
type InvoiceRef struct {
	ID            uuid.UUID
	InvoiceNumber string
	ClientID      uuid.UUID
	InvoiceDate   time.Time
}

// ReportRef is the part of a report the engine reasons about
type ReportRef struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	SerialNumber   string
	InspectionDate time.Time
	InvoiceCreated bool
}

// ItemRef is an invoice item pointing at a report it is not linked to
type ItemRef struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	ReportID  uuid.UUID
}

// Pair is a candidate invoice/report link. TargetExists is false when the referenced row
// is gone; such pairs are skipped.
type Pair struct {
	InvoiceID    uuid.UUID
	ReportID     uuid.UUID
	TargetExists bool
}

// Key returns the pair identity
func (p Pair) Key() invoicing.LinkKey {
	return invoicing.LinkKey{InvoiceID: p.InvoiceID, ReportID: p.ReportID}
}

// ReportCandidate is a report considered by the date proximity strategy. Invoiced is true
// when the report is flagged or already has a link.
type ReportCandidate struct {
	ID             uuid.UUID
	InspectionDate time.Time
	Invoiced       bool
}

// Counts summarises the link tables
type Counts struct {
	Invoices         int64
	Reports          int64
	Links            int64
	ItemsWithReport  int64
	ReportsUnflagged int64 // linked reports whose invoice_created flag is still false
}

// Store is the query and write surface reconciliation needs.
// Queries see committed data; each Link call stands alone.
type Store interface {
	Counts(ctx context.Context) (Counts, error)
	UnlinkedInvoices(ctx context.Context) ([]InvoiceRef, error)
	UnlinkedReports(ctx context.Context) ([]ReportRef, error)
	UnlinkedItems(ctx context.Context) ([]ItemRef, error)

	// ItemReportPairs lists (invoice, report) pairs from invoice items carrying a report id
	ItemReportPairs(ctx context.Context) ([]Pair, error)
	// LegacyInvoicePairs lists pairs from invoices.report_id
	LegacyInvoicePairs(ctx context.Context) ([]Pair, error)
	// LegacyReportPairs lists pairs from reports.invoice_id
	LegacyReportPairs(ctx context.Context) ([]Pair, error)
	// SerialNumberPairs matches items without a report id to reports of the same client with the same serial number
	SerialNumberPairs(ctx context.Context) ([]Pair, error)
	// ReportsNear returns the client's reports inspected within [from, until)
	ReportsNear(ctx context.Context, clientID uuid.UUID, from, until time.Time) ([]ReportCandidate, error)

	LinkExists(ctx context.Context, key invoicing.LinkKey) (bool, error)
	Link(ctx context.Context, link invoicing.InvoiceReport) (created bool, err error)
	// FlagLinkedReports sets the invoiced flags on every linked report that lacks them
	FlagLinkedReports(ctx context.Context) (int64, error)
	// CountReportsToFlag counts what FlagLinkedReports would update if the extra reports were linked too
	CountReportsToFlag(ctx context.Context, extra []uuid.UUID) (int64, error)
}
