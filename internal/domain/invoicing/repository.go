package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
)

// ErrInvoiceNotFound is returned when an invoice id does not resolve
var ErrInvoiceNotFound = shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")

// InvoiceRepository persists invoices and their items
type InvoiceRepository interface {
	// FindByID loads the invoice with its items, or returns ErrInvoiceNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindIDsByItemReport returns the ids of invoices that have at least one item pointing at the report
	FindIDsByItemReport(ctx context.Context, reportID uuid.UUID) ([]uuid.UUID, error)
	// Save creates or updates the invoice header and its items
	Save(ctx context.Context, invoice *Invoice) error
	// SavePayment updates only the payment columns of the invoice header
	SavePayment(ctx context.Context, invoice *Invoice) error
}

// LinkRepository stores invoice/report links
type LinkRepository interface {
	// Link inserts the pair unless it already exists. created is false for an existing pair,
	// including one inserted concurrently by another writer.
	Link(ctx context.Context, link InvoiceReport) (created bool, err error)
	Exists(ctx context.Context, invoiceID, reportID uuid.UUID) (bool, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceReport, error)
	FindByReport(ctx context.Context, reportID uuid.UUID) ([]InvoiceReport, error)
}
