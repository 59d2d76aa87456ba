package invoicing

import (
	"time"

	"github.com/google/uuid"
)

// LinkSource records who created an invoice/report link
type LinkSource string

const (
	LinkSourceInvoiceCreation LinkSource = "invoice_creation"
	LinkSourceReconciliation  LinkSource = "reconciliation"
)

// InvoiceReport is the canonical many-to-many link between an invoice and an inspection report.
// A pair is stored at most once.
type InvoiceReport struct {
	InvoiceID uuid.UUID
	ReportID  uuid.UUID
	Source    LinkSource
	CreatedAt time.Time
}

// NewInvoiceReport creates a link row
func NewInvoiceReport(invoiceID, reportID uuid.UUID, source LinkSource) InvoiceReport {
	return InvoiceReport{
		InvoiceID: invoiceID,
		ReportID:  reportID,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

// Key returns a comparable identity for the pair
func (l InvoiceReport) Key() LinkKey {
	return LinkKey{InvoiceID: l.InvoiceID, ReportID: l.ReportID}
}

// LinkKey identifies an (invoice, report) pair
type LinkKey struct {
	InvoiceID uuid.UUID
	ReportID  uuid.UUID
}
