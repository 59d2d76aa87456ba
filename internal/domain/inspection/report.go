package inspection

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
)

// ErrReportNotFound is returned when a report id does not resolve
var ErrReportNotFound = shared.NewDomainError("REPORT_NOT_FOUND", "Report not found")

// Report is a device inspection report.
//
// InvoiceCreated, InvoiceID, InvoiceDate and BillingEnabled are a cache of what the
// invoice_reports junction already says. The reconciliation engine refreshes them;
// nothing should treat them as the source of truth.
type Report struct {
	shared.BaseAggregateRoot
	ClientID       uuid.UUID
	Status         ReportStatus
	SerialNumber   string
	DeviceModel    string
	InspectionDate time.Time
	InvoiceCreated bool
	InvoiceID      *uuid.UUID
	InvoiceDate    *time.Time
	BillingEnabled bool
}

// NewReport creates a pending report
func NewReport(clientID uuid.UUID, serialNumber, deviceModel string, inspectionDate time.Time) (*Report, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if inspectionDate.IsZero() {
		inspectionDate = time.Now()
	}
	return &Report{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		Status:            ReportStatusPending,
		SerialNumber:      strings.TrimSpace(serialNumber),
		DeviceModel:       strings.TrimSpace(deviceModel),
		InspectionDate:    inspectionDate,
	}, nil
}

// ChangeStatus sets a canonical status and returns the previous one.
// changed is false when the canonical value is the same.
func (r *Report) ChangeStatus(status ReportStatus) (previous ReportStatus, changed bool, err error) {
	if !status.IsValid() {
		return r.Status, false, ErrInvalidStatus.Withf("Invalid report status: %s", status)
	}
	previous = r.Status
	if previous == status {
		return previous, false, nil
	}
	r.Status = status
	r.BumpVersion()
	return previous, true, nil
}

// MarkInvoiced refreshes the denormalised invoice flags
func (r *Report) MarkInvoiced(invoiceID uuid.UUID, invoiceDate time.Time) {
	r.InvoiceCreated = true
	r.InvoiceID = &invoiceID
	r.InvoiceDate = &invoiceDate
	r.BillingEnabled = true
	r.Touch()
}
