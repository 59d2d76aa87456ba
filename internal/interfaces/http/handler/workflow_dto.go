package handler

import (
	"time"

	"github.com/google/uuid"
	appfinance "github.com/repairshop/backend/internal/application/finance"
)

// UpdateReportStatusRequest is the body of PATCH /reports/:id/status. Status is free text;
// legacy spellings such as "Completed" or "canceled" are accepted.
type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required,max=50"`
}

// ChangePaymentStatusRequest is the body of PATCH /invoices/:id/payment-status
type ChangePaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending unpaid partial completed paid cancelled"`
	Method string `json:"method" binding:"max=50"`
}

// InvoiceSyncResponse is one invoice touched by a report status change
type InvoiceSyncResponse struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Ledger         string    `json:"ledger"`
}

// SyncFailureResponse is an invoice whose synchronisation was rolled back
type SyncFailureResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Error     string    `json:"error"`
}

// ReportStatusResponse is the result of a report status update
type ReportStatusResponse struct {
	ReportID          uuid.UUID             `json:"report_id"`
	PreviousStatus    string                `json:"previous_status"`
	Status            string                `json:"status"`
	Changed           bool                  `json:"changed"`
	InvoicesUpdated   []InvoiceSyncResponse `json:"invoices_updated"`
	InvoicesUnchanged []uuid.UUID           `json:"invoices_unchanged"`
	Failures          []SyncFailureResponse `json:"failures,omitempty"`
	PaymentsRecorded  int                   `json:"payments_recorded"`
	PaymentsReverted  int                   `json:"payments_reverted"`
}

func toReportStatusResponse(r *appfinance.UpdateStatusResult) ReportStatusResponse {
	resp := ReportStatusResponse{
		ReportID:          r.ReportID,
		PreviousStatus:    r.PreviousStatus.String(),
		Status:            r.Status.String(),
		Changed:           r.Changed,
		InvoicesUpdated:   make([]InvoiceSyncResponse, 0, len(r.Sync.Updated)),
		InvoicesUnchanged: r.Sync.Unchanged,
		PaymentsRecorded:  r.Sync.Recorded(),
		PaymentsReverted:  r.Sync.Reverted(),
	}
	if resp.InvoicesUnchanged == nil {
		resp.InvoicesUnchanged = []uuid.UUID{}
	}
	for _, u := range r.Sync.Updated {
		resp.InvoicesUpdated = append(resp.InvoicesUpdated, InvoiceSyncResponse{
			InvoiceID:      u.InvoiceID,
			PreviousStatus: u.PreviousStatus.String(),
			Status:         u.NewStatus.String(),
			Ledger:         string(u.Action),
		})
	}
	for _, f := range r.Sync.Failures {
		resp.Failures = append(resp.Failures, SyncFailureResponse{InvoiceID: f.InvoiceID, Error: f.Err.Error()})
	}
	return resp
}

// PaymentStatusResponse is the result of a direct invoice payment status change
type PaymentStatusResponse struct {
	InvoiceID      uuid.UUID         `json:"invoice_id"`
	PreviousStatus string            `json:"previous_status"`
	Status         string            `json:"status"`
	Ledger         string            `json:"ledger"`
	Movement       *MovementResponse `json:"movement,omitempty"`
}

func toPaymentStatusResponse(c *appfinance.PaymentStatusChange) PaymentStatusResponse {
	resp := PaymentStatusResponse{
		InvoiceID:      c.InvoiceID,
		PreviousStatus: c.PreviousStatus.String(),
		Status:         c.Status.String(),
		Ledger:         string(c.Action),
	}
	if c.Movement != nil {
		m := toMovementResponse(*c.Movement)
		resp.Movement = &m
	}
	return resp
}

// StrategyResultResponse counts what one linking strategy did
type StrategyResultResponse struct {
	Strategy      string   `json:"strategy"`
	Evidence      string   `json:"evidence"`
	Candidates    int      `json:"candidates"`
	Linked        int      `json:"linked"`
	AlreadyLinked int      `json:"already_linked"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors,omitempty"`
}

// FixLinkingResponse is the result of POST /reconciliation/fix
type FixLinkingResponse struct {
	DryRun         bool                     `json:"dry_run"`
	Strategies     []StrategyResultResponse `json:"strategies"`
	TotalLinked    int                      `json:"total_linked"`
	ReportsFlagged int64                    `json:"reports_flagged"`
	DurationMS     int64                    `json:"duration_ms"`
}

// LinkCountsResponse summarises the link tables
type LinkCountsResponse struct {
	Invoices         int64 `json:"invoices"`
	Reports          int64 `json:"reports"`
	Links            int64 `json:"links"`
	ItemsWithReport  int64 `json:"items_with_report"`
	ReportsUnflagged int64 `json:"reports_unflagged"`
}

// UnlinkedInvoiceResponse is an invoice with no report
type UnlinkedInvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      uuid.UUID `json:"client_id"`
	InvoiceDate   time.Time `json:"invoice_date"`
}

// UnlinkedReportResponse is a report with no invoice
type UnlinkedReportResponse struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	SerialNumber   string    `json:"serial_number,omitempty"`
	InspectionDate time.Time `json:"inspection_date"`
	InvoiceCreated bool      `json:"invoice_created"`
}

// UnlinkedItemResponse is an invoice item whose report link is missing
type UnlinkedItemResponse struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	ReportID  uuid.UUID `json:"report_id"`
}

// AnalysisResponse is the result of GET /reconciliation/analysis
type AnalysisResponse struct {
	Counts           LinkCountsResponse        `json:"counts"`
	InvoicesUnlinked []UnlinkedInvoiceResponse `json:"invoices_unlinked"`
	ReportsUnlinked  []UnlinkedReportResponse  `json:"reports_unlinked"`
	ItemsUnlinked    []UnlinkedItemResponse    `json:"items_unlinked"`
}
