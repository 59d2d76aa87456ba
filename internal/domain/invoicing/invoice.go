package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state stored on an invoice
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid returns true if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending,
		PaymentStatusUnpaid,
		PaymentStatusPartial,
		PaymentStatusCompleted,
		PaymentStatusPaid,
		PaymentStatusCancelled:
		return true
	}
	return false
}

// IsSettled returns true when the invoice total has been booked into a money location.
// "paid" is the legacy spelling of "completed" and is treated the same way.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPaid
}

// InvoiceItem is a line of an invoice, optionally tied to the inspection report of the device it bills
type InvoiceItem struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	ReportID     *uuid.UUID
	SerialNumber string
	Description  string
	Amount       decimal.Decimal
}

// Invoice is a client invoice together with the metadata of its payment
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string
	ClientID        uuid.UUID
	Total           decimal.Decimal
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	PaymentDate     *time.Time
	MoneyLocationID *uuid.UUID // location credited when paid, kept so a reversal debits the same one
	ReportID        *uuid.UUID // legacy single-report reference
	InvoiceDate     time.Time
	Items           []InvoiceItem
}

// NewInvoice creates a pending invoice with no items
func NewInvoice(clientID uuid.UUID, invoiceNumber string) (*Invoice, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		ClientID:          clientID,
		Total:             decimal.Zero,
		PaymentStatus:     PaymentStatusPending,
		InvoiceDate:       time.Now(),
		Items:             make([]InvoiceItem, 0),
	}, nil
}

// AddItem appends a line and recomputes the total
func (i *Invoice) AddItem(description, serialNumber string, amount decimal.Decimal, reportID *uuid.UUID) (*InvoiceItem, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Item amount cannot be negative")
	}
	item := InvoiceItem{
		ID:           uuid.New(),
		InvoiceID:    i.ID,
		ReportID:     reportID,
		SerialNumber: strings.TrimSpace(serialNumber),
		Description:  strings.TrimSpace(description),
		Amount:       amount,
	}
	i.Items = append(i.Items, item)
	i.Total = i.Total.Add(amount)
	i.Touch()
	return &i.Items[len(i.Items)-1], nil
}

// HasPayableAmount reports whether the invoice would move money when paid.
// Zero-value invoices are legitimate and never produce ledger movements.
func (i *Invoice) HasPayableAmount() bool {
	return i.Total.IsPositive()
}

// ChangePaymentStatus sets the stored payment status and returns the previous one
func (i *Invoice) ChangePaymentStatus(status PaymentStatus) (PaymentStatus, error) {
	if !status.IsValid() {
		return i.PaymentStatus, shared.NewDomainError("INVALID_PAYMENT_STATUS", "Invalid payment status: "+string(status))
	}
	previous := i.PaymentStatus
	if previous == status {
		return previous, nil
	}
	i.PaymentStatus = status
	i.BumpVersion()
	return previous, nil
}

// StampPayment records where and how the invoice was paid
func (i *Invoice) StampPayment(method string, locationID uuid.UUID, at time.Time) {
	i.PaymentMethod = strings.TrimSpace(method)
	i.MoneyLocationID = &locationID
	i.PaymentDate = &at
	i.Touch()
}

// LinkedReportIDs returns the distinct report ids referenced by the invoice's items and legacy field
func (i *Invoice) LinkedReportIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	add := func(id *uuid.UUID) {
		if id == nil || *id == uuid.Nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	add(i.ReportID)
	for idx := range i.Items {
		add(i.Items[idx].ReportID)
	}
	return ids
}
