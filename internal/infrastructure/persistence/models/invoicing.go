package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber   string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	Total           decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentStatus   invoicing.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:pending"`
	PaymentMethod   string                  `gorm:"type:varchar(50)"`
	PaymentDate     *time.Time
	MoneyLocationID *uuid.UUID         `gorm:"type:uuid"`
	ReportID        *uuid.UUID         `gorm:"type:uuid;index"`
	InvoiceDate     time.Time          `gorm:"not null"`
	Items           []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		BaseAggregateRoot: m.aggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		ClientID:          m.ClientID,
		Total:             m.Total,
		PaymentStatus:     m.PaymentStatus,
		PaymentMethod:     m.PaymentMethod,
		PaymentDate:       m.PaymentDate,
		MoneyLocationID:   m.MoneyLocationID,
		ReportID:          m.ReportID,
		InvoiceDate:       m.InvoiceDate,
		Items:             make([]invoicing.InvoiceItem, len(m.Items)),
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		AggregateModel:  aggregateModel(inv.BaseAggregateRoot),
		InvoiceNumber:   inv.InvoiceNumber,
		ClientID:        inv.ClientID,
		Total:           inv.Total,
		PaymentStatus:   inv.PaymentStatus,
		PaymentMethod:   inv.PaymentMethod,
		PaymentDate:     inv.PaymentDate,
		MoneyLocationID: inv.MoneyLocationID,
		ReportID:        inv.ReportID,
		InvoiceDate:     inv.InvoiceDate,
		Items:           make([]InvoiceItemModel, len(inv.Items)),
	}
	for i := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.Items[i])
	}
	return m
}

// InvoiceItemModel is the persistence model for invoice lines
type InvoiceItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReportID     *uuid.UUID      `gorm:"type:uuid;index"`
	SerialNumber string          `gorm:"type:varchar(100);index"`
	Description  string          `gorm:"type:varchar(500)"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	return invoicing.InvoiceItem{
		ID:           m.ID,
		InvoiceID:    m.InvoiceID,
		ReportID:     m.ReportID,
		SerialNumber: m.SerialNumber,
		Description:  m.Description,
		Amount:       m.Amount,
	}
}

// InvoiceItemModelFromDomain creates a persistence model from a domain InvoiceItem
func InvoiceItemModelFromDomain(item invoicing.InvoiceItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:           item.ID,
		InvoiceID:    item.InvoiceID,
		ReportID:     item.ReportID,
		SerialNumber: item.SerialNumber,
		Description:  item.Description,
		Amount:       item.Amount,
	}
}

// InvoiceReportModel is the junction between invoices and reports.
// (invoice_id, report_id) is the primary key, so a pair can only be stored once.
type InvoiceReportModel struct {
	InvoiceID uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ReportID  uuid.UUID            `gorm:"type:uuid;primaryKey;index"`
	Source    invoicing.LinkSource `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceReportModel) TableName() string {
	return "invoice_reports"
}

// ToDomain converts the persistence model to a domain InvoiceReport
func (m *InvoiceReportModel) ToDomain() invoicing.InvoiceReport {
	return invoicing.InvoiceReport{
		InvoiceID: m.InvoiceID,
		ReportID:  m.ReportID,
		Source:    m.Source,
		CreatedAt: m.CreatedAt,
	}
}

// InvoiceReportModelFromDomain creates a persistence model from a domain InvoiceReport
func InvoiceReportModelFromDomain(l invoicing.InvoiceReport) *InvoiceReportModel {
	return &InvoiceReportModel{
		InvoiceID: l.InvoiceID,
		ReportID:  l.ReportID,
		Source:    l.Source,
		CreatedAt: l.CreatedAt,
	}
}
