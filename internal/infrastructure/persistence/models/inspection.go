package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/inspection"
)

// ReportModel is the persistence model for inspection reports.
// Status is stored as written by older clients and canonicalised on load.
type ReportModel struct {
	AggregateModel
	ClientID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status         *string    `gorm:"type:varchar(50)"`
	SerialNumber   string     `gorm:"type:varchar(100);index"`
	DeviceModel    string     `gorm:"type:varchar(200)"`
	InspectionDate time.Time  `gorm:"not null;index"`
	InvoiceCreated bool       `gorm:"not null;default:false"`
	InvoiceID      *uuid.UUID `gorm:"type:uuid;index"`
	InvoiceDate    *time.Time
	BillingEnabled bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReportModel) TableName() string {
	return "reports"
}

// ToDomain converts the persistence model to a domain Report
func (m *ReportModel) ToDomain() *inspection.Report {
	return &inspection.Report{
		BaseAggregateRoot: m.aggregateRoot(),
		ClientID:          m.ClientID,
		Status:            inspection.CanonicalizePtr(m.Status),
		SerialNumber:      m.SerialNumber,
		DeviceModel:       m.DeviceModel,
		InspectionDate:    m.InspectionDate,
		InvoiceCreated:    m.InvoiceCreated,
		InvoiceID:         m.InvoiceID,
		InvoiceDate:       m.InvoiceDate,
		BillingEnabled:    m.BillingEnabled,
	}
}

// ReportModelFromDomain creates a persistence model from a domain Report.
// The canonical status is written back, which gradually cleans legacy values.
func ReportModelFromDomain(r *inspection.Report) *ReportModel {
	status := r.Status.String()
	return &ReportModel{
		AggregateModel: aggregateModel(r.BaseAggregateRoot),
		ClientID:       r.ClientID,
		Status:         &status,
		SerialNumber:   r.SerialNumber,
		DeviceModel:    r.DeviceModel,
		InspectionDate: r.InspectionDate,
		InvoiceCreated: r.InvoiceCreated,
		InvoiceID:      r.InvoiceID,
		InvoiceDate:    r.InvoiceDate,
		BillingEnabled: r.BillingEnabled,
	}
}
