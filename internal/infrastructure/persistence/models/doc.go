// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: id, timestamp and version columns
// - ledger.go: money_locations, money_movements
// - invoicing.go: invoices, invoice_items, invoice_reports
// - inspection.go: reports
// - outbox.go: outbox pattern model for event delivery
package models
