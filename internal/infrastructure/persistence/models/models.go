package models

// AllModels returns every model in migration order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&MoneyLocationModel{},
		&MoneyMovementModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&InvoiceReportModel{},
		&ReportModel{},
		&OutboxEntryModel{},
	}
}
