package inspection

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository persists inspection reports
type ReportRepository interface {
	// FindByID returns ErrReportNotFound when the report does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// FindByIDForUpdate loads the report and locks its row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Report, error)
	Save(ctx context.Context, report *Report) error
	// SaveStatus writes only the status column
	SaveStatus(ctx context.Context, report *Report) error
}
