package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UpdateStatusResult is returned by ReportStatusService.UpdateStatus
type UpdateStatusResult struct {
	ReportID       uuid.UUID
	PreviousStatus inspection.ReportStatus
	Status         inspection.ReportStatus
	Changed        bool
	Sync           SyncResult
}

// ReportStatusService is the entry point for report status updates.
type ReportStatusService struct {
	scope        TransactionScope
	synchronizer *StatusSynchronizer
	logger       *zap.Logger
}

// NewReportStatusService creates a new ReportStatusService
func NewReportStatusService(scope TransactionScope, synchronizer *StatusSynchronizer, logger *zap.Logger) *ReportStatusService {
	return &ReportStatusService{scope: scope, synchronizer: synchronizer, logger: logger}
}

// UpdateStatus canonicalises rawStatus, stores it on the report and synchronises linked invoices,
// all in one transaction. Invoice synchronisation failures are isolated in savepoints and never
// fail the status update; they are reported in the result. Notifications leave through the
// outbox after commit.
func (s *ReportStatusService) UpdateStatus(ctx context.Context, reportID uuid.UUID, rawStatus string, actorID uuid.UUID) (*UpdateStatusResult, error) {
	status, err := inspection.ParseReportStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	result := &UpdateStatusResult{ReportID: reportID, Status: status}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		report, err := repos.Reports().FindByIDForUpdate(ctx, reportID)
		if err != nil {
			return err
		}

		previous, changed, err := report.ChangeStatus(status)
		if err != nil {
			return err
		}
		result.PreviousStatus = previous
		result.Changed = changed
		if !changed {
			return nil
		}

		if err := repos.Reports().SaveStatus(ctx, report); err != nil {
			return err
		}
		result.Sync = s.synchronizer.OnReportStatusChanged(ctx, repos, report, previous, status, actorID)
		return nil
	})
	if err != nil {
		logger.Ctx(ctx, s.logger).Error("report status update failed",
			zap.String("report_id", reportID.String()),
			zap.String("status", status.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}
