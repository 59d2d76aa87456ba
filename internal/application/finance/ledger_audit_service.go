package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceDiscrepancy is a location whose stored balance differs from its movement history
type BalanceDiscrepancy struct {
	LocationID   uuid.UUID
	LocationName string
	Stored       decimal.Decimal
	Computed     decimal.Decimal
}

// Difference returns stored minus computed
func (d BalanceDiscrepancy) Difference() decimal.Decimal {
	return d.Stored.Sub(d.Computed)
}

// LedgerAuditService checks that every materialised balance equals incoming minus outgoing
// movements. Nothing enforces this in the database; a discrepancy means something wrote the
// balance outside MovementRecorder.
type LedgerAuditService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewLedgerAuditService creates a new LedgerAuditService
func NewLedgerAuditService(scope TransactionScope, logger *zap.Logger) *LedgerAuditService {
	return &LedgerAuditService{scope: scope, logger: logger}
}

// VerifyBalances returns every location whose balance does not match its movements.
// Locations and flows are read in the same transaction.
func (s *LedgerAuditService) VerifyBalances(ctx context.Context) ([]BalanceDiscrepancy, error) {
	var discrepancies []BalanceDiscrepancy
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		filter := shared.DefaultFilter()
		filter.PageSize = 0
		filter.OrderBy = "created_at"
		filter.OrderDir = "asc"
		locations, _, err := repos.Locations().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		flows, err := repos.Movements().FlowsByLocation(ctx)
		if err != nil {
			return err
		}

		net := make(map[uuid.UUID]decimal.Decimal, len(flows))
		for _, f := range flows {
			net[f.LocationID] = f.Net()
		}
		for _, loc := range locations {
			computed, ok := net[loc.ID]
			if !ok {
				computed = decimal.Zero
			}
			if !loc.Balance().Equal(computed) {
				discrepancies = append(discrepancies, BalanceDiscrepancy{
					LocationID:   loc.ID,
					LocationName: loc.Name,
					Stored:       loc.Balance(),
					Computed:     computed,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range discrepancies {
		logger.Ctx(ctx, s.logger).Warn("money location balance does not match movements",
			zap.String("location_id", d.LocationID.String()),
			zap.String("location_name", d.LocationName),
			zap.String("stored", d.Stored.String()),
			zap.String("computed", d.Computed.String()),
		)
	}
	return discrepancies, nil
}
