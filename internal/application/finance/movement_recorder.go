package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordMovementInput describes a movement to record
type RecordMovementInput struct {
	Type          finance.MovementType
	Amount        decimal.Decimal
	FromID        *uuid.UUID
	ToID          *uuid.UUID
	ReferenceType finance.ReferenceType
	ReferenceID   *uuid.UUID
	Description   string
	ActorID       uuid.UUID
}

// MovementRecorder is the single entry point for creating money movements, and therefore
// the only path through which location balances change.
type MovementRecorder struct {
	logger  *zap.Logger
	metrics *telemetry.LedgerMetrics
}

// NewMovementRecorder creates a new MovementRecorder
func NewMovementRecorder(logger *zap.Logger) *MovementRecorder {
	return &MovementRecorder{logger: logger}
}

// SetLedgerMetrics sets the ledger metrics collector
func (r *MovementRecorder) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	r.metrics = m
}

// Record validates the input, checks every referenced location exists and is active, then
// appends the movement. The balance deltas are applied by the same append, inside the
// caller's transaction.
func (r *MovementRecorder) Record(ctx context.Context, repos TransactionalRepositories, in RecordMovementInput) (*finance.MoneyMovement, error) {
	movement, err := finance.NewMoneyMovement(in.Type, in.Amount, in.FromID, in.ToID)
	if err != nil {
		return nil, err
	}
	if in.ReferenceType != "" {
		movement.ReferenceType = in.ReferenceType
	}
	if in.ReferenceID != nil {
		movement.WithReference(movement.ReferenceType, *in.ReferenceID)
	}
	movement.WithDescription(in.Description).WithCreatedBy(in.ActorID)

	for _, id := range movement.LocationIDs() {
		if err := r.requireActive(ctx, repos, id); err != nil {
			return nil, err
		}
	}

	if err := repos.Movements().Append(ctx, movement); err != nil {
		logger.Ctx(ctx, r.logger).Error("failed to append money movement",
			zap.String("movement_type", movement.MovementType.String()),
			zap.String("amount", movement.Amount.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	r.metrics.RecordMovement(ctx, movement.MovementType, movement.Amount)
	logger.Ctx(ctx, r.logger).Info("money movement recorded",
		zap.String("movement_id", movement.ID.String()),
		zap.String("movement_type", movement.MovementType.String()),
		zap.String("amount", movement.Amount.String()),
		zap.String("from_location_id", idString(movement.FromLocationID)),
		zap.String("to_location_id", idString(movement.ToLocationID)),
		zap.String("reference_type", string(movement.ReferenceType)),
	)
	return movement, nil
}

func (r *MovementRecorder) requireActive(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) error {
	loc, err := repos.Locations().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, finance.ErrLocationNotFound) {
			return finance.ErrLocationNotFound
		}
		return fmt.Errorf("failed to load location %s: %w", id, err)
	}
	if !loc.IsActive {
		return finance.ErrLocationInactive
	}
	return nil
}

// idString renders a nullable id for logging
func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
