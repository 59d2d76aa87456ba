package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ManualMovementRequest is an operator-entered movement
type ManualMovementRequest struct {
	LocationID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	ActorID     uuid.UUID
}

// TransferRequest moves money between two locations
type TransferRequest struct {
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Amount         decimal.Decimal
	Description    string
	ActorID        uuid.UUID
}

// CreateLocationRequest creates a money location
type CreateLocationRequest struct {
	Name        string
	NameAr      string
	Description string
	Type        finance.LocationType
}

// UpdateLocationRequest changes location metadata; nil fields are left alone
type UpdateLocationRequest struct {
	Name        *string
	NameAr      *string
	Description *string
	IsActive    *bool
}

// LedgerService covers operator-facing ledger operations: location maintenance, manual
// deposits/withdrawals/transfers and movement listings. Balances still only change through
// MovementRecorder.
type LedgerService struct {
	scope    TransactionScope
	recorder *MovementRecorder
	logger   *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope TransactionScope, recorder *MovementRecorder, logger *zap.Logger) *LedgerService {
	return &LedgerService{scope: scope, recorder: recorder, logger: logger}
}

// Deposit records money put into a location
func (s *LedgerService) Deposit(ctx context.Context, req ManualMovementRequest) (*finance.MoneyMovement, error) {
	return s.record(ctx, RecordMovementInput{
		Type:          finance.MovementTypeDeposit,
		Amount:        req.Amount,
		ToID:          &req.LocationID,
		ReferenceType: finance.ReferenceTypeManual,
		Description:   req.Description,
		ActorID:       req.ActorID,
	})
}

// Withdraw records money taken out of a location
func (s *LedgerService) Withdraw(ctx context.Context, req ManualMovementRequest) (*finance.MoneyMovement, error) {
	return s.record(ctx, RecordMovementInput{
		Type:          finance.MovementTypeWithdrawal,
		Amount:        req.Amount,
		FromID:        &req.LocationID,
		ReferenceType: finance.ReferenceTypeManual,
		Description:   req.Description,
		ActorID:       req.ActorID,
	})
}

// Transfer moves money from one location to another in a single movement
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (*finance.MoneyMovement, error) {
	return s.record(ctx, RecordMovementInput{
		Type:          finance.MovementTypeTransfer,
		Amount:        req.Amount,
		FromID:        &req.FromLocationID,
		ToID:          &req.ToLocationID,
		ReferenceType: finance.ReferenceTypeManual,
		Description:   req.Description,
		ActorID:       req.ActorID,
	})
}

func (s *LedgerService) record(ctx context.Context, in RecordMovementInput) (*finance.MoneyMovement, error) {
	var movement *finance.MoneyMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		movement, err = s.recorder.Record(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// CreateLocation creates a new active location with a zero balance
func (s *LedgerService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*finance.MoneyLocation, error) {
	loc, err := finance.NewMoneyLocation(req.Name, req.NameAr, req.Type)
	if err != nil {
		return nil, err
	}
	loc.WithDescription(req.Description)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Locations().Save(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.logger).Info("money location created",
		zap.String("location_id", loc.ID.String()),
		zap.String("name", loc.Name),
		zap.String("type", loc.Type.String()),
	)
	return loc, nil
}

// UpdateLocation changes names, description or active flag of a location
func (s *LedgerService) UpdateLocation(ctx context.Context, id uuid.UUID, req UpdateLocationRequest) (*finance.MoneyLocation, error) {
	var loc *finance.MoneyLocation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		loc, err = repos.Locations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil || req.NameAr != nil {
			name, nameAr := loc.Name, loc.NameAr
			if req.Name != nil {
				name = *req.Name
			}
			if req.NameAr != nil {
				nameAr = *req.NameAr
			}
			if err := loc.Rename(name, nameAr); err != nil {
				return err
			}
		}
		if req.Description != nil {
			loc.WithDescription(*req.Description)
		}
		if req.IsActive != nil {
			if *req.IsActive {
				loc.Activate()
			} else {
				loc.Deactivate()
			}
		}
		return repos.Locations().Save(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// GetLocation returns a single location with its current balance
func (s *LedgerService) GetLocation(ctx context.Context, id uuid.UUID) (*finance.MoneyLocation, error) {
	var loc *finance.MoneyLocation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		loc, err = repos.Locations().FindByID(ctx, id)
		return err
	})
	return loc, err
}

// ListLocations returns a page of locations
func (s *LedgerService) ListLocations(ctx context.Context, filter shared.Filter) (shared.Paginated[finance.MoneyLocation], error) {
	var page shared.Paginated[finance.MoneyLocation]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, total, err := repos.Locations().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(items, total, filter.Page, filter.PageSize)
		return nil
	})
	return page, err
}

// ListMovements returns a page of movements, newest first
func (s *LedgerService) ListMovements(ctx context.Context, filter finance.MovementFilter) (shared.Paginated[finance.MoneyMovement], error) {
	var page shared.Paginated[finance.MoneyMovement]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, total, err := repos.Movements().List(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(items, total, filter.Page, filter.PageSize)
		return nil
	})
	return page, err
}
