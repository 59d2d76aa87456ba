package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockLocationRepository is a mock implementation of finance.LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.MoneyLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MoneyLocation), args.Error(1)
}

func (m *MockLocationRepository) FindActive(ctx context.Context) ([]finance.MoneyLocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.MoneyLocation), args.Error(1)
}

func (m *MockLocationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.MoneyLocation, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.MoneyLocation), args.Get(1).(int64), args.Error(2)
}

func (m *MockLocationRepository) Save(ctx context.Context, location *finance.MoneyLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

// MockMovementRepository is a mock implementation of finance.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Append(ctx context.Context, movement *finance.MoneyMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.MoneyMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MoneyMovement), args.Error(1)
}

func (m *MockMovementRepository) FindByReference(ctx context.Context, refType finance.ReferenceType, refID uuid.UUID) ([]finance.MoneyMovement, error) {
	args := m.Called(ctx, refType, refID)
	return args.Get(0).([]finance.MoneyMovement), args.Error(1)
}

func (m *MockMovementRepository) List(ctx context.Context, filter finance.MovementFilter) ([]finance.MoneyMovement, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.MoneyMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockMovementRepository) FlowsByLocation(ctx context.Context) ([]finance.LocationFlow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.LocationFlow), args.Error(1)
}

func newLocation(t *testing.T, name, nameAr, description string, createdAt time.Time) finance.MoneyLocation {
	t.Helper()
	loc, err := finance.NewMoneyLocation(name, nameAr, finance.LocationTypeOther)
	require.NoError(t, err)
	loc.WithDescription(description)
	loc.CreatedAt = createdAt
	return *loc
}

func TestLocationStore_ResolveLocationForMethod(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cash := newLocation(t, "Cash Drawer", "الخزنة", "front desk", base)
	bank := newLocation(t, "CIB Bank", "البنك الأهلي", "transfers and cards", base.Add(time.Hour))
	wallet := newLocation(t, "Vodafone Cash Wallet", "فودافون كاش", "", base.Add(2*time.Hour))
	active := []finance.MoneyLocation{cash, bank, wallet}

	tests := []struct {
		name   string
		method string
		want   uuid.UUID
	}{
		{"exact word in name", "bank", bank.ID},
		{"case and width folded", "ＢＡＮＫ", bank.ID},
		{"closest of several substring matches", "cash", cash.ID},
		{"longer phrase picks the wallet", "vodafone cash", wallet.ID},
		{"arabic name", "فودافون", wallet.ID},
		{"arabic variant letters", "الاهلي", bank.ID},
		{"description", "cards", bank.ID},
		{"separators as spaces", "vodafone_cash", wallet.ID},
		{"no match uses oldest", "cheque", cash.ID},
		{"blank uses oldest", "   ", cash.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locations := new(MockLocationRepository)
			locations.On("FindActive", ctx).Return(active, nil).Once()
			scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations})

			loc, err := NewLocationStore(zap.NewNop()).ResolveLocationForMethod(ctx, scope, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.ID)
			locations.AssertExpectations(t)
		})
	}
}

func TestLocationStore_ResolveLocationForMethod_NoActiveLocation(t *testing.T) {
	ctx := context.Background()
	locations := new(MockLocationRepository)
	locations.On("FindActive", ctx).Return([]finance.MoneyLocation{}, nil)
	scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations})

	_, err := NewLocationStore(zap.NewNop()).ResolveLocationForMethod(ctx, scope, "cash")
	assert.ErrorIs(t, err, finance.ErrNoActiveLocation)
}

func TestLocationStore_ResolveLocationByID(t *testing.T) {
	ctx := context.Background()
	store := NewLocationStore(zap.NewNop())
	known := newLocation(t, "Cash", "", "", time.Now())
	missing := uuid.New()
	broken := uuid.New()

	locations := new(MockLocationRepository)
	locations.On("FindByID", ctx, known.ID).Return(&known, nil)
	locations.On("FindByID", ctx, missing).Return(nil, finance.ErrLocationNotFound)
	locations.On("FindByID", ctx, broken).Return(nil, errors.New("connection reset"))
	scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations})

	loc, err := store.ResolveLocationByID(ctx, scope, nil)
	assert.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = store.ResolveLocationByID(ctx, scope, &known.ID)
	assert.NoError(t, err)
	assert.Equal(t, known.ID, loc.ID)

	loc, err = store.ResolveLocationByID(ctx, scope, &missing)
	assert.NoError(t, err)
	assert.Nil(t, loc)

	_, err = store.ResolveLocationByID(ctx, scope, &broken)
	assert.Error(t, err)
}

func TestMovementRecorder_Record(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	active := newLocation(t, "Cash", "", "", time.Now())
	inactive := newLocation(t, "Safe", "", "", time.Now())
	inactive.Deactivate()

	t.Run("appends valid movement", func(t *testing.T) {
		locations := new(MockLocationRepository)
		movements := new(MockMovementRepository)
		locations.On("FindByID", ctx, active.ID).Return(&active, nil)
		movements.On("Append", ctx, mock.MatchedBy(func(m *finance.MoneyMovement) bool {
			return m.MovementType == finance.MovementTypeDeposit &&
				m.Amount.Equal(decimal.NewFromInt(75)) &&
				*m.ToLocationID == active.ID &&
				m.ReferenceType == finance.ReferenceTypeManual &&
				*m.CreatedBy == actor
		})).Return(nil).Once()
		scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations, Movements: movements})

		m, err := NewMovementRecorder(zap.NewNop()).Record(ctx, scope, RecordMovementInput{
			Type:    finance.MovementTypeDeposit,
			Amount:  decimal.NewFromInt(75),
			ToID:    &active.ID,
			ActorID: actor,
		})
		require.NoError(t, err)
		assert.Equal(t, "", m.Description)
		movements.AssertExpectations(t)
	})

	t.Run("rejects inactive location", func(t *testing.T) {
		locations := new(MockLocationRepository)
		movements := new(MockMovementRepository)
		locations.On("FindByID", ctx, inactive.ID).Return(&inactive, nil)
		scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations, Movements: movements})

		_, err := NewMovementRecorder(zap.NewNop()).Record(ctx, scope, RecordMovementInput{
			Type:   finance.MovementTypeDeposit,
			Amount: decimal.NewFromInt(75),
			ToID:   &inactive.ID,
		})
		assert.ErrorIs(t, err, finance.ErrLocationInactive)
		movements.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amount before touching storage", func(t *testing.T) {
		scope := NewNoOpTransactionScope(NoOpRepositories{})
		_, err := NewMovementRecorder(zap.NewNop()).Record(ctx, scope, RecordMovementInput{
			Type:   finance.MovementTypeDeposit,
			Amount: decimal.Zero,
			ToID:   &active.ID,
		})
		assert.ErrorIs(t, err, finance.ErrInvalidAmount)
	})

	t.Run("append failure is wrapped", func(t *testing.T) {
		locations := new(MockLocationRepository)
		movements := new(MockMovementRepository)
		locations.On("FindByID", ctx, active.ID).Return(&active, nil)
		movements.On("Append", ctx, mock.Anything).Return(finance.ErrLocationNotFound)
		scope := NewNoOpTransactionScope(NoOpRepositories{Locations: locations, Movements: movements})

		_, err := NewMovementRecorder(zap.NewNop()).Record(ctx, scope, RecordMovementInput{
			Type:   finance.MovementTypeDeposit,
			Amount: decimal.NewFromInt(1),
			ToID:   &active.ID,
		})
		assert.ErrorIs(t, err, finance.ErrLocationNotFound)
	})
}
