package finance

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyLocation(t *testing.T) {
	t.Run("valid location starts active with zero balance", func(t *testing.T) {
		loc, err := NewMoneyLocation("  Cash Drawer ", "الصندوق", LocationTypeCash)
		require.NoError(t, err)
		assert.Equal(t, "Cash Drawer", loc.Name)
		assert.Equal(t, "الصندوق", loc.NameAr)
		assert.True(t, loc.IsActive)
		assert.True(t, loc.Balance().IsZero())
		assert.NotEqual(t, uuid.Nil, loc.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewMoneyLocation("   ", "", LocationTypeCash)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_NAME", de.Code)
	})

	t.Run("rejects long name", func(t *testing.T) {
		_, err := NewMoneyLocation(strings.Repeat("x", 101), "", LocationTypeBank)
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewMoneyLocation("Vault", "", LocationType("safe"))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_LOCATION_TYPE", de.Code)
	})
}

func TestRestoreMoneyLocation_KeepsBalance(t *testing.T) {
	base := shared.NewBaseEntity()
	loc := RestoreMoneyLocation(base, "Bank", "", "main account", LocationTypeBank, decimal.RequireFromString("1250.50"), false)

	assert.Equal(t, base.ID, loc.ID)
	assert.Equal(t, "1250.5", loc.Balance().String())
	assert.False(t, loc.IsActive)
	assert.Equal(t, []string{"Bank", "", "main account"}, loc.SearchFields())
}

func TestMoneyLocation_ActivationAndRename(t *testing.T) {
	loc, err := NewMoneyLocation("Wallet", "", LocationTypeWallet)
	require.NoError(t, err)

	loc.Deactivate()
	assert.False(t, loc.IsActive)
	loc.Activate()
	assert.True(t, loc.IsActive)

	require.NoError(t, loc.Rename("Vodafone Cash", "فودافون كاش"))
	assert.Equal(t, "Vodafone Cash", loc.Name)
	assert.Error(t, loc.Rename("", ""))
}
