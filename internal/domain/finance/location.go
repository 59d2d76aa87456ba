package finance

import (
	"strings"

	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LocationType represents the kind of money-holding account
type LocationType string

const (
	LocationTypeCash   LocationType = "cash"
	LocationTypeBank   LocationType = "bank"
	LocationTypeWallet LocationType = "wallet"
	LocationTypeOther  LocationType = "other"
)

// String returns the string representation of LocationType
func (t LocationType) String() string {
	return string(t)
}

// IsValid returns true if the location type is valid
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeCash, LocationTypeBank, LocationTypeWallet, LocationTypeOther:
		return true
	}
	return false
}

// MoneyLocation is a named account (cash drawer, bank account, wallet) holding a running balance.
//
// The balance is a materialized counter with no setter. It only changes through
// MovementRepository.Append, which inserts the movement row and applies the balance delta
// in the same transaction.
type MoneyLocation struct {
	shared.BaseEntity
	Name        string
	NameAr      string
	Description string
	Type        LocationType
	IsActive    bool
	balance     decimal.Decimal
}

// NewMoneyLocation creates a new active location with a zero balance
func NewMoneyLocation(name, nameAr string, locationType LocationType) (*MoneyLocation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Location name cannot exceed 100 characters")
	}
	if !locationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_LOCATION_TYPE", "Invalid location type")
	}

	return &MoneyLocation{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		NameAr:     strings.TrimSpace(nameAr),
		Type:       locationType,
		IsActive:   true,
		balance:    decimal.Zero,
	}, nil
}

// RestoreMoneyLocation rebuilds a location from persisted state, including its stored balance.
// Only repositories should call it.
func RestoreMoneyLocation(base shared.BaseEntity, name, nameAr, description string, locationType LocationType, balance decimal.Decimal, isActive bool) *MoneyLocation {
	return &MoneyLocation{
		BaseEntity:  base,
		Name:        name,
		NameAr:      nameAr,
		Description: description,
		Type:        locationType,
		IsActive:    isActive,
		balance:     balance,
	}
}

// Balance returns the materialized balance
func (l *MoneyLocation) Balance() decimal.Decimal {
	return l.balance
}

// WithDescription sets the description
func (l *MoneyLocation) WithDescription(description string) *MoneyLocation {
	l.Description = strings.TrimSpace(description)
	return l
}

// Rename changes the display names of the location
func (l *MoneyLocation) Rename(name, nameAr string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}
	l.Name = name
	l.NameAr = strings.TrimSpace(nameAr)
	l.Touch()
	return nil
}

// Activate marks the location as usable for movements
func (l *MoneyLocation) Activate() {
	l.IsActive = true
	l.Touch()
}

// Deactivate hides the location from payment resolution.
// Past movements stay valid; new ones are rejected.
func (l *MoneyLocation) Deactivate() {
	l.IsActive = false
	l.Touch()
}

// SearchFields returns the texts a payment method is matched against
func (l *MoneyLocation) SearchFields() []string {
	return []string{l.Name, l.NameAr, l.Description}
}
