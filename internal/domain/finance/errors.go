package finance

import "github.com/repairshop/backend/internal/domain/shared"

// Ledger error taxonomy. Compare with errors.Is; matching is by code.
var (
	ErrNoActiveLocation = shared.NewDomainError("NO_ACTIVE_LOCATION", "No active money location is configured")
	ErrLocationNotFound = shared.NewDomainError("LOCATION_NOT_FOUND", "Money location not found")
	ErrLocationInactive = shared.NewDomainError("LOCATION_INACTIVE", "Money location is inactive")
	ErrInvalidAmount    = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrInvalidMovement  = shared.NewDomainError("INVALID_MOVEMENT", "Invalid money movement")
)

func invalidMovement(msg string) *shared.DomainError {
	return ErrInvalidMovement.Withf("%s", msg)
}
