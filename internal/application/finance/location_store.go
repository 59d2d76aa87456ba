package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LocationStore resolves payment methods and stored ids to money locations.
type LocationStore struct {
	logger *zap.Logger
}

// NewLocationStore creates a new LocationStore
func NewLocationStore(logger *zap.Logger) *LocationStore {
	return &LocationStore{logger: logger}
}

// ResolveLocationForMethod finds the active location a payment method should credit.
//
// The folded method is matched as a substring of each active location's name, Arabic name and
// description. Several matches are ranked by edit distance between the method and the closest
// field, earliest location first on equal distance. With no match at all the oldest active
// location is used. ErrNoActiveLocation is returned when no location is active.
func (s *LocationStore) ResolveLocationForMethod(ctx context.Context, repos TransactionalRepositories, method string) (*finance.MoneyLocation, error) {
	active, err := repos.Locations().FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active locations: %w", err)
	}
	if len(active) == 0 {
		logger.Ctx(ctx, s.logger).Error("no active money location, payment cannot be booked",
			zap.String("method", method),
		)
		return nil, finance.ErrNoActiveLocation
	}

	needle := shared.FoldText(method)
	if needle != "" {
		if loc := bestMatch(active, needle); loc != nil {
			return loc, nil
		}
	}

	fallback := active[0]
	logger.Ctx(ctx, s.logger).Debug("no location matches payment method, using default location",
		zap.String("method", method),
		zap.String("location_id", fallback.ID.String()),
		zap.String("location_name", fallback.Name),
	)
	return &fallback, nil
}

func bestMatch(locations []finance.MoneyLocation, needle string) *finance.MoneyLocation {
	best := -1
	bestDistance := 0
	for i := range locations {
		distance, ok := matchDistance(&locations[i], needle)
		if !ok {
			continue
		}
		if best < 0 || distance < bestDistance {
			best, bestDistance = i, distance
		}
	}
	if best < 0 {
		return nil
	}
	return &locations[best]
}

// matchDistance reports whether any field contains needle and, if so, the smallest edit
// distance between needle and a containing field.
func matchDistance(loc *finance.MoneyLocation, needle string) (int, bool) {
	found := false
	closest := 0
	for _, field := range loc.SearchFields() {
		folded := shared.FoldText(field)
		if folded == "" || !strings.Contains(folded, needle) {
			continue
		}
		d := levenshtein.ComputeDistance(needle, folded)
		if !found || d < closest {
			closest = d
			found = true
		}
	}
	return closest, found
}

// ResolveLocationByID loads a location by id. A nil id or a missing row yields (nil, nil) so
// callers can fall back; other errors are returned. Inactive locations are returned as is.
func (s *LocationStore) ResolveLocationByID(ctx context.Context, repos TransactionalRepositories, id *uuid.UUID) (*finance.MoneyLocation, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	loc, err := repos.Locations().FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, finance.ErrLocationNotFound) {
			logger.Ctx(ctx, s.logger).Warn("stored money location no longer exists",
				zap.String("location_id", id.String()),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load location %s: %w", id, err)
	}
	return loc, nil
}
