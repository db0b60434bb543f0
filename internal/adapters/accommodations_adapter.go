package adapters

import (
	"context"

	accservice "staybook/internal/accommodations/service"
	userservice "staybook/internal/users/service"
)

// AccommodationsAdapter adapts the accommodations service for use by the users domain.
// It implements users/service.AccommodationChecker.
type AccommodationsAdapter struct {
	svc *accservice.Service
}

// NewAccommodationsAdapter creates a new adapter that wraps the accommodations service.
func NewAccommodationsAdapter(svc *accservice.Service) *AccommodationsAdapter {
	return &AccommodationsAdapter{svc: svc}
}

// Exists reports whether the accommodation is listed.
func (a *AccommodationsAdapter) Exists(ctx context.Context, id int64) (bool, error) {
	return a.svc.Exists(ctx, id)
}

// Ensure AccommodationsAdapter implements users/service.AccommodationChecker
var _ userservice.AccommodationChecker = (*AccommodationsAdapter)(nil)
