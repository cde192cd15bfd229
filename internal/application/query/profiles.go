package query

import (
	"context"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ProfileQueries reads single profiles.
type ProfileQueries struct {
	profiles mentorship.ProfileStore
}

// NewProfileQueries creates ProfileQueries.
func NewProfileQueries(profiles mentorship.ProfileStore) *ProfileQueries {
	return &ProfileQueries{profiles: profiles}
}

// GetProfile returns the profile with the given ID to any authenticated caller.
func (q *ProfileQueries) GetProfile(ctx context.Context, caller mentorship.Caller, id string) (*mentorship.Profile, error) {
	if caller.Account.ID == "" {
		return nil, shared.NewDomainError("profile", "Get", shared.ErrUnauthorized, "no authenticated account")
	}
	if id == "" {
		return nil, shared.NewValidationError("id", "is required")
	}
	return q.profiles.GetProfile(ctx, id)
}
