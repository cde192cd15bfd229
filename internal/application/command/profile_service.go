package command

import (
	"context"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// ProfileService handles profile create, update and delete.
// Admins manage any profile; mentors and learners manage only their own.
type ProfileService struct {
	base
	profiles mentorship.ProfileStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store mentorship.Store, opts Options) *ProfileService {
	return &ProfileService{
		base:     base{Options: opts.withDefaults("profile_service")},
		profiles: store.Profiles(),
	}
}

// CreateProfile creates a profile. A non-admin caller always creates the
// profile of its own account role, owned by its own account.
func (s *ProfileService) CreateProfile(ctx context.Context, caller mentorship.Caller, params mentorship.ProfileParams) (*mentorship.Profile, error) {
	const op = "create_profile"

	if !caller.IsAdmin() {
		role, ok := caller.Account.Role.ProfileRole()
		if !ok || caller.Account.ID == "" {
			return nil, s.rejected(op, forbidden("profile", "Create", "account cannot own a profile"))
		}
		if caller.ProfileID != "" {
			return nil, shared.NewValidationError("role", "account already owns a "+role.String()+" profile")
		}
		owner := caller.Account.ID
		params.Role = role
		params.OwnerAccountID = &owner
	}

	profile, err := mentorship.NewProfile(params, s.Clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, op, func(ctx context.Context) error {
		return s.profiles.CreateProfile(ctx, profile)
	}); err != nil {
		return nil, s.rejected(op, err)
	}

	s.Logger.Info("profile created", logger.ProfileID(profile.ID), logger.String("role", profile.Role.String()))
	s.publish(shared.NewProfileEvent(shared.EventProfileCreated, profile.ID, profile.Role.String(), profile.CreatedAt))
	return profile, nil
}

// UpdateProfile replaces the editable fields of a profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, caller mentorship.Caller, id string, params mentorship.ProfileParams) (*mentorship.Profile, error) {
	const op = "update_profile"

	profile, err := s.authorize(ctx, caller, id, op)
	if err != nil {
		return nil, err
	}
	if err := profile.Update(params); err != nil {
		return nil, err
	}

	if err := s.write(ctx, op, func(ctx context.Context) error {
		return s.profiles.UpdateProfile(ctx, profile)
	}); err != nil {
		return nil, s.rejected(op, err, logger.ProfileID(id))
	}

	s.Logger.Info("profile updated", logger.ProfileID(id))
	s.publish(shared.NewProfileEvent(shared.EventProfileUpdated, profile.ID, profile.Role.String(), s.Clock.Now()))
	return profile, nil
}

// DeleteProfile removes a profile. The owning account is never touched, and
// a profile referenced by any pairing cannot be removed.
func (s *ProfileService) DeleteProfile(ctx context.Context, caller mentorship.Caller, id string) error {
	const op = "delete_profile"

	profile, err := s.authorize(ctx, caller, id, op)
	if err != nil {
		return err
	}

	if err := s.write(ctx, op, func(ctx context.Context) error {
		return s.profiles.DeleteProfile(ctx, id)
	}); err != nil {
		return s.rejected(op, err, logger.ProfileID(id))
	}

	s.Logger.Info("profile deleted", logger.ProfileID(id))
	s.publish(shared.NewProfileEvent(shared.EventProfileDeleted, id, profile.Role.String(), s.Clock.Now()))
	return nil
}

func (s *ProfileService) authorize(ctx context.Context, caller mentorship.Caller, id, op string) (*mentorship.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, s.rejected(op, err, logger.ProfileID(id))
	}
	if !caller.IsAdmin() && (caller.ProfileID == "" || caller.ProfileID != id) {
		return nil, s.rejected(op, forbidden("profile", "Authorize", "profile belongs to another account"), logger.ProfileID(id))
	}
	return profile, nil
}
