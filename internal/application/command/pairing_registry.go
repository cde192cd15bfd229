package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING REGISTRY
// Creates and ends mentor/learner pairings. A learner has at most one active
// pairing; the store enforces that atomically, so two concurrent creates for
// the same learner yield exactly one success.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePairingCommand contains the data to pair a mentor with a learner.
type CreatePairingCommand struct {
	MentorID  string `json:"mentor_id" validate:"required"`
	LearnerID string `json:"learner_id" validate:"required"`
}

// Validate validates the command.
func (c CreatePairingCommand) Validate() error {
	return mentorship.Validate(&c)
}

// PairingRegistry handles pairing commands.
type PairingRegistry struct {
	base
	profiles mentorship.ProfileStore
	pairings mentorship.PairingStore
}

// NewPairingRegistry creates a new PairingRegistry.
func NewPairingRegistry(store mentorship.Store, opts Options) *PairingRegistry {
	return &PairingRegistry{
		base:     base{Options: opts.withDefaults("pairing_registry")},
		profiles: store.Profiles(),
		pairings: store.Pairings(),
	}
}

// CreatePairing pairs a mentor with a learner. Admins may pair anyone;
// learners only themselves.
func (r *PairingRegistry) CreatePairing(ctx context.Context, caller mentorship.Caller, cmd CreatePairingCommand) (*mentorship.Pairing, error) {
	const op = "create_pairing"
	fields := []logger.Field{logger.MentorID(cmd.MentorID), logger.LearnerID(cmd.LearnerID)}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !caller.CanActForLearner(cmd.LearnerID) {
		return nil, r.rejected(op, forbidden("pairing", "Create",
			"only the learner or an admin can request this pairing"), fields...)
	}

	if err := r.requireProfile(ctx, cmd.MentorID, mentorship.RoleMentor); err != nil {
		return nil, r.rejected(op, err, fields...)
	}
	if err := r.requireProfile(ctx, cmd.LearnerID, mentorship.RoleLearner); err != nil {
		return nil, r.rejected(op, err, fields...)
	}

	pairing, err := mentorship.NewPairing(cmd.MentorID, cmd.LearnerID, r.Clock.Now())
	if err != nil {
		return nil, err
	}

	err = r.write(ctx, op, func(ctx context.Context) error {
		return r.pairings.CreateActivePairing(ctx, pairing)
	})
	if err != nil {
		return nil, r.rejected(op, err, fields...)
	}

	r.Logger.Info("pairing created", append(fields, logger.PairingID(pairing.ID))...)
	r.publish(shared.NewPairingEvent(shared.EventPairingCreated,
		pairing.ID, pairing.MentorID, pairing.LearnerID, caller.Account.ID, pairing.CreatedAt))

	return pairing, nil
}

// EndPairing moves an active pairing to ended. Admins and both parties may
// end it; ending an already ended pairing is an invalid transition.
func (r *PairingRegistry) EndPairing(ctx context.Context, caller mentorship.Caller, pairingID string) (*mentorship.Pairing, error) {
	const op = "end_pairing"
	fields := []logger.Field{logger.PairingID(pairingID)}

	pairing, err := r.pairings.GetPairing(ctx, pairingID)
	if err != nil {
		return nil, r.rejected(op, err, fields...)
	}
	if !caller.IsAdmin() && !caller.IsPartyOf(pairing) {
		return nil, r.rejected(op, shared.ErrNotPairingMember, fields...)
	}
	if err := pairing.End(r.Clock.Now()); err != nil {
		return nil, r.rejected(op, err, fields...)
	}

	err = r.write(ctx, op, func(ctx context.Context) error {
		return r.pairings.EndPairing(ctx, pairing.ID, *pairing.EndedAt)
	})
	if errors.Is(err, shared.ErrConcurrentModification) {
		err = shared.WrapError("pairing", "End", shared.ErrInvalidTransition, "pairing is no longer active", err)
	}
	if err != nil {
		return nil, r.rejected(op, err, fields...)
	}

	r.Logger.Info("pairing ended", fields...)
	r.publish(shared.NewPairingEvent(shared.EventPairingEnded,
		pairing.ID, pairing.MentorID, pairing.LearnerID, caller.Account.ID, *pairing.EndedAt))

	return pairing, nil
}

// requireProfile returns a role-specific not-found error when id is missing
// or belongs to a profile of the other role.
func (r *PairingRegistry) requireProfile(ctx context.Context, id string, role mentorship.Role) error {
	p, err := r.profiles.GetProfile(ctx, id)
	if err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("load %s: %w", role, err)
	}
	return mentorship.RequireRole(p, role)
}
