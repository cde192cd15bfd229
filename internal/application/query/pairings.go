package query

import (
	"context"
	"fmt"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// PairingQueries answers read questions about pairings.
type PairingQueries struct {
	pairings mentorship.PairingStore
}

// NewPairingQueries creates a new PairingQueries.
func NewPairingQueries(pairings mentorship.PairingStore) *PairingQueries {
	return &PairingQueries{pairings: pairings}
}

// GetActivePairingForLearner returns the learner's active pairing, or nil
// when there is none. The learner, their mentor and admins may ask.
func (q *PairingQueries) GetActivePairingForLearner(ctx context.Context, caller mentorship.Caller, learnerID string) (*mentorship.Pairing, error) {
	p, err := q.pairings.GetActivePairingForLearner(ctx, learnerID)
	if shared.IsNotFound(err) {
		if !caller.CanActForLearner(learnerID) {
			return nil, shared.ErrNotPairingMember
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_active_pairing: %w", err)
	}
	if !caller.IsAdmin() && !caller.IsPartyOf(p) {
		return nil, shared.ErrNotPairingMember
	}
	return p, nil
}

// GetActivePairingsForMentor lists the mentor's active pairings.
func (q *PairingQueries) GetActivePairingsForMentor(ctx context.Context, caller mentorship.Caller, mentorID string) ([]mentorship.Pairing, error) {
	if !caller.CanActForMentor(mentorID) {
		return nil, shared.NewDomainError("pairing", "ListForMentor", shared.ErrForbidden,
			"only the mentor or an admin can list these pairings")
	}
	out, err := q.pairings.ListActivePairingsForMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("get_mentor_pairings: %w", err)
	}
	return out, nil
}

// HasActiveMentor reports whether the learner currently has a mentor.
// Any authenticated caller may ask; no pairing details are revealed.
func (q *PairingQueries) HasActiveMentor(ctx context.Context, caller mentorship.Caller, learnerID string) (bool, error) {
	if caller.Account.ID == "" {
		return false, shared.NewDomainError("pairing", "HasMentor", shared.ErrUnauthorized, "authentication required")
	}
	_, err := q.pairings.GetActivePairingForLearner(ctx, learnerID)
	if shared.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has_active_mentor: %w", err)
	}
	return true, nil
}

// ListActivePairings lists every active pairing. Admin only.
func (q *PairingQueries) ListActivePairings(ctx context.Context, caller mentorship.Caller) ([]mentorship.Pairing, error) {
	if !caller.IsAdmin() {
		return nil, shared.NewDomainError("pairing", "ListActive", shared.ErrForbidden, "admin only")
	}
	out, err := q.pairings.ListActivePairings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_active_pairings: %w", err)
	}
	return out, nil
}
