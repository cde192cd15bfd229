package mentorship

import (
	"time"

	"github.com/google/uuid"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// PairingStatus is the lifecycle state of a pairing.
type PairingStatus string

const (
	PairingActive PairingStatus = "active"
	PairingEnded  PairingStatus = "ended"
)

// IsValid reports whether s is a known status.
func (s PairingStatus) IsValid() bool {
	return s == PairingActive || s == PairingEnded
}

// IsFinal reports whether no further transition is possible.
func (s PairingStatus) IsFinal() bool {
	return s == PairingEnded
}

// Pairing is a mentor/learner relationship. A learner has at most one
// active pairing at a time; the stores enforce this on insert.
type Pairing struct {
	ID        string        `json:"id"`
	MentorID  string        `json:"mentor_id"`
	LearnerID string        `json:"learner_id"`
	Status    PairingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

// NewPairing builds an active pairing.
func NewPairing(mentorID, learnerID string, now time.Time) (*Pairing, error) {
	verr := &shared.ValidationError{}
	if mentorID == "" {
		verr.Add("mentor_id", "is required")
	}
	if learnerID == "" {
		verr.Add("learner_id", "is required")
	}
	if mentorID != "" && mentorID == learnerID {
		verr.Add("learner_id", "must differ from mentor_id")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &Pairing{
		ID:        uuid.NewString(),
		MentorID:  mentorID,
		LearnerID: learnerID,
		Status:    PairingActive,
		CreatedAt: now.UTC(),
	}, nil
}

// IsActive reports whether the pairing is active.
func (p *Pairing) IsActive() bool {
	return p.Status == PairingActive
}

// HasParty reports whether profileID is the mentor or the learner.
func (p *Pairing) HasParty(profileID string) bool {
	return profileID != "" && (p.MentorID == profileID || p.LearnerID == profileID)
}

// End moves the pairing to ended.
func (p *Pairing) End(now time.Time) error {
	if p.Status.IsFinal() {
		return shared.ErrPairingEnded
	}
	ended := now.UTC()
	p.Status = PairingEnded
	p.EndedAt = &ended
	return nil
}
