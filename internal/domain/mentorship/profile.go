// Package mentorship contains the core domain of the matching engine:
// profiles, compatibility scoring, pairings and the session lifecycle.
package mentorship

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE
// ══════════════════════════════════════════════════════════════════════════════

// Role is the side of the relationship a profile belongs to.
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleLearner Role = "learner"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleMentor || r == RoleLearner
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// STRING LIST
// ══════════════════════════════════════════════════════════════════════════════

// StringList is an ordered list of free-text tags (subjects, skills).
// At rest it is a JSON array; order is preserved in both directions.
type StringList []string

// MarshalJSON encodes a nil list as an empty array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// DecodeStringList parses a stored JSON array. Empty input and JSON null
// decode to an empty list.
func DecodeStringList(raw []byte) (StringList, error) {
	if len(raw) == 0 {
		return StringList{}, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return StringList(out), nil
}

// Encode returns the JSON array form used by the stores.
func (l StringList) Encode() []byte {
	data, _ := l.MarshalJSON()
	return data
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile is a mentor or learner record.
type Profile struct {
	ID string `json:"id"`

	// OwnerAccountID links the profile to an authentication account. Optional.
	OwnerAccountID *string `json:"owner_account_id,omitempty"`

	Role         Role       `json:"role" validate:"required,oneof=mentor learner"`
	Name         string     `json:"name" validate:"required,max=120"`
	Email        string     `json:"email" validate:"required,email"`
	Track        string     `json:"track" validate:"required,max=80"`
	Term         int        `json:"term" validate:"min=1,max=12"`
	Subjects     StringList `json:"subjects" validate:"required,min=1,dive,required"`
	Skills       StringList `json:"skills" validate:"required,min=1,dive,required"`
	Availability string     `json:"availability" validate:"max=500"`
	CreatedAt    time.Time  `json:"created_at"`
}

// OwnedBy reports whether the profile is linked to accountID.
func (p *Profile) OwnedBy(accountID string) bool {
	return p.OwnerAccountID != nil && *p.OwnerAccountID == accountID
}

// ProfileParams holds the editable fields of a profile.
type ProfileParams struct {
	OwnerAccountID *string
	Role           Role
	Name           string
	Email          string
	Track          string
	Term           int
	Subjects       []string
	Skills         []string
	Availability   string
}

// NewProfile validates params and builds a profile with a fresh ID.
func NewProfile(params ProfileParams, now time.Time) (*Profile, error) {
	p := &Profile{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
	}
	p.apply(params)

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields. Role and ownership never change.
func (p *Profile) Update(params ProfileParams) error {
	next := *p
	params.Role = p.Role
	params.OwnerAccountID = p.OwnerAccountID
	next.apply(params)

	if err := Validate(&next); err != nil {
		return err
	}
	*p = next
	return nil
}

func (p *Profile) apply(params ProfileParams) {
	p.OwnerAccountID = params.OwnerAccountID
	p.Role = params.Role
	p.Name = strings.TrimSpace(params.Name)
	p.Email = strings.TrimSpace(params.Email)
	p.Track = strings.TrimSpace(params.Track)
	p.Term = params.Term
	p.Subjects = cleanList(params.Subjects)
	p.Skills = cleanList(params.Skills)
	p.Availability = strings.TrimSpace(params.Availability)
}

// cleanList trims every entry and keeps order. Blank entries are kept so
// validation can report them.
func cleanList(in []string) StringList {
	if in == nil {
		return nil
	}
	out := make(StringList, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// RequireRole returns a not-found error when p is missing or has another role.
func RequireRole(p *Profile, role Role) error {
	if p != nil && p.Role == role {
		return nil
	}
	if role == RoleMentor {
		return shared.ErrMentorNotFound
	}
	return shared.ErrLearnerNotFound
}
