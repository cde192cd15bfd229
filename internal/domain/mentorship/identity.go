package mentorship

import (
	"context"
)

// AccountRole is the role of an authenticated account.
type AccountRole string

const (
	AccountAdmin   AccountRole = "admin"
	AccountMentor  AccountRole = "mentor"
	AccountLearner AccountRole = "learner"
)

// IsValid reports whether r is a known account role.
func (r AccountRole) IsValid() bool {
	switch r {
	case AccountAdmin, AccountMentor, AccountLearner:
		return true
	}
	return false
}

// ProfileRole returns the profile role owned by accounts of this role.
// Admins own no profile.
func (r AccountRole) ProfileRole() (Role, bool) {
	switch r {
	case AccountMentor:
		return RoleMentor, true
	case AccountLearner:
		return RoleLearner, true
	}
	return "", false
}

// Account is the authenticated principal supplied by the auth layer.
type Account struct {
	ID   string      `json:"id"`
	Role AccountRole `json:"role"`
}

// IdentityContext yields the account behind the current request.
type IdentityContext interface {
	CurrentAccount(ctx context.Context) (Account, error)
}

// Caller is a resolved account: its role plus, for mentors and learners,
// the profile it owns. Every operation authorizes through a Caller.
type Caller struct {
	Account   Account
	ProfileID string
}

// IsAdmin reports whether the caller is an administrator.
func (c Caller) IsAdmin() bool { return c.Account.Role == AccountAdmin }

// IsMentor reports whether the caller acts as a mentor.
func (c Caller) IsMentor() bool { return c.Account.Role == AccountMentor && c.ProfileID != "" }

// IsLearner reports whether the caller acts as a learner.
func (c Caller) IsLearner() bool { return c.Account.Role == AccountLearner && c.ProfileID != "" }

// CanActForLearner reports whether the caller may act on behalf of learnerID.
func (c Caller) CanActForLearner(learnerID string) bool {
	return c.IsAdmin() || (c.IsLearner() && c.ProfileID == learnerID)
}

// CanActForMentor reports whether the caller may act on behalf of mentorID.
func (c Caller) CanActForMentor(mentorID string) bool {
	return c.IsAdmin() || (c.IsMentor() && c.ProfileID == mentorID)
}

// IsMentorOf reports whether the caller is the mentor of p.
func (c Caller) IsMentorOf(p *Pairing) bool {
	return c.IsMentor() && p.MentorID == c.ProfileID
}

// IsPartyOf reports whether the caller is the mentor or learner of p.
func (c Caller) IsPartyOf(p *Pairing) bool {
	return (c.IsMentor() || c.IsLearner()) && p.HasParty(c.ProfileID)
}
