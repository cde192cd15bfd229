package mentorship

import (
	"context"
	"time"
)

// ProfileStore is the persistence contract for profiles.
// Lookups that find nothing return an error matching shared.ErrNotFound.
type ProfileStore interface {
	// GetProfile returns the profile with the given ID.
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// FindProfilesByRole returns every profile of role in creation order.
	FindProfilesByRole(ctx context.Context, role Role) ([]Profile, error)

	// FindProfileByOwnerAccount returns the profile of role owned by accountID.
	FindProfileByOwnerAccount(ctx context.Context, accountID string, role Role) (*Profile, error)

	// CreateProfile inserts a new profile.
	CreateProfile(ctx context.Context, p *Profile) error

	// UpdateProfile replaces the editable fields of an existing profile.
	UpdateProfile(ctx context.Context, p *Profile) error

	// DeleteProfile removes a profile. The owning account is left untouched.
	DeleteProfile(ctx context.Context, id string) error
}

// PairingStore is the persistence contract for pairings.
type PairingStore interface {
	// CreateActivePairing inserts p if the learner has no active pairing,
	// as one atomic step. Otherwise it returns shared.ErrLearnerAlreadyPaired.
	CreateActivePairing(ctx context.Context, p *Pairing) error

	// GetPairing returns the pairing with the given ID.
	GetPairing(ctx context.Context, id string) (*Pairing, error)

	// GetActivePairingForLearner returns the learner's active pairing or
	// shared.ErrPairingNotFound.
	GetActivePairingForLearner(ctx context.Context, learnerID string) (*Pairing, error)

	// ListActivePairingsForMentor returns the mentor's active pairings, oldest first.
	ListActivePairingsForMentor(ctx context.Context, mentorID string) ([]Pairing, error)

	// ListActivePairings returns every active pairing, oldest first.
	ListActivePairings(ctx context.Context) ([]Pairing, error)

	// EndPairing moves an active pairing to ended. It returns
	// shared.ErrConcurrentModification if the pairing is no longer active.
	EndPairing(ctx context.Context, id string, endedAt time.Time) error
}

// SessionStore is the persistence contract for sessions.
type SessionStore interface {
	// CreateSession inserts a new session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns the session with the given ID.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessionsByPairing returns the pairing's sessions, latest date and time first.
	ListSessionsByPairing(ctx context.Context, pairingID string) ([]Session, error)

	// TransitionSession writes status, notes and completed_at of s only if the
	// stored status still equals from. Otherwise it returns
	// shared.ErrConcurrentModification.
	TransitionSession(ctx context.Context, s *Session, from SessionStatus) error
}

// Store groups the three stores behind one backend.
type Store interface {
	Profiles() ProfileStore
	Pairings() PairingStore
	Sessions() SessionStore
	Ping(ctx context.Context) error
	Close()
}
