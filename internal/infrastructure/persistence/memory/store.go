// Package memory implements the mentorship stores in process memory.
// All writes go through one mutex, which serializes the pairing
// check-then-insert and session compare-and-swap.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// Store is an in-memory mentorship.Store.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]mentorship.Profile
	pairings map[string]mentorship.Pairing
	sessions map[string]mentorship.Session

	// insertion order, used for stable listings
	profileOrder []string
	pairingOrder []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]mentorship.Profile),
		pairings: make(map[string]mentorship.Pairing),
		sessions: make(map[string]mentorship.Session),
	}
}

var _ mentorship.Store = (*Store)(nil)

// Profiles implements mentorship.Store.
func (s *Store) Profiles() mentorship.ProfileStore { return (*profileStore)(s) }

// Pairings implements mentorship.Store.
func (s *Store) Pairings() mentorship.PairingStore { return (*pairingStore)(s) }

// Sessions implements mentorship.Store.
func (s *Store) Sessions() mentorship.SessionStore { return (*sessionStore)(s) }

// Ping implements mentorship.Store.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close implements mentorship.Store.
func (s *Store) Close() {}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// ══════════════════════════════════════════════════════════════════════════════

type profileStore Store

func (s *profileStore) CreateProfile(ctx context.Context, p *mentorship.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; ok {
		return shared.NewDomainError("profile", "Create", shared.ErrValidation, "profile already exists")
	}
	if p.OwnerAccountID != nil {
		for _, existing := range s.profiles {
			if existing.Role == p.Role && existing.OwnedBy(*p.OwnerAccountID) {
				return shared.NewDomainError("profile", "Create", shared.ErrValidation,
					"account already owns a profile with this role")
			}
		}
	}

	s.profiles[p.ID] = cloneProfile(*p)
	s.profileOrder = append(s.profileOrder, p.ID)
	return nil
}

func (s *profileStore) UpdateProfile(ctx context.Context, p *mentorship.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[p.ID]
	if !ok {
		return shared.ErrProfileNotFound
	}

	updated := cloneProfile(*p)
	updated.Role = existing.Role
	updated.OwnerAccountID = existing.OwnerAccountID
	updated.CreatedAt = existing.CreatedAt
	s.profiles[p.ID] = updated
	return nil
}

func (s *profileStore) DeleteProfile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return shared.ErrProfileNotFound
	}
	for _, p := range s.pairings {
		if p.HasParty(id) {
			return shared.ErrProfileInUse
		}
	}

	delete(s.profiles, id)
	s.profileOrder = removeID(s.profileOrder, id)
	return nil
}

func (s *profileStore) GetProfile(ctx context.Context, id string) (*mentorship.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (s *profileStore) FindProfilesByRole(ctx context.Context, role mentorship.Role) ([]mentorship.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mentorship.Profile, 0)
	for _, id := range s.profileOrder {
		if p := s.profiles[id]; p.Role == role {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

func (s *profileStore) FindProfileByOwnerAccount(ctx context.Context, accountID string, role mentorship.Role) (*mentorship.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.profileOrder {
		p := s.profiles[id]
		if p.Role == role && p.OwnedBy(accountID) {
			out := cloneProfile(p)
			return &out, nil
		}
	}
	return nil, shared.ErrProfileNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// PAIRINGS
// ══════════════════════════════════════════════════════════════════════════════

type pairingStore Store

func (s *pairingStore) CreateActivePairing(ctx context.Context, p *mentorship.Pairing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.MentorID]; !ok {
		return shared.ErrProfileNotFound
	}
	if _, ok := s.profiles[p.LearnerID]; !ok {
		return shared.ErrProfileNotFound
	}
	for _, existing := range s.pairings {
		if existing.LearnerID == p.LearnerID && existing.IsActive() {
			return shared.ErrLearnerAlreadyPaired
		}
	}

	s.pairings[p.ID] = *p
	s.pairingOrder = append(s.pairingOrder, p.ID)
	return nil
}

func (s *pairingStore) GetPairing(ctx context.Context, id string) (*mentorship.Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pairings[id]
	if !ok {
		return nil, shared.ErrPairingNotFound
	}
	return &p, nil
}

func (s *pairingStore) GetActivePairingForLearner(ctx context.Context, learnerID string) (*mentorship.Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.pairingOrder {
		if p := s.pairings[id]; p.LearnerID == learnerID && p.IsActive() {
			return &p, nil
		}
	}
	return nil, shared.ErrPairingNotFound
}

func (s *pairingStore) ListActivePairingsForMentor(ctx context.Context, mentorID string) ([]mentorship.Pairing, error) {
	return s.listActive(ctx, func(p mentorship.Pairing) bool { return p.MentorID == mentorID })
}

func (s *pairingStore) ListActivePairings(ctx context.Context) ([]mentorship.Pairing, error) {
	return s.listActive(ctx, func(mentorship.Pairing) bool { return true })
}

func (s *pairingStore) listActive(ctx context.Context, keep func(mentorship.Pairing) bool) ([]mentorship.Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mentorship.Pairing, 0)
	for _, id := range s.pairingOrder {
		if p := s.pairings[id]; p.IsActive() && keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *pairingStore) EndPairing(ctx context.Context, id string, endedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pairings[id]
	if !ok {
		return shared.ErrPairingNotFound
	}
	if !p.IsActive() {
		return shared.WrapError("pairing", "End", shared.ErrConcurrentModification, "pairing is not active", nil)
	}

	at := endedAt.UTC()
	p.Status = mentorship.PairingEnded
	p.EndedAt = &at
	s.pairings[id] = p
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

type sessionStore Store

func (s *sessionStore) CreateSession(ctx context.Context, sess *mentorship.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pairings[sess.PairingID]; !ok {
		return shared.ErrPairingNotFound
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *sessionStore) GetSession(ctx context.Context, id string) (*mentorship.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *sessionStore) ListSessionsByPairing(ctx context.Context, pairingID string) ([]mentorship.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mentorship.Session, 0)
	for _, sess := range s.sessions {
		if sess.PairingID == pairingID {
			out = append(out, sess)
		}
	}
	// map order is random; fix it before the stable sort
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	mentorship.SortSessions(out)
	return out, nil
}

func (s *sessionStore) TransitionSession(ctx context.Context, sess *mentorship.Session, from mentorship.SessionStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[sess.ID]
	if !ok {
		return shared.ErrSessionNotFound
	}
	if current.Status != from {
		return shared.WrapError("session", "Transition", shared.ErrConcurrentModification,
			"session status changed concurrently", nil)
	}

	current.Status = sess.Status
	current.Notes = sess.Notes
	current.CompletedAt = sess.CompletedAt
	s.sessions[sess.ID] = current
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func cloneProfile(p mentorship.Profile) mentorship.Profile {
	p.Subjects = append(mentorship.StringList(nil), p.Subjects...)
	p.Skills = append(mentorship.StringList(nil), p.Skills...)
	if p.OwnerAccountID != nil {
		owner := *p.OwnerAccountID
		p.OwnerAccountID = &owner
	}
	return p
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
