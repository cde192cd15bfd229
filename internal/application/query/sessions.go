package query

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/timeutil"
)

// SessionView is a session plus the flags derived at read time.
type SessionView struct {
	mentorship.Session
	IsNewRequest bool `json:"is_new_request"`
	IsUpcoming   bool `json:"is_upcoming"`
}

// SessionQueries answers read questions about sessions.
type SessionQueries struct {
	pairings mentorship.PairingStore
	sessions mentorship.SessionStore
	clock    timeutil.Clock
	window   time.Duration
}

// NewSessionQueries creates a new SessionQueries. window is the age under
// which a requested session counts as a new request.
func NewSessionQueries(store mentorship.Store, clock timeutil.Clock, window time.Duration) *SessionQueries {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if window <= 0 {
		window = mentorship.DefaultNewRequestWindow
	}
	return &SessionQueries{
		pairings: store.Pairings(),
		sessions: store.Sessions(),
		clock:    clock,
		window:   window,
	}
}

// ListSessionsForPairing returns the pairing's sessions, latest first.
// Both parties and admins may list them.
func (q *SessionQueries) ListSessionsForPairing(ctx context.Context, caller mentorship.Caller, pairingID string) ([]SessionView, error) {
	pairing, err := q.pairings.GetPairing(ctx, pairingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !caller.IsPartyOf(pairing) {
		return nil, shared.ErrNotPairingMember
	}
	return q.list(ctx, pairingID)
}

// PendingNewRequests returns the requested sessions younger than the
// new-request window across the mentor's active pairings.
func (q *SessionQueries) PendingNewRequests(ctx context.Context, caller mentorship.Caller, mentorID string) ([]SessionView, error) {
	if !caller.CanActForMentor(mentorID) {
		return nil, shared.NewDomainError("session", "PendingNew", shared.ErrForbidden,
			"only the mentor or an admin can see pending requests")
	}
	pairings, err := q.pairings.ListActivePairingsForMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("pending_new_requests: %w", err)
	}

	out := []SessionView{}
	for _, p := range pairings {
		views, err := q.list(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, filterNew(views)...)
	}
	return out, nil
}

func (q *SessionQueries) list(ctx context.Context, pairingID string) ([]SessionView, error) {
	sessions, err := q.sessions.ListSessionsByPairing(ctx, pairingID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return q.views(sessions), nil
}

func (q *SessionQueries) views(sessions []mentorship.Session) []SessionView {
	now := q.clock.Now()
	out := make([]SessionView, len(sessions))
	for i, s := range sessions {
		out[i] = SessionView{
			Session:      s,
			IsNewRequest: s.IsPendingNewRequest(now, q.window),
			IsUpcoming:   !s.Status.IsFinal() && timeutil.IsOnOrAfterDay(s.Date, now),
		}
	}
	return out
}

func filterNew(views []SessionView) []SessionView {
	var out []SessionView
	for _, v := range views {
		if v.IsNewRequest {
			out = append(out, v)
		}
	}
	return out
}
