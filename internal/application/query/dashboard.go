package query

import (
	"context"
	"fmt"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD QUERY
// One entry point for both sides of a pairing; the caller's role picks the view.
// ══════════════════════════════════════════════════════════════════════════════

// StatusCounts counts sessions per status.
type StatusCounts map[mentorship.SessionStatus]int

// Mentee is an active pairing seen from the mentor side.
type Mentee struct {
	Pairing mentorship.Pairing  `json:"pairing"`
	Learner *mentorship.Profile `json:"learner"`
}

// MentorDashboard is the mentor's overview.
type MentorDashboard struct {
	Profile    *mentorship.Profile `json:"profile"`
	Mentees    []Mentee            `json:"mentees"`
	Sessions   []SessionView       `json:"sessions"`
	PendingNew []SessionView       `json:"pending_new_requests"`
	Counts     StatusCounts        `json:"counts"`
}

// LearnerDashboard is the learner's overview.
type LearnerDashboard struct {
	Profile  *mentorship.Profile `json:"profile"`
	Pairing  *mentorship.Pairing `json:"pairing,omitempty"`
	Mentor   *mentorship.Profile `json:"mentor,omitempty"`
	Sessions []SessionView       `json:"sessions"`
	Counts   StatusCounts        `json:"counts"`
}

// Dashboard holds exactly one of the role views.
type Dashboard struct {
	Role    mentorship.Role   `json:"role"`
	Mentor  *MentorDashboard  `json:"mentor,omitempty"`
	Learner *LearnerDashboard `json:"learner,omitempty"`
}

// DashboardHandler builds dashboards.
type DashboardHandler struct {
	profiles mentorship.ProfileStore
	pairings mentorship.PairingStore
	sessions *SessionQueries
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store mentorship.Store, sessions *SessionQueries) *DashboardHandler {
	return &DashboardHandler{
		profiles: store.Profiles(),
		pairings: store.Pairings(),
		sessions: sessions,
	}
}

// Handle returns the dashboard of the caller's role.
func (h *DashboardHandler) Handle(ctx context.Context, caller mentorship.Caller) (*Dashboard, error) {
	switch {
	case caller.IsMentor():
		d, err := h.mentor(ctx, caller.ProfileID)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: mentorship.RoleMentor, Mentor: d}, nil
	case caller.IsLearner():
		d, err := h.learner(ctx, caller.ProfileID)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: mentorship.RoleLearner, Learner: d}, nil
	default:
		return nil, shared.NewDomainError("dashboard", "Get", shared.ErrForbidden,
			"dashboards are available to mentors and learners with a profile")
	}
}

func (h *DashboardHandler) mentor(ctx context.Context, profileID string) (*MentorDashboard, error) {
	profile, err := h.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("mentor_dashboard: %w", err)
	}
	pairings, err := h.pairings.ListActivePairingsForMentor(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("mentor_dashboard: %w", err)
	}

	d := &MentorDashboard{
		Profile: profile,
		Mentees: make([]Mentee, 0, len(pairings)),
	}
	var all []mentorship.Session
	for _, p := range pairings {
		learner, err := h.profiles.GetProfile(ctx, p.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("mentor_dashboard: load learner: %w", err)
		}
		d.Mentees = append(d.Mentees, Mentee{Pairing: p, Learner: learner})

		sessions, err := h.sessions.sessions.ListSessionsByPairing(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("mentor_dashboard: %w", err)
		}
		all = append(all, sessions...)
	}
	mentorship.SortSessions(all)

	d.Sessions = h.sessions.views(all)
	d.PendingNew = filterNew(d.Sessions)
	if d.PendingNew == nil {
		d.PendingNew = []SessionView{}
	}
	d.Counts = countStatuses(d.Sessions)
	return d, nil
}

func (h *DashboardHandler) learner(ctx context.Context, profileID string) (*LearnerDashboard, error) {
	profile, err := h.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("learner_dashboard: %w", err)
	}

	d := &LearnerDashboard{Profile: profile, Sessions: []SessionView{}, Counts: StatusCounts{}}

	pairing, err := h.pairings.GetActivePairingForLearner(ctx, profileID)
	if shared.IsNotFound(err) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learner_dashboard: %w", err)
	}
	d.Pairing = pairing

	if d.Mentor, err = h.profiles.GetProfile(ctx, pairing.MentorID); err != nil {
		return nil, fmt.Errorf("learner_dashboard: load mentor: %w", err)
	}
	if d.Sessions, err = h.sessions.list(ctx, pairing.ID); err != nil {
		return nil, err
	}
	d.Counts = countStatuses(d.Sessions)
	return d, nil
}

func countStatuses(views []SessionView) StatusCounts {
	counts := StatusCounts{}
	for _, v := range views {
		counts[v.Status]++
	}
	return counts
}
