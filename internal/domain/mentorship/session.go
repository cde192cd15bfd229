package mentorship

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STATE MACHINE
//
//   requested ──confirm──▶ confirmed ──complete──▶ completed
//       │                                              ▲
//       ├──────────────────complete────────────────────┘
//       └──reject──▶ cancelled
//
// completed and cancelled are terminal. Confirmation is optional.
// ══════════════════════════════════════════════════════════════════════════════

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionRequested SessionStatus = "requested"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionRequested, SessionConfirmed, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// IsFinal reports whether s is terminal.
func (s SessionStatus) IsFinal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionRequested:
		return next == SessionConfirmed || next == SessionCancelled || next == SessionCompleted
	case SessionConfirmed:
		return next == SessionCompleted
	}
	return false
}

// Modality is how the session takes place.
type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVirtual  Modality = "virtual"
)

// IsValid reports whether m is a known modality.
func (m Modality) IsValid() bool {
	return m == ModalityInPerson || m == ModalityVirtual
}

const (
	// DefaultNewRequestWindow is how long a requested session counts as new.
	DefaultNewRequestWindow = 24 * time.Hour

	// DefaultRejectReason is recorded when the mentor gives no reason.
	DefaultRejectReason = "Not specified"
)

// RejectionNotes formats the notes stored on a rejected session.
func RejectionNotes(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}
	return "Rejected by mentor. Reason: " + reason
}

// Session is a single scheduled meeting within a pairing. Sessions are
// never deleted; rejection moves them to cancelled.
type Session struct {
	ID          string        `json:"id"`
	PairingID   string        `json:"pairing_id"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Topic       string        `json:"topic"`
	Modality    Modality      `json:"modality"`
	Status      SessionStatus `json:"status"`
	Notes       string        `json:"notes"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SessionRequest holds the caller-supplied fields of a new session.
type SessionRequest struct {
	PairingID string   `json:"pairing_id" validate:"required"`
	Date      string   `json:"date" validate:"required,sessiondate"`
	Time      string   `json:"time" validate:"required,sessiontime"`
	Topic     string   `json:"topic" validate:"notblank,max=200"`
	Modality  Modality `json:"modality" validate:"required,oneof=in_person virtual"`
}

// NewSession validates req and builds a session in the requested state.
func NewSession(req SessionRequest, now time.Time) (*Session, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Topic = strings.TrimSpace(req.Topic)

	if err := Validate(&req); err != nil {
		return nil, err
	}

	// Normalize to fixed width so string order stays chronological.
	t, _ := time.Parse(TimeLayout, req.Time)
	req.Time = t.Format(TimeLayout)

	return &Session{
		ID:        uuid.NewString(),
		PairingID: req.PairingID,
		Date:      req.Date,
		Time:      req.Time,
		Topic:     req.Topic,
		Modality:  req.Modality,
		Status:    SessionRequested,
		CreatedAt: now.UTC(),
	}, nil
}

// Confirm moves a requested session to confirmed.
func (s *Session) Confirm() error {
	if s.Status != SessionRequested {
		return s.transitionError()
	}
	s.Status = SessionConfirmed
	return nil
}

// Reject cancels a requested session and records the reason in Notes.
func (s *Session) Reject(reason string) error {
	if s.Status != SessionRequested {
		return s.transitionError()
	}
	s.Status = SessionCancelled
	s.Notes = RejectionNotes(reason)
	return nil
}

// Complete records notes and moves the session to completed.
// Blank notes leave the session untouched.
func (s *Session) Complete(notes string, now time.Time) error {
	if !s.Status.CanTransitionTo(SessionCompleted) {
		return s.transitionError()
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return shared.NewValidationError("notes", "is required to complete a session")
	}

	completed := now.UTC()
	s.Status = SessionCompleted
	s.Notes = notes
	s.CompletedAt = &completed
	return nil
}

// IsPendingNewRequest reports whether the session is still awaiting the
// mentor and was requested less than window ago. It is derived on every read.
func (s *Session) IsPendingNewRequest(now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultNewRequestWindow
	}
	return s.Status == SessionRequested && now.Sub(s.CreatedAt) < window
}

func (s *Session) transitionError() error {
	if s.Status.IsFinal() {
		return shared.ErrSessionTerminal
	}
	return shared.ErrSessionNotPending
}

// SortSessions orders sessions by date then time, most recent first.
// Both fields are fixed-width, so string order equals chronological order.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
