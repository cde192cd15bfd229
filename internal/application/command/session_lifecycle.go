package command

import (
	"context"
	"errors"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION LIFECYCLE
// Requests sessions inside a pairing and moves them through
// requested → confirmed/cancelled → completed. Only the pairing's mentor may
// confirm, reject or complete.
// ══════════════════════════════════════════════════════════════════════════════

// RejectSessionCommand carries the optional rejection reason.
type RejectSessionCommand struct {
	SessionID string
	Reason    string
}

// CompleteSessionCommand carries the mandatory session notes.
type CompleteSessionCommand struct {
	SessionID string
	Notes     string
}

// SessionLifecycle handles session commands.
type SessionLifecycle struct {
	base
	pairings mentorship.PairingStore
	sessions mentorship.SessionStore
}

// NewSessionLifecycle creates a new SessionLifecycle.
func NewSessionLifecycle(store mentorship.Store, opts Options) *SessionLifecycle {
	return &SessionLifecycle{
		base:     base{Options: opts.withDefaults("session_lifecycle")},
		pairings: store.Pairings(),
		sessions: store.Sessions(),
	}
}

// RequestSession creates a session in the requested state. Either party of
// an active pairing, or an admin, may request one.
func (l *SessionLifecycle) RequestSession(ctx context.Context, caller mentorship.Caller, req mentorship.SessionRequest) (*mentorship.Session, error) {
	const op = "request_session"
	fields := []logger.Field{logger.PairingID(req.PairingID)}

	if req.PairingID == "" {
		return nil, shared.NewValidationError("pairing_id", "is required")
	}

	pairing, err := l.pairings.GetPairing(ctx, req.PairingID)
	if err != nil {
		return nil, l.rejected(op, err, fields...)
	}
	if !caller.IsAdmin() && !caller.IsPartyOf(pairing) {
		return nil, l.rejected(op, shared.ErrNotPairingMember, fields...)
	}
	if !pairing.IsActive() {
		return nil, l.rejected(op, shared.ErrPairingEnded, fields...)
	}

	session, err := mentorship.NewSession(req, l.Clock.Now())
	if err != nil {
		return nil, err
	}

	err = l.write(ctx, op, func(ctx context.Context) error {
		return l.sessions.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, l.rejected(op, err, fields...)
	}

	l.Logger.Info("session requested", append(fields, logger.SessionID(session.ID))...)
	l.publish(shared.NewSessionEvent(shared.EventSessionRequested,
		session.ID, session.PairingID, "", string(session.Status), caller.Account.ID, session.CreatedAt))

	return session, nil
}

// ConfirmSession moves a requested session to confirmed.
func (l *SessionLifecycle) ConfirmSession(ctx context.Context, caller mentorship.Caller, sessionID string) (*mentorship.Session, error) {
	return l.transition(ctx, caller, sessionID, "confirm_session", shared.EventSessionConfirmed,
		func(s *mentorship.Session) error { return s.Confirm() })
}

// RejectSession cancels a requested session, recording the reason.
func (l *SessionLifecycle) RejectSession(ctx context.Context, caller mentorship.Caller, cmd RejectSessionCommand) (*mentorship.Session, error) {
	return l.transition(ctx, caller, cmd.SessionID, "reject_session", shared.EventSessionRejected,
		func(s *mentorship.Session) error { return s.Reject(cmd.Reason) })
}

// CompleteSession records notes and completes a requested or confirmed session.
func (l *SessionLifecycle) CompleteSession(ctx context.Context, caller mentorship.Caller, cmd CompleteSessionCommand) (*mentorship.Session, error) {
	return l.transition(ctx, caller, cmd.SessionID, "complete_session", shared.EventSessionCompleted,
		func(s *mentorship.Session) error { return s.Complete(cmd.Notes, l.Clock.Now()) })
}

// transition loads the session, authorizes the caller as the pairing's
// mentor, applies the state change and persists it with a compare-and-swap
// on the previous status. A lost race reloads once and re-evaluates, so the
// loser sees the state the winner left behind.
func (l *SessionLifecycle) transition(
	ctx context.Context,
	caller mentorship.Caller,
	sessionID string,
	op string,
	eventType shared.EventType,
	apply func(*mentorship.Session) error,
) (*mentorship.Session, error) {
	fields := []logger.Field{logger.SessionID(sessionID)}

	for attempt := 0; ; attempt++ {
		session, err := l.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, l.rejected(op, err, fields...)
		}
		pairing, err := l.pairings.GetPairing(ctx, session.PairingID)
		if err != nil {
			return nil, l.rejected(op, err, fields...)
		}
		if !caller.IsMentorOf(pairing) {
			return nil, l.rejected(op, shared.ErrNotPairingMentor, fields...)
		}

		from := session.Status
		if err := apply(session); err != nil {
			return nil, l.rejected(op, err, append(fields, logger.String("status", string(from)))...)
		}

		err = l.write(ctx, op, func(ctx context.Context) error {
			return l.sessions.TransitionSession(ctx, session, from)
		})
		if errors.Is(err, shared.ErrConcurrentModification) {
			if attempt == 0 {
				l.Logger.Debug("session changed concurrently, re-evaluating", fields...)
				continue
			}
			err = shared.WrapError("session", "Transition", shared.ErrInvalidTransition,
				"session changed concurrently", err)
		}
		if err != nil {
			return nil, l.rejected(op, err, fields...)
		}

		l.Logger.Info("session transitioned", append(fields,
			logger.String("from", string(from)),
			logger.String("to", string(session.Status)),
		)...)
		l.publish(shared.NewSessionEvent(eventType,
			session.ID, session.PairingID, string(from), string(session.Status), caller.Account.ID, l.Clock.Now()))

		return session, nil
	}
}
