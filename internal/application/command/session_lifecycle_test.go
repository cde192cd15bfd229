package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

type sessionFixture struct {
	*fixture
	lifecycle *SessionLifecycle
	pairing   *mentorship.Pairing
	mentor    mentorship.Caller
	learner   mentorship.Caller
}

func newSessionFixture(t *testing.T) *sessionFixture {
	f := newFixture(t)
	m, mentor := f.mentor(t, "ada")
	l, learner := f.learner(t, "lin")
	return &sessionFixture{
		fixture:   f,
		lifecycle: NewSessionLifecycle(f.store, f.opts),
		pairing:   f.pair(t, m.ID, l.ID),
		mentor:    mentor,
		learner:   learner,
	}
}

func (f *sessionFixture) request(t *testing.T) *mentorship.Session {
	t.Helper()
	s, err := f.lifecycle.RequestSession(context.Background(), f.learner, mentorship.SessionRequest{
		PairingID: f.pairing.ID,
		Date:      "2024-03-05",
		Time:      "14:30",
		Topic:     "Code review",
		Modality:  mentorship.ModalityVirtual,
	})
	require.NoError(t, err)
	return s
}

func (f *sessionFixture) stored(t *testing.T, id string) *mentorship.Session {
	t.Helper()
	s, err := f.store.Sessions().GetSession(context.Background(), id)
	require.NoError(t, err)
	return s
}

func TestRequestSession(t *testing.T) {
	f := newSessionFixture(t)

	s := f.request(t)

	assert.Equal(t, mentorship.SessionRequested, s.Status)
	assert.Equal(t, f.pairing.ID, s.PairingID)
	assert.Equal(t, epoch, s.CreatedAt)
	assert.Equal(t, mentorship.SessionRequested, f.stored(t, s.ID).Status)
	assert.Contains(t, f.events.types(), shared.EventSessionRequested)
}

func TestRequestSession_Rules(t *testing.T) {
	f := newSessionFixture(t)
	_, stranger := f.fixture.learner(t, "sam")
	ctx := context.Background()
	valid := mentorship.SessionRequest{
		PairingID: f.pairing.ID, Date: "2024-03-05", Time: "9:00", Topic: "Intro", Modality: mentorship.ModalityInPerson,
	}

	t.Run("mentor may request too", func(t *testing.T) {
		s, err := f.lifecycle.RequestSession(ctx, f.mentor, valid)
		require.NoError(t, err)
		assert.Equal(t, "09:00", s.Time)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := f.lifecycle.RequestSession(ctx, stranger, valid)
		assert.True(t, shared.IsForbidden(err))
	})

	t.Run("unknown pairing", func(t *testing.T) {
		req := valid
		req.PairingID = "missing"
		_, err := f.lifecycle.RequestSession(ctx, f.learner, req)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		req := valid
		req.Date = "05/03/2024"
		req.Modality = "carrier pigeon"
		_, err := f.lifecycle.RequestSession(ctx, f.learner, req)

		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "date")
		assert.Contains(t, verr.Fields, "modality")
	})

	t.Run("ended pairing", func(t *testing.T) {
		_, err := NewPairingRegistry(f.store, f.opts).EndPairing(ctx, admin(), f.pairing.ID)
		require.NoError(t, err)

		_, err = f.lifecycle.RequestSession(ctx, f.learner, valid)
		assert.True(t, shared.IsInvalidTransition(err))
	})
}

func TestConfirmThenComplete(t *testing.T) {
	f := newSessionFixture(t)
	s := f.request(t)
	ctx := context.Background()

	confirmed, err := f.lifecycle.ConfirmSession(ctx, f.mentor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.SessionConfirmed, confirmed.Status)

	f.clock.Advance(3 * time.Hour)
	done, err := f.lifecycle.CompleteSession(ctx, f.mentor, CompleteSessionCommand{SessionID: s.ID, Notes: "Covered channels"})
	require.NoError(t, err)

	stored := f.stored(t, s.ID)
	assert.Equal(t, mentorship.SessionCompleted, stored.Status)
	assert.Equal(t, "Covered channels", stored.Notes)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, epoch.Add(3*time.Hour), *stored.CompletedAt)
	assert.Equal(t, done.CompletedAt, stored.CompletedAt)

	assert.Equal(t, []shared.EventType{
		shared.EventPairingCreated,
		shared.EventSessionRequested,
		shared.EventSessionConfirmed,
		shared.EventSessionCompleted,
	}, f.events.types())
}

func TestCompleteWithoutConfirm(t *testing.T) {
	f := newSessionFixture(t)
	s := f.request(t)

	_, err := f.lifecycle.CompleteSession(context.Background(), f.mentor, CompleteSessionCommand{SessionID: s.ID, Notes: "Done"})

	require.NoError(t, err)
	assert.Equal(t, mentorship.SessionCompleted, f.stored(t, s.ID).Status)
}

func TestCompleteRequiresNotes(t *testing.T) {
	f := newSessionFixture(t)
	s := f.request(t)

	_, err := f.lifecycle.CompleteSession(context.Background(), f.mentor, CompleteSessionCommand{SessionID: s.ID, Notes: "   "})

	assert.True(t, shared.IsValidation(err))
	stored := f.stored(t, s.ID)
	assert.Equal(t, mentorship.SessionRequested, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestRejectSession(t *testing.T) {
	tests := []struct {
		reason string
		notes  string
	}{
		{"Schedule conflict", "Rejected by mentor. Reason: Schedule conflict"},
		{"", "Rejected by mentor. Reason: Not specified"},
	}
	for _, tt := range tests {
		t.Run(tt.notes, func(t *testing.T) {
			f := newSessionFixture(t)
			s := f.request(t)

			_, err := f.lifecycle.RejectSession(context.Background(), f.mentor, RejectSessionCommand{SessionID: s.ID, Reason: tt.reason})
			require.NoError(t, err)

			stored := f.stored(t, s.ID)
			assert.Equal(t, mentorship.SessionCancelled, stored.Status)
			assert.Equal(t, tt.notes, stored.Notes)
		})
	}
}

func TestTransitions_OnlyPairingMentor(t *testing.T) {
	f := newSessionFixture(t)
	_, otherMentor := f.fixture.mentor(t, "grace")
	s := f.request(t)
	ctx := context.Background()

	for name, caller := range map[string]mentorship.Caller{
		"learner":      f.learner,
		"other mentor": otherMentor,
		"admin":        admin(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.lifecycle.ConfirmSession(ctx, caller, s.ID)
			assert.True(t, shared.IsForbidden(err))
			_, err = f.lifecycle.RejectSession(ctx, caller, RejectSessionCommand{SessionID: s.ID})
			assert.True(t, shared.IsForbidden(err))
			_, err = f.lifecycle.CompleteSession(ctx, caller, CompleteSessionCommand{SessionID: s.ID, Notes: "x"})
			assert.True(t, shared.IsForbidden(err))
		})
	}
	assert.Equal(t, mentorship.SessionRequested, f.stored(t, s.ID).Status)
}

func TestTransitions_FromWrongState(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	confirmed := f.request(t)
	_, err := f.lifecycle.ConfirmSession(ctx, f.mentor, confirmed.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.ConfirmSession(ctx, f.mentor, confirmed.ID)
	assert.True(t, shared.IsInvalidTransition(err), "confirm twice")
	_, err = f.lifecycle.RejectSession(ctx, f.mentor, RejectSessionCommand{SessionID: confirmed.ID})
	assert.True(t, shared.IsInvalidTransition(err), "reject confirmed")

	cancelled := f.request(t)
	_, err = f.lifecycle.RejectSession(ctx, f.mentor, RejectSessionCommand{SessionID: cancelled.ID})
	require.NoError(t, err)

	_, err = f.lifecycle.CompleteSession(ctx, f.mentor, CompleteSessionCommand{SessionID: cancelled.ID, Notes: "late"})
	assert.ErrorIs(t, err, shared.ErrSessionTerminal)

	_, err = f.lifecycle.ConfirmSession(ctx, f.mentor, "missing")
	assert.True(t, shared.IsNotFound(err))
}

// racingSessions lets a competing writer win the first compare-and-swap.
type racingSessions struct {
	mentorship.SessionStore
	compete func(ctx context.Context, s *mentorship.Session)
	raced   bool
}

func (r *racingSessions) TransitionSession(ctx context.Context, s *mentorship.Session, from mentorship.SessionStatus) error {
	if !r.raced {
		r.raced = true
		r.compete(ctx, s)
	}
	return r.SessionStore.TransitionSession(ctx, s, from)
}

func TestTransition_LostRaceReevaluates(t *testing.T) {
	f := newSessionFixture(t)
	s := f.request(t)
	ctx := context.Background()

	racing := &racingSessions{
		SessionStore: f.mem.Sessions(),
		compete: func(ctx context.Context, mine *mentorship.Session) {
			winner := *f.stored(t, mine.ID)
			require.NoError(t, winner.Confirm())
			require.NoError(t, f.mem.Sessions().TransitionSession(ctx, &winner, mentorship.SessionRequested))
		},
	}
	lifecycle := NewSessionLifecycle(storeWith{Store: f.mem, sessions: racing}, f.opts)

	_, err := lifecycle.RejectSession(ctx, f.mentor, RejectSessionCommand{SessionID: s.ID, Reason: "busy"})

	assert.True(t, shared.IsInvalidTransition(err), "got %v", err)
	assert.Equal(t, mentorship.SessionConfirmed, f.stored(t, s.ID).Status)
}

func TestTransition_LostRaceToCompatibleChangeSucceeds(t *testing.T) {
	f := newSessionFixture(t)
	s := f.request(t)
	ctx := context.Background()

	racing := &racingSessions{
		SessionStore: f.mem.Sessions(),
		compete: func(ctx context.Context, mine *mentorship.Session) {
			winner := *f.stored(t, mine.ID)
			require.NoError(t, winner.Confirm())
			require.NoError(t, f.mem.Sessions().TransitionSession(ctx, &winner, mentorship.SessionRequested))
		},
	}
	lifecycle := NewSessionLifecycle(storeWith{Store: f.mem, sessions: racing}, f.opts)

	// completing is still valid from confirmed, so the re-evaluation succeeds
	done, err := lifecycle.CompleteSession(ctx, f.mentor, CompleteSessionCommand{SessionID: s.ID, Notes: "ok"})

	require.NoError(t, err)
	assert.Equal(t, mentorship.SessionCompleted, done.Status)
	assert.Equal(t, mentorship.SessionCompleted, f.stored(t, s.ID).Status)
}
