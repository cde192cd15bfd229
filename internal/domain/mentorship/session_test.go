package mentorship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRequested(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(SessionRequest{
		PairingID: "p1",
		Date:      "2026-03-10",
		Time:      "14:30",
		Topic:     "Graph algorithms",
		Modality:  ModalityVirtual,
	}, baseTime)
	require.NoError(t, err)
	return s
}

func TestNewSession_StartsRequested(t *testing.T) {
	s := newRequested(t)

	assert.Equal(t, SessionRequested, s.Status)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Notes)
	assert.Nil(t, s.CompletedAt)
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(SessionRequest{
		PairingID: "p1",
		Date:      "10/03/2026",
		Time:      "25:00",
		Topic:     "   ",
		Modality:  "carrier pigeon",
	}, baseTime)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "time")
	assert.Contains(t, verr.Fields, "topic")
	assert.Contains(t, verr.Fields, "modality")
}

func TestNewSession_NormalizesTime(t *testing.T) {
	s, err := NewSession(SessionRequest{
		PairingID: "p1",
		Date:      "2026-03-10",
		Time:      "9:05",
		Topic:     "Intro",
		Modality:  ModalityInPerson,
	}, baseTime)

	require.NoError(t, err)
	assert.Equal(t, "09:05", s.Time)
}

func TestSession_ConfirmThenComplete(t *testing.T) {
	s := newRequested(t)

	require.NoError(t, s.Confirm())
	assert.Equal(t, SessionConfirmed, s.Status)

	done := baseTime.Add(2 * time.Hour)
	require.NoError(t, s.Complete("  covered BFS and DFS ", done))
	assert.Equal(t, SessionCompleted, s.Status)
	assert.Equal(t, "covered BFS and DFS", s.Notes)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, done, *s.CompletedAt)
}

func TestSession_CompleteWithoutConfirm(t *testing.T) {
	s := newRequested(t)

	require.NoError(t, s.Complete("done", baseTime))
	assert.Equal(t, SessionCompleted, s.Status)
}

func TestSession_CompleteRequiresNotes(t *testing.T) {
	s := newRequested(t)
	require.NoError(t, s.Confirm())

	err := s.Complete("   ", baseTime)

	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, SessionConfirmed, s.Status)
	assert.Nil(t, s.CompletedAt)
}

func TestSession_Reject(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		s := newRequested(t)
		require.NoError(t, s.Reject("schedule conflict"))
		assert.Equal(t, SessionCancelled, s.Status)
		assert.Equal(t, "Rejected by mentor. Reason: schedule conflict", s.Notes)
	})

	t.Run("blank reason", func(t *testing.T) {
		s := newRequested(t)
		require.NoError(t, s.Reject(""))
		assert.Equal(t, "Rejected by mentor. Reason: Not specified", s.Notes)
	})

	t.Run("confirmed session cannot be rejected", func(t *testing.T) {
		s := newRequested(t)
		require.NoError(t, s.Confirm())
		assert.True(t, shared.IsInvalidTransition(s.Reject("late")))
		assert.Equal(t, SessionConfirmed, s.Status)
	})
}

func TestSession_TerminalStates(t *testing.T) {
	completed := newRequested(t)
	require.NoError(t, completed.Complete("notes", baseTime))

	cancelled := newRequested(t)
	require.NoError(t, cancelled.Reject("no"))

	for _, s := range []*Session{completed, cancelled} {
		status := s.Status
		assert.ErrorIs(t, s.Confirm(), shared.ErrInvalidTransition)
		assert.ErrorIs(t, s.Reject("x"), shared.ErrInvalidTransition)
		assert.ErrorIs(t, s.Complete("x", baseTime), shared.ErrInvalidTransition)
		assert.Equal(t, status, s.Status)
	}
}

func TestSession_ConfirmTwice(t *testing.T) {
	s := newRequested(t)
	require.NoError(t, s.Confirm())
	assert.ErrorIs(t, s.Confirm(), shared.ErrInvalidTransition)
}

func TestSession_IsPendingNewRequest(t *testing.T) {
	s := newRequested(t)

	assert.True(t, s.IsPendingNewRequest(baseTime.Add(23*time.Hour), DefaultNewRequestWindow))
	assert.False(t, s.IsPendingNewRequest(baseTime.Add(25*time.Hour), DefaultNewRequestWindow))
	assert.False(t, s.IsPendingNewRequest(baseTime.Add(24*time.Hour), DefaultNewRequestWindow))
	assert.True(t, s.IsPendingNewRequest(baseTime.Add(time.Hour), 0))

	require.NoError(t, s.Confirm())
	assert.False(t, s.IsPendingNewRequest(baseTime.Add(time.Hour), DefaultNewRequestWindow))
}

func TestSortSessions(t *testing.T) {
	sessions := []Session{
		{ID: "a", Date: "2026-03-01", Time: "10:00"},
		{ID: "b", Date: "2026-03-05", Time: "09:00"},
		{ID: "c", Date: "2026-03-05", Time: "16:00"},
		{ID: "d", Date: "2026-02-28", Time: "23:00"},
	}

	SortSessions(sessions)

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids)
}

func TestSessionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, SessionRequested.CanTransitionTo(SessionConfirmed))
	assert.True(t, SessionRequested.CanTransitionTo(SessionCompleted))
	assert.True(t, SessionConfirmed.CanTransitionTo(SessionCompleted))
	assert.False(t, SessionConfirmed.CanTransitionTo(SessionCancelled))
	assert.False(t, SessionCompleted.CanTransitionTo(SessionConfirmed))
	assert.False(t, SessionCancelled.CanTransitionTo(SessionCompleted))
}
