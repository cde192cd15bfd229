package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentorship-hub/mentorship-engine/internal/application/command"
	"github.com/mentorship-hub/mentorship-engine/internal/application/query"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports every dependency check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady is the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": status.Message,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// profileRequest is the body of profile create and update calls. Role is
// honoured only for admins creating a profile.
type profileRequest struct {
	Role         mentorship.Role `json:"role"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Track        string          `json:"track"`
	Term         int             `json:"term"`
	Subjects     []string        `json:"subjects"`
	Skills       []string        `json:"skills"`
	Availability string          `json:"availability"`
}

func (p profileRequest) params() mentorship.ProfileParams {
	return mentorship.ProfileParams{
		Role:         p.Role,
		Name:         p.Name,
		Email:        p.Email,
		Track:        p.Track,
		Term:         p.Term,
		Subjects:     p.Subjects,
		Skills:       p.Skills,
		Availability: p.Availability,
	}
}

// handleCreateProfile handles POST /api/v1/profiles
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.Profiles.CreateProfile(r.Context(), callerFrom(r.Context()), req.params())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, p)
}

// handleGetProfile handles GET /api/v1/profiles/{id}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.ProfileQueries.GetProfile(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleUpdateProfile handles PUT /api/v1/profiles/{id}
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.Profiles.UpdateProfile(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.params())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleDeleteProfile handles DELETE /api/v1/profiles/{id}
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Profiles.DeleteProfile(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING & DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRankMentors handles GET /api/v1/matches?learner_id=&limit=&min_score=
func (s *Server) handleRankMentors(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	minScore, err := queryInt(r, "min_score", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Ranking.Handle(r.Context(), callerFrom(r.Context()), query.RankMentorsQuery{
		LearnerID: r.URL.Query().Get("learner_id"),
		Limit:     limit,
		MinScore:  mentorship.MatchScore(minScore),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: len(result.Matches)})
}

// handleDashboard handles GET /api/v1/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Handle(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreatePairing handles POST /api/v1/pairings
func (s *Server) handleCreatePairing(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreatePairingCommand
	if err := s.decodeJSON(w, r, &cmd); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.Pairings.CreatePairing(r.Context(), callerFrom(r.Context()), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, p)
}

// handleEndPairing handles POST /api/v1/pairings/{id}/end
func (s *Server) handleEndPairing(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Pairings.EndPairing(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleListActivePairings handles GET /api/v1/pairings
func (s *Server) handleListActivePairings(w http.ResponseWriter, r *http.Request) {
	pairings, err := s.deps.PairingQueries.ListActivePairings(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, pairings, &ResponseMeta{TotalCount: len(pairings)})
}

// handleLearnerPairing handles GET /api/v1/learners/{id}/pairing
func (s *Server) handleLearnerPairing(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.PairingQueries.GetActivePairingForLearner(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"pairing": p})
}

// handleHasActiveMentor handles GET /api/v1/learners/{id}/has-mentor
func (s *Server) handleHasActiveMentor(w http.ResponseWriter, r *http.Request) {
	has, err := s.deps.PairingQueries.HasActiveMentor(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"has_active_mentor": has})
}

// handleMentorPairings handles GET /api/v1/mentors/{id}/pairings
func (s *Server) handleMentorPairings(w http.ResponseWriter, r *http.Request) {
	pairings, err := s.deps.PairingQueries.GetActivePairingsForMentor(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, pairings, &ResponseMeta{TotalCount: len(pairings)})
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// sessionRequest is the body of POST /api/v1/pairings/{id}/sessions.
type sessionRequest struct {
	Date     string              `json:"date"`
	Time     string              `json:"time"`
	Topic    string              `json:"topic"`
	Modality mentorship.Modality `json:"modality"`
}

// handleRequestSession handles POST /api/v1/pairings/{id}/sessions
func (s *Server) handleRequestSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.deps.Sessions.RequestSession(r.Context(), callerFrom(r.Context()), mentorship.SessionRequest{
		PairingID: chi.URLParam(r, "id"),
		Date:      req.Date,
		Time:      req.Time,
		Topic:     req.Topic,
		Modality:  req.Modality,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

// handleListSessions handles GET /api/v1/pairings/{id}/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.SessionQueries.ListSessionsForPairing(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, views, &ResponseMeta{TotalCount: len(views)})
}

// handlePendingRequests handles GET /api/v1/mentors/{id}/requests
func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.SessionQueries.PendingNewRequests(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, views, &ResponseMeta{TotalCount: len(views)})
}

// handleConfirmSession handles POST /api/v1/sessions/{id}/confirm
func (s *Server) handleConfirmSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Sessions.ConfirmSession(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// handleRejectSession handles POST /api/v1/sessions/{id}/reject
// The body is optional.
func (s *Server) handleRejectSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := s.decodeOptionalJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.deps.Sessions.RejectSession(r.Context(), callerFrom(r.Context()), command.RejectSessionCommand{
		SessionID: chi.URLParam(r, "id"),
		Reason:    body.Reason,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// handleCompleteSession handles POST /api/v1/sessions/{id}/complete
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.deps.Sessions.CompleteSession(r.Context(), callerFrom(r.Context()), command.CompleteSessionCommand{
		SessionID: chi.URLParam(r, "id"),
		Notes:     body.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}
