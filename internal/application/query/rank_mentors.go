// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK MENTORS QUERY
// Scores every mentor against a learner and returns the shortlist.
// ══════════════════════════════════════════════════════════════════════════════

// MaxShortlistSize caps the limit a caller may ask for.
const MaxShortlistSize = 50

// RankMentorsQuery contains the ranking parameters.
type RankMentorsQuery struct {
	// LearnerID is the learner to rank mentors for.
	LearnerID string

	// Limit is the shortlist size. Non-positive uses the configured default.
	Limit int

	// MinScore drops candidates scoring below it. Zero keeps everyone.
	MinScore mentorship.MatchScore
}

// RankMentorsResult is the ranked shortlist.
type RankMentorsResult struct {
	Learner *mentorship.Profile        `json:"learner"`
	Matches mentorship.MatchResultList `json:"matches"`
	Pool    int                        `json:"pool_size"`
}

// RankMentorsHandler handles RankMentorsQuery.
type RankMentorsHandler struct {
	profiles     mentorship.ProfileStore
	defaultLimit int
}

// NewRankMentorsHandler creates a new RankMentorsHandler.
func NewRankMentorsHandler(profiles mentorship.ProfileStore, defaultLimit int) *RankMentorsHandler {
	if defaultLimit <= 0 {
		defaultLimit = mentorship.DefaultShortlistSize
	}
	return &RankMentorsHandler{profiles: profiles, defaultLimit: defaultLimit}
}

// Handle ranks the mentor pool for the learner. Learners may rank for
// themselves; admins for anyone.
func (h *RankMentorsHandler) Handle(ctx context.Context, caller mentorship.Caller, q RankMentorsQuery) (*RankMentorsResult, error) {
	if q.LearnerID == "" {
		return nil, shared.NewValidationError("learner_id", "is required")
	}
	if q.MinScore < 0 || q.MinScore > mentorship.MaxScore {
		return nil, shared.NewValidationError("min_score", fmt.Sprintf("must be between 0 and %d", mentorship.MaxScore))
	}
	if !caller.CanActForLearner(q.LearnerID) {
		return nil, shared.NewDomainError("matching", "Rank", shared.ErrForbidden,
			"only the learner or an admin can rank mentors")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > MaxShortlistSize {
		limit = MaxShortlistSize
	}

	learner, err := h.profiles.GetProfile(ctx, q.LearnerID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("rank_mentors: load learner: %w", err)
	}
	if err := mentorship.RequireRole(learner, mentorship.RoleLearner); err != nil {
		return nil, err
	}

	pool, err := h.profiles.FindProfilesByRole(ctx, mentorship.RoleMentor)
	if err != nil {
		return nil, fmt.Errorf("rank_mentors: load mentor pool: %w", err)
	}

	matches := mentorship.Rank(*learner, pool, len(pool)).
		FilterByMinScore(q.MinScore).
		TopN(limit)

	return &RankMentorsResult{
		Learner: learner,
		Matches: matches,
		Pool:    len(pool),
	}, nil
}
