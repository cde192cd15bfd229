package mentorship

import (
	"fmt"
	"sort"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY SCORING
//
// The score is a heuristic over three factors: same track, overlapping
// subjects and overlapping skills. Each mentor subject/skill that overlaps
// any learner entry contributes on its own, so the score is asymmetric and
// grows with the mentor's list length. The total is capped at MaxScore.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// TrackWeight is added when mentor and learner share a track.
	TrackWeight = 40

	// SubjectWeight is added for every matching mentor subject.
	SubjectWeight = 20

	// SkillWeight is added for every matching mentor skill.
	SkillWeight = 10

	// MaxScore caps the compatibility score.
	MaxScore = 100

	// DefaultShortlistSize is the number of mentors returned when no limit is given.
	DefaultShortlistSize = 5
)

// Factor names used in MatchReason.
const (
	FactorTrack    = "track"
	FactorSubjects = "subjects"
	FactorSkills   = "skills"
)

// MatchScore is a compatibility score in [0, 100].
type MatchScore int

// IsValid checks the score range.
func (m MatchScore) IsValid() bool {
	return m >= 0 && m <= MaxScore
}

// Quality classifies the score the way it is shown to users.
func (m MatchScore) Quality() MatchQuality {
	switch {
	case m >= 70:
		return MatchQualityHigh
	case m >= 50:
		return MatchQualityMedium
	default:
		return MatchQualityLow
	}
}

// MatchQuality is a coarse compatibility label.
type MatchQuality string

const (
	MatchQualityHigh   MatchQuality = "high"
	MatchQualityMedium MatchQuality = "medium"
	MatchQualityLow    MatchQuality = "low"
)

// MatchReason explains how much a single factor contributed.
type MatchReason struct {
	Factor      string   `json:"factor"`
	Weight      int      `json:"weight"`
	Score       int      `json:"score"`
	Matched     []string `json:"matched,omitempty"`
	Description string   `json:"description"`
}

// Score computes the compatibility of mentor for learner.
func Score(mentor, learner Profile) MatchScore {
	score, _ := ScoreWithReasons(mentor, learner)
	return score
}

// ScoreWithReasons computes the score together with a per-factor breakdown.
// Reasons are only listed for factors that contributed.
func ScoreWithReasons(mentor, learner Profile) (MatchScore, []MatchReason) {
	var (
		raw     int
		reasons []MatchReason
	)

	if mentor.Track == learner.Track {
		raw += TrackWeight
		reasons = append(reasons, MatchReason{
			Factor:      FactorTrack,
			Weight:      TrackWeight,
			Score:       TrackWeight,
			Description: fmt.Sprintf("same track (%s)", mentor.Track),
		})
	}

	if matched := overlapping(mentor.Subjects, learner.Subjects); len(matched) > 0 {
		points := SubjectWeight * len(matched)
		raw += points
		reasons = append(reasons, MatchReason{
			Factor:      FactorSubjects,
			Weight:      SubjectWeight,
			Score:       points,
			Matched:     matched,
			Description: fmt.Sprintf("%d shared subject(s)", len(matched)),
		})
	}

	if matched := overlapping(mentor.Skills, learner.Skills); len(matched) > 0 {
		points := SkillWeight * len(matched)
		raw += points
		reasons = append(reasons, MatchReason{
			Factor:      FactorSkills,
			Weight:      SkillWeight,
			Score:       points,
			Matched:     matched,
			Description: fmt.Sprintf("%d shared skill(s)", len(matched)),
		})
	}

	if raw > MaxScore {
		raw = MaxScore
	}
	return MatchScore(raw), reasons
}

// overlapping returns the mentor entries that overlap at least one learner
// entry. Duplicates in mentorList are kept.
func overlapping(mentorList, learnerList []string) []string {
	if len(mentorList) == 0 || len(learnerList) == 0 {
		return nil
	}

	lowered := make([]string, len(learnerList))
	for i, s := range learnerList {
		lowered[i] = strings.ToLower(s)
	}

	var matched []string
	for _, m := range mentorList {
		lm := strings.ToLower(m)
		for _, la := range lowered {
			if strings.Contains(la, lm) || strings.Contains(lm, la) {
				matched = append(matched, m)
				break
			}
		}
	}
	return matched
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// MatchResult is a scored mentor candidate.
type MatchResult struct {
	Mentor  Profile       `json:"mentor"`
	Score   MatchScore    `json:"score"`
	Quality MatchQuality  `json:"quality"`
	Reasons []MatchReason `json:"reasons,omitempty"`
}

// MatchResultList is an ordered list of candidates.
type MatchResultList []MatchResult

// Rank scores every profile in pool against learner and returns the best
// limit results, highest score first. Ties keep pool order. A limit <= 0
// uses DefaultShortlistSize. Zero scores are not filtered out.
func Rank(learner Profile, pool []Profile, limit int) MatchResultList {
	if limit <= 0 {
		limit = DefaultShortlistSize
	}

	results := make(MatchResultList, 0, len(pool))
	for _, mentor := range pool {
		score, reasons := ScoreWithReasons(mentor, learner)
		results = append(results, MatchResult{
			Mentor:  mentor,
			Score:   score,
			Quality: score.Quality(),
			Reasons: reasons,
		})
	}

	results.Sort()
	return results.TopN(limit)
}

// Sort orders results by score descending, keeping the relative order of ties.
func (l MatchResultList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Score > l[j].Score
	})
}

// TopN returns at most n leading results.
func (l MatchResultList) TopN(n int) MatchResultList {
	if n >= len(l) {
		return l
	}
	return l[:n]
}

// FilterByMinScore keeps results scoring at least min.
func (l MatchResultList) FilterByMinScore(min MatchScore) MatchResultList {
	if min <= 0 {
		return l
	}
	out := make(MatchResultList, 0, len(l))
	for _, r := range l {
		if r.Score >= min {
			out = append(out, r)
		}
	}
	return out
}
