package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/memory"
	"github.com/mentorship-hub/mentorship-engine/pkg/timeutil"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clock *timeutil.ManualClock
}

func newFixture() *fixture {
	return &fixture{store: memory.NewStore(), clock: timeutil.NewManualClock(epoch)}
}

func (f *fixture) profile(t *testing.T, role mentorship.Role, name, track string, subjects, skills []string) (*mentorship.Profile, mentorship.Caller) {
	t.Helper()
	account := "acc-" + name
	p, err := mentorship.NewProfile(mentorship.ProfileParams{
		OwnerAccountID: &account,
		Role:           role,
		Name:           name,
		Email:          name + "@example.com",
		Track:          track,
		Term:           2,
		Subjects:       subjects,
		Skills:         skills,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Profiles().CreateProfile(context.Background(), p))

	accRole := mentorship.AccountMentor
	if role == mentorship.RoleLearner {
		accRole = mentorship.AccountLearner
	}
	return p, mentorship.Caller{Account: mentorship.Account{ID: account, Role: accRole}, ProfileID: p.ID}
}

func (f *fixture) pair(t *testing.T, mentorID, learnerID string) *mentorship.Pairing {
	t.Helper()
	p, err := mentorship.NewPairing(mentorID, learnerID, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Pairings().CreateActivePairing(context.Background(), p))
	return p
}

func (f *fixture) session(t *testing.T, pairingID, date, at string) *mentorship.Session {
	t.Helper()
	s, err := mentorship.NewSession(mentorship.SessionRequest{
		PairingID: pairingID, Date: date, Time: at, Topic: "t", Modality: mentorship.ModalityVirtual,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Sessions().CreateSession(context.Background(), s))
	return s
}

func admin() mentorship.Caller {
	return mentorship.Caller{Account: mentorship.Account{ID: "acc-admin", Role: mentorship.AccountAdmin}}
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

func TestRankMentors(t *testing.T) {
	f := newFixture()
	learner, learnerCaller := f.profile(t, mentorship.RoleLearner, "lin", "Backend",
		[]string{"Databases", "Go"}, []string{"SQL"})
	strong, _ := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"databases"}, []string{"sql"})
	weak, _ := f.profile(t, mentorship.RoleMentor, "bob", "Design", []string{"Figma"}, []string{"Sketch"})
	mid, _ := f.profile(t, mentorship.RoleMentor, "cy", "Backend", []string{"Rust"}, []string{"Docker"})

	h := NewRankMentorsHandler(f.store.Profiles(), 5)
	res, err := h.Handle(context.Background(), learnerCaller, RankMentorsQuery{LearnerID: learner.ID})
	require.NoError(t, err)

	require.Len(t, res.Matches, 3)
	assert.Equal(t, 3, res.Pool)
	assert.Equal(t, strong.ID, res.Matches[0].Mentor.ID)
	assert.EqualValues(t, 70, res.Matches[0].Score)
	assert.Equal(t, mentorship.MatchQualityHigh, res.Matches[0].Quality)
	assert.Equal(t, mid.ID, res.Matches[1].Mentor.ID)
	assert.Equal(t, weak.ID, res.Matches[2].Mentor.ID)
	assert.EqualValues(t, 0, res.Matches[2].Score, "zero scores are kept")

	res, err = h.Handle(context.Background(), admin(), RankMentorsQuery{LearnerID: learner.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, strong.ID, res.Matches[0].Mentor.ID)

	res, err = h.Handle(context.Background(), admin(), RankMentorsQuery{LearnerID: learner.ID, MinScore: 40})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
}

func TestRankMentors_Rules(t *testing.T) {
	f := newFixture()
	learner, _ := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	_, other := f.profile(t, mentorship.RoleLearner, "sam", "Backend", []string{"Go"}, []string{"SQL"})
	mentor, mentorCaller := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	h := NewRankMentorsHandler(f.store.Profiles(), 0)
	ctx := context.Background()

	_, err := h.Handle(ctx, other, RankMentorsQuery{LearnerID: learner.ID})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(ctx, mentorCaller, RankMentorsQuery{LearnerID: learner.ID})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(ctx, admin(), RankMentorsQuery{LearnerID: mentor.ID})
	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)

	_, err = h.Handle(ctx, admin(), RankMentorsQuery{})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, admin(), RankMentorsQuery{LearnerID: learner.ID, MinScore: 101})
	assert.True(t, shared.IsValidation(err))
}

func TestRankMentors_EmptyPool(t *testing.T) {
	f := newFixture()
	learner, caller := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})

	res, err := NewRankMentorsHandler(f.store.Profiles(), 5).Handle(context.Background(), caller,
		RankMentorsQuery{LearnerID: learner.ID})

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAIRINGS
// ══════════════════════════════════════════════════════════════════════════════

func TestPairingQueries(t *testing.T) {
	f := newFixture()
	m, mentorCaller := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	l, learnerCaller := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	solo, soloCaller := f.profile(t, mentorship.RoleLearner, "sam", "Backend", []string{"Go"}, []string{"SQL"})
	p := f.pair(t, m.ID, l.ID)
	q := NewPairingQueries(f.store.Pairings())
	ctx := context.Background()

	got, err := q.GetActivePairingForLearner(ctx, learnerCaller, l.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = q.GetActivePairingForLearner(ctx, mentorCaller, l.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = q.GetActivePairingForLearner(ctx, soloCaller, l.ID)
	assert.True(t, shared.IsForbidden(err))

	got, err = q.GetActivePairingForLearner(ctx, soloCaller, solo.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	has, err := q.HasActiveMentor(ctx, soloCaller, l.ID)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = q.HasActiveMentor(ctx, soloCaller, solo.ID)
	require.NoError(t, err)
	assert.False(t, has)
	_, err = q.HasActiveMentor(ctx, mentorship.Caller{}, solo.ID)
	assert.True(t, shared.IsForbidden(err))

	list, err := q.GetActivePairingsForMentor(ctx, mentorCaller, m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = q.GetActivePairingsForMentor(ctx, learnerCaller, m.ID)
	assert.True(t, shared.IsForbidden(err))

	all, err := q.ListActivePairings(ctx, admin())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	_, err = q.ListActivePairings(ctx, mentorCaller)
	assert.True(t, shared.IsForbidden(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestSessionQueries_NewRequestWindow(t *testing.T) {
	f := newFixture()
	m, mentorCaller := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	l, _ := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	p := f.pair(t, m.ID, l.ID)
	f.session(t, p.ID, "2024-03-10", "10:00")
	q := NewSessionQueries(f.store, f.clock, 0)
	ctx := context.Background()

	f.clock.Set(epoch.Add(23 * time.Hour))
	pending, err := q.PendingNewRequests(ctx, mentorCaller, m.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	f.clock.Set(epoch.Add(25 * time.Hour))
	pending, err = q.PendingNewRequests(ctx, mentorCaller, m.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// still requested, just no longer new
	views, err := q.ListSessionsForPairing(ctx, mentorCaller, p.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, mentorship.SessionRequested, views[0].Status)
	assert.False(t, views[0].IsNewRequest)
	assert.True(t, views[0].IsUpcoming)
}

func TestSessionQueries_OrderingAndAccess(t *testing.T) {
	f := newFixture()
	m, _ := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	l, learnerCaller := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	_, stranger := f.profile(t, mentorship.RoleLearner, "sam", "Backend", []string{"Go"}, []string{"SQL"})
	p := f.pair(t, m.ID, l.ID)
	a := f.session(t, p.ID, "2024-03-02", "09:00")
	b := f.session(t, p.ID, "2024-03-04", "08:00")
	c := f.session(t, p.ID, "2024-03-04", "16:30")
	q := NewSessionQueries(f.store, f.clock, time.Hour)
	ctx := context.Background()

	views, err := q.ListSessionsForPairing(ctx, learnerCaller, p.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{views[0].ID, views[1].ID, views[2].ID})

	_, err = q.ListSessionsForPairing(ctx, stranger, p.ID)
	assert.True(t, shared.IsForbidden(err))

	_, err = q.ListSessionsForPairing(ctx, admin(), "missing")
	assert.True(t, shared.IsNotFound(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestDashboard_DispatchesOnRole(t *testing.T) {
	f := newFixture()
	m, mentorCaller := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	l1, learnerCaller := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	l2, _ := f.profile(t, mentorship.RoleLearner, "kai", "Backend", []string{"Go"}, []string{"SQL"})
	_, soloCaller := f.profile(t, mentorship.RoleLearner, "sam", "Backend", []string{"Go"}, []string{"SQL"})
	p1 := f.pair(t, m.ID, l1.ID)
	p2 := f.pair(t, m.ID, l2.ID)

	s1 := f.session(t, p1.ID, "2024-03-02", "09:00")
	f.session(t, p2.ID, "2024-03-05", "09:00")
	done := *s1
	require.NoError(t, done.Complete("notes", f.clock.Now()))
	require.NoError(t, f.store.Sessions().TransitionSession(context.Background(), &done, mentorship.SessionRequested))

	h := NewDashboardHandler(f.store, NewSessionQueries(f.store, f.clock, 0))
	ctx := context.Background()

	d, err := h.Handle(ctx, mentorCaller)
	require.NoError(t, err)
	require.NotNil(t, d.Mentor)
	assert.Nil(t, d.Learner)
	assert.Equal(t, mentorship.RoleMentor, d.Role)
	assert.Len(t, d.Mentor.Mentees, 2)
	require.Len(t, d.Mentor.Sessions, 2)
	assert.Equal(t, "2024-03-05", d.Mentor.Sessions[0].Date)
	assert.Len(t, d.Mentor.PendingNew, 1)
	assert.Equal(t, 1, d.Mentor.Counts[mentorship.SessionCompleted])
	assert.Equal(t, 1, d.Mentor.Counts[mentorship.SessionRequested])

	d, err = h.Handle(ctx, learnerCaller)
	require.NoError(t, err)
	require.NotNil(t, d.Learner)
	assert.Equal(t, m.ID, d.Learner.Mentor.ID)
	assert.Len(t, d.Learner.Sessions, 1)

	d, err = h.Handle(ctx, soloCaller)
	require.NoError(t, err)
	assert.Nil(t, d.Learner.Pairing)
	assert.Empty(t, d.Learner.Sessions)

	_, err = h.Handle(ctx, admin())
	assert.True(t, shared.IsForbidden(err))
}

func TestGetProfile(t *testing.T) {
	f := newFixture()
	m, _ := f.profile(t, mentorship.RoleMentor, "ada", "Backend", []string{"Go"}, []string{"SQL"})
	_, learner := f.profile(t, mentorship.RoleLearner, "lin", "Backend", []string{"Go"}, []string{"SQL"})
	q := NewProfileQueries(f.store.Profiles())
	ctx := context.Background()

	got, err := q.GetProfile(ctx, learner, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)

	_, err = q.GetProfile(ctx, learner, "missing")
	assert.True(t, shared.IsNotFound(err))

	_, err = q.GetProfile(ctx, mentorship.Caller{}, m.ID)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
