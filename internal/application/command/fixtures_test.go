package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/memory"
	"github.com/mentorship-hub/mentorship-engine/pkg/retry"
	"github.com/mentorship-hub/mentorship-engine/pkg/timeutil"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// recorder is an EventPublisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	store  mentorship.Store
	mem    *memory.Store
	clock  *timeutil.ManualClock
	events *recorder
	opts   Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.NewStore()
	f := &fixture{
		store:  mem,
		mem:    mem,
		clock:  timeutil.NewManualClock(epoch),
		events: &recorder{},
	}
	f.opts = Options{
		Publisher: f.events,
		Clock:     f.clock,
		Retrier:   retry.StorageRetrier(shared.IsRetryable, 0),
	}
	return f
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
		Term:           3,
		Subjects:       subjects,
		Skills:         skills,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.mem.Profiles().CreateProfile(context.Background(), p))

	accRole := mentorship.AccountMentor
	if role == mentorship.RoleLearner {
		accRole = mentorship.AccountLearner
	}
	return p, mentorship.Caller{Account: mentorship.Account{ID: account, Role: accRole}, ProfileID: p.ID}
}

func (f *fixture) mentor(t *testing.T, name string) (*mentorship.Profile, mentorship.Caller) {
	return f.profile(t, mentorship.RoleMentor, name, "Backend", []string{"Go"}, []string{"SQL"})
}

func (f *fixture) learner(t *testing.T, name string) (*mentorship.Profile, mentorship.Caller) {
	return f.profile(t, mentorship.RoleLearner, name, "Backend", []string{"Go"}, []string{"SQL"})
}

func admin() mentorship.Caller {
	return mentorship.Caller{Account: mentorship.Account{ID: "acc-admin", Role: mentorship.AccountAdmin}}
}

func (f *fixture) pair(t *testing.T, mentorID, learnerID string) *mentorship.Pairing {
	t.Helper()
	p, err := NewPairingRegistry(f.store, f.opts).CreatePairing(context.Background(), admin(),
		CreatePairingCommand{MentorID: mentorID, LearnerID: learnerID})
	require.NoError(t, err)
	return p
}

// storeWith overrides individual stores of a memory store.
type storeWith struct {
	*memory.Store
	pairings mentorship.PairingStore
	sessions mentorship.SessionStore
}

func (s storeWith) Pairings() mentorship.PairingStore {
	if s.pairings != nil {
		return s.pairings
	}
	return s.Store.Pairings()
}

func (s storeWith) Sessions() mentorship.SessionStore {
	if s.sessions != nil {
		return s.sessions
	}
	return s.Store.Sessions()
}
