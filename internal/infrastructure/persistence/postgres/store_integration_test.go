package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = url

	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, NewMigrator(conn).Migrate(ctx))

	store := NewStore(conn)
	t.Cleanup(store.Close)
	return store
}

func createProfile(t *testing.T, store *Store, role mentorship.Role, name string) *mentorship.Profile {
	t.Helper()
	p, err := mentorship.NewProfile(mentorship.ProfileParams{
		Role:     role,
		Name:     name,
		Email:    name + "@example.com",
		Track:    "Backend",
		Term:     3,
		Subjects: []string{"Go", "Databases"},
		Skills:   []string{"SQL"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Profiles().CreateProfile(context.Background(), p))
	return p
}

func TestStore_MigrationsApplied(t *testing.T) {
	store := openTestStore(t)

	status, err := NewMigrator(store.conn).Status(context.Background())
	require.NoError(t, err)
	for _, m := range status {
		assert.True(t, m.IsApplied, m.Name)
	}
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	p := createProfile(t, store, mentorship.RoleMentor, "ada")

	got, err := store.Profiles().GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.StringList{"Go", "Databases"}, got.Subjects)
	assert.Equal(t, mentorship.RoleMentor, got.Role)

	require.NoError(t, store.Profiles().DeleteProfile(ctx, p.ID))
	_, err = store.Profiles().GetProfile(ctx, p.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_OneActivePairingPerLearner(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	learner := createProfile(t, store, mentorship.RoleLearner, "lin")
	mentors := make([]*mentorship.Profile, 8)
	for i := range mentors {
		mentors[i] = createProfile(t, store, mentorship.RoleMentor, "mentor")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, m := range mentors {
		wg.Add(1)
		go func(mentorID string) {
			defer wg.Done()
			p, err := mentorship.NewPairing(mentorID, learner.ID, time.Now())
			if !assert.NoError(t, err) {
				return
			}
			err = store.Pairings().CreateActivePairing(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case shared.IsAlreadyPaired(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(m.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, len(mentors)-1, conflicts)

	active, err := store.Pairings().GetActivePairingForLearner(ctx, learner.ID)
	require.NoError(t, err)
	require.NotNil(t, active)

	require.NoError(t, store.Pairings().EndPairing(ctx, active.ID, time.Now()))
	next, err := mentorship.NewPairing(mentors[0].ID, learner.ID, time.Now())
	require.NoError(t, err)
	assert.NoError(t, store.Pairings().CreateActivePairing(ctx, next), "an ended pairing frees the learner")
}

func TestStore_TransitionSessionCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mentor := createProfile(t, store, mentorship.RoleMentor, "grace")
	learner := createProfile(t, store, mentorship.RoleLearner, "sam")
	pairing, err := mentorship.NewPairing(mentor.ID, learner.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Pairings().CreateActivePairing(ctx, pairing))

	s, err := mentorship.NewSession(mentorship.SessionRequest{
		PairingID: pairing.ID,
		Date:      "2030-05-01",
		Time:      "14:00",
		Topic:     "Indexes",
		Modality:  mentorship.ModalityVirtual,
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Sessions().CreateSession(ctx, s))

	stale := *s
	require.NoError(t, s.Confirm())
	require.NoError(t, store.Sessions().TransitionSession(ctx, s, mentorship.SessionRequested))

	require.NoError(t, stale.Reject(""))
	err = store.Sessions().TransitionSession(ctx, &stale, mentorship.SessionRequested)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)

	got, err := store.Sessions().GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.SessionConfirmed, got.Status)

	list, err := store.Sessions().ListSessionsByPairing(ctx, pairing.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
