package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

func profileParams() mentorship.ProfileParams {
	return mentorship.ProfileParams{
		Name:     "Noor",
		Email:    "noor@example.com",
		Track:    "Data",
		Term:     5,
		Subjects: []string{"Statistics", "Python"},
		Skills:   []string{"pandas"},
	}
}

func TestCreateProfile_SelfService(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.store, f.opts)
	caller := mentorship.Caller{Account: mentorship.Account{ID: "acc-noor", Role: mentorship.AccountMentor}}

	params := profileParams()
	params.Role = mentorship.RoleLearner // ignored for non-admins
	p, err := svc.CreateProfile(context.Background(), caller, params)

	require.NoError(t, err)
	assert.Equal(t, mentorship.RoleMentor, p.Role)
	assert.True(t, p.OwnedBy("acc-noor"))
	assert.Equal(t, []shared.EventType{shared.EventProfileCreated}, f.events.types())

	caller.ProfileID = p.ID
	_, err = svc.CreateProfile(context.Background(), caller, profileParams())
	assert.True(t, shared.IsValidation(err))
}

func TestCreateProfile_AdminChoosesRole(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.store, f.opts)

	params := profileParams()
	params.Role = mentorship.RoleLearner
	p, err := svc.CreateProfile(context.Background(), admin(), params)
	require.NoError(t, err)
	assert.Equal(t, mentorship.RoleLearner, p.Role)
	assert.Nil(t, p.OwnerAccountID)

	_, err = svc.CreateProfile(context.Background(), admin(), profileParams())
	assert.True(t, shared.IsValidation(err), "role is required for admins")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	m, mentor := f.mentor(t, "ada")
	_, other := f.mentor(t, "grace")
	svc := NewProfileService(f.store, f.opts)
	ctx := context.Background()

	params := profileParams()
	params.Track = "Frontend"

	_, err := svc.UpdateProfile(ctx, other, m.ID, params)
	assert.True(t, shared.IsForbidden(err))

	updated, err := svc.UpdateProfile(ctx, mentor, m.ID, params)
	require.NoError(t, err)
	assert.Equal(t, "Frontend", updated.Track)
	assert.Equal(t, mentorship.RoleMentor, updated.Role)

	params.Subjects = nil
	_, err = svc.UpdateProfile(ctx, mentor, m.ID, params)
	assert.True(t, shared.IsValidation(err))

	stored, err := f.store.Profiles().GetProfile(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Statistics", "Python"}, []string(stored.Subjects))
}

func TestDeleteProfile(t *testing.T) {
	f := newFixture(t)
	m, mentor := f.mentor(t, "ada")
	l, _ := f.learner(t, "lin")
	loner, lonerCaller := f.mentor(t, "grace")
	f.pair(t, m.ID, l.ID)
	svc := NewProfileService(f.store, f.opts)
	ctx := context.Background()

	err := svc.DeleteProfile(ctx, mentor, m.ID)
	assert.ErrorIs(t, err, shared.ErrProfileInUse)

	require.NoError(t, svc.DeleteProfile(ctx, lonerCaller, loner.ID))
	_, err = f.store.Profiles().GetProfile(ctx, loner.ID)
	assert.True(t, shared.IsNotFound(err))

	err = svc.DeleteProfile(ctx, admin(), loner.ID)
	assert.True(t, shared.IsNotFound(err))
}
