package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin")
	u := f.user(t, "helper")

	got, err := f.users.UpdateRole(ctx, admin.ID, u.ID, model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, got.Role)

	stored, err := f.users.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, stored.Role)
}

func TestUpdateRole_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "someone")

	_, err := f.users.UpdateRole(ctx, "actor", u.ID, model.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.users.UpdateRole(ctx, "actor", "", model.RoleUser)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.users.UpdateRole(ctx, "actor", "missing", model.RoleAdmin)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
}

func TestCompleteOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "fresher")
	assert.False(t, u.Onboarded())

	got, err := f.users.CompleteOnboarding(ctx, u.ID, " 21CS042 ", "CSE", "9876543210")
	require.NoError(t, err)
	assert.True(t, got.Onboarded())
	assert.Equal(t, "21CS042", got.RollNo)
	assert.Equal(t, "CSE", got.Branch)
	assert.Equal(t, "9876543210", got.Phone)
}

func TestCompleteOnboarding_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "fresher")

	tests := []struct {
		name    string
		rollNo  string
		branch  string
		phone   string
		wantErr error
	}{
		{"missing roll number", "", "CSE", "9876543210", ErrOnboardingRequired},
		{"missing branch", "21CS042", " ", "9876543210", ErrOnboardingRequired},
		{"missing phone", "21CS042", "CSE", "", ErrOnboardingRequired},
		{"short phone", "21CS042", "CSE", "98765", ErrInvalidPhone},
		{"letters in phone", "21CS042", "CSE", "98765abcde", ErrInvalidPhone},
		{"eleven digits", "21CS042", "CSE", "98765432101", ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CompleteOnboarding(context.Background(), u.ID, tt.rollNo, tt.branch, tt.phone)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantErr.Error(), err.Error())
		})
	}

	stored, err := f.users.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Onboarded())
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	bob := f.user(t, "bob")
	_, err := f.users.UpdateRole(ctx, "actor", bob.ID, model.RoleModerator)
	require.NoError(t, err)

	all, err := f.users.ListUsers(ctx, "", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mods, err := f.users.ListUsers(ctx, model.RoleModerator, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "bob", mods[0].Login)

	found, err := f.users.ListUsers(ctx, "", " ali ", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Login)

	_, err = f.users.ListUsers(ctx, model.Role("root"), "", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidRole)
}
