package service

import (
	"context"
	"testing"

	"staybook/internal/users/repository"
	"staybook/internal/users/repository/repotest"
	"staybook/platform/apperr"
	"staybook/platform/logger"
	"staybook/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalog map[int64]string

func (c catalog) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := c[id]
	return ok, nil
}

func (c catalog) lookup(_ context.Context, id int64) (repository.SavedAccommodation, bool, error) {
	title, ok := c[id]
	return repository.SavedAccommodation{ID: id, Title: title, Amenities: []string{}}, ok, nil
}

func newService(t *testing.T) (*Service, *repotest.Memory) {
	t.Helper()
	places := catalog{7: "Seaside Loft", 8: "Mountain Cabin"}
	repo := repotest.NewMemory(places.lookup)
	return New(repo, places, validator.New(), logger.Discard()), repo
}

func createUser(t *testing.T, repo *repotest.Memory, username, role string) repository.User {
	t.Helper()
	u, err := repo.Create(context.Background(), repository.CreateParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$12$placeholderplaceholderplaceholderplaceholderplaceholde",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}

func TestSavedAccommodationLifecycle(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice", repository.RoleUser)

	saved, err := svc.GetAccommodations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)

	require.NoError(t, svc.AddAccommodation(ctx, alice.ID, 7))
	err = svc.AddAccommodation(ctx, alice.ID, 7)
	requireKind(t, err, apperr.KindValidation, msgAlreadySaved)

	saved, err = svc.GetAccommodations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1, "a pair is saved once")
	assert.Equal(t, int64(7), saved[0].ID)

	has, err := svc.HasAccommodation(ctx, alice.ID, 7)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, svc.RemoveAccommodation(ctx, alice.ID, 7))
	err = svc.RemoveAccommodation(ctx, alice.ID, 7)
	requireKind(t, err, apperr.KindValidation, msgNotSaved)

	saved, err = svc.GetAccommodations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestAddAccommodationChecksBothSides(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice", repository.RoleUser)

	requireKind(t, svc.AddAccommodation(ctx, alice.ID, 99), apperr.KindNotFound, msgAccommodationNotFound)
	requireKind(t, svc.AddAccommodation(ctx, alice.ID, 0), apperr.KindValidation, msgAccommodationID)
	requireKind(t, svc.AddAccommodation(ctx, 404, 7), apperr.KindNotFound, msgUserNotFound)
}

func TestUpdateProfileUniquenessExcludesSelf(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice", repository.RoleUser)
	createUser(t, repo, "bob", repository.RoleUser)

	sameEmail := "alice@example.com"
	newName := "alice_2"
	u, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &newName, Email: &sameEmail})
	require.NoError(t, err)
	assert.Equal(t, "alice_2", u.Username)

	taken := "bob"
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &taken})
	requireKind(t, err, apperr.KindValidation, msgUsernameTaken)

	takenEmail := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &takenEmail})
	requireKind(t, err, apperr.KindValidation, msgEmailTaken)

	bad := "not-an-email"
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &bad})
	requireKind(t, err, apperr.KindValidation, msgInvalidEmail)

	spaced := "has space"
	_, err = svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &spaced})
	requireKind(t, err, apperr.KindValidation, msgUsernameFormat)
}

func TestAdminCannotTargetThemselves(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	admin := createUser(t, repo, "root", repository.RoleAdmin)
	alice := createUser(t, repo, "alice", repository.RoleUser)

	_, err := svc.ChangeRole(ctx, admin.ID, admin.ID, repository.RoleUser)
	requireKind(t, err, apperr.KindValidation, msgOwnRole)
	requireKind(t, svc.Delete(ctx, admin.ID, admin.ID), apperr.KindValidation, msgOwnAccount)

	_, err = svc.ChangeRole(ctx, admin.ID, alice.ID, "owner")
	requireKind(t, err, apperr.KindValidation, msgInvalidRole)

	promoted, err := svc.ChangeRole(ctx, admin.ID, alice.ID, repository.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	require.NoError(t, svc.Delete(ctx, admin.ID, alice.ID))
	_, err = svc.GetByID(ctx, alice.ID)
	requireKind(t, err, apperr.KindNotFound, msgUserNotFound)
}
