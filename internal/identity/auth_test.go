package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/storefront/internal/model"
)

func startedHarness(t *testing.T) (*harness, *recordingRegistrar, *Auth) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := newHarness()
	require.NoError(t, h.provider.Start(ctx))
	require.NoError(t, h.sync.Start(ctx))
	t.Cleanup(h.sync.Stop)
	waitState(t, h, model.SessionAbsent)

	registrar := &recordingRegistrar{}
	return h, registrar, NewAuth(h.provider, h.profiles, registrar, h.sync, h.log)
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	h, registrar, auth := startedHarness(t)

	identity, err := auth.Register(ctx, "ana@example.com", "secret1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", identity.DisplayName)

	profile, err := h.profiles.Get(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, profile.Role)
	assert.False(t, profile.IsAdmin)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, "ana@example.com", profile.Email)

	calls := registrar.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, identity.UID, calls[0].UID)

	sess := waitState(t, h, model.SessionPresent)
	assert.Equal(t, identity.UID, sess.User.ID)
}

func TestAuth_RegisterWithoutNameUsesEmail(t *testing.T) {
	ctx := context.Background()
	h, _, auth := startedHarness(t)

	identity, err := auth.Register(ctx, "bob@example.com", "secret1", "")
	require.NoError(t, err)

	profile, err := h.profiles.Get(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Name)
}

func TestAuth_RegisterFailureRestoresSession(t *testing.T) {
	ctx := context.Background()
	h, registrar, auth := startedHarness(t)

	_, err := auth.Register(ctx, "ana@example.com", "123", "Ana")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPasswordTooShort)

	assert.Equal(t, model.SessionAbsent, h.store.Session().State)
	assert.Empty(t, registrar.Calls())
}

func TestAuth_RegisterProfileFailure(t *testing.T) {
	ctx := context.Background()
	h, registrar, auth := startedHarness(t)
	h.profiles.CreateErr = errors.New("connection reset")

	_, err := auth.Register(ctx, "ana@example.com", "secret1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create profile")
	assert.Empty(t, registrar.Calls())
}

func TestAuth_LoginAndLogout(t *testing.T) {
	ctx := context.Background()
	h, _, auth := startedHarness(t)

	_, err := auth.Register(ctx, "ana@example.com", "secret1", "")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx))
	waitState(t, h, model.SessionAbsent)

	_, err = auth.Login(ctx, "ana@example.com", "nope-nope")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Equal(t, model.SessionAbsent, h.store.Session().State)

	identity, err := auth.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	sess, err := h.store.WaitResolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SessionPresent, sess.State)
	assert.Equal(t, identity.UID, sess.User.ID)
}

func TestAuth_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	h, _, auth := startedHarness(t)

	photo := "https://img.example.com/ana.png"
	_, err := auth.UpdateProfile(ctx, model.ProfileUpdate{PhotoURL: &photo})
	assert.ErrorIs(t, err, model.ErrNoActiveUser)

	identity, err := auth.Register(ctx, "ana@example.com", "secret1", "Ana")
	require.NoError(t, err)

	_, err = auth.UpdateProfile(ctx, model.ProfileUpdate{PhotoURL: &photo})
	require.NoError(t, err)

	profile, err := h.profiles.Get(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, photo, profile.PhotoURL)
}

func TestAuth_UpdateProfileCreatesMissingDocument(t *testing.T) {
	ctx := context.Background()
	h, _, auth := startedHarness(t)

	identity, err := h.provider.CreateUser(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	name := "Ana"
	_, err = auth.UpdateProfile(ctx, model.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)

	profile, err := h.profiles.Get(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, model.RoleUser, profile.Role)
}
