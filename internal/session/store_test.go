package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/storefront/internal/model"
	"github.com/dtroode/storefront/internal/testutil"
)

func newTestStore(profiles model.ProfileStore, catalog model.CatalogClient) *Store {
	return New(profiles, catalog, nil, testutil.MakeNoopLogger())
}

func TestStore_StartsUnresolved(t *testing.T) {
	s := newTestStore(&mockProfileStore{}, newFakeCatalog())

	sess := s.Session()
	assert.Equal(t, model.SessionUnresolved, sess.State)
	assert.False(t, sess.Resolved())
	assert.Nil(t, sess.User)

	select {
	case <-s.Resolved():
		t.Fatal("resolution signal must not fire before SetUser")
	default:
	}
}

func TestStore_SetUser_EventSequence(t *testing.T) {
	ctx := context.Background()
	profiles := &mockProfileStore{}
	profiles.On("Get", mock.Anything, "a").Return(model.Profile{UID: "a", Name: "Ana", IsAdmin: true}, nil)
	profiles.On("Get", mock.Anything, "b").Return(model.Profile{}, model.ErrNotFound)

	s := newTestStore(profiles, newFakeCatalog())

	events := []*model.Identity{
		nil,
		{UID: "a", Email: "a@example.com"},
		nil,
		{UID: "b", Email: "b@example.com", DisplayName: "Bo"},
	}
	want := []struct {
		state model.SessionState
		uid   string
		admin bool
		name  string
	}{
		{state: model.SessionAbsent},
		{state: model.SessionPresent, uid: "a", admin: true, name: "Ana"},
		{state: model.SessionAbsent},
		{state: model.SessionPresent, uid: "b", admin: false, name: "Bo"},
	}

	for i, ev := range events {
		require.NoError(t, s.SetUser(ctx, ev))

		sess := s.Session()
		assert.Equal(t, want[i].state, sess.State, "event %d", i)
		if want[i].state == model.SessionPresent {
			require.NotNil(t, sess.User)
			assert.Equal(t, want[i].uid, sess.User.ID)
			assert.Equal(t, want[i].admin, sess.User.IsAdmin)
			assert.Equal(t, want[i].name, sess.User.DisplayName)
		} else {
			assert.Nil(t, sess.User)
			assert.False(t, sess.IsAdmin())
		}
	}

	profiles.AssertNumberOfCalls(t, "Get", 2)
}

func TestStore_SessionIsACopy(t *testing.T) {
	ctx := context.Background()
	profiles := &mockProfileStore{}
	profiles.On("Get", mock.Anything, "shopper").Return(model.Profile{}, model.ErrNotFound)

	s := newTestStore(profiles, newFakeCatalog())
	require.NoError(t, s.SetUser(ctx, &model.Identity{UID: "shopper", Email: "shopper@example.com"}))

	sess := s.Session()
	sess.User.IsAdmin = true
	sess.User.Email = "changed@example.com"
	assert.False(t, s.Session().IsAdmin())
	assert.Equal(t, "shopper@example.com", s.Session().User.Email)

	waited, err := s.WaitResolved(ctx)
	require.NoError(t, err)
	waited.User.IsAdmin = true
	assert.False(t, s.Session().IsAdmin())
}

func TestStore_SetUser_ProfileLookupFailureFailsClosed(t *testing.T) {
	profiles := &mockProfileStore{}
	profiles.On("Get", mock.Anything, "a").Return(model.Profile{}, errors.New("connection refused"))

	s := newTestStore(profiles, newFakeCatalog())

	require.NoError(t, s.SetUser(context.Background(), &model.Identity{UID: "a"}))

	sess := s.Session()
	assert.Equal(t, model.SessionPresent, sess.State)
	assert.False(t, sess.IsAdmin())
}

func TestStore_SetUser_NoPartialMergeVisible(t *testing.T) {
	profiles := newBlockingProfileStore()
	profiles.profiles["a"] = model.Profile{UID: "a", IsAdmin: true}
	release := profiles.gate("a")

	s := newTestStore(profiles, newFakeCatalog())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.SetUser(context.Background(), &model.Identity{UID: "a"})
	}()

	<-profiles.entered
	assert.Equal(t, model.SessionUnresolved, s.Session().State)

	close(release)
	<-done

	sess := s.Session()
	assert.Equal(t, model.SessionPresent, sess.State)
	assert.True(t, sess.IsAdmin())
}

func TestStore_SetUser_SupersededCompletionDropped(t *testing.T) {
	profiles := newBlockingProfileStore()
	release := profiles.gate("slow")

	s := newTestStore(profiles, newFakeCatalog())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.SetUser(context.Background(), &model.Identity{UID: "slow"})
	}()
	<-profiles.entered

	require.NoError(t, s.SetUser(context.Background(), nil))
	assert.Equal(t, model.SessionAbsent, s.Session().State)

	close(release)
	<-done

	assert.Equal(t, model.SessionAbsent, s.Session().State)
}

func TestStore_WaitResolved(t *testing.T) {
	s := newTestStore(&mockProfileStore{}, newFakeCatalog())

	got := make(chan model.Session, 1)
	go func() {
		sess, err := s.WaitResolved(context.Background())
		if err == nil {
			got <- sess
		}
	}()

	select {
	case <-got:
		t.Fatal("WaitResolved returned before resolution")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.SetUser(context.Background(), nil))

	select {
	case sess := <-got:
		assert.Equal(t, model.SessionAbsent, sess.State)
	case <-time.After(time.Second):
		t.Fatal("WaitResolved did not return after SetUser")
	}
}

func TestStore_WaitResolved_ContextCancelled(t *testing.T) {
	s := newTestStore(&mockProfileStore{}, newFakeCatalog())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	sess, err := s.WaitResolved(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, sess.Resolved())
}

func TestStore_BeginAndCancelResolution(t *testing.T) {
	s := newTestStore(&mockProfileStore{}, newFakeCatalog())

	assert.False(t, s.BeginResolution(), "unresolved session cannot restart resolution")

	require.NoError(t, s.SetUser(context.Background(), nil))
	require.True(t, s.BeginResolution())
	assert.Equal(t, model.SessionUnresolved, s.Session().State)

	waiter := s.Resolved()
	select {
	case <-waiter:
		t.Fatal("new resolution signal must start open")
	default:
	}

	s.CancelResolution()
	assert.Equal(t, model.SessionAbsent, s.Session().State)
	select {
	case <-waiter:
	default:
		t.Fatal("CancelResolution must release waiters")
	}
}

func TestStore_BeginResolution_OnlyFromAbsent(t *testing.T) {
	profiles := &mockProfileStore{}
	profiles.On("Get", mock.Anything, "a").Return(model.Profile{}, model.ErrNotFound)
	s := newTestStore(profiles, newFakeCatalog())

	require.NoError(t, s.SetUser(context.Background(), &model.Identity{UID: "a"}))

	assert.False(t, s.BeginResolution())
	assert.Equal(t, model.SessionPresent, s.Session().State)
}

func TestStore_Notices_Drain(t *testing.T) {
	s := newTestStore(&mockProfileStore{}, newFakeCatalog())

	s.mu.Lock()
	for i := 0; i < maxNotices+5; i++ {
		s.pushNoticeLocked(model.NoticeInfo, "n")
	}
	s.mu.Unlock()

	assert.Len(t, s.Notices(), maxNotices)
	assert.Empty(t, s.Notices())
}
