package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/storefront/internal/catalog"
	"github.com/dtroode/storefront/internal/config"
	"github.com/dtroode/storefront/internal/model"
	"github.com/dtroode/storefront/internal/testutil"
)

type recordingRegistrar struct {
	mu    sync.Mutex
	calls []model.Identity
	waits int
}

func (r *recordingRegistrar) Register(identity model.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, identity)
}

func (r *recordingRegistrar) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits++
}

type env struct {
	cfg       *config.Config
	accounts  *testutil.MemoryAccountStore
	profiles  *testutil.MemoryProfileStore
	states    *testutil.MemoryStateStore
	registrar *recordingRegistrar
	catalog   *catalog.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "City tour", "price": 120},
			{"id": 2, "name": "Coffee farm", "price": 80},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ClientID: "test",
		Guard:    config.Guard{ResolveTimeout: 2 * time.Second},
		KDF:      config.KDF{Time: 1, MemKiB: 64, Par: 1},
		JWT:      config.JWT{Secret: "test-secret", TTL: time.Hour},
		Autosave: config.Autosave{Interval: 10 * time.Millisecond},
	}

	return &env{
		cfg:       cfg,
		accounts:  testutil.NewMemoryAccountStore(),
		profiles:  testutil.NewMemoryProfileStore(),
		states:    testutil.NewMemoryStateStore(),
		registrar: &recordingRegistrar{},
		catalog:   catalog.NewClient(srv.URL, time.Second, testutil.MakeNoopLogger()),
	}
}

func (e *env) app() *App {
	return Assemble(e.cfg, Deps{
		Accounts:  e.accounts,
		Profiles:  e.profiles,
		States:    e.states,
		Catalog:   e.catalog,
		Registrar: e.registrar,
	}, testutil.MakeNoopLogger())
}

func (e *env) boot(t *testing.T) *App {
	t.Helper()
	a := e.app()
	require.NoError(t, a.Boot(t.Context()))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func waitState(t *testing.T, a *App, state model.SessionState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return a.Store.Session().State == state
	}, 2*time.Second, 5*time.Millisecond)
}

func TestApp_BootResolvesAbsent(t *testing.T) {
	e := newEnv(t)
	a := e.boot(t)

	sess, err := a.AwaitSession(t.Context())
	require.NoError(t, err)
	assert.Equal(t, model.SessionAbsent, sess.State)
	assert.True(t, a.Ready())
}

func TestApp_AwaitSessionTimesOut(t *testing.T) {
	e := newEnv(t)
	e.cfg.Guard.ResolveTimeout = 20 * time.Millisecond
	a := e.app()

	_, err := a.AwaitSession(t.Context())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, a.Ready())
}

func TestApp_BootTwice(t *testing.T) {
	e := newEnv(t)
	a := e.boot(t)

	err := a.Boot(t.Context())
	require.ErrorIs(t, err, model.ErrAlreadyStarted)
}

func TestApp_SignInSurvivesRestart(t *testing.T) {
	e := newEnv(t)

	first := e.app()
	require.NoError(t, first.Boot(t.Context()))
	_, err := first.AwaitSession(t.Context())
	require.NoError(t, err)

	identity, err := first.Auth.Register(t.Context(), "ana@example.com", "secret1", "Ana")
	require.NoError(t, err)
	waitState(t, first, model.SessionPresent)
	require.NoError(t, first.Close())

	e.registrar.mu.Lock()
	assert.Len(t, e.registrar.calls, 1)
	assert.Equal(t, 1, e.registrar.waits)
	e.registrar.mu.Unlock()

	second := e.boot(t)
	sess, err := second.AwaitSession(t.Context())
	require.NoError(t, err)
	require.Equal(t, model.SessionPresent, sess.State)
	assert.Equal(t, identity.UID, sess.User.ID)
	assert.Equal(t, "Ana", sess.User.DisplayName)
}

func TestApp_AdminGuard(t *testing.T) {
	e := newEnv(t)
	a := e.boot(t)
	_, err := a.AwaitSession(t.Context())
	require.NoError(t, err)

	identity, err := a.Auth.Register(t.Context(), "boss@example.com", "secret1", "")
	require.NoError(t, err)
	waitState(t, a, model.SessionPresent)

	d, err := a.Guard.Navigate(t.Context(), "/admin")
	require.NoError(t, err)
	assert.Equal(t, "/", d.To)

	e.profiles.SetAdmin(identity.UID, true)
	require.NoError(t, a.Auth.Logout(t.Context()))
	waitState(t, a, model.SessionAbsent)
	_, err = a.Auth.Login(t.Context(), "boss@example.com", "secret1")
	require.NoError(t, err)
	waitState(t, a, model.SessionPresent)

	d, err = a.Guard.Navigate(t.Context(), "/admin")
	require.NoError(t, err)
	assert.Equal(t, "allow", d.Outcome.String())
}

func TestApp_OnceSavesState(t *testing.T) {
	e := newEnv(t)
	a := e.boot(t)

	notices, err := a.Once(t.Context(), func(ctx context.Context, sess model.Session) error {
		assert.Equal(t, model.SessionAbsent, sess.State)
		if err := a.Store.FetchProducts(ctx, model.SortDefault); err != nil {
			return err
		}
		a.Store.AddProduct(a.Store.Products()[0], 2)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, notices)
	require.True(t, e.states.Has(e.cfg.StateKey()))

	restored := e.boot(t)
	assert.Equal(t, 2, restored.Store.CartCount())
	assert.Len(t, restored.Store.Products(), 2)
}

func TestApp_OpsHandler(t *testing.T) {
	e := newEnv(t)
	a := e.app()
	h := a.OpsHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, a.Boot(t.Context()))
	t.Cleanup(func() { _ = a.Close() })
	_, err := a.AwaitSession(t.Context())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `storefront_session_resolved_total{state="absent"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
