package identity

import (
	"sync"
	"time"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
	"github.com/dtroode/storefront/internal/session"
	"github.com/dtroode/storefront/internal/testutil"
	"github.com/dtroode/storefront/internal/token"
)

type recordingRegistrar struct {
	mu    sync.Mutex
	calls []model.Identity
}

func (r *recordingRegistrar) Register(identity model.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, identity)
}

func (r *recordingRegistrar) Calls() []model.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Identity(nil), r.calls...)
}

const testAuthKey = "auth/test"

type harness struct {
	accounts *testutil.MemoryAccountStore
	profiles *testutil.MemoryProfileStore
	states   *testutil.MemoryStateStore
	tokens   *token.JWT
	provider *LocalProvider
	store    *session.Store
	sync     *Sync
	log      *logger.Logger
}

func newHarness() *harness {
	h := &harness{
		accounts: testutil.NewMemoryAccountStore(),
		profiles: testutil.NewMemoryProfileStore(),
		states:   testutil.NewMemoryStateStore(),
		tokens:   token.NewJWT("test-secret", time.Hour),
		log:      testutil.MakeNoopLogger(),
	}
	h.provider = h.newProvider()
	h.store = session.New(h.profiles, nil, nil, h.log)
	h.sync = NewSync(h.provider, h.store, h.log)
	return h
}

func (h *harness) newProvider() *LocalProvider {
	return NewLocalProvider(h.accounts, NewArgon2(1, 64, 1), h.tokens, h.states, testAuthKey, h.log)
}
