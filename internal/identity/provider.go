package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

const minPasswordLength = 6

// LocalProvider is an identity provider backed by an account store. The ID
// token of the signed-in account is kept in a StateStore so the sign-in
// survives restarts.
type LocalProvider struct {
	accounts model.AccountStore
	hasher   model.PasswordHasher
	tokens   model.TokenManager
	states   model.StateStore
	authKey  string
	logger   *logger.Logger

	mu      sync.Mutex
	started bool
	current *model.Identity
	subs    map[int]*subscriber
	nextSub int
}

var _ model.IdentityProvider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider that persists its ID token under authKey.
func NewLocalProvider(
	accounts model.AccountStore,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	states model.StateStore,
	authKey string,
	logger *logger.Logger,
) *LocalProvider {
	return &LocalProvider{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		states:   states,
		authKey:  authKey,
		logger:   logger,
		subs:     make(map[int]*subscriber),
	}
}

// Start restores the persisted sign-in, if any, and delivers the resulting
// state to every subscriber. A stale or unreadable token signs the user out.
func (p *LocalProvider) Start(ctx context.Context) error {
	current, err := p.restore(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return model.ErrAlreadyStarted
	}
	p.started = true
	p.current = current
	p.emitLocked()

	return nil
}

func (p *LocalProvider) restore(ctx context.Context) (*model.Identity, error) {
	raw, err := p.states.Load(ctx, p.authKey)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Debug("Identity provider: no persisted sign-in")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load id token: %w", err)
	}

	id, err := p.tokens.ParseIDToken(string(raw))
	if err != nil {
		p.logger.Info("Identity provider: discarding persisted id token",
			"error", err.Error())
		p.forgetToken(ctx)
		return nil, nil
	}

	account, err := p.accounts.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Info("Identity provider: account of persisted id token is gone",
			"uid", id.String())
		p.forgetToken(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	p.logger.Debug("Identity provider: sign-in restored",
		"uid", id.String())

	return account.Identity(), nil
}

// Subscribe opens an auth-state stream. Once the provider is started the
// first event is the current state. Events are never dropped and never block
// the provider; the returned function closes the stream.
func (p *LocalProvider) Subscribe() (<-chan model.IdentityEvent, func()) {
	sub := newSubscriber()

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = sub
	if p.started {
		sub.push(model.IdentityEvent{Identity: copyIdentity(p.current)})
	}
	p.mu.Unlock()

	go sub.pump()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(sub.done)
		})
	}

	return sub.out, unsubscribe
}

// CreateUser registers a new account and signs it in.
func (p *LocalProvider) CreateUser(ctx context.Context, email, password string) (*model.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, model.ErrPasswordTooShort
	}

	_, err = p.accounts.GetByEmail(ctx, email)
	if err == nil {
		p.logger.Info("Identity provider: email already registered",
			"email", email)
		return nil, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account, err := p.accounts.Create(ctx, model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	p.logger.Info("Identity provider: account created",
		"uid", account.ID.String())

	return p.establish(ctx, account)
}

// SignIn checks the credentials and signs the account in.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	ok, err := p.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		p.logger.Info("Identity provider: wrong password",
			"uid", account.ID.String())
		return nil, model.ErrInvalidCredentials
	}

	return p.establish(ctx, account)
}

func (p *LocalProvider) establish(ctx context.Context, account model.Account) (*model.Identity, error) {
	token, err := p.tokens.GenerateIDToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate id token: %w", err)
	}
	if err := p.states.Save(ctx, p.authKey, []byte(token)); err != nil {
		return nil, fmt.Errorf("failed to save id token: %w", err)
	}

	identity := account.Identity()

	p.mu.Lock()
	p.current = identity
	p.emitLocked()
	p.mu.Unlock()

	p.logger.Info("Identity provider: signed in",
		"uid", identity.UID)

	return copyIdentity(identity), nil
}

// SignOut forgets the persisted sign-in and reports a signed-out state.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.states.Delete(ctx, p.authKey); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to delete id token: %w", err)
	}

	p.mu.Lock()
	p.current = nil
	p.emitLocked()
	p.mu.Unlock()

	p.logger.Info("Identity provider: signed out")

	return nil
}

// UpdateProfile changes the display name or photo of the signed-in account.
func (p *LocalProvider) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Identity, error) {
	p.mu.Lock()
	current := copyIdentity(p.current)
	p.mu.Unlock()

	if current == nil {
		return nil, model.ErrNoActiveUser
	}

	id, err := uuid.Parse(current.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uid: %w", err)
	}

	account, err := p.accounts.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update account profile: %w", err)
	}

	identity := account.Identity()

	p.mu.Lock()
	if p.current != nil && p.current.UID == identity.UID {
		p.current = identity
		p.emitLocked()
	}
	p.mu.Unlock()

	return copyIdentity(identity), nil
}

// CurrentUser returns the signed-in identity or nil.
func (p *LocalProvider) CurrentUser() *model.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

func (p *LocalProvider) emitLocked() {
	if !p.started {
		return
	}
	for _, sub := range p.subs {
		sub.push(model.IdentityEvent{Identity: copyIdentity(p.current)})
	}
}

func (p *LocalProvider) forgetToken(ctx context.Context) {
	if err := p.states.Delete(ctx, p.authKey); err != nil && !errors.Is(err, model.ErrNotFound) {
		p.logger.Warn("Identity provider: failed to delete id token",
			"error", err.Error())
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", model.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email %q: %w", email, err)
	}
	return email, nil
}

func copyIdentity(i *model.Identity) *model.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// subscriber buffers events for one stream so emitters never block.
type subscriber struct {
	mu    sync.Mutex
	queue []model.IdentityEvent
	wake  chan struct{}
	out   chan model.IdentityEvent
	done  chan struct{}
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan model.IdentityEvent),
		done: make(chan struct{}),
	}
}

func (s *subscriber) push(ev model.IdentityEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
