package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/storefront/internal/model"
)

// MemoryAccountStore is an in-memory model.AccountStore.
type MemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
}

var _ model.AccountStore = (*MemoryAccountStore)(nil)

// NewMemoryAccountStore creates an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[uuid.UUID]model.Account)}
}

func (m *MemoryAccountStore) GetByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

func (m *MemoryAccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return a, nil
}

func (m *MemoryAccountStore) Create(_ context.Context, account model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return model.Account{}, model.ErrEmailTaken
		}
	}
	m.accounts[account.ID] = account
	return account, nil
}

func (m *MemoryAccountStore) UpdateProfile(_ context.Context, id uuid.UUID, update model.ProfileUpdate) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	if update.DisplayName != nil {
		a.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		a.PhotoURL = *update.PhotoURL
	}
	a.UpdatedAt = time.Now()
	m.accounts[id] = a
	return a, nil
}

// MemoryProfileStore is an in-memory model.ProfileStore.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile

	CreateErr error
}

var _ model.ProfileStore = (*MemoryProfileStore)(nil)

// NewMemoryProfileStore creates an empty MemoryProfileStore.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]model.Profile)}
}

func (m *MemoryProfileStore) Get(_ context.Context, uid string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	return p, nil
}

func (m *MemoryProfileStore) Create(_ context.Context, profile model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.profiles[profile.UID] = profile
	return nil
}

func (m *MemoryProfileStore) Update(_ context.Context, uid string, update model.ProfileUpdate) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	if update.DisplayName != nil {
		p.Name = *update.DisplayName
	}
	if update.PhotoURL != nil {
		p.PhotoURL = *update.PhotoURL
	}
	m.profiles[uid] = p
	return p, nil
}

// SetAdmin flips the admin flag of an existing profile document.
func (m *MemoryProfileStore) SetAdmin(uid string, admin bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[uid]
	p.UID = uid
	p.IsAdmin = admin
	m.profiles[uid] = p
}
