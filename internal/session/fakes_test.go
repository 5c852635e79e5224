package session

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/storefront/internal/model"
)

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) Get(ctx context.Context, uid string) (model.Profile, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *mockProfileStore) Create(ctx context.Context, profile model.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *mockProfileStore) Update(ctx context.Context, uid string, update model.ProfileUpdate) (model.Profile, error) {
	args := m.Called(ctx, uid, update)
	return args.Get(0).(model.Profile), args.Error(1)
}

// blockingProfileStore holds Get calls for gated uids until released.
type blockingProfileStore struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	entered  chan string
	profiles map[string]model.Profile
}

func newBlockingProfileStore() *blockingProfileStore {
	return &blockingProfileStore{
		gates:    make(map[string]chan struct{}),
		entered:  make(chan string, 8),
		profiles: make(map[string]model.Profile),
	}
}

func (b *blockingProfileStore) gate(uid string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{})
	b.gates[uid] = ch
	return ch
}

func (b *blockingProfileStore) Get(ctx context.Context, uid string) (model.Profile, error) {
	b.mu.Lock()
	ch := b.gates[uid]
	p, ok := b.profiles[uid]
	b.mu.Unlock()

	b.entered <- uid
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return model.Profile{}, ctx.Err()
		}
	}
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	return p, nil
}

func (b *blockingProfileStore) Create(context.Context, model.Profile) error { return nil }

func (b *blockingProfileStore) Update(context.Context, string, model.ProfileUpdate) (model.Profile, error) {
	return model.Profile{}, nil
}

type catalogResponse struct {
	products []model.Product
	err      error
	gate     chan struct{}
}

// fakeCatalog returns queued responses in call order.
type fakeCatalog struct {
	mu        sync.Mutex
	responses []catalogResponse
	calls     []model.SortKey
	started   chan struct{}
}

func newFakeCatalog(responses ...catalogResponse) *fakeCatalog {
	return &fakeCatalog{responses: responses, started: make(chan struct{}, 8)}
}

func (f *fakeCatalog) ListProducts(ctx context.Context, sort model.SortKey) ([]model.Product, error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, sort)
	var resp catalogResponse
	if idx < len(f.responses) {
		resp = f.responses[idx]
	}
	f.mu.Unlock()

	f.started <- struct{}{}
	if resp.gate != nil {
		<-resp.gate
	}
	return resp.products, resp.err
}

func (f *fakeCatalog) GetProduct(_ context.Context, id model.ProductID) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.responses {
		for _, p := range r.products {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return model.Product{}, model.ErrNotFound
}
