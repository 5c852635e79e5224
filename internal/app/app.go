// Package app builds the storefront context object and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dtroode/storefront/internal/backend"
	"github.com/dtroode/storefront/internal/catalog"
	"github.com/dtroode/storefront/internal/config"
	"github.com/dtroode/storefront/internal/guard"
	"github.com/dtroode/storefront/internal/identity"
	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/metrics"
	"github.com/dtroode/storefront/internal/model"
	"github.com/dtroode/storefront/internal/repository/postgres"
	"github.com/dtroode/storefront/internal/session"
	storage "github.com/dtroode/storefront/internal/storage/minio"
	"github.com/dtroode/storefront/internal/token"
)

const shutdownTimeout = 10 * time.Second

// Deps are the external collaborators of the storefront.
type Deps struct {
	Accounts  model.AccountStore
	Profiles  model.ProfileStore
	States    model.StateStore
	Catalog   model.CatalogClient
	Registrar model.Registrar
}

// App is the storefront context object. It is created once per run and
// closed on shutdown.
type App struct {
	cfg    *config.Config
	logger *logger.Logger

	Store     *session.Store
	Sync      *identity.Sync
	Auth      *identity.Auth
	Guard     *guard.Guard
	Persister *session.Persister

	provider  *identity.LocalProvider
	registrar model.Registrar
	registry  *prometheus.Registry
	closers   []func() error
}

// New connects to Postgres and MinIO and assembles the storefront.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*App, error) {
	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	states, err := storage.NewStateStore(ctx, storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize state storage: %w", err)
	}

	a := Assemble(cfg, Deps{
		Accounts: postgres.NewAccountRepository(db),
		Profiles: postgres.NewProfileRepository(db),
		States:   states,
		Catalog: catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger,
			catalog.WithRateLimit(cfg.Catalog.RPS, cfg.Catalog.Burst)),
		Registrar: backend.NewRegistrar(cfg.Backend.RegisterURL, cfg.Backend.Timeout, nil, logger),
	}, logger)
	a.closers = append(a.closers, db.Close)

	return a, nil
}

// Assemble wires the storefront around the given collaborators.
func Assemble(cfg *config.Config, deps Deps, logger *logger.Logger) *App {
	logger = logger.With("client_id", cfg.ClientID)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	provider := identity.NewLocalProvider(
		deps.Accounts,
		identity.NewArgon2(cfg.KDF.Time, cfg.KDF.MemKiB, cfg.KDF.Par),
		token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL),
		deps.States,
		cfg.AuthKey(),
		logger,
	)

	store := session.New(deps.Profiles, deps.Catalog, collector, logger)
	sync := identity.NewSync(provider, store, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		Store:     store,
		Sync:      sync,
		Auth:      identity.NewAuth(provider, deps.Profiles, deps.Registrar, sync, logger),
		Guard:     guard.New(guard.DefaultTable(), store, cfg.Guard.ResolveTimeout, collector, logger),
		Persister: session.NewPersister(store, deps.States, cfg.StateKey(), cfg.Autosave.Interval, logger),
		provider:  provider,
		registrar: deps.Registrar,
		registry:  registry,
	}
}

// Boot restores the saved client state, opens the identity subscription and
// starts the provider. A broken snapshot is logged and skipped.
func (a *App) Boot(ctx context.Context) error {
	if err := a.Persister.Load(ctx); err != nil {
		a.logger.Warn("App: ignoring saved state", "error", err.Error())
	}

	if err := a.Sync.Start(ctx); err != nil {
		return fmt.Errorf("failed to start identity sync: %w", err)
	}
	if err := a.provider.Start(ctx); err != nil {
		return fmt.Errorf("failed to start identity provider: %w", err)
	}

	return nil
}

// AwaitSession waits for the first session resolution, bounded by the guard
// resolve timeout.
func (a *App) AwaitSession(ctx context.Context) (model.Session, error) {
	if a.cfg.Guard.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Guard.ResolveTimeout)
		defer cancel()
	}

	sess, err := a.Store.WaitResolved(ctx)
	if err != nil {
		return sess, fmt.Errorf("failed to resolve session: %w", err)
	}
	return sess, nil
}

// Ready reports whether the session has resolved at least once.
func (a *App) Ready() bool {
	return a.Store.Session().Resolved()
}

// OpsHandler serves metrics and health for the app.
func (a *App) OpsHandler() http.Handler {
	return metrics.NewOpsRouter(a.registry, a.Ready)
}

// Close stops the identity sync, waits for pending webhook calls and releases
// the connections opened by New.
func (a *App) Close() error {
	a.Sync.Stop()

	if w, ok := a.registrar.(interface{ Wait() }); ok {
		w.Wait()
	}

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
