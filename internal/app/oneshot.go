package app

import (
	"context"
	"fmt"

	"github.com/dtroode/storefront/internal/model"
)

// Once performs a single operation against a booted app: it waits for the
// session, runs fn and saves the client state. The queued notices are
// returned even when fn fails.
func (a *App) Once(ctx context.Context, fn func(ctx context.Context, sess model.Session) error) ([]model.Notice, error) {
	sess, err := a.AwaitSession(ctx)
	if err != nil {
		return a.Store.Notices(), err
	}

	opErr := fn(ctx, sess)

	if err := a.Persister.Save(ctx); err != nil {
		a.logger.Error("App: failed to save state", "error", err.Error())
		if opErr == nil {
			opErr = fmt.Errorf("failed to persist state: %w", err)
		}
	}

	return a.Store.Notices(), opErr
}
