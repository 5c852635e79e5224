package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dtroode/storefront/internal/api/grpc/router"
	grpcServer "github.com/dtroode/storefront/internal/api/grpc/server"
	"github.com/dtroode/storefront/internal/server"
)

// Serve runs the long-lived storefront: identity sync, autosave, the gRPC
// readiness server and the ops HTTP server. It returns once ctx is done and
// everything has stopped, or when one of them fails.
func (a *App) Serve(ctx context.Context) error {
	readiness := router.NewReadiness(a.logger)
	grpcSrv := grpcServer.NewGRPCServer(
		router.New(readiness.Health(), a.logger).Register(),
		fmt.Sprintf(":%s", a.cfg.GRPC.Port),
	)
	sl := server.NewSecurityLayer(a.cfg.GRPC.EnableHTTPS, a.cfg.GRPC.CertFileName, a.cfg.GRPC.PrivateKeyFileName)

	ops := &http.Server{
		Addr:              a.cfg.Ops.Addr,
		Handler:           a.OpsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Persister.Run(gctx)
	})
	g.Go(func() error {
		readiness.Watch(gctx, a.Store.Resolved())
		return nil
	})
	g.Go(func() error {
		a.logger.Info("App: starting gRPC server", "address", grpcSrv.Address())
		return grpcSrv.Start(sl)
	})
	g.Go(func() error {
		a.logger.Info("App: starting ops server", "address", ops.Addr)
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve ops: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("App: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			a.logger.Error("App: error during gRPC server shutdown", "error", err, "address", grpcSrv.Address())
		}
		if err := ops.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("App: error during ops server shutdown", "error", err, "address", ops.Addr)
		}
		return nil
	})

	return g.Wait()
}
