package router

import (
	"context"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/storefront/internal/logger"
)

// SessionService is the health service name that reports session readiness.
const SessionService = "storefront.Session"

// Readiness flips the session health status once the session first resolves.
type Readiness struct {
	health *health.Server
	logger *logger.Logger
}

// NewReadiness creates a health server with the session service not serving.
func NewReadiness(logger *logger.Logger) *Readiness {
	hs := health.NewServer()
	hs.SetServingStatus(SessionService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Readiness{
		health: hs,
		logger: logger,
	}
}

// Health returns the underlying health server.
func (r *Readiness) Health() *health.Server {
	return r.health
}

// Watch marks the session service serving when resolved is closed and
// shuts the health server down when ctx is done.
func (r *Readiness) Watch(ctx context.Context, resolved <-chan struct{}) {
	select {
	case <-resolved:
		r.health.SetServingStatus(SessionService, healthpb.HealthCheckResponse_SERVING)
		r.logger.Info("gRPC server: session service is serving")
	case <-ctx.Done():
	}

	<-ctx.Done()
	r.health.Shutdown()
}
