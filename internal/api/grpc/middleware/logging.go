// Package middleware holds the interceptors of the readiness gRPC server.
package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/dtroode/storefront/internal/logger"
)

// Logging logs every gRPC call with its duration and status code.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates request logging interceptors.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleUnary is a unary server interceptor.
func (l *Logging) HandleUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l.log(info.FullMethod, start, err)
	return resp, err
}

// HandleStream is a stream server interceptor. Health watches are streams
// that last as long as the client stays connected.
func (l *Logging) HandleStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	l.logger.Debug("gRPC server: stream opened",
		"method", info.FullMethod)
	err := handler(srv, ss)
	l.log(info.FullMethod, start, err)
	return err
}

func (l *Logging) log(method string, start time.Time, err error) {
	// status.Code maps non-status errors to Unknown.
	code := status.Code(err)

	if err != nil {
		l.logger.Error("gRPC server: request failed",
			"method", method,
			"duration_ms", time.Since(start).Milliseconds(),
			"status", code.String(),
			"error", err.Error())
		return
	}

	l.logger.Debug("gRPC server: request completed",
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String())
}
