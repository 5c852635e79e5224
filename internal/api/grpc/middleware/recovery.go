package middleware

import (
	"context"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/storefront/internal/logger"
)

// RecoveryOption turns handler panics into Internal errors and logs them.
func RecoveryOption(logger *logger.Logger) recovery.Option {
	return recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
		logger.Error("gRPC server: recovered from panic",
			"panic", p,
			"stack", string(debug.Stack()))
		return status.Error(codes.Internal, "internal error")
	})
}
