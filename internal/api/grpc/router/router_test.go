package router

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/storefront/internal/testutil"
)

func serve(t *testing.T, readiness *Readiness) healthpb.HealthClient {
	t.Helper()

	s := New(readiness.Health(), testutil.MakeNoopLogger()).Register()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient(ln.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	return resp.GetStatus(), err
}

func TestRouter_RegistersServices(t *testing.T) {
	s := New(NewReadiness(testutil.MakeNoopLogger()).Health(), testutil.MakeNoopLogger()).Register()

	info := s.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
}

func TestReadiness_ServingAfterResolution(t *testing.T) {
	readiness := NewReadiness(testutil.MakeNoopLogger())
	client := serve(t, readiness)

	st, err := check(t, client, SessionService)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resolved := make(chan struct{})
	go readiness.Watch(ctx, resolved)
	close(resolved)

	require.Eventually(t, func() bool {
		st, err := check(t, client, SessionService)
		return err == nil && st == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReadiness_UnknownService(t *testing.T) {
	client := serve(t, NewReadiness(testutil.MakeNoopLogger()))

	_, err := check(t, client, "storefront.Nope")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestReadiness_ShutdownOnCancel(t *testing.T) {
	readiness := NewReadiness(testutil.MakeNoopLogger())
	client := serve(t, readiness)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		readiness.Watch(ctx, make(chan struct{}))
		close(done)
	}()
	cancel()
	<-done

	st, err := check(t, client, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)
}
