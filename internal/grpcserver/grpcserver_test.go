package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/patric-chuzhbe/miniblog/internal/db/memorystorage"
	"github.com/patric-chuzhbe/miniblog/internal/logger"
)

func TestHealthCheckReportsServing(t *testing.T) {
	require.NoError(t, logger.Init("info"))

	db, err := memorystorage.New()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, lis, err := New(ctx, "localhost:0", db)
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	go func() {
		_ = server.Serve(lis)
	}()

	conn, err := grpc.DialContext(
		ctx,
		lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	response, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, response.GetStatus())
}
