// Package grpcserver exposes a gRPC liveness endpoint implementing the
// standard health v1 service. Load balancers and orchestrators probe it
// instead of the HTTP surface.
package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/patric-chuzhbe/miniblog/internal/grpcserver/interceptor"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// New builds a gRPC server serving the standard health service on addr.
// The reported status follows the storage health check at startup time;
// the caller owns serving and shutdown of the returned server.
func New(ctx context.Context, addr string, db pinger) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor([]string{
				"/grpc.health.v1.Health/Check",
			}),
		),
	)

	healthServer := health.NewServer()
	servingStatus := healthpb.HealthCheckResponse_SERVING
	if err := db.Ping(ctx); err != nil {
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	}
	healthServer.SetServingStatus("", servingStatus)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, lis, nil
}
