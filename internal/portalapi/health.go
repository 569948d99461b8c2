package portalapi

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthService names the portal in gRPC health checks.
const healthService = "casino.portal"

type healthEndpoint struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func newHealthEndpoint(addr string) (*healthEndpoint, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	return &healthEndpoint{server: grpcServer, health: healthServer, listener: listener}, nil
}

func (endpoint *healthEndpoint) serve(logger *zap.Logger, errCh chan<- error) {
	go func() {
		logger.Info("grpc health listening", zap.String("addr", endpoint.listener.Addr().String()))
		if err := endpoint.server.Serve(endpoint.listener); err != nil && err != grpc.ErrServerStopped {
			errCh <- err
		}
	}()
}

// stop reports NOT_SERVING to watchers before draining connections.
func (endpoint *healthEndpoint) stop() {
	endpoint.health.Shutdown()
	endpoint.server.GracefulStop()
}
