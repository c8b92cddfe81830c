package httpapi

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"loandesk.org/internal/obs"
)

// HealthServer exposes readiness over the standard gRPC health protocol.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer

	readyProbe ReadyProbe
}

// NewHealthServer creates the gRPC health service wrapper.
func NewHealthServer(rp ReadyProbe) *HealthServer {
	return &HealthServer{readyProbe: rp}
}

// Check evaluates readiness for the requested service.
func (s *HealthServer) Check(ctx context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if err := s.readyProbe.Check(ctx); err != nil {
		obs.SetReady(false)
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, nil
	}
	obs.SetReady(true)
	return &grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	}, nil
}

// Watch is not supported; clients should poll Check.
func (s *HealthServer) Watch(_ *grpc_health_v1.HealthCheckRequest, _ grpc_health_v1.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "watch is not supported")
}
