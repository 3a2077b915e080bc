// Package grpc exposes the detector's health over the standard grpc.health.v1 protocol.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/logger"
)

// ServiceName is the health service name clients may query besides "".
const ServiceName = "sentinel.Detector"

const defaultSyncInterval = 5 * time.Second

// HealthReporter reports detector health.
type HealthReporter interface {
	Health() models.Health
}

// HealthServer serves grpc.health.v1 and mirrors the detector status into it.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	reporter HealthReporter
	interval time.Duration
	logger   logger.Logger
}

// NewHealthServer builds the gRPC server. A non-positive interval uses the default.
func NewHealthServer(reporter HealthReporter, interval time.Duration, log logger.Logger) *HealthServer {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	chain := NewInterceptorChain(log)
	s := &HealthServer{
		server:   grpc.NewServer(chain.ChainUnaryInterceptors()),
		health:   health.NewServer(),
		reporter: reporter,
		interval: interval,
		logger:   log.WithComponent("GRPCHealth"),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.Sync()
	return s
}

// Sync copies the current detector status into the health server.
func (s *HealthServer) Sync() healthpb.HealthCheckResponse_ServingStatus {
	st := servingStatus(s.reporter.Health())
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

func servingStatus(h models.Health) healthpb.HealthCheckResponse_ServingStatus {
	if h.Status == constants.HealthStatusOperational {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Serve syncs the status periodically and serves on lis until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go s.syncLoop(ctx)

	s.logger.Info(ctx, "Starting gRPC health server", logger.String("address", lis.Addr().String()))
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.server.GracefulStop()
	}()
	return s.server.Serve(lis)
}

func (s *HealthServer) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.Sync()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := s.Sync(); st != last {
				s.logger.Info(ctx, "Detector serving status changed",
					logger.String("from", last.String()), logger.String("to", st.String()))
				last = st
			}
		}
	}
}
