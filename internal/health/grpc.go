// Package health exposes the standard grpc.health.v1 service so container
// orchestrators can probe the quiz server over gRPC.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName is the service name reported alongside the overall status.
const ServiceName = "quizzical.Quiz"

// Pinger is satisfied by store.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a gRPC server that only hosts the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates a health server. Status starts as NOT_SERVING until the
// first successful check.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gs := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    2 * time.Minute,
			Timeout: 10 * time.Second,
		}),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{grpc: gs, health: hs, logger: logger}
	s.SetServing(false)
	return s
}

// SetServing updates both the overall and the quiz service status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch pings the database every interval and reports the result until ctx
// is done.
func (s *Server) Watch(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			s.logger.Warn("Health probe failed", "error", err)
			s.SetServing(false)
			return
		}
		s.SetServing(true)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
