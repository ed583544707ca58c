package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/pv-alarm/internal/logger"
)

// ServiceName is the health service name reported for the monitor.
const ServiceName = "pv_alarm.Monitor"

// Probe reports whether the daemon can accept work.
type Probe interface {
	Ready() bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() bool

// Ready implements Probe.
func (f ProbeFunc) Ready() bool { return f() }

// Server publishes the probe result through grpc.health.v1.
type Server struct {
	// health is the stock grpc-go health implementation.
	health *grpchealth.Server
	// probe decides the serving status.
	probe Probe
}

// NewServer creates a server reporting NOT_SERVING until the first Refresh.
func NewServer(probe Probe) *Server {
	s := &Server{
		health: grpchealth.NewServer(),
		probe:  probe,
	}

	s.set(healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

// Register attaches the health service to a gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, s.health)
}

// Refresh evaluates the probe and updates the serving status.
func (s *Server) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.probe.Ready() {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.set(status)

	return status
}

// Watch refreshes the status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Refresh()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}

// Shutdown reports NOT_SERVING permanently.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

// Serve runs a gRPC server with the health service on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer()
	s.Register(grpcServer)

	logger.InfoKV(ctx, "Health service listening", "listen_address", lis.Addr().String())

	// Done channel is closed after GracefulStop finishes so Serve returns
	// only once the server fully stopped.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		s.Shutdown()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Health service stopped")

	return nil
}

// set applies status to both the overall server and the monitor service.
func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
