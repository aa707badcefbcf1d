// Package health exposes the document store's reachability over the
// standard gRPC health protocol so orchestrators can probe the gateway.
package health

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "lunch.Ledger"

const pingTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	pinger     Pinger

	mu      sync.RWMutex
	lastErr error
	checked time.Time
}

func NewServer(pinger Pinger) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		pinger:     pinger,
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Check pings the store once and publishes the result.
func (s *Server) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := s.pinger.Ping(ctx)
	s.mu.Lock()
	changed := (err == nil) != (s.lastErr == nil) || s.checked.IsZero()
	s.lastErr = err
	s.checked = time.Now()
	s.mu.Unlock()

	if err != nil {
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		if changed {
			log.Printf("health: store unreachable: %v", err)
		}
		return err
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
	if changed {
		log.Printf("health: store reachable")
	}
	return nil
}

// Last returns the result of the most recent Check.
func (s *Server) Last() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checked, s.lastErr
}

// Watch re-checks the store every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
